package tokengate

import "context"

// Principal is the account record behind a token subject. Read-only from this
// engine's perspective; the Principal Store owns its lifecycle.
type Principal struct {
	Username       string
	CredentialHash string
	Roles          []string
}

// PrincipalStore is the external account registry consumed during request
// authentication. Implementations return (nil, nil) for an unknown username
// and reserve errors for backend failures.
type PrincipalStore interface {
	FindPrincipalByUsername(ctx context.Context, username string) (*Principal, error)
}

// Identity is the authenticated caller identity produced by
// [Engine.Authenticate] and attached to the request context by the
// middleware dispatcher. Role claims are carried for downstream
// authorization; this engine never interprets them.
type Identity struct {
	Subject    string
	TenantID   int64 // zero for global-namespace tokens
	TenantName string
	Roles      []string
}
