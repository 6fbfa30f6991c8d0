package tenant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tokengate/tokengate/jwt"
)

// DefaultLifetime is the token lifetime applied when a tenant record carries none.
const DefaultLifetime = time.Hour

var (
	// ErrNotConfigured is returned when a tenant is unknown or has no usable
	// signing secret. Callers treat both cases identically; the directory is
	// the single source of truth.
	ErrNotConfigured = errors.New("tenant not configured")
	// ErrDirectoryUnavailable is returned when the directory backend fails.
	ErrDirectoryUnavailable = errors.New("tenant directory unavailable")
)

// DirectoryRecord is the raw tenant row returned by a [Directory]. The secret
// is a base64-encoded byte string of at least 256 bits.
type DirectoryRecord struct {
	ID            int64
	Name          string
	Secret        string
	TokenLifetime time.Duration
}

// Directory is the external tenant registry consumed by the [Resolver].
// Implementations return (nil, nil) for an absent tenant and reserve errors
// for backend failures.
type Directory interface {
	FindTenantByName(ctx context.Context, name string) (*DirectoryRecord, error)
	FindTenantByID(ctx context.Context, id int64) (*DirectoryRecord, error)
	ListTenantNames(ctx context.Context) ([]string, error)
}

// Record is a resolved tenant key record: decoded secret bytes plus the
// effective token lifetime. Read-only from the engine's perspective; rotating
// the secret in the directory implicitly invalidates all previously issued
// tenant tokens.
type Record struct {
	ID            int64
	Name          string
	Secret        []byte
	TokenLifetime time.Duration
}

// Resolver defines a public type used by tokengate APIs.
//
// Resolver instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Resolver struct {
	directory       Directory
	defaultLifetime time.Duration
}

// NewResolver creates a [Resolver] over the given directory. defaultLifetime
// is applied to tenants with no explicit lifetime; zero or negative means
// [DefaultLifetime].
func NewResolver(directory Directory, defaultLifetime time.Duration) *Resolver {
	if defaultLifetime <= 0 {
		defaultLifetime = DefaultLifetime
	}
	return &Resolver{
		directory:       directory,
		defaultLifetime: defaultLifetime,
	}
}

// Resolve looks up a tenant by name and returns its key record.
//
// Resolve may return an error when input validation, dependency calls, or security checks fail.
// Resolve does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (r *Resolver) Resolve(ctx context.Context, name string) (*Record, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrNotConfigured
	}

	raw, err := r.directory.FindTenantByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDirectoryUnavailable, err)
	}

	return r.toRecord(raw)
}

// ResolveByID looks up a tenant by numeric id and returns its key record.
// Used when validating a token that already carries a tenant id claim.
//
// ResolveByID may return an error when input validation, dependency calls, or security checks fail.
// ResolveByID does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (r *Resolver) ResolveByID(ctx context.Context, id int64) (*Record, error) {
	if id <= 0 {
		return nil, ErrNotConfigured
	}

	raw, err := r.directory.FindTenantByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDirectoryUnavailable, err)
	}

	return r.toRecord(raw)
}

// TenantNames returns the names of all registered tenants.
func (r *Resolver) TenantNames(ctx context.Context) ([]string, error) {
	names, err := r.directory.ListTenantNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDirectoryUnavailable, err)
	}
	return names, nil
}

func (r *Resolver) toRecord(raw *DirectoryRecord) (*Record, error) {
	if raw == nil {
		return nil, ErrNotConfigured
	}

	secret, err := jwt.DecodeSecret(raw.Secret)
	if err != nil {
		// A tenant with a missing or undecodable secret is indistinguishable
		// from an unknown tenant.
		return nil, ErrNotConfigured
	}

	lifetime := raw.TokenLifetime
	if lifetime <= 0 {
		lifetime = r.defaultLifetime
	}

	return &Record{
		ID:            raw.ID,
		Name:          raw.Name,
		Secret:        secret,
		TokenLifetime: lifetime,
	}, nil
}
