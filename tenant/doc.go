// Package tenant resolves tenant signing keys and token lifetimes from a
// caller-supplied directory backend.
//
// # Design
//
// Resolution by name serves the issuance path (operator-facing); resolution by
// numeric id serves the validation path (claim-driven). Keeping the two
// lookups separate lets the validator cross-check the tenant id claimed by a
// token against the tenant named by the request, closing a name-spoofing hole
// where a token signed for one tenant is presented under another tenant's name.
//
// # Architecture boundaries
//
// This package owns key material resolution only. It does NOT sign or verify
// tokens, cache beyond what the directory provides, or make authentication
// decisions — those responsibilities belong to the Engine.
package tenant
