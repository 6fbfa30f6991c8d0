// Package tokengate provides a multi-tenant bearer-token lifecycle engine:
// token issuance, per-tenant signing-key resolution, signature/expiry/revocation
// validation, and request-authentication dispatch.
//
// The package is designed for concurrent server workloads: Engine methods are safe
// to call from multiple goroutines after initialization through [Builder.Build].
//
// # Architecture boundaries
//
// tokengate is the public surface. It exposes [Engine], [Builder], [Config],
// the external collaborator interfaces ([PrincipalStore], tenant.Directory),
// and the audit types. Token encoding lives in jwt/, key resolution in tenant/,
// the shared blacklist in revocation/, and HTTP dispatch in middleware/.
//
// # What this package must NOT do
//
//   - Persist tenants or principals. The Tenant Directory and Principal Store
//     are external collaborators consumed through interfaces.
//   - Keep revocation state in process memory. The Redis-backed blacklist is
//     the single cross-instance revocation mechanism for every token path.
//   - Surface individual validation failure reasons to callers. Validation
//     collapses to a binary outcome; only issuance errors are distinguished.
//
// # Performance contract
//
// Validate is the hot path: one directory lookup for tenant tokens, one
// signature verification, and one Redis EXISTS. Issuance is allocation plus
// one directory lookup; no Redis round-trip.
package tokengate
