// Package revocation provides the Redis-backed shared token blacklist used by
// all service instances.
//
// # Design
//
// Revocation is token-keyed: the Redis key is derived from a SHA-256 hash of
// the raw token, so a user with several concurrent sessions can revoke one
// token without touching the others, and raw tokens never land in Redis.
// Timed revocations rely on Redis TTL expiry; the store never scans or
// garbage-collects on its own.
//
// The blacklist is the single cross-instance revocation mechanism for both
// the global and per-tenant token paths. A per-instance in-memory set is
// insufficient in a horizontally scaled deployment: a logout on one instance
// would remain invisible to the others.
//
// # Architecture boundaries
//
// This package owns blacklist persistence only. It does NOT parse tokens,
// compute expiry windows, or decide when to revoke — those responsibilities
// belong to the Engine and the request dispatcher.
package revocation
