// Package jwt encodes and verifies signed claim sets using symmetric HMAC keys
// with strict validation semantics suitable for low-latency authentication paths.
//
// # Architecture boundaries
//
// This package owns the [Codec] (pure sign/verify transformation) and the
// [ClaimSet] model. It does NOT resolve tenant keys, consult revocation state,
// or enforce authentication policy — those responsibilities belong to the Engine.
//
// # What this package must NOT do
//
//   - Import tokengate, tenant, or revocation (no upward imports).
//   - Perform I/O of any kind. Sign and Verify are pure functions.
//   - Accept signing algorithms other than HS256.
package jwt
