// Package middleware provides the per-request authentication dispatcher for
// net/http servers.
//
// # Design
//
// Dispatch classifies each request path against an ordered, data-driven rule
// table, picks the validation flavor (global vs. named-tenant) the
// classification implies, and on success attaches the caller [tokengate.Identity]
// to the request context. Logout-classified paths additionally revoke the
// presented token. A missing or invalid token never blocks the chain — the
// request proceeds unauthenticated and downstream authorization rejects it;
// only an infrastructure failure during dispatch yields an explicit
// unauthorized response.
//
// New tenant-aware routes are added by extending the rule table, not by
// touching dispatcher logic.
package middleware
