package tokengate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tokengate/tokengate/jwt"
	"github.com/tokengate/tokengate/revocation"
	"github.com/tokengate/tokengate/tenant"
)

// Engine defines a public type used by tokengate APIs.
//
// Engine instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Engine struct {
	config      Config
	codec       *jwt.Codec
	resolver    *tenant.Resolver
	revocations *revocation.Store
	principals  PrincipalStore
	audit       *auditDispatcher
	globalKey   []byte
}

// Close describes the close operation and its observable behavior.
//
// Close may return an error when input validation, dependency calls, or security checks fail.
// Close does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped describes the auditdropped operation and its observable behavior.
//
// AuditDropped may return an error when input validation, dependency calls, or security checks fail.
// AuditDropped does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// IssueGlobal builds a claim set for subject in the global namespace and
// returns the signed token. The token is immediately valid and verifiable
// without consulting the issuer again.
//
// IssueGlobal may return an error when input validation, dependency calls, or security checks fail.
// IssueGlobal does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) IssueGlobal(ctx context.Context, subject string) (string, error) {
	return e.IssueGlobalWithClaims(ctx, subject, nil)
}

// IssueGlobalWithClaims is [Engine.IssueGlobal] with caller-supplied extra
// claims merged into the payload. Registered claim names always win over
// extra entries.
func (e *Engine) IssueGlobalWithClaims(ctx context.Context, subject string, extra map[string]any) (string, error) {
	if e == nil {
		return "", ErrEngineNotReady
	}
	if strings.TrimSpace(subject) == "" {
		return "", ErrSubjectEmpty
	}

	now := time.Now()
	claims := jwt.ClaimSet{
		Subject:   subject,
		IssuedAt:  now,
		ExpiresAt: now.Add(e.config.JWT.Lifetime),
		TokenID:   uuid.NewString(),
		Extra:     extra,
	}

	token, err := e.codec.Sign(claims, e.globalKey)
	if err != nil {
		return "", err
	}

	e.emitAudit(ctx, AuditEvent{
		EventType: EventTokenIssued,
		Subject:   subject,
		TokenID:   claims.TokenID,
		Success:   true,
	})

	return token, nil
}

// IssueForTenant builds a claim set for subject bound to tenantName and signs
// it with the tenant's secret. The claim set carries the tenant's numeric id;
// expiry follows the tenant's configured lifetime with a fallback default.
//
// IssueForTenant may return an error when input validation, dependency calls, or security checks fail.
// IssueForTenant does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) IssueForTenant(ctx context.Context, subject, tenantName string) (string, error) {
	return e.IssueForTenantWithClaims(ctx, subject, tenantName, nil)
}

// IssueForTenantWithClaims is [Engine.IssueForTenant] with caller-supplied
// extra claims merged into the payload.
func (e *Engine) IssueForTenantWithClaims(ctx context.Context, subject, tenantName string, extra map[string]any) (string, error) {
	if e == nil {
		return "", ErrEngineNotReady
	}
	if strings.TrimSpace(subject) == "" {
		return "", ErrSubjectEmpty
	}

	rec, err := e.resolver.Resolve(ctx, tenantName)
	if err != nil {
		if errors.Is(err, tenant.ErrNotConfigured) {
			return "", ErrTenantNotConfigured
		}
		return "", err
	}

	now := time.Now()
	claims := jwt.ClaimSet{
		Subject:   subject,
		IssuedAt:  now,
		ExpiresAt: now.Add(rec.TokenLifetime),
		TenantID:  rec.ID,
		TokenID:   uuid.NewString(),
		Extra:     extra,
	}

	token, err := e.codec.Sign(claims, rec.Secret)
	if err != nil {
		return "", err
	}

	e.emitAudit(ctx, AuditEvent{
		EventType:  EventTokenIssued,
		Subject:    subject,
		TenantName: tenantName,
		TokenID:    claims.TokenID,
		Success:    true,
	})

	return token, nil
}

// Validate runs the full validation pipeline on token: key resolution,
// signature, tenant-id cross-check, expiry, revocation, and subject equality.
// All failure modes collapse to false; callers cannot distinguish an expired
// token from a forged one. A revocation-store outage also yields false.
//
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Validate(ctx context.Context, token, expectedSubject, tenantName string) bool {
	if e == nil {
		return false
	}

	claims, err := e.checkToken(ctx, token, expectedSubject, tenantName)
	if err != nil {
		e.emitAudit(ctx, AuditEvent{
			EventType:  EventTokenRejected,
			Subject:    expectedSubject,
			TenantName: tenantName,
			Error:      err.Error(),
		})
		return false
	}

	e.emitAudit(ctx, AuditEvent{
		EventType:  EventTokenValidated,
		Subject:    claims.Subject,
		TenantName: tenantName,
		TokenID:    claims.TokenID,
		Success:    true,
	})

	return true
}

// ExtractSubject decodes token with the key for tenantName (global key when
// empty) and returns the subject claim without running the revocation and
// subject checks. The dispatcher uses it to look up the expected principal
// before calling [Engine.Validate].
//
// ExtractSubject may return an error when input validation, dependency calls, or security checks fail.
// ExtractSubject does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) ExtractSubject(ctx context.Context, token, tenantName string) (string, error) {
	if e == nil {
		return "", ErrEngineNotReady
	}

	key, _, err := e.signingKey(ctx, tenantName)
	if err != nil {
		return "", err
	}

	claims, err := e.codec.Verify(token, key)
	if err != nil {
		return "", err
	}

	return claims.Subject, nil
}

// Authenticate resolves the caller identity behind token for the given
// validation flavor. It returns (identity, nil) for an authenticated caller,
// (nil, nil) when the token is absent from the principal store or fails
// validation, and (nil, err) only for infrastructure failures that should
// abort the request.
//
// Authenticate may return an error when input validation, dependency calls, or security checks fail.
// Authenticate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Authenticate(ctx context.Context, token, tenantName string) (*Identity, error) {
	if e == nil || e.principals == nil {
		return nil, ErrEngineNotReady
	}

	subject, err := e.ExtractSubject(ctx, token, tenantName)
	if err != nil {
		if errors.Is(err, tenant.ErrDirectoryUnavailable) {
			return nil, err
		}
		e.emitReject(ctx, "", tenantName, err)
		return nil, nil
	}

	principal, err := e.principals.FindPrincipalByUsername(ctx, subject)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPrincipalStoreUnavailable, err)
	}
	if principal == nil {
		e.emitReject(ctx, subject, tenantName, errors.New("principal not found"))
		return nil, nil
	}

	claims, err := e.checkToken(ctx, token, principal.Username, tenantName)
	if err != nil {
		if errors.Is(err, revocation.ErrStoreUnavailable) || errors.Is(err, tenant.ErrDirectoryUnavailable) {
			return nil, err
		}
		e.emitReject(ctx, subject, tenantName, err)
		return nil, nil
	}

	identity := &Identity{
		Subject:  claims.Subject,
		TenantID: claims.TenantID,
		Roles:    append([]string(nil), principal.Roles...),
	}
	if tenantName != "" {
		identity.TenantName = tenantName
	}

	e.emitAudit(ctx, AuditEvent{
		EventType:  EventTokenValidated,
		Subject:    claims.Subject,
		TenantName: tenantName,
		TokenID:    claims.TokenID,
		Success:    true,
	})

	return identity, nil
}

// Logout revokes token for the remainder of its lifetime. The revocation is
// written to the shared blacklist with a TTL of the remaining validity window
// plus leeway and grace, so the entry self-removes once the token could no
// longer validate anyway. A blacklist outage is logged and swallowed: logout
// must never block on the cache.
//
// Logout may return an error when input validation, dependency calls, or security checks fail.
// Logout does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Logout(ctx context.Context, token, tenantName string) error {
	if e == nil {
		return ErrEngineNotReady
	}

	key, _, err := e.signingKey(ctx, tenantName)
	if err != nil {
		return err
	}

	claims, err := e.codec.Verify(token, key)
	if err != nil {
		return ErrTokenInvalid
	}

	ttl := time.Until(claims.ExpiresAt) + e.config.JWT.Leeway + e.config.Revocation.LogoutGrace
	if ttl <= 0 {
		// Already past its validity window; nothing to revoke.
		return nil
	}

	event := AuditEvent{
		EventType:  EventLogout,
		Subject:    claims.Subject,
		TenantName: tenantName,
		TokenID:    claims.TokenID,
	}
	if err := e.revocations.RevokeWithExpiry(ctx, token, ttl); err != nil {
		event.Error = err.Error()
		e.emitAudit(ctx, event)
		return nil
	}

	event.Success = true
	e.emitAudit(ctx, event)
	return nil
}

// Revoke permanently marks token as revoked in the shared blacklist.
//
// Revoke may return an error when input validation, dependency calls, or security checks fail.
// Revoke does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Revoke(ctx context.Context, token string) error {
	if e == nil {
		return ErrEngineNotReady
	}

	if err := e.revocations.RevokePermanently(ctx, token); err != nil {
		return err
	}

	e.emitAudit(ctx, AuditEvent{EventType: EventTokenRevoked, Success: true})
	return nil
}

// RevokeFor marks token as revoked for ttl; the record self-removes afterwards.
//
// RevokeFor may return an error when input validation, dependency calls, or security checks fail.
// RevokeFor does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) RevokeFor(ctx context.Context, token string, ttl time.Duration) error {
	if e == nil {
		return ErrEngineNotReady
	}

	if err := e.revocations.RevokeWithExpiry(ctx, token, ttl); err != nil {
		return err
	}

	e.emitAudit(ctx, AuditEvent{EventType: EventTokenRevoked, Success: true})
	return nil
}

// Unrevoke removes a revocation record. Intended for administrative recovery.
//
// Unrevoke may return an error when input validation, dependency calls, or security checks fail.
// Unrevoke does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Unrevoke(ctx context.Context, token string) error {
	if e == nil {
		return ErrEngineNotReady
	}

	if err := e.revocations.Unrevoke(ctx, token); err != nil {
		return err
	}

	e.emitAudit(ctx, AuditEvent{EventType: EventTokenUnrevoked, Success: true})
	return nil
}

// TenantNames returns the names of all tenants registered in the directory.
func (e *Engine) TenantNames(ctx context.Context) ([]string, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	return e.resolver.TenantNames(ctx)
}

// signingKey resolves the verification key for a validation flavor: the
// global key when tenantName is empty, the tenant's secret otherwise.
func (e *Engine) signingKey(ctx context.Context, tenantName string) ([]byte, *tenant.Record, error) {
	if tenantName == "" {
		return e.globalKey, nil, nil
	}

	rec, err := e.resolver.Resolve(ctx, tenantName)
	if err != nil {
		return nil, nil, err
	}

	return rec.Secret, rec, nil
}

// checkToken is the validation pipeline shared by Validate and Authenticate.
// Check order is cheapest-first: signature and expiry (no I/O), then the
// tenant-id cross-check, then one blacklist round-trip, then subject equality.
func (e *Engine) checkToken(ctx context.Context, token, expectedSubject, tenantName string) (*jwt.ClaimSet, error) {
	key, rec, err := e.signingKey(ctx, tenantName)
	if err != nil {
		return nil, err
	}

	claims, err := e.codec.Verify(token, key)
	if err != nil {
		return nil, err
	}

	if rec != nil && claims.TenantID != rec.ID {
		// A token signed for one tenant presented under another tenant's
		// name. Indistinguishable from any other invalid token.
		return nil, ErrTokenInvalid
	}

	revoked, err := e.revocations.IsRevoked(ctx, token)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrTokenRevoked
	}

	if claims.Subject != expectedSubject {
		return nil, ErrSubjectMismatch
	}

	return claims, nil
}

func (e *Engine) emitReject(ctx context.Context, subject, tenantName string, reason error) {
	e.emitAudit(ctx, AuditEvent{
		EventType:  EventTokenRejected,
		Subject:    subject,
		TenantName: tenantName,
		Error:      reason.Error(),
	})
}

func (e *Engine) emitAudit(ctx context.Context, event AuditEvent) {
	if e == nil || e.audit == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.IP == "" {
		event.IP = clientIPFromContext(ctx)
	}
	e.audit.Emit(ctx, event)
}
