package tokengate

import "errors"

var (
	// ErrEngineNotReady is an exported constant or variable used by the token engine.
	ErrEngineNotReady = errors.New("engine not ready")
	// ErrTenantNotConfigured is an exported constant or variable used by the token engine.
	ErrTenantNotConfigured = errors.New("tenant not found or no secret key configured")
	// ErrTokenInvalid is an exported constant or variable used by the token engine.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenRevoked is an exported constant or variable used by the token engine.
	ErrTokenRevoked = errors.New("token revoked")
	// ErrSubjectMismatch is an exported constant or variable used by the token engine.
	ErrSubjectMismatch = errors.New("token subject mismatch")
	// ErrSubjectEmpty is an exported constant or variable used by the token engine.
	ErrSubjectEmpty = errors.New("subject must not be empty")
	// ErrPrincipalStoreUnavailable is an exported constant or variable used by the token engine.
	ErrPrincipalStoreUnavailable = errors.New("principal store unavailable")
)
