package tokengate

import (
	"errors"
	"strings"
	"time"

	"github.com/tokengate/tokengate/jwt"
)

// Config defines a public type used by tokengate APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	JWT        JWTConfig
	Tenant     TenantConfig
	Revocation RevocationConfig
	Audit      AuditConfig
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig defines a public type used by tokengate APIs.
//
// JWTConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type JWTConfig struct {
	// Secret is the base64-encoded global signing key, at least 256 bits.
	Secret string
	// Lifetime is the validity window of global-namespace tokens.
	Lifetime time.Duration
	// Leeway is the clock-skew allowance applied to expiry checks.
	Leeway time.Duration
}

/*
====================================
TENANT CONFIG
====================================
*/

// TenantConfig defines a public type used by tokengate APIs.
//
// TenantConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type TenantConfig struct {
	// DefaultLifetime applies to tenants whose directory record carries no
	// explicit token lifetime. Zero means one hour.
	DefaultLifetime time.Duration
}

/*
====================================
REVOCATION CONFIG
====================================
*/

// RevocationConfig defines a public type used by tokengate APIs.
//
// RevocationConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type RevocationConfig struct {
	RedisPrefix string
	// LogoutGrace is added to the remaining token lifetime when a logout
	// revocation is written, so the blacklist entry outlives the token even
	// under clock skew.
	LogoutGrace time.Duration
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig defines a public type used by tokengate APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// DefaultConfig returns the baseline configuration: one-hour token lifetimes,
// five seconds of clock-skew leeway, and auditing disabled. The global secret
// has no default and must be set by the caller.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			Lifetime: time.Hour,
			Leeway:   5 * time.Second,
		},
		Tenant: TenantConfig{
			DefaultLifetime: time.Hour,
		},
		Revocation: RevocationConfig{
			RedisPrefix: "tg:bl",
			LogoutGrace: 5 * time.Second,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	// All fields are value types; a struct copy is a deep copy.
	return cfg
}

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Config) Validate() error {
	// JWT
	if strings.TrimSpace(c.JWT.Secret) == "" {
		return errors.New("JWT Secret must be set")
	}
	if _, err := jwt.DecodeSecret(c.JWT.Secret); err != nil {
		return err
	}
	if c.JWT.Lifetime <= 0 {
		return errors.New("JWT Lifetime must be > 0")
	}
	if c.JWT.Leeway < 0 || c.JWT.Leeway > 2*time.Minute {
		return errors.New("JWT Leeway must be within [0, 2m]")
	}

	// Tenant
	if c.Tenant.DefaultLifetime < 0 {
		return errors.New("Tenant DefaultLifetime must be >= 0")
	}

	// Revocation
	if c.Revocation.LogoutGrace < 0 {
		return errors.New("Revocation LogoutGrace must be >= 0")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when auditing is enabled")
	}

	return nil
}
