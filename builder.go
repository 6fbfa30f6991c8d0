package tokengate

import (
	"errors"

	"github.com/redis/go-redis/v9"
	"github.com/tokengate/tokengate/jwt"
	"github.com/tokengate/tokengate/revocation"
	"github.com/tokengate/tokengate/tenant"
)

// Builder defines a public type used by tokengate APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	directory  tenant.Directory
	principals PrincipalStore
	auditSink  AuditSink

	built bool
}

// New describes the new operation and its observable behavior.
//
// New may return an error when input validation, dependency calls, or security checks fail.
// New does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig describes the withconfig operation and its observable behavior.
//
// WithConfig may return an error when input validation, dependency calls, or security checks fail.
// WithConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis describes the withredis operation and its observable behavior.
//
// WithRedis may return an error when input validation, dependency calls, or security checks fail.
// WithRedis does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithDirectory describes the withdirectory operation and its observable behavior.
//
// WithDirectory may return an error when input validation, dependency calls, or security checks fail.
// WithDirectory does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithDirectory(dir tenant.Directory) *Builder {
	b.directory = dir
	return b
}

// WithPrincipalStore describes the withprincipalstore operation and its observable behavior.
//
// WithPrincipalStore may return an error when input validation, dependency calls, or security checks fail.
// WithPrincipalStore does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithPrincipalStore(store PrincipalStore) *Builder {
	b.principals = store
	return b
}

// WithAuditSink describes the withauditsink operation and its observable behavior.
//
// WithAuditSink may return an error when input validation, dependency calls, or security checks fail.
// WithAuditSink does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build may return an error when input validation, dependency calls, or security checks fail.
// Build does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if b.redis == nil {
		return nil, errors.New("redis client required")
	}
	if b.directory == nil {
		return nil, errors.New("tenant directory required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	globalKey, err := jwt.DecodeSecret(cfg.JWT.Secret)
	if err != nil {
		return nil, err
	}

	codec, err := jwt.NewCodec(jwt.Config{Leeway: cfg.JWT.Leeway})
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config:      cfg,
		codec:       codec,
		resolver:    tenant.NewResolver(b.directory, cfg.Tenant.DefaultLifetime),
		revocations: revocation.NewStore(b.redis, cfg.Revocation.RedisPrefix),
		principals:  b.principals,
		audit:       newAuditDispatcher(cfg.Audit, b.auditSink),
		globalKey:   globalKey,
	}

	b.built = true

	return engine, nil
}
