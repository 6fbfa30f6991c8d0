package test

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/tokengate/tokengate"
	"github.com/tokengate/tokengate/tenant"
)

// ExampleNew demonstrates engine construction with production-style dependencies.
func ExampleNew() {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:6379"})

	cfg := tokengate.DefaultConfig()
	cfg.JWT.Secret = "c2VjcmV0LXNlY3JldC1zZWNyZXQtc2VjcmV0LTEyMzQ1Ng=="

	engine, _ := tokengate.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithDirectory(&exampleDirectory{}).
		WithPrincipalStore(&examplePrincipals{}).
		Build()
	_ = engine
}

// ExampleEngine_Validate shows the boolean validation entrypoint.
func ExampleEngine_Validate() {
	var engine *tokengate.Engine
	ok := engine.Validate(context.Background(), "token", "alice", "Acme")
	_ = ok
}

type exampleDirectory struct{}

func (*exampleDirectory) FindTenantByName(_ context.Context, _ string) (*tenant.DirectoryRecord, error) {
	return nil, nil
}
func (*exampleDirectory) FindTenantByID(_ context.Context, _ int64) (*tenant.DirectoryRecord, error) {
	return nil, nil
}
func (*exampleDirectory) ListTenantNames(_ context.Context) ([]string, error) {
	return nil, nil
}

type examplePrincipals struct{}

func (*examplePrincipals) FindPrincipalByUsername(_ context.Context, _ string) (*tokengate.Principal, error) {
	return nil, nil
}
