//go:build integration
// +build integration

package test

import (
	"context"
	"encoding/base64"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/tokengate/tokengate"
	"github.com/tokengate/tokengate/tenant"
)

func newIntegrationEngine(t *testing.T) (*tokengate.Engine, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := tokengate.DefaultConfig()
	cfg.JWT.Secret = encodedSecret(0x11)

	engine, err := tokengate.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithDirectory(fixtureDirectory{
			"Acme":   {ID: 1, Name: "Acme", Secret: encodedSecret(0xA1), TokenLifetime: time.Hour},
			"Globex": {ID: 2, Name: "Globex", Secret: encodedSecret(0xB2), TokenLifetime: 15 * time.Minute},
		}).
		WithPrincipalStore(fixturePrincipals{
			"alice": {Username: "alice", Roles: []string{"admin"}},
			"bob":   {Username: "bob", Roles: []string{"member"}},
		}).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	return engine, mr
}

func encodedSecret(fill byte) string {
	raw := make([]byte, 32)
	for i := range raw {
		raw[i] = fill
	}
	return base64.StdEncoding.EncodeToString(raw)
}

type fixtureDirectory map[string]*tenant.DirectoryRecord

func (d fixtureDirectory) FindTenantByName(_ context.Context, name string) (*tenant.DirectoryRecord, error) {
	return d[name], nil
}

func (d fixtureDirectory) FindTenantByID(_ context.Context, id int64) (*tenant.DirectoryRecord, error) {
	for _, rec := range d {
		if rec.ID == id {
			return rec, nil
		}
	}
	return nil, nil
}

func (d fixtureDirectory) ListTenantNames(_ context.Context) ([]string, error) {
	names := make([]string, 0, len(d))
	for name := range d {
		names = append(names, name)
	}
	return names, nil
}

type fixturePrincipals map[string]*tokengate.Principal

func (p fixturePrincipals) FindPrincipalByUsername(_ context.Context, username string) (*tokengate.Principal, error) {
	return p[username], nil
}
