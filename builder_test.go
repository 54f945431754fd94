package goSession

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func testRedisClient(t *testing.T) redis.UniversalClient {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestBuildRequiresRedis(t *testing.T) {
	_, err := New().
		WithConfig(testManagerConfig()).
		WithUserDirectory(newFakeDirectory()).
		WithNotifier(&fakeNotifier{}).
		Build()
	if err == nil {
		t.Fatal("build without redis succeeded")
	}
}

func TestBuildRequiresDirectory(t *testing.T) {
	_, err := New().
		WithConfig(testManagerConfig()).
		WithRedis(testRedisClient(t)).
		WithNotifier(&fakeNotifier{}).
		Build()
	if err == nil {
		t.Fatal("build without directory succeeded")
	}
}

func TestBuildRequiresNotifierWhenResetEnabled(t *testing.T) {
	_, err := New().
		WithConfig(testManagerConfig()).
		WithRedis(testRedisClient(t)).
		WithUserDirectory(newFakeDirectory()).
		Build()
	if err == nil {
		t.Fatal("build without notifier succeeded with reset enabled")
	}

	cfg := testManagerConfig()
	cfg.Reset.Enabled = false
	mgr, err := New().
		WithConfig(cfg).
		WithRedis(testRedisClient(t)).
		WithUserDirectory(newFakeDirectory()).
		Build()
	if err != nil {
		t.Fatalf("build without notifier failed with reset disabled: %v", err)
	}
	mgr.Close()
}

func TestBuildRejectsInvalidConfig(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero access ttl", func(c *Config) { c.JWT.AccessTTL = 0 }},
		{"access outlives refresh", func(c *Config) {
			c.JWT.AccessTTL = 48 * time.Hour
			c.JWT.RefreshTTL = 24 * time.Hour
		}},
		{"missing signing key", func(c *Config) { c.JWT.PrivateKey = nil }},
		{"unknown signing method", func(c *Config) { c.JWT.SigningMethod = "rs512" }},
		{"empty redis prefix", func(c *Config) { c.Session.RedisPrefix = "" }},
		{"zero reset ttl", func(c *Config) { c.Reset.ResetTTL = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testManagerConfig()
			tc.mutate(&cfg)

			_, err := New().
				WithConfig(cfg).
				WithRedis(testRedisClient(t)).
				WithUserDirectory(newFakeDirectory()).
				WithNotifier(&fakeNotifier{}).
				Build()
			if err == nil {
				t.Fatal("invalid config accepted")
			}
		})
	}
}

func TestBuilderIsSingleUse(t *testing.T) {
	b := New().
		WithConfig(testManagerConfig()).
		WithRedis(testRedisClient(t)).
		WithUserDirectory(newFakeDirectory()).
		WithNotifier(&fakeNotifier{})

	mgr, err := b.Build()
	if err != nil {
		t.Fatalf("first build failed: %v", err)
	}
	mgr.Close()

	if _, err := b.Build(); err == nil {
		t.Fatal("second build on the same builder succeeded")
	}
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.JWT.PrivateKey = []byte("test-signing-key-0123456789")

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.JWT.AccessTTL != 15*time.Minute {
		t.Fatalf("access ttl = %v, want 15m", cfg.JWT.AccessTTL)
	}
	if cfg.JWT.RefreshTTL != 7*24*time.Hour {
		t.Fatalf("refresh ttl = %v, want 168h", cfg.JWT.RefreshTTL)
	}
	if cfg.Reset.ResetTTL != 15*time.Minute {
		t.Fatalf("reset ttl = %v, want 15m", cfg.Reset.ResetTTL)
	}
}

func TestConfigCloneIsolation(t *testing.T) {
	cfg := testManagerConfig()
	env := newTestEnv(t, cfg)

	// Mutating the caller's key slice after Build must not affect the manager.
	cfg.JWT.PrivateKey[0] = 0xFF

	env.seedUser(t, "user-1", "alice@example.com", "correct-horse")
	pair, err := env.mgr.Login(context.Background(), "alice@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if _, err := env.mgr.VerifyAccessToken(context.Background(), pair.AccessToken); err != nil {
		t.Fatalf("verify failed after caller mutation: %v", err)
	}
}
