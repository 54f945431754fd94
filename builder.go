package goSession

import (
	"encoding/base64"
	"errors"
	"time"

	"github.com/MrEthical07/goSession/internal"
	internalaudit "github.com/MrEthical07/goSession/internal/audit"
	"github.com/MrEthical07/goSession/internal/stores"
	"github.com/MrEthical07/goSession/jwt"
	"github.com/MrEthical07/goSession/password"
	"github.com/MrEthical07/goSession/revocation"
	"github.com/MrEthical07/goSession/session"
	"github.com/redis/go-redis/v9"
)

// Builder assembles a Manager. A Builder is single-use: Build may be called
// at most once.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	directory UserDirectory
	notifier  Notifier
	hasher    PasswordHasher
	auditSink AuditSink
	clock     func() time.Time

	built bool
}

// New returns a Builder seeded with defaultConfig.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the Redis client shared by all stores.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithUserDirectory sets the user database integration. Required.
func (b *Builder) WithUserDirectory(dir UserDirectory) *Builder {
	b.directory = dir
	return b
}

// WithNotifier sets the reset-token delivery channel. Required when the
// reset flow is enabled.
func (b *Builder) WithNotifier(n Notifier) *Builder {
	b.notifier = n
	return b
}

// WithPasswordHasher overrides the default argon2id hasher.
func (b *Builder) WithPasswordHasher(h PasswordHasher) *Builder {
	b.hasher = h
	return b
}

// WithAuditSink sets the audit event destination.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithClock overrides the time source. Intended for tests.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.clock = now
	return b
}

// WithMetricsEnabled toggles metric recording.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration, wires the stores, and returns a ready
// Manager.
func (b *Builder) Build() (*Manager, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if b.redis == nil {
		return nil, errors.New("redis client required")
	}
	if b.directory == nil {
		return nil, errors.New("user directory required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Reset.Enabled && b.notifier == nil {
		return nil, errors.New("notifier required when password reset is enabled")
	}

	clock := b.clock
	if clock == nil {
		clock = time.Now
	}

	hasher := b.hasher
	if hasher == nil {
		ph, err := password.NewArgon2(password.Config{
			Memory:      cfg.Password.Memory,
			Time:        cfg.Password.Time,
			Parallelism: cfg.Password.Parallelism,
			SaltLength:  cfg.Password.SaltLength,
			KeyLength:   cfg.Password.KeyLength,
		})
		if err != nil {
			return nil, err
		}
		hasher = ph
	}

	jm, err := jwt.NewManager(jwt.Config{
		AccessTTL:     cfg.JWT.AccessTTL,
		RefreshTTL:    cfg.JWT.RefreshTTL,
		SigningMethod: jwt.SigningMethod(cfg.JWT.SigningMethod),
		PrivateKey:    cloneBytes(cfg.JWT.PrivateKey),
		PublicKey:     cloneBytes(cfg.JWT.PublicKey),
		Issuer:        cfg.JWT.Issuer,
		Leeway:        cfg.JWT.Leeway,
		Now:           clock,
	})
	if err != nil {
		return nil, err
	}

	// Hash of a random throwaway password, verified against when login hits
	// an unknown email so both paths cost the same.
	dummyHash, err := buildDummyHash(hasher)
	if err != nil {
		return nil, err
	}

	m := &Manager{
		config:      cfg,
		clock:       clock,
		jwtManager:  jm,
		sessions:    session.NewStore(b.redis, cfg.Session.RedisPrefix),
		revocations: revocation.NewList(b.redis, cfg.Session.RedisPrefix, cfg.JWT.AccessTTL),
		resets:      stores.NewResetStore(b.redis, cfg.Session.RedisPrefix),
		directory:   b.directory,
		notifier:    b.notifier,
		hasher:      hasher,
		metrics:     NewMetrics(cfg.Metrics),
		dummyHash:   dummyHash,
	}
	m.audit = internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.auditSink)

	b.built = true

	return m, nil
}

func buildDummyHash(hasher PasswordHasher) (string, error) {
	secret, err := internal.NewSecret()
	if err != nil {
		return "", err
	}
	return hasher.Hash(base64.RawURLEncoding.EncodeToString(secret[:]))
}
