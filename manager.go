package goSession

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/goSession/internal"
	internalaudit "github.com/MrEthical07/goSession/internal/audit"
	"github.com/MrEthical07/goSession/internal/stores"
	"github.com/MrEthical07/goSession/jwt"
	"github.com/MrEthical07/goSession/revocation"
	"github.com/MrEthical07/goSession/session"
)

// Manager is the token lifecycle engine: it issues, verifies, rotates, and
// revokes access and refresh tokens, and runs the password reset flow. Build
// one with [New] and share it across goroutines.
type Manager struct {
	config Config
	clock  func() time.Time

	jwtManager  *jwt.Manager
	sessions    *session.Store
	revocations *revocation.List
	resets      *stores.ResetStore

	directory UserDirectory
	notifier  Notifier
	hasher    PasswordHasher

	audit   *internalaudit.Dispatcher
	metrics *Metrics

	dummyHash string
}

// Close flushes and stops the audit dispatcher. The Redis client is owned by
// the caller and stays open.
func (m *Manager) Close() {
	if m == nil {
		return
	}
	if m.audit != nil {
		m.audit.Close()
	}
}

// AuditDropped reports how many audit events were discarded because the
// dispatcher buffer was full.
func (m *Manager) AuditDropped() uint64 {
	if m == nil || m.audit == nil {
		return 0
	}
	return m.audit.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of all counters.
func (m *Manager) MetricsSnapshot() MetricsSnapshot {
	if m == nil || m.metrics == nil {
		return MetricsSnapshot{
			Counters: map[MetricID]uint64{},
		}
	}
	return m.metrics.Snapshot()
}

func (m *Manager) metricInc(id MetricID) {
	if m == nil || m.metrics == nil {
		return
	}
	m.metrics.Inc(id)
}

// AccessTokenTTL is the configured access-token lifetime, exposed so callers
// can stamp cookie attributes.
func (m *Manager) AccessTokenTTL() time.Duration {
	return m.config.JWT.AccessTTL
}

// RefreshTokenTTL is the configured refresh-session lifetime.
func (m *Manager) RefreshTokenTTL() time.Duration {
	return m.config.JWT.RefreshTTL
}

// VerifyAccessToken checks signature, expiry, and the revocation list, in
// that order. Revocation is consulted only for tokens that are otherwise
// valid, so the list lookup cost is bounded by legitimate traffic.
func (m *Manager) VerifyAccessToken(ctx context.Context, tokenStr string) (*Claims, error) {
	if m == nil || m.jwtManager == nil {
		return nil, ErrManagerNotReady
	}
	if tokenStr == "" {
		return nil, ErrTokenInvalid
	}

	claims, err := m.jwtManager.ParseAccess(tokenStr)
	if err != nil {
		return nil, ErrTokenInvalid
	}

	revoked, err := m.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, errors.Join(ErrBackendUnavailable, err)
	}
	if revoked {
		return nil, ErrTokenRevoked
	}

	out := &Claims{
		UserID:  claims.Subject,
		Email:   claims.Email,
		Name:    claims.Name,
		TokenID: claims.ID,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}

	return out, nil
}

// Sessions lists the user's live refresh sessions. Index entries whose
// session already expired are skipped.
func (m *Manager) Sessions(ctx context.Context, userID string) ([]SessionInfo, error) {
	if m == nil || m.sessions == nil {
		return nil, ErrManagerNotReady
	}
	if userID == "" {
		return nil, ErrInvalidInput
	}

	tokenIDs, err := m.sessions.ActiveTokenIDs(ctx, userID)
	if err != nil {
		return nil, errors.Join(ErrBackendUnavailable, err)
	}

	infos := make([]SessionInfo, 0, len(tokenIDs))
	for _, tokenID := range tokenIDs {
		sess, err := m.sessions.Get(ctx, tokenID)
		if err != nil {
			if errors.Is(err, session.ErrSessionNotFound) || errors.Is(err, session.ErrSessionCorrupt) {
				continue
			}
			return nil, errors.Join(ErrBackendUnavailable, err)
		}
		infos = append(infos, SessionInfo{
			TokenID:   sess.TokenID,
			CreatedAt: time.Unix(sess.CreatedAt, 0),
			ExpiresAt: time.Unix(sess.ExpiresAt, 0),
		})
	}

	return infos, nil
}

// issueTokens mints a fresh access+refresh pair for user and persists the
// new refresh session. Used by both login and refresh.
func (m *Manager) issueTokens(ctx context.Context, user User) (*TokenPair, string, error) {
	id, err := internal.NewTokenID()
	if err != nil {
		return nil, "", err
	}
	tokenID := id.String()

	secret, err := internal.NewSecret()
	if err != nil {
		return nil, "", err
	}

	now := m.clock()
	refreshTTL := m.config.JWT.RefreshTTL

	sess := &session.Session{
		TokenID:    tokenID,
		UserID:     user.ID,
		SecretHash: internal.HashSecret(secret),
		CreatedAt:  now.Unix(),
		ExpiresAt:  now.Add(refreshTTL).Unix(),
	}

	if err := m.sessions.Save(ctx, sess, refreshTTL); err != nil {
		return nil, "", errors.Join(ErrBackendUnavailable, err)
	}

	access, _, err := m.jwtManager.CreateAccess(user.ID, user.Email, user.Name)
	if err != nil {
		return nil, "", err
	}

	refresh, err := internal.EncodeToken(tokenID, secret)
	if err != nil {
		return nil, "", err
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
	}, tokenID, nil
}
