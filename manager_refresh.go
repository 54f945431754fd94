package goSession

import (
	"context"
	"errors"

	"github.com/MrEthical07/goSession/internal"
	"github.com/MrEthical07/goSession/session"
)

// Refresh rotates a refresh token: the presented token is consumed
// atomically and a brand-new pair is issued under a fresh token id. Of N
// concurrent calls with the same token exactly one succeeds; the rest get
// ErrRefreshInvalid. A valid token id carrying the wrong secret destroys the
// session and returns ErrRefreshReuse.
func (m *Manager) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if m == nil || m.sessions == nil || m.directory == nil {
		return nil, ErrManagerNotReady
	}

	tokenID, secret, err := internal.DecodeToken(refreshToken)
	if err != nil {
		m.metricInc(MetricRefreshFailure)
		m.emitAudit(ctx, auditEventRefreshInvalid, false, "", "", ErrRefreshInvalid, func() map[string]string {
			return map[string]string{
				"reason": "decode_failed",
			}
		})
		return nil, ErrRefreshInvalid
	}

	sess, err := m.sessions.Consume(ctx, tokenID, internal.HashSecret(secret), m.clock())
	if err != nil {
		switch {
		case errors.Is(err, session.ErrSecretMismatch):
			m.metricInc(MetricRefreshReplay)
			m.metricInc(MetricRefreshFailure)
			m.emitAudit(ctx, auditEventRefreshReuseDetected, false, "", tokenID, ErrRefreshReuse, nil)
			return nil, ErrRefreshReuse
		case errors.Is(err, session.ErrSessionNotFound):
			m.metricInc(MetricRefreshFailure)
			m.emitAudit(ctx, auditEventRefreshInvalid, false, "", tokenID, ErrRefreshInvalid, func() map[string]string {
				return map[string]string{
					"reason": "session_not_found",
				}
			})
			return nil, ErrRefreshInvalid
		default:
			m.metricInc(MetricRefreshFailure)
			m.emitAudit(ctx, auditEventRefreshInvalid, false, "", tokenID, ErrBackendUnavailable, func() map[string]string {
				return map[string]string{
					"reason": "consume_failed",
				}
			})
			return nil, errors.Join(ErrBackendUnavailable, err)
		}
	}

	user, err := m.directory.FindUserByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			// Account deleted since login. The session is already consumed.
			m.metricInc(MetricRefreshFailure)
			m.emitAudit(ctx, auditEventRefreshInvalid, false, sess.UserID, tokenID, ErrRefreshInvalid, func() map[string]string {
				return map[string]string{
					"reason": "user_not_found",
				}
			})
			return nil, ErrRefreshInvalid
		}
		m.metricInc(MetricRefreshFailure)
		m.emitAudit(ctx, auditEventRefreshInvalid, false, sess.UserID, tokenID, ErrBackendUnavailable, func() map[string]string {
			return map[string]string{
				"reason": "directory_lookup_failed",
			}
		})
		return nil, errors.Join(ErrBackendUnavailable, err)
	}

	pair, newTokenID, err := m.issueTokens(ctx, user)
	if err != nil {
		m.metricInc(MetricRefreshFailure)
		m.emitAudit(ctx, auditEventRefreshInvalid, false, user.ID, tokenID, err, func() map[string]string {
			return map[string]string{
				"reason": "token_issuance_failed",
			}
		})
		return nil, err
	}

	m.metricInc(MetricRefreshSuccess)
	m.emitAudit(ctx, auditEventRefreshSuccess, true, user.ID, newTokenID, nil, func() map[string]string {
		return map[string]string{
			"rotated_from": tokenID,
		}
	})

	return pair, nil
}
