package goSession

import (
	"context"
	"errors"

	"github.com/MrEthical07/goSession/internal"
)

// Logout ends one session: the refresh session is deleted and the access
// token's jti is blacklisted for its remaining lifetime. Both halves are
// independent; a malformed or expired token on either side is ignored so
// logout stays idempotent, while a backend failure on either side is
// reported after the other half has still been attempted.
func (m *Manager) Logout(ctx context.Context, accessToken, refreshToken string) error {
	if m == nil || m.sessions == nil || m.revocations == nil {
		return ErrManagerNotReady
	}

	var (
		failures []error
		userID   string
		tokenID  string
	)

	if refreshToken != "" {
		if id, _, err := internal.DecodeToken(refreshToken); err == nil {
			tokenID = id
			if err := m.sessions.Delete(ctx, id); err != nil {
				failures = append(failures, err)
			}
		}
	}

	if accessToken != "" {
		if claims, err := m.jwtManager.ParseAccess(accessToken); err == nil {
			userID = claims.Subject
			if claims.ExpiresAt != nil {
				remaining := claims.ExpiresAt.Time.Sub(m.clock())
				if err := m.revocations.Revoke(ctx, claims.ID, remaining); err != nil {
					failures = append(failures, err)
				} else {
					m.metricInc(MetricAccessRevoked)
				}
			}
		}
	}

	if len(failures) > 0 {
		err := errors.Join(append([]error{ErrBackendUnavailable}, failures...)...)
		m.emitAudit(ctx, auditEventLogout, false, userID, tokenID, ErrBackendUnavailable, nil)
		return err
	}

	m.metricInc(MetricLogout)
	m.emitAudit(ctx, auditEventLogout, true, userID, tokenID, nil, nil)

	return nil
}

// LogoutAll destroys every refresh session the user holds. Outstanding
// access tokens are untouched and run out their short lifetime.
func (m *Manager) LogoutAll(ctx context.Context, userID string) error {
	if m == nil || m.sessions == nil {
		return ErrManagerNotReady
	}
	if userID == "" {
		return ErrInvalidInput
	}

	if err := m.sessions.DeleteAllForUser(ctx, userID); err != nil {
		m.emitAudit(ctx, auditEventLogoutAll, false, userID, "", ErrBackendUnavailable, nil)
		return errors.Join(ErrBackendUnavailable, err)
	}

	m.metricInc(MetricSessionsRevokedBulk)
	m.emitAudit(ctx, auditEventLogoutAll, true, userID, "", nil, nil)

	return nil
}
