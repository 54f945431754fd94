package goSession

import (
	"context"
	"errors"
	"strings"
)

// Login verifies the credential pair and, on success, mints an access token
// and a refresh session. Every credential failure surfaces as the generic
// ErrInvalidCredentials; unknown emails still run a hash verification so the
// two failure paths are not separable by timing.
func (m *Manager) Login(ctx context.Context, email, pass string) (*TokenPair, error) {
	if m == nil || m.hasher == nil || m.directory == nil {
		return nil, ErrManagerNotReady
	}

	email = normalizeEmail(email)
	if email == "" || pass == "" {
		m.metricInc(MetricLoginFailure)
		m.emitAudit(ctx, auditEventLoginFailure, false, "", "", ErrInvalidCredentials, func() map[string]string {
			return map[string]string{
				"reason": "empty_input",
			}
		})
		return nil, ErrInvalidCredentials
	}

	user, err := m.directory.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			_, _ = m.hasher.Verify(pass, m.dummyHash)
			m.metricInc(MetricLoginFailure)
			m.emitAudit(ctx, auditEventLoginFailure, false, "", "", ErrInvalidCredentials, func() map[string]string {
				return map[string]string{
					"reason": "user_not_found",
				}
			})
			return nil, ErrInvalidCredentials
		}
		m.metricInc(MetricLoginFailure)
		m.emitAudit(ctx, auditEventLoginFailure, false, "", "", ErrBackendUnavailable, func() map[string]string {
			return map[string]string{
				"reason": "directory_lookup_failed",
			}
		})
		return nil, errors.Join(ErrBackendUnavailable, err)
	}

	ok, err := m.hasher.Verify(pass, user.PasswordHash)
	if err != nil || !ok {
		m.metricInc(MetricLoginFailure)
		m.emitAudit(ctx, auditEventLoginFailure, false, user.ID, "", ErrInvalidCredentials, func() map[string]string {
			return map[string]string{
				"reason": "password_mismatch",
			}
		})
		return nil, ErrInvalidCredentials
	}
	pass = ""

	pair, tokenID, err := m.issueTokens(ctx, user)
	if err != nil {
		m.metricInc(MetricLoginFailure)
		m.emitAudit(ctx, auditEventLoginFailure, false, user.ID, tokenID, err, func() map[string]string {
			return map[string]string{
				"reason": "token_issuance_failed",
			}
		})
		return nil, err
	}

	m.metricInc(MetricLoginSuccess)
	m.emitAudit(ctx, auditEventLoginSuccess, true, user.ID, tokenID, nil, nil)

	return pair, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
