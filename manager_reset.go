package goSession

import (
	"context"
	"crypto/rand"
	"errors"
	"log"
	"math/big"
	"time"

	"github.com/MrEthical07/goSession/internal"
	"github.com/MrEthical07/goSession/internal/stores"
)

// ForgotPassword starts a password reset. The reset token leaves the process
// only through the Notifier, and the return value is nil for known and
// unknown emails alike. The unknown-email path generates a decoy token and
// sleeps a jittered delay so the two branches are not separable by timing.
func (m *Manager) ForgotPassword(ctx context.Context, email string) error {
	if m == nil || m.resets == nil || m.directory == nil {
		return ErrManagerNotReady
	}
	if !m.config.Reset.Enabled {
		return ErrResetDisabled
	}

	email = normalizeEmail(email)

	var user User
	if email != "" {
		var err error
		user, err = m.directory.FindUserByEmail(ctx, email)
		if err != nil && !errors.Is(err, ErrUserNotFound) {
			m.emitAudit(ctx, auditEventResetRequest, false, "", "", ErrBackendUnavailable, func() map[string]string {
				return map[string]string{
					"reason": "directory_lookup_failed",
				}
			})
			return errors.Join(ErrBackendUnavailable, err)
		}
		if err != nil {
			user = User{}
		}
	}

	if user.ID == "" {
		if _, _, _, err := m.generateResetToken(); err != nil {
			return err
		}
		if err := sleepEnumerationDelay(ctx); err != nil {
			return err
		}
		m.metricInc(MetricResetRequest)
		m.emitAudit(ctx, auditEventResetRequest, true, "", "", nil, func() map[string]string {
			return map[string]string{
				"known_user": "false",
			}
		})
		return nil
	}

	resetID, token, secretHash, err := m.generateResetToken()
	if err != nil {
		return err
	}

	ttl := m.config.Reset.ResetTTL
	record := &stores.ResetRecord{
		UserID:     user.ID,
		SecretHash: secretHash,
		ExpiresAt:  m.clock().Add(ttl).Unix(),
	}
	if err := m.resets.Save(ctx, resetID, record, ttl); err != nil {
		m.emitAudit(ctx, auditEventResetRequest, false, user.ID, resetID, ErrBackendUnavailable, func() map[string]string {
			return map[string]string{
				"reason": "record_save_failed",
			}
		})
		return errors.Join(ErrBackendUnavailable, err)
	}

	if err := m.notifier.SendResetMessage(ctx, user.Email, token, ttl); err != nil {
		// Swallowed: surfacing delivery failure would confirm the address
		// exists. The record expires on its own.
		log.Print("goSession: reset message delivery failed")
		m.metricInc(MetricNotifierFailure)
		m.emitAudit(ctx, auditEventResetNotifierFailure, false, user.ID, resetID, ErrBackendUnavailable, nil)
		return nil
	}

	m.metricInc(MetricResetRequest)
	m.emitAudit(ctx, auditEventResetRequest, true, user.ID, resetID, nil, func() map[string]string {
		return map[string]string{
			"known_user": "true",
		}
	})

	return nil
}

// ResetPassword redeems a reset token, writes the new password hash, and
// revokes every refresh session the user holds. The token is consumed only
// after the password write succeeds, so a failed write does not burn it.
func (m *Manager) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	if m == nil || m.resets == nil || m.directory == nil || m.hasher == nil {
		return ErrManagerNotReady
	}
	if !m.config.Reset.Enabled {
		return ErrResetDisabled
	}
	if newPassword == "" {
		return ErrPasswordPolicy
	}

	resetID, secret, err := internal.DecodeToken(resetToken)
	if err != nil {
		m.metricInc(MetricResetFailure)
		m.emitAudit(ctx, auditEventResetConfirm, false, "", "", ErrResetInvalid, func() map[string]string {
			return map[string]string{
				"reason": "decode_failed",
			}
		})
		return ErrResetInvalid
	}

	record, err := m.resets.Peek(ctx, resetID, internal.HashSecret(secret))
	if err != nil {
		switch {
		case errors.Is(err, stores.ErrResetNotFound), errors.Is(err, stores.ErrResetSecretMismatch):
			m.metricInc(MetricResetFailure)
			m.emitAudit(ctx, auditEventResetConfirm, false, "", resetID, ErrResetInvalid, func() map[string]string {
				return map[string]string{
					"reason": "record_rejected",
				}
			})
			return ErrResetInvalid
		default:
			m.metricInc(MetricResetFailure)
			m.emitAudit(ctx, auditEventResetConfirm, false, "", resetID, ErrBackendUnavailable, func() map[string]string {
				return map[string]string{
					"reason": "record_lookup_failed",
				}
			})
			return errors.Join(ErrBackendUnavailable, err)
		}
	}

	newHash, err := m.hasher.Hash(newPassword)
	if err != nil {
		m.metricInc(MetricResetFailure)
		m.emitAudit(ctx, auditEventResetConfirm, false, record.UserID, resetID, ErrPasswordPolicy, func() map[string]string {
			return map[string]string{
				"reason": "hash_policy",
			}
		})
		return errors.Join(ErrPasswordPolicy, err)
	}
	newPassword = ""

	if err := m.directory.SetPasswordHash(ctx, record.UserID, newHash); err != nil {
		m.metricInc(MetricResetFailure)
		m.emitAudit(ctx, auditEventResetConfirm, false, record.UserID, resetID, ErrBackendUnavailable, func() map[string]string {
			return map[string]string{
				"reason": "password_write_failed",
			}
		})
		return errors.Join(ErrBackendUnavailable, err)
	}

	// Consume is best-effort after the write. If it fails the record still
	// expires on its own TTL.
	if err := m.resets.Consume(ctx, resetID); err != nil {
		log.Print("goSession: reset record consume failed after password write")
	}

	if err := m.sessions.DeleteAllForUser(ctx, record.UserID); err != nil {
		m.emitAudit(ctx, auditEventResetConfirm, false, record.UserID, resetID, ErrBackendUnavailable, func() map[string]string {
			return map[string]string{
				"reason": "session_invalidation_failed",
			}
		})
		return errors.Join(ErrBackendUnavailable, err)
	}
	m.metricInc(MetricSessionsRevokedBulk)

	m.metricInc(MetricResetSuccess)
	m.emitAudit(ctx, auditEventResetConfirm, true, record.UserID, resetID, nil, nil)

	return nil
}

func (m *Manager) generateResetToken() (string, string, [32]byte, error) {
	var emptyHash [32]byte

	id, err := internal.NewTokenID()
	if err != nil {
		return "", "", emptyHash, err
	}

	secret, err := internal.NewSecret()
	if err != nil {
		return "", "", emptyHash, err
	}

	token, err := internal.EncodeToken(id.String(), secret)
	if err != nil {
		return "", "", emptyHash, err
	}

	return id.String(), token, internal.HashSecret(secret), nil
}

func sleepEnumerationDelay(ctx context.Context) error {
	minMs := int64(20)
	maxMs := int64(40)
	span := maxMs - minMs + 1

	n, err := rand.Int(rand.Reader, big.NewInt(span))
	if err != nil {
		return err
	}

	delay := time.Duration(minMs+n.Int64()) * time.Millisecond
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
