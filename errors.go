package goSession

import "errors"

var (
	// ErrInvalidInput is returned when a required argument is missing or malformed.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidCredentials is the generic login failure. It never reveals
	// whether the email or the password was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserNotFound is returned by UserDirectory implementations for
	// unknown identities.
	ErrUserNotFound = errors.New("user not found")
	// ErrRefreshInvalid is returned when a refresh token is malformed,
	// unknown, or expired.
	ErrRefreshInvalid = errors.New("invalid refresh token")
	// ErrRefreshReuse is returned when a refresh token names a live session
	// but carries the wrong secret. The session is destroyed before this is
	// reported.
	ErrRefreshReuse = errors.New("refresh token reuse detected")
	// ErrResetDisabled is returned when the password reset flow is turned off.
	ErrResetDisabled = errors.New("password reset disabled")
	// ErrResetInvalid is returned when a reset token is malformed, unknown,
	// expired, or already consumed.
	ErrResetInvalid = errors.New("invalid password reset token")
	// ErrTokenInvalid is returned when an access token fails signature or
	// expiry verification.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenRevoked is returned when a well-formed access token has been
	// revoked before its natural expiry.
	ErrTokenRevoked = errors.New("token revoked")
	// ErrPasswordPolicy is returned when a new password is rejected by the
	// hasher's policy.
	ErrPasswordPolicy = errors.New("password policy violation")
	// ErrBackendUnavailable is returned when Redis or the user directory
	// fails. It is never folded into a credential failure.
	ErrBackendUnavailable = errors.New("backend unavailable")
	// ErrManagerNotReady is returned when the Manager was not fully built.
	ErrManagerNotReady = errors.New("manager not initialized")
)
