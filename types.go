package goSession

import (
	"context"
	"io"
	"time"

	internalaudit "github.com/MrEthical07/goSession/internal/audit"
)

// User is the account record the Manager works with. PasswordHash is the
// encoded hash produced by the configured PasswordHasher; the plaintext
// password never crosses this boundary after login.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
}

// UserDirectory is the interface callers implement to connect the Manager to
// their user database. Implementations must return ErrUserNotFound for
// unknown identities; any other error is treated as a backend failure.
type UserDirectory interface {
	FindUserByEmail(ctx context.Context, email string) (User, error)
	FindUserByID(ctx context.Context, userID string) (User, error)
	SetPasswordHash(ctx context.Context, userID, newHash string) error
}

// Notifier delivers password-reset tokens out of band, typically by email.
// The Manager never exposes the token to the caller of ForgotPassword.
type Notifier interface {
	SendResetMessage(ctx context.Context, email, resetToken string, ttl time.Duration) error
}

// PasswordHasher abstracts the credential hash. The default is the argon2id
// hasher from the password package.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encodedHash string) (bool, error)
}

// TokenPair is the result of a successful login or refresh: a short-lived
// signed access token and an opaque single-use refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Claims is the verified identity carried by an access token.
type Claims struct {
	UserID    string
	Email     string
	Name      string
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// SessionInfo describes one live refresh session, as returned by
// [Manager.Sessions]. The refresh secret itself is never exposed.
type SessionInfo struct {
	TokenID   string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// AuditEvent is a structured audit record emitted by the Manager.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes one JSON line per event.
type JSONWriterSink = internalaudit.JSONWriterSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}
