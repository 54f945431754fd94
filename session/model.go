package session

// Session is one live refresh credential. SecretHash is sha256 of the secret
// half of the transport token; the plaintext secret is never persisted.
type Session struct {
	TokenID    string
	UserID     string
	SecretHash [32]byte

	CreatedAt int64
	ExpiresAt int64
}
