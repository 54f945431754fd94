// Package jwt wraps github.com/golang-jwt/jwt/v5 behind a small manager that
// issues and verifies the self-contained access tokens used by goSession.
//
// Tokens embed subject, email, name, iat, exp, and a uuid jti. Verification
// is O(1) and requires no store lookup; the tradeoff is that a compromised
// but unexpired token can only be rejected through the revocation list kept
// by the root package.
package jwt
