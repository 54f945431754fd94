// Package goSession is a Redis-backed token lifecycle manager for web
// services: short-lived signed access tokens, opaque single-use refresh
// tokens with atomic rotation and reuse detection, jti-based access
// revocation, and a one-time password reset flow.
//
// A Manager is assembled with the Builder:
//
//	mgr, err := goSession.New().
//		WithRedis(client).
//		WithUserDirectory(directory).
//		WithNotifier(mailer).
//		WithConfig(cfg).
//		Build()
//
// The Manager owns no user data. Callers plug in a UserDirectory for
// credential lookup and password writes, and a Notifier for reset-token
// delivery. All state lives in Redis under a configurable key prefix and
// expires through native TTLs; there is no background sweeper.
package goSession
