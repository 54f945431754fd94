// Package session implements the Redis-backed refresh-session store: a
// TTL-bound mapping from token id to session record plus a per-user index
// used for bulk revocation.
//
// A token id resolves to at most one live session. Once consumed — by
// rotation, logout, or expiry — it is permanently gone; Consume is the
// atomic delete-and-return primitive that makes rotation at-most-once under
// concurrent replay.
package session
