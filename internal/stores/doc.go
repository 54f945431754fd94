// Package stores contains internal Redis-backed record stores that do not
// warrant a public package: currently the single-use password-reset store.
package stores
