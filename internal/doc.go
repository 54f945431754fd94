// Package internal holds cryptographic token-identifier primitives shared by
// the root package and internal stores. Nothing here is part of the public
// API surface.
package internal
