// Package metrics provides lock-free counters for goSession observability.
//
// Counters are stored in cache-line-padded uint64 slots and incremented
// atomically. When disabled via Config, all operations are no-ops.
//
// This package owns metric storage and snapshot creation only. It performs
// no I/O and imports no sibling package.
package metrics
