// Package audit defines the audit event model, sink implementations, and the
// asynchronous dispatcher used by the session manager. Events are emitted
// best-effort; the dispatcher never blocks an authentication operation when
// DropIfFull is set.
package audit
