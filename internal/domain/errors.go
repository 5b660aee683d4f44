package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure — no infrastructure dependency.

var (
	// Schema version errors. Both are fatal: the store must not be touched.
	ErrVersionTooNew = errors.New("store schema is newer than this build supports")
	ErrVersionTooOld = errors.New("store schema is too old to migrate from")

	// Config value errors. Callers pick the recovery: NotFound means the
	// key was never written (substitute the default), InvalidFormat means
	// the value exists but does not parse (log, substitute, continue).
	ErrNotFound      = errors.New("setting not found")
	ErrInvalidFormat = errors.New("setting has invalid format")
)
