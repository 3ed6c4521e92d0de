package envrec

import "errors"

// Errors which indicate that the caller violated the
// contract of an API, as opposed to a failure in an
// underlying environment or in the filesystem.
// Callers should not retry after seeing one of these.
var (
	// ErrNotInitialized is returned when a pool or
	// recorder is used before its environments have been
	// created.
	ErrNotInitialized = errors.New("environments not initialized")

	// ErrBatchMismatch is returned when the length of an
	// action batch does not match the pool size.
	ErrBatchMismatch = errors.New("batch size mismatch")

	// ErrSpaceMismatch is returned when the environments
	// in a pool do not all share the same observation and
	// action spaces.
	ErrSpaceMismatch = errors.New("mismatched environment spaces")

	// ErrInactiveSlot is returned when a step is recorded
	// for an environment slot that has no active
	// trajectory, i.e. was never reset.
	ErrInactiveSlot = errors.New("no active trajectory for slot")

	// ErrInvalidAgentID is returned for agent IDs which
	// are empty or contain a '-', which is reserved as
	// the shard filename separator.
	ErrInvalidAgentID = errors.New("invalid agent ID")
)
