package store

import "errors"

// Validation failures for local mutations. Commands match these with
// errors.Is and report them without touching the store file.
var (
	// ErrInvalidProject means the project reference did not resolve to
	// a known project id after nickname lookup.
	ErrInvalidProject = errors.New("invalid project id")

	// ErrNoActiveTask means stop was called while nothing was running.
	ErrNoActiveTask = errors.New("no active task")

	// ErrActiveTaskAlreadyRunning means a task was asked to start an
	// entry while its own clock was already running.
	ErrActiveTaskAlreadyRunning = errors.New("task is already active")

	// ErrInvalidTimeRange means an end timestamp precedes the matching
	// start, or a parsed timestamp lies in the future.
	ErrInvalidTimeRange = errors.New("invalid time range")

	// ErrTaskNotFound means the named task does not exist.
	ErrTaskNotFound = errors.New("task not found")

	// ErrEmptyTask means the operation needs at least one entry.
	ErrEmptyTask = errors.New("task has no entries")

	// ErrActiveTask means a task cannot be deleted while running.
	ErrActiveTask = errors.New("task is active")
)
