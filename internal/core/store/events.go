package store

import "github.com/jsuresh/ttracker/internal/core/model"

// Result events returned by state transitions. Rendering is the
// caller's concern; the store never prints.

// LongEntryWarning flags a just-closed entry whose duration exceeded the
// outlier threshold. Informational only.
type LongEntryWarning struct {
	Minutes   int
	Threshold float64
}

// StopResult describes a successfully closed entry.
type StopResult struct {
	TaskName string
	Entry    *model.Entry
	Warning  *LongEntryWarning
}

// StartResult describes a newly started entry. AutoStopped carries the
// close of whichever entry was running before the task switch, if any.
type StartResult struct {
	TaskName    string
	Entry       *model.Entry
	AutoStopped *StopResult
}

// PushResult describes a backfilled, already-closed entry.
type PushResult struct {
	TaskName string
	Entry    *model.Entry
}
