// Package remote exposes the billing ledger the sync engine reconciles
// against. The ledger is consumed, never implemented here: it has no
// transactions and assigns its own opaque identifiers, so every create
// is idempotent only through the locally persisted id.
package remote

import (
	"context"
	"errors"
)

// ErrRemote wraps every failed remote call. The sync engine treats any
// remote failure as fatal to the remainder of the run.
var ErrRemote = errors.New("remote ledger request failed")

// Project is a remote project together with its current task
// associations.
type Project struct {
	ID      string
	Name    string
	TaskIDs []string
}

// TimeEntry is the payload for materializing a worked interval
// remotely. ID is set only on the full-resync upsert path, where the
// remote side keys the update by the existing id.
type TimeEntry struct {
	ID        string
	ProjectID string
	TaskID    string
	Hours     float64
	Notes     string
	Date      string
}

// Ledger is the remote billing system surface used by the sync engine.
type Ledger interface {
	CreateTask(ctx context.Context, name string) (string, error)
	DeleteTask(ctx context.Context, id string) error
	ListProjects(ctx context.Context) ([]Project, error)
	UpdateProjectTasks(ctx context.Context, projectID string, taskIDs []string) error
	CreateTimeEntry(ctx context.Context, entry TimeEntry) (string, error)
	DeleteTimeEntry(ctx context.Context, id string) error
}
