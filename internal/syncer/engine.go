// Package syncer reconciles the local ledger with the remote billing
// system. A run is a fixed sequence of phases, each persisting the
// store after every remote mutation: the presence of a remote id is the
// resume checkpoint, so a crashed or aborted run can simply be rerun
// without re-creating anything already materialized remotely.
package syncer

import (
	"context"
	"fmt"
	"sort"

	"github.com/jsuresh/ttracker/internal/core/model"
	"github.com/jsuresh/ttracker/internal/core/store"
	"github.com/jsuresh/ttracker/internal/remote"
	"github.com/jsuresh/ttracker/internal/util"
)

// Persister saves the store between remote mutations. Satisfied by
// persist.File.
type Persister interface {
	Save(*store.Store) error
}

// Engine drives one reconciliation run.
type Engine struct {
	store  *store.Store
	file   Persister
	ledger remote.Ledger

	// Progress receives user-facing phase updates; nil means silent.
	Progress func(format string, args ...any)
}

// New creates a sync engine over the given store and ledger.
func New(s *store.Store, file Persister, ledger remote.Ledger) *Engine {
	return &Engine{store: s, file: file, ledger: ledger}
}

func (e *Engine) progress(format string, args ...any) {
	if e.Progress != nil {
		e.Progress(format, args...)
	}
}

// Run executes the sync phases strictly in order. Any remote failure
// aborts the remainder of the run; progress persisted by earlier steps
// stands, and a rerun resumes from the checkpoints.
func (e *Engine) Run(ctx context.Context, full bool) error {
	if err := e.materializeTasks(ctx); err != nil {
		return fmt.Errorf("sync tasks: %w", err)
	}
	if err := e.linkProjectTasks(ctx); err != nil {
		return fmt.Errorf("link projects: %w", err)
	}
	if err := e.materializeEntries(ctx); err != nil {
		return fmt.Errorf("sync entries: %w", err)
	}
	if err := e.propagateEntryTombstones(ctx); err != nil {
		return fmt.Errorf("delete entries: %w", err)
	}
	if err := e.propagateTaskTombstones(ctx); err != nil {
		return fmt.Errorf("delete tasks: %w", err)
	}
	if full {
		if err := e.resubmitAll(ctx); err != nil {
			return fmt.Errorf("full resync: %w", err)
		}
	}
	return nil
}

// materializeTasks creates every local task (live and deleted) that has
// no remote id yet. Deleted tasks are included so their entries can be
// billed before the task tombstone propagates.
func (e *Engine) materializeTasks(ctx context.Context) error {
	e.progress("Creating tasks...")
	for _, t := range e.store.AllTasks() {
		if t.RemoteID != "" {
			continue
		}
		e.progress("    %s", t.PrettyName())
		id, err := e.ledger.CreateTask(ctx, t.PrettyName())
		if err != nil {
			return err
		}
		t.RemoteID = id
		if err := e.file.Save(e.store); err != nil {
			return err
		}
	}
	return nil
}

// linkProjectTasks makes sure every project a task has logged time
// against lists that task remotely. The remote association list is
// fetched, merged with the locally observed (project, task) pairs, and
// pushed back per project that gained anything.
func (e *Engine) linkProjectTasks(ctx context.Context) error {
	e.progress("Updating project task links...")
	projects, err := e.ledger.ListProjects(ctx)
	if err != nil {
		return err
	}

	linked := make(map[string]map[string]bool, len(projects))
	known := make(map[string]bool, len(projects))
	for _, p := range projects {
		known[p.ID] = true
		set := make(map[string]bool, len(p.TaskIDs))
		for _, id := range p.TaskIDs {
			set[id] = true
		}
		linked[p.ID] = set
	}

	changed := make(map[string]bool)
	for _, t := range e.store.AllTasks() {
		for _, entry := range t.Entries {
			pid := entry.Project.ID
			if !known[pid] {
				util.LogWarnf("project %s no longer exists remotely, skipping link for task %s", pid, t.Name)
				continue
			}
			if !linked[pid][t.RemoteID] {
				linked[pid][t.RemoteID] = true
				changed[pid] = true
			}
		}
	}

	changedIDs := make([]string, 0, len(changed))
	for pid := range changed {
		changedIDs = append(changedIDs, pid)
	}
	sort.Strings(changedIDs)

	for _, pid := range changedIDs {
		taskIDs := make([]string, 0, len(linked[pid]))
		for id := range linked[pid] {
			taskIDs = append(taskIDs, id)
		}
		sort.Strings(taskIDs)
		if err := e.ledger.UpdateProjectTasks(ctx, pid, taskIDs); err != nil {
			return err
		}
	}
	return nil
}

// materializeEntries creates every closed, unsynced entry remotely.
// Active entries are never synced: they have no closing time yet.
func (e *Engine) materializeEntries(ctx context.Context) error {
	for _, t := range e.store.AllTasks() {
		e.progress("Updating entries for '%s'...", t.PrettyName())
		for _, entry := range t.Entries {
			if entry.Synced() || entry.Active() {
				continue
			}
			e.progress("    syncing %s - %s", entry.Start.Format(model.TimeLayout), entry.End.Format(model.TimeLayout))
			id, err := e.ledger.CreateTimeEntry(ctx, e.payload(t, entry))
			if err != nil {
				return err
			}
			entry.RemoteID = id
			if err := e.file.Save(e.store); err != nil {
				return err
			}
		}
	}
	return nil
}

// propagateEntryTombstones deletes popped entries remotely and drops
// them locally. An entry that was never synced has nothing to delete
// remotely and is dropped straight away.
func (e *Engine) propagateEntryTombstones(ctx context.Context) error {
	for _, t := range e.store.AllTasks() {
		for len(t.DeletedEntries) > 0 {
			entry := t.DeletedEntries[len(t.DeletedEntries)-1]
			if entry.Synced() {
				e.progress("Deleting entry %s from '%s'", entry.Start.Format(model.TimeLayout), t.PrettyName())
				if err := e.ledger.DeleteTimeEntry(ctx, entry.RemoteID); err != nil {
					return err
				}
			}
			t.DeletedEntries = t.DeletedEntries[:len(t.DeletedEntries)-1]
			if err := e.file.Save(e.store); err != nil {
				return err
			}
		}
	}
	return nil
}

// propagateTaskTombstones deletes soft-deleted tasks remotely and
// removes them from local state entirely.
func (e *Engine) propagateTaskTombstones(ctx context.Context) error {
	names := make([]string, 0, len(e.store.DeletedTasks))
	for name := range e.store.DeletedTasks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		t := e.store.DeletedTasks[name]
		if t.RemoteID != "" {
			e.progress("Deleting task '%s'", t.PrettyName())
			if err := e.ledger.DeleteTask(ctx, t.RemoteID); err != nil {
				return err
			}
		}
		delete(e.store.DeletedTasks, name)
		if err := e.file.Save(e.store); err != nil {
			return err
		}
	}
	return nil
}

// resubmitAll re-sends every closed entry's full payload keyed by its
// existing remote id, repairing drift caused by manual edits on the
// remote side. Ids do not change, so no checkpoint persistence is
// needed here.
func (e *Engine) resubmitAll(ctx context.Context) error {
	e.progress("Re-submitting all entries...")
	for _, t := range e.store.AllTasks() {
		for _, entry := range t.Entries {
			if entry.Active() {
				continue
			}
			if _, err := e.ledger.CreateTimeEntry(ctx, e.payload(t, entry)); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *Engine) payload(t *model.Task, entry *model.Entry) remote.TimeEntry {
	return remote.TimeEntry{
		ID:        entry.RemoteID,
		ProjectID: entry.Project.ID,
		TaskID:    t.RemoteID,
		Hours:     entry.Hours(e.store.Now()),
		Notes:     t.PrettyName() + ": " + entry.Notes,
		Date:      entry.Start.Format(model.DateLayout),
	}
}
