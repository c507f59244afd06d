// Package store owns the mutable task ledger and enforces its central
// invariant: at most one entry across all tasks is active at any time.
package store

import (
	"fmt"
	"sort"
	"time"

	"github.com/jsuresh/ttracker/internal/core/model"
	"github.com/jsuresh/ttracker/internal/core/stats"
)

// Store is the whole-process state: live tasks, task tombstones, the
// cached project list, nickname aliases, and remote credentials. It is
// loaded once per invocation, mutated in memory, and written back
// atomically at exit.
type Store struct {
	Tasks        map[string]*model.Task
	DeletedTasks map[string]*model.Task
	Projects     map[string]string // id -> name
	Nicknames    map[string]string // alias -> id
	Username     string
	APIKey       string

	now func() time.Time
}

// New returns an empty store using the given clock. A nil clock falls
// back to time.Now.
func New(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		Tasks:        make(map[string]*model.Task),
		DeletedTasks: make(map[string]*model.Task),
		Projects:     make(map[string]string),
		Nicknames:    make(map[string]string),
		now:          now,
	}
}

// Now exposes the store's clock so collaborators measure active
// durations consistently with the store itself.
func (s *Store) Now() time.Time {
	return s.now()
}

// ActiveEntry locates the single active entry, if any, returning its
// task as well.
func (s *Store) ActiveEntry() (*model.Task, *model.Entry) {
	for _, t := range s.Tasks {
		if e := t.ActiveEntry(); e != nil {
			return t, e
		}
	}
	return nil, nil
}

// ActiveSampleMinutes returns the minute-durations of all currently
// active entries, feeding the outlier threshold. With the invariant
// holding this has at most one element; it is computed across all tasks
// regardless so the threshold survives historical stores that predate
// invariant enforcement.
func (s *Store) ActiveSampleMinutes() []float64 {
	now := s.now()
	var samples []float64
	for _, t := range s.Tasks {
		for _, e := range t.Entries {
			if e.Active() {
				samples = append(samples, float64(e.Minutes(now)))
			}
		}
	}
	return samples
}

// Start begins logging time against the named task. If any entry is
// running anywhere it is first stopped at the same instant, so a task
// switch never leaves overlapping intervals. The project reference is
// resolved before anything is mutated: an invalid reference leaves the
// store untouched.
func (s *Store) Start(name, projectRef string, at time.Time, notes string) (StartResult, error) {
	project, err := s.ResolveProject(name, projectRef)
	if err != nil {
		return StartResult{}, err
	}

	var autoStopped *StopResult
	if _, active := s.ActiveEntry(); active != nil {
		stopped, err := s.Stop(at, "")
		if err != nil {
			return StartResult{}, err
		}
		autoStopped = &stopped
	}

	task, ok := s.Tasks[name]
	if !ok {
		task = model.NewTask(name)
		s.Tasks[name] = task
	}
	if task.Active() {
		// Unreachable once the invariant holds, kept as a guard for
		// stores written by older versions.
		return StartResult{}, fmt.Errorf("%w: %q", ErrActiveTaskAlreadyRunning, name)
	}

	entry := &model.Entry{Project: project, Start: at, Notes: notes}
	task.Entries = append(task.Entries, entry)

	return StartResult{TaskName: name, Entry: entry, AutoStopped: autoStopped}, nil
}

// Stop closes the single active entry at the given time. The outlier
// threshold is evaluated against the durations that were active going
// into the stop; exceeding it attaches an advisory warning to the
// result. On any failure the entry stays active and unmodified.
func (s *Store) Stop(at time.Time, notes string) (StopResult, error) {
	task, entry := s.ActiveEntry()
	if entry == nil {
		return StopResult{}, ErrNoActiveTask
	}
	if at.Before(entry.Start) {
		return StopResult{}, fmt.Errorf("%w: end %s before start %s",
			ErrInvalidTimeRange, at.Format(model.TimeLayout), entry.Start.Format(model.TimeLayout))
	}

	threshold := stats.Threshold(s.ActiveSampleMinutes())
	entry.Stop(at, notes)

	result := StopResult{TaskName: task.Name, Entry: entry}
	if minutes := entry.Minutes(s.now()); float64(minutes) > threshold {
		result.Warning = &LongEntryWarning{Minutes: minutes, Threshold: threshold}
	}
	return result, nil
}

// Pop removes the task's most recent entry, active or not, moving it to
// the tombstone list for later remote deletion, and returns it.
func (s *Store) Pop(name string) (*model.Entry, error) {
	task, ok := s.Tasks[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrTaskNotFound, name)
	}
	if len(task.Entries) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrEmptyTask, name)
	}

	entry := task.Entries[len(task.Entries)-1]
	task.Entries = task.Entries[:len(task.Entries)-1]
	task.DeletedEntries = append(task.DeletedEntries, entry)
	return entry, nil
}

// Push backfills an already-closed entry, bypassing the active-entry
// machinery entirely. The project reference and time order are
// validated before the task is created or touched.
func (s *Store) Push(name, projectRef string, start, end time.Time, notes string) (PushResult, error) {
	project, err := s.ResolveProject(name, projectRef)
	if err != nil {
		return PushResult{}, err
	}
	if end.Before(start) {
		return PushResult{}, fmt.Errorf("%w: end %s before start %s",
			ErrInvalidTimeRange, end.Format(model.TimeLayout), start.Format(model.TimeLayout))
	}

	task, ok := s.Tasks[name]
	if !ok {
		task = model.NewTask(name)
		s.Tasks[name] = task
	}

	endTime := end
	entry := &model.Entry{Project: project, Start: start, End: &endTime, Notes: notes}
	task.Entries = append(task.Entries, entry)
	return PushResult{TaskName: name, Entry: entry}, nil
}

// Delete soft-deletes a whole task, entries intact, for later remote
// deletion. Deleting while the task's clock runs is refused.
func (s *Store) Delete(name string) error {
	task, ok := s.Tasks[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrTaskNotFound, name)
	}
	if task.Active() {
		return fmt.Errorf("%w: %q (stop it first)", ErrActiveTask, name)
	}

	s.DeletedTasks[name] = task
	delete(s.Tasks, name)
	return nil
}

// Details returns the named task for rendering.
func (s *Store) Details(name string) (*model.Task, error) {
	task, ok := s.Tasks[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrTaskNotFound, name)
	}
	return task, nil
}

// SortedTasks returns live tasks in name order.
func (s *Store) SortedTasks() []*model.Task {
	tasks := make([]*model.Task, 0, len(s.Tasks))
	for _, t := range s.Tasks {
		tasks = append(tasks, t)
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].Name < tasks[j].Name })
	return tasks
}

// AllTasks returns live tasks followed by deleted tasks, both in name
// order. The sync engine walks this so deleted tasks still get their
// unsynced entries materialized before the task itself is removed
// remotely.
func (s *Store) AllTasks() []*model.Task {
	tasks := s.SortedTasks()
	deleted := make([]*model.Task, 0, len(s.DeletedTasks))
	for _, t := range s.DeletedTasks {
		deleted = append(deleted, t)
	}
	sort.Slice(deleted, func(i, j int) bool { return deleted[i].Name < deleted[j].Name })
	return append(tasks, deleted...)
}

// ActiveCount reports how many entries are active across live tasks.
// The invariant keeps this at 0 or 1.
func (s *Store) ActiveCount() int {
	count := 0
	for _, t := range s.Tasks {
		for _, e := range t.Entries {
			if e.Active() {
				count++
			}
		}
	}
	return count
}

// SetCredentials stores the remote ledger credentials.
func (s *Store) SetCredentials(username, apikey string) {
	s.Username = username
	s.APIKey = apikey
}

// HasCredentials reports whether remote access is configured.
func (s *Store) HasCredentials() bool {
	return s.Username != "" && s.APIKey != ""
}

// ReplaceProjects swaps in a freshly fetched project list.
func (s *Store) ReplaceProjects(projects map[string]string) {
	s.Projects = projects
}

// SetNickname registers a project alias.
func (s *Store) SetNickname(alias, projectID string) error {
	if _, ok := s.Projects[projectID]; !ok {
		return fmt.Errorf("%w: %q", ErrInvalidProject, projectID)
	}
	s.Nicknames[alias] = projectID
	return nil
}

// DeleteNickname removes a project alias.
func (s *Store) DeleteNickname(alias string) {
	delete(s.Nicknames, alias)
}
