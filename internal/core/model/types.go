package model

import (
	"strings"
	"time"
)

// TimeLayout is the textual timestamp format used everywhere: in the
// persisted store document, on the command line, and in rendered output.
// Granularity is one minute.
const TimeLayout = "2006-01-02 15:04"

// DateLayout is the day-only format sent with remote time entries.
const DateLayout = "2006-01-02"

// Project is an immutable (id, name) pair. Identity is the id; the name
// is display-only and refreshed from the remote ledger on demand.
type Project struct {
	ID   string
	Name string
}

// Entry is a single worked interval logged against a project.
// A nil End means the entry is active and the clock is still running.
// RemoteID, once set, is never cleared: the remote ledger is append-only
// from this client's perspective.
type Entry struct {
	Project  Project
	Start    time.Time
	End      *time.Time
	Notes    string
	RemoteID string
}

// Active reports whether the entry has no end timestamp yet.
func (e *Entry) Active() bool {
	return e.End == nil
}

// Synced reports whether the entry has been materialized remotely.
func (e *Entry) Synced() bool {
	return e.RemoteID != ""
}

// EndOrNow returns the end timestamp, or now for an active entry.
func (e *Entry) EndOrNow(now time.Time) time.Time {
	if e.End != nil {
		return *e.End
	}
	return now
}

// Minutes returns the whole minutes worked. Multi-day spans collapse to
// total minutes; there is no separate day component.
func (e *Entry) Minutes(now time.Time) int {
	return int(e.EndOrNow(now).Sub(e.Start) / time.Minute)
}

// Hours returns the fractional hours worked, as billed remotely.
func (e *Entry) Hours(now time.Time) float64 {
	return float64(e.Minutes(now)) / 60.0
}

// HoursAndMinutes splits the worked duration for display.
func (e *Entry) HoursAndMinutes(now time.Time) (int, int) {
	m := e.Minutes(now)
	return m / 60, m % 60
}

// Stop closes the entry and appends any extra notes.
func (e *Entry) Stop(end time.Time, notes string) {
	t := end
	e.End = &t
	e.Notes += notes
}

// Task is a named bucket of entries. Entries are kept in insertion order,
// which is also chronological order; only the last entry may be active.
// DeletedEntries are tombstones awaiting remote deletion.
type Task struct {
	Name           string
	Entries        []*Entry
	DeletedEntries []*Entry
	RemoteID       string
}

// NewTask creates an empty task.
func NewTask(name string) *Task {
	return &Task{Name: name}
}

// Active reports whether the task's trailing entry is still running.
func (t *Task) Active() bool {
	return t.ActiveEntry() != nil
}

// ActiveEntry returns the trailing active entry, or nil.
func (t *Task) ActiveEntry() *Entry {
	if len(t.Entries) == 0 {
		return nil
	}
	last := t.Entries[len(t.Entries)-1]
	if last.Active() {
		return last
	}
	return nil
}

// LastEntry returns the most recent entry, or nil for an empty task.
func (t *Task) LastEntry() *Entry {
	if len(t.Entries) == 0 {
		return nil
	}
	return t.Entries[len(t.Entries)-1]
}

// Minutes sums worked minutes across entries. Entries already synced to
// the remote ledger are skipped unless includeSynced is set, so that the
// default listing shows only unbilled time.
func (t *Task) Minutes(now time.Time, includeSynced bool) int {
	total := 0
	for _, e := range t.Entries {
		if e.Synced() && !includeSynced {
			continue
		}
		total += e.Minutes(now)
	}
	return total
}

// HoursAndMinutes splits the task total for display.
func (t *Task) HoursAndMinutes(now time.Time, includeSynced bool) (int, int) {
	m := t.Minutes(now, includeSynced)
	return m / 60, m % 60
}

// PrettyName is the human-readable task name sent to the remote ledger.
func (t *Task) PrettyName() string {
	return strings.ReplaceAll(t.Name, "_", " ")
}
