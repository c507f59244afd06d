package syncer

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsuresh/ttracker/internal/core/model"
	"github.com/jsuresh/ttracker/internal/core/store"
	"github.com/jsuresh/ttracker/internal/remote"
)

// fakeLedger records calls and hands out sequential ids. Individual
// methods can be made to fail to exercise resumability.
type fakeLedger struct {
	nextID int

	createdTasks   []string
	deletedTasks   []string
	createdEntries []remote.TimeEntry
	deletedEntries []string
	projectUpdates map[string][]string
	projects       []remote.Project

	failListProjects   bool
	failProjectUpdates bool
	failCreateEntry    bool
}

func newFakeLedger(projects ...remote.Project) *fakeLedger {
	return &fakeLedger{
		nextID:         100,
		projects:       projects,
		projectUpdates: make(map[string][]string),
	}
}

func (f *fakeLedger) issueID() string {
	f.nextID++
	return fmt.Sprintf("%d", f.nextID)
}

func (f *fakeLedger) CreateTask(_ context.Context, name string) (string, error) {
	f.createdTasks = append(f.createdTasks, name)
	return f.issueID(), nil
}

func (f *fakeLedger) DeleteTask(_ context.Context, id string) error {
	f.deletedTasks = append(f.deletedTasks, id)
	return nil
}

func (f *fakeLedger) ListProjects(_ context.Context) ([]remote.Project, error) {
	if f.failListProjects {
		return nil, fmt.Errorf("%w: project.list unreachable", remote.ErrRemote)
	}
	return f.projects, nil
}

func (f *fakeLedger) UpdateProjectTasks(_ context.Context, projectID string, taskIDs []string) error {
	if f.failProjectUpdates {
		return fmt.Errorf("%w: project.update unreachable", remote.ErrRemote)
	}
	f.projectUpdates[projectID] = taskIDs
	return nil
}

func (f *fakeLedger) CreateTimeEntry(_ context.Context, entry remote.TimeEntry) (string, error) {
	if f.failCreateEntry {
		return "", fmt.Errorf("%w: time_entry.create unreachable", remote.ErrRemote)
	}
	f.createdEntries = append(f.createdEntries, entry)
	if entry.ID != "" {
		return entry.ID, nil
	}
	return f.issueID(), nil
}

func (f *fakeLedger) DeleteTimeEntry(_ context.Context, id string) error {
	f.deletedEntries = append(f.deletedEntries, id)
	return nil
}

// memoryPersister counts saves; the real File is exercised in the
// persist package.
type memoryPersister struct {
	saves int
}

func (m *memoryPersister) Save(*store.Store) error {
	m.saves++
	return nil
}

func fixedClock(t *testing.T, s string) func() time.Time {
	t.Helper()
	ts, err := time.Parse(model.TimeLayout, s)
	require.NoError(t, err)
	return func() time.Time { return ts }
}

func parse(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(model.TimeLayout, s)
	require.NoError(t, err)
	return ts
}

func syncStore(t *testing.T) *store.Store {
	t.Helper()
	s := store.New(fixedClock(t, "2024-01-05 12:00"))
	s.Projects["7"] = "infra"
	s.Projects["9"] = "support"
	return s
}

func TestRunMaterializesTasksAndEntries(t *testing.T) {
	s := syncStore(t)
	_, err := s.Push("code_reviews", "7", parse(t, "2024-01-01 09:00"), parse(t, "2024-01-01 10:30"), "pr queue")
	require.NoError(t, err)

	ledger := newFakeLedger(remote.Project{ID: "7", Name: "infra"}, remote.Project{ID: "9", Name: "support"})
	persister := &memoryPersister{}
	engine := New(s, persister, ledger)

	require.NoError(t, engine.Run(context.Background(), false))

	assert.Equal(t, []string{"code reviews"}, ledger.createdTasks)
	task := s.Tasks["code_reviews"]
	assert.NotEmpty(t, task.RemoteID)

	require.Len(t, ledger.createdEntries, 1)
	entry := ledger.createdEntries[0]
	assert.Equal(t, "7", entry.ProjectID)
	assert.Equal(t, task.RemoteID, entry.TaskID)
	assert.InDelta(t, 1.5, entry.Hours, 1e-9)
	assert.Equal(t, "code reviews: pr queue", entry.Notes)
	assert.Equal(t, "2024-01-01", entry.Date)
	assert.NotEmpty(t, task.Entries[0].RemoteID)

	// Project 7 now links the task; project 9 was never touched.
	assert.Equal(t, []string{task.RemoteID}, ledger.projectUpdates["7"])
	assert.NotContains(t, ledger.projectUpdates, "9")

	// One save per remote mutation: task create, entry create, link
	// pushes persist nothing (ids unchanged).
	assert.GreaterOrEqual(t, persister.saves, 2)
}

func TestRunSkipsActiveEntries(t *testing.T) {
	s := syncStore(t)
	_, err := s.Start("deploys", "7", parse(t, "2024-01-05 11:00"), "")
	require.NoError(t, err)

	ledger := newFakeLedger(remote.Project{ID: "7", Name: "infra"})
	engine := New(s, &memoryPersister{}, ledger)

	require.NoError(t, engine.Run(context.Background(), false))
	assert.Empty(t, ledger.createdEntries)
	assert.True(t, s.Tasks["deploys"].Entries[0].Active())
}

func TestRunIsIdempotentOnRerun(t *testing.T) {
	s := syncStore(t)
	_, err := s.Push("deploys", "7", parse(t, "2024-01-01 09:00"), parse(t, "2024-01-01 10:00"), "")
	require.NoError(t, err)

	ledger := newFakeLedger(remote.Project{ID: "7", Name: "infra"})
	engine := New(s, &memoryPersister{}, ledger)

	require.NoError(t, engine.Run(context.Background(), false))
	require.NoError(t, engine.Run(context.Background(), false))

	assert.Len(t, ledger.createdTasks, 1)
	assert.Len(t, ledger.createdEntries, 1)
}

// A rerun after a remote failure must not re-create anything whose id
// was already persisted by the earlier run.
func TestResumeAfterLinkFailureDoesNotRecreateEntries(t *testing.T) {
	s := syncStore(t)
	_, err := s.Push("deploys", "7", parse(t, "2024-01-01 09:00"), parse(t, "2024-01-01 10:00"), "")
	require.NoError(t, err)

	ledger := newFakeLedger(remote.Project{ID: "7", Name: "infra"}, remote.Project{ID: "9", Name: "support"})
	engine := New(s, &memoryPersister{}, ledger)

	// First run succeeds end to end; the entry's remote id is recorded.
	require.NoError(t, engine.Run(context.Background(), false))
	require.Len(t, ledger.createdEntries, 1)
	syncedID := s.Tasks["deploys"].Entries[0].RemoteID
	require.NotEmpty(t, syncedID)

	// New work arrives, and the next run dies in project linking.
	_, err = s.Push("reviews", "9", parse(t, "2024-01-02 09:00"), parse(t, "2024-01-02 10:00"), "")
	require.NoError(t, err)
	ledger.failProjectUpdates = true
	err = engine.Run(context.Background(), false)
	require.ErrorIs(t, err, remote.ErrRemote)

	// The new task was materialized before the failure and keeps its id.
	reviewsID := s.Tasks["reviews"].RemoteID
	assert.NotEmpty(t, reviewsID)

	// The rerun finishes the job without re-creating the first entry.
	ledger.failProjectUpdates = false
	require.NoError(t, engine.Run(context.Background(), false))

	assert.Len(t, ledger.createdTasks, 2)
	require.Len(t, ledger.createdEntries, 2)
	assert.Equal(t, syncedID, s.Tasks["deploys"].Entries[0].RemoteID)
	assert.Equal(t, reviewsID, s.Tasks["reviews"].RemoteID)
}

func TestEntryTombstonePropagation(t *testing.T) {
	s := syncStore(t)
	_, err := s.Push("deploys", "7", parse(t, "2024-01-01 09:00"), parse(t, "2024-01-01 10:00"), "synced")
	require.NoError(t, err)
	_, err = s.Push("deploys", "7", parse(t, "2024-01-02 09:00"), parse(t, "2024-01-02 10:00"), "local only")
	require.NoError(t, err)

	s.Tasks["deploys"].Entries[0].RemoteID = "9001"
	_, err = s.Pop("deploys") // local only, never synced
	require.NoError(t, err)
	_, err = s.Pop("deploys") // synced as 9001
	require.NoError(t, err)

	ledger := newFakeLedger(remote.Project{ID: "7", Name: "infra"})
	engine := New(s, &memoryPersister{}, ledger)
	require.NoError(t, engine.Run(context.Background(), false))

	// Only the remotely-known entry triggers a remote delete; both
	// tombstones are gone locally.
	assert.Equal(t, []string{"9001"}, ledger.deletedEntries)
	assert.Empty(t, s.Tasks["deploys"].DeletedEntries)
}

func TestTaskTombstonePropagation(t *testing.T) {
	s := syncStore(t)
	_, err := s.Push("retired", "7", parse(t, "2024-01-01 09:00"), parse(t, "2024-01-01 10:00"), "")
	require.NoError(t, err)
	s.Tasks["retired"].RemoteID = "321"
	s.Tasks["retired"].Entries[0].RemoteID = "9001"
	require.NoError(t, s.Delete("retired"))

	ledger := newFakeLedger(remote.Project{ID: "7", Name: "infra"})
	engine := New(s, &memoryPersister{}, ledger)
	require.NoError(t, engine.Run(context.Background(), false))

	assert.Equal(t, []string{"321"}, ledger.deletedTasks)
	assert.Empty(t, s.DeletedTasks)
}

func TestDeletedTaskEntriesBilledBeforeTombstone(t *testing.T) {
	s := syncStore(t)
	_, err := s.Push("retired", "7", parse(t, "2024-01-01 09:00"), parse(t, "2024-01-01 10:00"), "")
	require.NoError(t, err)
	require.NoError(t, s.Delete("retired"))

	ledger := newFakeLedger(remote.Project{ID: "7", Name: "infra"})
	engine := New(s, &memoryPersister{}, ledger)
	require.NoError(t, engine.Run(context.Background(), false))

	// The deleted task was materialized, its entry billed, and only
	// then was the task removed remotely and locally.
	assert.Equal(t, []string{"retired"}, ledger.createdTasks)
	assert.Len(t, ledger.createdEntries, 1)
	assert.Len(t, ledger.deletedTasks, 1)
	assert.Empty(t, s.DeletedTasks)
}

func TestFullResyncResubmitsWithExistingIDs(t *testing.T) {
	s := syncStore(t)
	_, err := s.Push("deploys", "7", parse(t, "2024-01-01 09:00"), parse(t, "2024-01-01 10:00"), "")
	require.NoError(t, err)

	ledger := newFakeLedger(remote.Project{ID: "7", Name: "infra"})
	engine := New(s, &memoryPersister{}, ledger)

	require.NoError(t, engine.Run(context.Background(), true))

	// Once for materialization, once for the upsert pass.
	require.Len(t, ledger.createdEntries, 2)
	assert.Empty(t, ledger.createdEntries[0].ID)
	assert.Equal(t, s.Tasks["deploys"].Entries[0].RemoteID, ledger.createdEntries[1].ID)
}

func TestRemoteFailureAbortsRun(t *testing.T) {
	s := syncStore(t)
	_, err := s.Push("deploys", "7", parse(t, "2024-01-01 09:00"), parse(t, "2024-01-01 10:00"), "")
	require.NoError(t, err)

	ledger := newFakeLedger(remote.Project{ID: "7", Name: "infra"})
	ledger.failCreateEntry = true
	engine := New(s, &memoryPersister{}, ledger)

	err = engine.Run(context.Background(), false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, remote.ErrRemote))

	// The task id from the completed phase stands; the entry stays
	// unsynced for the next run.
	assert.NotEmpty(t, s.Tasks["deploys"].RemoteID)
	assert.Empty(t, s.Tasks["deploys"].Entries[0].RemoteID)
}

func TestProgressCallback(t *testing.T) {
	s := syncStore(t)
	_, err := s.Push("deploys", "7", parse(t, "2024-01-01 09:00"), parse(t, "2024-01-01 10:00"), "")
	require.NoError(t, err)

	ledger := newFakeLedger(remote.Project{ID: "7", Name: "infra"})
	engine := New(s, &memoryPersister{}, ledger)

	var lines []string
	engine.Progress = func(format string, args ...any) {
		lines = append(lines, fmt.Sprintf(format, args...))
	}
	require.NoError(t, engine.Run(context.Background(), false))
	assert.Contains(t, lines, "Creating tasks...")
	assert.Contains(t, lines, "    deploys")
}
