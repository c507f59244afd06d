// Package persist converts the in-memory ledger to and from its durable
// JSON document and owns the store file on disk. Encoding is an
// explicit, per-entity mapping: entries reference projects by id and
// decoding re-resolves them against the project table.
package persist

import (
	"fmt"
	"time"

	"github.com/bytedance/sonic"

	"github.com/jsuresh/ttracker/internal/core/model"
	"github.com/jsuresh/ttracker/internal/core/store"
)

// BrokenReferenceError reports an entry whose project_id is absent from
// the document's project table.
type BrokenReferenceError struct {
	TaskName  string
	ProjectID string
}

func (e *BrokenReferenceError) Error() string {
	return fmt.Sprintf("task %q references unknown project id %q", e.TaskName, e.ProjectID)
}

// Document shapes. Field names and formats are the stable on-disk
// contract; see the entry timestamp layout in model.TimeLayout. An
// active entry encodes its end as JSON null, never a sentinel string.
type storeDoc struct {
	Tasks        map[string]taskDoc `json:"tasks"`
	DeletedTasks map[string]taskDoc `json:"deleted_tasks"`
	Projects     map[string]string  `json:"projects"`
	Nicknames    map[string]string  `json:"nicknames"`
	Username     string             `json:"username"`
	APIKey       string             `json:"apikey"`
}

type taskDoc struct {
	Name           string     `json:"name"`
	Entries        []entryDoc `json:"entries"`
	DeletedEntries []entryDoc `json:"deleted_entries"`
	FreshbooksID   string     `json:"freshbooks_id"`
}

type entryDoc struct {
	ProjectID    string  `json:"project_id"`
	Start        string  `json:"start"`
	End          *string `json:"end"`
	Notes        string  `json:"notes"`
	FreshbooksID string  `json:"freshbooks_id"`
}

// Encode serializes the store to its JSON document.
func Encode(s *store.Store) ([]byte, error) {
	doc := storeDoc{
		Tasks:        make(map[string]taskDoc, len(s.Tasks)),
		DeletedTasks: make(map[string]taskDoc, len(s.DeletedTasks)),
		Projects:     s.Projects,
		Nicknames:    s.Nicknames,
		Username:     s.Username,
		APIKey:       s.APIKey,
	}
	for name, t := range s.Tasks {
		doc.Tasks[name] = encodeTask(t)
	}
	for name, t := range s.DeletedTasks {
		doc.DeletedTasks[name] = encodeTask(t)
	}
	return sonic.Marshal(doc)
}

func encodeTask(t *model.Task) taskDoc {
	return taskDoc{
		Name:           t.Name,
		Entries:        encodeEntries(t.Entries),
		DeletedEntries: encodeEntries(t.DeletedEntries),
		FreshbooksID:   t.RemoteID,
	}
}

func encodeEntries(entries []*model.Entry) []entryDoc {
	docs := make([]entryDoc, 0, len(entries))
	for _, e := range entries {
		docs = append(docs, encodeEntry(e))
	}
	return docs
}

func encodeEntry(e *model.Entry) entryDoc {
	doc := entryDoc{
		ProjectID:    e.Project.ID,
		Start:        e.Start.Format(model.TimeLayout),
		Notes:        e.Notes,
		FreshbooksID: e.RemoteID,
	}
	if e.End != nil {
		end := e.End.Format(model.TimeLayout)
		doc.End = &end
	}
	return doc
}

// Decode reconstructs a store from its JSON document, resolving entry
// project ids against the document's project table. The clock is
// injected so active durations stay deterministic under test.
func Decode(data []byte, now func() time.Time) (*store.Store, error) {
	var doc storeDoc
	if err := sonic.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("malformed store document: %w", err)
	}

	s := store.New(now)
	if doc.Projects != nil {
		s.Projects = doc.Projects
	}
	if doc.Nicknames != nil {
		s.Nicknames = doc.Nicknames
	}
	s.Username = doc.Username
	s.APIKey = doc.APIKey

	for name, td := range doc.Tasks {
		task, err := decodeTask(td, s.Projects)
		if err != nil {
			return nil, err
		}
		s.Tasks[name] = task
	}
	for name, td := range doc.DeletedTasks {
		task, err := decodeTask(td, s.Projects)
		if err != nil {
			return nil, err
		}
		s.DeletedTasks[name] = task
	}
	return s, nil
}

func decodeTask(doc taskDoc, projects map[string]string) (*model.Task, error) {
	entries, err := decodeEntries(doc.Name, doc.Entries, projects)
	if err != nil {
		return nil, err
	}
	deleted, err := decodeEntries(doc.Name, doc.DeletedEntries, projects)
	if err != nil {
		return nil, err
	}
	return &model.Task{
		Name:           doc.Name,
		Entries:        entries,
		DeletedEntries: deleted,
		RemoteID:       doc.FreshbooksID,
	}, nil
}

func decodeEntries(taskName string, docs []entryDoc, projects map[string]string) ([]*model.Entry, error) {
	entries := make([]*model.Entry, 0, len(docs))
	for _, doc := range docs {
		e, err := decodeEntry(taskName, doc, projects)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func decodeEntry(taskName string, doc entryDoc, projects map[string]string) (*model.Entry, error) {
	name, ok := projects[doc.ProjectID]
	if !ok {
		return nil, &BrokenReferenceError{TaskName: taskName, ProjectID: doc.ProjectID}
	}

	start, err := time.Parse(model.TimeLayout, doc.Start)
	if err != nil {
		return nil, fmt.Errorf("task %q: bad start timestamp %q: %w", taskName, doc.Start, err)
	}

	e := &model.Entry{
		Project:  model.Project{ID: doc.ProjectID, Name: name},
		Start:    start,
		Notes:    doc.Notes,
		RemoteID: doc.FreshbooksID,
	}
	if doc.End != nil {
		end, err := time.Parse(model.TimeLayout, *doc.End)
		if err != nil {
			return nil, fmt.Errorf("task %q: bad end timestamp %q: %w", taskName, *doc.End, err)
		}
		e.End = &end
	}
	return e, nil
}
