package store

import (
	"fmt"

	"github.com/jsuresh/ttracker/internal/core/model"
)

// ReuseLastProject is the sentinel project reference meaning "whatever
// project this task's most recent entry used".
const ReuseLastProject = "0"

// ResolveProject turns a user-supplied project reference into a known
// project. Resolution is a fixed two-step: nickname lookup first, then
// the literal id, then membership validation against the cached project
// list. taskName scopes the ReuseLastProject sentinel.
func (s *Store) ResolveProject(taskName, ref string) (model.Project, error) {
	id := ref
	if aliased, ok := s.Nicknames[ref]; ok {
		id = aliased
	}

	if id == ReuseLastProject {
		task, ok := s.Tasks[taskName]
		if !ok || len(task.Entries) == 0 {
			return model.Project{}, fmt.Errorf("%w: %q has no previous entry to reuse a project from", ErrInvalidProject, taskName)
		}
		return task.LastEntry().Project, nil
	}

	name, ok := s.Projects[id]
	if !ok {
		return model.Project{}, fmt.Errorf("%w: %q", ErrInvalidProject, ref)
	}
	return model.Project{ID: id, Name: name}, nil
}
