package navigation

import (
	"slices"

	models "coursehub/internal/domain/models/portal"
	"coursehub/internal/service/search"
)

// View is an immutable copy of the navigator state.
type View struct {
	Department *models.Department `json:"department,omitempty"`
	Batch      *models.Batch      `json:"batch,omitempty"`
	Semester   *models.Semester   `json:"semester,omitempty"`
	Subject    *models.Subject    `json:"subject,omitempty"`
	Folder     *models.Folder     `json:"folder,omitempty"`

	Departments []models.Department `json:"departments"`
	Batches     []models.Batch      `json:"batches"`
	Semesters   []models.Semester   `json:"semesters"`
	Subjects    []models.Subject    `json:"subjects"`
	Folders     []models.Folder     `json:"folders"`

	// Notes holds every note of the selected subject; VisibleNotes is the
	// subset for the selected folder, or the root notes when none is selected.
	Notes        []models.Note `json:"-"`
	VisibleNotes []models.Note `json:"notes"`

	Query string `json:"query"`
}

// Depth is the number of selected levels.
func (v View) Depth() int {
	switch {
	case v.Folder != nil:
		return 5
	case v.Subject != nil:
		return 4
	case v.Semester != nil:
		return 3
	case v.Batch != nil:
		return 2
	case v.Department != nil:
		return 1
	}
	return 0
}

// Snapshot copies the current state.
func (n *Navigator) Snapshot() View {
	n.mu.Lock()
	defer n.mu.Unlock()

	v := View{
		Department:  clonePtr(n.department),
		Batch:       clonePtr(n.batch),
		Semester:    clonePtr(n.semester),
		Subject:     clonePtr(n.subject),
		Folder:      clonePtr(n.folder),
		Departments: cloneList(n.departments),
		Batches:     cloneList(n.batches),
		Semesters:   cloneList(n.semesters),
		Subjects:    cloneList(n.subjects),
		Folders:     cloneList(n.folders),
		Notes:       cloneList(n.notes),
		Query:       encodeOrdered(n.params()),
	}

	var folderID *string
	if n.folder != nil {
		id := n.folder.ID
		folderID = &id
	}
	v.VisibleNotes = search.FilterNotes(v.Notes, folderID)
	return v
}

// Scope returns the folder/note scope of the selected subject, and false
// when no subject is selected.
func (n *Navigator) Scope() (models.Scope, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.subject == nil {
		return models.Scope{}, false
	}
	return n.scopeFor(n.subject.ID), true
}

// Hide removes an entity from its cached list so a deferred delete looks
// immediate. A selected entity is also deselected along with everything
// below it. The returned restore puts the entity back, unless the list has
// been refetched in the meantime. Hide returns nil when the entity is not
// in its list.
func (n *Navigator) Hide(level models.Level, id string) (restore func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	var put func()
	switch level {
	case models.LevelDepartment:
		put = hideIn(&n.departments, id, func(d models.Department) string { return d.ID })
	case models.LevelBatch:
		put = hideIn(&n.batches, id, func(b models.Batch) string { return b.ID })
	case models.LevelSemester:
		put = hideIn(&n.semesters, id, func(s models.Semester) string { return s.ID })
	case models.LevelSubject:
		put = hideIn(&n.subjects, id, func(s models.Subject) string { return s.ID })
	case models.LevelFolder:
		put = hideIn(&n.folders, id, func(f models.Folder) string { return f.ID })
	}
	if put == nil {
		return nil
	}

	if n.selectedID(level) == id {
		n.unselectFrom(level)
		n.dropListsFrom(level + 1)
		n.bump(level)
	}
	return n.guardRestore(int(level), put)
}

// HideNote is Hide for a note of the selected subject.
func (n *Navigator) HideNote(id string) (restore func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	put := hideIn(&n.notes, id, func(note models.Note) string { return note.ID })
	if put == nil {
		return nil
	}
	return n.guardRestore(int(models.LevelFolder), put)
}

// guardRestore must be called with mu held. The list at level l is
// guarded by gen[l].
func (n *Navigator) guardRestore(l int, put func()) func() {
	tag := n.gen[l]
	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		if n.gen[l] != tag {
			return
		}
		put()
	}
}

// hideIn removes id from *list and returns a function that re-inserts it at
// its old position, or nil when id is absent.
func hideIn[T any](list *[]T, id string, key func(T) string) func() {
	idx := slices.IndexFunc(*list, func(v T) bool { return key(v) == id })
	if idx < 0 {
		return nil
	}
	removed := (*list)[idx]
	*list = slices.Delete(slices.Clone(*list), idx, idx+1)

	return func() {
		*list = slices.Insert(*list, min(idx, len(*list)), removed)
	}
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneList[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return slices.Clone(list)
}
