package memory

import (
	"context"

	models "coursehub/internal/domain/models/portal"
	repos "coursehub/internal/domain/repositories/portal"
)

func inScope(s, scope models.Scope) bool {
	return s.SubjectID == scope.SubjectID && s.SemesterID == scope.SemesterID
}

type FolderRepository struct {
	t *table[models.Folder]
}

func NewFolderRepository() repos.FolderRepository {
	return &FolderRepository{t: newTable[models.Folder]("folder")}
}

func (r *FolderRepository) Create(ctx context.Context, folder *models.Folder) error {
	folder.ID = newID()
	folder.CreatedAt = r.t.now()
	r.t.insert(folder.ID, *folder)
	return nil
}

func (r *FolderRepository) GetByID(ctx context.Context, id string) (*models.Folder, error) {
	f, err := r.t.get(id)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *FolderRepository) ListByScope(ctx context.Context, scope models.Scope) ([]models.Folder, error) {
	return r.t.filter(
		func(f models.Folder) bool { return inScope(f.Scope(), scope) },
		func(f models.Folder) string { return f.Name },
		func(f models.Folder) string { return f.ID },
	), nil
}

func (r *FolderRepository) Rename(ctx context.Context, id, name string) error {
	return r.t.update(id, func(f *models.Folder) { f.Name = name })
}

func (r *FolderRepository) Delete(ctx context.Context, id string) error {
	return r.t.remove(id)
}

type NoteRepository struct {
	t *table[models.Note]
}

func NewNoteRepository() repos.NoteRepository {
	return &NoteRepository{t: newTable[models.Note]("note")}
}

func (r *NoteRepository) Create(ctx context.Context, note *models.Note) error {
	note.ID = newID()
	note.CreatedAt = r.t.now()
	if note.FolderID != nil {
		id := *note.FolderID
		note.FolderID = &id
	}
	r.t.insert(note.ID, *note)
	return nil
}

func (r *NoteRepository) GetByID(ctx context.Context, id string) (*models.Note, error) {
	n, err := r.t.get(id)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *NoteRepository) ListByScope(ctx context.Context, scope models.Scope) ([]models.Note, error) {
	return r.t.filter(
		func(n models.Note) bool { return inScope(n.Scope(), scope) },
		func(n models.Note) string { return n.Title },
		func(n models.Note) string { return n.ID },
	), nil
}

// SearchByTitleRange compares titles as Go strings, which is bytewise.
func (r *NoteRepository) SearchByTitleRange(ctx context.Context, departmentID, lower, upper string) ([]models.Note, error) {
	return r.t.filter(
		func(n models.Note) bool {
			return n.DepartmentID == departmentID && n.Title >= lower && n.Title < upper
		},
		func(n models.Note) string { return n.Title },
		func(n models.Note) string { return n.ID },
	), nil
}

func (r *NoteRepository) Rename(ctx context.Context, id, title string) error {
	return r.t.update(id, func(n *models.Note) { n.Title = title })
}

func (r *NoteRepository) Move(ctx context.Context, id string, folderID *string) error {
	return r.t.update(id, func(n *models.Note) {
		if folderID == nil || *folderID == "" {
			n.FolderID = nil
			return
		}
		f := *folderID
		n.FolderID = &f
	})
}

func (r *NoteRepository) Delete(ctx context.Context, id string) error {
	return r.t.remove(id)
}
