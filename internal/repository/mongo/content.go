package mongo

import (
	"context"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	models "coursehub/internal/domain/models/portal"
	repos "coursehub/internal/domain/repositories/portal"
)

func scopeFilter(scope models.Scope) bson.M {
	return bson.M{"semesterId": scope.SemesterID, "subjectId": scope.SubjectID}
}

type FolderRepository struct {
	c collection[models.Folder]
}

func NewFolderRepository(db *mongo.Database, logger *slog.Logger) repos.FolderRepository {
	return &FolderRepository{c: newCollection[models.Folder](db, FoldersCollection, "folder", "name", logger)}
}

func (r *FolderRepository) Create(ctx context.Context, folder *models.Folder) error {
	folder.ID = newID()
	folder.CreatedAt = time.Now().UTC()
	return r.c.insert(ctx, folder)
}

func (r *FolderRepository) GetByID(ctx context.Context, id string) (*models.Folder, error) {
	return r.c.get(ctx, id)
}

func (r *FolderRepository) ListByScope(ctx context.Context, scope models.Scope) ([]models.Folder, error) {
	return r.c.find(ctx, scopeFilter(scope))
}

func (r *FolderRepository) Rename(ctx context.Context, id, name string) error {
	return r.c.set(ctx, id, bson.M{"name": name})
}

func (r *FolderRepository) Delete(ctx context.Context, id string) error {
	return r.c.remove(ctx, id)
}

type NoteRepository struct {
	c collection[models.Note]
}

func NewNoteRepository(db *mongo.Database, logger *slog.Logger) repos.NoteRepository {
	return &NoteRepository{c: newCollection[models.Note](db, NotesCollection, "note", "title", logger)}
}

func (r *NoteRepository) Create(ctx context.Context, note *models.Note) error {
	note.ID = newID()
	note.CreatedAt = time.Now().UTC()
	return r.c.insert(ctx, note)
}

func (r *NoteRepository) GetByID(ctx context.Context, id string) (*models.Note, error) {
	return r.c.get(ctx, id)
}

func (r *NoteRepository) ListByScope(ctx context.Context, scope models.Scope) ([]models.Note, error) {
	return r.c.find(ctx, scopeFilter(scope))
}

// SearchByTitleRange relies on MongoDB's default binary string ordering.
func (r *NoteRepository) SearchByTitleRange(ctx context.Context, departmentID, lower, upper string) ([]models.Note, error) {
	return r.c.find(ctx, bson.M{
		"departmentId": departmentID,
		"title":        bson.M{"$gte": lower, "$lt": upper},
	})
}

func (r *NoteRepository) Rename(ctx context.Context, id, title string) error {
	return r.c.set(ctx, id, bson.M{"title": title})
}

func (r *NoteRepository) Move(ctx context.Context, id string, folderID *string) error {
	if folderID == nil || *folderID == "" {
		return r.c.set(ctx, id, bson.M{"folderId": nil})
	}
	return r.c.set(ctx, id, bson.M{"folderId": *folderID})
}

func (r *NoteRepository) Delete(ctx context.Context, id string) error {
	return r.c.remove(ctx, id)
}
