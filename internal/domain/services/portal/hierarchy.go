package portal

import (
	"context"

	models "coursehub/internal/domain/models/portal"
)

// HierarchyService handles department, batch, semester, subject, folder and
// note business logic. Its List methods satisfy navigation.Catalog.
type HierarchyService interface {
	ListDepartments(ctx context.Context) ([]models.Department, error)
	ListBatches(ctx context.Context, departmentID string) ([]models.Batch, error)
	ListSemesters(ctx context.Context, batchID string) ([]models.Semester, error)

	// ListSubjects returns the semester's subjects followed by the general subject
	ListSubjects(ctx context.Context, semesterID string) ([]models.Subject, error)

	ListFolders(ctx context.Context, scope models.Scope) ([]models.Folder, error)
	ListNotes(ctx context.Context, scope models.Scope) ([]models.Note, error)

	CreateDepartment(ctx context.Context, req *CreateDepartmentRequest) (*models.Department, error)
	CreateBatch(ctx context.Context, req *CreateBatchRequest) (*models.Batch, error)
	CreateSemester(ctx context.Context, req *CreateSemesterRequest) (*models.Semester, error)
	CreateSubject(ctx context.Context, req *CreateSubjectRequest) (*models.Subject, error)
	CreateFolder(ctx context.Context, req *CreateFolderRequest) (*models.Folder, error)

	// Rename changes the name of a department, batch, semester, subject or folder
	Rename(ctx context.Context, kind models.Kind, id, name string) error

	GetNote(ctx context.Context, id string) (*models.Note, error)

	// UpdateNote renames and/or moves a note within its subject
	UpdateNote(ctx context.Context, id string, req *UpdateNoteRequest) (*models.Note, error)

	// Label returns the display name of an entity, failing when it does not exist
	Label(ctx context.Context, kind models.Kind, id string) (string, error)

	// Delete removes one entity. Children are not touched. Deleting a note
	// also removes its stored file.
	Delete(ctx context.Context, kind models.Kind, id string) error
}

type CreateDepartmentRequest struct {
	Name string `json:"name"`
}

type CreateBatchRequest struct {
	DepartmentID string `json:"department_id"`
	Name         string `json:"name"`
}

type CreateSemesterRequest struct {
	BatchID string `json:"batch_id"`
	Name    string `json:"name"`
}

type CreateSubjectRequest struct {
	SemesterID string `json:"semester_id"`
	Name       string `json:"name"`
}

// CreateFolderRequest files a folder under a subject, or under the general
// subject when SubjectID is empty
type CreateFolderRequest struct {
	models.Scope
	Name      string `json:"name"`
	CreatedBy string `json:"-"`
}

// UpdateNoteRequest represents a note update request
type UpdateNoteRequest struct {
	Title    *string `json:"title,omitempty"`     // rename
	FolderID *string `json:"folder_id,omitempty"` // move (use empty string for subject root)
}
