package portal

import (
	"context"

	models "coursehub/internal/domain/models/portal"
)

// DepartmentRepository defines data access operations for departments
type DepartmentRepository interface {
	// Create assigns ID and CreatedAt and persists the department
	Create(ctx context.Context, dept *models.Department) error

	GetByID(ctx context.Context, id string) (*models.Department, error)

	// List returns every department ordered by name
	List(ctx context.Context) ([]models.Department, error)

	Rename(ctx context.Context, id, name string) error

	// Delete removes the department only. Children are left in place.
	Delete(ctx context.Context, id string) error
}

// BatchRepository defines data access operations for batches
type BatchRepository interface {
	Create(ctx context.Context, batch *models.Batch) error
	GetByID(ctx context.Context, id string) (*models.Batch, error)

	// ListByDepartment returns the department's batches ordered by name
	ListByDepartment(ctx context.Context, departmentID string) ([]models.Batch, error)

	Rename(ctx context.Context, id, name string) error
	Delete(ctx context.Context, id string) error
}

// SemesterRepository defines data access operations for semesters
type SemesterRepository interface {
	Create(ctx context.Context, sem *models.Semester) error
	GetByID(ctx context.Context, id string) (*models.Semester, error)

	// ListByBatch returns the batch's semesters ordered by name
	ListByBatch(ctx context.Context, batchID string) ([]models.Semester, error)

	Rename(ctx context.Context, id, name string) error
	Delete(ctx context.Context, id string) error
}

// SubjectRepository defines data access operations for persisted subjects.
// The synthetic general subject is never stored here.
type SubjectRepository interface {
	Create(ctx context.Context, sub *models.Subject) error
	GetByID(ctx context.Context, id string) (*models.Subject, error)

	// ListBySemester returns the semester's subjects ordered by name
	ListBySemester(ctx context.Context, semesterID string) ([]models.Subject, error)

	Rename(ctx context.Context, id, name string) error
	Delete(ctx context.Context, id string) error
}

// FolderRepository defines data access operations for folders
type FolderRepository interface {
	Create(ctx context.Context, folder *models.Folder) error
	GetByID(ctx context.Context, id string) (*models.Folder, error)

	// ListByScope returns the folders of one subject bucket ordered by name.
	// Matching is by SubjectID and SemesterID.
	ListByScope(ctx context.Context, scope models.Scope) ([]models.Folder, error)

	Rename(ctx context.Context, id, name string) error
	Delete(ctx context.Context, id string) error
}

// NoteRepository defines data access operations for notes
type NoteRepository interface {
	Create(ctx context.Context, note *models.Note) error
	GetByID(ctx context.Context, id string) (*models.Note, error)

	// ListByScope returns every note of one subject bucket ordered by title,
	// regardless of folder.
	ListByScope(ctx context.Context, scope models.Scope) ([]models.Note, error)

	// SearchByTitleRange returns the department's notes with lower <= title < upper,
	// compared bytewise, ordered by title.
	SearchByTitleRange(ctx context.Context, departmentID, lower, upper string) ([]models.Note, error)

	Rename(ctx context.Context, id, title string) error

	// Move files the note under folderID, or at the subject root when nil
	Move(ctx context.Context, id string, folderID *string) error

	Delete(ctx context.Context, id string) error
}

// Repositories bundles one repository per entity so a backend can be swapped as a unit.
type Repositories struct {
	Departments DepartmentRepository
	Batches     BatchRepository
	Semesters   SemesterRepository
	Subjects    SubjectRepository
	Folders     FolderRepository
	Notes       NoteRepository
}
