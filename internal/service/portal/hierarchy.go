// Package portal implements hierarchy CRUD on top of the repositories.
package portal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"coursehub/internal/config"
	"coursehub/internal/domain"
	models "coursehub/internal/domain/models/portal"
	repos "coursehub/internal/domain/repositories/portal"
	services "coursehub/internal/domain/services/portal"
)

var noSlash = validation.Match(regexp.MustCompile(`^[^/]+$`)).Error("folder name cannot contain slashes")

var nameRules = []validation.Rule{
	validation.Required,
	validation.RuneLength(1, config.MaxNameLength),
}

var folderNameRules = []validation.Rule{
	validation.Required,
	validation.RuneLength(1, config.MaxNameLength),
	noSlash,
}

type hierarchyService struct {
	repos  *repos.Repositories
	blobs  repos.BlobStore
	logger *slog.Logger
}

// NewHierarchyService creates a new hierarchy service
func NewHierarchyService(repositories *repos.Repositories, blobs repos.BlobStore, logger *slog.Logger) services.HierarchyService {
	return &hierarchyService{
		repos:  repositories,
		blobs:  blobs,
		logger: logger,
	}
}

func (s *hierarchyService) ListDepartments(ctx context.Context) ([]models.Department, error) {
	return s.repos.Departments.List(ctx)
}

func (s *hierarchyService) ListBatches(ctx context.Context, departmentID string) ([]models.Batch, error) {
	return s.repos.Batches.ListByDepartment(ctx, departmentID)
}

func (s *hierarchyService) ListSemesters(ctx context.Context, batchID string) ([]models.Semester, error) {
	return s.repos.Semesters.ListByBatch(ctx, batchID)
}

func (s *hierarchyService) ListSubjects(ctx context.Context, semesterID string) ([]models.Subject, error) {
	subjects, err := s.repos.Subjects.ListBySemester(ctx, semesterID)
	if err != nil {
		return nil, err
	}
	return append(subjects, models.GeneralSubject(semesterID)), nil
}

func (s *hierarchyService) ListFolders(ctx context.Context, scope models.Scope) ([]models.Folder, error) {
	return s.repos.Folders.ListByScope(ctx, scope)
}

func (s *hierarchyService) ListNotes(ctx context.Context, scope models.Scope) ([]models.Note, error) {
	return s.repos.Notes.ListByScope(ctx, scope)
}

func (s *hierarchyService) CreateDepartment(ctx context.Context, req *services.CreateDepartmentRequest) (*models.Department, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validation.ValidateStruct(req,
		validation.Field(&req.Name, nameRules...),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	dept := &models.Department{Name: req.Name}
	if err := s.repos.Departments.Create(ctx, dept); err != nil {
		return nil, fmt.Errorf("create department: %w", err)
	}

	s.logger.Info("department created", "id", dept.ID, "name", dept.Name)
	return dept, nil
}

func (s *hierarchyService) CreateBatch(ctx context.Context, req *services.CreateBatchRequest) (*models.Batch, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validation.ValidateStruct(req,
		validation.Field(&req.DepartmentID, validation.Required),
		validation.Field(&req.Name, nameRules...),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if _, err := s.repos.Departments.GetByID(ctx, req.DepartmentID); err != nil {
		return nil, err
	}

	batch := &models.Batch{DepartmentID: req.DepartmentID, Name: req.Name}
	if err := s.repos.Batches.Create(ctx, batch); err != nil {
		return nil, fmt.Errorf("create batch: %w", err)
	}

	s.logger.Info("batch created", "id", batch.ID, "department_id", batch.DepartmentID, "name", batch.Name)
	return batch, nil
}

func (s *hierarchyService) CreateSemester(ctx context.Context, req *services.CreateSemesterRequest) (*models.Semester, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validation.ValidateStruct(req,
		validation.Field(&req.BatchID, validation.Required),
		validation.Field(&req.Name, nameRules...),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if _, err := s.repos.Batches.GetByID(ctx, req.BatchID); err != nil {
		return nil, err
	}

	sem := &models.Semester{BatchID: req.BatchID, Name: req.Name}
	if err := s.repos.Semesters.Create(ctx, sem); err != nil {
		return nil, fmt.Errorf("create semester: %w", err)
	}

	s.logger.Info("semester created", "id", sem.ID, "batch_id", sem.BatchID, "name", sem.Name)
	return sem, nil
}

func (s *hierarchyService) CreateSubject(ctx context.Context, req *services.CreateSubjectRequest) (*models.Subject, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validation.ValidateStruct(req,
		validation.Field(&req.SemesterID, validation.Required),
		validation.Field(&req.Name, nameRules...),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if _, err := s.repos.Semesters.GetByID(ctx, req.SemesterID); err != nil {
		return nil, err
	}

	sub := &models.Subject{SemesterID: req.SemesterID, Name: req.Name}
	if err := s.repos.Subjects.Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("create subject: %w", err)
	}

	s.logger.Info("subject created", "id", sub.ID, "semester_id", sub.SemesterID, "name", sub.Name)
	return sub, nil
}

func (s *hierarchyService) CreateFolder(ctx context.Context, req *services.CreateFolderRequest) (*models.Folder, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.SubjectID == "" {
		req.SubjectID = models.GeneralSubjectID
	}
	if err := validation.ValidateStruct(req,
		validation.Field(&req.DepartmentID, validation.Required),
		validation.Field(&req.BatchID, validation.Required),
		validation.Field(&req.SemesterID, validation.Required),
		validation.Field(&req.Name, folderNameRules...),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if req.SubjectID == models.GeneralSubjectID {
		if _, err := s.repos.Semesters.GetByID(ctx, req.SemesterID); err != nil {
			return nil, err
		}
	} else if _, err := s.repos.Subjects.GetByID(ctx, req.SubjectID); err != nil {
		return nil, err
	}

	folder := &models.Folder{
		DepartmentID: req.DepartmentID,
		BatchID:      req.BatchID,
		SemesterID:   req.SemesterID,
		SubjectID:    req.SubjectID,
		Name:         req.Name,
		CreatedBy:    req.CreatedBy,
	}
	if err := s.repos.Folders.Create(ctx, folder); err != nil {
		return nil, fmt.Errorf("create folder: %w", err)
	}

	s.logger.Info("folder created",
		"id", folder.ID,
		"subject_id", folder.SubjectID,
		"semester_id", folder.SemesterID,
		"name", folder.Name,
	)
	return folder, nil
}

func (s *hierarchyService) Rename(ctx context.Context, kind models.Kind, id, name string) error {
	name = strings.TrimSpace(name)
	rules := nameRules
	if kind == models.KindFolder {
		rules = folderNameRules
	}
	if err := validation.Validate(name, rules...); err != nil {
		return &domain.ValidationError{Message: fmt.Sprintf("name: %v", err)}
	}
	if kind == models.KindSubject && id == models.GeneralSubjectID {
		return &domain.ValidationError{Message: "the general subject cannot be renamed"}
	}

	var err error
	switch kind {
	case models.KindDepartment:
		err = s.repos.Departments.Rename(ctx, id, name)
	case models.KindBatch:
		err = s.repos.Batches.Rename(ctx, id, name)
	case models.KindSemester:
		err = s.repos.Semesters.Rename(ctx, id, name)
	case models.KindSubject:
		err = s.repos.Subjects.Rename(ctx, id, name)
	case models.KindFolder:
		err = s.repos.Folders.Rename(ctx, id, name)
	case models.KindNote:
		err = s.repos.Notes.Rename(ctx, id, name)
	default:
		return &domain.ValidationError{Message: fmt.Sprintf("cannot rename %q", kind)}
	}
	if err != nil {
		return err
	}

	s.logger.Info("entity renamed", "kind", kind, "id", id, "name", name)
	return nil
}

func (s *hierarchyService) GetNote(ctx context.Context, id string) (*models.Note, error) {
	return s.repos.Notes.GetByID(ctx, id)
}

func (s *hierarchyService) UpdateNote(ctx context.Context, id string, req *services.UpdateNoteRequest) (*models.Note, error) {
	if req.Title == nil && req.FolderID == nil {
		return nil, &domain.ValidationError{Message: "at least one field must be provided"}
	}

	note, err := s.repos.Notes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if err := validation.Validate(title, validation.Required, validation.RuneLength(1, config.MaxNoteTitleLength)); err != nil {
			return nil, &domain.ValidationError{Message: fmt.Sprintf("title: %v", err)}
		}
		if err := s.repos.Notes.Rename(ctx, id, title); err != nil {
			return nil, err
		}
		note.Title = title
	}

	if req.FolderID != nil {
		var target *string
		if *req.FolderID != "" {
			folder, err := s.repos.Folders.GetByID(ctx, *req.FolderID)
			if err != nil {
				return nil, err
			}
			if folder.SubjectID != note.SubjectID || folder.SemesterID != note.SemesterID {
				return nil, &domain.ValidationError{Message: "folder belongs to a different subject"}
			}
			target = &folder.ID
		}
		if err := s.repos.Notes.Move(ctx, id, target); err != nil {
			return nil, err
		}
		note.FolderID = target
	}

	s.logger.Info("note updated", "id", id, "title", note.Title, "folder_id", note.FolderID)
	return note, nil
}

func (s *hierarchyService) Label(ctx context.Context, kind models.Kind, id string) (string, error) {
	switch kind {
	case models.KindDepartment:
		d, err := s.repos.Departments.GetByID(ctx, id)
		if err != nil {
			return "", err
		}
		return d.Name, nil
	case models.KindBatch:
		b, err := s.repos.Batches.GetByID(ctx, id)
		if err != nil {
			return "", err
		}
		return b.Name, nil
	case models.KindSemester:
		sem, err := s.repos.Semesters.GetByID(ctx, id)
		if err != nil {
			return "", err
		}
		return sem.Name, nil
	case models.KindSubject:
		if id == models.GeneralSubjectID {
			return models.GeneralSubjectName, nil
		}
		sub, err := s.repos.Subjects.GetByID(ctx, id)
		if err != nil {
			return "", err
		}
		return sub.Name, nil
	case models.KindFolder:
		f, err := s.repos.Folders.GetByID(ctx, id)
		if err != nil {
			return "", err
		}
		return f.Name, nil
	case models.KindNote:
		n, err := s.repos.Notes.GetByID(ctx, id)
		if err != nil {
			return "", err
		}
		return n.Title, nil
	}
	return "", &domain.ValidationError{Message: fmt.Sprintf("unknown kind %q", kind)}
}

func (s *hierarchyService) Delete(ctx context.Context, kind models.Kind, id string) error {
	var err error
	switch kind {
	case models.KindDepartment:
		err = s.repos.Departments.Delete(ctx, id)
	case models.KindBatch:
		err = s.repos.Batches.Delete(ctx, id)
	case models.KindSemester:
		err = s.repos.Semesters.Delete(ctx, id)
	case models.KindSubject:
		if id == models.GeneralSubjectID {
			return &domain.ValidationError{Message: "the general subject cannot be deleted"}
		}
		err = s.repos.Subjects.Delete(ctx, id)
	case models.KindFolder:
		err = s.repos.Folders.Delete(ctx, id)
	case models.KindNote:
		return s.deleteNote(ctx, id)
	default:
		return &domain.ValidationError{Message: fmt.Sprintf("cannot delete %q", kind)}
	}
	if err != nil {
		return err
	}

	s.logger.Info("entity deleted", "kind", kind, "id", id)
	return nil
}

// deleteNote removes the record first; a leftover blob is only logged.
func (s *hierarchyService) deleteNote(ctx context.Context, id string) error {
	note, err := s.repos.Notes.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repos.Notes.Delete(ctx, id); err != nil {
		return err
	}

	if note.StoragePath != "" {
		if err := s.blobs.Delete(ctx, note.StoragePath); err != nil && !errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn("failed to delete note file",
				"id", id,
				"path", note.StoragePath,
				"error", err,
			)
		}
	}

	s.logger.Info("entity deleted", "kind", models.KindNote, "id", id)
	return nil
}
