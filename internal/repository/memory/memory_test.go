package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursehub/internal/domain"
	models "coursehub/internal/domain/models/portal"
)

func TestBatchRepository_ListOrderedByName(t *testing.T) {
	ctx := context.Background()
	repo := NewBatchRepository()

	for _, name := range []string{"2025", "2023", "2024"} {
		require.NoError(t, repo.Create(ctx, &models.Batch{DepartmentID: "cs", Name: name}))
	}
	require.NoError(t, repo.Create(ctx, &models.Batch{DepartmentID: "ee", Name: "2022"}))

	batches, err := repo.ListByDepartment(ctx, "cs")
	require.NoError(t, err)
	require.Len(t, batches, 3)
	assert.Equal(t, "2023", batches[0].Name)
	assert.Equal(t, "2025", batches[2].Name)
}

func TestNoteRepository_SearchByTitleRange(t *testing.T) {
	ctx := context.Background()
	repo := NewNoteRepository()

	for _, n := range []models.Note{
		{DepartmentID: "cs", Title: "Midterm1"},
		{DepartmentID: "cs", Title: "midterm2"},
		{DepartmentID: "cs", Title: "Final"},
		{DepartmentID: "ee", Title: "Midterm EE"},
	} {
		require.NoError(t, repo.Create(ctx, &n))
	}

	notes, err := repo.SearchByTitleRange(ctx, "cs", "Mid", "Mid\U0010FFFF")
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "Midterm1", notes[0].Title)
}

func TestNoteRepository_MoveAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewNoteRepository()

	note := &models.Note{SemesterID: "s1", SubjectID: "general", Title: "a.pdf"}
	require.NoError(t, repo.Create(ctx, note))
	assert.NotEmpty(t, note.ID)

	folder := "f1"
	require.NoError(t, repo.Move(ctx, note.ID, &folder))
	got, err := repo.GetByID(ctx, note.ID)
	require.NoError(t, err)
	assert.True(t, got.InFolder(&folder))

	require.NoError(t, repo.Move(ctx, note.ID, nil))
	got, err = repo.GetByID(ctx, note.ID)
	require.NoError(t, err)
	assert.Nil(t, got.FolderID)

	require.NoError(t, repo.Delete(ctx, note.ID))
	_, err = repo.GetByID(ctx, note.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, note.ID), domain.ErrNotFound)
}

func TestFolderRepository_ScopeIncludesSemester(t *testing.T) {
	ctx := context.Background()
	repo := NewFolderRepository()

	require.NoError(t, repo.Create(ctx, &models.Folder{SemesterID: "sem1", SubjectID: models.GeneralSubjectID, Name: "Unit1"}))
	require.NoError(t, repo.Create(ctx, &models.Folder{SemesterID: "sem2", SubjectID: models.GeneralSubjectID, Name: "Unit1"}))

	folders, err := repo.ListByScope(ctx, models.Scope{SemesterID: "sem1", SubjectID: models.GeneralSubjectID})
	require.NoError(t, err)
	assert.Len(t, folders, 1)
}
