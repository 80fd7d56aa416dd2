package portal

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"coursehub/internal/domain"
	models "coursehub/internal/domain/models/portal"
	repos "coursehub/internal/domain/repositories/portal"
	"coursehub/internal/repository/postgres"
)

// PostgresFolderRepository implements FolderRepository
type PostgresFolderRepository struct {
	named
}

func NewFolderRepository(config *postgres.RepositoryConfig) repos.FolderRepository {
	return &PostgresFolderRepository{named{
		pool: config.Pool, table: config.Tables.Folders, kind: "folder", logger: config.Logger,
	}}
}

const folderColumns = `id, department_id, batch_id, semester_id, subject_id, name, created_by, created_at`

func scanFolder(row pgx.Row, f *models.Folder) error {
	return row.Scan(
		&f.ID,
		&f.DepartmentID,
		&f.BatchID,
		&f.SemesterID,
		&f.SubjectID,
		&f.Name,
		&f.CreatedBy,
		&f.CreatedAt,
	)
}

func (r *PostgresFolderRepository) Create(ctx context.Context, folder *models.Folder) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (department_id, batch_id, semester_id, subject_id, name, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, r.table)

	err := postgres.GetExecutor(ctx, r.pool).QueryRow(ctx, query,
		folder.DepartmentID,
		folder.BatchID,
		folder.SemesterID,
		folder.SubjectID,
		folder.Name,
		folder.CreatedBy,
	).Scan(&folder.ID, &folder.CreatedAt)
	if err != nil {
		return fmt.Errorf("create folder: %w", err)
	}
	return nil
}

func (r *PostgresFolderRepository) GetByID(ctx context.Context, id string) (*models.Folder, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, folderColumns, r.table)

	var f models.Folder
	if err := scanFolder(postgres.GetExecutor(ctx, r.pool).QueryRow(ctx, query, id), &f); err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get folder: %w", err)
	}
	return &f, nil
}

func (r *PostgresFolderRepository) ListByScope(ctx context.Context, scope models.Scope) ([]models.Folder, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE semester_id = $1 AND subject_id = $2
		ORDER BY name ASC, id ASC
	`, folderColumns, r.table)

	rows, err := postgres.GetExecutor(ctx, r.pool).Query(ctx, query, scope.SemesterID, scope.SubjectID)
	if err != nil {
		return nil, postgres.WrapError("list folders", err)
	}
	defer rows.Close()

	folders := make([]models.Folder, 0)
	for rows.Next() {
		var f models.Folder
		if err := scanFolder(rows, &f); err != nil {
			return nil, fmt.Errorf("scan folder: %w", err)
		}
		folders = append(folders, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate folders: %w", err)
	}
	return folders, nil
}

func (r *PostgresFolderRepository) Rename(ctx context.Context, id, name string) error {
	return r.rename(ctx, id, name)
}

func (r *PostgresFolderRepository) Delete(ctx context.Context, id string) error {
	return r.delete(ctx, id)
}

// PostgresNoteRepository implements NoteRepository
type PostgresNoteRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

func NewNoteRepository(config *postgres.RepositoryConfig) repos.NoteRepository {
	return &PostgresNoteRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

const noteColumns = `id, department_id, batch_id, semester_id, subject_id, folder_id,
	title, file_url, file_type, storage_path, size, uploaded_by, created_at`

func scanNote(row pgx.Row, n *models.Note) error {
	return row.Scan(
		&n.ID,
		&n.DepartmentID,
		&n.BatchID,
		&n.SemesterID,
		&n.SubjectID,
		&n.FolderID,
		&n.Title,
		&n.FileURL,
		&n.FileType,
		&n.StoragePath,
		&n.Size,
		&n.UploadedBy,
		&n.CreatedAt,
	)
}

func collectNotes(rows pgx.Rows) ([]models.Note, error) {
	defer rows.Close()

	notes := make([]models.Note, 0)
	for rows.Next() {
		var n models.Note
		if err := scanNote(rows, &n); err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notes: %w", err)
	}
	return notes, nil
}

// Create inserts the note with its folder in the same row write.
func (r *PostgresNoteRepository) Create(ctx context.Context, note *models.Note) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (department_id, batch_id, semester_id, subject_id, folder_id,
			title, file_url, file_type, storage_path, size, uploaded_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at
	`, r.tables.Notes)

	err := postgres.GetExecutor(ctx, r.pool).QueryRow(ctx, query,
		note.DepartmentID,
		note.BatchID,
		note.SemesterID,
		note.SubjectID,
		note.FolderID,
		note.Title,
		note.FileURL,
		note.FileType,
		note.StoragePath,
		note.Size,
		note.UploadedBy,
	).Scan(&note.ID, &note.CreatedAt)
	if err != nil {
		return fmt.Errorf("create note: %w", err)
	}
	return nil
}

func (r *PostgresNoteRepository) GetByID(ctx context.Context, id string) (*models.Note, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, noteColumns, r.tables.Notes)

	var n models.Note
	if err := scanNote(postgres.GetExecutor(ctx, r.pool).QueryRow(ctx, query, id), &n); err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("note %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get note: %w", err)
	}
	return &n, nil
}

func (r *PostgresNoteRepository) ListByScope(ctx context.Context, scope models.Scope) ([]models.Note, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE semester_id = $1 AND subject_id = $2
		ORDER BY title ASC, id ASC
	`, noteColumns, r.tables.Notes)

	rows, err := postgres.GetExecutor(ctx, r.pool).Query(ctx, query, scope.SemesterID, scope.SubjectID)
	if err != nil {
		return nil, postgres.WrapError("list notes", err)
	}
	return collectNotes(rows)
}

// SearchByTitleRange compares titles under the "C" collation so the range
// is bytewise and case-sensitive regardless of the database locale.
func (r *PostgresNoteRepository) SearchByTitleRange(ctx context.Context, departmentID, lower, upper string) ([]models.Note, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE department_id = $1
		  AND title COLLATE "C" >= $2
		  AND title COLLATE "C" < $3
		ORDER BY title COLLATE "C" ASC, id ASC
	`, noteColumns, r.tables.Notes)

	rows, err := postgres.GetExecutor(ctx, r.pool).Query(ctx, query, departmentID, lower, upper)
	if err != nil {
		return nil, postgres.WrapError("search notes", err)
	}
	return collectNotes(rows)
}

func (r *PostgresNoteRepository) Rename(ctx context.Context, id, title string) error {
	query := fmt.Sprintf(`UPDATE %s SET title = $1 WHERE id = $2`, r.tables.Notes)
	return r.exec(ctx, "rename", id, query, title, id)
}

func (r *PostgresNoteRepository) Move(ctx context.Context, id string, folderID *string) error {
	if folderID != nil && *folderID == "" {
		folderID = nil
	}
	query := fmt.Sprintf(`UPDATE %s SET folder_id = $1 WHERE id = $2`, r.tables.Notes)
	return r.exec(ctx, "move", id, query, folderID, id)
}

func (r *PostgresNoteRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Notes)
	return r.exec(ctx, "delete", id, query, id)
}

func (r *PostgresNoteRepository) exec(ctx context.Context, op, id, query string, args ...interface{}) error {
	result, err := postgres.GetExecutor(ctx, r.pool).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s note: %w", op, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("note %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
