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

// NewRepositories wires every hierarchy repository to one pool.
func NewRepositories(config *postgres.RepositoryConfig) *repos.Repositories {
	return &repos.Repositories{
		Departments: NewDepartmentRepository(config),
		Batches:     NewBatchRepository(config),
		Semesters:   NewSemesterRepository(config),
		Subjects:    NewSubjectRepository(config),
		Folders:     NewFolderRepository(config),
		Notes:       NewNoteRepository(config),
	}
}

// named is the shared shape of the four name-only hierarchy tables.
type named struct {
	pool   *pgxpool.Pool
	table  string
	parent string // foreign key column, empty for departments
	kind   string
	logger *slog.Logger
}

func (n *named) create(ctx context.Context, parentID, name string) (string, error) {
	var (
		query string
		args  []interface{}
	)
	if n.parent == "" {
		query = fmt.Sprintf(`INSERT INTO %s (name) VALUES ($1) RETURNING id`, n.table)
		args = []interface{}{name}
	} else {
		query = fmt.Sprintf(`INSERT INTO %s (%s, name) VALUES ($1, $2) RETURNING id`, n.table, n.parent)
		args = []interface{}{parentID, name}
	}

	var id string
	executor := postgres.GetExecutor(ctx, n.pool)
	if err := executor.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return "", postgres.WrapError("create "+n.kind, err)
	}
	return id, nil
}

func (n *named) rename(ctx context.Context, id, name string) error {
	query := fmt.Sprintf(`UPDATE %s SET name = $1 WHERE id = $2`, n.table)

	result, err := postgres.GetExecutor(ctx, n.pool).Exec(ctx, query, name, id)
	if err != nil {
		return fmt.Errorf("rename %s: %w", n.kind, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("%s %s: %w", n.kind, id, domain.ErrNotFound)
	}
	return nil
}

func (n *named) delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, n.table)

	result, err := postgres.GetExecutor(ctx, n.pool).Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", n.kind, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("%s %s: %w", n.kind, id, domain.ErrNotFound)
	}
	n.logger.Debug("hierarchy row deleted", "kind", n.kind, "id", id)
	return nil
}

func (n *named) columns() string {
	if n.parent == "" {
		return "id, name, created_at"
	}
	return fmt.Sprintf("id, %s, name, created_at", n.parent)
}

func (n *named) getByID(ctx context.Context, id string, dest ...interface{}) error {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, n.columns(), n.table)

	err := postgres.GetExecutor(ctx, n.pool).QueryRow(ctx, query, id).Scan(dest...)
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return fmt.Errorf("%s %s: %w", n.kind, id, domain.ErrNotFound)
		}
		return postgres.WrapError("get "+n.kind, err)
	}
	return nil
}

func (n *named) list(ctx context.Context, parentID string) (pgx.Rows, error) {
	var (
		query string
		args  []interface{}
	)
	if n.parent == "" {
		query = fmt.Sprintf(`SELECT %s FROM %s ORDER BY name ASC, id ASC`, n.columns(), n.table)
	} else {
		query = fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 ORDER BY name ASC, id ASC`,
			n.columns(), n.table, n.parent)
		args = append(args, parentID)
	}

	rows, err := postgres.GetExecutor(ctx, n.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, postgres.WrapError("list "+n.kind, err)
	}
	return rows, nil
}

// PostgresDepartmentRepository implements DepartmentRepository
type PostgresDepartmentRepository struct {
	named
}

func NewDepartmentRepository(config *postgres.RepositoryConfig) repos.DepartmentRepository {
	return &PostgresDepartmentRepository{named{
		pool: config.Pool, table: config.Tables.Departments, kind: "department", logger: config.Logger,
	}}
}

func (r *PostgresDepartmentRepository) Create(ctx context.Context, dept *models.Department) error {
	id, err := r.create(ctx, "", dept.Name)
	if err != nil {
		return err
	}
	got, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	*dept = *got
	return nil
}

func (r *PostgresDepartmentRepository) GetByID(ctx context.Context, id string) (*models.Department, error) {
	var d models.Department
	if err := r.getByID(ctx, id, &d.ID, &d.Name, &d.CreatedAt); err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *PostgresDepartmentRepository) List(ctx context.Context) ([]models.Department, error) {
	rows, err := r.list(ctx, "")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.Department, 0)
	for rows.Next() {
		var d models.Department
		if err := rows.Scan(&d.ID, &d.Name, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan department: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate departments: %w", err)
	}
	return out, nil
}

func (r *PostgresDepartmentRepository) Rename(ctx context.Context, id, name string) error {
	return r.rename(ctx, id, name)
}

func (r *PostgresDepartmentRepository) Delete(ctx context.Context, id string) error {
	return r.delete(ctx, id)
}

// PostgresBatchRepository implements BatchRepository
type PostgresBatchRepository struct {
	named
}

func NewBatchRepository(config *postgres.RepositoryConfig) repos.BatchRepository {
	return &PostgresBatchRepository{named{
		pool: config.Pool, table: config.Tables.Batches, parent: "department_id", kind: "batch", logger: config.Logger,
	}}
}

func (r *PostgresBatchRepository) Create(ctx context.Context, batch *models.Batch) error {
	id, err := r.create(ctx, batch.DepartmentID, batch.Name)
	if err != nil {
		return err
	}
	got, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	*batch = *got
	return nil
}

func (r *PostgresBatchRepository) GetByID(ctx context.Context, id string) (*models.Batch, error) {
	var b models.Batch
	if err := r.getByID(ctx, id, &b.ID, &b.DepartmentID, &b.Name, &b.CreatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *PostgresBatchRepository) ListByDepartment(ctx context.Context, departmentID string) ([]models.Batch, error) {
	rows, err := r.list(ctx, departmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.Batch, 0)
	for rows.Next() {
		var b models.Batch
		if err := rows.Scan(&b.ID, &b.DepartmentID, &b.Name, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan batch: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate batches: %w", err)
	}
	return out, nil
}

func (r *PostgresBatchRepository) Rename(ctx context.Context, id, name string) error {
	return r.rename(ctx, id, name)
}

func (r *PostgresBatchRepository) Delete(ctx context.Context, id string) error {
	return r.delete(ctx, id)
}

// PostgresSemesterRepository implements SemesterRepository
type PostgresSemesterRepository struct {
	named
}

func NewSemesterRepository(config *postgres.RepositoryConfig) repos.SemesterRepository {
	return &PostgresSemesterRepository{named{
		pool: config.Pool, table: config.Tables.Semesters, parent: "batch_id", kind: "semester", logger: config.Logger,
	}}
}

func (r *PostgresSemesterRepository) Create(ctx context.Context, sem *models.Semester) error {
	id, err := r.create(ctx, sem.BatchID, sem.Name)
	if err != nil {
		return err
	}
	got, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	*sem = *got
	return nil
}

func (r *PostgresSemesterRepository) GetByID(ctx context.Context, id string) (*models.Semester, error) {
	var s models.Semester
	if err := r.getByID(ctx, id, &s.ID, &s.BatchID, &s.Name, &s.CreatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *PostgresSemesterRepository) ListByBatch(ctx context.Context, batchID string) ([]models.Semester, error) {
	rows, err := r.list(ctx, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.Semester, 0)
	for rows.Next() {
		var s models.Semester
		if err := rows.Scan(&s.ID, &s.BatchID, &s.Name, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan semester: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate semesters: %w", err)
	}
	return out, nil
}

func (r *PostgresSemesterRepository) Rename(ctx context.Context, id, name string) error {
	return r.rename(ctx, id, name)
}

func (r *PostgresSemesterRepository) Delete(ctx context.Context, id string) error {
	return r.delete(ctx, id)
}

// PostgresSubjectRepository implements SubjectRepository
type PostgresSubjectRepository struct {
	named
}

func NewSubjectRepository(config *postgres.RepositoryConfig) repos.SubjectRepository {
	return &PostgresSubjectRepository{named{
		pool: config.Pool, table: config.Tables.Subjects, parent: "semester_id", kind: "subject", logger: config.Logger,
	}}
}

func (r *PostgresSubjectRepository) Create(ctx context.Context, sub *models.Subject) error {
	id, err := r.create(ctx, sub.SemesterID, sub.Name)
	if err != nil {
		return err
	}
	got, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	*sub = *got
	return nil
}

func (r *PostgresSubjectRepository) GetByID(ctx context.Context, id string) (*models.Subject, error) {
	var s models.Subject
	if err := r.getByID(ctx, id, &s.ID, &s.SemesterID, &s.Name, &s.CreatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *PostgresSubjectRepository) ListBySemester(ctx context.Context, semesterID string) ([]models.Subject, error) {
	rows, err := r.list(ctx, semesterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.Subject, 0)
	for rows.Next() {
		var s models.Subject
		if err := rows.Scan(&s.ID, &s.SemesterID, &s.Name, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan subject: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subjects: %w", err)
	}
	return out, nil
}

func (r *PostgresSubjectRepository) Rename(ctx context.Context, id, name string) error {
	return r.rename(ctx, id, name)
}

func (r *PostgresSubjectRepository) Delete(ctx context.Context, id string) error {
	return r.delete(ctx, id)
}
