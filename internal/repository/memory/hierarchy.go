package memory

import (
	"context"

	models "coursehub/internal/domain/models/portal"
	repos "coursehub/internal/domain/repositories/portal"
)

type DepartmentRepository struct {
	t *table[models.Department]
}

func NewDepartmentRepository() repos.DepartmentRepository {
	return &DepartmentRepository{t: newTable[models.Department]("department")}
}

func (r *DepartmentRepository) Create(ctx context.Context, dept *models.Department) error {
	dept.ID = newID()
	dept.CreatedAt = r.t.now()
	r.t.insert(dept.ID, *dept)
	return nil
}

func (r *DepartmentRepository) GetByID(ctx context.Context, id string) (*models.Department, error) {
	d, err := r.t.get(id)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *DepartmentRepository) List(ctx context.Context) ([]models.Department, error) {
	return r.t.filter(
		func(models.Department) bool { return true },
		func(d models.Department) string { return d.Name },
		func(d models.Department) string { return d.ID },
	), nil
}

func (r *DepartmentRepository) Rename(ctx context.Context, id, name string) error {
	return r.t.update(id, func(d *models.Department) { d.Name = name })
}

func (r *DepartmentRepository) Delete(ctx context.Context, id string) error {
	return r.t.remove(id)
}

type BatchRepository struct {
	t *table[models.Batch]
}

func NewBatchRepository() repos.BatchRepository {
	return &BatchRepository{t: newTable[models.Batch]("batch")}
}

func (r *BatchRepository) Create(ctx context.Context, batch *models.Batch) error {
	batch.ID = newID()
	batch.CreatedAt = r.t.now()
	r.t.insert(batch.ID, *batch)
	return nil
}

func (r *BatchRepository) GetByID(ctx context.Context, id string) (*models.Batch, error) {
	b, err := r.t.get(id)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BatchRepository) ListByDepartment(ctx context.Context, departmentID string) ([]models.Batch, error) {
	return r.t.filter(
		func(b models.Batch) bool { return b.DepartmentID == departmentID },
		func(b models.Batch) string { return b.Name },
		func(b models.Batch) string { return b.ID },
	), nil
}

func (r *BatchRepository) Rename(ctx context.Context, id, name string) error {
	return r.t.update(id, func(b *models.Batch) { b.Name = name })
}

func (r *BatchRepository) Delete(ctx context.Context, id string) error {
	return r.t.remove(id)
}

type SemesterRepository struct {
	t *table[models.Semester]
}

func NewSemesterRepository() repos.SemesterRepository {
	return &SemesterRepository{t: newTable[models.Semester]("semester")}
}

func (r *SemesterRepository) Create(ctx context.Context, sem *models.Semester) error {
	sem.ID = newID()
	sem.CreatedAt = r.t.now()
	r.t.insert(sem.ID, *sem)
	return nil
}

func (r *SemesterRepository) GetByID(ctx context.Context, id string) (*models.Semester, error) {
	s, err := r.t.get(id)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SemesterRepository) ListByBatch(ctx context.Context, batchID string) ([]models.Semester, error) {
	return r.t.filter(
		func(s models.Semester) bool { return s.BatchID == batchID },
		func(s models.Semester) string { return s.Name },
		func(s models.Semester) string { return s.ID },
	), nil
}

func (r *SemesterRepository) Rename(ctx context.Context, id, name string) error {
	return r.t.update(id, func(s *models.Semester) { s.Name = name })
}

func (r *SemesterRepository) Delete(ctx context.Context, id string) error {
	return r.t.remove(id)
}

type SubjectRepository struct {
	t *table[models.Subject]
}

func NewSubjectRepository() repos.SubjectRepository {
	return &SubjectRepository{t: newTable[models.Subject]("subject")}
}

func (r *SubjectRepository) Create(ctx context.Context, sub *models.Subject) error {
	sub.ID = newID()
	sub.CreatedAt = r.t.now()
	r.t.insert(sub.ID, *sub)
	return nil
}

func (r *SubjectRepository) GetByID(ctx context.Context, id string) (*models.Subject, error) {
	s, err := r.t.get(id)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SubjectRepository) ListBySemester(ctx context.Context, semesterID string) ([]models.Subject, error) {
	return r.t.filter(
		func(s models.Subject) bool { return s.SemesterID == semesterID },
		func(s models.Subject) string { return s.Name },
		func(s models.Subject) string { return s.ID },
	), nil
}

func (r *SubjectRepository) Rename(ctx context.Context, id, name string) error {
	return r.t.update(id, func(s *models.Subject) { s.Name = name })
}

func (r *SubjectRepository) Delete(ctx context.Context, id string) error {
	return r.t.remove(id)
}
