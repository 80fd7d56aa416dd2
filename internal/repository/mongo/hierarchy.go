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

type DepartmentRepository struct {
	c collection[models.Department]
}

func NewDepartmentRepository(db *mongo.Database, logger *slog.Logger) repos.DepartmentRepository {
	return &DepartmentRepository{c: newCollection[models.Department](db, DepartmentsCollection, "department", "name", logger)}
}

func (r *DepartmentRepository) Create(ctx context.Context, dept *models.Department) error {
	dept.ID = newID()
	dept.CreatedAt = time.Now().UTC()
	return r.c.insert(ctx, dept)
}

func (r *DepartmentRepository) GetByID(ctx context.Context, id string) (*models.Department, error) {
	return r.c.get(ctx, id)
}

func (r *DepartmentRepository) List(ctx context.Context) ([]models.Department, error) {
	return r.c.find(ctx, bson.M{})
}

func (r *DepartmentRepository) Rename(ctx context.Context, id, name string) error {
	return r.c.set(ctx, id, bson.M{"name": name})
}

func (r *DepartmentRepository) Delete(ctx context.Context, id string) error {
	return r.c.remove(ctx, id)
}

type BatchRepository struct {
	c collection[models.Batch]
}

func NewBatchRepository(db *mongo.Database, logger *slog.Logger) repos.BatchRepository {
	return &BatchRepository{c: newCollection[models.Batch](db, BatchesCollection, "batch", "name", logger)}
}

func (r *BatchRepository) Create(ctx context.Context, batch *models.Batch) error {
	batch.ID = newID()
	batch.CreatedAt = time.Now().UTC()
	return r.c.insert(ctx, batch)
}

func (r *BatchRepository) GetByID(ctx context.Context, id string) (*models.Batch, error) {
	return r.c.get(ctx, id)
}

func (r *BatchRepository) ListByDepartment(ctx context.Context, departmentID string) ([]models.Batch, error) {
	return r.c.find(ctx, bson.M{"departmentId": departmentID})
}

func (r *BatchRepository) Rename(ctx context.Context, id, name string) error {
	return r.c.set(ctx, id, bson.M{"name": name})
}

func (r *BatchRepository) Delete(ctx context.Context, id string) error {
	return r.c.remove(ctx, id)
}

type SemesterRepository struct {
	c collection[models.Semester]
}

func NewSemesterRepository(db *mongo.Database, logger *slog.Logger) repos.SemesterRepository {
	return &SemesterRepository{c: newCollection[models.Semester](db, SemestersCollection, "semester", "name", logger)}
}

func (r *SemesterRepository) Create(ctx context.Context, sem *models.Semester) error {
	sem.ID = newID()
	sem.CreatedAt = time.Now().UTC()
	return r.c.insert(ctx, sem)
}

func (r *SemesterRepository) GetByID(ctx context.Context, id string) (*models.Semester, error) {
	return r.c.get(ctx, id)
}

func (r *SemesterRepository) ListByBatch(ctx context.Context, batchID string) ([]models.Semester, error) {
	return r.c.find(ctx, bson.M{"batchId": batchID})
}

func (r *SemesterRepository) Rename(ctx context.Context, id, name string) error {
	return r.c.set(ctx, id, bson.M{"name": name})
}

func (r *SemesterRepository) Delete(ctx context.Context, id string) error {
	return r.c.remove(ctx, id)
}

type SubjectRepository struct {
	c collection[models.Subject]
}

func NewSubjectRepository(db *mongo.Database, logger *slog.Logger) repos.SubjectRepository {
	return &SubjectRepository{c: newCollection[models.Subject](db, SubjectsCollection, "subject", "name", logger)}
}

func (r *SubjectRepository) Create(ctx context.Context, sub *models.Subject) error {
	sub.ID = newID()
	sub.CreatedAt = time.Now().UTC()
	return r.c.insert(ctx, sub)
}

func (r *SubjectRepository) GetByID(ctx context.Context, id string) (*models.Subject, error) {
	return r.c.get(ctx, id)
}

func (r *SubjectRepository) ListBySemester(ctx context.Context, semesterID string) ([]models.Subject, error) {
	return r.c.find(ctx, bson.M{"semesterId": semesterID})
}

func (r *SubjectRepository) Rename(ctx context.Context, id, name string) error {
	return r.c.set(ctx, id, bson.M{"name": name})
}

func (r *SubjectRepository) Delete(ctx context.Context, id string) error {
	return r.c.remove(ctx, id)
}
