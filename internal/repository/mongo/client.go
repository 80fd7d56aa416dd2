// Package mongo stores the hierarchy in MongoDB, one collection per entity.
// Selected with HIERARCHY_BACKEND=mongo.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"coursehub/internal/domain"
	repos "coursehub/internal/domain/repositories/portal"
)

const connectTimeout = 10 * time.Second

// Collection names.
const (
	DepartmentsCollection = "departments"
	BatchesCollection     = "batches"
	SemestersCollection   = "semesters"
	SubjectsCollection    = "subjects"
	FoldersCollection     = "folders"
	NotesCollection       = "notes"
)

// Connect opens a client and verifies the primary is reachable.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

// NewRepositories wires every hierarchy repository to one database.
func NewRepositories(db *mongo.Database, logger *slog.Logger) *repos.Repositories {
	return &repos.Repositories{
		Departments: NewDepartmentRepository(db, logger),
		Batches:     NewBatchRepository(db, logger),
		Semesters:   NewSemesterRepository(db, logger),
		Subjects:    NewSubjectRepository(db, logger),
		Folders:     NewFolderRepository(db, logger),
		Notes:       NewNoteRepository(db, logger),
	}
}

// EnsureIndexes creates the indexes the list and search queries rely on.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	specs := map[string][]mongo.IndexModel{
		BatchesCollection:   {{Keys: bson.D{{Key: "departmentId", Value: 1}, {Key: "name", Value: 1}}}},
		SemestersCollection: {{Keys: bson.D{{Key: "batchId", Value: 1}, {Key: "name", Value: 1}}}},
		SubjectsCollection:  {{Keys: bson.D{{Key: "semesterId", Value: 1}, {Key: "name", Value: 1}}}},
		FoldersCollection: {{Keys: bson.D{
			{Key: "semesterId", Value: 1}, {Key: "subjectId", Value: 1}, {Key: "name", Value: 1},
		}}},
		NotesCollection: {
			{Keys: bson.D{{Key: "semesterId", Value: 1}, {Key: "subjectId", Value: 1}}},
			{Keys: bson.D{{Key: "departmentId", Value: 1}, {Key: "title", Value: 1}}},
		},
	}
	for name, models := range specs {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	return nil
}

// collection wraps the CRUD every entity shares.
type collection[T any] struct {
	coll   *mongo.Collection
	kind   string
	sortBy string
	logger *slog.Logger
}

func newCollection[T any](db *mongo.Database, name, kind, sortBy string, logger *slog.Logger) collection[T] {
	return collection[T]{
		coll:   db.Collection(name),
		kind:   kind,
		sortBy: sortBy,
		logger: logger.With("collection", name),
	}
}

func newID() string {
	return uuid.NewString()
}

func (c collection[T]) insert(ctx context.Context, doc *T) error {
	if _, err := c.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("create %s: %w", c.kind, err)
	}
	return nil
}

func (c collection[T]) get(ctx context.Context, id string) (*T, error) {
	var doc T
	err := c.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%s %s: %w", c.kind, id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get %s: %w", c.kind, err)
	}
	return &doc, nil
}

func (c collection[T]) find(ctx context.Context, filter bson.M) ([]T, error) {
	opts := options.Find().SetSort(bson.D{{Key: c.sortBy, Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := c.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", c.kind, err)
	}
	defer cursor.Close(ctx)

	docs := make([]T, 0)
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", c.kind, err)
	}
	return docs, nil
}

func (c collection[T]) set(ctx context.Context, id string, fields bson.M) error {
	result, err := c.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("update %s: %w", c.kind, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%s %s: %w", c.kind, id, domain.ErrNotFound)
	}
	return nil
}

func (c collection[T]) remove(ctx context.Context, id string) error {
	result, err := c.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete %s: %w", c.kind, err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("%s %s: %w", c.kind, id, domain.ErrNotFound)
	}
	c.logger.Debug("document deleted", "kind", c.kind, "id", id)
	return nil
}
