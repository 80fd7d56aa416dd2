package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"coursehub/internal/auth"
	"coursehub/internal/config"
	models "coursehub/internal/domain/models/portal"
	services "coursehub/internal/domain/services/portal"
	"coursehub/internal/repository"
	"coursehub/internal/repository/postgres"
	"coursehub/internal/service/portal"
	"coursehub/internal/service/upload"
	"coursehub/internal/service/upload/mediatypes"
	"coursehub/internal/storage"
)

func main() {
	// Parse command-line flags
	migrate := flag.Bool("migrate", false, "Apply the embedded schema before seeding (postgres only)")
	dropTables := flag.Bool("drop-tables", false, "Drop all hierarchy tables first (postgres only)")
	schemaOnly := flag.Bool("schema-only", false, "Only set up schema, don't seed the hierarchy")
	withNotes := flag.Bool("with-notes", false, "Upload sample notes to the configured blob store")
	teacherEmail := flag.String("teacher-email", "", "Provision a verified teacher account with this email")
	teacherPassword := flag.String("teacher-password", "", "Password for --teacher-email")
	flag.Parse()

	// Load .env file
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// SAFETY: Prevent destructive operations in production
	if cfg.Environment == "prod" && *dropTables {
		log.Fatalf("🚫 BLOCKED: Cannot run destructive operations (--drop-tables) in production environment")
	}

	logger, logCloser, err := config.NewLogger(cfg, "seed")
	if err != nil {
		log.Fatalf("Failed to setup logging: %v", err)
	}
	defer func() { _ = logCloser.Close() }()

	log.Printf("🌱 Seeding %s backend (environment: %s, prefix: %s)", cfg.HierarchyBackend, cfg.Environment, cfg.TablePrefix)

	ctx := context.Background()
	backend, err := repository.SetupBackend(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to open hierarchy store: %v", err)
	}
	defer func() { _ = backend.Close(ctx) }()

	if backend.Pool != nil {
		if *dropTables {
			log.Println("🗑️  Dropping all tables...")
			if err := dropAllTables(ctx, backend.Pool, postgres.NewTableNames(cfg.TablePrefix)); err != nil {
				log.Fatalf("Failed to drop tables: %v", err)
			}
			log.Println("✅ Tables dropped")
		}
		if *migrate || *dropTables {
			log.Println("📋 Ensuring database schema is up to date...")
			if err := postgres.Migrate(ctx, backend.Pool, cfg.TablePrefix); err != nil {
				log.Fatalf("Failed to run schema: %v", err)
			}
			log.Println("✅ Schema ready")
		}
	} else if *migrate || *dropTables {
		log.Printf("⚠️  --migrate and --drop-tables only apply to postgres; ignored for %s", backend.Name)
	}

	if *schemaOnly {
		log.Println("✅ Schema setup complete (schema-only mode)")
		return
	}

	uploader := "seed"
	if *teacherEmail != "" {
		if cfg.SupabaseKey == "" {
			log.Fatalf("SUPABASE_KEY is required to provision a teacher")
		}
		admin := auth.NewAdminClient(cfg.SupabaseURL, cfg.SupabaseKey)
		id, err := admin.EnsureTeacher(ctx, "Seed Teacher", *teacherEmail, *teacherPassword)
		if err != nil {
			log.Fatalf("Failed to provision teacher: %v", err)
		}
		uploader = id
		log.Printf("👤 Teacher ready: %s (ID: %s)", *teacherEmail, id)
	}

	blobs, err := openBlobs(ctx, cfg, *withNotes, logger)
	if err != nil {
		log.Fatalf("Failed to open blob store: %v", err)
	}
	defer func() { _ = blobs.Close() }()

	hierarchy := portal.NewHierarchyService(backend.Repositories, blobs, logger)

	var target upload.Target
	err = backend.InTx(ctx, func(ctx context.Context) error {
		var err error
		target, err = seedHierarchy(ctx, hierarchy, uploader)
		return err
	})
	if err != nil {
		log.Fatalf("Failed to seed hierarchy: %v", err)
	}
	log.Printf("✅ Created hierarchy: dept=%s batch=%s sem=%s sub=%s",
		target.DepartmentID, target.BatchID, target.SemesterID, target.SubjectID)

	if !*withNotes {
		log.Println("🎉 Seeding complete!")
		return
	}

	registry, err := mediatypes.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to load media type registry: %v", err)
	}
	queue := upload.NewQueue(backend.Repositories.Folders, backend.Repositories.Notes, blobs, registry, upload.Options{
		MaxFileSize: config.MaxUploadFileSize,
	}, logger)
	defer queue.Close()

	result, err := queue.Submit(ctx, upload.Request{
		Target:   target,
		Uploader: uploader,
		Files:    sampleNotes(),
	})
	if err != nil {
		log.Fatalf("Failed to upload sample notes: %v", err)
	}
	for _, e := range result.Entries {
		if e.Status == upload.StatusSuccess {
			log.Printf("✅ Uploaded %s (note %s)", e.Name, e.NoteID)
		} else {
			log.Printf("❌ Failed to upload %s: %s", e.Name, e.Error)
		}
	}

	log.Println("🎉 Seeding complete!")
}

// openBlobs returns the configured store when notes are uploaded and an
// unused in-memory store otherwise, so seeding the hierarchy needs no
// bucket credentials.
func openBlobs(ctx context.Context, cfg *config.Config, real bool, logger *slog.Logger) (storage.BlobStore, error) {
	if real {
		return storage.SetupBlobStore(ctx, cfg, logger)
	}
	memCfg := *cfg
	memCfg.BlobBackend = "memory"
	return storage.SetupBlobStore(ctx, &memCfg, logger)
}

// seedHierarchy creates CS → 2024 → Semester 3 → DBMS with one folder and
// one general folder.
func seedHierarchy(ctx context.Context, hierarchy services.HierarchyService, uploader string) (upload.Target, error) {
	dept, err := hierarchy.CreateDepartment(ctx, &services.CreateDepartmentRequest{Name: "Computer Science"})
	if err != nil {
		return upload.Target{}, fmt.Errorf("department: %w", err)
	}
	batch, err := hierarchy.CreateBatch(ctx, &services.CreateBatchRequest{DepartmentID: dept.ID, Name: "2024"})
	if err != nil {
		return upload.Target{}, fmt.Errorf("batch: %w", err)
	}
	sem, err := hierarchy.CreateSemester(ctx, &services.CreateSemesterRequest{BatchID: batch.ID, Name: "Semester 3"})
	if err != nil {
		return upload.Target{}, fmt.Errorf("semester: %w", err)
	}
	sub, err := hierarchy.CreateSubject(ctx, &services.CreateSubjectRequest{SemesterID: sem.ID, Name: "DBMS"})
	if err != nil {
		return upload.Target{}, fmt.Errorf("subject: %w", err)
	}

	scope := models.Scope{DepartmentID: dept.ID, BatchID: batch.ID, SemesterID: sem.ID, SubjectID: sub.ID}
	if _, err := hierarchy.CreateFolder(ctx, &services.CreateFolderRequest{
		Scope: scope, Name: "Lecture Slides", CreatedBy: uploader,
	}); err != nil {
		return upload.Target{}, fmt.Errorf("folder: %w", err)
	}

	general := scope
	general.SubjectID = models.GeneralSubjectID
	if _, err := hierarchy.CreateFolder(ctx, &services.CreateFolderRequest{
		Scope: general, Name: "Timetables", CreatedBy: uploader,
	}); err != nil {
		return upload.Target{}, fmt.Errorf("general folder: %w", err)
	}

	return upload.Target{
		DepartmentID: dept.ID,
		BatchID:      batch.ID,
		SemesterID:   sem.ID,
		SubjectID:    sub.ID,
	}, nil
}

// sampleNotes returns a root note and one note filed into the existing
// "Lecture Slides" folder through its relative path.
func sampleNotes() []upload.File {
	return []upload.File{
		upload.BytesFile("syllabus.txt", "", "text/plain",
			[]byte(strings.TrimSpace(`
DBMS syllabus
Unit 1: Relational model
Unit 2: SQL
Unit 3: Normalization
Unit 4: Transactions and concurrency
`))),
		upload.BytesFile("01-relational-model.txt", "Lecture Slides/01-relational-model.txt", "text/plain",
			[]byte("Relations, tuples, attributes and keys.")),
	}
}

// dropAllTables drops every hierarchy table for the prefix.
func dropAllTables(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames) error {
	all := tables.All()
	for i := len(all) - 1; i >= 0; i-- {
		if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS "+all[i]+" CASCADE"); err != nil {
			return fmt.Errorf("drop %s: %w", all[i], err)
		}
	}
	return nil
}
