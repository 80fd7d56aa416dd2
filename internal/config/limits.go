package config

import "time"

const (
	// MaxNameLength is the maximum length for department, batch, semester,
	// subject and folder names.
	// Limited to 255 to fit in PostgreSQL VARCHAR(255) and provide
	// reasonable UX (names should be short and descriptive).
	MaxNameLength = 255

	// MaxNoteTitleLength is the maximum length for note titles.
	// Titles default to the uploaded filename, which browsers cap well below this.
	MaxNoteTitleLength = 255

	// MaxUploadFileSize is the largest single file accepted by the upload
	// orchestrator (50 MiB).
	MaxUploadFileSize int64 = 50 << 20

	// MaxMultipartMemory is how much of a multipart upload request is kept in
	// memory before spilling to temporary files.
	MaxMultipartMemory int64 = 32 << 20

	// MaxUploadRequestSize bounds a whole multipart upload request.
	MaxUploadRequestSize int64 = 1 << 30

	// MinPasswordLength matches the identity provider's default policy.
	MinPasswordLength = 6
)

const (
	// DefaultDeleteGracePeriod is how long a deferred delete stays undoable.
	DefaultDeleteGracePeriod = 30 * time.Second

	// DefaultUploadConfirmDelay is how long a fully successful upload queue
	// stays visible before it is cleared.
	DefaultUploadConfirmDelay = 3 * time.Second

	// DefaultCommitTimeout bounds a single deferred-delete commit.
	DefaultCommitTimeout = 15 * time.Second

	// UploadReadTimeout replaces the server read timeout for the body of an
	// upload request.
	UploadReadTimeout = 30 * time.Minute
)
