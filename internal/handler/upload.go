package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"coursehub/internal/config"
	"coursehub/internal/httputil"
	"coursehub/internal/service/upload"
	"coursehub/internal/service/workspace"
)

// UploadHandler handles multipart note uploads
type UploadHandler struct {
	workspaces  *workspace.Registry
	readTimeout time.Duration
	logger      *slog.Logger
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(workspaces *workspace.Registry, logger *slog.Logger) *UploadHandler {
	return &UploadHandler{
		workspaces:  workspaces,
		readTimeout: config.UploadReadTimeout,
		logger:      logger,
	}
}

// Upload files a batch of notes under a subject. Form fields: dept, batch,
// sem, sub (optional, defaults to general), folder (optional), files,
// paths, whose n-th value is the relative path of the n-th file, and
// expand_archives to upload the contents of zip files.
// POST /api/uploads
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	session, ok := teacherSession(w, r, h.workspaces)
	if !ok {
		return
	}

	// The server read timeout is sized for small JSON bodies.
	if err := http.NewResponseController(w).SetReadDeadline(time.Now().Add(h.readTimeout)); err != nil {
		h.logger.Debug("could not extend upload read deadline", "error", err)
	}

	r.Body = http.MaxBytesReader(w, r.Body, config.MaxUploadRequestSize)
	if err := r.ParseMultipartForm(config.MaxMultipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.RespondError(w, http.StatusRequestEntityTooLarge, "upload request is too large")
			return
		}
		httputil.RespondError(w, http.StatusBadRequest, "Invalid multipart body")
		return
	}
	defer r.MultipartForm.RemoveAll()

	form := r.MultipartForm
	headers := form.File["files"]
	if len(headers) == 0 {
		httputil.RespondError(w, http.StatusBadRequest, "no files in request")
		return
	}
	paths := form.Value["paths"]

	files := make([]upload.File, len(headers))
	for i, fh := range headers {
		var rel string
		if i < len(paths) {
			rel = paths[i]
		}
		files[i] = upload.MultipartFile(fh, rel)
	}

	target := upload.Target{
		DepartmentID: r.FormValue("dept"),
		BatchID:      r.FormValue("batch"),
		SemesterID:   r.FormValue("sem"),
		SubjectID:    r.FormValue("sub"),
	}
	if folder := r.FormValue("folder"); folder != "" {
		target.FolderID = &folder
	}

	expand, _ := strconv.ParseBool(r.FormValue("expand_archives"))

	result, err := session.Uploads.Submit(r.Context(), upload.Request{
		Target:         target,
		Uploader:       session.TeacherID,
		Files:          files,
		ExpandArchives: expand,
	})
	if err != nil {
		handleError(w, err)
		return
	}

	if err := session.Refresh(r.Context()); err != nil {
		h.logger.Warn("workspace refresh failed", "teacher_id", session.TeacherID, "error", err)
	}

	status := http.StatusOK
	if result.Failed > 0 {
		status = http.StatusMultiStatus
	}
	httputil.RespondJSON(w, status, result)
}

// List returns the teacher's upload queue
// GET /api/uploads
func (h *UploadHandler) List(w http.ResponseWriter, r *http.Request) {
	session, ok := teacherSession(w, r, h.workspaces)
	if !ok {
		return
	}
	httputil.RespondJSON(w, http.StatusOK, session.Uploads.Snapshot())
}

// Acknowledge clears a queue held back by failures
// POST /api/uploads/ack
func (h *UploadHandler) Acknowledge(w http.ResponseWriter, r *http.Request) {
	session, ok := teacherSession(w, r, h.workspaces)
	if !ok {
		return
	}
	session.Uploads.Acknowledge()
	httputil.RespondJSON(w, http.StatusOK, session.Uploads.Snapshot())
}
