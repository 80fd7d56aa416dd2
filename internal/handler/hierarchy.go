package handler

import (
	"log/slog"
	"net/http"

	models "coursehub/internal/domain/models/portal"
	services "coursehub/internal/domain/services/portal"
	"coursehub/internal/httputil"
	"coursehub/internal/service/workspace"
)

// HierarchyHandler handles the dashboard's create, rename and delete requests
type HierarchyHandler struct {
	hierarchy  services.HierarchyService
	workspaces *workspace.Registry
	logger     *slog.Logger
}

// NewHierarchyHandler creates a new hierarchy handler
func NewHierarchyHandler(hierarchy services.HierarchyService, workspaces *workspace.Registry, logger *slog.Logger) *HierarchyHandler {
	return &HierarchyHandler{
		hierarchy:  hierarchy,
		workspaces: workspaces,
		logger:     logger,
	}
}

// createRequest carries the parent ids the kind needs; the rest are ignored
type createRequest struct {
	Name         string `json:"name"`
	DepartmentID string `json:"department_id"`
	BatchID      string `json:"batch_id"`
	SemesterID   string `json:"semester_id"`
	SubjectID    string `json:"subject_id"`
}

type renameRequest struct {
	Name string `json:"name"`
}

// collection parses the {collection} path segment
func collection(w http.ResponseWriter, r *http.Request) (models.Kind, bool) {
	kind, err := models.ParseCollection(r.PathValue("collection"))
	if err != nil {
		httputil.RespondError(w, http.StatusNotFound, err.Error())
		return "", false
	}
	return kind, true
}

// Create creates a department, batch, semester, subject or folder
// POST /api/{collection}
func (h *HierarchyHandler) Create(w http.ResponseWriter, r *http.Request) {
	kind, ok := collection(w, r)
	if !ok {
		return
	}
	session, ok := teacherSession(w, r, h.workspaces)
	if !ok {
		return
	}

	var req createRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx := r.Context()
	var (
		created interface{}
		err     error
	)
	switch kind {
	case models.KindDepartment:
		created, err = h.hierarchy.CreateDepartment(ctx, &services.CreateDepartmentRequest{Name: req.Name})
	case models.KindBatch:
		created, err = h.hierarchy.CreateBatch(ctx, &services.CreateBatchRequest{DepartmentID: req.DepartmentID, Name: req.Name})
	case models.KindSemester:
		created, err = h.hierarchy.CreateSemester(ctx, &services.CreateSemesterRequest{BatchID: req.BatchID, Name: req.Name})
	case models.KindSubject:
		created, err = h.hierarchy.CreateSubject(ctx, &services.CreateSubjectRequest{SemesterID: req.SemesterID, Name: req.Name})
	case models.KindFolder:
		created, err = h.hierarchy.CreateFolder(ctx, &services.CreateFolderRequest{
			Scope: models.Scope{
				DepartmentID: req.DepartmentID,
				BatchID:      req.BatchID,
				SemesterID:   req.SemesterID,
				SubjectID:    req.SubjectID,
			},
			Name:      req.Name,
			CreatedBy: session.TeacherID,
		})
	default:
		httputil.RespondError(w, http.StatusMethodNotAllowed, "notes are created by uploading files")
		return
	}
	if err != nil {
		handleError(w, err)
		return
	}

	h.refresh(r, session)
	httputil.RespondJSON(w, http.StatusCreated, created)
}

// Rename renames a department, batch, semester, subject or folder
// PATCH /api/{collection}/{id}
func (h *HierarchyHandler) Rename(w http.ResponseWriter, r *http.Request) {
	kind, ok := collection(w, r)
	if !ok {
		return
	}
	id, ok := PathParam(w, r, "id", "ID")
	if !ok {
		return
	}
	session, ok := teacherSession(w, r, h.workspaces)
	if !ok {
		return
	}

	var req renameRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.hierarchy.Rename(r.Context(), kind, id, req.Name); err != nil {
		handleError(w, err)
		return
	}

	h.refresh(r, session)
	w.WriteHeader(http.StatusNoContent)
}

// UpdateNote renames a note and/or moves it to another folder of its subject
// PATCH /api/notes/{id}
func (h *HierarchyHandler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Note ID")
	if !ok {
		return
	}
	session, ok := teacherSession(w, r, h.workspaces)
	if !ok {
		return
	}

	var body updateNoteBody
	if err := httputil.ParseJSON(w, r, &body); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	note, err := h.hierarchy.UpdateNote(r.Context(), id, body.toRequest())
	if err != nil {
		handleError(w, err)
		return
	}

	h.refresh(r, session)
	httputil.RespondJSON(w, http.StatusOK, note)
}

// updateNoteBody is the PATCH body. folder_id null or "" moves the note to
// the subject root; an absent folder_id leaves it where it is.
type updateNoteBody struct {
	Title    *string                 `json:"title"`
	FolderID httputil.OptionalString `json:"folder_id"`
}

func (b updateNoteBody) toRequest() *services.UpdateNoteRequest {
	return &services.UpdateNoteRequest{
		Title:    b.Title,
		FolderID: b.FolderID.Patch(""),
	}
}

// Delete hides the entity and schedules its deletion after the grace period
// DELETE /api/{collection}/{id}
func (h *HierarchyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	kind, ok := collection(w, r)
	if !ok {
		return
	}
	id, ok := PathParam(w, r, "id", "ID")
	if !ok {
		return
	}
	session, ok := teacherSession(w, r, h.workspaces)
	if !ok {
		return
	}

	status, err := session.Delete(r.Context(), kind, id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusAccepted, status)
}

// refresh reloads the teacher's lists after a write. A failure only leaves
// them stale.
func (h *HierarchyHandler) refresh(r *http.Request, session *workspace.Session) {
	if err := session.Refresh(r.Context()); err != nil {
		h.logger.Warn("workspace refresh failed", "teacher_id", session.TeacherID, "error", err)
	}
}
