package handler

import (
	"log/slog"
	"net/http"
	"time"

	models "coursehub/internal/domain/models/portal"
	"coursehub/internal/handler/sse"
	"coursehub/internal/httputil"
	"coursehub/internal/service/navigation"
	"coursehub/internal/service/undo"
	"coursehub/internal/service/upload"
	"coursehub/internal/service/workspace"
)

// DashboardHandler serves a teacher's navigation state and pending delete
type DashboardHandler struct {
	workspaces *workspace.Registry
	sseConfig  *sse.Config
	logger     *slog.Logger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(workspaces *workspace.Registry, sseConfig *sse.Config, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{
		workspaces: workspaces,
		sseConfig:  sseConfig,
		logger:     logger,
	}
}

// DashboardResponse is everything the dashboard renders
type DashboardResponse struct {
	View    navigation.View `json:"view"`
	Pending undo.Status     `json:"pending"`
	Uploads upload.Snapshot `json:"uploads"`
}

type selectRequest struct {
	Level string `json:"level"`
	ID    string `json:"id"`
}

func dashboard(session *workspace.Session) DashboardResponse {
	return DashboardResponse{
		View:    session.Navigator.Snapshot(),
		Pending: session.Undo.Status(),
		Uploads: session.Uploads.Snapshot(),
	}
}

// Get returns the current dashboard state
// GET /api/dashboard
func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	session, ok := teacherSession(w, r, h.workspaces)
	if !ok {
		return
	}
	httputil.RespondJSON(w, http.StatusOK, dashboard(session))
}

// Select selects, or toggles off, one level of the drill-down. An empty id
// at the folder level shows the subject root again.
// POST /api/dashboard/select
func (h *DashboardHandler) Select(w http.ResponseWriter, r *http.Request) {
	session, ok := teacherSession(w, r, h.workspaces)
	if !ok {
		return
	}

	var req selectRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	level, err := models.ParseLevel(req.Level)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if level == models.LevelFolder && req.ID == "" {
		session.ClearFolder()
	} else if err := session.Select(r.Context(), level, req.ID); err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, dashboard(session))
}

// Rehydrate restores the selection from deep-link query parameters
// POST /api/dashboard/rehydrate?dept=&batch=&sem=&sub=&folder=
func (h *DashboardHandler) Rehydrate(w http.ResponseWriter, r *http.Request) {
	session, ok := teacherSession(w, r, h.workspaces)
	if !ok {
		return
	}

	if err := session.Rehydrate(r.Context(), r.URL.Query()); err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, dashboard(session))
}

// Undo cancels the pending delete
// POST /api/dashboard/undo
func (h *DashboardHandler) Undo(w http.ResponseWriter, r *http.Request) {
	session, ok := teacherSession(w, r, h.workspaces)
	if !ok {
		return
	}

	if !session.Undo.Undo() {
		httputil.RespondError(w, http.StatusNotFound, "nothing to undo")
		return
	}

	httputil.RespondJSON(w, http.StatusOK, dashboard(session))
}

// Pending returns the pending delete, if any
// GET /api/dashboard/pending
func (h *DashboardHandler) Pending(w http.ResponseWriter, r *http.Request) {
	session, ok := teacherSession(w, r, h.workspaces)
	if !ok {
		return
	}
	httputil.RespondJSON(w, http.StatusOK, session.Undo.Status())
}

// PendingStream streams the pending delete countdown via Server-Sent Events
// GET /api/dashboard/pending/stream
func (h *DashboardHandler) PendingStream(w http.ResponseWriter, r *http.Request) {
	session, ok := teacherSession(w, r, h.workspaces)
	if !ok {
		return
	}

	updates, unsubscribe := session.Undo.Subscribe()
	defer unsubscribe()

	stream, err := sse.NewWriter(w)
	if err != nil {
		httputil.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger := h.logger.With("teacher_id", session.TeacherID)
	logger.Debug("pending stream opened")
	defer logger.Debug("pending stream closed")

	if err := stream.WriteEvent("status", session.Undo.Status()); err != nil {
		return
	}

	keepAlive := sse.NewTickerKeepAlive(h.sseConfig.KeepAliveInterval)
	stopped := keepAlive.Start(stream, logger)
	defer keepAlive.Stop()

	var deadline <-chan time.Time
	if h.sseConfig.MaxDuration > 0 {
		timer := time.NewTimer(h.sseConfig.MaxDuration)
		defer timer.Stop()
		deadline = timer.C
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case <-stopped:
			return
		case <-deadline:
			return
		case status, ok := <-updates:
			if !ok {
				return
			}
			if err := stream.WriteEvent(string(status.Event), status); err != nil {
				logger.Debug("pending stream write failed", "error", err)
				return
			}
		}
	}
}
