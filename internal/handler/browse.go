package handler

import (
	"log/slog"
	"net/http"

	services "coursehub/internal/domain/services/portal"
	"coursehub/internal/httputil"
	"coursehub/internal/service/navigation"
	"coursehub/internal/service/search"
)

// BrowseHandler serves the public, read-only student views
type BrowseHandler struct {
	hierarchy services.HierarchyService
	search    *search.Service
	logger    *slog.Logger
}

// NewBrowseHandler creates a new browse handler
func NewBrowseHandler(hierarchy services.HierarchyService, searchService *search.Service, logger *slog.Logger) *BrowseHandler {
	return &BrowseHandler{
		hierarchy: hierarchy,
		search:    searchService,
		logger:    logger,
	}
}

// Browse resolves a deep link and returns the lists along it
// GET /api/browse?dept=&batch=&sem=&sub=&folder=
func (h *BrowseHandler) Browse(w http.ResponseWriter, r *http.Request) {
	nav := navigation.New(h.hierarchy, h.logger)
	if err := nav.Rehydrate(r.Context(), r.URL.Query()); err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, nav.Snapshot())
}

// Search finds notes in a department whose title starts with q
// GET /api/search?dept=&q=
func (h *BrowseHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	notes, err := h.search.Search(r.Context(), query.Get("dept"), query.Get("q"))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"query":   query.Get("q"),
		"results": notes,
	})
}

// Preview redirects to the stored file of a note
// GET /api/notes/{id}/preview
func (h *BrowseHandler) Preview(w http.ResponseWriter, r *http.Request) {
	id, ok := PathParam(w, r, "id", "Note ID")
	if !ok {
		return
	}

	note, err := h.hierarchy.GetNote(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}
	if note.FileURL == "" {
		httputil.RespondError(w, http.StatusNotFound, "note has no file")
		return
	}

	http.Redirect(w, r, note.FileURL, http.StatusFound)
}
