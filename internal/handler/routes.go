package handler

import "net/http"

// Handlers groups every HTTP handler the server exposes
type Handlers struct {
	Browse    *BrowseHandler
	Auth      *AuthHandler
	Hierarchy *HierarchyHandler
	Dashboard *DashboardHandler
	Upload    *UploadHandler
}

// NewRouter registers the routes (Go 1.22+ enhanced patterns). Teacher
// routes are wrapped with requireAuth.
func NewRouter(h Handlers, requireAuth func(http.Handler) http.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	teacher := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, requireAuth(fn))
	}

	// Health check
	mux.HandleFunc("GET /health", HealthCheck)

	// Public browsing
	mux.HandleFunc("GET /api/browse", h.Browse.Browse)
	mux.HandleFunc("GET /api/search", h.Browse.Search)
	mux.HandleFunc("GET /api/notes/{id}/preview", h.Browse.Preview)

	// Accounts
	mux.HandleFunc("POST /api/auth/signin", h.Auth.SignIn)
	mux.HandleFunc("POST /api/auth/signup", h.Auth.SignUp)
	mux.HandleFunc("POST /api/auth/verify", h.Auth.SendVerification)
	mux.HandleFunc("POST /api/auth/reset", h.Auth.ResetPassword)
	teacher("GET /api/auth/me", h.Auth.Me)

	// Dashboard navigation and deferred deletes
	teacher("GET /api/dashboard", h.Dashboard.Get)
	teacher("POST /api/dashboard/select", h.Dashboard.Select)
	teacher("POST /api/dashboard/rehydrate", h.Dashboard.Rehydrate)
	teacher("POST /api/dashboard/undo", h.Dashboard.Undo)
	teacher("GET /api/dashboard/pending", h.Dashboard.Pending)
	teacher("GET /api/dashboard/pending/stream", h.Dashboard.PendingStream) // SSE countdown

	// Hierarchy writes
	teacher("POST /api/{collection}", h.Hierarchy.Create)
	teacher("PATCH /api/notes/{id}", h.Hierarchy.UpdateNote) // Must be more specific than {collection}
	teacher("PATCH /api/{collection}/{id}", h.Hierarchy.Rename)
	teacher("DELETE /api/{collection}/{id}", h.Hierarchy.Delete)

	// Uploads
	teacher("POST /api/uploads", h.Upload.Upload)
	teacher("GET /api/uploads", h.Upload.List)
	teacher("POST /api/uploads/ack", h.Upload.Acknowledge)

	return mux
}
