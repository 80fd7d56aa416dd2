package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"coursehub/internal/httputil"
)

// Recovery turns a handler panic into a 500 problem response. When the
// response has already started, e.g. a countdown stream, the connection is
// aborted instead of writing a second body.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sw := &statusRecorder{ResponseWriter: w}
			defer func() {
				v := recover()
				if v == nil {
					return
				}
				if v == http.ErrAbortHandler {
					panic(v)
				}

				logger.Error("panic recovered",
					"method", r.Method,
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
					"response_started", sw.status != 0,
					"error", v,
					"stack", string(debug.Stack()),
				)
				if sw.status != 0 {
					panic(http.ErrAbortHandler)
				}
				httputil.RespondErrorWithExtras(w, http.StatusInternalServerError, "internal server error",
					map[string]interface{}{"code": "internal"})
			}()

			next.ServeHTTP(sw, r)
		})
	}
}
