package middleware

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"rocr/backend/internal/audit"
)

// Audit records one audit event per mutating request made by an authenticated user.
// Action and resource come from the matched chi route; the response status goes into metadata.
// Reads are not audited.
func Audit(logger audit.AuditLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			u := UserFromContext(r.Context())
			if u == nil {
				return
			}
			pattern := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				pattern = rctx.RoutePattern()
			}
			ar := audit.ParseRoute(r.Method, pattern)
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			meta := fmt.Sprintf(`{"path":%q,"status":%d}`, r.URL.Path, status)
			logger.LogEvent(r.Context(), u.ID, ar.Action, ar.Resource, meta)
		})
	}
}
