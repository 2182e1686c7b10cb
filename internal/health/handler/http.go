package handler

import (
	"context"
	"net/http"
	"time"

	"rocr/backend/internal/platform/httpx"
)

// Pinger is used to check database connectivity (e.g. *sql.DB).
type Pinger interface {
	PingContext(ctx context.Context) error
}

// CheckFunc reports whether an optional dependency such as Redis is reachable.
type CheckFunc func(ctx context.Context) error

// Handler serves the health endpoints. A nil db is reported as connected so the
// in-memory development mode stays healthy.
type Handler struct {
	db      Pinger
	checks  map[string]CheckFunc
	timeout time.Duration
	now     func() time.Time
}

// NewHandler returns a health Handler. checks are extra named dependencies reported under "services".
func NewHandler(db Pinger, checks map[string]CheckFunc) *Handler {
	return &Handler{db: db, checks: checks, timeout: 2 * time.Second, now: time.Now}
}

type healthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]string `json:"services"`
	Error     string            `json:"error,omitempty"`
}

// Health handles GET /health. Any failing dependency makes the response 503.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	resp := healthResponse{Status: "healthy", Timestamp: h.now().UTC(), Services: map[string]string{}}
	status := http.StatusOK
	if err := h.pingDB(ctx); err != nil {
		resp.Services["database"] = "disconnected"
		resp.Error = err.Error()
		status = http.StatusServiceUnavailable
	} else {
		resp.Services["database"] = "connected"
	}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			resp.Services[name] = "disconnected"
			if resp.Error == "" {
				resp.Error = err.Error()
			}
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Services[name] = "connected"
	}
	if status != http.StatusOK {
		resp.Status = "unhealthy"
	}
	httpx.JSON(w, status, resp)
}

// Ready handles GET /health/ready.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()
	if err := h.pingDB(ctx); err != nil {
		httpx.JSON(w, http.StatusServiceUnavailable, map[string]bool{"ready": false})
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"ready": true})
}

// Live handles GET /health/live.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]bool{"alive": true})
}

func (h *Handler) pingDB(ctx context.Context) error {
	if h.db == nil {
		return nil
	}
	return h.db.PingContext(ctx)
}
