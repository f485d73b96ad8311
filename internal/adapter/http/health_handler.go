package http

import (
	"net/http"
	"time"

	"github.com/YelzhanWeb/prepboard/internal/adapter/logger"
)

// Check reports whether a dependency is usable.
type Check func() error

type HealthHandler struct {
	checks  map[string]Check
	logger  logger.Logger
	started time.Time
}

func NewHealthHandler(checks map[string]Check, logger logger.Logger) *HealthHandler {
	return &HealthHandler{
		checks:  checks,
		logger:  logger,
		started: time.Now(),
	}
}

type HealthResponse struct {
	Status        string            `json:"status"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	Checks        map[string]string `json:"checks,omitempty"`
}

func (h *HealthHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.Health)
}

// Health answers 200 when every check passes and 503 otherwise.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
		Checks:        make(map[string]string, len(h.checks)),
	}

	code := http.StatusOK
	for name, check := range h.checks {
		if err := check(); err != nil {
			resp.Checks[name] = err.Error()
			resp.Status = "degraded"
			code = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}

	writeJSON(w, h.logger, code, resp)
}
