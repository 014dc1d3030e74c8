package chi

import (
	"net/http"
	"time"

	healthuc "github.com/abdul7867/SearchAi/internal/usecase/health"
	"github.com/abdul7867/SearchAi/internal/version"
)

type bannerResponse struct {
	Status    string            `json:"status"`
	Message   string            `json:"message"`
	Version   string            `json:"version"`
	Commit    string            `json:"commit"`
	Timestamp time.Time         `json:"timestamp"`
	Endpoints map[string]string `json:"endpoints"`
}

type healthResponse struct {
	Status  string            `json:"status"`
	Checks  map[string]string `json:"checks"`
	Version string            `json:"version"`
}

// Banner handles GET /.
func (s *Server) Banner(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, bannerResponse{
		Status:    "success",
		Message:   "SearchAi API is running",
		Version:   version.Version,
		Commit:    version.Commit,
		Timestamp: time.Now().UTC(),
		Endpoints: map[string]string{
			"health":      "/health",
			"metrics":     "/metrics",
			"search":      "/search",
			"history":     "/history",
			"collections": "/collections",
		},
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, healthResponse{
		Status:  string(report.Status),
		Checks:  checks,
		Version: version.Version,
	})
}
