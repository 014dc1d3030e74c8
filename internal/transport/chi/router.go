package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/abdul7867/SearchAi/internal/metrics"
)

// RouterConfig carries the cross-cutting HTTP settings.
type RouterConfig struct {
	CORS       CORSConfig
	Limiter    Limiter // nil disables rate limiting
	TrustProxy bool
}

// NewRouter mounts every route of the API on a chi router.
// /, /health and /metrics are public and never rate limited.
func NewRouter(s *Server, rc RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(s.logger, rc.TrustProxy))
	r.Use(CORS(rc.CORS))
	r.Use(metrics.Middleware())

	r.NotFound(notFound)
	r.MethodNotAllowed(methodNotAllowed)

	r.Get("/", s.Banner)
	r.Get("/health", s.HealthCheck)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		if rc.Limiter != nil {
			r.Use(RateLimit(rc.Limiter, rc.TrustProxy, s.logger))
		}

		r.With(s.auth.OptionalAuth).Post("/search", s.ExecuteSearch)

		r.Group(func(r chi.Router) {
			r.Use(s.auth.RequireAuth)

			r.Get("/search/{id}", s.GetSearch)
			r.Delete("/search/{id}", s.DeleteSearch)
			r.Put("/search/{id}/bookmark", s.ToggleBookmark)

			r.Get("/history", s.ListHistory)
			r.Delete("/history", s.ClearHistory)
			r.Get("/history/bookmarked", s.ListBookmarked)
			r.Delete("/history/cleanup", s.CleanupHistory)

			r.Get("/collections", s.ListCollections)
			r.Post("/collections", s.CreateCollection)
			r.Get("/collections/{id}", s.GetCollection)
			r.Put("/collections/{id}", s.UpdateCollection)
			r.Delete("/collections/{id}", s.DeleteCollection)
			r.Post("/collections/{id}/searches", s.AddSearchToCollection)
			r.Delete("/collections/{id}/searches/{searchId}", s.RemoveSearchFromCollection)
		})
	})
	return r
}
