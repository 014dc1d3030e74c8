package chi

import (
	"fmt"
	"net/http"

	historyuc "github.com/abdul7867/SearchAi/internal/usecase/history"
)

// ListHistory handles GET /history.
func (s *Server) ListHistory(w http.ResponseWriter, r *http.Request) {
	page, limit, err := pageQuery(r)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	q := historyuc.Query{
		Page:           page,
		Limit:          limit,
		Sort:           r.URL.Query().Get("sort"),
		BookmarkedOnly: r.URL.Query().Get("bookmarked") == "true",
	}

	res, err := s.history.List(r.Context(), OwnerFromContext(r.Context()), q)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeData(w, http.StatusOK, searchesPage{Searches: summariesToDTO(res.Searches), Pagination: res.Pagination})
}

// ListBookmarked handles GET /history/bookmarked.
func (s *Server) ListBookmarked(w http.ResponseWriter, r *http.Request) {
	page, limit, err := pageQuery(r)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	res, err := s.history.Bookmarked(r.Context(), OwnerFromContext(r.Context()), page, limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeData(w, http.StatusOK, searchesPage{Searches: summariesToDTO(res.Searches), Pagination: res.Pagination})
}

// ClearHistory handles DELETE /history.
func (s *Server) ClearHistory(w http.ResponseWriter, r *http.Request) {
	n, err := s.history.Clear(r.Context(), OwnerFromContext(r.Context()))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeMessage(w, "Search history cleared successfully", deletedDTO{Deleted: n})
}

// CleanupHistory handles DELETE /history/cleanup.
func (s *Server) CleanupHistory(w http.ResponseWriter, r *http.Request) {
	n, err := s.history.Cleanup(r.Context(), OwnerFromContext(r.Context()))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	msg := fmt.Sprintf("Cleaned up %d old search entries.", n)
	if n == 0 {
		msg = "No cleanup needed - search history is within limits."
	}
	writeMessage(w, msg, deletedDTO{Deleted: n})
}
