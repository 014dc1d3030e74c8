package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	logpkg "github.com/abdul7867/SearchAi/internal/logger"
	searchuc "github.com/abdul7867/SearchAi/internal/usecase/search"
)

type searchEnvelope struct {
	Search searchDTO `json:"search"`
}

type bookmarkDTO struct {
	IsBookmarked bool `json:"isBookmarked"`
}

// ExecuteSearch handles POST /search. Anonymous callers get an unsaved answer.
func (s *Server) ExecuteSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.handleDomainError(w, err)
		return
	}

	owner := OwnerFromContext(r.Context())
	rec, err := s.search.Execute(r.Context(), owner, searchuc.Input{
		Query:          req.Query,
		Focus:          req.Focus,
		ConversationID: req.ConversationID,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	status := http.StatusOK
	if owner != "" {
		status = http.StatusCreated
		logpkg.FromContext(r.Context()).Debug("search saved", logpkg.SearchID(rec.ID()))
	}
	writeData(w, status, searchEnvelope{Search: searchToDTO(rec)})
}

// GetSearch handles GET /search/{id}.
func (s *Server) GetSearch(w http.ResponseWriter, r *http.Request) {
	rec, err := s.search.Get(r.Context(), OwnerFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeData(w, http.StatusOK, searchEnvelope{Search: searchToDTO(rec)})
}

// DeleteSearch handles DELETE /search/{id}.
func (s *Server) DeleteSearch(w http.ResponseWriter, r *http.Request) {
	if err := s.search.Delete(r.Context(), OwnerFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeMessage(w, "Search deleted successfully", nil)
}

// ToggleBookmark handles PUT /search/{id}/bookmark.
func (s *Server) ToggleBookmark(w http.ResponseWriter, r *http.Request) {
	marked, err := s.search.ToggleBookmark(r.Context(), OwnerFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	msg := "Search removed from bookmarks"
	if marked {
		msg = "Search bookmarked"
	}
	writeMessage(w, msg, bookmarkDTO{IsBookmarked: marked})
}
