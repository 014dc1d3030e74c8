package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type collectionEnvelope struct {
	Collection any `json:"collection"`
}

type memberDTO struct {
	Changed bool `json:"changed"`
}

// ListCollections handles GET /collections.
func (s *Server) ListCollections(w http.ResponseWriter, r *http.Request) {
	page, limit, err := pageQuery(r)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	res, err := s.collections.List(r.Context(), OwnerFromContext(r.Context()), page, limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeData(w, http.StatusOK, collectionsPage{Collections: listingsToDTO(res.Collections), Pagination: res.Pagination})
}

// CreateCollection handles POST /collections.
func (s *Server) CreateCollection(w http.ResponseWriter, r *http.Request) {
	var req collectionRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.handleDomainError(w, err)
		return
	}

	col, err := s.collections.Create(r.Context(), OwnerFromContext(r.Context()), req.createInput())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeData(w, http.StatusCreated, collectionEnvelope{Collection: collectionToDTO(col, 0)})
}

// GetCollection handles GET /collections/{id}.
func (s *Server) GetCollection(w http.ResponseWriter, r *http.Request) {
	d, err := s.collections.Detail(r.Context(), OwnerFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeData(w, http.StatusOK, collectionEnvelope{Collection: detailToDTO(d)})
}

// UpdateCollection handles PUT /collections/{id}.
func (s *Server) UpdateCollection(w http.ResponseWriter, r *http.Request) {
	var req collectionRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.handleDomainError(w, err)
		return
	}

	col, err := s.collections.Update(r.Context(), OwnerFromContext(r.Context()), chi.URLParam(r, "id"), req.patch())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeData(w, http.StatusOK, collectionEnvelope{Collection: collectionToDTO(col, len(col.Members()))})
}

// DeleteCollection handles DELETE /collections/{id}. Member searches are kept.
func (s *Server) DeleteCollection(w http.ResponseWriter, r *http.Request) {
	if err := s.collections.Delete(r.Context(), OwnerFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeMessage(w, "Collection deleted successfully", nil)
}

// AddSearchToCollection handles POST /collections/{id}/searches.
func (s *Server) AddSearchToCollection(w http.ResponseWriter, r *http.Request) {
	var req memberRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.handleDomainError(w, err)
		return
	}

	added, err := s.collections.AddMember(r.Context(), OwnerFromContext(r.Context()), chi.URLParam(r, "id"), req.SearchID)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	msg := "Search added to collection"
	if !added {
		msg = "Search is already in this collection"
	}
	writeMessage(w, msg, memberDTO{Changed: added})
}

// RemoveSearchFromCollection handles DELETE /collections/{id}/searches/{searchId}.
func (s *Server) RemoveSearchFromCollection(w http.ResponseWriter, r *http.Request) {
	removed, err := s.collections.RemoveMember(
		r.Context(), OwnerFromContext(r.Context()), chi.URLParam(r, "id"), chi.URLParam(r, "searchId"),
	)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	msg := "Search removed from collection"
	if !removed {
		msg = "Search was not in this collection"
	}
	writeMessage(w, msg, memberDTO{Changed: removed})
}
