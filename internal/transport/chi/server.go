package chi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/abdul7867/SearchAi/internal/domain"
	collectionuc "github.com/abdul7867/SearchAi/internal/usecase/collection"
	healthuc "github.com/abdul7867/SearchAi/internal/usecase/health"
	historyuc "github.com/abdul7867/SearchAi/internal/usecase/history"
	searchuc "github.com/abdul7867/SearchAi/internal/usecase/search"
)

const maxBodyBytes = 1 << 20

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server holds the HTTP handlers of the SearchAi API.
type Server struct {
	history       *historyuc.Service
	collections   *collectionuc.Service
	search        *searchuc.Service
	health        *healthuc.Service
	auth          *Authenticator
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	history *historyuc.Service,
	collections *collectionuc.Service,
	search *searchuc.Service,
	health *healthuc.Service,
	auth *Authenticator,
	logger *zap.Logger,
) *Server {
	s := &Server{
		history:     history,
		collections: collections,
		search:      search,
		health:      health,
		auth:        auth,
		logger:      logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrValidation, http.StatusBadRequest),
		sentinelHandler(domain.ErrUnauthorized, http.StatusUnauthorized),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound),
		sentinelHandler(domain.ErrConflict, http.StatusConflict),
		sentinelHandler(domain.ErrUpstream, http.StatusBadGateway),
	}
	return s
}

type envelope struct {
	Success bool       `json:"success"`
	Message string     `json:"message,omitempty"`
	Data    any        `json:"data,omitempty"`
	Error   *errorBody `json:"error,omitempty"`
}

type errorBody struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

func writeMessage(w http.ResponseWriter, message string, data any) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: message, Data: data})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Error: &errorBody{Message: message}})
}

// safeDomainMessage returns a client message without exposing internals.
func safeDomainMessage(err error) string {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	var re *domain.ResourceError
	if errors.As(err, &re) {
		return re.ClientMessage()
	}
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return "Not authorized"
	case errors.Is(err, domain.ErrUpstream):
		return "Search provider is unavailable, please try again later"
	case errors.Is(err, domain.ErrValidation):
		return "Invalid request"
	case errors.Is(err, domain.ErrNotFound):
		return "Resource not found"
	case errors.Is(err, domain.ErrConflict):
		return "Resource already exists"
	}
	return "Internal server error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "Internal server error")
}

// decodeBody reads a JSON request body into v.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.Invalid("request body is required")
		}
		return domain.Invalid("invalid request body")
	}
	return nil
}

// intQuery parses an optional integer query parameter; absent means 0.
func intQuery(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.Invalid("%s must be an integer", name)
	}
	return v, nil
}

func pageQuery(r *http.Request) (page, limit int, err error) {
	if page, err = intQuery(r, "page"); err != nil {
		return 0, 0, err
	}
	if limit, err = intQuery(r, "limit"); err != nil {
		return 0, 0, err
	}
	return page, limit, nil
}
