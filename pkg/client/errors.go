package client

import (
	"errors"
	"fmt"
	"net/http"
)

// User-facing messages.
const (
	MsgAuthExpired       = "Authentication expired. Please log in again."
	MsgUnreachable       = "Unable to connect to the server. Please check your internet connection."
	MsgAuthRequired      = "Authentication required. Please log in to continue."
	MsgCollectionMissing = "Collection not found"
	MsgMemberMissing     = "Collection or search not found"
	MsgDuplicateName     = "Collection with this name already exists"
)

// Sentinel errors. Use errors.Is() to check.
var (
	ErrNetwork          = errors.New("server unreachable")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrNotAuthenticated = errors.New("not authenticated")
)

// APIError is a non-2xx response or an unsuccessful envelope.
type APIError struct {
	Op      string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: http %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: http %d: %s", e.Op, e.Status, e.Message)
}

// Is maps status codes onto the package sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrConflict:
		return e.Status == http.StatusConflict
	}
	return false
}

// networkError wraps a transport failure (no HTTP response).
type networkError struct {
	op  string
	err error
}

func (e *networkError) Error() string { return fmt.Sprintf("%s: %v", e.op, e.err) }

func (e *networkError) Unwrap() []error { return []error{ErrNetwork, e.err} }

// opMessages holds the per-operation fallbacks and status overrides.
type opMessages struct {
	fallback string
	notFound string
	conflict string
}

var operations = map[string]opMessages{
	OpHistory:          {fallback: "An error occurred while fetching history"},
	OpBookmarked:       {fallback: "An error occurred while fetching bookmarks"},
	OpClearHistory:     {fallback: "An error occurred while clearing history"},
	OpCleanupHistory:   {fallback: "Failed to cleanup history"},
	OpSearch:           {fallback: "An error occurred while searching"},
	OpGetSearch:        {fallback: "An error occurred while fetching the search"},
	OpDeleteSearch:     {fallback: "An error occurred while deleting the search"},
	OpToggleBookmark:   {fallback: "An error occurred while toggling bookmark"},
	OpListCollections:  {fallback: "An error occurred while fetching collections"},
	OpGetCollection:    {fallback: "An error occurred while fetching collection", notFound: MsgCollectionMissing},
	OpCreateCollection: {fallback: "An error occurred while creating collection", conflict: MsgDuplicateName},
	OpUpdateCollection: {
		fallback: "An error occurred while updating collection",
		notFound: MsgCollectionMissing,
		conflict: MsgDuplicateName,
	},
	OpDeleteCollection: {fallback: "An error occurred while deleting collection", notFound: MsgCollectionMissing},
	OpAddMember:        {fallback: "An error occurred while adding search to collection", notFound: MsgMemberMissing},
	OpRemoveMember:     {fallback: "An error occurred while removing search from collection", notFound: MsgMemberMissing},
}

// Operation names, used in errors, logs and metrics.
const (
	OpHistory          = "history"
	OpBookmarked       = "bookmarked"
	OpClearHistory     = "clear_history"
	OpCleanupHistory   = "cleanup_history"
	OpSearch           = "search"
	OpGetSearch        = "get_search"
	OpDeleteSearch     = "delete_search"
	OpToggleBookmark   = "toggle_bookmark"
	OpListCollections  = "list_collections"
	OpGetCollection    = "get_collection"
	OpCreateCollection = "create_collection"
	OpUpdateCollection = "update_collection"
	OpDeleteCollection = "delete_collection"
	OpAddMember        = "add_member"
	OpRemoveMember     = "remove_member"
)

// UserMessage turns an error from this package into a message fit for display.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrNotAuthenticated) {
		return MsgAuthRequired
	}
	var ne *networkError
	if errors.As(err, &ne) {
		return MsgUnreachable
	}
	var ae *APIError
	if !errors.As(err, &ae) {
		return "An unexpected error occurred"
	}

	msgs := operations[ae.Op]
	switch {
	case ae.Status == http.StatusUnauthorized:
		return MsgAuthExpired
	case ae.Status == http.StatusNotFound && msgs.notFound != "":
		return msgs.notFound
	case ae.Status == http.StatusConflict && msgs.conflict != "":
		return msgs.conflict
	case ae.Message != "":
		return ae.Message
	case msgs.fallback != "":
		return msgs.fallback
	}
	return "An unexpected error occurred"
}
