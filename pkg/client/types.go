package client

import "time"

// Source is one cited web result.
type Source struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet,omitempty"`
	Domain  string `json:"domain,omitempty"`
}

// Metadata describes how an answer was produced.
type Metadata struct {
	ProcessingTime     int64 `json:"processingTime"`
	TokensUsed         int   `json:"tokensUsed"`
	SearchResultsCount int   `json:"searchResultsCount"`
}

// Search is a full search record. ID is empty for anonymous searches.
type Search struct {
	ID             string    `json:"id,omitempty"`
	Query          string    `json:"query"`
	Answer         string    `json:"answer"`
	Sources        []Source  `json:"sources"`
	Focus          string    `json:"focus"`
	ConversationID string    `json:"conversationId,omitempty"`
	Metadata       Metadata  `json:"metadata"`
	IsBookmarked   bool      `json:"isBookmarked"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Summary is the list projection of a search record.
type Summary struct {
	ID            string    `json:"id"`
	Query         string    `json:"query"`
	AnswerPreview string    `json:"answerPreview"`
	URL           string    `json:"url"`
	SourcesCount  int       `json:"sourcesCount"`
	Focus         string    `json:"focus"`
	IsBookmarked  bool      `json:"isBookmarked"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Pagination mirrors the server's page metadata.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// SearchPage is one page of history.
type SearchPage struct {
	Searches   []Summary  `json:"searches"`
	Pagination Pagination `json:"pagination"`
}

// Collection is a collection as shown in lists.
type Collection struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Color         string    `json:"color"`
	SearchesCount int       `json:"searchesCount"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// CollectionDetail is a collection with its member summaries in insertion order.
type CollectionDetail struct {
	Collection
	Searches []Summary `json:"searches"`
}

// CollectionPage is one page of collections.
type CollectionPage struct {
	Collections []Collection `json:"collections"`
	Pagination  Pagination   `json:"pagination"`
}

// HistoryQuery selects a history page. Zero values use server defaults.
type HistoryQuery struct {
	Page       int
	Limit      int
	Sort       string
	Bookmarked bool
}

// SearchInput is the body of POST /search.
type SearchInput struct {
	Query          string `json:"query"`
	Focus          string `json:"focus,omitempty"`
	ConversationID string `json:"conversationId,omitempty"`
}

// CollectionInput creates or patches a collection. Nil fields are omitted.
type CollectionInput struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Color       *string `json:"color,omitempty"`
}

// Result is a confirmed mutation with the server message.
type Result struct {
	Message string
	Changed bool
}
