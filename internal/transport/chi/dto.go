package chi

import (
	"time"

	"github.com/abdul7867/SearchAi/internal/domain"
	domcol "github.com/abdul7867/SearchAi/internal/domain/collection"
	domrec "github.com/abdul7867/SearchAi/internal/domain/record"
	collectionuc "github.com/abdul7867/SearchAi/internal/usecase/collection"
)

type searchRequest struct {
	Query          string `json:"query"`
	Focus          string `json:"focus"`
	ConversationID string `json:"conversationId"`
}

type collectionRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Color       *string `json:"color"`
}

type memberRequest struct {
	SearchID string `json:"searchId"`
}

type sourceDTO struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet,omitempty"`
	Domain  string `json:"domain,omitempty"`
}

type metadataDTO struct {
	ProcessingTime     int64 `json:"processingTime"`
	TokensUsed         int   `json:"tokensUsed"`
	SearchResultsCount int   `json:"searchResultsCount"`
}

type searchDTO struct {
	ID             string      `json:"id,omitempty"`
	Query          string      `json:"query"`
	Answer         string      `json:"answer"`
	Sources        []sourceDTO `json:"sources"`
	Focus          string      `json:"focus"`
	ConversationID string      `json:"conversationId,omitempty"`
	Metadata       metadataDTO `json:"metadata"`
	IsBookmarked   bool        `json:"isBookmarked"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

type summaryDTO struct {
	ID            string    `json:"id"`
	Query         string    `json:"query"`
	AnswerPreview string    `json:"answerPreview"`
	URL           string    `json:"url"`
	SourcesCount  int       `json:"sourcesCount"`
	Focus         string    `json:"focus"`
	IsBookmarked  bool      `json:"isBookmarked"`
	CreatedAt     time.Time `json:"createdAt"`
}

type searchesPage struct {
	Searches   []summaryDTO      `json:"searches"`
	Pagination domain.Pagination `json:"pagination"`
}

type collectionDTO struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Color         string    `json:"color"`
	SearchesCount int       `json:"searchesCount"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type collectionDetailDTO struct {
	collectionDTO
	Searches []summaryDTO `json:"searches"`
}

type collectionsPage struct {
	Collections []collectionDTO   `json:"collections"`
	Pagination  domain.Pagination `json:"pagination"`
}

type deletedDTO struct {
	Deleted int `json:"deleted"`
}

func searchToDTO(r domrec.Record) searchDTO {
	sources := make([]sourceDTO, len(r.Sources()))
	for i, s := range r.Sources() {
		sources[i] = sourceDTO{Title: s.Title, URL: s.URL, Snippet: s.Snippet, Domain: s.Domain}
	}
	md := r.Metadata()
	return searchDTO{
		ID:             r.ID(),
		Query:          r.Query(),
		Answer:         r.Answer(),
		Sources:        sources,
		Focus:          string(r.Focus()),
		ConversationID: r.ConversationID(),
		Metadata: metadataDTO{
			ProcessingTime:     md.ProcessingTimeMs,
			TokensUsed:         md.TokensUsed,
			SearchResultsCount: md.SearchResultsCount,
		},
		IsBookmarked: r.IsBookmarked(),
		CreatedAt:    r.CreatedAt(),
		UpdatedAt:    r.UpdatedAt(),
	}
}

func summariesToDTO(in []domrec.Summary) []summaryDTO {
	out := make([]summaryDTO, len(in))
	for i, s := range in {
		out[i] = summaryDTO{
			ID:            s.ID,
			Query:         s.Query,
			AnswerPreview: s.AnswerPreview,
			URL:           s.URL,
			SourcesCount:  s.SourcesCount,
			Focus:         string(s.Focus),
			IsBookmarked:  s.IsBookmarked,
			CreatedAt:     s.CreatedAt,
		}
	}
	return out
}

func collectionToDTO(c domcol.Collection, count int) collectionDTO {
	return collectionDTO{
		ID:            c.ID(),
		Name:          c.Name(),
		Description:   c.Description(),
		Color:         c.Color(),
		SearchesCount: count,
		CreatedAt:     c.CreatedAt(),
		UpdatedAt:     c.UpdatedAt(),
	}
}

func listingsToDTO(in []domcol.Listing) []collectionDTO {
	out := make([]collectionDTO, len(in))
	for i, l := range in {
		out[i] = collectionToDTO(l.Collection, l.SearchesCount)
	}
	return out
}

func detailToDTO(d collectionuc.Detail) collectionDetailDTO {
	return collectionDetailDTO{
		collectionDTO: collectionToDTO(d.Collection, len(d.Searches)),
		Searches:      summariesToDTO(d.Searches),
	}
}

func (r collectionRequest) patch() domcol.Patch {
	return domcol.Patch{Name: r.Name, Description: r.Description, Color: r.Color}
}

func (r collectionRequest) createInput() collectionuc.CreateInput {
	var in collectionuc.CreateInput
	if r.Name != nil {
		in.Name = *r.Name
	}
	if r.Description != nil {
		in.Description = *r.Description
	}
	if r.Color != nil {
		in.Color = *r.Color
	}
	return in
}
