package record

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	domrec "github.com/abdul7867/SearchAi/internal/domain/record"
)

// sourceRow is the JSON-serializable representation of a source for HSET.
type sourceRow struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet,omitempty"`
	Domain  string `json:"domain,omitempty"`
}

// recordToHash converts a domain Record to a map for HSET.
func recordToHash(r domrec.Record) (map[string]string, error) {
	rows := make([]sourceRow, len(r.Sources()))
	for i, s := range r.Sources() {
		rows[i] = sourceRow{Title: s.Title, URL: s.URL, Snippet: s.Snippet, Domain: s.Domain}
	}
	sourcesJSON, err := json.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("marshal sources: %w", err)
	}
	md := r.Metadata()
	return map[string]string{
		"id":              r.ID(),
		"owner":           r.Owner(),
		"query":           r.Query(),
		"answer":          r.Answer(),
		"sources_json":    string(sourcesJSON),
		"focus":           string(r.Focus()),
		"conversation_id": r.ConversationID(),
		"processing_ms":   strconv.FormatInt(md.ProcessingTimeMs, 10),
		"tokens_used":     strconv.Itoa(md.TokensUsed),
		"results_count":   strconv.Itoa(md.SearchResultsCount),
		"bookmarked":      strconv.FormatBool(r.IsBookmarked()),
		"created_at":      strconv.FormatInt(r.CreatedAt().UnixMilli(), 10),
		"updated_at":      strconv.FormatInt(r.UpdatedAt().UnixMilli(), 10),
	}, nil
}

// recordFromHash hydrates a domain Record from an HGETALL result map.
func recordFromHash(m map[string]string) (domrec.Record, error) {
	createdAt, err := parseMillis(m["created_at"])
	if err != nil {
		return domrec.Record{}, fmt.Errorf("invalid created_at: %w", err)
	}
	updatedAt := createdAt
	if v := m["updated_at"]; v != "" {
		if updatedAt, err = parseMillis(v); err != nil {
			return domrec.Record{}, fmt.Errorf("invalid updated_at: %w", err)
		}
	}

	var rows []sourceRow
	if v := m["sources_json"]; v != "" {
		if err := json.Unmarshal([]byte(v), &rows); err != nil {
			return domrec.Record{}, fmt.Errorf("unmarshal sources: %w", err)
		}
	}
	sources := make([]domrec.Source, len(rows))
	for i, s := range rows {
		sources[i] = domrec.Source{Title: s.Title, URL: s.URL, Snippet: s.Snippet, Domain: s.Domain}
	}

	// Metadata is informational; malformed counters fall back to zero.
	processing, _ := strconv.ParseInt(m["processing_ms"], 10, 64)
	tokens, _ := strconv.Atoi(m["tokens_used"])
	results, _ := strconv.Atoi(m["results_count"])
	bookmarked, _ := strconv.ParseBool(m["bookmarked"])

	return domrec.Reconstruct(
		m["id"], m["owner"], m["query"], m["answer"], sources,
		domrec.Focus(m["focus"]), m["conversation_id"],
		domrec.Metadata{ProcessingTimeMs: processing, TokensUsed: tokens, SearchResultsCount: results},
		bookmarked, createdAt, updatedAt,
	), nil
}

func parseMillis(s string) (time.Time, error) {
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(ms).UTC(), nil
}
