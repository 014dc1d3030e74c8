package record

import (
	"net/url"
	"strings"
	"time"
)

// PreviewLen is the number of runes kept in an answer preview.
const PreviewLen = 200

// Summary is the list-view projection of a Record.
type Summary struct {
	ID            string
	Query         string
	AnswerPreview string
	URL           string
	SourcesCount  int
	Focus         Focus
	IsBookmarked  bool
	CreatedAt     time.Time
}

// Summarize builds the list-view projection.
func (r Record) Summarize() Summary {
	return Summary{
		ID:            r.id,
		Query:         r.query,
		AnswerPreview: Preview(r.answer),
		URL:           SearchURL(r.query, r.focus),
		SourcesCount:  len(r.sources),
		Focus:         r.focus,
		IsBookmarked:  r.bookmarked,
		CreatedAt:     r.createdAt,
	}
}

// Preview returns the first PreviewLen runes of answer, suffixed with "..." when truncated.
func Preview(answer string) string {
	runes := []rune(answer)
	if len(runes) <= PreviewLen {
		return answer
	}
	return string(runes[:PreviewLen]) + "..."
}

// SearchURL is the client route that re-runs a query.
func SearchURL(query string, focus Focus) string {
	return "/search?q=" + EncodeComponent(query) + "&focus=" + EncodeComponent(string(focus))
}

// componentUnescape restores the characters a browser's encodeURIComponent keeps
// literal and writes spaces as %20.
var componentUnescape = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// EncodeComponent percent-encodes s like encodeURIComponent.
func EncodeComponent(s string) string {
	return componentUnescape.Replace(url.QueryEscape(s))
}
