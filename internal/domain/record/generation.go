package record

import (
	"strings"
	"unicode/utf8"
)

// Prompt is the question handed to an answer generator.
type Prompt struct {
	Query          string
	Focus          Focus
	ConversationID string
}

// Generation is what an answer generator returns for a Prompt.
type Generation struct {
	Answer             string
	Sources            []Source
	TokensUsed         int
	SearchResultsCount int
}

// Fit clamps upstream output to the record limits: the answer and source fields
// are truncated and sources without a title or url are dropped.
func (g Generation) Fit() Generation {
	g.Answer = truncate(strings.TrimSpace(g.Answer), MaxAnswerLen)
	sources := make([]Source, 0, len(g.Sources))
	for _, s := range g.Sources {
		s.Title = truncate(strings.TrimSpace(s.Title), MaxSourceTitleLen)
		s.URL = strings.TrimSpace(s.URL)
		if s.Title == "" || s.URL == "" || utf8.RuneCountInString(s.URL) > MaxSourceURLLen {
			continue
		}
		s.Snippet = truncate(strings.TrimSpace(s.Snippet), MaxSourceSnippetLen)
		s.Domain = truncate(strings.TrimSpace(s.Domain), MaxSourceDomainLen)
		sources = append(sources, s)
	}
	g.Sources = sources
	if g.SearchResultsCount == 0 {
		g.SearchResultsCount = len(sources)
	}
	return g
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}
