package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/abdul7867/SearchAi/internal/domain"
	domrec "github.com/abdul7867/SearchAi/internal/domain/record"
)

// Focus-specific instructions appended to the system prompt.
var focusInstructions = map[domrec.Focus]string{
	domrec.FocusGeneral:   "Give a balanced overview for a general audience.",
	domrec.FocusAcademic:  "Prefer peer-reviewed and scholarly sources and cite them precisely.",
	domrec.FocusNews:      "Prefer recent reporting from reputable news outlets and mention dates.",
	domrec.FocusTechnical: "Prefer official documentation, specifications and code references.",
}

const systemPrompt = `You are a search assistant. Answer the user's question and cite the web pages you rely on.
Reply with a single JSON object: {"answer": string, "sources": [{"title": string, "url": string, "snippet": string}]}.`

// Generator answers search queries through an OpenAI-compatible chat completion API.
type Generator struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
	user        string
	logger      *zap.Logger
}

// Config holds the generator provider settings.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float32
	User        string
	Timeout     time.Duration // per request, 0 means no client timeout
	Logger      *zap.Logger
}

// NewGenerator creates an OpenAI-compatible answer generator.
func NewGenerator(cfg *Config) *Generator {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Generator{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		user:        cfg.User,
		logger:      logger,
	}
}

// Generate asks the model for an answer with sources.
func (g *Generator) Generate(ctx context.Context, p domrec.Prompt) (domrec.Generation, error) {
	system := systemPrompt
	if extra, ok := focusInstructions[p.Focus]; ok {
		system += "\n" + extra
	}

	req := openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: p.Query},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
		MaxTokens:      g.maxTokens,
		Temperature:    g.temperature,
		User:           g.user,
	}

	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return domrec.Generation{}, fmt.Errorf("chat completion: %w: %w", domain.ErrUpstream, err)
		}
		return domrec.Generation{}, parseAPIError(err)
	}
	if len(resp.Choices) == 0 {
		return domrec.Generation{}, fmt.Errorf("empty completion response: %w", domain.ErrUpstream)
	}

	gen := parseContent(resp.Choices[0].Message.Content)
	gen.TokensUsed = resp.Usage.TotalTokens
	if gen.Answer == "" {
		return domrec.Generation{}, fmt.Errorf("completion has no answer: %w", domain.ErrUpstream)
	}
	return gen, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (g *Generator) HealthCheck(ctx context.Context) error {
	if _, err := g.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

type completionPayload struct {
	Answer  string `json:"answer"`
	Sources []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Snippet string `json:"snippet"`
	} `json:"sources"`
}

// parseContent decodes the JSON reply. Content that is not the expected JSON
// object is used verbatim as the answer with no sources.
func parseContent(content string) domrec.Generation {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimSuffix(strings.TrimPrefix(content, "```"), "```")
	content = strings.TrimSpace(content)

	var payload completionPayload
	if err := json.Unmarshal([]byte(content), &payload); err != nil || payload.Answer == "" {
		return domrec.Generation{Answer: content}
	}

	sources := make([]domrec.Source, 0, len(payload.Sources))
	for _, s := range payload.Sources {
		sources = append(sources, domrec.Source{
			Title:   s.Title,
			URL:     s.URL,
			Snippet: s.Snippet,
			Domain:  hostOf(s.URL),
		})
	}
	return domrec.Generation{Answer: payload.Answer, Sources: sources}
}

func hostOf(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}

// parseAPIError extracts a human-readable error from the API response.
// All errors are wrapped with domain.ErrUpstream for correct 502 mapping.
func parseAPIError(err error) error {
	wrap := domain.ErrUpstream

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if detail := extractDetail(reqErr.Body); detail != "" {
			return fmt.Errorf("completion API error %d: %s: %w", reqErr.HTTPStatusCode, detail, wrap)
		}
		return fmt.Errorf("completion API error %d: %s: %w", reqErr.HTTPStatusCode, string(reqErr.Body), wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("completion API error %d: %s: %w", apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	return fmt.Errorf("completion request failed: %w", wrap)
}

// extractDetail extracts the "detail" field from a JSON error body.
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
