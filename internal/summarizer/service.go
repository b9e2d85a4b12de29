// Package summarizer turns cleaned document text into a structured summary
// using a Gemini chat model.
//
// The model is reached through Gemini's OpenAI-compatible endpoint and is
// configured with GEMINI_API_KEY, GEMINI_MODEL (default "gemini-2.0-flash")
// and GEMINI_BASE_URL. Replies are decoded leniently: a missing field becomes
// its zero value and a reply that is not JSON is turned into a best-effort
// summary instead of an error.
package summarizer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	"scribeai/internal/config"
	"scribeai/internal/logger"
	"scribeai/pkg/models"
)

// fallbackSummaryRunes bounds the summary built from a non-JSON reply.
const fallbackSummaryRunes = 500

const promptTemplate = `You are an expert academic assistant.

Analyze the following OCR extracted text from handwritten notes.

Tasks:
1. Clean formatting errors and OCR noise.
2. Extract key ideas and important information.
3. Create a structured analysis.

IMPORTANT: Return ONLY valid JSON with this exact structure, no markdown formatting:
{
  "executiveSummary": "A comprehensive summary of 100-150 words covering the main points",
  "bulletPoints": ["Key point 1", "Key point 2", "Key point 3", "..."],
  "keyTopics": ["Topic1", "Topic2", "Topic3", "..."],
  "entities": {
    "dates": ["any dates mentioned"],
    "people": ["any names mentioned"],
    "organizations": ["any organizations mentioned"],
    "amounts": ["any monetary amounts or percentages mentioned"]
  }
}

Text:
"""
%s
"""`

var (
	fencePattern  = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)```")
	bulletPattern = regexp.MustCompile(`^[-•]\s*`)
)

// Summarizer produces a structured summary of text.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (*models.SummaryResult, error)
}

// Factory builds a Summarizer per request so configuration is read when it
// is needed.
type Factory func(ctx context.Context) (Summarizer, error)

// Config configures the Gemini summarizer.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration

	// HTTPClient overrides the HTTP client (tests).
	HTTPClient *http.Client
}

// ConfigFromSettings picks the Gemini fields out of settings.
func ConfigFromSettings(s config.ProviderSettings) Config {
	return Config{
		APIKey:  s.GeminiAPIKey,
		Model:   s.GeminiModel,
		BaseURL: s.GeminiBaseURL,
		Timeout: 90 * time.Second,
	}
}

// EnvFactory builds a GeminiSummarizer from the environment.
func EnvFactory(_ context.Context) (Summarizer, error) {
	return NewGeminiSummarizer(ConfigFromSettings(config.LoadProviders()))
}

// GeminiSummarizer implements Summarizer with a Gemini chat model.
type GeminiSummarizer struct {
	client *openai.Client
	model  string
	log    zerolog.Logger
}

// NewGeminiSummarizer fails with ErrMissingAPIKey when no key is configured.
func NewGeminiSummarizer(cfg Config) (*GeminiSummarizer, error) {
	const op = "NewGeminiSummarizer"

	if cfg.APIKey == "" {
		return nil, &SummaryError{Op: op, Err: ErrMissingAPIKey}
	}
	if cfg.Model == "" {
		cfg.Model = config.DefaultGeminiModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = config.DefaultGeminiBaseURL
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	if cfg.HTTPClient != nil {
		clientConfig.HTTPClient = cfg.HTTPClient
	} else {
		clientConfig.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &GeminiSummarizer{
		client: openai.NewClientWithConfig(clientConfig),
		model:  cfg.Model,
		log:    logger.WithComponent("summarizer"),
	}, nil
}

// Summarize sends text to the model and decodes its reply with ParseResponse.
func (s *GeminiSummarizer) Summarize(ctx context.Context, text string) (*models.SummaryResult, error) {
	const op = "Summarize"

	start := time.Now()
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf(promptTemplate, text)},
		},
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return nil, &SummaryError{Op: op, Err: fmt.Errorf("Gemini API Error %d: %s", apiErr.HTTPStatusCode, apiErr.Message)}
		}
		return nil, WrapSummaryError(op, err, "")
	}
	if len(resp.Choices) == 0 {
		return nil, &SummaryError{Op: op, Err: ErrEmptyResponse}
	}

	result := ParseResponse(resp.Choices[0].Message.Content)

	s.log.Info().
		Str("model", s.model).
		Int("input_length", len(text)).
		Int("bullet_points", len(result.BulletPoints)).
		Int("key_topics", len(result.KeyTopics)).
		Dur("duration", time.Since(start)).
		Msg("Summary generated")

	return result, nil
}

// ParseResponse decodes a model reply into a SummaryResult.
//
// A fenced block, when present, is decoded instead of the whole reply. Each
// field is decoded on its own so one malformed field does not discard the
// others. A reply that is not a JSON object yields its first 500 characters
// as the summary and its "-" or "•" lines as bullet points. Every slice in
// the result is non-nil.
func ParseResponse(raw string) *models.SummaryResult {
	payload := raw
	if m := fencePattern.FindStringSubmatch(raw); m != nil {
		payload = strings.TrimSpace(m[1])
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(payload), &fields); err != nil || fields == nil {
		return fallbackSummary(raw)
	}

	result := models.EmptySummary()
	decodeField(fields, "executiveSummary", &result.ExecutiveSummary)
	decodeField(fields, "bulletPoints", &result.BulletPoints)
	decodeField(fields, "keyTopics", &result.KeyTopics)

	var entities map[string]json.RawMessage
	decodeField(fields, "entities", &entities)
	decodeField(entities, "dates", &result.Entities.Dates)
	decodeField(entities, "people", &result.Entities.People)
	decodeField(entities, "organizations", &result.Entities.Organizations)
	decodeField(entities, "amounts", &result.Entities.Amounts)

	normalize(&result)
	return &result
}

// decodeField leaves dst untouched when the key is missing or malformed.
func decodeField[T any](fields map[string]json.RawMessage, key string, dst *T) {
	data, ok := fields[key]
	if !ok {
		return
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return
	}
	*dst = v
}

func fallbackSummary(raw string) *models.SummaryResult {
	result := models.EmptySummary()

	summary := []rune(raw)
	if len(summary) > fallbackSummaryRunes {
		summary = summary[:fallbackSummaryRunes]
	}
	result.ExecutiveSummary = string(summary)

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "•") {
			continue
		}
		if point := strings.TrimSpace(bulletPattern.ReplaceAllString(line, "")); point != "" {
			result.BulletPoints = append(result.BulletPoints, point)
		}
	}

	return &result
}

// normalize replaces nil slices left by explicit JSON nulls.
func normalize(r *models.SummaryResult) {
	for _, s := range []*[]string{
		&r.BulletPoints, &r.KeyTopics,
		&r.Entities.Dates, &r.Entities.People, &r.Entities.Organizations, &r.Entities.Amounts,
	} {
		if *s == nil {
			*s = []string{}
		}
	}
}
