package summarizer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseResponse(t *testing.T) {
	var raw = "```json\n" + `{
  "executiveSummary": "Notes about cells.",
  "bulletPoints": ["Cells divide", "DNA replicates"],
  "keyTopics": ["Biology"],
  "entities": {"dates": ["2024-01-01"], "people": ["Ada"], "organizations": [], "amounts": ["5%"]}
}` + "\n```"

	result := ParseResponse(raw)

	if result.ExecutiveSummary != "Notes about cells." {
		t.Errorf("Unexpected summary %q", result.ExecutiveSummary)
	}
	if len(result.BulletPoints) != 2 || result.BulletPoints[1] != "DNA replicates" {
		t.Errorf("Unexpected bullet points %v", result.BulletPoints)
	}
	if len(result.KeyTopics) != 1 || result.KeyTopics[0] != "Biology" {
		t.Errorf("Unexpected key topics %v", result.KeyTopics)
	}
	if result.Entities.People[0] != "Ada" || result.Entities.Amounts[0] != "5%" {
		t.Errorf("Unexpected entities %+v", result.Entities)
	}
	if result.Entities.Organizations == nil {
		t.Error("Organizations must not be nil")
	}
}

func TestParseResponseMissingFields(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		summary string
	}{
		{"empty object", `{}`, ""},
		{"nulls", `{"executiveSummary":null,"bulletPoints":null,"entities":null}`, ""},
		{"wrong types", `{"executiveSummary":"ok","bulletPoints":"not a list","entities":{"dates":7}}`, "ok"},
		{"bare fence", "```\n{\"executiveSummary\":\"fenced\"}\n```", "fenced"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ParseResponse(tt.raw)

			if result.ExecutiveSummary != tt.summary {
				t.Errorf("Expected summary %q, got %q", tt.summary, result.ExecutiveSummary)
			}

			data, err := json.Marshal(result)
			if err != nil {
				t.Fatalf("Marshal failed: %v", err)
			}
			if strings.Contains(string(data), "null") {
				t.Errorf("Expected no null fields, got %s", data)
			}
		})
	}
}

func TestParseResponseFallback(t *testing.T) {
	raw := "Here is a summary.\n- First point\n  • Second point\n-\nnot a bullet\n-Third"

	result := ParseResponse(raw)

	if result.ExecutiveSummary != raw {
		t.Errorf("Expected the whole reply as summary, got %q", result.ExecutiveSummary)
	}

	want := []string{"First point", "Second point", "Third"}
	if len(result.BulletPoints) != len(want) {
		t.Fatalf("Expected %v, got %v", want, result.BulletPoints)
	}
	for i := range want {
		if result.BulletPoints[i] != want[i] {
			t.Errorf("bullet %d: expected %q, got %q", i, want[i], result.BulletPoints[i])
		}
	}
	if result.KeyTopics == nil || result.Entities.Dates == nil {
		t.Error("Fallback lists must not be nil")
	}
}

func TestParseResponseFallbackTruncates(t *testing.T) {
	raw := strings.Repeat("é", 600)

	result := ParseResponse(raw)

	if got := len([]rune(result.ExecutiveSummary)); got != 500 {
		t.Errorf("Expected 500 characters, got %d", got)
	}
}

func TestNewGeminiSummarizerMissingKey(t *testing.T) {
	_, err := NewGeminiSummarizer(Config{})
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("Expected ErrMissingAPIKey, got %v", err)
	}
	if err.Error() != "Missing GEMINI_API_KEY environment variable" {
		t.Errorf("Unexpected message %q", err.Error())
	}
}

func TestSummarize(t *testing.T) {
	var server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Expected path /chat/completions, got %s", r.URL.Path)
		}

		var body struct {
			Model    string `json:"model"`
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("Failed to decode request: %v", err)
			return
		}
		if body.Model != "gemini-test" {
			t.Errorf("Expected model gemini-test, got %s", body.Model)
		}
		if len(body.Messages) != 1 || !strings.Contains(body.Messages[0].Content, "\"\"\"\nlecture notes\n\"\"\"") {
			t.Errorf("Expected text embedded in prompt, got %+v", body.Messages)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":     "x",
			"object": "chat.completion",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": `{"executiveSummary":"short","keyTopics":["notes"]}`},
			}},
		})
	}))
	defer server.Close()

	s, err := NewGeminiSummarizer(Config{APIKey: "key", Model: "gemini-test", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewGeminiSummarizer failed: %v", err)
	}

	result, err := s.Summarize(context.Background(), "lecture notes")
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if result.ExecutiveSummary != "short" || result.KeyTopics[0] != "notes" {
		t.Errorf("Unexpected result %+v", result)
	}
	if result.BulletPoints == nil {
		t.Error("BulletPoints must not be nil")
	}
}

func TestSummarizeErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"api error", http.StatusTooManyRequests, `{"error":{"message":"Resource exhausted","code":429}}`, "Gemini API Error 429: Resource exhausted"},
		{"no choices", http.StatusOK, `{"id":"x","object":"chat.completion","choices":[]}`, ErrEmptyResponse.Error()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			s, err := NewGeminiSummarizer(Config{APIKey: "key", BaseURL: server.URL})
			if err != nil {
				t.Fatalf("NewGeminiSummarizer failed: %v", err)
			}

			_, err = s.Summarize(context.Background(), "text")
			if err == nil {
				t.Fatal("Expected error")
			}
			if err.Error() != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, err.Error())
			}

			var sumErr *SummaryError
			if !errors.As(err, &sumErr) || sumErr.Op != "Summarize" {
				t.Errorf("Expected SummaryError from Summarize, got %#v", err)
			}
		})
	}
}
