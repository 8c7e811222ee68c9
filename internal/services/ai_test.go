package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/clinscribe/backend/internal/config"
)

func TestBuildPrompt_NoContext(t *testing.T) {
	req := &GenerationRequest{Prompt: "write a progress note"}
	if got := buildPrompt(req); got != "write a progress note" {
		t.Errorf("buildPrompt() = %q, expected the bare prompt", got)
	}
}

func TestBuildPrompt_WithContext(t *testing.T) {
	req := &GenerationRequest{
		Prompt:         "write a progress note",
		PatientContext: "54yo, knee replacement, week 3",
	}

	got := buildPrompt(req)
	if !strings.HasPrefix(got, "Patient context:\n54yo") {
		t.Errorf("context should lead the prompt, got %q", got)
	}
	if !strings.HasSuffix(got, "write a progress note") {
		t.Errorf("instruction should close the prompt, got %q", got)
	}
}

// newChatCompletionStub serves an OpenAI-compatible completion endpoint and
// records the model each request asked for.
func newChatCompletionStub(t *testing.T, gotModel *string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Model string `json:"model"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decoding completion request: %v", err)
		}
		*gotModel = body.Model

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"id":"cmpl-1","object":"chat.completion","model":%q,"choices":[{"index":0,"message":{"role":"assistant","content":"note text"},"finish_reason":"stop"}],"usage":{"prompt_tokens":12,"completion_tokens":40,"total_tokens":52}}`, body.Model)
	}))
}

func TestGenerate_UsesRequestedModel(t *testing.T) {
	var gotModel string
	server := newChatCompletionStub(t, &gotModel)
	defer server.Close()

	svc := NewAIService(&config.AIConfig{
		Provider: "openai",
		BaseURL:  server.URL,
		APIKey:   "test",
		Model:    "gpt-4o",
	})

	result, err := svc.Generate(context.Background(), &GenerationRequest{
		Prompt: "write a progress note",
		Model:  "gpt-4o-mini",
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if gotModel != "gpt-4o-mini" {
		t.Errorf("provider received model %q, expected the requested gpt-4o-mini", gotModel)
	}
	if result.Model != "gpt-4o-mini" {
		t.Errorf("result.Model = %q, expected gpt-4o-mini", result.Model)
	}
	if result.InputTokens != 12 || result.OutputTokens != 40 {
		t.Errorf("tokens = (%d, %d), expected (12, 40)", result.InputTokens, result.OutputTokens)
	}
}

func TestGenerate_FallsBackToConfiguredModel(t *testing.T) {
	var gotModel string
	server := newChatCompletionStub(t, &gotModel)
	defer server.Close()

	svc := NewAIService(&config.AIConfig{
		Provider: "openai",
		BaseURL:  server.URL,
		APIKey:   "test",
		Model:    "gpt-4o",
	})

	result, err := svc.Generate(context.Background(), &GenerationRequest{
		Prompt: "write a progress note",
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if gotModel != "gpt-4o" {
		t.Errorf("provider received model %q, expected the configured gpt-4o", gotModel)
	}
	if result.Model != "gpt-4o" {
		t.Errorf("result.Model = %q, expected gpt-4o", result.Model)
	}
}

func TestGenerationResult_Structure(t *testing.T) {
	result := GenerationResult{
		Content:      "note text",
		Model:        "gpt-4o",
		InputTokens:  120,
		OutputTokens: 480,
	}

	if result.Content != "note text" {
		t.Errorf("Content = %q", result.Content)
	}
	if result.InputTokens != 120 || result.OutputTokens != 480 {
		t.Errorf("tokens = (%d, %d), expected (120, 480)", result.InputTokens, result.OutputTokens)
	}
}
