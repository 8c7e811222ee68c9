package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/clinscribe/backend/internal/config"
	"github.com/clinscribe/backend/pkg/logger"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ollama/ollama/api"
	"github.com/sashabaranov/go-openai"
	"google.golang.org/genai"
)

// AIService generates clinical documentation through a configured
// chat-completion provider. The model provider is selected once from
// config; every call reports token usage so the ledger can price it.
type AIService struct {
	config *config.AIConfig
}

func NewAIService(cfg *config.AIConfig) *AIService {
	return &AIService{config: cfg}
}

type GenerationRequest struct {
	Prompt         string
	PatientContext string
	// Model overrides the configured default for this request only.
	Model string
}

type GenerationResult struct {
	Content      string
	Model        string
	InputTokens  int
	OutputTokens int
}

// Generate produces a clinical note for the prompt. The patient context,
// when present, is prepended as grounding material before the instruction.
func (s *AIService) Generate(ctx context.Context, req *GenerationRequest) (*GenerationResult, error) {
	prompt := buildPrompt(req)
	model := req.Model
	if model == "" {
		model = s.config.Model
	}

	logger.Infof("[AI] Using provider: %s, model: %s, prompt length: %d chars",
		s.config.Provider, model, len(prompt))

	var result *GenerationResult
	var err error

	switch s.config.Provider {
	case "anthropic":
		result, err = s.callAnthropic(ctx, model, prompt)
	case "gemini":
		result, err = s.callGemini(ctx, model, prompt)
	case "ollama":
		result, err = s.callOllama(ctx, model, prompt)
	default:
		// openai and OpenAI-compatible endpoints
		result, err = s.callOpenAI(ctx, model, prompt)
	}
	if err != nil {
		return nil, err
	}

	// Some providers omit usage counts; fall back to the same word-based
	// estimate the cache uses so pricing never sees a zero.
	if result.InputTokens == 0 {
		result.InputTokens = int(EstimateTokens(prompt))
	}
	if result.OutputTokens == 0 {
		result.OutputTokens = int(EstimateTokens(result.Content))
	}
	if result.Model == "" {
		result.Model = model
	}

	return result, nil
}

func buildPrompt(req *GenerationRequest) string {
	if req.PatientContext == "" {
		return req.Prompt
	}
	return fmt.Sprintf("Patient context:\n%s\n\n%s", req.PatientContext, req.Prompt)
}

// callOpenAI handles OpenAI and OpenAI-compatible APIs (including custom endpoints)
func (s *AIService) callOpenAI(ctx context.Context, model, prompt string) (*GenerationResult, error) {
	clientConfig := openai.DefaultConfig(s.config.APIKey)
	if s.config.BaseURL != "" {
		clientConfig.BaseURL = s.config.BaseURL
	}
	client := openai.NewClientWithConfig(clientConfig)

	temperature := float32(0.3)
	if s.config.Temperature > 0 {
		temperature = float32(s.config.Temperature)
	}

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		Temperature: temperature,
	})

	if err != nil {
		logger.Infof("[AI] OpenAI API error: %v", err)
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	content := resp.Choices[0].Message.Content
	logger.Infof("[AI] OpenAI response length: %d chars", len(content))

	return &GenerationResult{
		Content:      content,
		Model:        resp.Model,
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	}, nil
}

// callAnthropic handles Anthropic Claude API using the native SDK
func (s *AIService) callAnthropic(ctx context.Context, model, prompt string) (*GenerationResult, error) {
	client := anthropic.NewClient(
		option.WithAPIKey(s.config.APIKey),
	)

	maxTokens := int64(s.config.MaxTokens)
	if maxTokens == 0 {
		maxTokens = 4096
	}

	if model == "" {
		model = "claude-sonnet-4-20250514"
	}

	resp, err := client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		logger.Infof("[AI] Anthropic API error: %v", err)
		return nil, fmt.Errorf("Anthropic API error: %w", err)
	}

	var content string
	for _, block := range resp.Content {
		if block.Type == "text" {
			content += block.Text
		}
	}

	logger.Infof("[AI] Anthropic response length: %d chars", len(content))

	return &GenerationResult{
		Content:      content,
		Model:        string(resp.Model),
		InputTokens:  int(resp.Usage.InputTokens),
		OutputTokens: int(resp.Usage.OutputTokens),
	}, nil
}

// callGemini handles Google Gemini API using the native SDK
func (s *AIService) callGemini(ctx context.Context, model, prompt string) (*GenerationResult, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: s.config.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("Gemini client error: %w", err)
	}

	if model == "" {
		model = "gemini-2.0-flash"
	}

	resp, err := client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		logger.Infof("[AI] Gemini API error: %v", err)
		return nil, fmt.Errorf("Gemini API error: %w", err)
	}

	content := resp.Text()
	logger.Infof("[AI] Gemini response length: %d chars", len(content))

	result := &GenerationResult{
		Content: content,
		Model:   model,
	}
	if resp.UsageMetadata != nil {
		result.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		result.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	return result, nil
}

// callOllama handles Ollama API using the native SDK
func (s *AIService) callOllama(ctx context.Context, model, prompt string) (*GenerationResult, error) {
	baseURL := s.config.BaseURL
	if baseURL == "" || strings.Contains(baseURL, "api.openai.com") {
		baseURL = "http://localhost:11434"
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Ollama base URL: %w", err)
	}
	client := api.NewClient(u, http.DefaultClient)

	if model == "" {
		model = "llama3"
	}

	var content strings.Builder
	var inputTokens, outputTokens int
	err = client.Chat(ctx, &api.ChatRequest{
		Model: model,
		Messages: []api.Message{
			{Role: "user", Content: prompt},
		},
		Options: map[string]interface{}{
			"temperature": s.config.Temperature,
		},
	}, func(resp api.ChatResponse) error {
		content.WriteString(resp.Message.Content)
		if resp.Done {
			inputTokens = resp.Metrics.PromptEvalCount
			outputTokens = resp.Metrics.EvalCount
		}
		return nil
	})

	if err != nil {
		logger.Infof("[AI] Ollama API error: %v", err)
		return nil, fmt.Errorf("Ollama API error: %w", err)
	}

	result := content.String()
	logger.Infof("[AI] Ollama response length: %d chars", len(result))

	return &GenerationResult{
		Content:      result,
		Model:        model,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
	}, nil
}
