package llm

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"doc-compliance-checker/internal/config"

	genai "github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const defaultGeminiModel = "gemini-2.0-flash"

// GeminiClient calls Google Gemini through the generative-ai SDK.
// Two model handles share one connection: one constrained to JSON output,
// one for free text.
type GeminiClient struct {
	client    *genai.Client
	jsonModel *genai.GenerativeModel
	textModel *genai.GenerativeModel
	timeout   time.Duration
}

// NewGeminiClient creates a Gemini client from config
func NewGeminiClient(ctx context.Context, cfg config.LLMConfig) (*GeminiClient, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}

	c, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	name := modelWithDefault(cfg.Model, defaultGeminiModel)

	jsonModel := c.GenerativeModel(name)
	jsonModel.SetTemperature(float32(cfg.Temperature))
	if cfg.MaxTokens > 0 {
		jsonModel.SetMaxOutputTokens(int32(cfg.MaxTokens))
	}
	jsonModel.ResponseMIMEType = "application/json"

	textModel := c.GenerativeModel(name)
	textModel.SetTemperature(float32(cfg.Temperature))
	if cfg.MaxTokens > 0 {
		textModel.SetMaxOutputTokens(int32(cfg.MaxTokens))
	}

	log.Printf("[LLM] Gemini client initialized (model=%s)", name)
	return &GeminiClient{
		client:    c,
		jsonModel: jsonModel,
		textModel: textModel,
		timeout:   cfg.Timeout,
	}, nil
}

// GenerateJSON implements Client
func (g *GeminiClient) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	return g.generate(ctx, g.jsonModel, prompt)
}

// GenerateText implements Client
func (g *GeminiClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	return g.generate(ctx, g.textModel, prompt)
}

// Close releases the underlying connection
func (g *GeminiClient) Close() error {
	return g.client.Close()
}

func (g *GeminiClient) generate(ctx context.Context, model *genai.GenerativeModel, prompt string) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("Gemini API request failed: %w", err)
	}

	txt := firstText(resp)
	if txt == "" {
		return "", fmt.Errorf("no response from Gemini")
	}
	return txt, nil
}

// firstText concatenates the text parts of the first candidate
func firstText(r *genai.GenerateContentResponse) string {
	if r == nil || len(r.Candidates) == 0 || r.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range r.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String()
}
