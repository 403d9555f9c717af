package llm

import (
	"context"
	"fmt"
	"log"
	"time"

	"doc-compliance-checker/internal/config"

	openai "github.com/sashabaranov/go-openai"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAIClient calls the OpenAI chat completions API
type OpenAIClient struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	timeout     time.Duration
}

// NewOpenAIClient creates an OpenAI client from config
func NewOpenAIClient(cfg config.LLMConfig) (*OpenAIClient, error) {
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}

	clientCfg := openai.DefaultConfig(cfg.OpenAIAPIKey)
	if cfg.OpenAIBase != "" {
		clientCfg.BaseURL = cfg.OpenAIBase
	}

	model := modelWithDefault(cfg.Model, defaultOpenAIModel)
	log.Printf("[LLM] OpenAI client initialized (model=%s)", model)

	return &OpenAIClient{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       model,
		temperature: float32(cfg.Temperature),
		maxTokens:   cfg.MaxTokens,
		timeout:     cfg.Timeout,
	}, nil
}

// GenerateJSON implements Client
func (c *OpenAIClient) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	return c.complete(ctx, prompt, &openai.ChatCompletionResponseFormat{
		Type: openai.ChatCompletionResponseFormatTypeJSONObject,
	})
}

// GenerateText implements Client
func (c *OpenAIClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	return c.complete(ctx, prompt, nil)
}

// Close is a no-op; the HTTP client holds no resources worth releasing
func (c *OpenAIClient) Close() error {
	return nil
}

func (c *OpenAIClient) complete(ctx context.Context, prompt string, format *openai.ChatCompletionResponseFormat) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: format,
	}
	if c.maxTokens > 0 {
		req.MaxTokens = c.maxTokens
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("OpenAI API request failed: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("no response from OpenAI")
	}
	return resp.Choices[0].Message.Content, nil
}
