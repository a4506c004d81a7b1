package ai

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider calls the OpenAI chat completions API or any compatible endpoint
type OpenAIProvider struct {
	client *openai.Client
	model  string
	name   string
}

func NewOpenAIProvider(apiKey, baseURL, model string) *OpenAIProvider {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAIProvider{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		name:   "openai",
	}
}

// NewOllamaProvider talks to a local Ollama server through its
// OpenAI-compatible /v1 endpoint
func NewOllamaProvider(baseURL, model string) *OpenAIProvider {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	baseURL = strings.TrimSuffix(baseURL, "/")
	if !strings.HasSuffix(baseURL, "/v1") {
		baseURL += "/v1"
	}
	p := NewOpenAIProvider("ollama", baseURL, model)
	p.name = "ollama"
	return p
}

func (p *OpenAIProvider) Name() string {
	return p.name
}

func (p *OpenAIProvider) Generate(ctx context.Context, req Request) (string, error) {
	chatReq := openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		Temperature: 0.2,
	}
	if req.JSON() {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return "", fmt.Errorf("%s chat completion: %w", p.name, err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}
