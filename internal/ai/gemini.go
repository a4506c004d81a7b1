package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiProvider calls Google Gemini with schema-constrained JSON output
type GeminiProvider struct {
	client *genai.Client
	model  string
}

func NewGeminiProvider(ctx context.Context, apiKey, model string) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &GeminiProvider{client: client, model: model}, nil
}

func (p *GeminiProvider) Name() string {
	return "gemini"
}

func (p *GeminiProvider) Generate(ctx context.Context, req Request) (string, error) {
	// GenerativeModel carries per-call settings, so build one per request.
	model := p.client.GenerativeModel(p.model)
	model.SetTemperature(0.2)
	if req.JSON() {
		model.ResponseMIMEType = "application/json"
		model.ResponseSchema = responseSchema(req.Format)
	}

	resp, err := model.GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}

	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
		// first candidate with content wins
		if sb.Len() > 0 {
			break
		}
	}
	return sb.String(), nil
}

func (p *GeminiProvider) Close() error {
	return p.client.Close()
}

func responseSchema(format Format) *genai.Schema {
	switch format {
	case FormatInvoiceSeed:
		return &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"clientName": {Type: genai.TypeString},
				"email":      {Type: genai.TypeString, Nullable: true},
				"address":    {Type: genai.TypeString, Nullable: true},
				"items": {
					Type: genai.TypeArray,
					Items: &genai.Schema{
						Type: genai.TypeObject,
						Properties: map[string]*genai.Schema{
							"name":      {Type: genai.TypeString},
							"quantity":  {Type: genai.TypeNumber},
							"unitPrice": {Type: genai.TypeNumber},
						},
						Required: []string{"name", "quantity", "unitPrice"},
					},
				},
				"error": {Type: genai.TypeString, Nullable: true},
			},
		}
	case FormatInsights:
		return &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"insights": {
					Type:  genai.TypeArray,
					Items: &genai.Schema{Type: genai.TypeString},
				},
			},
			Required: []string{"insights"},
		}
	default:
		return nil
	}
}
