package ai

import (
	"context"
	"fmt"
	"net/http"

	"google.golang.org/genai"
)

// GeminiProvider calls the Gemini API through the official SDK.
type GeminiProvider struct {
	client *genai.Client
	model  string
}

var _ Provider = (*GeminiProvider)(nil)

// NewGemini creates a Gemini client. An empty model selects the default.
func NewGemini(ctx context.Context, apiKey, model string, httpClient *http.Client) (*GeminiProvider, error) {
	return newGemini(ctx, apiKey, model, httpClient, genai.HTTPOptions{})
}

func newGemini(ctx context.Context, apiKey, model string, httpClient *http.Client, opts genai.HTTPOptions) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  httpClient,
		HTTPOptions: opts,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiProvider{client: client, model: model}, nil
}

// toContents maps messages to SDK contents. Gemini has no system role in
// contents, so system turns are sent as user turns.
func toContents(messages []Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(messages))
	for _, msg := range messages {
		role := genai.RoleUser
		if msg.Role == RoleModel {
			role = genai.RoleModel
		}

		parts := make([]*genai.Part, 0, len(msg.Parts))
		for _, p := range msg.Parts {
			switch {
			case p.Text != "":
				parts = append(parts, genai.NewPartFromText(p.Text))
			case p.InlineData != nil:
				parts = append(parts, genai.NewPartFromBytes(p.InlineData.Data, p.InlineData.MIMEType))
			}
		}
		contents = append(contents, &genai.Content{Role: role, Parts: parts})
	}
	return contents
}

func (p *GeminiProvider) Generate(ctx context.Context, messages []Message, systemInstruction string) (string, error) {
	var config *genai.GenerateContentConfig
	if systemInstruction != "" {
		config = &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
		}
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, toContents(messages), config)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}
	return resp.Text(), nil
}
