package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	dummyKey         = "dummy-key"
	temperature      = 0.7
	errorBodyPreview = 200
)

// OpenAIProvider calls an OpenAI-compatible chat/completions endpoint
// (OpenAI, Ollama, LM Studio, vLLM, etc.).
type OpenAIProvider struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

var _ Provider = (*OpenAIProvider)(nil)

// APIError is a non-2xx reply from the provider.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	body := e.Body
	if len(body) > errorBodyPreview {
		body = body[:errorBodyPreview]
	}
	return fmt.Sprintf("AI API Error (%d): %s...", e.Status, body)
}

// NewOpenAI creates a provider. An empty base URL means OpenAI itself and
// an empty key is sent as a placeholder for local servers.
func NewOpenAI(baseURL, apiKey, model string, client *http.Client) *OpenAIProvider {
	baseURL = strings.TrimSuffix(baseURL, "/")
	if baseURL == "" {
		baseURL = DefaultOpenAIBase
	}
	if apiKey == "" {
		apiKey = dummyKey
	}
	return &OpenAIProvider{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		client:  client,
	}
}

// ============================================================================
// Wire format
// ============================================================================

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	Stream      bool          `json:"stream"`
}

// chatMessage content is a plain string for text-only turns and a list of
// contentPart otherwise.
type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func toChatMessages(messages []Message, systemInstruction string) []chatMessage {
	out := make([]chatMessage, 0, len(messages)+1)
	if systemInstruction != "" {
		out = append(out, chatMessage{Role: "system", Content: systemInstruction})
	}

	for _, msg := range messages {
		role := "user"
		switch msg.Role {
		case RoleModel:
			role = "assistant"
		case RoleSystem:
			role = "system"
		}

		var parts []contentPart
		for _, p := range msg.Parts {
			switch {
			case p.Text != "":
				parts = append(parts, contentPart{Type: "text", Text: p.Text})
			case p.InlineData != nil:
				uri := "data:" + p.InlineData.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(p.InlineData.Data)
				parts = append(parts, contentPart{Type: "image_url", ImageURL: &imageURL{URL: uri}})
			}
		}

		if len(parts) == 1 && parts[0].Type == "text" {
			out = append(out, chatMessage{Role: role, Content: parts[0].Text})
			continue
		}
		if parts == nil {
			parts = []contentPart{}
		}
		out = append(out, chatMessage{Role: role, Content: parts})
	}
	return out
}

// ============================================================================
// Provider interface
// ============================================================================

// Generate sends one chat/completions request. There are no retries.
func (p *OpenAIProvider) Generate(ctx context.Context, messages []Message, systemInstruction string) (string, error) {
	reqBody := chatRequest{
		Model:       p.model,
		Messages:    toChatMessages(messages, systemInstruction),
		Temperature: temperature,
		Stream:      false,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("AI request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &APIError{Status: resp.StatusCode, Body: string(body)}
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("failed to decode AI response: %w", err)
	}

	if len(chatResp.Choices) == 0 {
		return "", nil
	}
	return chatResp.Choices[0].Message.Content, nil
}
