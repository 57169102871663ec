package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ProviderKind selects the backend a Config talks to.
type ProviderKind string

const (
	ProviderGemini ProviderKind = "gemini"
	ProviderOpenAI ProviderKind = "openai"
	ProviderCustom ProviderKind = "custom"
)

const (
	DefaultGeminiModel = "gemini-3-flash-preview"
	DefaultOpenAIBase  = "https://api.openai.com/v1"

	validationPrompt = "Hello, are you online? Reply with yes."
)

var ErrMissingBaseURL = errors.New("custom provider requires a base URL")

// Config is the persisted provider selection.
type Config struct {
	Provider ProviderKind `json:"provider" validate:"required,oneof=gemini openai custom"`
	APIKey   string       `json:"apiKey" validate:"required_if=Provider gemini"`
	BaseURL  string       `json:"baseUrl,omitempty" validate:"omitempty,url"`
	Model    string       `json:"model"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the config's shape. It does not contact the provider.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Provider == ProviderCustom && c.BaseURL == "" {
		return ErrMissingBaseURL
	}
	return nil
}

// Masked returns a copy safe to show to clients.
func (c Config) Masked() Config {
	if n := len(c.APIKey); n > 4 {
		c.APIKey = strings.Repeat("*", n-4) + c.APIKey[n-4:]
	} else if n > 0 {
		c.APIKey = strings.Repeat("*", n)
	}
	return c
}

// Role of a message author.
type Role string

const (
	RoleUser   Role = "user"
	RoleModel  Role = "model"
	RoleSystem Role = "system"
)

// Blob is inline binary content such as an image or PDF. Data is raw bytes;
// it travels as base64 in JSON.
type Blob struct {
	MIMEType string `json:"mimeType" validate:"required"`
	Data     []byte `json:"data" validate:"required"`
}

// Part is text or inline data.
type Part struct {
	Text       string `json:"text,omitempty"`
	InlineData *Blob  `json:"inlineData,omitempty"`
}

// Message is one turn of a conversation.
type Message struct {
	Role  Role   `json:"role"`
	Parts []Part `json:"parts"`
}

// UserText builds a single-part user message.
func UserText(text string) Message {
	return Message{Role: RoleUser, Parts: []Part{{Text: text}}}
}

// Provider produces text for a conversation.
type Provider interface {
	Generate(ctx context.Context, messages []Message, systemInstruction string) (string, error)
}

// New returns the provider a config selects.
func New(ctx context.Context, cfg Config, client *http.Client) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI config: %w", err)
	}
	if client == nil {
		client = http.DefaultClient
	}

	switch cfg.Provider {
	case ProviderGemini:
		return NewGemini(ctx, cfg.APIKey, cfg.Model, client)
	default:
		return NewOpenAI(cfg.BaseURL, cfg.APIKey, cfg.Model, client), nil
	}
}

// ValidateConnection sends a trivial prompt and reports whether the
// provider answered. The error explains a failure.
func ValidateConnection(ctx context.Context, p Provider) (bool, error) {
	if _, err := p.Generate(ctx, []Message{UserText(validationPrompt)}, ""); err != nil {
		return false, err
	}
	return true, nil
}
