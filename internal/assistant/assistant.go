// Package assistant produces agency-specific chat replies with the OpenAI
// chat completions API.
package assistant

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"gopkg.in/yaml.v3"

	"luxury-leads-backend/internal/store"
)

//go:embed persona.yaml
var defaultPersona []byte

// Persona is the YAML-configured part of every system prompt.
type Persona struct {
	Preamble string `yaml:"preamble"`
	Style    struct {
		Temperature float32 `yaml:"temperature"`
		MaxTokens   int     `yaml:"max_tokens"`
	} `yaml:"style"`
}

// LoadPersona reads a persona file; an empty path returns the built-in one.
func LoadPersona(path string) (Persona, error) {
	b := defaultPersona
	if path != "" {
		var err error
		b, err = os.ReadFile(path)
		if err != nil {
			return Persona{}, fmt.Errorf("failed to read persona %s: %w", path, err)
		}
	}
	var p Persona
	if err := yaml.Unmarshal(b, &p); err != nil {
		return Persona{}, fmt.Errorf("failed to parse persona: %w", err)
	}
	return p, nil
}

// Responder answers one visitor message on behalf of an agency.
type Responder interface {
	Reply(ctx context.Context, agency store.Agency, message string) (string, error)
}

type OpenAIResponder struct {
	persona Persona
	client  *openai.Client
	model   string
}

// NewOpenAIResponder builds a responder; baseURL may be empty for the public API.
func NewOpenAIResponder(apiKey, baseURL, model string, persona Persona) *OpenAIResponder {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	return &OpenAIResponder{
		persona: persona,
		client:  openai.NewClientWithConfig(cfg),
		model:   model,
	}
}

// Messages builds the completion input: one system message with the persona
// preamble and the agency prompt, then the visitor message.
func (r *OpenAIResponder) Messages(agency store.Agency, message string) []openai.ChatCompletionMessage {
	var sys strings.Builder
	if p := strings.TrimSpace(r.persona.Preamble); p != "" {
		sys.WriteString(p)
		sys.WriteString("\n\n")
	}
	sys.WriteString(strings.TrimSpace(agency.Prompt))
	if agency.AssistantName != "" {
		fmt.Fprintf(&sys, "\n\nYour name is %s and you represent %s.", agency.AssistantName, agency.Name)
	}
	return []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: sys.String()},
		{Role: openai.ChatMessageRoleUser, Content: message},
	}
}

func (r *OpenAIResponder) Reply(ctx context.Context, agency store.Agency, message string) (string, error) {
	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       r.model,
		Temperature: r.persona.Style.Temperature,
		MaxTokens:   r.persona.Style.MaxTokens,
		Messages:    r.Messages(agency, message),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
