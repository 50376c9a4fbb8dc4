package oracle

import (
	"context"
	"fmt"
	"time"

	"github.com/dostlabs/dost-server/internal/domain"
	"google.golang.org/genai"
)

// GeminiConfig holds configuration for the Gemini-backed oracle.
type GeminiConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

// DefaultGeminiConfig returns default model and timeout settings.
func DefaultGeminiConfig() GeminiConfig {
	return GeminiConfig{
		Model:   "gemini-1.5-flash",
		Timeout: 30 * time.Second,
	}
}

// GeminiClient implements Client on top of the Google Gemini API.
type GeminiClient struct {
	client *genai.Client
	model  string
	// timeout bounds every remote call so no chat request blocks
	// indefinitely.
	timeout time.Duration
}

// Ensure GeminiClient implements Client.
var _ Client = (*GeminiClient)(nil)

// NewGeminiClient creates a Gemini oracle client.
func NewGeminiClient(ctx context.Context, cfg GeminiConfig) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultGeminiConfig().Model
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultGeminiConfig().Timeout
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.APIKey})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &GeminiClient{
		client:  client,
		model:   cfg.Model,
		timeout: cfg.Timeout,
	}, nil
}

// StartChat opens a Gemini chat seeded with the system context as the first
// user turn followed by the given opening turns.
func (g *GeminiClient) StartChat(ctx context.Context, system string, seed []domain.Turn) (Chat, error) {
	history := make([]*genai.Content, 0, len(seed)+1)
	history = append(history, genai.NewContentFromText(system, genai.RoleUser))
	for _, turn := range seed {
		var role genai.Role = genai.RoleUser
		if turn.Role == domain.RoleAssistant {
			role = genai.RoleModel
		}
		history = append(history, genai.NewContentFromText(turn.Content, role))
	}

	chat, err := g.client.Chats.Create(ctx, g.model, nil, history)
	if err != nil {
		return nil, fmt.Errorf("start gemini chat: %w", err)
	}
	return &geminiChat{chat: chat, timeout: g.timeout}, nil
}

// Generate performs a one-shot completion.
func (g *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.client.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}, nil)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("gemini generate: empty response")
	}
	return text, nil
}

type geminiChat struct {
	chat    *genai.Chat
	timeout time.Duration
}

func (c *geminiChat) Send(ctx context.Context, message string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.chat.SendMessage(ctx, genai.Part{Text: message})
	if err != nil {
		return "", fmt.Errorf("gemini send: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("gemini send: empty response")
	}
	return text, nil
}
