package client

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"agro-service/internal/model"
)

const demoReplyLimit = 120

// Completer produces the assistant's next reply for a conversation.
type Completer interface {
	Complete(ctx context.Context, modelName string, messages []model.ChatMessage) (string, error)
}

type GeminiClient struct {
	client *genai.Client
}

func NewGeminiClient(ctx context.Context, apiKey string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, errors.New("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("genai client init failed: %w", err)
	}

	return &GeminiClient{client: client}, nil
}

func (g *GeminiClient) Complete(ctx context.Context, modelName string, messages []model.ChatMessage) (string, error) {
	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		if m.Role == model.ChatRoleAssistant {
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		} else {
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}

	resp, err := g.client.Models.GenerateContent(ctx, modelName, contents, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", errors.New("no content returned from model")
	}

	return strings.TrimSpace(resp.Text()), nil
}

// DemoCompleter echoes the last message. It stands in for the hosted model when no
// API key is configured.
type DemoCompleter struct{}

func NewDemoCompleter() *DemoCompleter {
	return &DemoCompleter{}
}

func (DemoCompleter) Complete(_ context.Context, _ string, messages []model.ChatMessage) (string, error) {
	last := ""
	if len(messages) > 0 {
		last = messages[len(messages)-1].Content
	}
	runes := []rune(last)
	if len(runes) > demoReplyLimit {
		runes = runes[:demoReplyLimit]
	}
	return "Demo reply: " + string(runes), nil
}
