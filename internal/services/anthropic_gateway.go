package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"mizan_chat_go_backend/internal/models"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicGateway implements ModelGateway with the Messages API.
type AnthropicGateway struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

func NewAnthropicGateway(apiKey, model string, maxTokens int64, opts ...option.RequestOption) *AnthropicGateway {
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &AnthropicGateway{
		client:    anthropic.NewClient(opts...),
		model:     model,
		maxTokens: maxTokens,
	}
}

func (g *AnthropicGateway) Name() string { return "anthropic" }

func (g *AnthropicGateway) Complete(ctx context.Context, systemPrompt string, turns []Turn) (*Completion, error) {
	if len(turns) == 0 {
		return nil, ErrEmptyConversation
	}

	messages := make([]anthropic.MessageParam, 0, len(turns))
	for _, turn := range turns {
		block := anthropic.NewTextBlock(turn.Content)
		if turn.Role == models.RoleAssistant {
			messages = append(messages, anthropic.NewAssistantMessage(block))
		} else {
			messages = append(messages, anthropic.NewUserMessage(block))
		}
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(g.model),
		MaxTokens: g.maxTokens,
		Messages:  messages,
	}
	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: systemPrompt}}
	}

	resp, err := g.client.Messages.New(ctx, params)
	if err != nil {
		return nil, classifyAnthropicError(err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	return &Completion{
		Text:         text.String(),
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
		Model:        string(resp.Model),
	}, nil
}

func classifyAnthropicError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden {
			return fmt.Errorf("%w: %v", ErrGatewayAuth, err)
		}
	}
	return fmt.Errorf("anthropic request failed: %w", err)
}
