package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"mizan_chat_go_backend/internal/models"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// GeminiGateway implements ModelGateway on the Google AI Studio API.
type GeminiGateway struct {
	client    *genai.Client
	model     string
	maxTokens int32
}

func NewGeminiGateway(ctx context.Context, apiKey, model string, maxTokens int64) (*GeminiGateway, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GeminiGateway{
		client:    client,
		model:     model,
		maxTokens: int32(maxTokens),
	}, nil
}

func (g *GeminiGateway) Name() string { return "gemini" }

func (g *GeminiGateway) Close() error {
	return g.client.Close()
}

func (g *GeminiGateway) Complete(ctx context.Context, systemPrompt string, turns []Turn) (*Completion, error) {
	history, last, err := splitGeminiTurns(turns)
	if err != nil {
		return nil, err
	}

	model := g.client.GenerativeModel(g.model)
	if g.maxTokens > 0 {
		model.SetMaxOutputTokens(g.maxTokens)
	}
	if systemPrompt != "" {
		model.SystemInstruction = genai.NewUserContent(genai.Text(systemPrompt))
	}

	cs := model.StartChat()
	cs.History = history

	resp, err := cs.SendMessage(ctx, genai.Text(last))
	if err != nil {
		return nil, classifyGeminiError(err)
	}

	completion := &Completion{Model: g.model, Text: geminiResponseText(resp)}
	if resp.UsageMetadata != nil {
		completion.InputTokens = int64(resp.UsageMetadata.PromptTokenCount)
		completion.OutputTokens = int64(resp.UsageMetadata.CandidatesTokenCount)
	}
	return completion, nil
}

// splitGeminiTurns separates prior turns from the message being sent.
// The chat API expects the final turn to come from the user.
func splitGeminiTurns(turns []Turn) ([]*genai.Content, string, error) {
	if len(turns) == 0 {
		return nil, "", ErrEmptyConversation
	}
	last := turns[len(turns)-1]
	if last.Role != models.RoleUser {
		return nil, "", fmt.Errorf("last turn must come from the user, got %q", last.Role)
	}

	history := make([]*genai.Content, 0, len(turns)-1)
	for _, turn := range turns[:len(turns)-1] {
		role := "user"
		if turn.Role == models.RoleAssistant {
			role = "model"
		}
		history = append(history, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(turn.Content)},
		})
	}
	return history, last.Content, nil
}

func geminiResponseText(resp *genai.GenerateContentResponse) string {
	var text strings.Builder
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}
	return text.String()
}

func classifyGeminiError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && (apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden) {
		return fmt.Errorf("%w: %v", ErrGatewayAuth, err)
	}
	switch status.Code(err) {
	case codes.Unauthenticated, codes.PermissionDenied:
		return fmt.Errorf("%w: %v", ErrGatewayAuth, err)
	}
	return fmt.Errorf("gemini request failed: %w", err)
}
