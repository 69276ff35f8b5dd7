package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"mizan_chat_go_backend/internal/models"
	"mizan_chat_go_backend/internal/utils/broker"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var ErrEmptyMessage = errors.New("message is required")

type ChatRequest struct {
	Message   string
	SessionID string
	UserName  string
}

type ChatResult struct {
	Response           string
	SessionID          string
	MessageID          uint
	ConversationLength int
	InputTokens        int64
	OutputTokens       int64
	Cost               float64
	TotalCost          float64
}

// ConversationEvent is published on the session's topic after each stored message.
type ConversationEvent struct {
	SessionID string    `json:"sessionId"`
	MessageID uint      `json:"messageId"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatService runs one question through store and gateway:
// ensure session, append user message, replay history, call the model,
// append the assistant reply.
type ChatService struct {
	store         ConversationServiceDB
	gateway       ModelGateway
	knowledge     *KnowledgeBase
	pricing       Pricing
	historyLimit  int
	sessionPrefix string
	events        *broker.Broker[ConversationEvent]
	now           func() time.Time
}

func NewChatService(
	store ConversationServiceDB,
	gateway ModelGateway,
	knowledge *KnowledgeBase,
	pricing Pricing,
	historyLimit int,
	sessionPrefix string,
	events *broker.Broker[ConversationEvent],
) *ChatService {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	return &ChatService{
		store:         store,
		gateway:       gateway,
		knowledge:     knowledge,
		pricing:       pricing,
		historyLimit:  historyLimit,
		sessionPrefix: sessionPrefix,
		events:        events,
		now:           time.Now,
	}
}

// NewSessionID derives a fresh session identifier from the current time.
// The random suffix keeps requests within the same millisecond apart.
func (s *ChatService) NewSessionID() string {
	id := fmt.Sprintf("%d-%s", s.now().UnixMilli(), uuid.New().String()[:8])
	if s.sessionPrefix == "" {
		return id
	}
	return s.sessionPrefix + "-" + id
}

func (s *ChatService) Knowledge() *KnowledgeBase {
	return s.knowledge
}

func (s *ChatService) Send(ctx context.Context, req ChatRequest) (*ChatResult, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, ErrEmptyMessage
	}
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = s.NewSessionID()
	}
	log := zerolog.Ctx(ctx).With().Str("sessionID", sessionID).Logger()

	if err := s.store.CreateSession(ctx, sessionID, req.UserName); err != nil {
		return nil, err
	}

	userMessageID, err := s.store.AppendMessage(ctx, sessionID, models.RoleUser, req.Message, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to save user message: %w", err)
	}
	s.publish(sessionID, userMessageID, models.RoleUser, req.Message)

	history, err := s.store.GetRecentHistory(ctx, sessionID, s.historyLimit)
	if err != nil {
		return nil, err
	}
	turns := make([]Turn, 0, len(history))
	for _, msg := range history {
		turns = append(turns, Turn{Role: msg.Role, Content: msg.Content})
	}

	systemPrompt := ""
	if s.knowledge != nil {
		systemPrompt = s.knowledge.SystemPrompt
	}

	log.Debug().Int("turns", len(turns)).Str("provider", s.gateway.Name()).Msg("Sending conversation to model")
	completion, err := s.gateway.Complete(ctx, systemPrompt, turns)
	if err != nil {
		log.Error().Err(err).Msg("Model request failed")
		return nil, fmt.Errorf("%w: %w", ErrModelRequest, err)
	}

	cost := s.pricing.Cost(completion.InputTokens, completion.OutputTokens)
	meta := &MessageMetadata{
		TokensInput:  &completion.InputTokens,
		TokensOutput: &completion.OutputTokens,
		CostUSD:      &cost,
		Model:        completion.Model,
	}
	assistantMessageID, err := s.store.AppendMessage(ctx, sessionID, models.RoleAssistant, completion.Text, meta)
	if err != nil {
		return nil, fmt.Errorf("failed to save AI response: %w", err)
	}
	s.publish(sessionID, assistantMessageID, models.RoleAssistant, completion.Text)

	stats, err := s.store.GetSessionStats(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	log.Info().
		Int64("inputTokens", completion.InputTokens).
		Int64("outputTokens", completion.OutputTokens).
		Float64("cost", cost).
		Msg("Chat turn completed")

	return &ChatResult{
		Response:           completion.Text,
		SessionID:          sessionID,
		MessageID:          assistantMessageID,
		ConversationLength: len(history) + 2,
		InputTokens:        completion.InputTokens,
		OutputTokens:       completion.OutputTokens,
		Cost:               cost,
		TotalCost:          stats.TotalCost,
	}, nil
}

func (s *ChatService) publish(sessionID string, messageID uint, role, content string) {
	if s.events == nil {
		return
	}
	s.events.Publish(sessionID, ConversationEvent{
		SessionID: sessionID,
		MessageID: messageID,
		Role:      role,
		Content:   content,
		Timestamp: s.now().UTC(),
	})
}
