package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"mizan_chat_go_backend/internal/models"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	DefaultHistoryLimit = 20
	ExportHistoryLimit  = 1000
	DefaultImportance   = "medium"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidRole     = errors.New("invalid message role")
)

// MessageMetadata carries the optional usage fields stored with a message.
type MessageMetadata struct {
	TokensInput  *int64
	TokensOutput *int64
	CostUSD      *float64
	Model        string
}

// ConversationServiceDB defines the persistence operations for sessions, messages and insights
type ConversationServiceDB interface {
	CreateSession(ctx context.Context, sessionID, userName string) error
	GetSession(ctx context.Context, sessionID string) (*models.Session, error)
	ListSessions(ctx context.Context) ([]models.Session, error)
	AppendMessage(ctx context.Context, sessionID, role, content string, meta *MessageMetadata) (uint, error)
	GetRecentHistory(ctx context.Context, sessionID string, limit int) ([]models.Message, error)
	GetSessionStats(ctx context.Context, sessionID string) (*models.SessionStats, error)
	ArchiveSession(ctx context.Context, sessionID string) error
	SaveInsight(ctx context.Context, sessionID string, messageID *uint, category, content, importance string) (uint, error)
	GetInsights(ctx context.Context, sessionID string) ([]models.Insight, error)
	ExportSession(ctx context.Context, sessionID string) (*models.ConversationExport, error)
	DatabaseStats(ctx context.Context) (*models.DatabaseStats, error)
}

// DefaultConversationService implements ConversationServiceDB on top of gorm
type DefaultConversationService struct {
	db              *gorm.DB
	defaultUserName string
	defaultModel    string
	now             func() time.Time
}

func NewConversationServiceDB(db *gorm.DB, defaultUserName, defaultModel string) *DefaultConversationService {
	return &DefaultConversationService{
		db:              db,
		defaultUserName: defaultUserName,
		defaultModel:    defaultModel,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// CreateSession inserts the session unless one with the same ID exists.
// An existing session keeps its name and counters.
func (s *DefaultConversationService) CreateSession(ctx context.Context, sessionID, userName string) error {
	if userName == "" {
		userName = s.defaultUserName
	}
	now := s.now()
	session := &models.Session{
		SessionID: sessionID,
		UserName:  userName,
		CreatedAt: now,
		UpdatedAt: now,
		Status:    models.SessionStatusActive,
	}
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(session)
	if result.Error != nil {
		return fmt.Errorf("failed to create session %s: %w", sessionID, result.Error)
	}
	if result.RowsAffected > 0 {
		zerolog.Ctx(ctx).Debug().Str("sessionID", sessionID).Msg("Session created")
	}
	return nil
}

func (s *DefaultConversationService) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	var session models.Session
	err := s.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}
	return &session, nil
}

// ListSessions returns every session, most recently updated first.
func (s *DefaultConversationService) ListSessions(ctx context.Context) ([]models.Session, error) {
	sessions := []models.Session{}
	if err := s.db.WithContext(ctx).Order("updated_at desc").Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

// AppendMessage stores a message for an existing session and bumps the
// session counter in the same transaction.
func (s *DefaultConversationService) AppendMessage(ctx context.Context, sessionID, role, content string, meta *MessageMetadata) (uint, error) {
	if role != models.RoleUser && role != models.RoleAssistant {
		return 0, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}

	model := s.defaultModel
	message := &models.Message{
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		Timestamp: s.now(),
	}
	if meta != nil {
		message.TokensInput = meta.TokensInput
		message.TokensOutput = meta.TokensOutput
		message.CostUSD = meta.CostUSD
		if meta.Model != "" {
			model = meta.Model
		}
	}
	if model != "" {
		message.Model = &model
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Session{}).Where("session_id = ?", sessionID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrSessionNotFound
		}
		if err := tx.Create(message).Error; err != nil {
			return err
		}
		return tx.Model(&models.Session{}).
			Where("session_id = ?", sessionID).
			UpdateColumns(map[string]interface{}{
				"message_count": gorm.Expr("message_count + ?", 1),
				"updated_at":    message.Timestamp,
			}).Error
	})
	if errors.Is(err, ErrSessionNotFound) {
		return 0, ErrSessionNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to append message to session %s: %w", sessionID, err)
	}
	return message.ID, nil
}

// GetRecentHistory returns the newest limit messages, oldest first.
func (s *DefaultConversationService) GetRecentHistory(ctx context.Context, sessionID string, limit int) ([]models.Message, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	messages := []models.Message{}
	err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("id desc").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load history for session %s: %w", sessionID, err)
	}
	slices.Reverse(messages)
	return messages, nil
}

type sessionAggregate struct {
	TotalMessages     int64
	UserMessages      int64
	AssistantMessages int64
	TotalTokensInput  int64
	TotalTokensOutput int64
	TotalCost         float64
}

func (s *DefaultConversationService) GetSessionStats(ctx context.Context, sessionID string) (*models.SessionStats, error) {
	var agg sessionAggregate
	err := s.db.WithContext(ctx).Model(&models.Message{}).
		Select(`COUNT(*) AS total_messages,
			COALESCE(SUM(CASE WHEN role = ? THEN 1 ELSE 0 END), 0) AS user_messages,
			COALESCE(SUM(CASE WHEN role = ? THEN 1 ELSE 0 END), 0) AS assistant_messages,
			COALESCE(SUM(tokens_input), 0) AS total_tokens_input,
			COALESCE(SUM(tokens_output), 0) AS total_tokens_output,
			COALESCE(SUM(cost_usd), 0) AS total_cost`, models.RoleUser, models.RoleAssistant).
		Where("session_id = ?", sessionID).
		Scan(&agg).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute stats for session %s: %w", sessionID, err)
	}

	stats := &models.SessionStats{
		TotalMessages:     agg.TotalMessages,
		UserMessages:      agg.UserMessages,
		AssistantMessages: agg.AssistantMessages,
		TotalTokensInput:  agg.TotalTokensInput,
		TotalTokensOutput: agg.TotalTokensOutput,
		TotalCost:         agg.TotalCost,
	}
	if agg.TotalMessages == 0 {
		return stats, nil
	}

	// MIN/MAX over timestamps do not scan portably, so read the edge rows.
	var first, last models.Message
	if err := s.db.WithContext(ctx).Where("session_id = ?", sessionID).Order("id asc").Limit(1).Find(&first).Error; err != nil {
		return nil, fmt.Errorf("failed to load first message for session %s: %w", sessionID, err)
	}
	if err := s.db.WithContext(ctx).Where("session_id = ?", sessionID).Order("id desc").Limit(1).Find(&last).Error; err != nil {
		return nil, fmt.Errorf("failed to load last message for session %s: %w", sessionID, err)
	}
	stats.FirstMessage = &first.Timestamp
	stats.LastMessage = &last.Timestamp
	return stats, nil
}

// ArchiveSession flips the session status. Messages and insights stay in place.
func (s *DefaultConversationService) ArchiveSession(ctx context.Context, sessionID string) error {
	result := s.db.WithContext(ctx).Model(&models.Session{}).
		Where("session_id = ?", sessionID).
		UpdateColumn("status", models.SessionStatusArchived)
	if result.Error != nil {
		return fmt.Errorf("failed to archive session %s: %w", sessionID, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrSessionNotFound
	}
	zerolog.Ctx(ctx).Info().Str("sessionID", sessionID).Msg("Session archived")
	return nil
}

func (s *DefaultConversationService) SaveInsight(ctx context.Context, sessionID string, messageID *uint, category, content, importance string) (uint, error) {
	if importance == "" {
		importance = DefaultImportance
	}
	if _, err := s.GetSession(ctx, sessionID); err != nil {
		return 0, err
	}
	insight := &models.Insight{
		SessionID:  sessionID,
		MessageID:  messageID,
		Category:   category,
		Content:    content,
		Importance: importance,
		Timestamp:  s.now(),
	}
	if err := s.db.WithContext(ctx).Create(insight).Error; err != nil {
		return 0, fmt.Errorf("failed to save insight for session %s: %w", sessionID, err)
	}
	return insight.ID, nil
}

// GetInsights returns the session's insights, newest first. Never nil.
func (s *DefaultConversationService) GetInsights(ctx context.Context, sessionID string) ([]models.Insight, error) {
	insights := []models.Insight{}
	err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("timestamp desc, id desc").
		Find(&insights).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load insights for session %s: %w", sessionID, err)
	}
	return insights, nil
}

func (s *DefaultConversationService) ExportSession(ctx context.Context, sessionID string) (*models.ConversationExport, error) {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	messages, err := s.GetRecentHistory(ctx, sessionID, ExportHistoryLimit)
	if err != nil {
		return nil, err
	}
	insights, err := s.GetInsights(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	stats, err := s.GetSessionStats(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &models.ConversationExport{
		Session:    session,
		Messages:   messages,
		Insights:   insights,
		Stats:      *stats,
		ExportedAt: s.now(),
	}, nil
}

func (s *DefaultConversationService) DatabaseStats(ctx context.Context) (*models.DatabaseStats, error) {
	db := s.db.WithContext(ctx)
	stats := &models.DatabaseStats{}

	if err := db.Model(&models.Session{}).Count(&stats.TotalSessions).Error; err != nil {
		return nil, fmt.Errorf("failed to count sessions: %w", err)
	}
	if err := db.Model(&models.Session{}).Where("status = ?", models.SessionStatusActive).Count(&stats.ActiveSessions).Error; err != nil {
		return nil, fmt.Errorf("failed to count active sessions: %w", err)
	}
	if err := db.Model(&models.Message{}).Count(&stats.TotalMessages).Error; err != nil {
		return nil, fmt.Errorf("failed to count messages: %w", err)
	}
	if err := db.Model(&models.Insight{}).Count(&stats.TotalInsights).Error; err != nil {
		return nil, fmt.Errorf("failed to count insights: %w", err)
	}
	err := db.Model(&models.Message{}).
		Select("COALESCE(SUM(cost_usd), 0)").
		Where("cost_usd IS NOT NULL").
		Row().Scan(&stats.TotalCost)
	if err != nil {
		return nil, fmt.Errorf("failed to sum message cost: %w", err)
	}
	return stats, nil
}
