package services

import (
	"context"
	"io"

	"mizan_chat_go_backend/internal/models"

	"github.com/stretchr/testify/mock"
)

type MockModelGateway struct {
	mock.Mock
}

func (m *MockModelGateway) Complete(ctx context.Context, systemPrompt string, turns []Turn) (*Completion, error) {
	args := m.Called(ctx, systemPrompt, turns)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Completion), args.Error(1)
}

func (m *MockModelGateway) Name() string {
	return "mock"
}

type MockConversationStore struct {
	mock.Mock
}

func (m *MockConversationStore) CreateSession(ctx context.Context, sessionID, userName string) error {
	args := m.Called(ctx, sessionID, userName)
	return args.Error(0)
}

func (m *MockConversationStore) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *MockConversationStore) ListSessions(ctx context.Context) ([]models.Session, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Session), args.Error(1)
}

func (m *MockConversationStore) AppendMessage(ctx context.Context, sessionID, role, content string, meta *MessageMetadata) (uint, error) {
	args := m.Called(ctx, sessionID, role, content, meta)
	return args.Get(0).(uint), args.Error(1)
}

func (m *MockConversationStore) GetRecentHistory(ctx context.Context, sessionID string, limit int) ([]models.Message, error) {
	args := m.Called(ctx, sessionID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Message), args.Error(1)
}

func (m *MockConversationStore) GetSessionStats(ctx context.Context, sessionID string) (*models.SessionStats, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SessionStats), args.Error(1)
}

func (m *MockConversationStore) ArchiveSession(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

func (m *MockConversationStore) SaveInsight(ctx context.Context, sessionID string, messageID *uint, category, content, importance string) (uint, error) {
	args := m.Called(ctx, sessionID, messageID, category, content, importance)
	return args.Get(0).(uint), args.Error(1)
}

func (m *MockConversationStore) GetInsights(ctx context.Context, sessionID string) ([]models.Insight, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Insight), args.Error(1)
}

func (m *MockConversationStore) ExportSession(ctx context.Context, sessionID string) (*models.ConversationExport, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ConversationExport), args.Error(1)
}

func (m *MockConversationStore) DatabaseStats(ctx context.Context) (*models.DatabaseStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DatabaseStats), args.Error(1)
}

type MockCloudStorageUploader struct {
	mock.Mock
}

func (m *MockCloudStorageUploader) UploadFile(ctx context.Context, bucketName, objectName string, content io.Reader) error {
	data, _ := io.ReadAll(content)
	args := m.Called(ctx, bucketName, objectName, data)
	return args.Error(0)
}
