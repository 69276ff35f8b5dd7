package services

import (
	"context"
	"io"

	"mizan_chat_go_backend/internal/models"
)

type CloudStorageUploader interface {
	UploadFile(ctx context.Context, bucketName, objectName string, content io.Reader) error
}

type ChatSender interface {
	Send(ctx context.Context, req ChatRequest) (*ChatResult, error)
}

type Archiver interface {
	Archive(ctx context.Context, export *models.ConversationExport) (string, error)
}
