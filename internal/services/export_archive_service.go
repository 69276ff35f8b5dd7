package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"mizan_chat_go_backend/internal/models"

	"cloud.google.com/go/storage"
)

// GCSService stores objects in Google Cloud Storage.
type GCSService struct {
	client *storage.Client
}

func NewGCSService(ctx context.Context) (*GCSService, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return &GCSService{client: client}, nil
}

func (s *GCSService) UploadFile(ctx context.Context, bucketName, objectName string, content io.Reader) error {
	writer := s.client.Bucket(bucketName).Object(objectName).NewWriter(ctx)
	writer.ContentType = "application/json"
	if _, err := io.Copy(writer, content); err != nil {
		_ = writer.Close()
		return err
	}
	return writer.Close()
}

func (s *GCSService) Close() error {
	return s.client.Close()
}

// ExportArchiver copies conversation exports into a bucket.
type ExportArchiver struct {
	storage    CloudStorageUploader
	bucketName string
}

func NewExportArchiver(uploader CloudStorageUploader, bucketName string) *ExportArchiver {
	return &ExportArchiver{storage: uploader, bucketName: bucketName}
}

// Archive uploads the export as indented JSON and returns the object name.
func (a *ExportArchiver) Archive(ctx context.Context, export *models.ConversationExport) (string, error) {
	if export == nil || export.Session == nil {
		return "", fmt.Errorf("nothing to archive")
	}
	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode export: %w", err)
	}
	objectName := fmt.Sprintf("exports/conversation-%s-%s.json",
		export.Session.SessionID, export.ExportedAt.UTC().Format("20060102T150405Z"))
	if err := a.storage.UploadFile(ctx, a.bucketName, objectName, bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("failed to upload export %s: %w", objectName, err)
	}
	return objectName, nil
}

// ExportFilename is the attachment name used for downloads.
func ExportFilename(sessionID, ext string) string {
	return fmt.Sprintf("conversation-%s.%s", sessionID, ext)
}
