package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"mizan_chat_go_backend/internal/models"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAnthropicTestGateway(t *testing.T, handler http.HandlerFunc) *AnthropicGateway {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewAnthropicGateway("test-key", "claude-test", 256,
		option.WithBaseURL(server.URL),
		option.WithMaxRetries(0),
	)
}

func TestAnthropicGatewayComplete(t *testing.T) {
	var received struct {
		Model     string `json:"model"`
		MaxTokens int64  `json:"max_tokens"`
		System    []struct {
			Text string `json:"text"`
		} `json:"system"`
		Messages []struct {
			Role string `json:"role"`
		} `json:"messages"`
	}

	gateway := newAnthropicTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/v1/messages"))
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"model": "claude-test",
			"content": [{"type": "text", "text": "15 عميل نشط"}],
			"stop_reason": "end_turn",
			"stop_sequence": null,
			"usage": {"input_tokens": 50, "output_tokens": 30}
		}`))
	})

	completion, err := gateway.Complete(context.Background(), "be helpful", []Turn{
		{Role: models.RoleUser, Content: "hi"},
		{Role: models.RoleAssistant, Content: "hello"},
		{Role: models.RoleUser, Content: "كم عميل نشط؟"},
	})
	require.NoError(t, err)

	assert.Equal(t, "15 عميل نشط", completion.Text)
	assert.Equal(t, int64(50), completion.InputTokens)
	assert.Equal(t, int64(30), completion.OutputTokens)
	assert.Equal(t, "claude-test", completion.Model)

	assert.Equal(t, "claude-test", received.Model)
	assert.Equal(t, int64(256), received.MaxTokens)
	require.Len(t, received.System, 1)
	assert.Equal(t, "be helpful", received.System[0].Text)
	require.Len(t, received.Messages, 3)
	assert.Equal(t, "user", received.Messages[0].Role)
	assert.Equal(t, "assistant", received.Messages[1].Role)
	assert.Equal(t, "user", received.Messages[2].Role)
}

func TestAnthropicGatewayErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantAuth bool
	}{
		{
			name:     "invalid key",
			status:   http.StatusUnauthorized,
			body:     `{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`,
			wantAuth: true,
		},
		{
			name:     "bad request",
			status:   http.StatusBadRequest,
			body:     `{"type":"error","error":{"type":"invalid_request_error","message":"max_tokens too large"}}`,
			wantAuth: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gateway := newAnthropicTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := gateway.Complete(context.Background(), "", []Turn{{Role: models.RoleUser, Content: "hi"}})
			require.Error(t, err)
			assert.Equal(t, tt.wantAuth, errorIsGatewayAuth(err))
		})
	}
}

func TestAnthropicGatewayEmptyConversation(t *testing.T) {
	gateway := NewAnthropicGateway("key", "", 0)
	_, err := gateway.Complete(context.Background(), "", nil)
	assert.ErrorIs(t, err, ErrEmptyConversation)
	assert.Equal(t, "anthropic", gateway.Name())
	assert.Equal(t, int64(4096), gateway.maxTokens)
}
