package wsocket

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mizan_chat_go_backend/internal/services"
	"mizan_chat_go_backend/internal/utils/broker"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockChatSender struct {
	mock.Mock
}

func (m *MockChatSender) Send(ctx context.Context, req services.ChatRequest) (*services.ChatResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ChatResult), args.Error(1)
}

func startServer(t *testing.T, chat services.ChatSender, events *broker.Broker[services.ConversationEvent]) *httptest.Server {
	t.Helper()
	handler := NewHandler(chat, events, websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	})
	server := httptest.NewServer(http.HandlerFunc(handler.HandleWebSocket))
	t.Cleanup(server.Close)
	return server
}

func dial(t *testing.T, server *httptest.Server, sessionID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?sessionId=" + sessionID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestHandleWebSocketRequiresSessionID(t *testing.T) {
	handler := NewHandler(new(MockChatSender), nil, websocket.Upgrader{})
	w := httptest.NewRecorder()
	handler.HandleWebSocket(w, httptest.NewRequest(http.MethodGet, "/ws", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleWebSocketChat(t *testing.T) {
	chat := new(MockChatSender)
	events := broker.NewBroker[services.ConversationEvent](4)
	server := startServer(t, chat, events)
	conn := dial(t, server, "s1")

	require.NoError(t, conn.WriteJSON(Message{Type: "ping"}))
	pong := readMessage(t, conn)
	assert.Equal(t, "pong", pong.Type)
	assert.Equal(t, "s1", pong.SessionID)

	chat.On("Send", mock.Anything, services.ChatRequest{Message: "كم عميل نشط؟", SessionID: "s1", UserName: "op"}).
		Return(&services.ChatResult{Response: "15", SessionID: "s1", MessageID: 7}, nil).Once()

	require.NoError(t, conn.WriteJSON(Message{Type: "message", Content: "كم عميل نشط؟", UserName: "op"}))
	reply := readMessage(t, conn)
	assert.Equal(t, "ai", reply.Type)
	assert.Equal(t, "15", reply.Content)
	assert.Equal(t, uint(7), reply.MessageID)
	chat.AssertExpectations(t)

	delivered := events.Publish("s1", services.ConversationEvent{SessionID: "s1", MessageID: 8, Role: "user", Content: "saved"})
	assert.Equal(t, 1, delivered)
	saved := readMessage(t, conn)
	assert.Equal(t, "message_saved", saved.Type)
	assert.Equal(t, "saved", saved.Content)
	assert.Equal(t, uint(8), saved.MessageID)

	assert.Zero(t, events.Publish("other", services.ConversationEvent{SessionID: "other"}))
}

func TestHandleWebSocketErrors(t *testing.T) {
	chat := new(MockChatSender)
	server := startServer(t, chat, nil)
	conn := dial(t, server, "s1")

	require.NoError(t, conn.WriteJSON(Message{Type: "bogus"}))
	msg := readMessage(t, conn)
	assert.Equal(t, "error", msg.Type)
	assert.Contains(t, msg.Content, "bogus")

	chat.On("Send", mock.Anything, mock.Anything).
		Return(nil, errors.Join(services.ErrModelRequest, services.ErrGatewayAuth)).Once()
	require.NoError(t, conn.WriteJSON(Message{Type: "message", Content: "hi"}))
	msg = readMessage(t, conn)
	assert.Equal(t, "error", msg.Type)
	assert.Equal(t, "model provider rejected the API key", msg.Content)
}

func TestClientError(t *testing.T) {
	assert.Equal(t, "Message is required", clientError(services.ErrEmptyMessage))
	assert.Equal(t, "An unexpected error occurred", clientError(errors.New("disk")))
	assert.Contains(t, clientError(errors.Join(services.ErrModelRequest, errors.New("overloaded"))), "overloaded")
}
