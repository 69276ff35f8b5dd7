package wsocket

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"mizan_chat_go_backend/internal/services"
	"mizan_chat_go_backend/internal/utils/broker"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

type Handler struct {
	chatService services.ChatSender
	events      *broker.Broker[services.ConversationEvent]
	upgrader    websocket.Upgrader
}

type Message struct {
	Type      string `json:"type"`
	Content   string `json:"content"`
	SessionID string `json:"sessionId"`
	UserName  string `json:"userName,omitempty"`
	MessageID uint   `json:"messageId,omitempty"`
	Role      string `json:"role,omitempty"`
}

func NewHandler(chatService services.ChatSender, events *broker.Broker[services.ConversationEvent], upgrader websocket.Upgrader) *Handler {
	return &Handler{
		chatService: chatService,
		events:      events,
		upgrader:    upgrader,
	}
}

// HandleWebSocket serves one connection bound to a session. Chat turns sent
// over the socket run through the same flow as POST /api/chat, and every
// message stored for the session is pushed back as a message_saved event.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	log := zerolog.Ctx(r.Context())
	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		http.Error(w, "No sessionId provided", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// gorilla connections allow one concurrent writer
	var writeMu sync.Mutex
	write := func(msg Message) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.WriteJSON(msg)
	}

	if h.events != nil {
		updates := h.events.Subscribe(sessionID)
		defer h.events.Unsubscribe(sessionID, updates)

		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case event, ok := <-updates:
					if !ok {
						return
					}
					if err := write(Message{
						Type:      "message_saved",
						Content:   event.Content,
						SessionID: event.SessionID,
						MessageID: event.MessageID,
						Role:      event.Role,
					}); err != nil {
						log.Debug().Err(err).Msg("Failed to push conversation event")
						return
					}
				}
			}
		}()
	}

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug().Err(err).Str("sessionID", sessionID).Msg("WebSocket read ended")
			}
			return
		}

		switch msg.Type {
		case "message":
			h.handleChatMessage(ctx, sessionID, msg, write)
		case "ping":
			_ = write(Message{Type: "pong", SessionID: sessionID})
		default:
			_ = write(Message{Type: "error", Content: "unknown message type: " + msg.Type, SessionID: sessionID})
		}
	}
}

func (h *Handler) handleChatMessage(ctx context.Context, sessionID string, msg Message, write func(Message) error) {
	result, err := h.chatService.Send(ctx, services.ChatRequest{
		Message:   msg.Content,
		SessionID: sessionID,
		UserName:  msg.UserName,
	})
	if err != nil {
		_ = write(Message{Type: "error", Content: clientError(err), SessionID: sessionID})
		return
	}
	_ = write(Message{
		Type:      "ai",
		Content:   result.Response,
		SessionID: result.SessionID,
		MessageID: result.MessageID,
		Role:      "assistant",
	})
}

func clientError(err error) string {
	switch {
	case errors.Is(err, services.ErrEmptyMessage):
		return "Message is required"
	case errors.Is(err, services.ErrGatewayAuth):
		return "model provider rejected the API key"
	case errors.Is(err, services.ErrModelRequest):
		return err.Error()
	default:
		return "An unexpected error occurred"
	}
}
