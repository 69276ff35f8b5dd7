package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"mizan_chat_go_backend/internal/auth"
	apperrors "mizan_chat_go_backend/internal/errors"
	"mizan_chat_go_backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const (
	serviceName         = "Mizan Grok API"
	historyViewLimit    = 100
	maxHistoryViewLimit = 1000
)

type Dependencies struct {
	Chat      services.ChatSender
	Store     services.ConversationServiceDB
	Knowledge *services.KnowledgeBase
	Canned    *services.CannedAnswers
	// Archiver is optional; when set, JSON exports are also copied to storage.
	Archiver   services.Archiver
	AuthSecret string
}

func SetupRoutes(r *gin.Engine, deps Dependencies) {
	r.GET("/health", healthHandler(deps.Store, deps.Knowledge))

	api := r.Group("/api", auth.AuthMiddleware(deps.AuthSecret))
	{
		api.POST("/chat", chatHandler(deps.Chat))
		api.POST("/clear", clearHandler(deps.Store))
		api.GET("/history/:sessionId", historyHandler(deps.Store))
		api.GET("/export/:sessionId", exportHandler(deps.Store, deps.Archiver))
		api.GET("/sessions", sessionsHandler(deps.Store))
		api.GET("/stats", statsHandler(deps.Store))
		api.POST("/insights", saveInsightHandler(deps.Store))
		api.POST("/ask", askHandler(deps.Canned))
	}
}

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
	UserName  string `json:"userName"`
}

func chatHandler(chat services.ChatSender) gin.HandlerFunc {
	return func(c *gin.Context) {
		var request chatRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			apperrors.HandleError(c, apperrors.New400Error("Message is required"))
			return
		}

		result, err := chat.Send(c.Request.Context(), services.ChatRequest{
			Message:   request.Message,
			SessionID: strings.TrimSpace(request.SessionID),
			UserName:  strings.TrimSpace(request.UserName),
		})
		if err != nil {
			apperrors.HandleError(c, chatError(err))
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"response":           result.Response,
			"sessionId":          result.SessionID,
			"conversationLength": result.ConversationLength,
			"tokens": gin.H{
				"input":  result.InputTokens,
				"output": result.OutputTokens,
				"total":  result.InputTokens + result.OutputTokens,
			},
			"cost": gin.H{
				"current": result.Cost,
				"total":   result.TotalCost,
			},
		})
	}
}

// chatError maps a failed chat turn onto the response the caller sees.
func chatError(err error) error {
	switch {
	case errors.Is(err, services.ErrEmptyMessage):
		return apperrors.New400Error("Message is required")
	case errors.Is(err, services.ErrGatewayAuth):
		return apperrors.NewUpstreamAuthError(err)
	case errors.Is(err, services.ErrModelRequest):
		return apperrors.NewUpstreamError(err)
	default:
		return apperrors.New500Error(err)
	}
}

func storeError(err error) error {
	if errors.Is(err, services.ErrSessionNotFound) {
		return apperrors.New404Error("Session not found")
	}
	return apperrors.New500Error(err)
}

func clearHandler(store services.ConversationServiceDB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var request struct {
			SessionID string `json:"sessionId" binding:"required"`
		}
		if err := c.ShouldBindJSON(&request); err != nil {
			apperrors.HandleError(c, apperrors.New400Error("sessionId is required"))
			return
		}

		if err := store.ArchiveSession(c.Request.Context(), request.SessionID); err != nil {
			apperrors.HandleError(c, storeError(err))
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message":   "تم أرشفة المحادثة",
			"sessionId": request.SessionID,
		})
	}
}

func historyHandler(store services.ConversationServiceDB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.Param("sessionId")
		limit := historyViewLimit
		if raw := c.Query("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				apperrors.HandleError(c, apperrors.New400Error("limit must be a positive integer"))
				return
			}
			limit = min(n, maxHistoryViewLimit)
		}

		ctx := c.Request.Context()
		history, err := store.GetRecentHistory(ctx, sessionID, limit)
		if err != nil {
			apperrors.HandleError(c, storeError(err))
			return
		}
		stats, err := store.GetSessionStats(ctx, sessionID)
		if err != nil {
			apperrors.HandleError(c, storeError(err))
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"history":   history,
			"stats":     stats,
			"sessionId": sessionID,
			"length":    len(history),
		})
	}
}

func exportHandler(store services.ConversationServiceDB, archiver services.Archiver) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.Param("sessionId")
		ctx := c.Request.Context()

		export, err := store.ExportSession(ctx, sessionID)
		if err != nil {
			apperrors.HandleError(c, storeError(err))
			return
		}

		if c.Query("format") == "pdf" {
			var buf bytes.Buffer
			if err := services.RenderExportPDF(&buf, export); err != nil {
				apperrors.HandleError(c, apperrors.New500Error(err))
				return
			}
			c.Header("Content-Disposition", attachment(services.ExportFilename(sessionID, "pdf")))
			c.Data(http.StatusOK, "application/pdf", buf.Bytes())
			return
		}

		data, err := json.MarshalIndent(export, "", "  ")
		if err != nil {
			apperrors.HandleError(c, apperrors.New500Error(err))
			return
		}

		if archiver != nil {
			if object, err := archiver.Archive(ctx, export); err != nil {
				zerolog.Ctx(ctx).Warn().Err(err).Str("sessionID", sessionID).Msg("Export archival failed")
			} else {
				zerolog.Ctx(ctx).Info().Str("object", object).Msg("Export archived")
			}
		}

		c.Header("Content-Disposition", attachment(services.ExportFilename(sessionID, "json")))
		c.Data(http.StatusOK, "application/json", data)
	}
}

// attachment builds a Content-Disposition value with the filename quoted or
// encoded as needed.
func attachment(filename string) string {
	if v := mime.FormatMediaType("attachment", map[string]string{"filename": filename}); v != "" {
		return v
	}
	return "attachment"
}

func sessionsHandler(store services.ConversationServiceDB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessions, err := store.ListSessions(c.Request.Context())
		if err != nil {
			apperrors.HandleError(c, storeError(err))
			return
		}
		c.JSON(http.StatusOK, gin.H{"sessions": sessions, "total": len(sessions)})
	}
}

func statsHandler(store services.ConversationServiceDB) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := store.DatabaseStats(c.Request.Context())
		if err != nil {
			apperrors.HandleError(c, storeError(err))
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}

func healthHandler(store services.ConversationServiceDB, knowledge *services.KnowledgeBase) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := store.DatabaseStats(c.Request.Context())
		if err != nil {
			zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("Health check failed")
			c.JSON(http.StatusInternalServerError, gin.H{
				"status": "ERROR",
				"error":  err.Error(),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":                "OK",
			"service":               serviceName,
			"timestamp":             time.Now().UTC().Format(time.RFC3339),
			"knowledge_base_loaded": knowledge.Loaded(),
			"database":              stats,
		})
	}
}

func saveInsightHandler(store services.ConversationServiceDB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var request struct {
			SessionID  string `json:"sessionId" binding:"required"`
			MessageID  *uint  `json:"messageId"`
			Category   string `json:"category" binding:"required"`
			Content    string `json:"content" binding:"required"`
			Importance string `json:"importance"`
		}
		if err := c.ShouldBindJSON(&request); err != nil {
			apperrors.HandleError(c, apperrors.New400Error(err.Error()))
			return
		}

		id, err := store.SaveInsight(c.Request.Context(), request.SessionID, request.MessageID,
			request.Category, request.Content, request.Importance)
		if err != nil {
			apperrors.HandleError(c, storeError(err))
			return
		}
		c.JSON(http.StatusCreated, gin.H{"id": id})
	}
}

func askHandler(canned *services.CannedAnswers) gin.HandlerFunc {
	return func(c *gin.Context) {
		var request struct {
			Question string `json:"question" binding:"required"`
		}
		if err := c.ShouldBindJSON(&request); err != nil {
			apperrors.HandleError(c, apperrors.New400Error("question is required"))
			return
		}

		answer, ok := canned.Lookup(request.Question)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"matched": false, "question": request.Question})
			return
		}
		c.JSON(http.StatusOK, gin.H{"matched": true, "question": request.Question, "answer": answer})
	}
}
