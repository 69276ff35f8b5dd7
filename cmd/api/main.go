package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"mizan_chat_go_backend/cmd/api/config"
	"mizan_chat_go_backend/internal/api"
	"mizan_chat_go_backend/internal/auth"
	"mizan_chat_go_backend/internal/database"
	"mizan_chat_go_backend/internal/logging"
	"mizan_chat_go_backend/internal/services"
	"mizan_chat_go_backend/internal/utils/broker"
	"mizan_chat_go_backend/internal/wsocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logging.New("info", "console", os.Stderr)
		bootLog.Fatal().Err(err).Msg("Invalid configuration")
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx := context.Background()

	db, err := database.Open(database.Options{
		Driver:     cfg.DBDriver,
		Host:       cfg.DBHost,
		User:       cfg.DBUser,
		Password:   cfg.DBPassword,
		Name:       cfg.DBName,
		Port:       cfg.DBPort,
		SQLitePath: cfg.SQLitePath,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}

	knowledge, err := services.LoadKnowledgeBase(cfg.KnowledgeBasePath, cfg.DefaultUserName, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build system prompt")
	}

	canned, err := services.LoadCannedAnswers(cfg.CannedAnswersPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load canned answers")
	}

	var gateway services.ModelGateway
	switch cfg.ModelProvider {
	case config.ProviderGemini:
		gemini, err := services.NewGeminiGateway(ctx, cfg.GoogleAPIKey, cfg.ModelName, cfg.MaxOutputTokens)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create Gemini gateway")
		}
		defer gemini.Close()
		gateway = gemini
	default:
		gateway = services.NewAnthropicGateway(cfg.AnthropicAPIKey, cfg.ModelName, cfg.MaxOutputTokens)
	}

	// Initialize Internal services
	store := services.NewConversationServiceDB(db, cfg.DefaultUserName, cfg.ModelName)
	events := broker.NewBroker[services.ConversationEvent](16)
	chatService := services.NewChatService(
		store,
		gateway,
		knowledge,
		services.Pricing{InputRate: cfg.InputTokenRate, OutputRate: cfg.OutputTokenRate},
		cfg.HistoryLimit,
		cfg.SessionPrefix,
		events,
	)

	var archiver services.Archiver
	if cfg.ExportBucket != "" {
		gcsService, err := services.NewGCSService(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create GCS service")
		}
		defer gcsService.Close()
		archiver = services.NewExportArchiver(gcsService, cfg.ExportBucket)
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), logging.Middleware(log))

	// CORS middleware configuration
	corsConfig := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{"Content-Length", "Content-Disposition", logging.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
		corsConfig.AllowCredentials = true
	}
	r.Use(cors.New(corsConfig))

	api.SetupRoutes(r, api.Dependencies{
		Chat:       chatService,
		Store:      store,
		Knowledge:  knowledge,
		Canned:     canned,
		Archiver:   archiver,
		AuthSecret: cfg.OperatorJWTSecret,
	})

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
	wsHandler := wsocket.NewHandler(chatService, events, upgrader)
	r.GET("/ws", auth.AuthMiddleware(cfg.OperatorJWTSecret), func(c *gin.Context) {
		wsHandler.HandleWebSocket(c.Writer, c.Request)
	})

	log.Info().
		Str("port", cfg.Port).
		Str("provider", gateway.Name()).
		Str("model", cfg.ModelName).
		Str("database", cfg.DBDriver).
		Bool("knowledgeBaseLoaded", knowledge.Loaded()).
		Int("cannedAnswers", canned.Len()).
		Msg("Server starting")
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("Failed to start server")
	}
}
