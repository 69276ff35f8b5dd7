package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	DBDriver   string
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	SQLitePath string

	ModelProvider   string
	AnthropicAPIKey string
	GoogleAPIKey    string
	ModelName       string
	MaxOutputTokens int64
	InputTokenRate  float64
	OutputTokenRate float64

	KnowledgeBasePath string
	CannedAnswersPath string
	DefaultUserName   string
	SessionPrefix     string
	HistoryLimit      int

	AllowedOrigins    []string
	OperatorJWTSecret string
	ExportBucket      string

	LogLevel  string
	LogFormat string
}

const (
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// Load reads a .env file when present and builds the config from the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:              getEnv("PORT", "3000"),
		DBDriver:          getEnv("DB_DRIVER", "postgres"),
		DBHost:            os.Getenv("DB_HOST"),
		DBUser:            os.Getenv("DB_USER"),
		DBPassword:        os.Getenv("DB_PASSWORD"),
		DBName:            os.Getenv("DB_NAME"),
		DBPort:            getEnv("DB_PORT", "5432"),
		SQLitePath:        getEnv("SQLITE_PATH", "data/conversations.db"),
		ModelProvider:     strings.ToLower(getEnv("MODEL_PROVIDER", ProviderAnthropic)),
		AnthropicAPIKey:   os.Getenv("ANTHROPIC_API_KEY"),
		GoogleAPIKey:      os.Getenv("GOOGLE_AI_STUDIO_API_KEY"),
		ModelName:         os.Getenv("MODEL_NAME"),
		KnowledgeBasePath: getEnv("KNOWLEDGE_BASE_PATH", "MIZAN_KNOWLEDGE_BASE.md"),
		CannedAnswersPath: os.Getenv("CANNED_ANSWERS_PATH"),
		DefaultUserName:   getEnv("DEFAULT_USER_NAME", "معاوية"),
		SessionPrefix:     getEnv("SESSION_PREFIX", "muawiya"),
		AllowedOrigins:    strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
		OperatorJWTSecret: os.Getenv("OPERATOR_JWT_SECRET"),
		ExportBucket:      os.Getenv("EXPORT_BUCKET"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "json"),
	}

	var err error
	if cfg.MaxOutputTokens, err = getInt64("MAX_OUTPUT_TOKENS", 4096); err != nil {
		return nil, err
	}
	if cfg.InputTokenRate, err = getFloat("INPUT_TOKEN_RATE", 0.000003); err != nil {
		return nil, err
	}
	if cfg.OutputTokenRate, err = getFloat("OUTPUT_TOKEN_RATE", 0.000015); err != nil {
		return nil, err
	}
	limit, err := getInt64("HISTORY_LIMIT", 20)
	if err != nil {
		return nil, err
	}
	cfg.HistoryLimit = int(limit)

	if cfg.ModelName == "" {
		cfg.ModelName = defaultModel(cfg.ModelProvider)
	}

	return cfg, nil
}

// Validate checks the settings the HTTP server cannot start without.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}

	switch c.ModelProvider {
	case ProviderAnthropic:
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is not set in the environment")
		}
	case ProviderGemini:
		if c.GoogleAPIKey == "" {
			return fmt.Errorf("GOOGLE_AI_STUDIO_API_KEY is not set in the environment")
		}
	default:
		return fmt.Errorf("unsupported MODEL_PROVIDER %q", c.ModelProvider)
	}
	return nil
}

func defaultModel(provider string) string {
	if provider == ProviderGemini {
		return "gemini-1.5-flash-001"
	}
	return "claude-sonnet-4-20250514"
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt64(key string, fallback int64) (int64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s value %q", key, v)
	}
	return n, nil
}

func getFloat(key string, fallback float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		return 0, fmt.Errorf("invalid %s value %q", key, v)
	}
	return f, nil
}
