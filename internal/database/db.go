package database

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"mizan_chat_go_backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Options struct {
	Driver     string
	Host       string
	User       string
	Password   string
	Name       string
	Port       string
	SQLitePath string
	LogLevel   logger.LogLevel
}

// Open connects to the configured database and migrates the conversation schema.
func Open(opts Options) (*gorm.DB, error) {
	dialector, err := dialectorFor(opts)
	if err != nil {
		return nil, err
	}

	level := opts.LogLevel
	if level == 0 {
		level = logger.Warn
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if opts.Driver == "sqlite" {
		// one connection: statements against the file are serialized
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sql handle: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Session{}, &models.Message{}, &models.Insight{}); err != nil {
		return fmt.Errorf("failed to auto migrate: %w", err)
	}
	return nil
}

func dialectorFor(opts Options) (gorm.Dialector, error) {
	switch opts.Driver {
	case "postgres", "":
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
			opts.Host,
			opts.User,
			opts.Password,
			opts.Name,
			opts.Port,
		)
		return postgres.Open(dsn), nil
	case "sqlite":
		if dir := filepath.Dir(opts.SQLitePath); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create data directory: %w", err)
			}
		}
		sep := "?"
		if strings.Contains(opts.SQLitePath, "?") {
			sep = "&"
		}
		return sqlite.Open(opts.SQLitePath + sep + "_foreign_keys=on&_busy_timeout=5000"), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}
}
