package cmd

import (
	"fmt"
	"io"
	"os"

	"mizan_chat_go_backend/cmd/api/config"
	"mizan_chat_go_backend/internal/database"
	"mizan_chat_go_backend/internal/services"

	"github.com/spf13/cobra"
	"gorm.io/gorm/logger"
)

// storeFactory opens the conversation store; tests swap it for an in-memory one.
var storeFactory = openStore

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "convctl",
		Short:         "Inspect and manage stored conversations",
		Long:          "convctl reads the conversation database directly, using the same environment as the API server.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newSessionsCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newArchiveCmd())
	rootCmd.AddCommand(newTokenCmd())
	return rootCmd
}

func openStore() (services.ConversationServiceDB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	db, err := database.Open(database.Options{
		Driver:     cfg.DBDriver,
		Host:       cfg.DBHost,
		User:       cfg.DBUser,
		Password:   cfg.DBPassword,
		Name:       cfg.DBName,
		Port:       cfg.DBPort,
		SQLitePath: cfg.SQLitePath,
		LogLevel:   logger.Silent,
	})
	if err != nil {
		return nil, err
	}
	return services.NewConversationServiceDB(db, cfg.DefaultUserName, cfg.ModelName), nil
}

func outputWriter(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}
