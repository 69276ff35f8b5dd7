package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"mizan_chat_go_backend/cmd/api/config"
	"mizan_chat_go_backend/internal/auth"
	"mizan_chat_go_backend/internal/services"

	"github.com/golang-jwt/jwt"
	"github.com/spf13/cobra"
)

func newSessionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List sessions, most recently updated first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := storeFactory()
			if err != nil {
				return err
			}
			sessions, err := store.ListSessions(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "SESSION\tUSER\tMESSAGES\tSTATUS\tUPDATED")
			for _, s := range sessions {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", s.SessionID, s.UserName, s.MessageCount, s.Status, s.UpdatedAt.Format(time.RFC3339))
			}
			return tw.Flush()
		},
	}
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print database-wide counters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := storeFactory()
			if err != nil {
				return err
			}
			stats, err := store.DatabaseStats(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(cmd, stats)
		},
	}
}

func newHistoryCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history <session-id>",
		Short: "Print the most recent messages of a session, oldest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := storeFactory()
			if err != nil {
				return err
			}
			messages, err := store.GetRecentHistory(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}
			for _, m := range messages {
				fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s: %s\n", m.Timestamp.Format(time.RFC3339), m.Role, m.Content)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 100, "number of messages to show")
	return cmd
}

func newExportCmd() *cobra.Command {
	var (
		asPDF  bool
		output string
	)
	cmd := &cobra.Command{
		Use:   "export <session-id>",
		Short: "Export a session with its history, insights and stats",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := storeFactory()
			if err != nil {
				return err
			}
			export, err := store.ExportSession(cmd.Context(), args[0])
			if errors.Is(err, services.ErrSessionNotFound) {
				return fmt.Errorf("session %s not found", args[0])
			}
			if err != nil {
				return err
			}

			w, closeFn, err := outputWriter(cmd, output)
			if err != nil {
				return err
			}
			if asPDF {
				err = services.RenderExportPDF(w, export)
			} else {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				err = enc.Encode(export)
			}
			if cerr := closeFn(); err == nil {
				err = cerr
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&asPDF, "pdf", false, "render the transcript as PDF")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	return cmd
}

func newArchiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "archive <session-id>",
		Short: "Mark a session as archived; its messages are kept",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := storeFactory()
			if err != nil {
				return err
			}
			if err := store.ArchiveSession(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "session %s archived\n", args[0])
			return nil
		},
	}
}

func newTokenCmd() *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an operator token signed with OPERATOR_JWT_SECRET",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			secret := cfg.OperatorJWTSecret
			if secret == "" {
				return errors.New("OPERATOR_JWT_SECRET is not set")
			}
			token, err := auth.IssueToken(subject, secret, jwt.MapClaims{
				"iat": time.Now().Unix(),
				"exp": time.Now().Add(ttl).Unix(),
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "operator", "token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", 30*24*time.Hour, "token lifetime")
	return cmd
}

func writeJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
