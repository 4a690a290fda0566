package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"sjsage522/bestmuadata/internal/model"
	"sjsage522/bestmuadata/internal/orchestrator"
	"sjsage522/bestmuadata/internal/store"
)

// recentSessionCount is how many sessions the stats command lists
const recentSessionCount = 10

func newExportCommand(o *rootOptions) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write SQL dumps of the stored data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := o.openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			var stats model.ExportStats
			if category != "" {
				stats, err = a.exporter.ExportCategory(ctx, category)
			} else {
				var orch *orchestrator.Orchestrator
				if orch, err = a.orchestrator(ctx); err != nil {
					return err
				}
				stats, err = orch.ExportAllData(ctx)
			}
			if err != nil {
				return err
			}
			renderExportStats(cmd.OutOrStdout(), "Export", stats)
			if len(stats.Files) > 0 {
				renderFiles(cmd.OutOrStdout(), "Files in "+a.exporter.Dir(), stats.Files)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "export only this category and its subcategories")
	return cmd
}

func newValidateCommand(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Replay every dump into an empty database and report failures",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := o.openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			report, err := a.exporter.ValidateAll(ctx)
			if err != nil {
				return err
			}
			renderValidation(cmd.OutOrStdout(), report)
			if report.InvalidFiles > 0 {
				return fmt.Errorf("%d of %d export files are invalid", report.InvalidFiles, report.TotalFiles)
			}
			return nil
		},
	}
}

func newStatsCommand(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show entity counts and recent crawl sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := o.openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			stats, err := a.store.DatabaseStats(ctx)
			if err != nil {
				return err
			}
			sessions, err := a.store.RecentSessions(ctx, recentSessionCount)
			if err != nil {
				return err
			}

			renderDatabaseStats(cmd.OutOrStdout(), stats)
			if len(sessions) > 0 {
				renderSessions(cmd.OutOrStdout(), sessions)
			}
			return nil
		},
	}
}

func newCleanupCommand(o *rootOptions) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete old crawl sessions and export files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if days < 1 {
				return errors.New("--days must be at least 1")
			}

			ctx := cmd.Context()
			a, err := o.openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			sessions, err := a.store.CleanupSessions(ctx, days)
			if err != nil {
				return err
			}
			files, err := a.exporter.CleanupOldExports(days)
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d crawl sessions and %d export files older than %d days\n", sessions, files, days)
			return err
		},
	}

	cmd.Flags().IntVar(&days, "days", 30, "remove entries older than N days")
	return cmd
}

func newInitDBCommand(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init-db",
		Short: "Create the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.cfg.Validate(); err != nil {
				return err
			}
			// Open creates missing tables and indexes
			s, err := store.Open(cmd.Context(), o.cfg.DatabaseURL, o.log)
			if err != nil {
				return err
			}
			defer s.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "Database schema ready (%s)\n", s.Dialect())
			return nil
		},
	}
}
