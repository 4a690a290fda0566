// Package cmd implements the bestmuadata command line: crawl runs, exports,
// validation and database maintenance.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"sjsage522/bestmuadata/config"
	"sjsage522/bestmuadata/logger"
	apperrors "sjsage522/bestmuadata/pkg/errors"
)

// rootOptions holds the global flags and the state built from them before
// a subcommand runs.
type rootOptions struct {
	verbose     bool
	logFile     string
	databaseURL string
	baseURL     string
	exportDir   string

	cfg     *config.Config
	log     *logger.Logger
	logSink *os.File
}

// Execute runs the command tree until it finishes or the process is
// interrupted.
func Execute() error {
	// .env is optional
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return NewRootCommand().ExecuteContext(ctx)
}

// Exit codes returned by ExitCode
const (
	exitFailure = 1
	exitUsage   = 2
)

// ExitCode maps a command error to a process exit status. Errors caused by
// the invocation itself, such as bad configuration or an unknown category,
// exit with 2; every other failure exits with 1.
func ExitCode(err error) int {
	var ce *apperrors.CrawlerError
	if errors.As(err, &ce) && ce.IsFatal() {
		return exitUsage
	}
	return exitFailure
}

// NewRootCommand builds a fresh command tree
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "bestmuadata",
		Short:         "Crawl bestmua.vn into a relational store and export SQL dumps",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			opts.teardown()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := root.PersistentFlags()
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	flags.StringVar(&opts.logFile, "log-file", "", "also write logs to this file")
	flags.StringVar(&opts.databaseURL, "database-url", "", "database URL (overrides DATABASE_URL)")
	flags.StringVar(&opts.baseURL, "base-url", "", "site root (overrides BASE_URL)")
	flags.StringVar(&opts.exportDir, "export-dir", "", "export directory (overrides EXPORT_DIR)")

	root.AddCommand(
		newCrawlCommand(opts),
		newIncrementalCommand(opts),
		newCrawlCategoryCommand(opts),
		newExportCommand(opts),
		newValidateCommand(opts),
		newStatsCommand(opts),
		newCleanupCommand(opts),
		newInitDBCommand(opts),
	)
	return root
}

// setup initializes logging and loads the configuration. Flags win over
// the environment.
func (o *rootOptions) setup() error {
	logOpts := logger.Options{Verbose: o.verbose}
	if o.logFile != "" {
		f, err := os.OpenFile(o.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		o.logSink = f
		logOpts.File = f
	}
	logger.Init(logOpts)
	o.log = logger.ForComponent("cli")

	cfg := config.LoadConfig()
	if o.databaseURL != "" {
		cfg.DatabaseURL = o.databaseURL
	}
	if o.baseURL != "" {
		cfg.BaseURL = o.baseURL
	}
	if o.exportDir != "" {
		cfg.ExportDir = o.exportDir
	}
	o.cfg = cfg
	return nil
}

func (o *rootOptions) teardown() {
	if o.logSink != nil {
		o.logSink.Close()
		o.logSink = nil
	}
}
