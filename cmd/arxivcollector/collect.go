package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"arxivcollector/pkg/arxiv"
	"arxivcollector/pkg/collector"
	"arxivcollector/pkg/config"
	"arxivcollector/pkg/logger"
	"arxivcollector/pkg/store"
	"arxivcollector/pkg/ui"
)

var (
	// Collect command flags
	databasePath     string
	requestDelay     time.Duration
	requestTimeout   time.Duration
	pageSize         int
	maxResults       int
	noResume         bool
	retryInterrupted bool
)

// collectCmd represents the collect command
var collectCmd = &cobra.Command{
	Use:   "collect <keywords-file>",
	Short: "Collect papers for every keyword in a file",
	Long: `Collect papers from the arXiv API for every keyword in a
newline-delimited file.

Keywords are loaded into the database once; progress is tracked per keyword
so an interrupted or failed run can be resumed by running the same command
again. Papers are deduplicated across keywords by arXiv ID.`,
	Example: `  # Collect with default settings
  arxivcollector collect subtopics_artificial_intelligence.txt

  # Use a specific database and a slower request pace
  arxivcollector collect keywords.txt --database ai_papers.db --delay 5s

  # Start fresh, re-seeding keywords from the file
  arxivcollector collect keywords.txt --no-resume

  # Also retry keywords interrupted by a previous shutdown
  arxivcollector collect keywords.txt --retry-interrupted`,
	Args: cobra.ExactArgs(1),
	RunE: runCollect,
}

func init() {
	rootCmd.AddCommand(collectCmd)

	collectCmd.Flags().StringVarP(&databasePath, "database", "d", "", "SQLite database path (default: arxiv_papers.db)")
	collectCmd.Flags().DurationVar(&requestDelay, "delay", 3*time.Second, "delay between API requests")
	collectCmd.Flags().DurationVar(&requestTimeout, "timeout", 30*time.Second, "per-request timeout")
	collectCmd.Flags().IntVar(&pageSize, "page-size", 500, "results per API request")
	collectCmd.Flags().IntVar(&maxResults, "max-results", 2000, "maximum results collected per keyword")
	collectCmd.Flags().BoolVar(&noResume, "no-resume", false, "re-seed keywords from the file instead of resuming")
	collectCmd.Flags().BoolVar(&retryInterrupted, "retry-interrupted", false, "treat interrupted keywords as resumable")
}

func runCollect(cmd *cobra.Command, args []string) error {
	keywordsFile := args[0]

	// Build flags map from command line
	flags := make(map[string]interface{})
	if databasePath != "" {
		flags["database"] = databasePath
	}
	if cmd.Flags().Changed("delay") {
		flags["request-delay"] = requestDelay
	}
	if cmd.Flags().Changed("timeout") {
		flags["request-timeout"] = requestTimeout
	}
	if cmd.Flags().Changed("page-size") {
		flags["page-size"] = pageSize
	}
	if cmd.Flags().Changed("max-results") {
		flags["max-results"] = maxResults
	}
	if cmd.Flags().Changed("retry-interrupted") {
		flags["retry-interrupted"] = retryInterrupted
	}
	if logLevel != "info" {
		flags["log-level"] = logLevel
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		return err
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		ui.PrintError("Failed to initialize logging", err.Error())
		return err
	}
	log := logger.GetLogger()
	log.WithField("version", version).Info("arXiv collector starting")

	// Cooperative shutdown: the context is observed at checkpoints between
	// pages and between keywords
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	freshDatabase := !fileExists(cfg.Storage.DatabasePath)

	st, err := store.Open(cfg.Storage.DatabasePath)
	if err != nil {
		log.WithError(err).Error("Failed to open store")
		return err
	}
	defer st.Close()

	// Seed keywords on a fresh database or an explicit fresh start;
	// loading is idempotent either way
	if noResume || freshDatabase {
		if _, err := collector.LoadKeywordsFile(ctx, st, keywordsFile); err != nil {
			log.WithError(err).Error("Failed to load keywords")
			return err
		}
	}

	client := arxiv.NewClient(&cfg.Arxiv, &cfg.RateLimit, log)
	c := collector.New(cfg, client, st)

	ui.PrintInfo("Database", cfg.Storage.DatabasePath)
	ui.PrintInfo("Keywords file", keywordsFile)

	if err := c.Run(ctx); err != nil {
		log.WithError(err).Error("Collection run failed")
		ui.PrintError("COLLECTION FAILED", err.Error())
		return err
	}

	if ctx.Err() != nil {
		// Cooperative shutdown is a normal exit, not a failure
		ui.PrintWarning("Collection interrupted, progress saved")
		return nil
	}

	ui.PrintSuccess("Collection completed")
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
