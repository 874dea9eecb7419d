package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"arxivcollector/pkg/config"
	"arxivcollector/pkg/logger"
	"arxivcollector/pkg/store"
	"arxivcollector/pkg/ui"
)

// summaryCmd reports aggregate store contents without fetching anything
var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show collection progress and exit",
	Long: `Show the aggregate state of the database: keyword status counts,
unique and linked paper counts, and processing totals. No API requests
are made.`,
	RunE: runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)

	summaryCmd.Flags().StringVarP(&databasePath, "database", "d", "", "SQLite database path (default: arxiv_papers.db)")
}

func runSummary(cmd *cobra.Command, args []string) error {
	flags := make(map[string]interface{})
	if databasePath != "" {
		flags["database"] = databasePath
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		return err
	}

	// Keep the console clean for the JSON output
	cfg.Logging.Level = "error"
	if err := logger.Initialize(&cfg.Logging); err != nil {
		return err
	}

	if !fileExists(cfg.Storage.DatabasePath) {
		return fmt.Errorf("database %s does not exist", cfg.Storage.DatabasePath)
	}

	st, err := store.Open(cfg.Storage.DatabasePath)
	if err != nil {
		return err
	}
	defer st.Close()

	summary, err := st.GetSummary(context.Background())
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}

	fmt.Println(string(data))
	return nil
}
