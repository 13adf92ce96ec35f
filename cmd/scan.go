package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"catalog-reconciler/core/config"
	"catalog-reconciler/core/database"
	"catalog-reconciler/core/logger"
	"catalog-reconciler/core/scan"
	scanfeature "catalog-reconciler/feature/scan"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Flags for scan run command
	scanTypeFlag   string
	sourceTypeFlag string
	sourceIDFlag   int64
)

// scanCmd is the parent command for all scan operations.
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan external sources against the local catalog",
	Long: `Scan an external ERP or storefront source against the local catalog.
Detects unlinked matches, products missing locally, and products missing
in the source.`,
}

// scanRunCmd runs one scan session to completion in the foreground.
var scanRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a scan session and wait for it to finish",
	Long: `Create a scan session and run it to completion.

The session and its results are persisted the same way as API-triggered
scans, so they can be reviewed and resolved over HTTP afterwards.

Examples:
  # Find source products that match local ones but are not linked yet
  scan run --type links --source-type erp

  # Find source products with no local counterpart, on one source instance
  scan run --type missing_in_local --source-type storefront --source-id 2

  # Find local products absent from the source
  scan run --type missing_in_source --source-type erp`,
	RunE: runScan,
}

func init() {
	scanCmd.AddCommand(scanRunCmd)

	scanRunCmd.Flags().StringVar(&scanTypeFlag, "type", "links", "Scan type (links, missing_in_local, missing_in_source)")
	scanRunCmd.Flags().StringVar(&sourceTypeFlag, "source-type", "", "External source type (required)")
	scanRunCmd.Flags().Int64Var(&sourceIDFlag, "source-id", 0, "Source instance ID (0 means the default instance)")
	_ = scanRunCmd.MarkFlagRequired("source-type")

	RootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	// SIGINT cancels the context; the runner stops at the next page boundary.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	l, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	// Connect to database
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	service := scanfeature.NewService(db, l, cfg.Scan)

	var sourceID *int64
	if sourceIDFlag > 0 {
		sourceID = &sourceIDFlag
	}

	session, err := service.CreateSession(ctx, scan.ScanType(scanTypeFlag), sourceTypeFlag, sourceID, "cli")
	if err != nil {
		return fmt.Errorf("failed to create scan session: %w", err)
	}

	l.Info("Scan session created",
		zap.Int64("session_id", session.ID),
		zap.String("scan_type", scanTypeFlag),
		zap.String("source_type", sourceTypeFlag),
	)

	session, err = service.Run(ctx, session.ID)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	printScanReport(l, session)
	return nil
}

// printScanReport prints the session outcome using the logger.
func printScanReport(l *zap.Logger, session *scan.Session) {
	l.Info("Scan finished",
		zap.Int64("session_id", session.ID),
		zap.String("status", string(session.Status)),
		zap.Int("total_scanned", session.Counts.TotalScanned),
		zap.Int("matched", session.Counts.Matched),
		zap.Int("unmatched", session.Counts.Unmatched),
		zap.Int("errors", session.Counts.Errors),
	)
}
