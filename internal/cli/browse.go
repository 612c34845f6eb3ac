package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/stwalsh4118/projectmap/internal/clock"
	"github.com/stwalsh4118/projectmap/internal/config"
	"github.com/stwalsh4118/projectmap/internal/logger"
	"github.com/stwalsh4118/projectmap/internal/tui"
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Launch the interactive project browser",
	Long: `Launch the terminal project browser.

Tabs:
  Map      markers around the selected location, with popups
  List     project cards in result order
  Nearby   projects sorted by distance, filterable
  Summary  counts by type, status and distance
  Filters  location, property types and building status

Controls:
  tab/shift+tab  Switch tabs
  ↑/k, ↓/j       Move the cursor
  enter/space    Select / toggle
  /              Keyword search
  d              More details in the open popup
  esc            Close popup
  r              Reset filters
  q              Quit

Diagnostics are written to PROJECTMAP_LOG_FILE.`,
	RunE: runBrowse,
}

func init() {
	rootCmd.AddCommand(browseCmd)
}

func runBrowse(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadClient()
	if err != nil {
		return err
	}

	logFile, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logFile.Close()

	log := logger.NewWithWriter(logFile, cfg.Env)
	log.Info("Starting browser", map[string]interface{}{
		"server": cfg.ServerURL,
		"limit":  cfg.ResultLimit,
	})

	p := newPipeline(cfg, configDefaults(cfg), clock.Real(), log)
	err = tui.Run(cmd.Context(), p.session)
	p.session.Engine.Wait()
	return err
}
