package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/afjltd/quotedesk/internal/config"
	"github.com/afjltd/quotedesk/internal/conversions"
)

var metricsWindow string

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Print conversion metrics from the quote ledger",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		store, closeStore, err := openLedger(cfg)
		if err != nil {
			return fmt.Errorf("opening ledger: %w", err)
		}
		defer closeStore()

		var filter conversions.Filter
		switch metricsWindow {
		case "week":
			filter.From = time.Now().AddDate(0, 0, -7)
		case "month":
			filter.From = time.Now().AddDate(0, -1, 0)
		case "all", "":
		default:
			return fmt.Errorf("window must be week, month or all")
		}

		metrics, err := conversions.NewAggregator(store).Metrics(filter)
		if err != nil {
			return fmt.Errorf("reading ledger: %w", err)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(metrics)
	},
}

func init() {
	metricsCmd.Flags().StringVar(&metricsWindow, "window", "all", "time window: week, month or all")
	rootCmd.AddCommand(metricsCmd)
}
