package cmd

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "quotedesk",
	Short: "Quote estimation and conversion tracking for AFJ Limited",
	Long: `Quotedesk prices private hire and airport transfer trips, records every
quote in an append-only ledger, answers customer questions through a
conversational assistant, and tracks which quotes turn into bookings.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "quotedesk.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
