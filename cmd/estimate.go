package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/afjltd/quotedesk/internal/config"
	"github.com/afjltd/quotedesk/internal/pricing"
)

var (
	estimateService string
	estimateAnswers []string
)

var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Price a trip from the command line",
	Long: `Computes a quote band against the configured pricing rules without
touching the ledger. Answers are passed as repeated --answer key=value
flags, for example:

  quotedesk estimate --service private-hire --answer passengers=9-16 --answer returnType=same-day`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		rules, err := pricing.LoadRules(cfg.RulesPath)
		if err != nil {
			return fmt.Errorf("loading pricing rules: %w", err)
		}

		answers := pricing.Answers{}
		for _, pair := range estimateAnswers {
			key, value, ok := strings.Cut(pair, "=")
			if !ok {
				return fmt.Errorf("invalid answer %q, expected key=value", pair)
			}
			answers[key] = value
		}

		est, err := pricing.NewEngine(rules).Estimate(estimateService, answers, nil)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(est)
	},
}

func init() {
	estimateCmd.Flags().StringVar(&estimateService, "service", "", "service to price (required)")
	estimateCmd.Flags().StringArrayVar(&estimateAnswers, "answer", nil, "answer as key=value (repeatable)")
	estimateCmd.MarkFlagRequired("service")
	rootCmd.AddCommand(estimateCmd)
}
