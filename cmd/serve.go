package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/afjltd/quotedesk/internal/audit"
	"github.com/afjltd/quotedesk/internal/chat"
	"github.com/afjltd/quotedesk/internal/config"
	"github.com/afjltd/quotedesk/internal/conversions"
	"github.com/afjltd/quotedesk/internal/db"
	"github.com/afjltd/quotedesk/internal/extractor"
	"github.com/afjltd/quotedesk/internal/ledger"
	"github.com/afjltd/quotedesk/internal/llm"
	"github.com/afjltd/quotedesk/internal/notify"
	"github.com/afjltd/quotedesk/internal/pricing"
	"github.com/afjltd/quotedesk/internal/quotes"
	"github.com/afjltd/quotedesk/internal/ratelimit"
	"github.com/afjltd/quotedesk/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the quotedesk API server",
	Long:  `Starts the quotedesk server: quote estimates, the chat assistant, quote requests and conversion tracking.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if servePort != 0 {
			cfg.Port = servePort
		}

		rules, err := pricing.LoadRules(cfg.RulesPath)
		if err != nil {
			return fmt.Errorf("loading pricing rules: %w", err)
		}
		engine := pricing.NewEngine(rules)

		store, closeStore, err := openLedger(cfg)
		if err != nil {
			return fmt.Errorf("opening ledger: %w", err)
		}
		defer closeStore()

		auditLog, err := audit.NewFileLogger(cfg.AuditPath)
		if err != nil {
			return fmt.Errorf("opening audit log: %w", err)
		}

		var notifier notify.Notifier = notify.Nop{}
		if cfg.Notify.WebhookURL != "" {
			notifier = notify.NewWebhook(cfg.Notify.WebhookURL)
		}

		limiter := ratelimit.New()
		srv := server.New(server.Config{
			Port:     cfg.Port,
			AllowAll: cfg.AllowAllOrigins,
		})
		r := srv.Router()

		quotes.RegisterRoutes(r, quotes.NewHandler(engine, store, limiter, notifier))
		conversions.RegisterRoutes(r,
			conversions.NewAggregator(store),
			conversions.NewTracker(store, auditLog))

		// The chat assistant needs an API key; everything else works
		// without one.
		if provider, err := llm.NewProvider(cfg.LLM.Provider, cfg.LLM.Model); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: chat assistant disabled: %v\n", err)
		} else {
			fallback := fmt.Sprintf("I couldn't put a price together just now. Please contact %s and we'll sort a quote straight away.", cfg.Chat.FallbackContact)
			pipeline := extractor.NewPipeline(engine, store, fallback)
			retrier := llm.NewRetrier(provider, time.Duration(cfg.LLM.TimeoutSeconds)*time.Second)
			chat.RegisterRoutes(r, chat.NewHandler(retrier, pipeline, limiter, cfg.Chat, cfg.LLM.Model))
		}

		// Graceful shutdown.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-ctx.Done()
			fmt.Fprintln(os.Stderr, "\nShutting down server...")
			srv.Shutdown(context.Background())
		}()

		fmt.Fprintf(os.Stderr, "quotedesk v%s starting on port %d\n", Version, cfg.Port)
		fmt.Fprintf(os.Stderr, "  Ledger: %s (%s)\n", cfg.DataDir, ledgerBackend(cfg))
		fmt.Fprintf(os.Stderr, "  Rules: %s\n", cfg.RulesPath)

		return srv.Start()
	},
}

func ledgerBackend(cfg *config.Config) string {
	if cfg.Ledger.Backend == "" {
		return "file"
	}
	return cfg.Ledger.Backend
}

// openLedger selects the configured backend. The flat file is the
// default; sqlite is the indexed upgrade path.
func openLedger(cfg *config.Config) (ledger.Store, func(), error) {
	switch ledgerBackend(cfg) {
	case "sqlite":
		database, err := db.Open(filepath.Join(cfg.DataDir, "quotedesk.db"))
		if err != nil {
			return nil, nil, err
		}
		return ledger.NewSQLStore(database), func() { database.Close() }, nil
	default:
		store, err := ledger.NewFileStore(filepath.Join(cfg.DataDir, "quote-log.jsonl"), cfg.Ledger.MaxBytes)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	}
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides config)")
	rootCmd.AddCommand(serveCmd)
}
