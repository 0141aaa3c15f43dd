package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/form-autofill/internal/analyze"
	"github.com/jonathan/form-autofill/internal/cache"
	"github.com/jonathan/form-autofill/internal/fill"
	"github.com/jonathan/form-autofill/internal/llm"
	"github.com/jonathan/form-autofill/internal/logger"
	"github.com/jonathan/form-autofill/internal/server"
	"github.com/jonathan/form-autofill/internal/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes autofill sessions, review verdicts, progress streaming, and template cache administration for a browser-extension front end.`,
	RunE:  runServe,
}

var serveAddr string

func init() {
	addSessionFlags(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Address to listen on (default :8080)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("addr") {
		cfg.ListenAddr = serveAddr
	}
	if cfg.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable or config api_key is required")
	}

	log, err := logger.New(true, cfg.Verbose)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync() //nolint:errcheck

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close() //nolint:errcheck

	client, err := llm.NewClient(ctx, llm.DefaultConfig(), cfg.APIKey)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}
	defer client.Close() //nolint:errcheck

	templates := cache.New(store, nil, log)

	srv, err := server.New(server.Config{
		Addr:   cfg.ListenAddr,
		Cache:  templates,
		Logger: log,
		Runner: &browserRunner{
			analyzer:    analyze.New(client),
			templates:   templates,
			maxAttempts: cfg.MaxAttempts,
			verbose:     cfg.Verbose,
			logger:      log,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}

// browserRunner launches a headless browser per session and drives the
// controller against it. Serve mode always runs headless; the caller sees
// the result through fill reports, not a window.
type browserRunner struct {
	analyzer    *analyze.Analyzer
	templates   *cache.TemplateCache
	maxAttempts int
	verbose     bool
	logger      *zap.Logger
}

func (r *browserRunner) Run(ctx context.Context, req server.RunRequest, verifier session.Verifier) (*session.Outcome, error) {
	browser, err := fill.NewBrowser(ctx, fill.BrowserOptions{
		Headless: true,
		Verbose:  r.verbose,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	defer browser.Close()

	if err := browser.Navigate(req.URL, 60*time.Second); err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", req.URL, err)
	}

	controller := session.NewController(
		browser,
		r.analyzer,
		fill.NewExecutor(browser, r.verbose),
		r.templates,
		verifier,
		r.logger,
	)
	if r.maxAttempts > 0 {
		controller.SetMaxAttempts(r.maxAttempts)
	}

	return controller.Run(ctx, req.Profile, req.Job)
}
