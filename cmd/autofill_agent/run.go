package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/form-autofill/internal/analyze"
	"github.com/jonathan/form-autofill/internal/cache"
	"github.com/jonathan/form-autofill/internal/config"
	"github.com/jonathan/form-autofill/internal/fill"
	"github.com/jonathan/form-autofill/internal/llm"
	"github.com/jonathan/form-autofill/internal/logger"
	"github.com/jonathan/form-autofill/internal/observability"
	"github.com/jonathan/form-autofill/internal/session"
)

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Open an application page, fill the form, and verify interactively",
	Long: `Runs one autofill session end-to-end: open the page in Chrome, analyze the form (or reuse a cached template), write the suggested values, then prompt for accept/retry until done.

Configuration can be loaded from a JSON file using --config. Command-line arguments override config file values.`,
	RunE: runSessionCmd,
}

var (
	runConfigPath  string
	runURL         string
	runProfile     string
	runJob         string
	runAPIKey      string
	runHeadless    bool
	runVerbose     bool
	runMaxAttempts int
	runCacheDB     string
	runDatabaseURL string
)

// addSessionFlags registers the flags shared by every command that starts
// autofill sessions.
func addSessionFlags(cmd *cobra.Command) {
	// Config file flag (processed first)
	cmd.Flags().StringVar(&runConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")

	cmd.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "Print detailed debug information")
	cmd.Flags().IntVar(&runMaxAttempts, "max-attempts", 0, "Retry bound per session (default 3)")

	// API key can be passed as a flag, or read from env var GEMINI_API_KEY
	cmd.Flags().StringVar(&runAPIKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")

	// Template cache backends
	cmd.Flags().StringVar(&runCacheDB, "cache-db", "", "SQLite file backing the template cache (default: user cache dir)")
	cmd.Flags().StringVar(&runDatabaseURL, "db-url", "", "PostgreSQL connection URL for the template cache (optional, defaults to DATABASE_URL env var)")
}

func init() {
	addSessionFlags(runCommand)

	runCommand.Flags().StringVarP(&runURL, "url", "u", "", "Application form URL")
	runCommand.Flags().StringVarP(&runProfile, "profile", "p", "", "Path to candidate profile JSON file")
	runCommand.Flags().StringVarP(&runJob, "job", "j", "", "Path to job posting text file (optional)")
	runCommand.Flags().BoolVar(&runHeadless, "headless", false, "Run the browser without a visible window")

	rootCmd.AddCommand(runCommand)
}

// resolveConfig merges config file, CLI flags, defaults, and env vars the
// same way for every command that starts sessions.
func resolveConfig(cmd *cobra.Command) (config.Config, error) {
	// Step 1: Load config file if provided
	var cfg config.Config
	if runConfigPath != "" {
		loadedCfg, err := config.LoadConfig(runConfigPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to load config: %w", err)
		}

		if err := loadedCfg.Validate(); err != nil {
			return cfg, err
		}

		cfg = *loadedCfg
		if runVerbose {
			_, _ = fmt.Fprintf(os.Stdout, "Loaded config from: %s\n", runConfigPath)
		}
	}

	// Step 2: Apply CLI overrides (command-line args take priority)
	// Only override if the flag was explicitly set
	if cmd.Flags().Changed("url") {
		cfg.URL = runURL
	}
	if cmd.Flags().Changed("profile") {
		cfg.Profile = runProfile
	}
	if cmd.Flags().Changed("job") {
		cfg.Job = runJob
	}
	if cmd.Flags().Changed("api-key") {
		cfg.APIKey = runAPIKey
	}
	if cmd.Flags().Changed("headless") {
		cfg.Headless = runHeadless
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = runVerbose
	}
	if cmd.Flags().Changed("max-attempts") {
		cfg.MaxAttempts = runMaxAttempts
	}
	if cmd.Flags().Changed("cache-db") {
		cfg.CacheDB = runCacheDB
	}
	if cmd.Flags().Changed("db-url") {
		cfg.DatabaseURL = runDatabaseURL
	}

	// Step 3: Apply defaults for unset values
	cfg = cfg.MergeWithDefaults(config.Config{
		ListenAddr: ":8080",
	})

	// Step 4: Env var fallbacks
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.DatabaseURL == "" && cfg.CacheDB == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}

	return cfg, nil
}

func runSessionCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	if cfg.URL == "" {
		return fmt.Errorf("--url is required (via flag or config)")
	}
	if cfg.Profile == "" {
		return fmt.Errorf("--profile is required (via flag or config)")
	}
	if cfg.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable or --api-key flag is required")
	}

	profile, err := config.LoadProfile(cfg.Profile)
	if err != nil {
		return err
	}
	job, err := config.LoadJobContext(cfg.Job, cfg.URL)
	if err != nil {
		return err
	}

	log, err := logger.New(false, cfg.Verbose)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync() //nolint:errcheck

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	templates := cache.New(store, nil, log)
	defer store.Close() //nolint:errcheck

	client, err := llm.NewClient(ctx, llm.DefaultConfig(), cfg.APIKey)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}
	defer client.Close() //nolint:errcheck

	browser, err := fill.NewBrowser(ctx, fill.BrowserOptions{
		Headless: cfg.Headless,
		Verbose:  cfg.Verbose,
	})
	if err != nil {
		return fmt.Errorf("failed to launch browser: %w", err)
	}
	defer browser.Close()

	if err := browser.Navigate(cfg.URL, 60*time.Second); err != nil {
		return fmt.Errorf("failed to open %s: %w", cfg.URL, err)
	}

	printer := observability.NewPrinter(os.Stdout)
	controller := session.NewController(
		browser,
		analyze.New(client),
		fill.NewExecutor(browser, cfg.Verbose),
		templates,
		&promptVerifier{printer: printer, verbose: cfg.Verbose},
		log,
	)
	if cfg.MaxAttempts > 0 {
		controller.SetMaxAttempts(cfg.MaxAttempts)
	}

	outcome, err := controller.Run(ctx, profile, job)
	if err != nil {
		return err
	}

	printer.PrintSession(outcome.Session)
	printer.PrintFillReport(outcome.Report)

	if outcome.State == session.StateExhausted {
		fmt.Fprintln(os.Stdout, "Retry limit reached; review the remaining fields by hand before submitting.")
	} else {
		fmt.Fprintln(os.Stdout, "Form filled. Review the page and submit when ready.")
	}
	return nil
}
