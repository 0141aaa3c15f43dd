package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/form-autofill/internal/cache"
	"github.com/jonathan/form-autofill/internal/config"
	"github.com/jonathan/form-autofill/internal/observability"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and manage the form template cache",
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached form templates",
	RunE:  runCacheList,
}

var cacheInvalidateCmd = &cobra.Command{
	Use:   "invalidate <key>",
	Short: "Remove one cached template by key (e.g. greenhouse:application)",
	Args:  cobra.ExactArgs(1),
	RunE:  runCacheInvalidate,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached templates",
	RunE:  runCacheClear,
}

var (
	cacheDBPath      string
	cacheDatabaseURL string
)

func init() {
	cacheCmd.PersistentFlags().StringVar(&cacheDBPath, "cache-db", "", "SQLite file backing the template cache (default: user cache dir)")
	cacheCmd.PersistentFlags().StringVar(&cacheDatabaseURL, "db-url", "", "PostgreSQL connection URL for the template cache (optional, defaults to DATABASE_URL env var)")

	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheInvalidateCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

// openCacheForAdmin builds the template cache from the cache subcommand flags.
func openCacheForAdmin(ctx context.Context) (*cache.TemplateCache, cache.Store, error) {
	cfg := config.Config{CacheDB: cacheDBPath, DatabaseURL: cacheDatabaseURL}
	if cfg.DatabaseURL == "" && cfg.CacheDB == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return cache.New(store, nil, nil), store, nil
}

func runCacheList(_ *cobra.Command, _ []string) error {
	ctx := context.Background()
	templates, store, err := openCacheForAdmin(ctx)
	if err != nil {
		return err
	}
	defer store.Close() //nolint:errcheck

	observability.NewPrinter(os.Stdout).PrintCachedTemplates(templates.List(ctx), time.Now())
	return nil
}

func runCacheInvalidate(_ *cobra.Command, args []string) error {
	ctx := context.Background()
	templates, store, err := openCacheForAdmin(ctx)
	if err != nil {
		return err
	}
	defer store.Close() //nolint:errcheck

	templates.Invalidate(ctx, args[0])
	fmt.Printf("Invalidated %s\n", args[0])
	return nil
}

func runCacheClear(_ *cobra.Command, _ []string) error {
	ctx := context.Background()
	templates, store, err := openCacheForAdmin(ctx)
	if err != nil {
		return err
	}
	defer store.Close() //nolint:errcheck

	templates.Clear(ctx)
	fmt.Println("Template cache cleared")
	return nil
}
