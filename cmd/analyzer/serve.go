package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/website-analyzer/internal/analysis"
	"github.com/jonathan/website-analyzer/internal/config"
	"github.com/jonathan/website-analyzer/internal/llm"
	"github.com/jonathan/website-analyzer/internal/server"
	"github.com/jonathan/website-analyzer/internal/snapshot"
	"github.com/jonathan/website-analyzer/internal/store"
)

var (
	servePort       int
	serveConfigPath string
	serveUseBrowser bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes REST endpoints for on-demand analyses and background analysis jobs.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (default: 8000)")
	serveCmd.Flags().StringVarP(&serveConfigPath, "config", "c", "", "Path to JSON config file")
	serveCmd.Flags().BoolVar(&serveUseBrowser, "use-browser", false, "Re-fetch JavaScript-heavy sites with a headless browser")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := loadSettings(serveConfigPath)
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Port = servePort
	}
	if serveUseBrowser {
		cfg.UseBrowser = true
	}

	ctx := context.Background()

	// A missing key is not fatal: the server still comes up and analysis
	// calls report the failure per request.
	var client llm.Client
	if cfg.APIKey == "" {
		log.Printf("[serve] GEMINI_API_KEY not set - there might be a problem with your API key; analysis endpoints will return errors")
	} else {
		c, err := llm.NewClient(ctx, llm.DefaultConfig(), cfg.APIKey)
		if err != nil {
			return fmt.Errorf("failed to create LLM client: %w", err)
		}
		defer func() { _ = c.Close() }()
		client = c
	}

	gw := analysis.NewGateway(client, analysis.NewPacer(cfg.PacerBurst, cfg.PacerRate))
	svc := analysis.NewService(gw, &snapshot.Options{UseBrowser: cfg.UseBrowser})

	var jobs store.JobStore
	if cfg.DatabaseURL != "" {
		pg, err := store.NewPostgresJobStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to job store: %w", err)
		}
		defer pg.Close()
		jobs = pg
		log.Printf("[serve] job persistence: postgres")
	} else {
		jobs = store.NewMemoryJobStore()
		log.Printf("[serve] job persistence: in-memory")
	}

	cache := store.NewMemoryCache(store.CachePolicy{
		TTL:        time.Duration(cfg.CacheTTLMinutes) * time.Minute,
		MaxEntries: cfg.CacheMaxEntries,
	})

	runner := analysis.NewRunner(svc, jobs)
	// Let in-flight jobs write their final status before the process exits.
	defer runner.Shutdown()

	srv, err := server.New(server.Config{
		Port:               cfg.Port,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	}, svc, runner, jobs, cache)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}

// loadSettings builds the effective configuration: environment variables win
// over config file values, which win over built-in defaults.
func loadSettings(path string) (config.Config, error) {
	cfg := config.FromEnv()
	if path != "" {
		fileCfg, err := config.LoadConfig(path)
		if err != nil {
			return config.Config{}, err
		}
		cfg = cfg.MergeWithDefaults(*fileCfg)
	}
	cfg = cfg.MergeWithDefaults(config.Defaults())
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}
