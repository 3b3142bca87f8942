// Package main provides the voyagent binary entry point: a
// conversational trip planning service over HTTP.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/voyagent/voyagent/agent/extract"
	"github.com/voyagent/voyagent/agent/intent"
	"github.com/voyagent/voyagent/agent/llm"
	"github.com/voyagent/voyagent/agent/search"
	"github.com/voyagent/voyagent/agent/temporal"
	"github.com/voyagent/voyagent/agent/workflow"
	"github.com/voyagent/voyagent/internal/profile"
	"github.com/voyagent/voyagent/internal/ratelimit"
	"github.com/voyagent/voyagent/server"
	"github.com/voyagent/voyagent/store"
	"github.com/voyagent/voyagent/store/cache"
)

const version = "0.1.0"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	instanceProfile := &profile.Profile{
		Mode:    "dev",
		Addr:    "",
		Port:    8081,
		Data:    "",
		Version: version,
	}

	cmd := &cobra.Command{
		Use:   "voyagent",
		Short: "Conversational trip planning service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			instanceProfile.FromEnv()
			if err := instanceProfile.Validate(); err != nil {
				return fmt.Errorf("invalid profile: %w", err)
			}
			return run(cmd.Context(), instanceProfile)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&instanceProfile.Mode, "mode", instanceProfile.Mode, `server mode: "prod", "dev" or "demo"`)
	flags.StringVar(&instanceProfile.Addr, "addr", instanceProfile.Addr, "binding address")
	flags.IntVar(&instanceProfile.Port, "port", instanceProfile.Port, "binding port")
	flags.StringVar(&instanceProfile.Data, "data", instanceProfile.Data, "data directory")

	return cmd
}

func run(ctx context.Context, p *profile.Profile) error {
	setupLogger(p)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Session storage. Demo mode keeps everything in memory.
	var kv store.KV
	if p.Mode == "demo" {
		kv = store.NewMemoryKV()
	} else {
		sqliteKV, err := store.NewSQLiteKV(p.DSN)
		if err != nil {
			return fmt.Errorf("open session store: %w", err)
		}
		defer sqliteKV.Close()
		kv = sqliteKV
	}

	cacheConfig := cache.DefaultTieredConfig()
	cacheConfig.L1TTL = p.CacheTTL
	searchCache := cache.NewTiered(cacheConfig)
	defer searchCache.Close()

	var llmClient llm.Client
	if p.HasLLM() {
		llmConfig := llm.DefaultConfig()
		llmConfig.APIKey = p.LLMAPIKey
		llmConfig.Model = p.LLMModel
		if p.LLMBaseURL != "" {
			llmConfig.BaseURL = p.LLMBaseURL
		}
		llmClient = llm.NewOpenAIClient(llmConfig)
	} else {
		slog.Warn("no LLM API key configured, responses will use templates only")
	}

	limiter := ratelimit.New()

	var searchProvider search.Provider
	if p.HasSearch() {
		serperConfig := search.DefaultSerperConfig()
		serperConfig.APIKey = p.SerperAPIKey
		serperConfig.CacheTTL = p.CacheTTL
		searchProvider = search.NewSerperClient(serperConfig, searchCache, search.WithThrottle(limiter))
	} else {
		slog.Warn("no search API key configured, search will serve fallback results")
		searchProvider = search.NewMockProvider()
	}

	var llmClassifier *intent.LLMClassifier
	if llmClient != nil {
		llmClassifier = intent.NewLLMClassifier(llmClient)
	}
	classifier := intent.NewService(intent.Config{LLMClassifier: llmClassifier})

	extractor := extract.NewEngine(llmClient, temporal.NewResolver())

	engine := workflow.NewEngine(workflow.Config{
		LLM:        llmClient,
		Search:     searchProvider,
		Store:      kv,
		Classifier: classifier,
		Extractor:  extractor,
		Limiter:    limiter,
		SessionTTL: p.SessionTTL,
	})

	srv := server.NewServer(p, engine, searchCache, limiter)

	slog.Info("voyagent starting",
		"version", p.Version,
		"mode", p.Mode,
		"port", p.Port,
		"llm_enabled", p.HasLLM(),
		"search_enabled", p.HasSearch())

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("server stopped: %w", err)
	}
	slog.Info("voyagent stopped")
	return nil
}

func setupLogger(p *profile.Profile) {
	level := slog.LevelInfo
	if p.IsDev() {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
}
