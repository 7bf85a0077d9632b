package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/bankassist/banking-agent/internal/agent"
	"github.com/bankassist/banking-agent/internal/bank"
	"github.com/bankassist/banking-agent/internal/config"
	"github.com/bankassist/banking-agent/internal/httpapi"
	"github.com/bankassist/banking-agent/internal/llm"
	"github.com/bankassist/banking-agent/internal/persistence"
	"github.com/bankassist/banking-agent/internal/rag"
	"github.com/bankassist/banking-agent/internal/service"
	"github.com/bankassist/banking-agent/internal/tools"
	"github.com/bankassist/banking-agent/pkg/log"
)

const version = "1.0.0"

// Seams for runWithComponents, sized for tests.
type scheduler interface {
	Schedule(ctx context.Context) error
}

type cronEngine interface {
	Start()
	Stop() context.Context
}

type httpServer interface {
	ListenAndServe(addr string) error
	Shutdown(ctx context.Context) error
}

func main() {
	// A local .env is optional; deployments configure the environment.
	_ = godotenv.Load()

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatal("Failed to load configuration: %v", err)
	}
	if err := setupLogging(cfg.Log); err != nil {
		log.Fatal("Failed to set up logging: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal("%v", err)
	}
}

func setupLogging(cfg config.LogConfig) error {
	level := log.ParseLevel(cfg.Level)
	if cfg.File == "" {
		log.InitLogger(level)
		return nil
	}
	_, err := log.InitFileLogger(cfg.File, level)
	return err
}

// run builds every component and hands them to runWithComponents.
func run(ctx context.Context, cfg *config.Config) error {
	log.Info("Starting Banking AI Agent v%s", version)

	if err := bank.Bootstrap(cfg.Data.Dir); err != nil {
		return fmt.Errorf("bootstrap data dir: %w", err)
	}
	bankStore, err := bank.Open(cfg.Data.Dir)
	if err != nil {
		return fmt.Errorf("open bank fixtures: %w", err)
	}

	store, err := persistence.NewSQLiteStore(cfg.Data.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	client, err := llm.NewClient(llmConfig(cfg))
	if err != nil {
		return fmt.Errorf("create llm client: %w", err)
	}

	retriever := rag.NewRetriever(
		rag.FileCorpus(cfg.Data.Dir, bankStore),
		newEmbedder(cfg, client),
		store,
		rag.Config{
			TopK:         cfg.RAG.TopK,
			ChunkSize:    cfg.RAG.ChunkSize,
			ChunkOverlap: cfg.RAG.ChunkOverlap,
			Concurrency:  cfg.RAG.BuildConcurrency,
		},
	)
	if err := retriever.Build(ctx); err != nil {
		// The agent still answers from tools; turns proceed without context.
		log.Warn("Retrieval index build failed, continuing without it: %v", err)
	}

	registry, err := tools.NewBankingRegistry(bankStore, store)
	if err != nil {
		return fmt.Errorf("build tool registry: %w", err)
	}
	log.Info("Registered %d banking tools", len(registry.List()))

	loop := agent.NewLoop(client, registry, retriever, cfg.Agent.MaxIterations)
	conversations := service.NewConversationManager(store, cfg.Agent.HistoryWindow)
	chat := service.NewChatService(loop, retriever, registry, conversations, cfg.LLM.Model)

	c := cron.New()
	maintenance := service.NewMaintenanceService(*cfg, store, retriever, c)

	server := httpapi.NewServer(chat,
		httpapi.WithMaintenance(maintenance),
		httpapi.WithVersion(version),
	)

	return runWithComponents(ctx, cfg, maintenance, c, server)
}

// runWithComponents starts cron and HTTP, then blocks until the context is
// cancelled and the server has drained.
func runWithComponents(ctx context.Context, cfg *config.Config, sched scheduler, engine cronEngine, srv httpServer) error {
	if err := sched.Schedule(ctx); err != nil {
		return fmt.Errorf("schedule maintenance: %w", err)
	}
	engine.Start()

	errCh := make(chan error, 1)
	go func() {
		log.Info("Listening on %s", cfg.Server.Addr())
		errCh <- srv.ListenAndServe(cfg.Server.Addr())
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("HTTP shutdown: %v", err)
		}
		engine.Stop()
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		engine.Stop()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	}
}

func llmConfig(cfg *config.Config) *llm.Config {
	c := llm.DefaultConfig()
	c.APIKey = cfg.LLM.APIKey
	c.APIURL = cfg.LLM.APIURL
	c.Model = cfg.LLM.Model
	c.MaxTokens = cfg.LLM.MaxTokens
	c.Temperature = cfg.LLM.Temperature
	c.Timeout = time.Duration(cfg.LLM.Timeout) * time.Second
	c.MaxRetries = cfg.LLM.MaxRetries
	c.RetryDelay = time.Duration(cfg.LLM.RetryDelay) * time.Second
	c.RetryMaxWait = time.Duration(cfg.LLM.RetryMaxWait) * time.Second
	c.MinInterval = time.Duration(cfg.LLM.MinIntervalMs) * time.Millisecond
	c.EmbeddingModel = cfg.Embedding.Model
	return c
}

func newEmbedder(cfg *config.Config, client *llm.Client) rag.Embedder {
	if cfg.Embedding.Provider == "openai" {
		return rag.NewOpenAIEmbedder(client, cfg.Embedding.Dimension)
	}
	return rag.NewLocalEmbedder(cfg.Embedding.Dimension)
}
