// Triaged is a daemon that routes benefits queries to capability
// workflows, gated on document availability.
//
// Usage:
//
//	# Start the daemon with defaults
//	triaged
//
//	# Use a config file and environment overrides
//	triaged --config /etc/triaged/config.yaml
//	TRIAGED_SERVER_PORT=9280 triaged
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/philippgille/chromem-go"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/triaged/internal/config"
	"github.com/fyrsmithlabs/triaged/internal/documents"
	"github.com/fyrsmithlabs/triaged/internal/gate"
	"github.com/fyrsmithlabs/triaged/internal/httpapi"
	"github.com/fyrsmithlabs/triaged/internal/llm"
	"github.com/fyrsmithlabs/triaged/internal/logging"
	"github.com/fyrsmithlabs/triaged/internal/supervisor"
	"github.com/fyrsmithlabs/triaged/internal/telemetry"
	"github.com/fyrsmithlabs/triaged/internal/triage"
	"github.com/fyrsmithlabs/triaged/internal/workflow"
	"github.com/fyrsmithlabs/triaged/internal/workflow/retrieval"
	"github.com/fyrsmithlabs/triaged/internal/workflow/strategy"
)

// Version information (set via ldflags during build).
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	if args := flag.Args(); len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion()
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  triaged           Start the triaged daemon\n")
			fmt.Fprintf(os.Stderr, "  triaged version   Show version information\n")
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server shutdown complete")
}

func printVersion() {
	fmt.Printf("triaged by Fyrsmith Labs\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// run wires every component and blocks until the context is cancelled
// or the HTTP server fails.
func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger, err := initLogger(cfg)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info(ctx, "starting triaged",
		zap.String("version", version),
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port))

	tel := telemetry.New(ctx, cfg.Telemetry, version, logger)
	defer func() {
		if err := tel.Shutdown(context.Background()); err != nil {
			logger.Warn(ctx, "telemetry shutdown failed", zap.Error(err))
		}
	}()

	store, err := newDocumentStore(cfg.Documents)
	if err != nil {
		return fmt.Errorf("opening document store: %w", err)
	}
	defer func() { _ = store.Close() }()

	client, err := llm.NewAnthropicClient(cfg.LLM)
	if err != nil {
		return fmt.Errorf("creating llm client: %w", err)
	}

	indexPath, err := config.ExpandPath(cfg.Retrieval.Path)
	if err != nil {
		return fmt.Errorf("resolving retrieval index path: %w", err)
	}
	index, err := retrieval.NewIndex(retrieval.IndexConfig{
		Path:      indexPath,
		Embedding: embeddingFunc(cfg.Retrieval),
	}, logger)
	if err != nil {
		return fmt.Errorf("opening retrieval index: %w", err)
	}

	retrievalExec, err := retrieval.NewExecutor(index, client, cfg.Retrieval.TopK, logger)
	if err != nil {
		return fmt.Errorf("creating retrieval workflow: %w", err)
	}
	strategyExec, err := strategy.NewExecutor(client, logger)
	if err != nil {
		return fmt.Errorf("creating strategy workflow: %w", err)
	}
	registry, err := workflow.NewRegistry(retrievalExec, strategyExec)
	if err != nil {
		return fmt.Errorf("building workflow registry: %w", err)
	}

	classifier := triage.NewClassifier(client, logger)
	availability := gate.New(store, logger)

	sup, err := supervisor.New(supervisor.Config{
		StepTimeout: cfg.Supervisor.StepTimeout.Duration(),
	}, classifier, availability, registry, logger)
	if err != nil {
		return fmt.Errorf("creating supervisor: %w", err)
	}

	srv, err := httpapi.NewServer(cfg.Server, sup, store, index, logger)
	if err != nil {
		return fmt.Errorf("creating http server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}

// newDocumentStore opens the configured document store. The special
// path ":memory:" selects the ephemeral in-memory store; anything else
// is a SQLite file path.
func newDocumentStore(cfg config.DocumentsConfig) (documents.Store, error) {
	if cfg.Path == documents.InMemoryPath {
		return documents.NewMemoryStore(), nil
	}
	dbPath, err := config.ExpandPath(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("resolving document store path: %w", err)
	}
	return documents.NewSQLiteStore(dbPath)
}

// initLogger builds the process logger from the loaded configuration.
func initLogger(cfg *config.Config) (*logging.Logger, error) {
	lcfg := logging.NewDefaultConfig()
	lcfg.Level = cfg.Logging.Level
	lcfg.Format = cfg.Logging.Format
	return logging.NewLogger(lcfg)
}

// embeddingFunc picks the embedding backend for the retrieval index. A
// configured key wins; otherwise chromem falls back to OPENAI_API_KEY.
func embeddingFunc(cfg config.RetrievalConfig) chromem.EmbeddingFunc {
	if cfg.EmbeddingAPIKey.IsSet() {
		return chromem.NewEmbeddingFuncOpenAI(cfg.EmbeddingAPIKey.Value(), chromem.EmbeddingModelOpenAI3Small)
	}
	return chromem.NewEmbeddingFuncDefault()
}
