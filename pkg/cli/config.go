package cli

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/m-mizutani/burrow/pkg/adapter"
	"github.com/m-mizutani/burrow/pkg/service/memory"
	"github.com/m-mizutani/burrow/pkg/usecase/ingest"
	"github.com/m-mizutani/burrow/pkg/utils/logging"
)

var (
	errBadConfig = goerr.New("invalid configuration")
	errIngestion = goerr.New("ingestion failed")
)

// config holds configuration values
type config struct {
	// Logging
	logLevel string

	// LLM
	geminiAPIKey string

	// Vector store
	weaviateHost   string
	weaviateScheme string
	className      string

	// Sources
	pdfPath     string
	pageURL     string
	sourcesPath string

	// Chat / readiness tuning
	topK          int64
	readyAttempts int64
	readyInterval time.Duration
}

// globalFlags returns common flags used across commands with destination config
func globalFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "info",
			Sources:     cli.EnvVars("BURROW_LOG_LEVEL"),
			Destination: &cfg.logLevel,
		},
	}
}

// llmFlags returns flags for LLM-related configuration with destination config
func llmFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "gemini-api-key",
			Usage:       "Gemini API key",
			Sources:     cli.EnvVars("GEMINI_API_KEY"),
			Destination: &cfg.geminiAPIKey,
		},
	}
}

// memoryFlags returns flags for the vector store and retrieval tuning
func memoryFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "weaviate-host",
			Usage:       "Weaviate host",
			Value:       "localhost:8080",
			Sources:     cli.EnvVars("WEAVIATE_HOST"),
			Destination: &cfg.weaviateHost,
		},
		&cli.StringFlag{
			Name:        "weaviate-scheme",
			Usage:       "Weaviate scheme",
			Value:       "http",
			Sources:     cli.EnvVars("WEAVIATE_SCHEME"),
			Destination: &cfg.weaviateScheme,
		},
		&cli.StringFlag{
			Name:        "class",
			Usage:       "Weaviate class name for stored chunks",
			Value:       "MemoryChunk",
			Sources:     cli.EnvVars("BURROW_CLASS"),
			Destination: &cfg.className,
		},
		&cli.IntFlag{
			Name:        "top-k",
			Usage:       "Number of chunks retrieved per question",
			Value:       3,
			Sources:     cli.EnvVars("BURROW_TOP_K"),
			Destination: &cfg.topK,
		},
	}
}

// sourceFlags returns flags selecting the content sources to ingest
func sourceFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "pdf",
			Usage:       "Path to the PDF document to ingest",
			Value:       "sample.pdf",
			Sources:     cli.EnvVars("BURROW_PDF"),
			Destination: &cfg.pdfPath,
		},
		&cli.StringFlag{
			Name:        "page",
			Usage:       "URL of the web page to ingest",
			Value:       "https://en.wikipedia.org/wiki/Retrieval-augmented_generation",
			Sources:     cli.EnvVars("BURROW_PAGE"),
			Destination: &cfg.pageURL,
		},
		&cli.StringFlag{
			Name:        "sources",
			Aliases:     []string{"s"},
			Usage:       "Path to a YAML manifest of sources (overrides --pdf/--page)",
			Sources:     cli.EnvVars("BURROW_SOURCES"),
			Destination: &cfg.sourcesPath,
		},
	}
}

// readyFlags returns flags for the readiness poll budget
func readyFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:        "ready-attempts",
			Usage:       "Readiness poll attempts before giving up",
			Value:       10,
			Sources:     cli.EnvVars("BURROW_READY_ATTEMPTS"),
			Destination: &cfg.readyAttempts,
		},
		&cli.DurationFlag{
			Name:        "ready-interval",
			Usage:       "Base interval between readiness polls",
			Value:       500 * time.Millisecond,
			Sources:     cli.EnvVars("BURROW_READY_INTERVAL"),
			Destination: &cfg.readyInterval,
		},
	}
}

// setupLogging installs the configured logger and attaches it to the context
func (cfg *config) setupLogging(ctx context.Context) context.Context {
	logger := logging.New(cfg.logLevel, nil)
	logging.SetDefault(logger)
	return logging.With(ctx, logger)
}

// validate checks the required credential before any client is constructed
func (cfg *config) validate() error {
	if cfg.geminiAPIKey == "" {
		return goerr.Wrap(errBadConfig, "gemini-api-key is required (set GEMINI_API_KEY)")
	}
	return nil
}

// newGemini creates a new Gemini adapter instance
func (cfg *config) newGemini(ctx context.Context) (adapter.Gemini, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	gemini, err := adapter.NewGemini(ctx, cfg.geminiAPIKey)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create gemini client")
	}
	return gemini, nil
}

// newStore creates a new vector store instance
func (cfg *config) newStore() (adapter.VectorStore, error) {
	if cfg.weaviateHost == "" || cfg.weaviateScheme == "" {
		return nil, goerr.Wrap(errBadConfig, "weaviate host and scheme are required")
	}
	if cfg.className == "" {
		return nil, goerr.Wrap(errBadConfig, "class name is required")
	}
	store, err := adapter.NewWeaviate(cfg.weaviateHost, cfg.weaviateScheme, cfg.className)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create vector store")
	}
	return store, nil
}

// newMemory creates the memory engine from the configured adapters
func (cfg *config) newMemory(ctx context.Context) (*memory.Client, error) {
	gemini, err := cfg.newGemini(ctx)
	if err != nil {
		return nil, err
	}

	store, err := cfg.newStore()
	if err != nil {
		return nil, err
	}

	mem, err := memory.New(ctx, gemini, store, memory.WithTopK(int(cfg.topK)))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create memory client")
	}
	return mem, nil
}

// newController creates the ingestion controller over the memory engine
func (cfg *config) newController(mem *memory.Client) *ingest.Controller {
	return ingest.New(ingest.NewInput{
		Memory:   mem,
		Attempts: int(cfg.readyAttempts),
		Interval: cfg.readyInterval,
	})
}
