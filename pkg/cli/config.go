package cli

import (
	"context"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/harrier/pkg/adapter"
	"github.com/m-mizutani/harrier/pkg/repository"
	"github.com/m-mizutani/harrier/pkg/service/guardrail"
	"github.com/m-mizutani/harrier/pkg/service/retrieval"
	"github.com/m-mizutani/harrier/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// config holds configuration values
type config struct {
	// Logging
	logLevel  string
	logFormat string

	// Repository
	backend  string
	project  string
	database string

	// Adapters
	llmProvider     string
	anthropicAPIKey string
	geminiProject   string
	geminiLocation  string

	// Transcript archive
	bucket string

	// Guardrail
	policyDir         string
	semanticThreshold float64
	noSemanticCheck   bool

	// Retrieval
	topK              int
	coverageThreshold float64
}

// globalFlags returns common flags used across commands with destination config
func globalFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "info",
			Sources:     cli.EnvVars("HARRIER_LOG_LEVEL"),
			Destination: &cfg.logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "Log format (console, json)",
			Value:       logging.FormatConsole,
			Sources:     cli.EnvVars("HARRIER_LOG_FORMAT"),
			Destination: &cfg.logFormat,
		},
		&cli.StringFlag{
			Name:        "backend",
			Usage:       "Persistence backend (firestore, memory)",
			Value:       "firestore",
			Sources:     cli.EnvVars("HARRIER_BACKEND"),
			Destination: &cfg.backend,
		},
		&cli.StringFlag{
			Name:        "project",
			Aliases:     []string{"p"},
			Usage:       "Google Cloud project ID",
			Sources:     cli.EnvVars("GOOGLE_CLOUD_PROJECT"),
			Destination: &cfg.project,
		},
		&cli.StringFlag{
			Name:        "database",
			Aliases:     []string{"d"},
			Usage:       "Firestore database ID",
			Value:       "(default)",
			Sources:     cli.EnvVars("FIRESTORE_DATABASE_ID"),
			Destination: &cfg.database,
		},
	}
}

// llmFlags returns flags for LLM-related configuration with destination config
func llmFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "llm",
			Usage:       "Generation backend (gemini, claude)",
			Value:       "gemini",
			Sources:     cli.EnvVars("HARRIER_LLM"),
			Destination: &cfg.llmProvider,
		},
		&cli.StringFlag{
			Name:        "anthropic-api-key",
			Usage:       "Anthropic API key",
			Sources:     cli.EnvVars("ANTHROPIC_API_KEY"),
			Destination: &cfg.anthropicAPIKey,
		},
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini",
			Sources:     cli.EnvVars("GEMINI_PROJECT_ID"),
			Destination: &cfg.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini",
			Value:       "us-central1",
			Sources:     cli.EnvVars("GEMINI_LOCATION"),
			Destination: &cfg.geminiLocation,
		},
	}
}

// pipelineFlags returns flags tuning guardrail and retrieval behavior
func pipelineFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "policy-dir",
			Usage:       "Directory of Rego guardrail policies",
			Sources:     cli.EnvVars("HARRIER_POLICY_DIR"),
			Destination: &cfg.policyDir,
		},
		&cli.Float64Flag{
			Name:        "semantic-threshold",
			Usage:       "Cosine similarity above which a message is treated as a manipulation attempt",
			Value:       guardrail.DefaultSemanticThreshold,
			Sources:     cli.EnvVars("HARRIER_SEMANTIC_THRESHOLD"),
			Destination: &cfg.semanticThreshold,
		},
		&cli.BoolFlag{
			Name:        "no-semantic-check",
			Usage:       "Disable the embedding-based guardrail check",
			Sources:     cli.EnvVars("HARRIER_NO_SEMANTIC_CHECK"),
			Destination: &cfg.noSemanticCheck,
		},
		&cli.IntFlag{
			Name:        "top-k",
			Usage:       "Number of chunks retrieved per query",
			Value:       retrieval.DefaultTopK,
			Sources:     cli.EnvVars("HARRIER_TOP_K"),
			Destination: &cfg.topK,
		},
		&cli.Float64Flag{
			Name:        "coverage-threshold",
			Usage:       "Minimum top similarity for the knowledge base to count as covering a query",
			Value:       retrieval.DefaultCoverageThreshold,
			Sources:     cli.EnvVars("HARRIER_COVERAGE_THRESHOLD"),
			Destination: &cfg.coverageThreshold,
		},
		&cli.StringFlag{
			Name:        "bucket",
			Usage:       "Cloud Storage bucket for escalation transcripts",
			Sources:     cli.EnvVars("HARRIER_BUCKET"),
			Destination: &cfg.bucket,
		},
	}
}

// loggingContext builds the configured logger, installs it as default and
// attaches it to the context.
func (cfg *config) loggingContext(ctx context.Context) context.Context {
	logger := logging.New(cfg.logLevel, cfg.logFormat, os.Stderr)
	logging.SetDefault(logger)
	return logging.With(ctx, logger)
}

// newRepository creates the configured repository backend
func (cfg *config) newRepository(ctx context.Context) (repository.Repository, error) {
	switch cfg.backend {
	case "memory":
		return repository.NewMemory(), nil
	case "firestore":
		if cfg.project == "" {
			return nil, goerr.New("project is required")
		}
		if cfg.database == "" {
			return nil, goerr.New("database is required")
		}
		repo, err := repository.NewFirestore(ctx, cfg.project, cfg.database)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create repository")
		}
		return repo, nil
	default:
		return nil, goerr.New("unknown backend", goerr.V("backend", cfg.backend))
	}
}

// newGemini creates the Gemini client used for embeddings and, when
// selected, generation
func (cfg *config) newGemini(ctx context.Context) (*adapter.GeminiClient, error) {
	if cfg.geminiProject == "" {
		return nil, goerr.New("gemini-project is required")
	}
	if cfg.geminiLocation == "" {
		return nil, goerr.New("gemini-location is required")
	}
	client, err := adapter.NewGemini(ctx, cfg.geminiProject, cfg.geminiLocation)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create gemini client")
	}
	return client, nil
}

// newLLM selects the generation backend. The Gemini client doubles as the
// embedder, so it is created by the caller and passed in.
func (cfg *config) newLLM(gemini *adapter.GeminiClient) (adapter.LLM, error) {
	switch cfg.llmProvider {
	case "gemini":
		return gemini, nil
	case "claude":
		if cfg.anthropicAPIKey == "" {
			return nil, goerr.New("anthropic-api-key is required")
		}
		return adapter.NewClaude(cfg.anthropicAPIKey), nil
	default:
		return nil, goerr.New("unknown llm provider", goerr.V("llm", cfg.llmProvider))
	}
}

// newGuardrail assembles the guardrail engine with the optional Rego
// policy and semantic check
func (cfg *config) newGuardrail(ctx context.Context, embedder adapter.Embedder) (*guardrail.Engine, error) {
	var opts []guardrail.Option

	if cfg.policyDir != "" {
		policy, err := guardrail.LoadPolicy(ctx, cfg.policyDir)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to load guardrail policy", goerr.V("dir", cfg.policyDir))
		}
		if policy != nil {
			opts = append(opts, guardrail.WithPolicy(policy))
		}
	}

	if !cfg.noSemanticCheck && embedder != nil {
		opts = append(opts,
			guardrail.WithEmbedder(embedder),
			guardrail.WithSemanticThreshold(cfg.semanticThreshold))
	}

	return guardrail.New(ctx, opts...), nil
}

// newRetriever builds the retrieval engine from the configured tuning
func (cfg *config) newRetriever() *retrieval.Engine {
	return retrieval.New(
		retrieval.WithTopK(cfg.topK),
		retrieval.WithCoverageThreshold(cfg.coverageThreshold))
}

// newStorage creates the transcript archive when a bucket is configured.
// Returns nil without error when archiving is disabled.
func (cfg *config) newStorage(ctx context.Context) (adapter.Storage, error) {
	if cfg.bucket == "" {
		return nil, nil
	}
	storage, err := adapter.NewStorage(ctx, cfg.bucket)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage", goerr.V("bucket", cfg.bucket))
	}
	return storage, nil
}
