package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/harrier/pkg/kb"
	"github.com/m-mizutani/harrier/pkg/usecase/ingest"
	"github.com/urfave/cli/v3"
)

func ingestCommand() *cli.Command {
	var (
		cfg          config
		dir          string
		chunkSize    int
		chunkOverlap int
		strategy     string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "dir",
			Usage:       "Directory of knowledge base markdown documents",
			Sources:     cli.EnvVars("HARRIER_KB_DIR"),
			Destination: &dir,
			Required:    true,
		},
		&cli.IntFlag{
			Name:        "chunk-size",
			Usage:       "Chunk size in words",
			Value:       kb.DefaultOptions().Size,
			Sources:     cli.EnvVars("HARRIER_CHUNK_SIZE"),
			Destination: &chunkSize,
		},
		&cli.IntFlag{
			Name:        "chunk-overlap",
			Usage:       "Overlapping words between consecutive chunks",
			Value:       kb.DefaultOptions().Overlap,
			Sources:     cli.EnvVars("HARRIER_CHUNK_OVERLAP"),
			Destination: &chunkOverlap,
		},
		&cli.StringFlag{
			Name:        "strategy",
			Usage:       "Chunking strategy (sliding_window, boundary, sentence)",
			Value:       string(kb.StrategySlidingWindow),
			Sources:     cli.EnvVars("HARRIER_CHUNK_STRATEGY"),
			Destination: &strategy,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:  "ingest",
		Usage: "Ingest knowledge base documents",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.loggingContext(ctx)

			opts := kb.Options{
				Size:     chunkSize,
				Overlap:  chunkOverlap,
				Strategy: kb.Strategy(strategy),
			}
			if err := opts.Strategy.Validate(); err != nil {
				return err
			}

			uc, err := buildIngestUseCase(ctx, &cfg, ingest.WithChunkOptions(opts))
			if err != nil {
				return err
			}

			report, err := uc.IngestDir(ctx, dir)
			if err != nil {
				return goerr.Wrap(err, "ingestion failed")
			}

			fmt.Fprintf(c.Root().Writer, "Ingested %d of %d documents (%d chunks, %d skipped)\n",
				report.Ingested, report.Files, report.Chunks, report.Skipped)
			return nil
		},
	}
}

func reindexCommand() *cli.Command {
	var cfg config

	flags := append(globalFlags(&cfg), llmFlags(&cfg)...)

	return &cli.Command{
		Name:  "reindex",
		Usage: "Regenerate embeddings for all stored chunks",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.loggingContext(ctx)

			uc, err := buildIngestUseCase(ctx, &cfg)
			if err != nil {
				return err
			}

			count, err := uc.Reindex(ctx)
			if err != nil {
				return goerr.Wrap(err, "reindex failed")
			}

			fmt.Fprintf(c.Root().Writer, "Reindexed %d chunks\n", count)
			return nil
		},
	}
}

func buildIngestUseCase(ctx context.Context, cfg *config, opts ...ingest.Option) (*ingest.UseCase, error) {
	repo, err := cfg.newRepository(ctx)
	if err != nil {
		return nil, err
	}

	gemini, err := cfg.newGemini(ctx)
	if err != nil {
		return nil, err
	}

	return ingest.New(ingest.NewInput{
		Repo:     repo,
		Embedder: gemini,
	}, opts...), nil
}
