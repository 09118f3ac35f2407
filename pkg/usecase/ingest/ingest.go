package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/harrier/pkg/adapter"
	"github.com/m-mizutani/harrier/pkg/kb"
	"github.com/m-mizutani/harrier/pkg/repository"
	"github.com/m-mizutani/harrier/pkg/utils/logging"
)

// UseCase ingests knowledge base documents: parse, chunk, embed, persist.
type UseCase struct {
	repo     repository.Repository
	embedder adapter.Embedder
	opts     kb.Options
}

// NewInput contains the required collaborators for ingestion.
type NewInput struct {
	Repo     repository.Repository
	Embedder adapter.Embedder
}

type Option func(*UseCase)

// WithChunkOptions overrides the chunking parameters.
func WithChunkOptions(opts kb.Options) Option {
	return func(uc *UseCase) {
		uc.opts = opts
	}
}

func New(input NewInput, opts ...Option) *UseCase {
	uc := &UseCase{
		repo:     input.Repo,
		embedder: input.Embedder,
		opts:     kb.DefaultOptions(),
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Report summarizes one ingestion run.
type Report struct {
	Files    int
	Ingested int
	Skipped  int
	Chunks   int
}

// IngestDir ingests every markdown file in dir. Documents whose title is
// already present in the corpus are skipped, so re-running over the same
// directory is idempotent.
func (uc *UseCase) IngestDir(ctx context.Context, dir string) (*Report, error) {
	logger := logging.From(ctx)

	paths, err := filepath.Glob(filepath.Join(dir, "*.md"))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list knowledge base directory", goerr.V("dir", dir))
	}
	logger.Info("knowledge base files found", "dir", dir, "count", len(paths))

	existing, err := uc.existingTitles(ctx)
	if err != nil {
		return nil, err
	}

	report := &Report{Files: len(paths)}
	for _, path := range paths {
		count, err := uc.ingestFile(ctx, path, existing)
		if err != nil {
			return nil, err
		}
		if count == 0 {
			report.Skipped++
			continue
		}
		report.Ingested++
		report.Chunks += count
	}

	logger.Info("knowledge base ingestion completed",
		"files", report.Files,
		"ingested", report.Ingested,
		"skipped", report.Skipped,
		"chunks", report.Chunks)

	return report, nil
}

// ingestFile ingests one document. Returns the number of chunks written,
// zero when the document title already exists.
func (uc *UseCase) ingestFile(ctx context.Context, path string, existing map[string]bool) (int, error) {
	logger := logging.From(ctx)

	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to read document", goerr.V("path", path))
	}

	doc, err := parseDocument(docStem(path), raw)
	if err != nil {
		return 0, err
	}

	if existing[doc.Title] {
		logger.Info("document already ingested, skipping", "title", doc.Title)
		return 0, nil
	}

	chunks, err := kb.ChunkDocument(doc.Title, doc.Content, doc.Tags, uc.opts)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to chunk document", goerr.V("title", doc.Title))
	}
	logger.Info("document chunked", "title", doc.Title, "chunks", len(chunks))

	for _, chunk := range chunks {
		vec, err := uc.embedder.Embed(ctx, chunk.Content)
		if err != nil {
			return 0, goerr.Wrap(err, "failed to embed chunk",
				goerr.V("title", chunk.Title),
				goerr.V("chunk_index", chunk.Metadata.ChunkIndex))
		}
		chunk.Embedding = vec

		if err := uc.repo.PutChunk(ctx, chunk); err != nil {
			return 0, goerr.Wrap(err, "failed to save chunk", goerr.V("title", chunk.Title))
		}
	}

	existing[doc.Title] = true
	return len(chunks), nil
}

// Reindex regenerates the embedding of every stored chunk in place. Chunk
// boundaries are preserved; only vectors change.
func (uc *UseCase) Reindex(ctx context.Context) (int, error) {
	logger := logging.From(ctx)

	chunks, err := uc.repo.ListChunks(ctx)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to load chunk corpus")
	}
	logger.Info("reindexing started", "chunks", len(chunks))

	for _, chunk := range chunks {
		vec, err := uc.embedder.Embed(ctx, chunk.Content)
		if err != nil {
			return 0, goerr.Wrap(err, "failed to re-embed chunk", goerr.V("title", chunk.Title))
		}
		chunk.Embedding = vec

		if err := uc.repo.PutChunk(ctx, chunk); err != nil {
			return 0, goerr.Wrap(err, "failed to save reindexed chunk", goerr.V("title", chunk.Title))
		}
	}

	logger.Info("reindexing completed", "chunks", len(chunks))
	return len(chunks), nil
}

// Remove deletes every chunk of one source document by its title.
func (uc *UseCase) Remove(ctx context.Context, title string) error {
	if err := uc.repo.DeleteChunksByDocTitle(ctx, title); err != nil {
		return goerr.Wrap(err, "failed to delete document chunks", goerr.V("title", title))
	}
	logging.From(ctx).Info("document removed", "title", title)
	return nil
}

func (uc *UseCase) existingTitles(ctx context.Context) (map[string]bool, error) {
	chunks, err := uc.repo.ListChunks(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load chunk corpus")
	}
	titles := make(map[string]bool, len(chunks))
	for _, chunk := range chunks {
		titles[chunk.Metadata.OriginalDocTitle] = true
	}
	return titles, nil
}

func docStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
