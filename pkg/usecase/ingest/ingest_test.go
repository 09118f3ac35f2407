package ingest_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/harrier/pkg/kb"
	"github.com/m-mizutani/harrier/pkg/repository"
	"github.com/m-mizutani/harrier/pkg/usecase/ingest"
)

type countingEmbedder struct {
	calls int
	err   error
}

func (e *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	return []float32{float32(len(text)), 1}, nil
}

const vmGuide = `---
kb_id: KB-0001
title: "KB-0001: VM Networking"
category: networking
---

Restart the libvirt daemon with systemctl, then verify the bridge
interface is attached to the VM before booting.`

func writeDoc(t *testing.T, dir, name, content string) {
	t.Helper()
	err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644)
	gt.NoError(t, err)
}

func TestIngestDir(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeDoc(t, dir, "vm-networking.md", vmGuide)
	writeDoc(t, dir, "plain.md", "A short note without frontmatter.")

	repo := repository.NewMemory()
	embedder := &countingEmbedder{}
	uc := ingest.New(ingest.NewInput{Repo: repo, Embedder: embedder})

	report := gt.R1(uc.IngestDir(ctx, dir)).NoError(t)
	gt.V(t, report.Files).Equal(2)
	gt.V(t, report.Ingested).Equal(2)
	gt.V(t, report.Skipped).Equal(0)
	gt.V(t, report.Chunks).Equal(2)

	chunks := gt.R1(repo.ListChunks(ctx)).NoError(t)
	gt.A(t, chunks).Length(2)

	var found bool
	for _, chunk := range chunks {
		if chunk.Metadata.Tags["kb_id"] == "KB-0001" {
			found = true
			gt.V(t, chunk.Metadata.OriginalDocTitle).Equal("KB-0001: VM Networking")
			gt.V(t, chunk.Metadata.Tags["category"]).Equal("networking")
			gt.A(t, []float32(chunk.Embedding)).Longer(0)
		}
	}
	gt.True(t, found)
}

func TestIngestDirSkipsExisting(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeDoc(t, dir, "vm-networking.md", vmGuide)

	repo := repository.NewMemory()
	uc := ingest.New(ingest.NewInput{Repo: repo, Embedder: &countingEmbedder{}})

	first := gt.R1(uc.IngestDir(ctx, dir)).NoError(t)
	gt.V(t, first.Ingested).Equal(1)

	second := gt.R1(uc.IngestDir(ctx, dir)).NoError(t)
	gt.V(t, second.Ingested).Equal(0)
	gt.V(t, second.Skipped).Equal(1)

	chunks := gt.R1(repo.ListChunks(ctx)).NoError(t)
	gt.A(t, chunks).Length(1)
}

func TestIngestFallbackTitle(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeDoc(t, dir, "release-notes.md", "Content without any frontmatter block.")

	repo := repository.NewMemory()
	uc := ingest.New(ingest.NewInput{Repo: repo, Embedder: &countingEmbedder{}})

	gt.R1(uc.IngestDir(ctx, dir)).NoError(t)

	chunks := gt.R1(repo.ListChunks(ctx)).NoError(t)
	gt.A(t, chunks).Length(1)
	gt.V(t, chunks[0].Metadata.OriginalDocTitle).Equal("release-notes")
}

func TestIngestChunksLargeDocument(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	long := ""
	for range [300]int{} {
		long += "word "
	}
	writeDoc(t, dir, "long.md", "---\ntitle: Long Guide\n---\n"+long)

	repo := repository.NewMemory()
	uc := ingest.New(ingest.NewInput{Repo: repo, Embedder: &countingEmbedder{}},
		ingest.WithChunkOptions(kb.Options{Size: 100, Overlap: 20, Strategy: kb.StrategySlidingWindow}))

	report := gt.R1(uc.IngestDir(ctx, dir)).NoError(t)
	gt.N(t, report.Chunks).Greater(1)

	chunks := gt.R1(repo.ListChunks(ctx)).NoError(t)
	gt.S(t, chunks[0].Title).Contains("[Chunk ")
}

func TestIngestEmbedFailure(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeDoc(t, dir, "vm-networking.md", vmGuide)

	repo := repository.NewMemory()
	uc := ingest.New(ingest.NewInput{Repo: repo, Embedder: &countingEmbedder{err: goerr.New("quota exceeded")}})

	_, err := uc.IngestDir(ctx, dir)
	gt.Error(t, err)
}

func TestReindex(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeDoc(t, dir, "vm-networking.md", vmGuide)

	repo := repository.NewMemory()
	embedder := &countingEmbedder{}
	uc := ingest.New(ingest.NewInput{Repo: repo, Embedder: embedder})

	gt.R1(uc.IngestDir(ctx, dir)).NoError(t)
	before := embedder.calls

	count := gt.R1(uc.Reindex(ctx)).NoError(t)
	gt.V(t, count).Equal(1)
	gt.V(t, embedder.calls).Equal(before + 1)
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeDoc(t, dir, "vm-networking.md", vmGuide)

	repo := repository.NewMemory()
	uc := ingest.New(ingest.NewInput{Repo: repo, Embedder: &countingEmbedder{}})
	gt.R1(uc.IngestDir(ctx, dir)).NoError(t)

	gt.NoError(t, uc.Remove(ctx, "KB-0001: VM Networking"))

	chunks := gt.R1(repo.ListChunks(ctx)).NoError(t)
	gt.A(t, chunks).Length(0)
}
