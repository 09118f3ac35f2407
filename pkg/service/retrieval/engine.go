package retrieval

import (
	"math"
	"sort"

	"github.com/m-mizutani/harrier/pkg/model"
)

const (
	// DefaultTopK is the number of chunks returned per query.
	DefaultTopK = 5
	// DefaultCoverageThreshold is the minimum best similarity for a query
	// to count as covered by the knowledge base. Cosine similarity of
	// 0.25+ is good for semantic search.
	DefaultCoverageThreshold = 0.25
)

// Cosine computes cosine similarity between two vectors. Mismatched lengths
// or a zero-norm vector yield 0, never an error.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Engine ranks knowledge chunks against a query embedding. It holds no
// corpus state; callers pass the chunk snapshot fetched for the request.
type Engine struct {
	topK     int
	coverage float64
}

type Option func(*Engine)

// WithTopK overrides the number of chunks returned per query.
func WithTopK(k int) Option {
	return func(e *Engine) {
		if k > 0 {
			e.topK = k
		}
	}
}

// WithCoverageThreshold overrides the minimum similarity for coverage.
func WithCoverageThreshold(v float64) Option {
	return func(e *Engine) {
		e.coverage = v
	}
}

func New(opts ...Option) *Engine {
	e := &Engine{
		topK:     DefaultTopK,
		coverage: DefaultCoverageThreshold,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Rank scores every chunk against the query embedding and returns the top-k
// hits in descending similarity. The sort is stable so equal-scoring chunks
// keep their input order.
func (e *Engine) Rank(query []float32, chunks []*model.KnowledgeChunk) []*model.RetrievalHit {
	hits := make([]*model.RetrievalHit, 0, len(chunks))
	for _, chunk := range chunks {
		hits = append(hits, &model.RetrievalHit{
			Chunk:      chunk,
			Similarity: Cosine(query, chunk.Embedding),
		})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Similarity > hits[j].Similarity
	})

	if len(hits) > e.topK {
		hits = hits[:e.topK]
	}

	return hits
}

// Covered reports whether the ranked hits ground an answer: at least one
// hit with best similarity above the coverage threshold.
func (e *Engine) Covered(hits []*model.RetrievalHit) bool {
	return len(hits) > 0 && hits[0].Similarity > e.coverage
}
