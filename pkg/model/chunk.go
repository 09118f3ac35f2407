package model

import (
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
)

type ChunkID string

// NewChunkID generates a new unique ChunkID
func NewChunkID() ChunkID {
	return ChunkID(uuid.New().String())
}

// ChunkMetadata records where a chunk came from within its source document,
// plus arbitrary frontmatter tags carried over from ingestion.
type ChunkMetadata struct {
	OriginalDocTitle string            `firestore:"original_doc_title"`
	ChunkIndex       int               `firestore:"chunk_index"`
	ChunkCount       int               `firestore:"chunk_count"`
	Tags             map[string]string `firestore:"tags,omitempty"`
}

// KnowledgeChunk is one embedded slice of a knowledge base document. Created
// at ingestion time and read-only for the request pipeline; the embedding is
// regenerated only by reindex.
type KnowledgeChunk struct {
	ID        ChunkID            `firestore:"id"`
	Title     string             `firestore:"title"`
	Content   string             `firestore:"content"`
	Embedding firestore.Vector32 `firestore:"embedding"`
	Metadata  ChunkMetadata      `firestore:"metadata"`
	CreatedAt time.Time          `firestore:"created_at"`
}

// KBID returns the citation ID for this chunk: the kb_id frontmatter tag if
// present, otherwise a short form of the chunk ID.
func (c *KnowledgeChunk) KBID() string {
	if id, ok := c.Metadata.Tags["kb_id"]; ok && id != "" {
		return id
	}
	s := string(c.ID)
	if len(s) > 8 {
		s = s[:8]
	}
	return "KB-" + s
}

// RetrievalHit pairs a chunk with its similarity to one query. Transient:
// lives only within a single retrieval call.
type RetrievalHit struct {
	Chunk      *KnowledgeChunk
	Similarity float64
}
