// Package rag holds the ingestion and retrieval pipelines: chunking
// uploaded documents into the chunk store and vector index, and answering
// queries from owner-scoped similarity search over those chunks.
package rag

import (
	"context"
	"errors"

	"minirag/internal/store"
)

var (
	// ErrEmptyContent means chunking produced nothing retrievable. The
	// upload must be rejected.
	ErrEmptyContent = errors.New("document content is empty or unreadable")

	// ErrEmbeddingFailure means the embedding backend returned nothing
	// usable for the call. Not retried.
	ErrEmbeddingFailure = errors.New("failed to generate embeddings")

	// ErrIndexWrite means the batched vector upsert did not fully
	// succeed. Chunk rows already committed are left in place.
	ErrIndexWrite = errors.New("failed to write vectors to the index")
)

// Embedder turns texts into equal-length vectors, one per input, in
// input order.
type Embedder interface {
	EmbedMany(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// ChunkStore is the relational side of the chunk/vector pair.
type ChunkStore interface {
	UpsertChunk(ctx context.Context, ch *store.Chunk) error
	ChunksByIDs(ctx context.Context, ids []int64) ([]store.Chunk, error)
	Siblings(ctx context.Context, pdfID int64, chunkIndex int) ([]store.Chunk, error)
}

// Completer maps a prompt to an answer.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Sink receives an answer as ordered increments followed by exactly one
// terminal Done or Fail. The transport behind it is external.
type Sink interface {
	Emit(chunk string) error
	Done() error
	Fail(err error) error
}
