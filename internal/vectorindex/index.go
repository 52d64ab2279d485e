// Package vectorindex defines the contract the retrieval pipeline expects
// from a vector index backend, plus the point and hit shapes shared by the
// implementations.
package vectorindex

import (
	"context"
	"errors"
)

// ErrDimensionMismatch reports that the collection already exists with a
// different vector size than the one observed from the embedding backend.
// Fatal for the upload; requires operator intervention.
var ErrDimensionMismatch = errors.New("vector collection dimension mismatch")

// Payload links a vector point back to its chunk row and carries the
// fields used for filtered search.
type Payload struct {
	UserID     int64
	PdfID      int64
	ChunkIndex int
	ChunkID    int64
}

// Point is one vector with its payload, keyed by an opaque id.
type Point struct {
	ID      string
	Vector  []float32
	Payload Payload
}

// Hit is a single similarity-search result. Not persisted.
type Hit struct {
	ID      string
	Score   float32
	Payload Payload
}

// Filter is a conjunction of exact-match constraints. UserID is always
// required; PdfID narrows the search to one document when set.
type Filter struct {
	UserID int64
	PdfID  *int64
}

// Index is the vector store contract. EnsureCollection is idempotent and
// fails with ErrDimensionMismatch when an existing collection disagrees
// with dim. Upsert is batched and all-or-nothing from the caller's
// perspective. Search returns at most limit hits ordered by descending
// cosine similarity, honoring the filter as a hard constraint; an empty
// result is not an error.
type Index interface {
	EnsureCollection(ctx context.Context, dim int) error
	Upsert(ctx context.Context, points []Point) error
	Search(ctx context.Context, vector []float32, limit int, filter Filter) ([]Hit, error)
}
