package rag

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"minirag/internal/chunker"
	"minirag/internal/store"
	"minirag/internal/vectorindex"
)

// Ingestor turns extracted document text into chunk rows and vector
// points. Rows are committed before the batched point write; there is no
// cross-store transaction, so a late index failure leaves rows without
// points for external reconciliation.
type Ingestor struct {
	store     ChunkStore
	embedder  Embedder
	index     vectorindex.Index
	chunkSize int
	overlap   int
}

func NewIngestor(st ChunkStore, embedder Embedder, index vectorindex.Index, chunkSize, overlap int) *Ingestor {
	if chunkSize <= 0 {
		chunkSize = chunker.DefaultChunkSize
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = chunker.DefaultOverlap
	}
	return &Ingestor{
		store:     st,
		embedder:  embedder,
		index:     index,
		chunkSize: chunkSize,
		overlap:   overlap,
	}
}

// Ingest chunks the text, embeds the whole batch, makes sure the index
// collection matches the observed vector size, then upserts one row and
// one point per chunk. Returns the stored rows and the number of points
// written.
func (g *Ingestor) Ingest(ctx context.Context, text string, userID, pdfID int64) ([]store.Chunk, int, error) {
	chunks := chunker.Chunk(text, g.chunkSize, g.overlap)
	if len(chunks) == 0 {
		return nil, 0, ErrEmptyContent
	}

	vectors, err := g.embedder.EmbedMany(ctx, chunks)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrEmbeddingFailure, err)
	}
	if len(vectors) != len(chunks) || len(vectors[0]) == 0 {
		return nil, 0, fmt.Errorf("%w: got %d vectors for %d chunks", ErrEmbeddingFailure, len(vectors), len(chunks))
	}

	// Collections are sized lazily from observed data, never from a
	// fixed constant. A mismatch with an existing collection is fatal.
	if err = g.index.EnsureCollection(ctx, len(vectors[0])); err != nil {
		return nil, 0, err
	}

	rows := make([]store.Chunk, 0, len(chunks))
	points := make([]vectorindex.Point, 0, len(chunks))
	for i, content := range chunks {
		row := &store.Chunk{
			PdfID:      pdfID,
			UserID:     userID,
			Content:    content,
			ChunkIndex: i,
			SortOrder:  i + 1,
			Guid:       idempotencyKey(content),
			VectorID:   uuid.NewString(),
		}
		// The upsert keeps the prior vector_id when the guid already
		// exists, so the freshly generated one above is only a proposal.
		if err = g.store.UpsertChunk(ctx, row); err != nil {
			return nil, 0, fmt.Errorf("failed to store chunk %d: %w", i, err)
		}

		rows = append(rows, *row)
		points = append(points, vectorindex.Point{
			ID:     row.VectorID,
			Vector: vectors[i],
			Payload: vectorindex.Payload{
				UserID:     userID,
				PdfID:      pdfID,
				ChunkIndex: i,
				ChunkID:    row.ID,
			},
		})
	}

	if err = g.index.Upsert(ctx, points); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrIndexWrite, err)
	}

	log.Info().
		Int64("pdf_id", pdfID).
		Int64("user_id", userID).
		Int("chunks", len(rows)).
		Msg("document ingested")

	return rows, len(points), nil
}

// idempotencyKey derives the chunk's stable identity from its content so
// identical content updates a row instead of duplicating it.
func idempotencyKey(content string) string {
	sum := md5.Sum([]byte(content))
	return hex.EncodeToString(sum[:])
}
