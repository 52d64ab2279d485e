package rag

import (
	"context"
	"fmt"
	"strings"

	"minirag/internal/vectorindex"
)

// ContextSeparator joins stitched chunk contents in the final context
// string.
const ContextSeparator = "\n\n---\n\n"

const DefaultSearchLimit = 5

// Retriever answers queries against the vector index and reassembles the
// surrounding document context from the chunk store.
type Retriever struct {
	embedder Embedder
	index    vectorindex.Index
	store    ChunkStore
}

func NewRetriever(embedder Embedder, index vectorindex.Index, st ChunkStore) *Retriever {
	return &Retriever{embedder: embedder, index: index, store: st}
}

// Retrieve embeds the query and searches the index scoped to the owner,
// optionally narrowed to one document. Zero hits is a normal outcome, not
// an error.
func (r *Retriever) Retrieve(ctx context.Context, query string, userID int64, pdfID *int64, limit int) ([]vectorindex.Hit, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	vector, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailure, err)
	}
	if len(vector) == 0 {
		return nil, fmt.Errorf("%w: empty query embedding", ErrEmbeddingFailure)
	}

	filter := vectorindex.Filter{UserID: userID, PdfID: pdfID}
	return r.index.Search(ctx, vector, limit, filter)
}

// BuildContext resolves each hit to its chunk row and stitches in the
// immediate neighbor chunks, deduplicated, in reconstruction order. Hits
// without a resolvable chunk id are skipped; if none resolve the result
// is an empty string.
func (r *Retriever) BuildContext(ctx context.Context, hits []vectorindex.Hit) (string, error) {
	var ids []int64
	for _, hit := range hits {
		if hit.Payload.ChunkID != 0 {
			ids = append(ids, hit.Payload.ChunkID)
		}
	}
	if len(ids) == 0 {
		return "", nil
	}

	chunks, err := r.store.ChunksByIDs(ctx, ids)
	if err != nil {
		return "", err
	}

	var texts []string
	emitted := make(map[int64]bool)

	for _, chunk := range chunks {
		if emitted[chunk.ID] {
			continue
		}
		texts = append(texts, chunk.Content)
		emitted[chunk.ID] = true

		// Knit the neighbors back in to recover context lost at the
		// chunk boundary.
		siblings, err := r.store.Siblings(ctx, chunk.PdfID, chunk.ChunkIndex)
		if err != nil {
			return "", err
		}
		for _, sibling := range siblings {
			if emitted[sibling.ID] {
				continue
			}
			texts = append(texts, sibling.Content)
			emitted[sibling.ID] = true
		}
	}

	return strings.Join(texts, ContextSeparator), nil
}
