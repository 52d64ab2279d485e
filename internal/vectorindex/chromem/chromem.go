// Package chromem implements the vector index contract on an embedded
// chromem-go collection. It needs no server, which makes it the store of
// choice for tests and single-node deployments.
package chromem

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"

	"github.com/philippgille/chromem-go"

	"minirag/internal/vectorindex"
)

type Index struct {
	mu         sync.Mutex
	db         *chromem.DB
	collection *chromem.Collection
	name       string
	dim        int
}

// New creates an in-memory index. Pass a non-empty path for a persistent
// database.
func New(path, collection string) (*Index, error) {
	var db *chromem.DB
	var err error
	if path == "" {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(path, false)
		if err != nil {
			return nil, fmt.Errorf("failed to open chromem database: %w", err)
		}
	}
	return &Index{db: db, name: collection}, nil
}

// EnsureCollection tracks the vector size observed on first use. chromem
// itself does not enforce dimensionality, so the guard lives here.
func (i *Index) EnsureCollection(ctx context.Context, dim int) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.dim != 0 && i.dim != dim {
		return fmt.Errorf("%w: collection %q has size %d, embeddings have size %d",
			vectorindex.ErrDimensionMismatch, i.name, i.dim, dim)
	}
	if i.collection == nil {
		c, err := i.db.GetOrCreateCollection(i.name, nil, nil)
		if err != nil {
			return fmt.Errorf("failed to create/get collection: %w", err)
		}
		i.collection = c
	}
	i.dim = dim
	return nil
}

func (i *Index) Upsert(ctx context.Context, points []vectorindex.Point) error {
	i.mu.Lock()
	c := i.collection
	i.mu.Unlock()
	if c == nil {
		return fmt.Errorf("collection %q not initialized", i.name)
	}

	docs := make([]chromem.Document, len(points))
	for n, p := range points {
		docs[n] = chromem.Document{
			ID:        p.ID,
			Embedding: p.Vector,
			Metadata:  encodePayload(p.Payload),
			// chromem requires non-empty content; the chunk row holds the
			// real text, keyed by chunk_id in the metadata.
			Content: p.ID,
		}
	}
	if err := c.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add documents: %w", err)
	}
	return nil
}

func (i *Index) Search(ctx context.Context, vector []float32, limit int, filter vectorindex.Filter) ([]vectorindex.Hit, error) {
	i.mu.Lock()
	c := i.collection
	i.mu.Unlock()
	if c == nil || c.Count() == 0 {
		return nil, nil
	}

	where := map[string]string{
		"user_id": strconv.FormatInt(filter.UserID, 10),
	}
	if filter.PdfID != nil {
		where["pdf_id"] = strconv.FormatInt(*filter.PdfID, 10)
	}

	// chromem rejects result counts above the collection size, but the
	// metadata filter is applied before ranking so the full count is a
	// safe ceiling.
	n := limit
	if count := c.Count(); n > count {
		n = count
	}

	results, err := c.QueryWithOptions(ctx, chromem.QueryOptions{
		QueryEmbedding: vector,
		NResults:       n,
		Where:          where,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query collection: %w", err)
	}

	hits := make([]vectorindex.Hit, 0, len(results))
	for _, r := range results {
		hits = append(hits, vectorindex.Hit{
			ID:      r.ID,
			Score:   r.Similarity,
			Payload: decodePayload(r.Metadata),
		})
	}
	return hits, nil
}

func encodePayload(p vectorindex.Payload) map[string]string {
	return map[string]string{
		"user_id":     strconv.FormatInt(p.UserID, 10),
		"pdf_id":      strconv.FormatInt(p.PdfID, 10),
		"chunk_index": strconv.Itoa(p.ChunkIndex),
		"chunk_id":    strconv.FormatInt(p.ChunkID, 10),
	}
}

func decodePayload(md map[string]string) vectorindex.Payload {
	var p vectorindex.Payload
	p.UserID, _ = strconv.ParseInt(md["user_id"], 10, 64)
	p.PdfID, _ = strconv.ParseInt(md["pdf_id"], 10, 64)
	p.ChunkIndex, _ = strconv.Atoi(md["chunk_index"])
	p.ChunkID, _ = strconv.ParseInt(md["chunk_id"], 10, 64)
	return p
}
