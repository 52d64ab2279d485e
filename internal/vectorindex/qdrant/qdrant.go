// Package qdrant implements the vector index contract against a Qdrant
// server over gRPC.
package qdrant

import (
	"context"
	"fmt"
	"time"

	"github.com/qdrant/go-client/qdrant"
	"github.com/rs/zerolog/log"

	"minirag/internal/vectorindex"
)

const (
	payloadUserID     = "user_id"
	payloadPdfID      = "pdf_id"
	payloadChunkIndex = "chunk_index"
	payloadChunkID    = "chunk_id"
)

type Index struct {
	client     *qdrant.Client
	collection string
	timeout    time.Duration
}

type Config struct {
	Host       string
	Port       int
	APIKey     string
	Collection string
	// Timeout bounds every index call; zero leaves the caller's context
	// deadline in charge.
	Timeout time.Duration
}

func New(cfg Config) (*Index, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to qdrant: %w", err)
	}
	return &Index{client: client, collection: cfg.Collection, timeout: cfg.Timeout}, nil
}

// opCtx applies the configured per-call deadline.
func (i *Index) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if i.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, i.timeout)
}

func (i *Index) Close() error {
	return i.client.Close()
}

// EnsureCollection creates the collection with cosine distance on first
// use, sized from dim. An existing collection with a different vector
// size is a fatal configuration fault.
func (i *Index) EnsureCollection(ctx context.Context, dim int) error {
	ctx, cancel := i.opCtx(ctx)
	defer cancel()

	exists, err := i.client.CollectionExists(ctx, i.collection)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}

	if exists {
		info, err := i.client.GetCollectionInfo(ctx, i.collection)
		if err != nil {
			return fmt.Errorf("failed to read collection info: %w", err)
		}
		size := info.GetConfig().GetParams().GetVectorsConfig().GetParams().GetSize()
		if size != uint64(dim) {
			return fmt.Errorf("%w: collection %q has size %d, embeddings have size %d",
				vectorindex.ErrDimensionMismatch, i.collection, size, dim)
		}
		return i.ensurePayloadIndexes(ctx)
	}

	if err = i.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: i.collection,
		VectorsConfig: &qdrant.VectorsConfig{
			Config: &qdrant.VectorsConfig_Params{
				Params: &qdrant.VectorParams{
					Size:     uint64(dim),
					Distance: qdrant.Distance_Cosine,
				},
			},
		},
	}); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}
	log.Info().Str("collection", i.collection).Int("dim", dim).Msg("created qdrant collection")

	return i.ensurePayloadIndexes(ctx)
}

// Keyword indexes over the tenant fields keep filtered search cheap.
func (i *Index) ensurePayloadIndexes(ctx context.Context) error {
	for _, field := range []string{payloadUserID, payloadPdfID} {
		_, err := i.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: i.collection,
			FieldName:      field,
			FieldType:      qdrant.FieldType_FieldTypeInteger.Enum(),
		})
		if err != nil {
			return fmt.Errorf("failed to index payload field %s: %w", field, err)
		}
	}
	return nil
}

func (i *Index) Upsert(ctx context.Context, points []vectorindex.Point) error {
	ctx, cancel := i.opCtx(ctx)
	defer cancel()

	pts := make([]*qdrant.PointStruct, len(points))
	for n, p := range points {
		pts[n] = &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(p.ID),
			Vectors: qdrant.NewVectors(p.Vector...),
			Payload: qdrant.NewValueMap(map[string]any{
				payloadUserID:     p.Payload.UserID,
				payloadPdfID:      p.Payload.PdfID,
				payloadChunkIndex: p.Payload.ChunkIndex,
				payloadChunkID:    p.Payload.ChunkID,
			}),
		}
	}

	_, err := i.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: i.collection,
		Points:         pts,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("failed to upsert points: %w", err)
	}
	return nil
}

func (i *Index) Search(ctx context.Context, vector []float32, limit int, filter vectorindex.Filter) ([]vectorindex.Hit, error) {
	ctx, cancel := i.opCtx(ctx)
	defer cancel()

	must := []*qdrant.Condition{
		qdrant.NewMatchInt(payloadUserID, filter.UserID),
	}
	if filter.PdfID != nil {
		must = append(must, qdrant.NewMatchInt(payloadPdfID, *filter.PdfID))
	}

	lim := uint64(limit)
	resp, err := i.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: i.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          &lim,
		Filter:         &qdrant.Filter{Must: must},
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search qdrant: %w", err)
	}

	hits := make([]vectorindex.Hit, 0, len(resp))
	for _, r := range resp {
		var id string
		if r.Id != nil {
			if u, ok := r.Id.PointIdOptions.(*qdrant.PointId_Uuid); ok {
				id = u.Uuid
			}
		}
		hits = append(hits, vectorindex.Hit{
			ID:      id,
			Score:   r.Score,
			Payload: decodePayload(r.Payload),
		})
	}
	return hits, nil
}

func decodePayload(values map[string]*qdrant.Value) vectorindex.Payload {
	var p vectorindex.Payload
	if v, ok := values[payloadUserID]; ok {
		p.UserID = v.GetIntegerValue()
	}
	if v, ok := values[payloadPdfID]; ok {
		p.PdfID = v.GetIntegerValue()
	}
	if v, ok := values[payloadChunkIndex]; ok {
		p.ChunkIndex = int(v.GetIntegerValue())
	}
	if v, ok := values[payloadChunkID]; ok {
		p.ChunkID = v.GetIntegerValue()
	}
	return p
}
