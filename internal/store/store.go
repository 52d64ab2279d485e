// Package store persists documents, chunks and settings in Postgres
// through bun.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"
)

// Pdf is one uploaded file. Rows are immutable after creation.
type Pdf struct {
	bun.BaseModel `bun:"table:pdfs,alias:p"`

	ID        int64     `bun:"id,pk,autoincrement"`
	UserID    int64     `bun:"user_id,notnull"`
	Name      string    `bun:"name,notnull"`
	FilePath  string    `bun:"file_path,notnull"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// Chunk is one retrievable slice of a document's text. Guid is the
// idempotency key (content hash); VectorID correlates the row to its
// point in the vector index and never changes for the row's lifetime.
type Chunk struct {
	bun.BaseModel `bun:"table:chunks,alias:c"`

	ID         int64     `bun:"id,pk,autoincrement"`
	PdfID      int64     `bun:"pdf_id,notnull"`
	UserID     int64     `bun:"user_id,notnull"`
	Content    string    `bun:"content,notnull"`
	ChunkIndex int       `bun:"chunk_index,notnull"`
	SortOrder  int       `bun:"sort_order"`
	Guid       string    `bun:"guid,notnull,unique"`
	VectorID   string    `bun:"vector_id,notnull,unique"`
	CreatedAt  time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt  time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// Setting is one runtime key/value configuration entry.
type Setting struct {
	bun.BaseModel `bun:"table:settings,alias:s"`

	ID    int64  `bun:"id,pk,autoincrement"`
	Key   string `bun:"key,notnull,unique"`
	Value string `bun:"value,notnull"`
}

type Store struct {
	db *bun.DB
}

func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

func NewDB(sqldb *sql.DB, verbose bool) *bun.DB {
	db := bun.NewDB(sqldb, pgdialect.New())
	if verbose {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db
}

func Connect(dsn, password string) (*sql.DB, error) {
	return sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn), pgdriver.WithPassword(password))), nil
}

func (s *Store) CreateTables(ctx context.Context) error {
	for _, model := range []any{(*Pdf)(nil), (*Chunk)(nil), (*Setting)(nil)} {
		if _, err := s.db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	return nil
}

func (s *Store) CreatePdf(ctx context.Context, pdf *Pdf) error {
	if _, err := s.db.NewInsert().Model(pdf).Exec(ctx); err != nil {
		return fmt.Errorf("failed to create pdf: %w", err)
	}
	return nil
}

// UpsertChunk inserts the row or, when a chunk with the same guid already
// exists, updates its location columns in place. vector_id is deliberately
// left out of the update so re-ingesting identical content keeps the
// existing index point instead of orphaning it. The stored row (including
// its id and surviving vector_id) is scanned back into ch.
func (s *Store) UpsertChunk(ctx context.Context, ch *Chunk) error {
	now := time.Now()
	ch.CreatedAt = now
	ch.UpdatedAt = now

	_, err := s.db.NewInsert().
		Model(ch).
		On("CONFLICT (guid) DO UPDATE").
		Set("pdf_id = EXCLUDED.pdf_id").
		Set("user_id = EXCLUDED.user_id").
		Set("content = EXCLUDED.content").
		Set("chunk_index = EXCLUDED.chunk_index").
		Set("sort_order = EXCLUDED.sort_order").
		Set("updated_at = EXCLUDED.updated_at").
		Returning("*").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to upsert chunk: %w", err)
	}
	return nil
}

// ChunksByIDs returns the rows for the given ids ordered for context
// reconstruction.
func (s *Store) ChunksByIDs(ctx context.Context, ids []int64) ([]Chunk, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var chunks []Chunk
	err := s.db.NewSelect().
		Model(&chunks).
		Where("c.id IN (?)", bun.In(ids)).
		Order("sort_order ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load chunks: %w", err)
	}
	return chunks, nil
}

// Siblings returns the chunks immediately before and after the given
// position within one document, in ascending index order.
func (s *Store) Siblings(ctx context.Context, pdfID int64, chunkIndex int) ([]Chunk, error) {
	var chunks []Chunk
	err := s.db.NewSelect().
		Model(&chunks).
		Where("c.pdf_id = ?", pdfID).
		Where("c.chunk_index IN (?)", bun.In([]int{chunkIndex - 1, chunkIndex + 1})).
		Order("chunk_index ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load siblings: %w", err)
	}
	return chunks, nil
}

// LoadSettings returns all settings as a key/value map.
func (s *Store) LoadSettings(ctx context.Context) (map[string]string, error) {
	var settings []Setting
	if err := s.db.NewSelect().Model(&settings).Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	out := make(map[string]string, len(settings))
	for _, st := range settings {
		out[st.Key] = st.Value
	}
	return out, nil
}
