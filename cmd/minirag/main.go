package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"minirag/internal/config"
	"minirag/internal/embedding"
	"minirag/internal/extract"
	"minirag/internal/llm"
	"minirag/internal/rag"
	"minirag/internal/settings"
	"minirag/internal/store"
	"minirag/internal/vectorindex"
	chromemindex "minirag/internal/vectorindex/chromem"
	qdrantindex "minirag/internal/vectorindex/qdrant"
)

const defaultConfigPath = "./configs/config.yaml"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	_ = godotenv.Load()

	configPath := flag.String("config", defaultConfigPath, "Path to the config file")
	filePath := flag.String("file", "", "Path to a document file to ingest")
	query := flag.String("query", "", "Question to answer from ingested documents")
	userID := flag.Int64("user", 1, "Owner id for ingestion and retrieval")
	pdfID := flag.Int64("pdf", 0, "Restrict the query to one document id")
	flag.Parse()

	if *filePath == "" && *query == "" {
		log.Fatal().Msg("Please provide a document file using the -file flag or a question using the -query flag")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}

	ctx := context.Background()

	sqldb, err := store.Connect(cfg.DB.DSN, cfg.DB.Password)
	if err != nil {
		log.Fatal().Err(err).Msg("Error connecting to database")
	}
	db := store.NewDB(sqldb, cfg.DB.Verbose)
	defer db.Close()

	st := store.NewStore(db)
	if err = st.CreateTables(ctx); err != nil {
		log.Fatal().Err(err).Msg("Error initializing database")
	}

	applySettings(ctx, settings.NewService(st), cfg)

	index := newIndex(cfg)

	embedder, err := embedding.NewOllamaEmbedder(embedding.Config{
		BaseURL: cfg.Ollama.BaseURL,
		Model:   cfg.Ollama.EmbeddingModel,
		Timeout: cfg.OllamaTimeout(),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Error creating embedder")
	}

	if *filePath != "" {
		ingestFile(ctx, cfg, st, embedder, index, *filePath, *userID)
		return
	}

	completer, err := llm.NewOllamaCompleter(llm.Config{
		BaseURL: cfg.Ollama.BaseURL,
		Model:   cfg.Ollama.ChatModel,
		Timeout: cfg.OllamaTimeout(),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Error creating completer")
	}

	var pdf *int64
	if *pdfID != 0 {
		pdf = pdfID
	}

	chat := rag.NewChat(rag.NewRetriever(embedder, index, st), completer, cfg.RAG.TopK)
	chat.HandleQuery(ctx, &consoleSink{}, *query, *userID, pdf)
}

// newIndex binds the vector index implementation chosen in config.
func newIndex(cfg *config.Config) vectorindex.Index {
	switch cfg.Vector.Store {
	case "chromem":
		index, err := chromemindex.New(cfg.Vector.Path, cfg.Qdrant.Collection)
		if err != nil {
			log.Fatal().Err(err).Msg("Error opening chromem index")
		}
		return index
	default:
		index, err := qdrantindex.New(qdrantindex.Config{
			Host:       cfg.Qdrant.Host,
			Port:       cfg.Qdrant.Port,
			APIKey:     cfg.Qdrant.APIKey,
			Collection: cfg.Qdrant.Collection,
			Timeout:    cfg.QdrantTimeout(),
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Error connecting to qdrant")
		}
		return index
	}
}

// applySettings lets the runtime settings table override the static chunking
// config without a restart.
func applySettings(ctx context.Context, svc *settings.Service, cfg *config.Config) {
	if v, ok, err := svc.Get(ctx, "rag.chunk_size"); err == nil && ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RAG.ChunkSize = n
		}
	}
	if v, ok, err := svc.Get(ctx, "rag.chunk_overlap"); err == nil && ok {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.RAG.ChunkOverlap = n
		}
	}
}

func ingestFile(ctx context.Context, cfg *config.Config, st *store.Store, embedder *embedding.Embedder, index vectorindex.Index, filePath string, userID int64) {
	text, err := extract.Text(filePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error extracting document text")
	}

	pdf := &store.Pdf{
		UserID:   userID,
		Name:     filePath,
		FilePath: filePath,
	}
	if err = st.CreatePdf(ctx, pdf); err != nil {
		log.Fatal().Err(err).Msg("Error creating document record")
	}

	ingestor := rag.NewIngestor(st, embedder, index, cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap)
	rows, points, err := ingestor.Ingest(ctx, text, userID, pdf.ID)
	if err != nil {
		log.Fatal().Err(err).Msg("Error ingesting document")
	}

	log.Info().
		Int64("pdf_id", pdf.ID).
		Int("chunks", len(rows)).
		Int("vectors", points).
		Msg("ingestion complete")
}

// consoleSink writes answer increments to stdout as they arrive.
type consoleSink struct{}

func (consoleSink) Emit(chunk string) error {
	_, err := fmt.Print(chunk)
	return err
}

func (consoleSink) Done() error {
	_, err := fmt.Println()
	return err
}

func (consoleSink) Fail(err error) error {
	fmt.Println()
	log.Error().Err(err).Msg("query failed")
	return nil
}
