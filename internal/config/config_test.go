package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 600, cfg.RAG.ChunkSize)
	assert.Equal(t, 100, cfg.RAG.ChunkOverlap)
	assert.Equal(t, "mini_rag_chunks", cfg.Qdrant.Collection)
	assert.Equal(t, "nomic-embed-text", cfg.Ollama.EmbeddingModel)
	assert.Equal(t, "qdrant", cfg.Vector.Store)
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("rag:\n  chunk_size: 800\nvector:\n  store: chromem\n")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 800, cfg.RAG.ChunkSize)
	assert.Equal(t, "chromem", cfg.Vector.Store)
	// Untouched sections keep their defaults.
	assert.Equal(t, "llama3.2", cfg.Ollama.ChatModel)
}

func TestMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 600, cfg.RAG.ChunkSize)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("QDRANT_PORT", "7000")
	t.Setenv("OLLAMA_CHAT_MODEL", "mistral")
	t.Setenv("RAG_TOP_K", "9")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Qdrant.Port)
	assert.Equal(t, "mistral", cfg.Ollama.ChatModel)
	assert.Equal(t, 9, cfg.RAG.TopK)
}
