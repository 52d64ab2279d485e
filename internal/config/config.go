// Package config loads the application configuration from a YAML file
// with environment variable overrides.
package config

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	DB     DBConfig     `yaml:"db"`
	Ollama OllamaConfig `yaml:"ollama"`
	Qdrant QdrantConfig `yaml:"qdrant"`
	Vector VectorConfig `yaml:"vector"`
	RAG    RAGConfig    `yaml:"rag"`
}

type DBConfig struct {
	DSN      string `yaml:"dsn"`
	Password string `yaml:"password"`
	Verbose  bool   `yaml:"verbose"`
}

type OllamaConfig struct {
	BaseURL        string `yaml:"base_url"`
	EmbeddingModel string `yaml:"embedding_model"`
	ChatModel      string `yaml:"chat_model"`
	TimeoutSecs    int    `yaml:"timeout_secs"`
}

type QdrantConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	APIKey      string `yaml:"api_key"`
	Collection  string `yaml:"collection"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// VectorConfig selects the vector index implementation bound at startup.
type VectorConfig struct {
	Store string `yaml:"store"` // "qdrant" or "chromem"
	Path  string `yaml:"path"`  // chromem persistence directory, empty for in-memory
}

type RAGConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
	TopK         int `yaml:"top_k"`
}

func Default() *Config {
	return &Config{
		DB: DBConfig{
			DSN: "postgres://postgres@localhost:5432/minirag?sslmode=disable",
		},
		Ollama: OllamaConfig{
			BaseURL:        "http://127.0.0.1:11434",
			EmbeddingModel: "nomic-embed-text",
			ChatModel:      "llama3.2",
			TimeoutSecs:    120,
		},
		Qdrant: QdrantConfig{
			Host:        "localhost",
			Port:        6334,
			Collection:  "mini_rag_chunks",
			TimeoutSecs: 10,
		},
		Vector: VectorConfig{Store: "qdrant"},
		RAG: RAGConfig{
			ChunkSize:    600,
			ChunkOverlap: 100,
			TopK:         5,
		},
	}
}

// Load reads the YAML file at path over the defaults, then applies
// environment overrides. A missing file is not an error; env-only setups
// are supported.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, err
			}
		} else if !os.IsNotExist(err) {
			return nil, err
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.DB.DSN, "DATABASE_DSN")
	setString(&c.DB.Password, "DATABASE_PASSWORD")
	setString(&c.Ollama.BaseURL, "OLLAMA_BASE_URL")
	setString(&c.Ollama.EmbeddingModel, "OLLAMA_EMBEDDING_MODEL")
	setString(&c.Ollama.ChatModel, "OLLAMA_CHAT_MODEL")
	setInt(&c.Ollama.TimeoutSecs, "OLLAMA_TIMEOUT")
	setString(&c.Qdrant.Host, "QDRANT_HOST")
	setInt(&c.Qdrant.Port, "QDRANT_PORT")
	setString(&c.Qdrant.APIKey, "QDRANT_API_KEY")
	setString(&c.Qdrant.Collection, "QDRANT_COLLECTION")
	setInt(&c.Qdrant.TimeoutSecs, "QDRANT_TIMEOUT")
	setString(&c.Vector.Store, "VECTOR_STORE")
	setString(&c.Vector.Path, "VECTOR_STORE_PATH")
	setInt(&c.RAG.ChunkSize, "RAG_CHUNK_SIZE")
	setInt(&c.RAG.ChunkOverlap, "RAG_CHUNK_OVERLAP")
	setInt(&c.RAG.TopK, "RAG_TOP_K")
}

func (c *Config) OllamaTimeout() time.Duration {
	return time.Duration(c.Ollama.TimeoutSecs) * time.Second
}

func (c *Config) QdrantTimeout() time.Duration {
	return time.Duration(c.Qdrant.TimeoutSecs) * time.Second
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
