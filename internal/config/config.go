package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// TrackedStock maps a ticker symbol to the canonical name articles are
// stored and retrieved under.
type TrackedStock struct {
	Symbol string
	Name   string
}

// Config holds every tunable recognized by the collector and the API server.
type Config struct {
	DatabaseURL      string
	RedisURL         string
	QdrantURL        string
	QdrantCollection string
	QdrantAPIKey     string

	TrackedStocks []TrackedStock

	RetentionWindow time.Duration
	IngestInterval  time.Duration
	SweepInterval   time.Duration
	TickInterval    time.Duration

	ChunkSize          int
	ChunkOverlap       int
	RetrievalLimit     int
	IndexScanLimit     int
	EmbeddingDimension int
	EmbedTimeout       time.Duration

	ReembedMaxAttempts int
	ReembedBatch       int
	SourceLookback     time.Duration

	BindAddr    string
	FrontendURL string
}

// Load builds a Config from environment variables, falling back to defaults.
func Load() (*Config, error) {
	c := &Config{
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisURL:         os.Getenv("REDIS_URL"),
		QdrantURL:        getEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantCollection: getEnv("QDRANT_COLLECTION", "financial-news"),
		QdrantAPIKey:     os.Getenv("QDRANT_API_KEY"),

		TrackedStocks: parseStocks(getEnv("TRACKED_STOCKS", "TSLA=Tesla,GOOG=Google,NVDA=Nvidia")),

		RetentionWindow: getDuration("RETENTION_WINDOW", "24h"),
		IngestInterval:  getDuration("INGEST_INTERVAL", "6h"),
		SweepInterval:   getDuration("SWEEP_INTERVAL", "1h"),
		TickInterval:    getDuration("TICK_INTERVAL", "60s"),

		ChunkSize:          getInt("CHUNK_SIZE", 1000),
		ChunkOverlap:       getInt("CHUNK_OVERLAP", 50),
		RetrievalLimit:     getInt("RETRIEVAL_LIMIT", 5),
		IndexScanLimit:     getInt("INDEX_SCAN_LIMIT", 1000),
		EmbeddingDimension: getInt("EMBEDDING_DIMENSION", 1536),
		EmbedTimeout:       getDuration("EMBED_TIMEOUT", "30s"),

		ReembedMaxAttempts: getInt("REEMBED_MAX_ATTEMPTS", 3),
		ReembedBatch:       getInt("REEMBED_BATCH", 20),
		SourceLookback:     getDuration("SOURCE_LOOKBACK", "48h"),

		BindAddr:    getEnv("API_BIND_ADDR", ":8080"),
		FrontendURL: os.Getenv("FRONTEND_URL"),
	}

	if len(c.TrackedStocks) == 0 {
		return nil, fmt.Errorf("TRACKED_STOCKS must list at least one SYMBOL=Name pair")
	}
	if c.ChunkSize <= 0 {
		return nil, fmt.Errorf("CHUNK_SIZE must be positive")
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return nil, fmt.Errorf("CHUNK_OVERLAP must be in [0, CHUNK_SIZE)")
	}
	if c.RetentionWindow <= 0 {
		return nil, fmt.Errorf("RETENTION_WINDOW must be positive")
	}
	if c.IngestInterval <= 0 || c.SweepInterval <= 0 || c.TickInterval <= 0 {
		return nil, fmt.Errorf("scheduler intervals must be positive")
	}
	if c.RetrievalLimit <= 0 {
		return nil, fmt.Errorf("RETRIEVAL_LIMIT must be positive")
	}
	if c.IndexScanLimit <= 0 {
		return nil, fmt.Errorf("INDEX_SCAN_LIMIT must be positive")
	}
	if c.EmbeddingDimension <= 0 {
		return nil, fmt.Errorf("EMBEDDING_DIMENSION must be positive")
	}

	return c, nil
}

// StockFor resolves a symbol or alias (case-insensitive) to the canonical
// stock name; ok is false when the symbol is not tracked.
func (c *Config) StockFor(symbol string) (string, bool) {
	for _, s := range c.TrackedStocks {
		if strings.EqualFold(s.Symbol, symbol) || strings.EqualFold(s.Name, symbol) {
			return s.Name, true
		}
	}
	return "", false
}

func parseStocks(raw string) []TrackedStock {
	var out []TrackedStock
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		symbol, name, found := strings.Cut(part, "=")
		symbol = strings.TrimSpace(symbol)
		name = strings.TrimSpace(name)
		if !found || symbol == "" || name == "" {
			continue
		}
		out = append(out, TrackedStock{Symbol: symbol, Name: name})
	}
	return out
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key, fallback string) time.Duration {
	raw := getEnv(key, fallback)
	d, err := time.ParseDuration(raw)
	if err != nil {
		d, err = time.ParseDuration(fallback)
		if err != nil {
			panic(fmt.Sprintf("invalid fallback duration %q: %v", fallback, err))
		}
	}
	return d
}
