package retrieval

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"stockpulse/internal/model"
)

type RecordStore interface {
	QueryRecent(ctx context.Context, stock string, limit int) ([]model.Article, error)
}

type VectorIndex interface {
	Query(ctx context.Context, vector []float64, topK int, stock string) ([]model.ScoredEntry, error)
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Service merges recent record-store rows with semantic index matches into
// one feed ranked by timestamp. It never returns an error: either half
// degrades to empty on failure, and an unknown stock yields an empty feed.
type Service struct {
	store    RecordStore
	index    VectorIndex
	embedder Embedder
	timeout  time.Duration
}

func NewService(store RecordStore, index VectorIndex, embedder Embedder, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Service{store: store, index: index, embedder: embedder, timeout: timeout}
}

// Retrieve returns up to limit items for the stock, newest first. Exact
// matches carry their store timestamp; semantic matches carry their index
// metadata timestamp, with the zero value sorting last.
func (s *Service) Retrieve(ctx context.Context, stock string, limit int) []model.RetrievedItem {
	items := make([]model.RetrievedItem, 0, 2*limit)

	storeCtx, cancel := context.WithTimeout(ctx, s.timeout)
	articles, err := s.store.QueryRecent(storeCtx, stock, limit)
	cancel()
	if err != nil {
		slog.Error("error retrieving recent news", "error", err, "stock", stock)
	}
	for _, a := range articles {
		items = append(items, model.RetrievedItem{
			Title:      a.Title,
			Content:    a.Content,
			Source:     a.Source,
			Link:       a.Link,
			Timestamp:  a.Timestamp,
			SourceType: model.SourceExact,
		})
	}

	items = append(items, s.semanticMatches(ctx, stock, limit)...)

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Timestamp.After(items[j].Timestamp)
	})

	if len(items) > limit {
		items = items[:limit]
	}
	return items
}

// semanticMatches returns the index half of the feed, or nothing when the
// embedder or index is unavailable.
func (s *Service) semanticMatches(ctx context.Context, stock string, limit int) []model.RetrievedItem {
	embedCtx, cancel := context.WithTimeout(ctx, s.timeout)
	vector, err := s.embedder.Embed(embedCtx, stock)
	cancel()
	if err != nil {
		slog.Warn("error embedding query, skipping semantic results", "error", err, "stock", stock)
		return nil
	}

	queryCtx, cancel := context.WithTimeout(ctx, s.timeout)
	matches, err := s.index.Query(queryCtx, vector, limit, stock)
	cancel()
	if err != nil {
		slog.Warn("error querying index, skipping semantic results", "error", err, "stock", stock)
		return nil
	}

	items := make([]model.RetrievedItem, 0, len(matches))
	for _, m := range matches {
		items = append(items, model.RetrievedItem{
			Title:          m.Title,
			Content:        m.Content,
			Source:         m.Source,
			Link:           m.Link,
			Timestamp:      m.Timestamp,
			SourceType:     model.SourceSemantic,
			RelevanceScore: m.Score,
		})
	}
	return items
}
