package ingest

import (
	"context"
	"log/slog"
	"time"

	"stockpulse/internal/model"
)

type RecordStore interface {
	InsertIfAbsent(ctx context.Context, article *model.Article) (bool, error)
	GetByID(ctx context.Context, id int64) (*model.Article, error)
}

type VectorIndex interface {
	Upsert(ctx context.Context, entries []model.IndexEntry) error
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

type Chunker interface {
	Split(content string) []string
}

// EmbedQueue holds record ids whose articles have no semantic coverage yet.
type EmbedQueue interface {
	Push(ctx context.Context, recordID int64, attempts int) error
	Pop(ctx context.Context) (recordID int64, attempts int, ok bool, err error)
}

// Pipeline ingests one raw article: insert-if-absent into the record store,
// chunk, embed, and batch-upsert into the semantic index. The durable record
// is authoritative; semantic coverage is best-effort and never rolls it back.
type Pipeline struct {
	store        RecordStore
	index        VectorIndex
	embedder     Embedder
	chunker      Chunker
	queue        EmbedQueue
	embedTimeout time.Duration
}

func NewPipeline(store RecordStore, index VectorIndex, embedder Embedder, chunker Chunker, queue EmbedQueue, embedTimeout time.Duration) *Pipeline {
	if embedTimeout <= 0 {
		embedTimeout = 30 * time.Second
	}
	return &Pipeline{
		store:        store,
		index:        index,
		embedder:     embedder,
		chunker:      chunker,
		queue:        queue,
		embedTimeout: embedTimeout,
	}
}

// Ingest processes one candidate article. A duplicate link stops processing
// with inserted=false and no error; a record-store failure aborts. Chunks
// whose embedding fails are skipped. When the inserted record ends up with
// zero index entries, its id is queued for a later re-embed attempt.
func (p *Pipeline) Ingest(ctx context.Context, raw model.RawArticle) (bool, error) {
	article := model.Article{
		Stock:   raw.Stock,
		Source:  raw.Source,
		Title:   raw.Title,
		Link:    raw.Link,
		Content: raw.Content,
	}

	inserted, err := p.store.InsertIfAbsent(ctx, &article)
	if err != nil {
		return false, err
	}

	if !inserted {
		slog.Info("duplicate article skipped", "link", article.Link, "stock", article.Stock)
		return false, nil
	}

	if !p.indexArticle(ctx, &article) {
		p.requeue(ctx, article.ID, 1)
	}

	return true, nil
}

// RetryFailed drains up to batch queued records and retries their embedding.
// A record that fails again is re-queued until maxAttempts, then dropped.
func (p *Pipeline) RetryFailed(ctx context.Context, batch, maxAttempts int) {
	if p.queue == nil {
		return
	}

	for range batch {
		recordID, attempts, ok, err := p.queue.Pop(ctx)
		if err != nil {
			slog.Error("error popping re-embed queue", "error", err)
			return
		}
		if !ok {
			return
		}

		article, err := p.store.GetByID(ctx, recordID)
		if err != nil {
			slog.Error("error loading article for re-embed", "error", err, "record_id", recordID)
			p.requeue(ctx, recordID, attempts)
			continue
		}

		if article == nil {
			// Expired or deleted since it was queued.
			continue
		}

		if p.indexArticle(ctx, article) {
			slog.Info("re-embed succeeded", "record_id", recordID, "attempt", attempts)
			continue
		}

		if attempts >= maxAttempts {
			slog.Warn("record exceeded re-embed attempts, dropping", "record_id", recordID, "attempts", attempts)
			continue
		}
		p.requeue(ctx, recordID, attempts+1)
	}
}

// indexArticle chunks, embeds, and upserts one article. Reports whether the
// record gained at least one index entry.
func (p *Pipeline) indexArticle(ctx context.Context, article *model.Article) bool {
	chunks := p.chunker.Split(article.Content)

	entries := make([]model.IndexEntry, 0, len(chunks))
	for i, chunk := range chunks {
		vector, err := p.embedChunk(ctx, chunk)
		if err != nil {
			slog.Warn("embedding failed, skipping chunk",
				"error", err, "record_id", article.ID, "chunk_index", i)
			continue
		}

		entries = append(entries, model.IndexEntry{
			Key:        model.EntryKey(article.ID, i),
			Vector:     vector,
			RecordID:   article.ID,
			Stock:      article.Stock,
			Source:     article.Source,
			Title:      article.Title,
			Link:       article.Link,
			ChunkIndex: i,
			Content:    chunk,
			Timestamp:  article.Timestamp,
		})
	}

	if len(entries) == 0 {
		return false
	}

	if err := p.index.Upsert(ctx, entries); err != nil {
		slog.Error("error upserting index entries", "error", err, "record_id", article.ID)
		return false
	}

	slog.Info("indexed article", "record_id", article.ID, "chunks", len(entries), "stock", article.Stock)
	return true
}

func (p *Pipeline) embedChunk(ctx context.Context, chunk string) ([]float64, error) {
	embedCtx, cancel := context.WithTimeout(ctx, p.embedTimeout)
	defer cancel()
	return p.embedder.Embed(embedCtx, chunk)
}

func (p *Pipeline) requeue(ctx context.Context, recordID int64, attempts int) {
	if p.queue == nil {
		return
	}
	if err := p.queue.Push(ctx, recordID, attempts); err != nil {
		slog.Error("error pushing to re-embed queue", "error", err, "record_id", recordID)
	}
}
