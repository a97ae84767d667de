package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"

	"stockpulse/internal/chunker"
	"stockpulse/internal/model"
)

type fakeStore struct {
	nextID   int64
	byLink   map[string]model.Article
	byID     map[int64]model.Article
	insertTs time.Time
	err      error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		byLink:   make(map[string]model.Article),
		byID:     make(map[int64]model.Article),
		insertTs: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
	}
}

func (f *fakeStore) InsertIfAbsent(ctx context.Context, article *model.Article) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if _, ok := f.byLink[article.Link]; ok {
		return false, nil
	}
	f.nextID++
	article.ID = f.nextID
	article.Timestamp = f.insertTs
	f.byLink[article.Link] = *article
	f.byID[article.ID] = *article
	return true, nil
}

func (f *fakeStore) GetByID(ctx context.Context, id int64) (*model.Article, error) {
	if f.err != nil {
		return nil, f.err
	}
	a, ok := f.byID[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

type fakeIndex struct {
	upserts [][]model.IndexEntry
	err     error
}

func (f *fakeIndex) Upsert(ctx context.Context, entries []model.IndexEntry) error {
	if f.err != nil {
		return f.err
	}
	f.upserts = append(f.upserts, entries)
	return nil
}

type fakeEmbedder struct {
	calls    int
	failText string
	err      error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.failText != "" && text == f.failText {
		return nil, errors.New("embedding unavailable")
	}
	return []float64{0.1, 0.2, 0.3}, nil
}

type fakeQueue struct {
	pushed []int64
	queued [][2]int64
}

func (f *fakeQueue) Push(ctx context.Context, recordID int64, attempts int) error {
	f.pushed = append(f.pushed, recordID)
	f.queued = append(f.queued, [2]int64{recordID, int64(attempts)})
	return nil
}

func (f *fakeQueue) Pop(ctx context.Context) (int64, int, bool, error) {
	if len(f.queued) == 0 {
		return 0, 0, false, nil
	}
	head := f.queued[0]
	f.queued = f.queued[1:]
	return head[0], int(head[1]), true, nil
}

func newTestPipeline(store *fakeStore, index *fakeIndex, embedder *fakeEmbedder, queue *fakeQueue) *Pipeline {
	return NewPipeline(store, index, embedder, chunker.New(1000, 50), queue, time.Second)
}

func rawArticle(link string) model.RawArticle {
	return model.RawArticle{
		Stock:   "Tesla",
		Source:  "FinnHub",
		Title:   "Tesla expands production",
		Link:    link,
		Content: "Tesla announced a new factory. Production starts next year.",
	}
}

func TestIngest_InsertsAndIndexes(t *testing.T) {
	store := newFakeStore()
	index := &fakeIndex{}
	embedder := &fakeEmbedder{}
	p := newTestPipeline(store, index, embedder, &fakeQueue{})

	inserted, err := p.Ingest(context.Background(), rawArticle("https://x/1"))

	assert.Equal(t, nil, err)
	assert.Equal(t, true, inserted)
	assert.Equal(t, 1, len(index.upserts))

	entry := index.upserts[0][0]
	assert.Equal(t, "1_0", entry.Key)
	assert.Equal(t, "Tesla", entry.Stock)
	assert.Equal(t, store.insertTs, entry.Timestamp)
}

func TestIngest_DuplicateStopsProcessing(t *testing.T) {
	store := newFakeStore()
	index := &fakeIndex{}
	embedder := &fakeEmbedder{}
	p := newTestPipeline(store, index, embedder, &fakeQueue{})

	first := rawArticle("https://x/1")
	second := rawArticle("https://x/1")
	second.Title = "A different title"

	_, err := p.Ingest(context.Background(), first)
	assert.Equal(t, nil, err)
	embedsAfterFirst := embedder.calls

	inserted, err := p.Ingest(context.Background(), second)
	assert.Equal(t, nil, err)
	assert.Equal(t, false, inserted)

	// No re-embedding cost for the duplicate, and the first title survives.
	assert.Equal(t, embedsAfterFirst, embedder.calls)
	assert.Equal(t, "Tesla expands production", store.byLink["https://x/1"].Title)
	assert.Equal(t, 1, len(index.upserts))
}

func TestIngest_ReingestOverwritesByDeterministicKey(t *testing.T) {
	store := newFakeStore()
	index := &fakeIndex{}
	p := newTestPipeline(store, index, &fakeEmbedder{}, &fakeQueue{})

	_, _ = p.Ingest(context.Background(), rawArticle("https://x/1"))
	_, _ = p.Ingest(context.Background(), rawArticle("https://x/2"))

	assert.Equal(t, "1_0", index.upserts[0][0].Key)
	assert.Equal(t, "2_0", index.upserts[1][0].Key)
}

func TestIngest_StoreErrorAborts(t *testing.T) {
	store := newFakeStore()
	store.err = errors.New("connection refused")
	index := &fakeIndex{}
	p := newTestPipeline(store, index, &fakeEmbedder{}, &fakeQueue{})

	_, err := p.Ingest(context.Background(), rawArticle("https://x/1"))

	assert.NotEqual(t, nil, err)
	assert.Equal(t, 0, len(index.upserts))
}

func TestIngest_EmbedFailureQueuesRecord(t *testing.T) {
	store := newFakeStore()
	index := &fakeIndex{}
	embedder := &fakeEmbedder{err: errors.New("embedding down")}
	queue := &fakeQueue{}
	p := newTestPipeline(store, index, embedder, queue)

	inserted, err := p.Ingest(context.Background(), rawArticle("https://x/1"))

	// Durable record survives even with zero semantic coverage.
	assert.Equal(t, nil, err)
	assert.Equal(t, true, inserted)
	assert.Equal(t, 0, len(index.upserts))
	assert.Equal(t, []int64{1}, queue.pushed)
}

func TestIngest_UpsertFailureKeepsRecord(t *testing.T) {
	store := newFakeStore()
	index := &fakeIndex{err: errors.New("index down")}
	queue := &fakeQueue{}
	p := newTestPipeline(store, index, &fakeEmbedder{}, queue)

	inserted, err := p.Ingest(context.Background(), rawArticle("https://x/1"))

	assert.Equal(t, nil, err)
	assert.Equal(t, true, inserted)
	assert.Equal(t, []int64{1}, queue.pushed)
}

func TestIngest_EmptyContentStillIndexed(t *testing.T) {
	store := newFakeStore()
	index := &fakeIndex{}
	p := newTestPipeline(store, index, &fakeEmbedder{}, &fakeQueue{})

	raw := rawArticle("https://x/1")
	raw.Content = ""

	_, err := p.Ingest(context.Background(), raw)

	assert.Equal(t, nil, err)
	assert.Equal(t, 1, len(index.upserts))
	assert.Equal(t, 1, len(index.upserts[0]))
	assert.Equal(t, "", index.upserts[0][0].Content)
}

func TestRetryFailed_ReembedsQueuedRecord(t *testing.T) {
	store := newFakeStore()
	index := &fakeIndex{}
	embedder := &fakeEmbedder{err: errors.New("embedding down")}
	queue := &fakeQueue{}
	p := newTestPipeline(store, index, embedder, queue)

	_, _ = p.Ingest(context.Background(), rawArticle("https://x/1"))
	assert.Equal(t, 1, len(queue.queued))

	embedder.err = nil
	p.RetryFailed(context.Background(), 10, 3)

	assert.Equal(t, 0, len(queue.queued))
	assert.Equal(t, 1, len(index.upserts))
	assert.Equal(t, "1_0", index.upserts[0][0].Key)
}

func TestRetryFailed_DropsAfterMaxAttempts(t *testing.T) {
	store := newFakeStore()
	index := &fakeIndex{}
	embedder := &fakeEmbedder{err: errors.New("embedding down")}
	queue := &fakeQueue{}
	p := newTestPipeline(store, index, embedder, queue)

	_, _ = p.Ingest(context.Background(), rawArticle("https://x/1"))

	// One drain keeps retrying the requeued record until the attempt cap.
	p.RetryFailed(context.Background(), 10, 3)

	assert.Equal(t, 0, len(queue.queued))
	assert.Equal(t, 0, len(index.upserts))
}

func TestRetryFailed_SkipsDeletedRecord(t *testing.T) {
	store := newFakeStore()
	index := &fakeIndex{}
	embedder := &fakeEmbedder{err: errors.New("embedding down")}
	queue := &fakeQueue{}
	p := newTestPipeline(store, index, embedder, queue)

	_, _ = p.Ingest(context.Background(), rawArticle("https://x/1"))
	delete(store.byID, 1)

	embedder.err = nil
	p.RetryFailed(context.Background(), 10, 3)

	assert.Equal(t, 0, len(queue.queued))
	assert.Equal(t, 0, len(index.upserts))
}
