package vectorindex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"stockpulse/internal/model"
)

// Index is a minimal REST client to a Qdrant collection holding embedded
// article chunks. Cosine distance is assumed.
type Index struct {
	url        string
	apiKey     string
	collection string
	dimension  int
	client     *http.Client
}

type Config struct {
	URL        string
	APIKey     string
	Collection string
	Dimension  int
	Timeout    time.Duration
}

func New(cfg Config) *Index {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Index{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		dimension:  cfg.Dimension,
		client:     &http.Client{Timeout: timeout},
	}
}

// EnsureCollection creates the collection when missing. Qdrant answers 200
// for an existing collection with the same schema.
func (ix *Index) EnsureCollection(ctx context.Context) error {
	body := map[string]any{
		"vectors": map[string]any{
			"size":     ix.dimension,
			"distance": "Cosine",
		},
	}
	return ix.putJSON(ctx, fmt.Sprintf("%s/collections/%s", ix.url, ix.collection), body)
}

// Upsert writes the entries, last-write-wins per key. Qdrant point ids must
// be UUIDs or unsigned integers, so the deterministic entry key is hashed
// into a name-based UUID; re-ingesting the same chunk overwrites its point.
func (ix *Index) Upsert(ctx context.Context, entries []model.IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}
	points := make([]map[string]any, len(entries))
	for i, e := range entries {
		points[i] = map[string]any{
			"id":     pointID(e.Key),
			"vector": e.Vector,
			"payload": map[string]any{
				"entry_key":   e.Key,
				"record_id":   e.RecordID,
				"stock":       e.Stock,
				"source":      e.Source,
				"title":       e.Title,
				"link":        e.Link,
				"chunk_index": e.ChunkIndex,
				"content":     e.Content,
				"timestamp":   e.Timestamp.UTC().Format(time.RFC3339),
			},
		}
	}
	body := map[string]any{"points": points}
	return ix.putJSON(ctx, fmt.Sprintf("%s/collections/%s/points?wait=true", ix.url, ix.collection), body)
}

// Query runs a nearest-neighbor search, descending by score, bounded to
// topK. A non-empty stock narrows matches by payload metadata.
func (ix *Index) Query(ctx context.Context, vector []float64, topK int, stock string) ([]model.ScoredEntry, error) {
	if topK <= 0 {
		topK = 5
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        topK,
		"with_payload": true,
	}
	if stock != "" {
		req["filter"] = map[string]any{
			"must": []map[string]any{
				{"key": "stock", "match": map[string]any{"value": stock}},
			},
		}
	}

	var resp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	err := ix.postJSON(ctx, fmt.Sprintf("%s/collections/%s/points/search", ix.url, ix.collection), req, &resp)
	if err != nil {
		return nil, err
	}

	results := make([]model.ScoredEntry, 0, len(resp.Result))
	for _, r := range resp.Result {
		results = append(results, model.ScoredEntry{
			IndexEntry: entryFromPayload(r.Payload),
			Score:      r.Score,
		})
	}
	return results, nil
}

// DeleteByID removes one entry by its deterministic key.
func (ix *Index) DeleteByID(ctx context.Context, key string) error {
	body := map[string]any{"points": []string{pointID(key)}}
	return ix.postJSON(ctx, fmt.Sprintf("%s/collections/%s/points/delete?wait=true", ix.url, ix.collection), body, nil)
}

// ScanAll enumerates up to limit entries via a single scroll page. The
// enumeration is best-effort and not guaranteed complete: entries beyond the
// bound are never inspected, so callers sweeping by age must tolerate
// stragglers surviving until a later run.
func (ix *Index) ScanAll(ctx context.Context, limit int) ([]model.IndexEntry, error) {
	req := map[string]any{
		"limit":        limit,
		"with_payload": true,
	}
	var resp struct {
		Result struct {
			Points []struct {
				Payload map[string]any `json:"payload"`
			} `json:"points"`
		} `json:"result"`
	}
	err := ix.postJSON(ctx, fmt.Sprintf("%s/collections/%s/points/scroll", ix.url, ix.collection), req, &resp)
	if err != nil {
		return nil, err
	}

	entries := make([]model.IndexEntry, 0, len(resp.Result.Points))
	for _, p := range resp.Result.Points {
		entries = append(entries, entryFromPayload(p.Payload))
	}
	return entries, nil
}

// pointID derives the stable Qdrant point id for an entry key.
func pointID(key string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(key)).String()
}

func entryFromPayload(payload map[string]any) model.IndexEntry {
	var e model.IndexEntry
	if v, ok := payload["entry_key"].(string); ok {
		e.Key = v
	}
	if v, ok := payload["record_id"].(float64); ok {
		e.RecordID = int64(v)
	}
	if v, ok := payload["stock"].(string); ok {
		e.Stock = v
	}
	if v, ok := payload["source"].(string); ok {
		e.Source = v
	}
	if v, ok := payload["title"].(string); ok {
		e.Title = v
	}
	if v, ok := payload["link"].(string); ok {
		e.Link = v
	}
	if v, ok := payload["chunk_index"].(float64); ok {
		e.ChunkIndex = int(v)
	}
	if v, ok := payload["content"].(string); ok {
		e.Content = v
	}
	if v, ok := payload["timestamp"].(string); ok {
		if ts, err := time.Parse(time.RFC3339, v); err == nil {
			e.Timestamp = ts
		}
	}
	return e
}

func (ix *Index) putJSON(ctx context.Context, url string, body any) error {
	return ix.doJSON(ctx, http.MethodPut, url, body, nil)
}

func (ix *Index) postJSON(ctx context.Context, url string, body any, out any) error {
	return ix.doJSON(ctx, http.MethodPost, url, body, out)
}

func (ix *Index) doJSON(ctx context.Context, method, url string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if ix.apiKey != "" {
		req.Header.Set("api-key", ix.apiKey)
	}

	resp, err := ix.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant %s %s failed: %s", method, url, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
