package ingest

import (
	"context"
	"log/slog"
	"time"

	"stockpulse/internal/model"
)

type SweepStore interface {
	DeleteOlderThan(ctx context.Context, threshold time.Time) (int64, error)
}

type SweepIndex interface {
	ScanAll(ctx context.Context, limit int) ([]model.IndexEntry, error)
	DeleteByID(ctx context.Context, key string) error
}

// Sweeper removes records and index entries older than the retention window.
// The two deletions are independent; either side may fail or lag without
// affecting the other, so the stores are only eventually consistent.
type Sweeper struct {
	store     SweepStore
	index     SweepIndex
	retention time.Duration
	scanLimit int
	now       func() time.Time
}

func NewSweeper(store SweepStore, index SweepIndex, retention time.Duration, scanLimit int) *Sweeper {
	return &Sweeper{
		store:     store,
		index:     index,
		retention: retention,
		scanLimit: scanLimit,
		now:       time.Now,
	}
}

// Sweep deletes expired rows from the record store, then scans a bounded
// page of the index and deletes entries whose timestamp precedes the
// threshold. Index entries beyond the scan bound survive until a later run.
func (s *Sweeper) Sweep(ctx context.Context) error {
	threshold := s.now().Add(-s.retention)

	deleted, storeErr := s.store.DeleteOlderThan(ctx, threshold)
	if storeErr != nil {
		slog.Error("error deleting expired records", "error", storeErr)
	} else if deleted > 0 {
		slog.Info("deleted expired records", "count", deleted)
	}

	entries, err := s.index.ScanAll(ctx, s.scanLimit)
	if err != nil {
		slog.Error("error scanning index for expiry", "error", err)
		return storeErr
	}

	var removed int
	for _, e := range entries {
		if e.Timestamp.IsZero() || !e.Timestamp.Before(threshold) {
			continue
		}
		if err := s.index.DeleteByID(ctx, e.Key); err != nil {
			slog.Error("error deleting index entry", "error", err, "entry_key", e.Key)
			continue
		}
		removed++
	}

	if removed > 0 {
		slog.Info("deleted expired index entries", "count", removed)
	}

	return storeErr
}
