package model

import (
	"fmt"
	"time"
)

// SourceType values tagging where a retrieved item came from.
const (
	SourceExact    = "exact"
	SourceSemantic = "semantic"
)

// Article is one collected news item. Link is unique across the record store;
// Timestamp is assigned by the store at insert time.
type Article struct {
	ID        int64
	Stock     string
	Source    string
	Title     string
	Link      string
	Content   string
	Timestamp time.Time
}

// RawArticle is a candidate article as yielded by a news source, before the
// store has assigned an id or timestamp.
type RawArticle struct {
	Stock   string
	Source  string
	Title   string
	Link    string
	Content string
}

// IndexEntry is one embedded content chunk in the semantic index. Key is
// deterministic so re-ingesting an article overwrites its prior chunks
// instead of duplicating them.
type IndexEntry struct {
	Key        string
	Vector     []float64
	RecordID   int64
	Stock      string
	Source     string
	Title      string
	Link       string
	ChunkIndex int
	Content    string
	Timestamp  time.Time
}

// ScoredEntry is an index entry paired with its similarity score.
type ScoredEntry struct {
	IndexEntry
	Score float64
}

// RetrievedItem is one element of the merged retrieval feed consumed by the
// advice endpoint.
type RetrievedItem struct {
	Title          string
	Content        string
	Source         string
	Link           string
	Timestamp      time.Time
	SourceType     string
	RelevanceScore float64
}

// EntryKey builds the deterministic index key for a chunk of a record.
func EntryKey(recordID int64, chunkIndex int) string {
	return fmt.Sprintf("%d_%d", recordID, chunkIndex)
}
