package repository

import (
	"context"
	"database/sql"
	"time"

	"stockpulse/internal/model"
)

// NewsRepository is the durable, deduplicated record store for collected
// articles, keyed by link.
type NewsRepository struct {
	db *sql.DB
}

func NewNewsRepository(db *sql.DB) *NewsRepository {
	return &NewsRepository{db: db}
}

// EnsureSchema creates the news table when it does not exist yet.
func (r *NewsRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS news (
			id BIGSERIAL PRIMARY KEY,
			stock TEXT NOT NULL,
			source TEXT NOT NULL,
			title TEXT NOT NULL,
			link TEXT NOT NULL UNIQUE,
			content TEXT NOT NULL DEFAULT '',
			timestamp TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	return err
}

// InsertIfAbsent persists the article unless a row with the same link already
// exists. On success the store-assigned id and timestamp are written back to
// the article and inserted is true; a duplicate reports false with no error
// and leaves the existing row untouched.
func (r *NewsRepository) InsertIfAbsent(ctx context.Context, article *model.Article) (bool, error) {
	var (
		id int64
		ts time.Time
	)
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO news(stock, source, title, link, content)
		VALUES($1, $2, $3, $4, $5)
		ON CONFLICT (link) DO NOTHING
		RETURNING id, timestamp
	`, article.Stock, article.Source, article.Title, article.Link, article.Content).Scan(&id, &ts)

	if err == sql.ErrNoRows {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	article.ID = id
	article.Timestamp = ts
	return true, nil
}

// QueryRecent returns up to limit articles for the exact stock name, newest
// first.
func (r *NewsRepository) QueryRecent(ctx context.Context, stock string, limit int) ([]model.Article, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, stock, source, title, link, content, timestamp
		FROM news
		WHERE stock = $1
		ORDER BY timestamp DESC
		LIMIT $2
	`, stock, limit)

	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var articles []model.Article
	for rows.Next() {
		var a model.Article
		err := rows.Scan(&a.ID, &a.Stock, &a.Source, &a.Title, &a.Link, &a.Content, &a.Timestamp)
		if err != nil {
			return nil, err
		}
		articles = append(articles, a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return articles, nil
}

// DeleteOlderThan removes every row whose timestamp precedes the threshold
// and reports how many were removed. A single DELETE keeps the operation
// atomic under concurrent inserts.
func (r *NewsRepository) DeleteOlderThan(ctx context.Context, threshold time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM news WHERE timestamp < $1
	`, threshold)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// GetByID fetches one article, returning nil when it no longer exists.
func (r *NewsRepository) GetByID(ctx context.Context, id int64) (*model.Article, error) {
	var a model.Article
	err := r.db.QueryRowContext(ctx, `
		SELECT id, stock, source, title, link, content, timestamp
		FROM news
		WHERE id = $1
	`, id).Scan(&a.ID, &a.Stock, &a.Source, &a.Title, &a.Link, &a.Content, &a.Timestamp)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return &a, nil
}
