package db

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
)

const embedQueueKey = "stockpulse:queue:embed"

// Queue is a Redis-backed list used to retry articles whose embedding failed
// entirely during ingestion.
type Queue struct {
	client *redis.Client
}

// ConnectRedis dials Redis and wraps the connection in a Queue.
func ConnectRedis(ctx context.Context, redisURL string) (*Queue, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		opt = &redis.Options{Addr: redisURL}
	}

	client := redis.NewClient(opt)
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, err
	}

	return &Queue{client: client}, nil
}

// Close releases the underlying connection.
func (q *Queue) Close() error {
	return q.client.Close()
}

// Push enqueues a record for re-embedding with its attempt count.
func (q *Queue) Push(ctx context.Context, recordID int64, attempts int) error {
	payload := fmt.Sprintf("%d:%d", recordID, attempts)
	return q.client.LPush(ctx, embedQueueKey, payload).Err()
}

// Pop removes one queued record, returning ok=false when the queue is empty.
func (q *Queue) Pop(ctx context.Context) (recordID int64, attempts int, ok bool, err error) {
	payload, err := q.client.RPop(ctx, embedQueueKey).Result()
	if err == redis.Nil {
		return 0, 0, false, nil
	}
	if err != nil {
		return 0, 0, false, err
	}

	idPart, attemptPart, _ := strings.Cut(payload, ":")
	recordID, err = strconv.ParseInt(idPart, 10, 64)
	if err != nil {
		return 0, 0, false, fmt.Errorf("malformed queue payload %q: %w", payload, err)
	}
	attempts, _ = strconv.Atoi(attemptPart)

	return recordID, attempts, true, nil
}

// Len reports the number of queued records.
func (q *Queue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, embedQueueKey).Result()
}
