package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"stockpulse/db"
	"stockpulse/internal/chunker"
	"stockpulse/internal/config"
	"stockpulse/internal/ingest"
	"stockpulse/internal/model"
	"stockpulse/internal/repository"
	"stockpulse/internal/scheduler"
	"stockpulse/internal/vectorindex"
	"stockpulse/pkg/embed"
	"stockpulse/pkg/news"
)

func main() {

	godotenv.Load()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("error loading config: %v", err)
	}

	conn, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("error connecting to DB: %v", err)
	}
	defer conn.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	var queue ingest.EmbedQueue
	if cfg.RedisURL != "" {
		redisQueue, err := db.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatalf("error connecting to Redis: %v", err)
		}
		defer redisQueue.Close()
		queue = redisQueue
	} else {
		slog.Warn("REDIS_URL not set, re-embed queue disabled")
	}

	repo := repository.NewNewsRepository(conn)
	if err := repo.EnsureSchema(ctx); err != nil {
		log.Fatalf("error ensuring schema: %v", err)
	}

	index := vectorindex.New(vectorindex.Config{
		URL:        cfg.QdrantURL,
		APIKey:     cfg.QdrantAPIKey,
		Collection: cfg.QdrantCollection,
		Dimension:  cfg.EmbeddingDimension,
	})
	if err := index.EnsureCollection(ctx); err != nil {
		log.Fatalf("error ensuring index collection: %v", err)
	}

	var sources []news.Source
	if key := os.Getenv("FINNHUB_API_KEY"); key != "" {
		sources = append(sources, news.NewFinnHubClient(key, cfg.SourceLookback))
	}
	if key := os.Getenv("ALPHA_VANTAGE_API_KEY"); key != "" {
		sources = append(sources, news.NewAlphaVantageClient(key))
	}

	if len(sources) == 0 {
		slog.Error("no news source API keys configured")
		return
	}

	embedder := embed.NewOpenAIEmbedder(os.Getenv("OPENAI_API_KEY"), cfg.EmbeddingDimension)
	split := chunker.New(cfg.ChunkSize, cfg.ChunkOverlap)
	pipeline := ingest.NewPipeline(repo, index, embedder, split, queue, cfg.EmbedTimeout)
	sweeper := ingest.NewSweeper(repo, index, cfg.RetentionWindow, cfg.IndexScanLimit)

	sched := scheduler.New(cfg.TickInterval)
	sched.Add("ingest", cfg.IngestInterval, func(ctx context.Context) error {
		return collectAll(ctx, cfg, sources, pipeline)
	})
	sched.Add("sweep", cfg.SweepInterval, sweeper.Sweep)

	slog.Info("collector started",
		"stocks", len(cfg.TrackedStocks),
		"sources", len(sources),
		"ingest_interval", cfg.IngestInterval.String(),
		"sweep_interval", cfg.SweepInterval.String(),
	)

	sched.Run(ctx)
}

// collectAll fetches and ingests news for every tracked stock, then drains a
// batch of the re-embed queue. A source failure yields zero articles for
// that stock this cycle; a record-store failure aborts the run.
func collectAll(ctx context.Context, cfg *config.Config, sources []news.Source, pipeline *ingest.Pipeline) error {
	for _, stock := range cfg.TrackedStocks {
		for _, source := range sources {
			fetched, err := source.Fetch(stock.Symbol)
			if err != nil {
				slog.Error("error fetching articles", "source", source.Name(), "symbol", stock.Symbol, "error", err)
				continue
			}

			var saved, duplicated int

			for _, a := range fetched {
				raw := model.RawArticle{
					Stock:   stock.Name,
					Source:  a.Source,
					Title:   a.Title,
					Link:    a.Link,
					Content: a.Content,
				}

				inserted, err := pipeline.Ingest(ctx, raw)
				if err != nil {
					return err
				}

				if inserted {
					saved++
				} else {
					duplicated++
				}
			}

			slog.Info("fetch complete",
				"source", source.Name(),
				"stock", stock.Name,
				"saved", saved,
				"duplicated", duplicated,
			)
		}
	}

	pipeline.RetryFailed(ctx, cfg.ReembedBatch, cfg.ReembedMaxAttempts)
	return nil
}
