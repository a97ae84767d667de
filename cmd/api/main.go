package main

import (
	"log"
	"log/slog"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"stockpulse/db"
	"stockpulse/internal/config"
	"stockpulse/internal/handler"
	"stockpulse/internal/repository"
	"stockpulse/internal/retrieval"
	"stockpulse/internal/vectorindex"
	"stockpulse/pkg/embed"
	"stockpulse/pkg/llm"
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

	repo := repository.NewNewsRepository(conn)

	index := vectorindex.New(vectorindex.Config{
		URL:        cfg.QdrantURL,
		APIKey:     cfg.QdrantAPIKey,
		Collection: cfg.QdrantCollection,
		Dimension:  cfg.EmbeddingDimension,
	})

	embedder := embed.NewOpenAIEmbedder(os.Getenv("OPENAI_API_KEY"), cfg.EmbeddingDimension)
	retriever := retrieval.NewService(repo, index, embedder, cfg.EmbedTimeout)

	var advisor llm.Advisor
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		advisor = llm.NewAnthropicClient(key)
	} else {
		advisor = llm.NewOpenAIClient(os.Getenv("OPENAI_API_KEY"))
	}

	adviceHandler := handler.NewAdviceHandler(retriever, advisor, conn, cfg.TrackedStocks, cfg.RetrievalLimit)

	r := gin.Default()

	allowedOrigins := []string{"http://localhost:3000"}

	if cfg.FrontendURL != "" {
		allowedOrigins = append(allowedOrigins, cfg.FrontendURL)
	}

	slog.Info("AllowOrigins URL:", "urls", allowedOrigins)

	r.Use(cors.New(cors.Config{
		AllowOrigins: allowedOrigins,
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type"},
	}))

	r.POST("/financial_advice", adviceHandler.GetAdvice)
	r.GET("/news/:symbol", adviceHandler.GetNews)
	r.GET("/health", adviceHandler.GetHealth)

	err = r.Run(cfg.BindAddr)
	if err != nil {
		log.Fatalf("error starting server: %v", err)
	}
}
