package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"stockpulse/internal/config"
	"stockpulse/internal/model"
	"stockpulse/pkg/llm"
)

type Retriever interface {
	Retrieve(ctx context.Context, stock string, limit int) []model.RetrievedItem
}

type Pinger interface {
	PingContext(ctx context.Context) error
}

// AdviceHandler serves the retrieval-augmented advice endpoint and the raw
// per-stock news feed.
type AdviceHandler struct {
	retriever Retriever
	advisor   llm.Advisor
	db        Pinger
	stocks    []config.TrackedStock
	limit     int
}

func NewAdviceHandler(retriever Retriever, advisor llm.Advisor, db Pinger, stocks []config.TrackedStock, limit int) *AdviceHandler {
	return &AdviceHandler{
		retriever: retriever,
		advisor:   advisor,
		db:        db,
		stocks:    stocks,
		limit:     limit,
	}
}

// GetAdvice answers a free-text query. When the query mentions a tracked
// stock, retrieved news is blended into the advisor prompt; otherwise the
// advisor answers from general knowledge.
func (h *AdviceHandler) GetAdvice(c *gin.Context) {
	var req AdviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	stock := h.findStock(req.Query)

	var items []llm.NewsItem
	if stock != "" {
		for _, item := range h.retriever.Retrieve(c.Request.Context(), stock, h.limit) {
			items = append(items, llm.NewsItem{Title: item.Title, Content: item.Content})
		}
	}

	response, err := h.advisor.Advise(c.Request.Context(), req.Query, stock, items)
	if err != nil {
		slog.Error("error generating advice", "error", err, "stock", stock)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Advice generation failed"})
		return
	}

	c.JSON(http.StatusOK, AdviceResponse{Stock: stock, Response: response})
}

// GetNews returns the merged retrieval feed for one tracked stock symbol.
func (h *AdviceHandler) GetNews(c *gin.Context) {
	stock := h.findStock(c.Param("symbol"))
	if stock == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown stock"})
		return
	}

	limit := getQueryLimit(c, h.limit)
	retrieved := h.retriever.Retrieve(c.Request.Context(), stock, limit)

	items := make([]RetrievedItemResponse, 0, len(retrieved))
	for _, item := range retrieved {
		res := RetrievedItemResponse{
			Title:          item.Title,
			Content:        item.Content,
			Source:         item.Source,
			Link:           item.Link,
			SourceType:     item.SourceType,
			RelevanceScore: item.RelevanceScore,
		}
		if !item.Timestamp.IsZero() {
			res.Timestamp = item.Timestamp.Format(time.RFC3339)
		}
		items = append(items, res)
	}

	c.JSON(http.StatusOK, NewsFeedResponse{Stock: stock, Items: items, Limit: limit})
}

func (h *AdviceHandler) GetHealth(c *gin.Context) {
	if err := h.db.PingContext(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "unhealthy",
			"database": "disconnected",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"database": "connected",
	})
}

// findStock scans text for a tracked symbol or canonical name and returns
// the canonical name, or "" when none matches.
func (h *AdviceHandler) findStock(text string) string {
	lowered := strings.ToLower(text)
	for _, s := range h.stocks {
		if strings.Contains(lowered, strings.ToLower(s.Symbol)) ||
			strings.Contains(lowered, strings.ToLower(s.Name)) {
			return s.Name
		}
	}
	return ""
}

func getQueryLimit(c *gin.Context, defaultLimit int) int {
	const maxLimit = 50

	raw := c.Query("limit")
	if raw == "" {
		return defaultLimit
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		slog.Warn("invalid limit parameter, using default", "value", raw, "default", defaultLimit)
		return defaultLimit
	}

	if limit > maxLimit {
		slog.Warn("limit parameter exceeds max, clamping", "value", limit, "max", maxLimit)
		return maxLimit
	}

	return limit
}
