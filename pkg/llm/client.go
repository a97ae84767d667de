package llm

import (
	"context"
	"fmt"
	"strings"
)

// NewsItem is one retrieved news snippet handed to the advisor as context.
type NewsItem struct {
	Title   string
	Content string
}

// Advisor generates a financial-advice response for a user query, optionally
// grounded on retrieved news for one stock.
type Advisor interface {
	Advise(ctx context.Context, query, stock string, items []NewsItem) (string, error)
}

const advisorRole = "You are a financial assistant providing stock insights."

// buildPrompt blends the user query with retrieved news context; with no
// stock matched it falls back to a general-knowledge prompt.
func buildPrompt(query, stock string, items []NewsItem) string {
	if stock == "" {
		return fmt.Sprintf(
			"%s The user asked: %s\nProvide a financial insight based on general knowledge.",
			advisorRole, query,
		)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\nThe user asked: %s\n", advisorRole, query)
	fmt.Fprintf(&sb, "Here are relevant news articles on %s:\n", stock)
	for _, item := range items {
		fmt.Fprintf(&sb, "- %s: %s\n", item.Title, item.Content)
	}
	sb.WriteString("Now, generate a professional financial response based on this data.")
	return sb.String()
}
