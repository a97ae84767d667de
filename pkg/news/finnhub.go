package news

import (
	"context"
	"time"

	finnhub "github.com/Finnhub-Stock-API/finnhub-go/v2"
)

type FinnHubClient struct {
	client   *finnhub.DefaultApiService
	lookback time.Duration
}

func NewFinnHubClient(apiKey string, lookback time.Duration) *FinnHubClient {
	cfg := finnhub.NewConfiguration()
	cfg.AddDefaultHeader("X-Finnhub-Token", apiKey)
	client := finnhub.NewAPIClient(cfg).DefaultApi
	return &FinnHubClient{client: client, lookback: lookback}
}

func (c *FinnHubClient) Name() string {
	return "FinnHub"
}

// Fetch returns company news for the symbol within the lookback window.
func (c *FinnHubClient) Fetch(symbol string) ([]Article, error) {
	to := time.Now()
	from := to.Add(-c.lookback)

	res, _, err := c.client.CompanyNews(context.Background()).
		Symbol(symbol).
		From(from.Format("2006-01-02")).
		To(to.Format("2006-01-02")).
		Execute()
	if err != nil {
		return nil, err
	}

	var articles []Article

	for _, item := range res {
		a := Article{
			Stock:  symbol,
			Source: c.Name(),
		}

		if item.Headline != nil {
			a.Title = *item.Headline
		}

		if item.Url != nil {
			a.Link = *item.Url
		}

		if item.Summary != nil {
			a.Content = *item.Summary
		}

		if a.Link == "" {
			continue
		}

		articles = append(articles, a)
	}

	return articles, nil
}
