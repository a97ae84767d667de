package news

// Article is a candidate news item yielded by a source for one tracked stock.
type Article struct {
	Stock   string
	Source  string
	Title   string
	Link    string
	Content string
}

// Source fetches candidate articles for a stock symbol. Implementations
// return an error on network failure; callers treat that as zero articles
// for the symbol this cycle.
type Source interface {
	Fetch(symbol string) ([]Article, error)
	Name() string
}
