package handler

type AdviceRequest struct {
	UserID string `json:"user_id"`
	Query  string `json:"query" binding:"required"`
}

type AdviceResponse struct {
	Stock    string `json:"stock"`
	Response string `json:"response"`
}

type RetrievedItemResponse struct {
	Title          string  `json:"title"`
	Content        string  `json:"content"`
	Source         string  `json:"source"`
	Link           string  `json:"link"`
	Timestamp      string  `json:"timestamp"`
	SourceType     string  `json:"source_type"`
	RelevanceScore float64 `json:"relevance_score,omitempty"`
}

type NewsFeedResponse struct {
	Stock string                  `json:"stock"`
	Items []RetrievedItemResponse `json:"items"`
	Limit int                     `json:"limit"`
}
