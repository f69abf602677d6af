package model

// SearchOptions tunes a web search request
type SearchOptions struct {
	Topic          string   `json:"topic,omitempty"`        // "news" or "general"
	Depth          string   `json:"search_depth,omitempty"` // "basic" or "advanced"
	MaxResults     int      `json:"max_results,omitempty"`
	IncludeAnswer  bool     `json:"-"`
	IncludeDomains []string `json:"include_domains,omitempty"`
	Days           int      `json:"days,omitempty"` // recency window, 0 = unbounded
}

// SearchResult is one ranked hit
type SearchResult struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// SearchResponse is an optional synthesized answer plus ranked hits.
// Results is never nil.
type SearchResponse struct {
	Answer  *string        `json:"answer"`
	Results []SearchResult `json:"results"`
}

// PageContent is the extracted text of one URL
type PageContent struct {
	URL     string `json:"url"`
	Content string `json:"content"`
}
