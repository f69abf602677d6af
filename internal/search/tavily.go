// Package search implements the web search and page extraction capabilities
// on top of the Tavily HTTP API.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ppiankov/geoagent/internal/model"
	"github.com/ppiankov/geoagent/internal/worker"
)

// Client calls the Tavily search and extract endpoints
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *worker.Limiter
	logger     *slog.Logger
}

type searchRequest struct {
	Query          string   `json:"query"`
	Topic          string   `json:"topic,omitempty"`
	SearchDepth    string   `json:"search_depth,omitempty"`
	MaxResults     int      `json:"max_results,omitempty"`
	IncludeAnswer  any      `json:"include_answer"`
	IncludeDomains []string `json:"include_domains,omitempty"`
	Days           int      `json:"days,omitempty"`
}

type searchResponse struct {
	Answer  *string `json:"answer"`
	Results []struct {
		Title   string  `json:"title"`
		URL     string  `json:"url"`
		Content string  `json:"content"`
		Score   float64 `json:"score"`
	} `json:"results"`
}

type extractRequest struct {
	URLs         []string `json:"urls"`
	ExtractDepth string   `json:"extract_depth"`
}

type extractResponse struct {
	Results []struct {
		URL        string `json:"url"`
		RawContent string `json:"raw_content"`
	} `json:"results"`
	FailedResults []struct {
		URL   string `json:"url"`
		Error string `json:"error"`
	} `json:"failed_results"`
}

type apiError struct {
	Detail any `json:"detail"`
}

// NewClient creates a Tavily client. The API key comes from cfg.APIKey or the
// variable named by cfg.APIKeyEnv.
func NewClient(cfg model.SearchConfig, limiter *worker.Limiter, logger *slog.Logger) (*Client, error) {
	key := cfg.APIKey
	if key == "" && cfg.APIKeyEnv != "" {
		key = os.Getenv(cfg.APIKeyEnv)
	}
	if key == "" {
		return nil, fmt.Errorf("Tavily API key is required (set %s)", cfg.APIKeyEnv)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.tavily.com"
	}
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	if limiter == nil {
		limiter = worker.NewLimiter(cfg.RequestsPerSecond, cfg.Burst)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     key,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
		logger:     logger,
	}, nil
}

// Search runs one query. An empty result set is not an error.
func (c *Client) Search(ctx context.Context, query string, opts model.SearchOptions) (*model.SearchResponse, error) {
	req := searchRequest{
		Query:          query,
		Topic:          opts.Topic,
		SearchDepth:    opts.Depth,
		MaxResults:     opts.MaxResults,
		IncludeAnswer:  false,
		IncludeDomains: opts.IncludeDomains,
		Days:           opts.Days,
	}
	if opts.IncludeAnswer {
		req.IncludeAnswer = "advanced"
	}

	var resp searchResponse
	if err := c.post(ctx, "/search", req, &resp); err != nil {
		return nil, fmt.Errorf("tavily search: %w", err)
	}

	out := &model.SearchResponse{Results: make([]model.SearchResult, 0, len(resp.Results))}
	if resp.Answer != nil && *resp.Answer != "" {
		out.Answer = resp.Answer
	}
	for _, r := range resp.Results {
		out.Results = append(out.Results, model.SearchResult{
			Title:   r.Title,
			URL:     r.URL,
			Content: r.Content,
			Score:   r.Score,
		})
	}

	c.logger.Debug("search", "query", query, "results", len(out.Results))
	return out, nil
}

// Extract fetches the main text of each URL. URLs Tavily could not read are
// logged and left out of the result.
func (c *Client) Extract(ctx context.Context, urls []string) ([]model.PageContent, error) {
	if len(urls) == 0 {
		return []model.PageContent{}, nil
	}

	var resp extractResponse
	if err := c.post(ctx, "/extract", extractRequest{URLs: urls, ExtractDepth: "advanced"}, &resp); err != nil {
		return nil, fmt.Errorf("tavily extract: %w", err)
	}

	for _, f := range resp.FailedResults {
		c.logger.Debug("extract failed", "url", f.URL, "error", f.Error)
	}

	out := make([]model.PageContent, 0, len(resp.Results))
	for _, r := range resp.Results {
		out = append(out, model.PageContent{URL: r.URL, Content: r.RawContent})
	}
	return out, nil
}

func (c *Client) post(ctx context.Context, path string, apiReq, out any) error {
	endpoint := c.baseURL + path
	if err := c.limiter.Wait(ctx, endpoint); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}

	body, err := json.Marshal(apiReq)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		var apiErr apiError
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Detail != nil {
			return fmt.Errorf("API error (%d): %v", httpResp.StatusCode, apiErr.Detail)
		}
		return fmt.Errorf("API error (%d): %s", httpResp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}
