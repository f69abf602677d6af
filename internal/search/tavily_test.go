package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ppiankov/geoagent/internal/model"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(model.SearchConfig{BaseURL: server.URL, APIKey: "tvly-test", Timeout: 5}, nil, nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func TestClient_Search(t *testing.T) {
	var got map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("Expected path /search, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer tvly-test" {
			t.Errorf("unexpected Authorization header %q", r.Header.Get("Authorization"))
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{
			"answer": "Prices rose 4% year over year.",
			"results": [
				{"title": "Austin market", "url": "https://www.zillow.com/austin", "content": "Median price $550k", "score": 0.91},
				{"title": "Census", "url": "https://census.gov/x", "content": "Population", "score": 0.5}
			]
		}`))
	})

	resp, err := client.Search(context.Background(), "home prices Austin, TX real estate market data 2026", model.SearchOptions{
		Topic:          "news",
		Depth:          "advanced",
		MaxResults:     8,
		IncludeAnswer:  true,
		IncludeDomains: []string{"zillow.com"},
		Days:           7,
	})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if resp.Answer == nil || *resp.Answer != "Prices rose 4% year over year." {
		t.Errorf("Unexpected answer: %v", resp.Answer)
	}
	if len(resp.Results) != 2 || resp.Results[0].Score != 0.91 {
		t.Fatalf("Unexpected results: %+v", resp.Results)
	}

	if got["include_answer"] != "advanced" {
		t.Errorf("include_answer = %v, want advanced", got["include_answer"])
	}
	if got["topic"] != "news" || got["search_depth"] != "advanced" {
		t.Errorf("unexpected request body: %v", got)
	}
	if got["days"] != float64(7) || got["max_results"] != float64(8) {
		t.Errorf("unexpected days/max_results: %v/%v", got["days"], got["max_results"])
	}
}

func TestClient_Search_EmptyResults(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"answer": null, "results": null}`))
	})

	resp, err := client.Search(context.Background(), "nothing", model.SearchOptions{})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if resp.Answer != nil {
		t.Errorf("expected nil answer, got %q", *resp.Answer)
	}
	if resp.Results == nil || len(resp.Results) != 0 {
		t.Errorf("expected empty non-nil results, got %#v", resp.Results)
	}
}

func TestClient_Search_APIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail": {"error": "Unauthorized: missing or invalid API key."}}`))
	})

	_, err := client.Search(context.Background(), "x", model.SearchOptions{})
	if err == nil || !strings.Contains(err.Error(), "401") {
		t.Fatalf("expected 401 API error, got %v", err)
	}
}

func TestClient_Extract(t *testing.T) {
	var got extractRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/extract" {
			t.Errorf("Expected path /extract, got %s", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{
			"results": [{"url": "https://a.com", "raw_content": "Page A"}],
			"failed_results": [{"url": "https://b.com", "error": "timeout"}]
		}`))
	})

	pages, err := client.Extract(context.Background(), []string{"https://a.com", "https://b.com"})
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if got.ExtractDepth != "advanced" || len(got.URLs) != 2 {
		t.Errorf("unexpected request: %+v", got)
	}
	if len(pages) != 1 || pages[0].URL != "https://a.com" || pages[0].Content != "Page A" {
		t.Errorf("unexpected pages: %+v", pages)
	}
}

func TestClient_Extract_NoURLs(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	pages, err := client.Extract(context.Background(), nil)
	if err != nil || len(pages) != 0 {
		t.Fatalf("Extract(nil) = %v, %v", pages, err)
	}
}

func TestNewClient_RequiresKey(t *testing.T) {
	t.Setenv("GEOAGENT_TAVILY_TEST", "")
	if _, err := NewClient(model.SearchConfig{APIKeyEnv: "GEOAGENT_TAVILY_TEST"}, nil, nil); err == nil {
		t.Fatal("expected error without API key")
	}
}
