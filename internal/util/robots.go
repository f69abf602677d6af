package util

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/temoto/robotstxt"
)

// RobotsPolicy answers robots.txt questions for the page extractor.
// Parsed files are kept per host for an hour.
type RobotsPolicy struct {
	hosts      *gocache.Cache
	httpClient *http.Client
	agent      string
}

// NewRobotsPolicy creates a policy that identifies itself as userAgent
func NewRobotsPolicy(userAgent string, client *http.Client) *RobotsPolicy {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &RobotsPolicy{
		hosts:      gocache.New(time.Hour, 10*time.Minute),
		httpClient: client,
		agent:      ProductToken(userAgent),
	}
}

// Allowed reports whether rawURL may be fetched. Unreachable or unparsable
// robots.txt files allow everything.
func (r *RobotsPolicy) Allowed(ctx context.Context, rawURL string) (bool, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false, fmt.Errorf("parse URL: %w", err)
	}
	if parsed.Host == "" {
		return false, fmt.Errorf("parse URL %q: no host", rawURL)
	}

	data := r.lookup(ctx, parsed)
	if data == nil {
		return true, nil
	}
	path := parsed.EscapedPath()
	if path == "" {
		path = "/"
	}
	return data.TestAgent(path, r.agent), nil
}

func (r *RobotsPolicy) lookup(ctx context.Context, u *url.URL) *robotstxt.RobotsData {
	key := u.Scheme + "://" + u.Host
	if v, ok := r.hosts.Get(key); ok {
		return v.(*robotstxt.RobotsData)
	}

	data, err := r.fetch(ctx, key+"/robots.txt")
	if err != nil {
		return nil
	}
	r.hosts.SetDefault(key, data)
	return data
}

func (r *RobotsPolicy) fetch(ctx context.Context, robotsURL string) (*robotstxt.RobotsData, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", r.agent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch robots.txt: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("parse robots.txt: %w", err)
	}
	return data, nil
}

// ProductToken extracts the product name of a user agent, "GeoAgent/0.1 (...)" -> "GeoAgent"
func ProductToken(ua string) string {
	parts := strings.Fields(ua)
	if len(parts) == 0 {
		return ua
	}
	return strings.Split(parts[0], "/")[0]
}
