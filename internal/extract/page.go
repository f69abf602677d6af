// Package extract is the local page extraction capability: it fetches pages
// directly and keeps their readable text.
package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"
	"github.com/ppiankov/geoagent/internal/model"
	"github.com/ppiankov/geoagent/internal/util"
	"github.com/ppiankov/geoagent/internal/worker"
	"golang.org/x/net/html"
)

// minReadableChars is the shortest readability output kept before falling back to raw text
const minReadableChars = 100

// ErrNoContent is returned when none of the requested pages yielded text
var ErrNoContent = errors.New("no page content extracted")

// PageExtractor turns URLs into readable text
type PageExtractor struct {
	fetcher *Fetcher
	robots  *util.RobotsPolicy
	limiter *worker.Limiter
	logger  *slog.Logger
}

// NewPageExtractor builds an extractor from configuration; robots.txt is consulted when cfg.RespectRobots is set
func NewPageExtractor(cfg model.ExtractConfig, limiter *worker.Limiter, logger *slog.Logger) *PageExtractor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if limiter == nil {
		limiter = worker.NewLimiter(1, 2)
	}
	fetcher := NewFetcher(cfg.Timeout, cfg.UserAgent, cfg.MaxBodyBytes, cfg.HTTPProxy, cfg.HTTPSProxy)

	var robots *util.RobotsPolicy
	if cfg.RespectRobots {
		robots = util.NewRobotsPolicy(cfg.UserAgent, fetcher.httpClient)
	}

	return &PageExtractor{
		fetcher: fetcher,
		robots:  robots,
		limiter: limiter,
		logger:  logger,
	}
}

// Extract returns one entry per URL that could be read, in input order.
// Unreadable URLs are logged and skipped; an error is returned only when every URL fails.
func (e *PageExtractor) Extract(ctx context.Context, urls []string) ([]model.PageContent, error) {
	out := make([]model.PageContent, 0, len(urls))
	if len(urls) == 0 {
		return out, nil
	}

	var lastErr error
	for _, u := range urls {
		text, err := e.extractOne(ctx, u)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			e.logger.Debug("page extraction failed", "url", u, "error", err)
			lastErr = err
			continue
		}
		out = append(out, model.PageContent{URL: u, Content: text})
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %v", ErrNoContent, lastErr)
	}
	return out, nil
}

func (e *PageExtractor) extractOne(ctx context.Context, rawURL string) (string, error) {
	if e.robots != nil {
		allowed, err := e.robots.Allowed(ctx, rawURL)
		if err != nil {
			return "", err
		}
		if !allowed {
			return "", fmt.Errorf("disallowed by robots.txt")
		}
	}

	if err := e.limiter.Wait(ctx, rawURL); err != nil {
		return "", err
	}

	res, err := e.fetcher.FetchWithRetry(ctx, rawURL)
	if err != nil {
		return "", err
	}

	text := ReadableText(res.HTML, res.FinalURL)
	if text == "" {
		return "", fmt.Errorf("no readable text")
	}
	return text, nil
}

// ReadableText extracts the main article text of a page, falling back to the
// visible text of the whole document when readability finds too little
func ReadableText(rawHTML, pageURL string) string {
	parsed, _ := url.Parse(pageURL)
	article, err := readability.FromReader(strings.NewReader(rawHTML), parsed)
	if err == nil {
		if text := collapseSpace(article.TextContent); len(text) >= minReadableChars {
			return text
		}
	}

	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return ""
	}
	return collapseSpace(visibleText(doc))
}

// visibleText concatenates text nodes outside script, style and similar elements
func visibleText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "template", "svg", "head":
				return
			}
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
