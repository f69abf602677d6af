package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/ppiankov/geoagent/internal/brief"
	"github.com/ppiankov/geoagent/internal/graph"
	"github.com/ppiankov/geoagent/internal/llm"
	"github.com/ppiankov/geoagent/internal/model"
)

// Tool names offered to the model
const (
	ToolSearchMarketData       = "search_market_data"
	ToolSearchNeighborhoodInfo = "search_neighborhood_info"
	ToolExtractPageContent     = "extract_page_content"
	ToolStoreMarketSignal      = "store_market_signal"
	ToolStoreAmenity           = "store_amenity"
	ToolQueryKnowledgeGraph    = "query_knowledge_graph"
	ToolGenerateContentBrief   = "generate_content_brief"
)

const (
	maxExtractURLs     = 5
	defaultMaxResults  = 8
	summaryAnswerChars = 200
	defaultAspects     = "schools, parks, transit, restaurants, walkability"
)

// ErrUnknownTool is returned when the model calls a tool that is not registered
var ErrUnknownTool = errors.New("unknown tool")

// Searcher runs web searches
type Searcher interface {
	Search(ctx context.Context, query string, opts model.SearchOptions) (*model.SearchResponse, error)
}

// Extractor fetches the readable content of pages
type Extractor interface {
	Extract(ctx context.Context, urls []string) ([]model.PageContent, error)
}

// Synthesizer produces the final brief from graph context
type Synthesizer interface {
	Synthesize(ctx context.Context, p brief.Params) (*model.ContentBrief, error)
}

// BriefSaver keeps finished briefs for later lookup
type BriefSaver interface {
	Add(b *model.ContentBrief) error
}

// Outcome is the result of one successful tool execution
type Outcome struct {
	Result     any
	NodesAdded int
	Brief      *model.ContentBrief // set by brief generation only
}

// Tool is one capability the model may invoke
type Tool struct {
	Spec      llm.ToolSpec
	Phase     model.Phase
	Execute   func(ctx context.Context, args json.RawMessage) (Outcome, error)
	Summarize func(Outcome) string
}

// Registry holds the tools of a run in the order they are offered to the model
type Registry struct {
	tools  []*Tool
	byName map[string]*Tool
}

// NewRegistry builds a registry; later tools with a duplicate name replace earlier ones
func NewRegistry(tools ...*Tool) *Registry {
	r := &Registry{byName: map[string]*Tool{}}
	for _, t := range tools {
		if old, dup := r.byName[t.Spec.Name]; dup {
			r.tools[slices.Index(r.tools, old)] = t
		} else {
			r.tools = append(r.tools, t)
		}
		r.byName[t.Spec.Name] = t
	}
	return r
}

// Specs returns the tool declarations for a chat request
func (r *Registry) Specs() []llm.ToolSpec {
	specs := make([]llm.ToolSpec, 0, len(r.tools))
	for _, t := range r.tools {
		specs = append(specs, t.Spec)
	}
	return specs
}

// Lookup returns the tool registered under name
func (r *Registry) Lookup(name string) (*Tool, bool) {
	t, ok := r.byName[name]
	return t, ok
}

// PhaseOf classifies a tool name for progress reporting; unregistered names are research
func (r *Registry) PhaseOf(name string) model.Phase {
	if t, ok := r.byName[name]; ok && t.Phase != "" {
		return t.Phase
	}
	return model.PhaseResearch
}

// ToolDeps are the collaborators the built-in tools call into
type ToolDeps struct {
	Search        Searcher
	Extract       Extractor
	Graph         graph.Store
	Synthesizer   Synthesizer
	Briefs        BriefSaver
	MarketDomains []string
	MaxResults    int
	Logger        *slog.Logger
	Now           func() time.Time
}

// NewToolset returns the seven research, graph and generation tools
func NewToolset(d ToolDeps) *Registry {
	if d.MaxResults <= 0 {
		d.MaxResults = defaultMaxResults
	}
	if d.Logger == nil {
		d.Logger = slog.New(slog.DiscardHandler)
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return NewRegistry(
		searchMarketDataTool(d),
		searchNeighborhoodTool(d),
		extractTool(d),
		storeSignalTool(d),
		storeAmenityTool(d),
		queryGraphTool(d),
		generateBriefTool(d),
	)
}

func decodeArgs(raw json.RawMessage, v any) error {
	if len(strings.TrimSpace(string(raw))) == 0 {
		raw = json.RawMessage("{}")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

func requireFields(fields ...[2]string) error {
	var missing []string
	for _, f := range fields {
		if strings.TrimSpace(f[1]) == "" {
			missing = append(missing, f[0])
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required arguments: %s", strings.Join(missing, ", "))
	}
	return nil
}

func obj(props map[string]any, required ...string) map[string]any {
	return map[string]any{"type": "object", "properties": props, "required": required}
}

func str(desc string) map[string]any {
	s := map[string]any{"type": "string"}
	if desc != "" {
		s["description"] = desc
	}
	return s
}

func enum(values ...string) map[string]any {
	return map[string]any{"type": "string", "enum": values}
}

func strList(desc string) map[string]any {
	return map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "description": desc}
}

func summarizeSearch(o Outcome) string {
	resp, ok := o.Result.(*model.SearchResponse)
	if !ok || resp == nil {
		return "Completed"
	}
	if resp.Answer != nil && *resp.Answer != "" {
		return fmt.Sprintf("Found %d results. Summary: %s...", len(resp.Results), truncateRunes(*resp.Answer, summaryAnswerChars))
	}
	return fmt.Sprintf("Found %d results", len(resp.Results))
}

func searchMarketDataTool(d ToolDeps) *Tool {
	type args struct {
		Query     string `json:"query"`
		Location  string `json:"location"`
		TimeRange string `json:"timeRange"`
	}
	return &Tool{
		Spec: llm.ToolSpec{
			Name:        ToolSearchMarketData,
			Description: "Search recent real estate market coverage for a location: median prices, inventory, days on market and overall conditions.",
			Parameters: obj(map[string]any{
				"query":     str("What to look for, phrased as a market data query"),
				"location":  str("City or neighborhood"),
				"timeRange": map[string]any{"type": "string", "enum": []string{"week", "month", "year"}, "description": "Maximum age of the results"},
			}, "query", "location"),
		},
		Phase: model.PhaseResearch,
		Execute: func(ctx context.Context, raw json.RawMessage) (Outcome, error) {
			var a args
			if err := decodeArgs(raw, &a); err != nil {
				return Outcome{}, err
			}
			if err := requireFields([2]string{"query", a.Query}, [2]string{"location", a.Location}); err != nil {
				return Outcome{}, err
			}
			opts := model.SearchOptions{
				Topic:          "news",
				Depth:          "advanced",
				MaxResults:     d.MaxResults,
				IncludeAnswer:  true,
				IncludeDomains: d.MarketDomains,
			}
			switch a.TimeRange {
			case "week":
				opts.Days = 7
			case "month":
				opts.Days = 30
			}
			query := fmt.Sprintf("%s %s real estate market data %d", a.Query, a.Location, d.Now().Year())
			resp, err := d.Search.Search(ctx, query, opts)
			if err != nil {
				return Outcome{}, err
			}
			return Outcome{Result: resp}, nil
		},
		Summarize: summarizeSearch,
	}
}

func searchNeighborhoodTool(d ToolDeps) *Tool {
	type args struct {
		Neighborhood string   `json:"neighborhood"`
		Location     string   `json:"location"`
		Aspects      []string `json:"aspects"`
	}
	return &Tool{
		Spec: llm.ToolSpec{
			Name:        ToolSearchNeighborhoodInfo,
			Description: "Search what a neighborhood is like to live in: schools, amenities, walkability, lifestyle and community.",
			Parameters: obj(map[string]any{
				"neighborhood": str(""),
				"location":     str(""),
				"aspects":      strList("For example schools, parks, transit, restaurants"),
			}, "neighborhood", "location"),
		},
		Phase: model.PhaseResearch,
		Execute: func(ctx context.Context, raw json.RawMessage) (Outcome, error) {
			var a args
			if err := decodeArgs(raw, &a); err != nil {
				return Outcome{}, err
			}
			if err := requireFields([2]string{"neighborhood", a.Neighborhood}, [2]string{"location", a.Location}); err != nil {
				return Outcome{}, err
			}
			aspects := defaultAspects
			if len(a.Aspects) > 0 {
				aspects = strings.Join(a.Aspects, ", ")
			}
			query := fmt.Sprintf("%s %s neighborhood guide %s", a.Neighborhood, a.Location, aspects)
			resp, err := d.Search.Search(ctx, query, model.SearchOptions{
				Topic:         "general",
				Depth:         "advanced",
				MaxResults:    d.MaxResults,
				IncludeAnswer: true,
			})
			if err != nil {
				return Outcome{}, err
			}
			return Outcome{Result: resp}, nil
		},
		Summarize: summarizeSearch,
	}
}

func extractTool(d ToolDeps) *Tool {
	type args struct {
		URLs []string `json:"urls"`
	}
	return &Tool{
		Spec: llm.ToolSpec{
			Name:        ToolExtractPageContent,
			Description: "Fetch the full text of promising pages found by a search when the snippet is not detailed enough.",
			Parameters: obj(map[string]any{
				"urls": strList("Pages to read, at most 5"),
			}, "urls"),
		},
		Phase: model.PhaseResearch,
		Execute: func(ctx context.Context, raw json.RawMessage) (Outcome, error) {
			var a args
			if err := decodeArgs(raw, &a); err != nil {
				return Outcome{}, err
			}
			if len(a.URLs) == 0 {
				return Outcome{}, errors.New("missing required arguments: urls")
			}
			urls := a.URLs
			if len(urls) > maxExtractURLs {
				urls = urls[:maxExtractURLs]
			}
			pages, err := d.Extract.Extract(ctx, urls)
			if err != nil {
				return Outcome{}, err
			}
			return Outcome{Result: pages}, nil
		},
		Summarize: func(o Outcome) string {
			pages, _ := o.Result.([]model.PageContent)
			return fmt.Sprintf("Extracted content from %d pages", len(pages))
		},
	}
}

func storeSignalTool(d ToolDeps) *Tool {
	kinds := make([]string, 0, len(model.SignalKinds))
	for _, k := range model.SignalKinds {
		kinds = append(kinds, string(k))
	}
	return &Tool{
		Spec: llm.ToolSpec{
			Name:        ToolStoreMarketSignal,
			Description: "Save one citable market fact to the knowledge graph. Call it for every specific number or statistic you find.",
			Parameters: obj(map[string]any{
				"location":     str(""),
				"neighborhood": str(""),
				"signalType":   enum(kinds...),
				"headline":     str("Short factual headline"),
				"summary":      str("Two or three sentences with the exact figures"),
				"value":        str("The key metric, e.g. '$1.2M median'"),
				"sentiment":    enum(model.Sentiments...),
				"sourceUrl":    str(""),
				"sourceTitle":  str(""),
			}, "location", "signalType", "headline", "summary", "sentiment", "sourceUrl", "sourceTitle"),
		},
		Phase: model.PhaseConnect,
		Execute: func(ctx context.Context, raw json.RawMessage) (Outcome, error) {
			var s model.MarketSignal
			if err := decodeArgs(raw, &s); err != nil {
				return Outcome{}, err
			}
			if err := requireFields(
				[2]string{"location", s.Location},
				[2]string{"signalType", string(s.SignalType)},
				[2]string{"headline", s.Headline},
				[2]string{"sourceUrl", s.SourceURL},
			); err != nil {
				return Outcome{}, err
			}
			if !slices.Contains(model.SignalKinds, s.SignalType) {
				return Outcome{}, fmt.Errorf("invalid signalType %q", s.SignalType)
			}
			if s.Sentiment != "" && !slices.Contains(model.Sentiments, s.Sentiment) {
				return Outcome{}, fmt.Errorf("invalid sentiment %q", s.Sentiment)
			}
			n, err := d.Graph.CreateMarketSignal(ctx, s)
			if err != nil {
				return Outcome{}, err
			}
			return Outcome{Result: map[string]any{"stored": true, "headline": s.Headline}, NodesAdded: n}, nil
		},
		Summarize: func(o Outcome) string {
			return "Stored: " + resultField(o, "headline", "market signal")
		},
	}
}

func storeAmenityTool(d ToolDeps) *Tool {
	return &Tool{
		Spec: llm.ToolSpec{
			Name:        ToolStoreAmenity,
			Description: "Save a neighborhood amenity such as a school, park or transit stop to the knowledge graph.",
			Parameters: obj(map[string]any{
				"neighborhood": str(""),
				"location":     str(""),
				"amenityName":  str(""),
				"amenityType":  enum(model.AmenityKinds...),
				"rating":       map[string]any{"type": "number", "description": "Rating on a 1-10 scale when known"},
			}, "neighborhood", "location", "amenityName", "amenityType"),
		},
		Phase: model.PhaseConnect,
		Execute: func(ctx context.Context, raw json.RawMessage) (Outcome, error) {
			var a model.Amenity
			if err := decodeArgs(raw, &a); err != nil {
				return Outcome{}, err
			}
			if err := requireFields(
				[2]string{"neighborhood", a.Neighborhood},
				[2]string{"location", a.Location},
				[2]string{"amenityName", a.AmenityName},
				[2]string{"amenityType", a.AmenityType},
			); err != nil {
				return Outcome{}, err
			}
			if !slices.Contains(model.AmenityKinds, a.AmenityType) {
				return Outcome{}, fmt.Errorf("invalid amenityType %q", a.AmenityType)
			}
			n, err := d.Graph.CreateAmenity(ctx, a)
			if err != nil {
				return Outcome{}, err
			}
			return Outcome{Result: map[string]any{"stored": true, "name": a.AmenityName}, NodesAdded: n}, nil
		},
		Summarize: func(o Outcome) string {
			return "Stored amenity: " + resultField(o, "name", "amenity")
		},
	}
}

func queryGraphTool(d ToolDeps) *Tool {
	type args struct {
		Location  string `json:"location"`
		QueryType string `json:"queryType"`
	}
	return &Tool{
		Spec: llm.ToolSpec{
			Name:        ToolQueryKnowledgeGraph,
			Description: "Read what the knowledge graph already holds about a location. Call it before searching and before generating the brief.",
			Parameters: obj(map[string]any{
				"location":  str(""),
				"queryType": enum("full_context", "market_signals"),
			}, "location", "queryType"),
		},
		Phase: model.PhaseConnect,
		Execute: func(ctx context.Context, raw json.RawMessage) (Outcome, error) {
			var a args
			if err := decodeArgs(raw, &a); err != nil {
				return Outcome{}, err
			}
			if err := requireFields([2]string{"location", a.Location}); err != nil {
				return Outcome{}, err
			}
			if a.QueryType == "market_signals" {
				signals, err := d.Graph.MarketSignals(ctx, a.Location)
				if err != nil {
					return Outcome{}, err
				}
				return Outcome{Result: signals}, nil
			}
			full, err := d.Graph.FullContext(ctx, a.Location)
			if err != nil {
				return Outcome{}, err
			}
			return Outcome{Result: full}, nil
		},
		Summarize: func(o Outcome) string {
			n := 0
			switch r := o.Result.(type) {
			case []model.SignalRecord:
				n = len(r)
			case []model.NeighborhoodContext:
				n = len(r)
			}
			return fmt.Sprintf("Found %d records in knowledge graph", n)
		},
	}
}

func generateBriefTool(d ToolDeps) *Tool {
	types := make([]string, 0, len(model.ContentTypes))
	for _, c := range model.ContentTypes {
		types = append(types, string(c))
	}
	type args struct {
		Location       string   `json:"location"`
		Topic          string   `json:"topic"`
		ContentType    string   `json:"contentType"`
		TargetKeywords []string `json:"targetKeywords"`
	}
	return &Tool{
		Spec: llm.ToolSpec{
			Name:        ToolGenerateContentBrief,
			Description: "Write the final GEO content brief from everything stored in the knowledge graph. Call it once research is complete.",
			Parameters: obj(map[string]any{
				"location":       str(""),
				"topic":          str("Main topic of the brief"),
				"targetKeywords": strList(""),
				"contentType":    enum(types...),
			}, "location", "topic", "contentType"),
		},
		Phase: model.PhaseGenerate,
		Execute: func(ctx context.Context, raw json.RawMessage) (Outcome, error) {
			var a args
			if err := decodeArgs(raw, &a); err != nil {
				return Outcome{}, err
			}
			if err := requireFields([2]string{"location", a.Location}, [2]string{"topic", a.Topic}, [2]string{"contentType", a.ContentType}); err != nil {
				return Outcome{}, err
			}
			ct, err := model.ParseContentType(a.ContentType)
			if err != nil {
				return Outcome{}, err
			}
			full, err := d.Graph.FullContext(ctx, a.Location)
			if err != nil {
				return Outcome{}, fmt.Errorf("load graph context: %w", err)
			}
			b, err := d.Synthesizer.Synthesize(ctx, brief.Params{
				Location:       a.Location,
				Topic:          a.Topic,
				ContentType:    ct,
				TargetKeywords: a.TargetKeywords,
				Context:        full,
			})
			if err != nil {
				return Outcome{}, err
			}
			if d.Briefs != nil {
				if err := d.Briefs.Add(b); err != nil {
					d.Logger.Warn("failed to save brief", "id", b.ID, "error", err)
				}
			}
			return Outcome{Result: b, Brief: b}, nil
		},
		Summarize: func(o Outcome) string {
			if o.Brief == nil {
				return "Completed"
			}
			return "Generated brief: \"" + o.Brief.Title + "\" (GEO Score: " + strconv.Itoa(o.Brief.GeoScore.Overall) + "/100)"
		},
	}
}

func resultField(o Outcome, key, fallback string) string {
	if m, ok := o.Result.(map[string]any); ok {
		if s, ok := m[key].(string); ok && s != "" {
			return s
		}
	}
	return fallback
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
