package brief

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/geoagent/internal/model"
	"github.com/ppiankov/geoagent/internal/score"
)

type stubGenerator struct {
	text   string
	err    error
	prompt string
}

func (g *stubGenerator) Name() string { return "stub" }

func (g *stubGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.prompt = prompt
	return g.text, g.err
}

type stubRecorder struct {
	records []model.BriefRecord
	err     error
}

func (r *stubRecorder) StoreContentBrief(_ context.Context, b model.BriefRecord) error {
	r.records = append(r.records, b)
	return r.err
}

var genTime = time.Date(2026, 2, 27, 12, 0, 0, 0, time.UTC)

func newTestSynthesizer(gen *stubGenerator, rec Recorder) *Synthesizer {
	scorer := score.NewScorer(nil).WithClock(func() time.Time { return genTime })
	s := NewSynthesizer(gen, scorer, rec, nil)
	s.now = func() time.Time { return genTime }
	s.newID = func(time.Time) string { return "brief_test" }
	return s
}

func dc(claim, url, title string) map[string]any {
	return map[string]any{"claim": claim, "value": "v", "sourceUrl": url, "sourceTitle": title, "confidence": "high"}
}

func scenarioJSON(t *testing.T) string {
	t.Helper()
	doc := map[string]any{
		"title":           "Austin Neighborhood Guide 2026: Where to Buy Now",
		"metaDescription": strings.Repeat("x", 140),
		"targetKeywords":  []string{"austin neighborhoods", "austin homes"},
		"outline": []map[string]any{
			{"h2": "Austin Market Snapshot", "h3s": []string{"Prices"}, "keyPoints": []string{"Median price fell 2%"},
				"dataClaims": []any{dc("Median price $540k in 2026", "https://www.census.gov/acs", "Census"), dc("Days on market 45 in 2026", "https://zillow.com/austin", "Zillow")}},
			{"h2": "Neighborhood Comparison", "h3s": []string{"Mueller", "Zilker"}, "keyPoints": []string{"Mueller leads"},
				"dataClaims": []any{dc("Mueller up 3% in 2026", "https://redfin.com/mueller", ""), dc("Zilker flat in 2026", "https://redfin.com/zilker", "Redfin")}},
			{"h2": "Schools", "keyPoints": []string{"Strong ratings"},
				"dataClaims": []any{dc("Ratings 8/10 in 2026", "https://greatschools.org/austin", "GreatSchools"), dc("12 schools", "https://greatschools.org/austin", "GreatSchools")}},
			{"h2": "Transit", "keyPoints": []string{"Bus rapid transit"},
				"dataClaims": []any{dc("Walk score 62", "https://walkscore.com/austin", "Walk Score"), dc("Permits 2026", "https://austintexas.gov/permits", "City of Austin")}},
			{"h2": "Outlook", "keyPoints": []string{"Steady"}},
		},
		"faqSection": []map[string]any{
			{"question": "Is Austin affordable?", "answer": "Median $540k"},
			{"question": "Best schools?", "answer": "Mueller"},
			{"question": "Commute?", "answer": "25 min"},
			{"question": "Inventory?", "answer": "3 months"},
		},
		"competitorGaps":    []string{"No block-level data"},
		"llmCitabilityTips": []string{"Lead with numbers"},
	}
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}
	return "```json\n" + string(data) + "\n```"
}

func TestSynthesizeScenario(t *testing.T) {
	gen := &stubGenerator{text: scenarioJSON(t)}
	rec := &stubRecorder{}
	s := newTestSynthesizer(gen, rec)

	b, err := s.Synthesize(context.Background(), Params{
		Location:    "Austin, TX",
		Topic:       "Best neighborhoods",
		ContentType: model.ContentNeighborhoodGuide,
		Context:     []model.NeighborhoodContext{{Neighborhood: "Mueller"}},
	})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}

	if len(b.DataClaims) != 8 {
		t.Errorf("claims = %d, want 8", len(b.DataClaims))
	}
	if len(b.Sources) != 7 {
		t.Errorf("sources = %d, want 7 (claims grouped by URL)", len(b.Sources))
	}
	if b.Sources[0].Domain != "census.gov" || b.Sources[0].CredibilityNote != "Official U.S. Census Bureau data" {
		t.Errorf("first source = %+v", b.Sources[0])
	}
	if b.Sources[2].Title != "redfin.com" {
		t.Errorf("untitled source should fall back to its domain, got %q", b.Sources[2].Title)
	}
	if b.Metadata.SourcesCount != 7 || b.Metadata.SignalsCount != 8 {
		t.Errorf("metadata counts = %d/%d", b.Metadata.SourcesCount, b.Metadata.SignalsCount)
	}
	if b.Metadata.DataFreshness != "Data current as of February 2026" {
		t.Errorf("freshness label = %q", b.Metadata.DataFreshness)
	}

	br := b.GeoScore.Breakdown
	if br.DataBackedClaims != 16 || br.StructuredData != 20 || br.ContentStructure < 18 || br.OriginalInsights != 15 || br.SourceAuthority <= 3 {
		t.Errorf("breakdown = %+v", br)
	}
	if b.GeoScore.Overall < 80 || b.GeoScore.Overall != br.Total() {
		t.Errorf("overall = %d", b.GeoScore.Overall)
	}

	if len(rec.records) != 1 || rec.records[0].GeoScore != b.GeoScore.Overall || rec.records[0].Location != "Austin, TX" {
		t.Errorf("recorded = %+v", rec.records)
	}
	if !strings.Contains(gen.prompt, `"neighborhood": "Mueller"`) {
		t.Error("prompt should embed the research context")
	}
}

func TestSynthesizeRecorderFailureIsNotFatal(t *testing.T) {
	gen := &stubGenerator{text: scenarioJSON(t)}
	s := newTestSynthesizer(gen, &stubRecorder{err: errors.New("neo4j down")})

	b, err := s.Synthesize(context.Background(), Params{Location: "Austin, TX", Topic: "t", ContentType: model.ContentMarketReport})
	if err != nil || b == nil {
		t.Fatalf("brief should be returned despite recorder failure: %v", err)
	}
}

func TestSynthesizeNilLoggerDiscards(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	gen := &stubGenerator{text: scenarioJSON(t)}
	s := newTestSynthesizer(gen, &stubRecorder{err: errors.New("neo4j down")})
	if _, err := s.Synthesize(context.Background(), Params{Location: "Austin, TX", Topic: "t", ContentType: model.ContentMarketReport}); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 0 {
		t.Errorf("nil logger wrote to the default logger: %s", buf.String())
	}
}

func TestSynthesizeFallbacks(t *testing.T) {
	gen := &stubGenerator{text: `Here you go: {"outline": [{"h2": "Only"}]} thanks`}
	s := newTestSynthesizer(gen, nil)

	b, err := s.Synthesize(context.Background(), Params{
		Location:       "Boise, ID",
		Topic:          "Market report",
		ContentType:    model.ContentMarketReport,
		TargetKeywords: []string{"boise housing"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if b.Title != "Market report in Boise, ID" {
		t.Errorf("title = %q", b.Title)
	}
	if len(b.TargetKeywords) != 1 || b.TargetKeywords[0] != "boise housing" {
		t.Errorf("keywords = %v", b.TargetKeywords)
	}
	if b.Sources == nil || b.FAQSection == nil || b.Outline[0].DataClaims == nil {
		t.Error("collections should be empty, not nil")
	}
	if len(b.JSONLD.FAQPage) != 0 {
		t.Error("FAQ fragment should be empty without FAQ entries")
	}
	if !strings.Contains(gen.prompt, "boise housing") {
		t.Error("requested keywords should reach the prompt")
	}
}

func TestSynthesizeErrors(t *testing.T) {
	tests := []struct {
		name string
		gen  *stubGenerator
	}{
		{"generator error", &stubGenerator{err: errors.New("quota")}},
		{"invalid json", &stubGenerator{text: "not json at all"}},
		{"empty", &stubGenerator{text: "  "}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestSynthesizer(tt.gen, nil).Synthesize(context.Background(), Params{Location: "a", Topic: "b", ContentType: model.ContentBuyerGuide})
			if err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestNewID(t *testing.T) {
	id := NewID(time.UnixMilli(1767225600000))
	if !strings.HasPrefix(id, "brief_1767225600000_") || len(id) != len("brief_1767225600000_")+6 {
		t.Errorf("id = %q", id)
	}
	if NewID(genTime) == NewID(genTime) {
		t.Error("ids should be unique")
	}
}
