package graph

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ppiankov/geoagent/internal/model"
)

type runCall struct {
	query  string
	params map[string]any
	mode   AccessMode
}

type fakeDriver struct {
	calls   []runCall
	results [][]map[string]any
	runErr  error
	closed  bool
}

func (d *fakeDriver) NewSession(_ context.Context, cfg SessionConfig) (neo4jSession, error) {
	return &fakeSession{driver: d, mode: cfg.AccessMode}, nil
}

func (d *fakeDriver) Close(context.Context) error {
	d.closed = true
	return nil
}

type fakeSession struct {
	driver *fakeDriver
	mode   AccessMode
}

func (s *fakeSession) Run(_ context.Context, query string, params map[string]any) (neo4jResult, error) {
	s.driver.calls = append(s.driver.calls, runCall{query: query, params: params, mode: s.mode})
	if s.driver.runErr != nil {
		return nil, s.driver.runErr
	}
	var records []map[string]any
	if len(s.driver.results) > 0 {
		records = s.driver.results[0]
		s.driver.results = s.driver.results[1:]
	}
	return &fakeResult{records: records, idx: -1}, nil
}

func (s *fakeSession) Close(context.Context) error { return nil }

type fakeResult struct {
	records []map[string]any
	idx     int
}

func (r *fakeResult) Next(context.Context) bool {
	r.idx++
	return r.idx < len(r.records)
}

func (r *fakeResult) Record() neo4jRecord { return fakeRecord(r.records[r.idx]) }

func (r *fakeResult) Err() error { return nil }

type fakeRecord map[string]any

func (r fakeRecord) Get(key string) (any, bool) {
	v, ok := r[key]
	return v, ok
}

func newTestStore(t *testing.T, results ...[]map[string]any) (*Neo4jStore, *fakeDriver) {
	t.Helper()
	drv := &fakeDriver{results: results}
	store, err := NewNeo4jStore(drv, "neo4j")
	if err != nil {
		t.Fatalf("NewNeo4jStore: %v", err)
	}
	return store, drv
}

func TestNewNeo4jStoreNilDriver(t *testing.T) {
	if _, err := NewNeo4jStore(nil, ""); err == nil {
		t.Fatal("expected error for nil driver")
	}
}

func TestCreateMarketSignalWithNeighborhood(t *testing.T) {
	store, drv := newTestStore(t, []map[string]any{{"ms": "node"}})

	n, err := store.CreateMarketSignal(context.Background(), model.MarketSignal{
		Location:     "Austin, TX",
		Neighborhood: "Mueller",
		SignalType:   model.SignalPriceTrend,
		Headline:     "Prices up 4%",
		Summary:      "Median price rose.",
		Sentiment:    "positive",
		SourceURL:    "https://www.Zillow.com/research/austin",
		SourceTitle:  "Zillow Research",
	})
	if err != nil {
		t.Fatalf("CreateMarketSignal: %v", err)
	}
	if n != 1 {
		t.Errorf("records = %d, want 1", n)
	}

	call := drv.calls[0]
	if call.mode != AccessModeWrite {
		t.Errorf("mode = %s, want write", call.mode)
	}
	for _, want := range []string{"MERGE (n:Neighborhood", "HAS_SIGNAL", "SOURCED_FROM", "date: date()"} {
		if !strings.Contains(call.query, want) {
			t.Errorf("query missing %q", want)
		}
	}
	if strings.Contains(call.query, "AFFECTS") {
		t.Error("query should not link AFFECTS when a neighborhood is given")
	}
	if call.params["domain"] != "zillow.com" {
		t.Errorf("domain = %v, want zillow.com", call.params["domain"])
	}
	if call.params["value"] != nil {
		t.Errorf("value = %v, want nil", call.params["value"])
	}
}

func TestCreateMarketSignalWithoutNeighborhood(t *testing.T) {
	store, drv := newTestStore(t, []map[string]any{{"ms": "node"}})

	_, err := store.CreateMarketSignal(context.Background(), model.MarketSignal{
		Location:  "Austin, TX",
		Headline:  "Inventory tight",
		SourceURL: "https://redfin.com/news",
		Value:     "1.9 months",
	})
	if err != nil {
		t.Fatalf("CreateMarketSignal: %v", err)
	}
	q := drv.calls[0].query
	if strings.Contains(q, "Neighborhood") {
		t.Error("query should not merge a neighborhood")
	}
	if !strings.Contains(q, "(l)<-[:AFFECTS]-(ms)") {
		t.Error("query should link the signal to its location")
	}
	if drv.calls[0].params["value"] != "1.9 months" {
		t.Errorf("value = %v", drv.calls[0].params["value"])
	}
}

func TestCreateMarketSignalInvalidURL(t *testing.T) {
	store, drv := newTestStore(t)

	_, err := store.CreateMarketSignal(context.Background(), model.MarketSignal{Location: "X", SourceURL: "not a url"})
	if !errors.Is(err, ErrInvalidSourceURL) {
		t.Fatalf("err = %v, want ErrInvalidSourceURL", err)
	}
	if len(drv.calls) != 0 {
		t.Error("no query should run for an invalid source URL")
	}
}

func TestCreateAmenityRating(t *testing.T) {
	store, drv := newTestStore(t, []map[string]any{{"a": 1}}, []map[string]any{{"a": 1}})
	ctx := context.Background()

	rating := 4.5
	if _, err := store.CreateAmenity(ctx, model.Amenity{Location: "Austin", Neighborhood: "Mueller", AmenityName: "Mueller Lake Park", AmenityType: "park", Rating: &rating}); err != nil {
		t.Fatal(err)
	}
	if _, err := store.CreateAmenity(ctx, model.Amenity{Location: "Austin", Neighborhood: "Mueller", AmenityName: "Thinkery", AmenityType: "school"}); err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(drv.calls[0].query, "SET a.rating") || drv.calls[0].params["rating"] != 4.5 {
		t.Error("rating should be set when present")
	}
	if strings.Contains(drv.calls[1].query, "SET a.rating") {
		t.Error("rating should not be touched when absent")
	}
}

func TestFullContextFiltersEmptyMaps(t *testing.T) {
	store, drv := newTestStore(t, []map[string]any{{
		"neighborhood":    "Mueller",
		"medianPrice":     int64(550000),
		"avgDaysOnMarket": 31.5,
		"priceChangeYoY":  nil,
		"signals": []any{
			map[string]any{"headline": "Prices up", "type": "price_trend", "date": "2026-10-01", "sourceUrl": "https://zillow.com/a"},
			map[string]any{"headline": nil, "type": nil},
		},
		"amenities": []any{
			map[string]any{"name": "Park", "type": "park", "rating": int64(5)},
			map[string]any{"name": nil},
		},
	}})

	got, err := store.FullContext(context.Background(), "Austin")
	if err != nil {
		t.Fatalf("FullContext: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	nc := got[0]
	if nc.MedianPrice == nil || *nc.MedianPrice != 550000 {
		t.Errorf("medianPrice = %v", nc.MedianPrice)
	}
	if nc.PriceChangeYoY != nil {
		t.Errorf("priceChangeYoY = %v, want nil", *nc.PriceChangeYoY)
	}
	if len(nc.Signals) != 1 || nc.Signals[0].Date != "2026-10-01" {
		t.Errorf("signals = %+v", nc.Signals)
	}
	if len(nc.Amenities) != 1 || nc.Amenities[0].Rating == nil || *nc.Amenities[0].Rating != 5 {
		t.Errorf("amenities = %+v", nc.Amenities)
	}
	if drv.calls[0].mode != AccessModeRead {
		t.Error("full context should use a read session")
	}
}

func TestTopSourceDomains(t *testing.T) {
	store, drv := newTestStore(t, []map[string]any{
		{"domain": "zillow.com", "signalCount": int64(4)},
		{"domain": "redfin.com", "signalCount": int64(2)},
	})

	got, err := store.TopSourceDomains(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Domain != "zillow.com" || got[0].SignalCount != 4 {
		t.Errorf("domains = %+v", got)
	}
	if drv.calls[0].params["limit"] != int64(TopDomainsLimit) {
		t.Errorf("limit = %v", drv.calls[0].params["limit"])
	}
}

func TestAverageGeoScore(t *testing.T) {
	tests := []struct {
		name    string
		records []map[string]any
		want    *model.ScoreAggregate
	}{
		{"no briefs", []map[string]any{{"avgScore": nil, "briefCount": int64(0)}}, nil},
		{"rounded", []map[string]any{{"avgScore": 71.6, "briefCount": int64(3)}}, &model.ScoreAggregate{AvgScore: 72, BriefCount: 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, _ := newTestStore(t, tt.records)
			got, err := store.AverageGeoScore(context.Background())
			if err != nil {
				t.Fatal(err)
			}
			if (got == nil) != (tt.want == nil) || (got != nil && *got != *tt.want) {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestViewDedupesNodesAndDropsNullEdges(t *testing.T) {
	store, _ := newTestStore(t, []map[string]any{{
		"nodes": []any{
			map[string]any{"id": "4:1", "label": "Location", "name": "Austin"},
			map[string]any{"id": "4:2", "label": "Neighborhood", "name": "Mueller"},
			map[string]any{"id": "4:1", "label": "Location", "name": "Austin"},
			map[string]any{"id": nil, "label": nil, "name": nil},
		},
		"edges": []any{
			map[string]any{"source": "4:2", "target": "4:1", "type": "HAS_NEIGHBORHOOD"},
			map[string]any{"source": "4:1", "target": nil, "type": nil},
		},
	}})

	view, err := store.View(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(view.Nodes) != 2 {
		t.Errorf("nodes = %+v", view.Nodes)
	}
	if len(view.Edges) != 1 || view.Edges[0].Type != RelHasNeighborhood {
		t.Errorf("edges = %+v", view.Edges)
	}
}

func TestRunErrorIsWrapped(t *testing.T) {
	store, drv := newTestStore(t)
	drv.runErr = errors.New("connection refused")

	_, err := store.MarketSignals(context.Background(), "Austin")
	if err == nil || !strings.Contains(err.Error(), "connection refused") {
		t.Fatalf("err = %v", err)
	}
}

func TestEnsureSchemaRunsAllStatements(t *testing.T) {
	store, drv := newTestStore(t)
	if err := store.EnsureSchema(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(drv.calls) != len(schemaQueries) {
		t.Errorf("calls = %d, want %d", len(drv.calls), len(schemaQueries))
	}
	if err := store.Close(context.Background()); err != nil || !drv.closed {
		t.Error("Close should close the driver")
	}
}
