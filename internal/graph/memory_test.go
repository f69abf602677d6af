package graph

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ppiankov/geoagent/internal/model"
)

func signal(loc, hood, headline, url string) model.MarketSignal {
	return model.MarketSignal{
		Location:     loc,
		Neighborhood: hood,
		SignalType:   model.SignalDemand,
		Headline:     headline,
		Summary:      headline,
		Sentiment:    "neutral",
		SourceURL:    url,
		SourceTitle:  "Title " + headline,
	}
}

func TestMemoryStoreSignalsAndContext(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	base := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	m.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	for _, s := range []model.MarketSignal{
		signal("Austin, TX", "Mueller", "first", "https://www.zillow.com/a"),
		signal("Austin, TX", "Mueller", "second", "https://zillow.com/b"),
		signal("Austin, TX", "", "metro-wide", "https://redfin.com/c"),
		signal("Denver, CO", "Highland", "elsewhere", "https://realtor.com/d"),
	} {
		if _, err := m.CreateMarketSignal(ctx, s); err != nil {
			t.Fatalf("CreateMarketSignal: %v", err)
		}
	}

	got, err := m.MarketSignals(ctx, "Austin, TX")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("signals = %d, want 2 (location-only signals are excluded)", len(got))
	}
	if got[0].Headline != "second" || got[0].Neighborhood != "Mueller" {
		t.Errorf("newest first: got %+v", got[0])
	}

	full, err := m.FullContext(ctx, "Austin, TX")
	if err != nil {
		t.Fatal(err)
	}
	if len(full) != 1 || len(full[0].Signals) != 2 {
		t.Fatalf("full context = %+v", full)
	}
	if full[0].Signals[0].SourceTitle != "Title first" {
		t.Errorf("source title = %q", full[0].Signals[0].SourceTitle)
	}

	top, err := m.TopSourceDomains(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(top) != 2 || top[0] != (model.DomainCount{Domain: "zillow.com", SignalCount: 2}) {
		t.Errorf("top = %+v", top)
	}
}

func TestMemoryStoreInvalidURL(t *testing.T) {
	m := NewMemoryStore()
	_, err := m.CreateMarketSignal(context.Background(), signal("A", "", "x", "::"))
	if !errors.Is(err, ErrInvalidSourceURL) {
		t.Fatalf("err = %v", err)
	}
	view, _ := m.View(context.Background())
	if len(view.Nodes) != 0 {
		t.Error("nothing should be written on invalid URL")
	}
}

func TestMemoryStoreAmenityMerge(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	r1, r2 := 3.0, 4.5
	a := model.Amenity{Location: "Austin", Neighborhood: "Mueller", AmenityName: "Lake Park", AmenityType: "park", Rating: &r1}
	if _, err := m.CreateAmenity(ctx, a); err != nil {
		t.Fatal(err)
	}
	a.Rating = &r2
	if _, err := m.CreateAmenity(ctx, a); err != nil {
		t.Fatal(err)
	}
	a.Rating = nil
	if _, err := m.CreateAmenity(ctx, a); err != nil {
		t.Fatal(err)
	}

	full, _ := m.FullContext(ctx, "Austin")
	if len(full) != 1 || len(full[0].Amenities) != 1 {
		t.Fatalf("amenities = %+v", full)
	}
	if got := full[0].Amenities[0].Rating; got == nil || *got != 4.5 {
		t.Errorf("rating = %v, want 4.5", got)
	}
}

func TestMemoryStoreFullContextOrdering(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	for _, hood := range []string{"Cheap", "Pricey", "Unknown"} {
		if _, err := m.CreateAmenity(ctx, model.Amenity{Location: "Austin", Neighborhood: hood, AmenityName: "School " + hood, AmenityType: "school"}); err != nil {
			t.Fatal(err)
		}
	}
	low, high := 300000.0, 900000.0
	_ = m.SetNeighborhoodMetrics("Cheap", &low, nil, nil)
	_ = m.SetNeighborhoodMetrics("Pricey", &high, nil, nil)
	if err := m.SetNeighborhoodMetrics("Missing", nil, nil, nil); err == nil {
		t.Error("expected error for unknown neighborhood")
	}

	full, _ := m.FullContext(ctx, "Austin")
	var order []string
	for _, nc := range full {
		order = append(order, nc.Neighborhood)
	}
	want := []string{"Pricey", "Cheap", "Unknown"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestMemoryStoreAverageScoreAndView(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	agg, err := m.AverageGeoScore(ctx)
	if err != nil || agg != nil {
		t.Fatalf("empty store: agg=%v err=%v", agg, err)
	}

	for i, score := range []int{70, 75} {
		if err := m.StoreContentBrief(ctx, model.BriefRecord{ID: string(rune('a' + i)), Title: "Brief", Topic: "t", GeoScore: score, Location: "Austin"}); err != nil {
			t.Fatal(err)
		}
	}
	agg, _ = m.AverageGeoScore(ctx)
	if agg == nil || agg.AvgScore != 73 || agg.BriefCount != 2 {
		t.Errorf("agg = %+v, want 73/2", agg)
	}

	view, _ := m.View(ctx)
	// 1 location + 2 briefs
	if len(view.Nodes) != 3 || len(view.Edges) != 2 {
		t.Errorf("view = %d nodes, %d edges", len(view.Nodes), len(view.Edges))
	}
	for _, e := range view.Edges {
		if e.Type != RelGeneratedFor {
			t.Errorf("edge type = %s", e.Type)
		}
	}
}
