package agent

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/ppiankov/geoagent/internal/llm"
	"github.com/ppiankov/geoagent/internal/model"
)

func TestRegistryPhases(t *testing.T) {
	r := newFixture().tools
	tests := map[string]model.Phase{
		ToolSearchMarketData:       model.PhaseResearch,
		ToolSearchNeighborhoodInfo: model.PhaseResearch,
		ToolExtractPageContent:     model.PhaseResearch,
		ToolStoreMarketSignal:      model.PhaseConnect,
		ToolStoreAmenity:           model.PhaseConnect,
		ToolQueryKnowledgeGraph:    model.PhaseConnect,
		ToolGenerateContentBrief:   model.PhaseGenerate,
		"something_new":            model.PhaseResearch,
	}
	for name, want := range tests {
		if got := r.PhaseOf(name); got != want {
			t.Errorf("PhaseOf(%s) = %s, want %s", name, got, want)
		}
	}
}

func TestRegistryReplacesDuplicates(t *testing.T) {
	a := &Tool{Spec: llm.ToolSpec{Name: "a"}, Phase: model.PhaseConnect}
	b := &Tool{Spec: llm.ToolSpec{Name: "b"}}
	a2 := &Tool{Spec: llm.ToolSpec{Name: "a"}, Phase: model.PhaseGenerate}
	r := NewRegistry(a, b, a2)
	specs := r.Specs()
	if len(specs) != 2 || specs[0].Name != "a" || specs[1].Name != "b" {
		t.Errorf("specs = %+v", specs)
	}
	if r.PhaseOf("a") != model.PhaseGenerate {
		t.Error("later registration should win")
	}
}

func TestNeighborhoodSearchQuery(t *testing.T) {
	f := newFixture()
	tool, _ := f.tools.Lookup(ToolSearchNeighborhoodInfo)

	if _, err := tool.Execute(context.Background(), json.RawMessage(`{"neighborhood":"Mueller","location":"Austin"}`)); err != nil {
		t.Fatal(err)
	}
	if f.search.query != "Mueller Austin neighborhood guide schools, parks, transit, restaurants, walkability" {
		t.Errorf("default query = %q", f.search.query)
	}
	if f.search.opts.Topic != "general" || f.search.opts.IncludeDomains != nil {
		t.Errorf("opts = %+v", f.search.opts)
	}

	if _, err := tool.Execute(context.Background(), json.RawMessage(`{"neighborhood":"Mueller","location":"Austin","aspects":["schools","parks"]}`)); err != nil {
		t.Fatal(err)
	}
	if f.search.query != "Mueller Austin neighborhood guide schools, parks" {
		t.Errorf("aspect query = %q", f.search.query)
	}
}

func TestStoreAmenityTool(t *testing.T) {
	f := newFixture()
	tool, _ := f.tools.Lookup(ToolStoreAmenity)
	ctx := context.Background()

	out, err := tool.Execute(ctx, json.RawMessage(`{"neighborhood":"Mueller","location":"Austin","amenityName":"Lake Park","amenityType":"park","rating":8}`))
	if err != nil {
		t.Fatal(err)
	}
	if out.NodesAdded != 1 || tool.Summarize(out) != "Stored amenity: Lake Park" {
		t.Errorf("outcome = %+v summary %q", out, tool.Summarize(out))
	}
	if _, err := tool.Execute(ctx, json.RawMessage(`{"neighborhood":"Mueller","location":"Austin","amenityName":"X","amenityType":"casino"}`)); err == nil {
		t.Error("expected error for unsupported amenity type")
	}
	if _, err := tool.Execute(ctx, json.RawMessage(`{"location":"Austin"}`)); err == nil {
		t.Error("expected error for missing fields")
	}
}

func TestQueryGraphMarketSignals(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	if _, err := f.graph.CreateMarketSignal(ctx, model.MarketSignal{Location: "Austin", Neighborhood: "Mueller", SignalType: model.SignalDemand, Headline: "h", SourceURL: "https://a.com"}); err != nil {
		t.Fatal(err)
	}
	tool, _ := f.tools.Lookup(ToolQueryKnowledgeGraph)
	out, err := tool.Execute(ctx, json.RawMessage(`{"location":"Austin","queryType":"market_signals"}`))
	if err != nil {
		t.Fatal(err)
	}
	if got := tool.Summarize(out); got != "Found 1 records in knowledge graph" {
		t.Errorf("summary = %q", got)
	}
}

func TestGenerateBriefRejectsUnknownContentType(t *testing.T) {
	f := newFixture()
	tool, _ := f.tools.Lookup(ToolGenerateContentBrief)
	if _, err := tool.Execute(context.Background(), json.RawMessage(`{"location":"A","topic":"b","contentType":"poem"}`)); err == nil {
		t.Error("expected error")
	}
}

func TestTranscriptAppendIsImmutable(t *testing.T) {
	base := NewTranscript("goal")
	a := base.Append(llm.Message{Role: llm.RoleAssistant, Content: "a"})
	b := base.Append(llm.Message{Role: llm.RoleAssistant, Content: "b"})
	if base.Len() != 1 || a.Len() != 2 || b.Len() != 2 {
		t.Fatalf("lengths = %d %d %d", base.Len(), a.Len(), b.Len())
	}
	if a.Messages()[1].Content != "a" || b.Messages()[1].Content != "b" {
		t.Error("appends should not share storage")
	}
}

func TestTruncateRunes(t *testing.T) {
	if got := truncateRunes("héllo", 2); got != "hé" {
		t.Errorf("got %q", got)
	}
	if got := truncateRunes("hi", 10); got != "hi" {
		t.Errorf("got %q", got)
	}
}
