package worker

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/ppiankov/geoagent/internal/model"
)

// mockRunner implements Runner
type mockRunner struct {
	failFor string
}

func (m *mockRunner) Run(ctx context.Context, req model.RunRequest, sink model.EventSink) (*model.ContentBrief, error) {
	time.Sleep(10 * time.Millisecond) // Simulate work
	sink(model.PhaseEvent(model.PhaseResearch))
	if req.Location == m.failFor {
		return nil, errors.New("run failed")
	}
	return &model.ContentBrief{
		ID:       "brief_" + req.Location,
		Title:    req.Topic + " in " + req.Location,
		Metadata: model.BriefMetadata{Location: req.Location, Topic: req.Topic, ContentType: req.ContentType},
	}, nil
}

func requests(locations ...string) []model.RunRequest {
	out := make([]model.RunRequest, 0, len(locations))
	for _, loc := range locations {
		out = append(out, model.RunRequest{Location: loc, Topic: "Family living", ContentType: model.ContentNeighborhoodGuide})
	}
	return out
}

func TestBatchProcessor_ProcessRequests(t *testing.T) {
	var mu sync.Mutex
	events := map[int]int{}
	processor := NewBatchProcessor(&mockRunner{}, 2, func(i int, _ model.RunRequest) model.EventSink {
		return func(model.Event) {
			mu.Lock()
			events[i]++
			mu.Unlock()
		}
	})

	reqs := requests("Austin, TX", "Irvine, CA", "Denver, CO", "Boise, ID")
	results := processor.ProcessRequests(context.Background(), reqs)

	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	for i, res := range results {
		if res.Index != i || res.Request.Location != reqs[i].Location {
			t.Errorf("result %d out of order: %+v", i, res.Request)
		}
		if res.Error != nil || res.Brief == nil {
			t.Errorf("unexpected failure for %s: %v", res.Request.Location, res.Error)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if len(events) != len(reqs) {
		t.Errorf("expected a sink per run, got %d", len(events))
	}
}

func TestBatchProcessor_ProcessRequests_Error(t *testing.T) {
	processor := NewBatchProcessor(&mockRunner{failFor: "Irvine, CA"}, 2, nil)

	results := processor.ProcessRequests(context.Background(), requests("Austin, TX", "Irvine, CA"))
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Error != nil {
		t.Errorf("unexpected error: %v", results[0].Error)
	}
	if results[1].Error == nil || results[1].Brief != nil {
		t.Errorf("expected failure without brief, got %+v", results[1])
	}
}

func TestBatchProcessor_ProcessRequests_Empty(t *testing.T) {
	processor := NewBatchProcessor(&mockRunner{}, 2, nil)

	results := processor.ProcessRequests(context.Background(), nil)
	if len(results) != 0 {
		t.Errorf("expected 0 results, got %d", len(results))
	}
}

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	tmpfile, err := os.CreateTemp(t.TempDir(), "requests")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}
	return tmpfile.Name()
}

func TestReadRequestsFromFile(t *testing.T) {
	path := writeTemp(t, `Austin, TX | Best neighborhoods for families | neighborhood_guide
# comment
Irvine, CA | Housing market outlook | market_report

Denver, CO | First-time buyers
austin, tx | best neighborhoods for families | neighborhood_guide
`)

	reqs, err := ReadRequestsFromFile(path)
	if err != nil {
		t.Fatalf("ReadRequestsFromFile failed: %v", err)
	}

	if len(reqs) != 3 {
		t.Fatalf("expected 3 requests (duplicate dropped), got %d", len(reqs))
	}
	if reqs[1].ContentType != model.ContentMarketReport {
		t.Errorf("content type = %s, want market_report", reqs[1].ContentType)
	}
	if reqs[2].ContentType != model.ContentNeighborhoodGuide {
		t.Errorf("omitted content type should default to neighborhood_guide, got %s", reqs[2].ContentType)
	}
}

func TestReadRequestsFromFile_Invalid(t *testing.T) {
	tests := map[string]string{
		"bad content type": "Austin, TX | Topic | brochure\n",
		"missing topic":    "Austin, TX\n",
		"empty location":   " | Topic | market_report\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := ReadRequestsFromFile(writeTemp(t, content)); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestReadRequestsFromFile_NonExistent(t *testing.T) {
	if _, err := ReadRequestsFromFile("non_existent_file.txt"); err == nil {
		t.Error("expected error for non-existent file, got nil")
	}
}

func TestBatchProcessor_ProcessFile(t *testing.T) {
	path := writeTemp(t, "Austin, TX | Schools\nBoise, ID | Parks | buyer_guide\n")

	processor := NewBatchProcessor(&mockRunner{}, 2, nil)
	results, err := processor.ProcessFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ProcessFile failed: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("expected 2 results, got %d", len(results))
	}
}

func TestRunResult_GetError(t *testing.T) {
	expected := errors.New("run failed")
	r := &RunResult{Error: expected}
	if r.GetError() != expected {
		t.Errorf("expected %v, got %v", expected, r.GetError())
	}
}
