package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ppiankov/geoagent/internal/model"
)

// Runner runs one brief generation
type Runner interface {
	Run(ctx context.Context, req model.RunRequest, sink model.EventSink) (*model.ContentBrief, error)
}

// SinkFactory returns the event sink for the run at index i; nil discards events
type SinkFactory func(i int, req model.RunRequest) model.EventSink

// RunJob represents one queued agent run
type RunJob struct {
	Index   int
	Request model.RunRequest
	Runner  Runner
	Sink    model.EventSink
}

// Execute executes the run job
func (j *RunJob) Execute(ctx context.Context) Result {
	sink := j.Sink
	if sink == nil {
		sink = func(model.Event) {}
	}
	brief, err := j.Runner.Run(ctx, j.Request, sink)
	return &RunResult{
		Index:   j.Index,
		Request: j.Request,
		Brief:   brief,
		Error:   err,
	}
}

// RunResult represents the result of a run job
type RunResult struct {
	Index   int
	Request model.RunRequest
	Brief   *model.ContentBrief
	Error   error
}

// GetError returns the error from the run result
func (r *RunResult) GetError() error {
	return r.Error
}

// BatchProcessor processes several run requests concurrently
type BatchProcessor struct {
	runner      Runner
	concurrency int
	sinks       SinkFactory
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(runner Runner, concurrency int, sinks SinkFactory) *BatchProcessor {
	return &BatchProcessor{
		runner:      runner,
		concurrency: concurrency,
		sinks:       sinks,
	}
}

// ProcessRequests runs every request and returns results in input order
func (b *BatchProcessor) ProcessRequests(ctx context.Context, reqs []model.RunRequest) []*RunResult {
	if len(reqs) == 0 {
		return []*RunResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for i, req := range reqs {
		job := &RunJob{
			Index:   i,
			Request: req,
			Runner:  b.runner,
		}
		if b.sinks != nil {
			job.Sink = b.sinks(i, req)
		}
		pool.Submit(job)
	}

	results := pool.Wait()

	runResults := make([]*RunResult, 0, len(results))
	for _, result := range results {
		runResults = append(runResults, result.(*RunResult))
	}
	sort.Slice(runResults, func(i, j int) bool { return runResults[i].Index < runResults[j].Index })

	return runResults
}

// ProcessFile reads run requests from a file and processes them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*RunResult, error) {
	reqs, err := ReadRequestsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read requests: %w", err)
	}

	return b.ProcessRequests(ctx, reqs), nil
}

// ReadRequestsFromFile reads one "location | topic | content_type" request per line.
// The content type may be omitted and defaults to neighborhood_guide.
func ReadRequestsFromFile(filePath string) ([]model.RunRequest, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var reqs []model.RunRequest
	seen := make(map[string]bool)
	lineNo := 0

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		req, err := ParseRequestLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}

		key := strings.ToLower(req.Location + "|" + req.Topic + "|" + string(req.ContentType))
		if !seen[key] {
			seen[key] = true
			reqs = append(reqs, req)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return reqs, nil
}

// ParseRequestLine parses "location | topic [| content_type]"
func ParseRequestLine(line string) (model.RunRequest, error) {
	parts := strings.Split(line, "|")
	if len(parts) < 2 || len(parts) > 3 {
		return model.RunRequest{}, fmt.Errorf("expected \"location | topic | content_type\", got %q", line)
	}

	req := model.RunRequest{
		Location:    strings.TrimSpace(parts[0]),
		Topic:       strings.TrimSpace(parts[1]),
		ContentType: model.ContentNeighborhoodGuide,
	}
	if len(parts) == 3 && strings.TrimSpace(parts[2]) != "" {
		ct, err := model.ParseContentType(parts[2])
		if err != nil {
			return model.RunRequest{}, err
		}
		req.ContentType = ct
	}
	if err := req.Validate(); err != nil {
		return model.RunRequest{}, err
	}
	return req, nil
}
