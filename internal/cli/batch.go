package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/geoagent/internal/model"
	"github.com/ppiankov/geoagent/internal/worker"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Generate several briefs from a file in parallel",
	Long: `Batch runs one agent per request line concurrently:
- Read requests from input file ("location | topic | content_type" per line)
- Run agents in parallel with configurable worker count
- Write a JSON and Markdown brief for each successful run

Lines starting with # are ignored; the content type defaults to neighborhood_guide.

Example:
  geoagent batch requests.txt
  geoagent batch requests.txt --concurrency 4 --output-dir ./briefs`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 2, "number of concurrent agent runs")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./geoagent-briefs", "output directory for briefs")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 30*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().IntVar(&maxIterations, "max-iterations", 0, "override agent.max_iterations")
	batchCmd.Flags().StringVar(&extractBackend, "extract", "", "override extract.provider (tavily, readability)")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  GeoAgent Batch Processing\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", concurrency)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(os.Stderr, "\n")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyRunOverrides(cfg)
	logger := newLogger(os.Stderr, cfg.Log)

	reqs, err := worker.ReadRequestsFromFile(file)
	if err != nil {
		return fmt.Errorf("read requests: %w", err)
	}
	fmt.Fprintf(os.Stderr, "✓ Loaded %d requests\n\n", len(reqs))

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.close(context.Background())

	processor := worker.NewBatchProcessor(a.agent, concurrency, batchSinks())
	results := processor.ProcessRequests(ctx, reqs)

	successCount := 0
	failureCount := 0

	fmt.Fprintf(os.Stderr, "\n")
	for _, result := range results {
		label := result.Request.Location + " / " + result.Request.Topic
		if result.Error != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", label, result.Error)
			continue
		}

		slug := sanitizeFilename(result.Request.Location + "-" + result.Request.Topic)
		jsonPath := filepath.Join(outputDir, slug+".json")
		mdPath := filepath.Join(outputDir, slug+".md")
		if err := writeOutputs(result.Brief, jsonPath, mdPath); err != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", label, err)
			continue
		}

		successCount++
		fmt.Fprintf(os.Stderr, "✓ %s (GEO score: %d/100)\n", label, result.Brief.GeoScore.Overall)
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d requests\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	if failureCount > 0 && successCount == 0 {
		return fmt.Errorf("all %d runs failed", failureCount)
	}
	return nil
}

// batchSinks prefixes each run's progress with its index; writes are serialized
func batchSinks() worker.SinkFactory {
	var mu sync.Mutex
	return func(i int, req model.RunRequest) model.EventSink {
		return func(e model.Event) {
			var line string
			switch e.Type {
			case model.EventPhase:
				line = "phase " + string(e.Phase)
			case model.EventToolResult:
				line = e.Summary
			case model.EventError:
				line = "error: " + e.Message
			case model.EventComplete:
				line = "complete " + e.Brief.ID
			default:
				return
			}
			mu.Lock()
			defer mu.Unlock()
			fmt.Fprintf(os.Stderr, "[%d %s] %s\n", i+1, req.Location, line)
		}
	}
}

// sanitizeFilename turns s into a safe, lowercase file name
func sanitizeFilename(s string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		",", "",
		" ", "-",
	)
	s = strings.ToLower(replacer.Replace(strings.TrimSpace(s)))

	// Limit length
	if len(s) > 100 {
		s = s[:100]
	}
	if s == "" {
		s = "brief"
	}
	return s
}
