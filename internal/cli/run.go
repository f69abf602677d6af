package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/geoagent/internal/model"
	"github.com/ppiankov/geoagent/internal/render"
	"github.com/ppiankov/geoagent/internal/score"
)

var (
	runLocation    string
	runTopic       string
	runType        string
	runKeywords    []string
	outJSON        string
	outMD          string
	runTimeout     time.Duration
	maxIterations  int
	extractBackend string
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Research a location and generate one content brief",
	Long: `Run drives the agent through research, graph building and brief
generation for one location and topic:
- Search market data and neighborhood coverage
- Extract full articles from the best results
- Store market signals and amenities in the knowledge graph
- Synthesize a scored, citable content brief

Example:
  geoagent run --location "Austin, TX" --topic "first-time buyers" --type buyer_guide
  geoagent run -l "Denver, CO" -t "inventory" --type market_report --json brief.json --md brief.md`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runLocation, "location", "l", "", "location to research (required)")
	runCmd.Flags().StringVarP(&runTopic, "topic", "t", "", "topic of the brief (required)")
	runCmd.Flags().StringVar(&runType, "type", string(model.ContentNeighborhoodGuide), "content type (neighborhood_guide, market_report, buyer_guide, investment_analysis)")
	runCmd.Flags().StringSliceVar(&runKeywords, "keywords", nil, "target keywords (comma separated)")

	runCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path (optional)")
	runCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 10*time.Minute, "overall run timeout")
	runCmd.Flags().IntVar(&maxIterations, "max-iterations", 0, "override agent.max_iterations")
	runCmd.Flags().StringVar(&extractBackend, "extract", "", "override extract.provider (tavily, readability)")

	_ = runCmd.MarkFlagRequired("location")
	_ = runCmd.MarkFlagRequired("topic")
}

func runRun(cmd *cobra.Command, args []string) error {
	ct, err := model.ParseContentType(runType)
	if err != nil {
		return err
	}
	req := model.RunRequest{
		Location:       runLocation,
		Topic:          runTopic,
		ContentType:    ct,
		TargetKeywords: runKeywords,
	}
	if err := req.Validate(); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyRunOverrides(cfg)
	logger := newLogger(os.Stderr, cfg.Log)

	ctx, cancel := context.WithTimeout(cmd.Context(), runTimeout)
	defer cancel()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.close(context.Background())

	if verbose {
		fmt.Fprintf(os.Stderr, "Location:     %s\n", req.Location)
		fmt.Fprintf(os.Stderr, "Topic:        %s\n", req.Topic)
		fmt.Fprintf(os.Stderr, "Content type: %s\n", req.ContentType.Label())
		fmt.Fprintf(os.Stderr, "Iterations:   %d\n", cfg.Agent.MaxIterations)
		fmt.Fprintln(os.Stderr)
	}

	b, err := a.agent.Run(ctx, req, progressSink(os.Stderr, verbose))
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}

	if err := writeOutputs(b, outJSON, outMD); err != nil {
		return err
	}
	printScore(os.Stdout, b)
	return nil
}

func applyRunOverrides(cfg *model.Config) {
	if maxIterations > 0 {
		cfg.Agent.MaxIterations = maxIterations
	}
	if extractBackend != "" {
		cfg.Extract.Provider = extractBackend
	}
}

// progressSink prints agent events as they happen
func progressSink(w io.Writer, verbose bool) model.EventSink {
	return func(e model.Event) {
		switch e.Type {
		case model.EventPhase:
			fmt.Fprintf(w, "\n▶ %s\n", strings.ToUpper(string(e.Phase)))
		case model.EventToolCall:
			if verbose {
				args, _ := json.Marshal(e.Args)
				fmt.Fprintf(w, "  → %s %s\n", e.Name, args)
			} else {
				fmt.Fprintf(w, "  → %s\n", e.Name)
			}
		case model.EventToolResult:
			fmt.Fprintf(w, "  ✓ %s\n", e.Summary)
		case model.EventGraphUpdate:
			fmt.Fprintf(w, "  + graph: %d nodes, %d edges\n", e.NodesAdded, e.EdgesAdded)
		case model.EventThinking:
			if verbose {
				fmt.Fprintf(w, "  … %s\n", e.Content)
			}
		case model.EventError:
			fmt.Fprintf(w, "  ✗ %s\n", e.Message)
		case model.EventComplete:
			fmt.Fprintf(w, "\n✓ Brief complete: %s\n", e.Brief.ID)
		}
	}
}

func writeOutputs(b *model.ContentBrief, jsonPath, mdPath string) error {
	if jsonPath != "" {
		data, err := json.MarshalIndent(b, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal brief: %w", err)
		}
		if err := os.WriteFile(jsonPath, data, 0644); err != nil {
			return fmt.Errorf("write JSON: %w", err)
		}
		fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", jsonPath)
	}
	if mdPath != "" {
		if err := os.WriteFile(mdPath, []byte(render.Markdown(b)), 0644); err != nil {
			return fmt.Errorf("write markdown: %w", err)
		}
		fmt.Fprintf(os.Stderr, "✓ Wrote Markdown: %s\n", mdPath)
	}
	return nil
}

func printScore(w io.Writer, b *model.ContentBrief) {
	g := b.GeoScore
	fmt.Fprintf(w, "\n%s\n", b.Title)
	fmt.Fprintf(w, "GEO score: %d/100\n", g.Overall)
	for _, d := range model.Dimensions {
		fmt.Fprintf(w, "  %-18s %2d/%d\n", d, g.Breakdown.Value(d), d.Max())
	}
	fmt.Fprintf(w, "Weakest dimension: %s\n", score.WeakestDimension(g))
	fmt.Fprintf(w, "Brief id: %s\n", b.ID)
}
