package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ppiankov/geoagent/internal/graph"
	"github.com/ppiankov/geoagent/internal/model"
)

const systemPrompt = `You are GeoAgent, an autonomous real estate market intelligence agent. You produce content briefs built for Generative Engine Optimization (GEO): pages that AI answer engines will cite.

Work in three phases.

RESEARCH: use search_market_data and search_neighborhood_info to collect current figures. Look for median prices, year-over-year change, inventory, days on market, new developments, school ratings, walkability and notable amenities. Prefer data from the last 30 days.

CONNECT: store every finding as soon as you have it with store_market_signal and store_amenity. Each number, percentage or fact becomes a node in the knowledge graph. Call query_knowledge_graph before any external search, since earlier runs may already hold what you need.

GENERATE: once at least 6 market signals are stored, call generate_content_brief. A strong brief has sourced data claims, a structured FAQ, cross-referenced insights and schema.org markup.

Rules:
- read the knowledge graph first and skip topics with data younger than 7 days
- keep to 3-5 searches and refine queries toward the ones that returned the richest data
- store facts as you find them instead of batching at the end
- every market signal is one citable fact with a number and its source URL
- aim to beat the average GEO score of earlier briefs`

// SystemPrompt returns the instructions, followed by dynamic context when present
func SystemPrompt(dynamic string) string {
	if dynamic == "" {
		return systemPrompt
	}
	return systemPrompt + "\n\n" + dynamic
}

// UserGoal phrases the run request as the opening user message
func UserGoal(req model.RunRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate a GEO-optimized %s content brief for: %s\n\n", req.ContentType.Label(), req.Location)
	fmt.Fprintf(&b, "Topic focus: %s\n\n", req.Topic)
	if len(req.TargetKeywords) > 0 {
		fmt.Fprintf(&b, "Target keywords: %s\n\n", strings.Join(req.TargetKeywords, ", "))
	}
	b.WriteString("Query the knowledge graph for what is already known about this location, research the gaps, store your findings, then generate the brief.")
	return b.String()
}

// ContextSource provides statistics from earlier runs
type ContextSource interface {
	TopSourceDomains(ctx context.Context, limit int) ([]model.DomainCount, error)
	AverageGeoScore(ctx context.Context) (*model.ScoreAggregate, error)
}

// DynamicContext summarizes prior runs. Each lookup is independent and a
// failed lookup only drops its own paragraph.
func DynamicContext(ctx context.Context, src ContextSource, logger *slog.Logger) string {
	if src == nil {
		return ""
	}
	var parts []string

	domains, err := src.TopSourceDomains(ctx, graph.TopDomainsLimit)
	if err != nil {
		logger.Debug("top source domains unavailable", "error", err)
	} else if len(domains) > 0 {
		names := make([]string, 0, len(domains))
		for _, d := range domains {
			names = append(names, d.Domain)
		}
		parts = append(parts, fmt.Sprintf("**Preferred Sources** (most productive in prior research): %s. Prioritize searching these first.", strings.Join(names, ", ")))
	}

	agg, err := src.AverageGeoScore(ctx)
	if err != nil {
		logger.Debug("average GEO score unavailable", "error", err)
	} else if agg != nil && agg.AvgScore > 0 && agg.BriefCount > 0 {
		parts = append(parts, fmt.Sprintf("**Performance Feedback**: Your average GEO score across %d prior briefs is %d/100. Focus on improving weaker dimensions.", agg.BriefCount, agg.AvgScore))
	}

	return strings.Join(parts, "\n\n")
}
