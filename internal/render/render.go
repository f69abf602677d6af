package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/ppiankov/geoagent/internal/model"
	"github.com/ppiankov/geoagent/internal/score"
)

var md = goldmark.New(goldmark.WithExtensions(extension.Table))

// Markdown renders a brief as a human-readable document
func Markdown(b *model.ContentBrief) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# %s\n\n", b.Title)
	if b.MetaDescription != "" {
		fmt.Fprintf(&sb, "> %s\n\n", b.MetaDescription)
	}

	fmt.Fprintf(&sb, "**Location:** %s  \n", b.Metadata.Location)
	fmt.Fprintf(&sb, "**Topic:** %s  \n", b.Metadata.Topic)
	fmt.Fprintf(&sb, "**Content type:** %s  \n", b.Metadata.ContentType.Label())
	if !b.Metadata.GeneratedAt.IsZero() {
		fmt.Fprintf(&sb, "**Generated:** %s  \n", b.Metadata.GeneratedAt.UTC().Format("2006-01-02 15:04 MST"))
	}
	if b.Metadata.DataFreshness != "" {
		fmt.Fprintf(&sb, "**Freshness:** %s\n", b.Metadata.DataFreshness)
	}
	sb.WriteString("\n")

	writeScore(&sb, b.GeoScore)

	if len(b.TargetKeywords) > 0 {
		sb.WriteString("## Target Keywords\n\n")
		for _, k := range b.TargetKeywords {
			fmt.Fprintf(&sb, "- %s\n", k)
		}
		sb.WriteString("\n")
	}

	if len(b.Outline) > 0 {
		sb.WriteString("## Outline\n\n")
		for _, s := range b.Outline {
			fmt.Fprintf(&sb, "### %s\n\n", s.H2)
			for _, h3 := range s.H3s {
				fmt.Fprintf(&sb, "- *%s*\n", h3)
			}
			for _, p := range s.KeyPoints {
				fmt.Fprintf(&sb, "- %s\n", p)
			}
			for _, c := range s.DataClaims {
				fmt.Fprintf(&sb, "- %s\n", claimLine(c))
			}
			sb.WriteString("\n")
		}
	}

	if len(b.DataClaims) > 0 {
		sb.WriteString("## Key Data\n\n")
		for _, c := range b.DataClaims {
			fmt.Fprintf(&sb, "- %s\n", claimLine(c))
		}
		sb.WriteString("\n")
	}

	if len(b.FAQSection) > 0 {
		sb.WriteString("## FAQ\n\n")
		for _, f := range b.FAQSection {
			fmt.Fprintf(&sb, "**%s**\n\n%s\n\n", f.Question, f.Answer)
		}
	}

	if len(b.CompetitorGaps) > 0 {
		sb.WriteString("## Competitor Gaps\n\n")
		for _, g := range b.CompetitorGaps {
			fmt.Fprintf(&sb, "- %s\n", g)
		}
		sb.WriteString("\n")
	}

	if len(b.CitabilityTips) > 0 {
		sb.WriteString("## Citability Tips\n\n")
		for _, t := range b.CitabilityTips {
			fmt.Fprintf(&sb, "- %s\n", t)
		}
		sb.WriteString("\n")
	}

	if len(b.Sources) > 0 {
		sb.WriteString("## Sources\n\n")
		for i, s := range b.Sources {
			fmt.Fprintf(&sb, "%d. [%s](%s) (%s)", i+1, s.Title, s.URL, s.Domain)
			if s.CredibilityNote != "" {
				fmt.Fprintf(&sb, ": %s", s.CredibilityNote)
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	writeJSONLD(&sb, b.JSONLD)

	return sb.String()
}

func writeScore(sb *strings.Builder, g model.GeoScore) {
	fmt.Fprintf(sb, "## GEO Score: %d/100\n\n", g.Overall)
	sb.WriteString("| Dimension | Score | Max |\n|---|---|---|\n")
	for _, d := range model.Dimensions {
		fmt.Fprintf(sb, "| %s | %d | %d |\n", d, g.Breakdown.Value(d), d.Max())
	}
	fmt.Fprintf(sb, "\nWeakest dimension: **%s**\n\n", score.WeakestDimension(g))
}

func writeJSONLD(sb *strings.Builder, sd model.StructuredData) {
	fragments := []struct {
		name string
		v    map[string]any
	}{
		{"Article", sd.Article},
		{"FAQPage", sd.FAQPage},
		{"BreadcrumbList", sd.BreadcrumbList},
	}
	wrote := false
	for _, f := range fragments {
		if len(f.v) == 0 {
			continue
		}
		data, err := json.MarshalIndent(f.v, "", "  ")
		if err != nil {
			continue
		}
		if !wrote {
			sb.WriteString("## Structured Data\n\n")
			wrote = true
		}
		fmt.Fprintf(sb, "%s:\n\n```json\n%s\n```\n\n", f.name, data)
	}
}

func claimLine(c model.DataClaim) string {
	line := c.Claim
	if c.Value != "" {
		line += fmt.Sprintf(" (**%s**)", c.Value)
	}
	if c.SourceURL != "" {
		title := c.SourceTitle
		if title == "" {
			title = "source"
		}
		line += fmt.Sprintf(" [%s](%s)", title, c.SourceURL)
	}
	return line
}

// HTML renders the markdown form of a brief to an HTML fragment
func HTML(b *model.ContentBrief) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(Markdown(b)), &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return buf.String(), nil
}
