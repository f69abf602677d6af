// Package brief turns research context into a scored, citable content brief.
package brief

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/geoagent/internal/llm"
	"github.com/ppiankov/geoagent/internal/model"
	"github.com/ppiankov/geoagent/internal/score"
)

// Recorder persists a summary of each finished brief
type Recorder interface {
	StoreContentBrief(ctx context.Context, b model.BriefRecord) error
}

// Params is the input of one synthesis
type Params struct {
	Location       string
	Topic          string
	ContentType    model.ContentType
	TargetKeywords []string
	// Context is the research data embedded into the prompt, usually []model.NeighborhoodContext
	Context any
}

// Synthesizer generates briefs with a long-form model and scores them
type Synthesizer struct {
	generator llm.Generator
	scorer    *score.Scorer
	recorder  Recorder
	logger    *slog.Logger

	now   func() time.Time
	newID func(time.Time) string
}

// NewSynthesizer creates a synthesizer. recorder may be nil.
func NewSynthesizer(generator llm.Generator, scorer *score.Scorer, recorder Recorder, logger *slog.Logger) *Synthesizer {
	if scorer == nil {
		scorer = score.NewScorer(nil)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Synthesizer{
		generator: generator,
		scorer:    scorer,
		recorder:  recorder,
		logger:    logger,
		now:       time.Now,
		newID:     NewID,
	}
}

// NewID returns "brief_<unix millis>_<6 random characters>"
func NewID(t time.Time) string {
	random := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("brief_%d_%s", t.UnixMilli(), random[:6])
}

// FreshnessLabel describes the data date of a brief generated at t
func FreshnessLabel(t time.Time) string {
	return "Data current as of " + t.Format("January 2006")
}

type generated struct {
	Title           string                 `json:"title"`
	MetaDescription string                 `json:"metaDescription"`
	TargetKeywords  []string               `json:"targetKeywords"`
	Outline         []model.OutlineSection `json:"outline"`
	FAQSection      []model.FAQ            `json:"faqSection"`
	CompetitorGaps  []string               `json:"competitorGaps"`
	CitabilityTips  []string               `json:"llmCitabilityTips"`
}

// Synthesize generates, assembles and scores one brief. Recording the brief
// summary is best-effort: failures are logged and the brief is still returned.
func (s *Synthesizer) Synthesize(ctx context.Context, p Params) (*model.ContentBrief, error) {
	prompt, err := BuildPrompt(p)
	if err != nil {
		return nil, err
	}

	text, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generate brief: %w", err)
	}

	var g generated
	if err := llm.DecodeJSON(text, &g); err != nil {
		return nil, fmt.Errorf("generate brief: %w", err)
	}

	b := s.assemble(p, g)

	if s.recorder != nil {
		rec := model.BriefRecord{
			ID:       b.ID,
			Title:    b.Title,
			Topic:    p.Topic,
			GeoScore: b.GeoScore.Overall,
			Location: p.Location,
		}
		if err := s.recorder.StoreContentBrief(ctx, rec); err != nil {
			s.logger.Warn("failed to record brief in graph", "id", b.ID, "error", err)
		}
	}

	return b, nil
}

func (s *Synthesizer) assemble(p Params, g generated) *model.ContentBrief {
	now := s.now()
	outline := normalizeOutline(g.Outline)
	claims := FlattenClaims(outline)
	sources := DeriveSources(claims)

	keywords := g.TargetKeywords
	if len(keywords) == 0 {
		keywords = p.TargetKeywords
	}
	title := strings.TrimSpace(g.Title)
	if title == "" {
		title = fmt.Sprintf("%s in %s", p.Topic, p.Location)
	}

	b := &model.ContentBrief{
		ID: s.newID(now),
		Metadata: model.BriefMetadata{
			Location:      p.Location,
			Topic:         p.Topic,
			ContentType:   p.ContentType,
			GeneratedAt:   now,
			DataFreshness: FreshnessLabel(now),
			SourcesCount:  len(sources),
			SignalsCount:  len(claims),
		},
		Title:           title,
		MetaDescription: g.MetaDescription,
		TargetKeywords:  nonNil(keywords),
		Outline:         outline,
		DataClaims:      claims,
		FAQSection:      nonNilFAQ(g.FAQSection),
		Sources:         sources,
		CompetitorGaps:  nonNil(g.CompetitorGaps),
		CitabilityTips:  nonNil(g.CitabilityTips),
	}
	b.JSONLD = StructuredDataFor(b)
	b.GeoScore = s.scorer.Compute(b)
	return b
}

func normalizeOutline(in []model.OutlineSection) []model.OutlineSection {
	out := make([]model.OutlineSection, 0, len(in))
	for _, sec := range in {
		sec.KeyPoints = nonNil(sec.KeyPoints)
		if sec.DataClaims == nil {
			sec.DataClaims = []model.DataClaim{}
		}
		out = append(out, sec)
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilFAQ(f []model.FAQ) []model.FAQ {
	if f == nil {
		return []model.FAQ{}
	}
	return f
}
