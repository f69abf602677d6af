// Package score computes the six-dimension citability score of a brief.
package score

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ppiankov/geoagent/internal/model"
)

var yearPattern = regexp.MustCompile(`20\d{2}`)

// Scorer calculates GeoScores. The zero value is not usable; use NewScorer.
type Scorer struct {
	authority *AuthorityClassifier
	now       func() time.Time
}

// NewScorer creates a scorer; a nil classifier uses the built-in domain lists
func NewScorer(authority *AuthorityClassifier) *Scorer {
	if authority == nil {
		authority = NewAuthorityClassifier(nil)
	}
	return &Scorer{authority: authority, now: time.Now}
}

// WithClock returns a copy of s that reads the current time from now
func (s *Scorer) WithClock(now func() time.Time) *Scorer {
	c := *s
	c.now = now
	return &c
}

// Compute scores a finished brief. It reads the brief and never modifies it.
func (s *Scorer) Compute(b *model.ContentBrief) model.GeoScore {
	return model.NewGeoScore(model.ScoreBreakdown{
		DataBackedClaims: s.dataBackedClaims(b),
		StructuredData:   s.structuredData(b),
		ContentStructure: s.contentStructure(b),
		Freshness:        s.freshness(b),
		OriginalInsights: s.originalInsights(b),
		SourceAuthority:  s.sourceAuthority(b),
	})
}

// 2 points per claim
func (s *Scorer) dataBackedClaims(b *model.ContentBrief) int {
	return min(model.DimDataBackedClaims.Max(), 2*len(b.DataClaims))
}

// 5 per non-empty fragment, +5 when all three are present
func (s *Scorer) structuredData(b *model.ContentBrief) int {
	score := 0
	for _, frag := range []map[string]any{b.JSONLD.Article, b.JSONLD.FAQPage, b.JSONLD.BreadcrumbList} {
		if len(frag) > 0 {
			score += 5
		}
	}
	if score == 15 {
		score += 5
	}
	return min(model.DimStructuredData.Max(), score)
}

func (s *Scorer) contentStructure(b *model.ContentBrief) int {
	score := 0

	switch n := len(b.FAQSection); {
	case n >= 3:
		score += 4
	case n >= 1:
		score += 2
	}

	switch n := len(b.Outline); {
	case n >= 3:
		score += 4
	case n >= 1:
		score += 2
	}

	withData := 0
	hasH3 := false
	for _, sec := range b.Outline {
		if len(sec.H3s) > 0 {
			hasH3 = true
		}
		if len(sec.DataClaims) > 0 {
			withData++
		}
	}
	if hasH3 {
		score += 4
	}
	switch {
	case withData >= 2:
		score += 4
	case withData == 1:
		score += 2
	}

	switch n := utf8.RuneCountInString(b.MetaDescription); {
	case n >= 120 && n <= 160:
		score += 4
	case n >= 80 && n <= 200:
		score += 2
	}

	return min(model.DimContentStructure.Max(), score)
}

func (s *Scorer) freshness(b *model.ContentBrief) int {
	now := s.now()

	latest := 0
	for _, c := range b.DataClaims {
		for _, m := range yearPattern.FindAllString(c.Claim, -1) {
			if y, err := strconv.Atoi(m); err == nil && y > latest {
				latest = y
			}
		}
	}

	if latest == 0 {
		markers := []string{
			strconv.Itoa(now.Year()),
			"current",
			strings.ToLower(now.Month().String()),
		}
		for _, c := range b.DataClaims {
			text := strings.ToLower(c.Claim)
			for _, m := range markers {
				if strings.Contains(text, m) {
					return 10
				}
			}
		}
		return 3
	}

	// a bare year is read as January 1 of that year
	date := time.Date(latest, time.January, 1, 0, 0, 0, 0, time.UTC)
	days := now.Sub(date).Hours() / 24
	switch {
	case days <= 7:
		return 15
	case days <= 30:
		return 10
	case days <= 90:
		return 5
	default:
		return 0
	}
}

func (s *Scorer) originalInsights(b *model.ContentBrief) int {
	score := 0
	if len(b.CompetitorGaps) > 0 {
		score += 5
	}

	urls := map[string]bool{}
	for _, c := range b.DataClaims {
		if c.SourceURL != "" {
			urls[c.SourceURL] = true
		}
	}
	switch n := len(urls); {
	case n >= 3:
		score += 5
	case n == 2:
		score += 3
	}

	for _, sec := range b.Outline {
		h2 := strings.ToLower(sec.H2)
		if strings.Contains(h2, "neighborhood") || strings.Contains(h2, "area") || strings.Contains(h2, "comparison") {
			score += 5
			break
		}
	}

	return min(model.DimOriginalInsights.Max(), score)
}

func (s *Scorer) sourceAuthority(b *model.ContentBrief) int {
	if len(b.Sources) == 0 {
		return 0
	}
	total := 0
	for _, src := range b.Sources {
		total += s.authority.Weight(src.Domain)
	}
	avg := float64(total) / float64(len(b.Sources))
	return min(model.DimSourceAuthority.Max(), int(math.Round(avg/3*10)))
}

// WeakestDimension returns the dimension with the lowest share of its cap.
// Ties go to the dimension listed first in model.Dimensions.
func WeakestDimension(g model.GeoScore) model.Dimension {
	weakest := model.Dimensions[0]
	lowest := ratio(g.Breakdown, weakest)
	for _, d := range model.Dimensions[1:] {
		if r := ratio(g.Breakdown, d); r < lowest {
			weakest, lowest = d, r
		}
	}
	return weakest
}

func ratio(b model.ScoreBreakdown, d model.Dimension) float64 {
	return float64(b.Value(d)) / float64(d.Max())
}
