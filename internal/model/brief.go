package model

import (
	"fmt"
	"strings"
	"time"
)

// ContentType is the kind of deliverable a run produces
type ContentType string

const (
	ContentNeighborhoodGuide  ContentType = "neighborhood_guide"
	ContentMarketReport       ContentType = "market_report"
	ContentBuyerGuide         ContentType = "buyer_guide"
	ContentInvestmentAnalysis ContentType = "investment_analysis"
)

// ContentTypes lists every supported content type in declaration order
var ContentTypes = []ContentType{
	ContentNeighborhoodGuide,
	ContentMarketReport,
	ContentBuyerGuide,
	ContentInvestmentAnalysis,
}

// Valid reports whether c is one of the supported content types
func (c ContentType) Valid() bool {
	for _, t := range ContentTypes {
		if c == t {
			return true
		}
	}
	return false
}

// Label returns the content type with underscores replaced by spaces
func (c ContentType) Label() string {
	return strings.ReplaceAll(string(c), "_", " ")
}

// ParseContentType validates a raw content type string
func ParseContentType(s string) (ContentType, error) {
	c := ContentType(strings.TrimSpace(strings.ToLower(s)))
	if !c.Valid() {
		return "", fmt.Errorf("unknown content type %q (supported: neighborhood_guide, market_report, buyer_guide, investment_analysis)", s)
	}
	return c, nil
}

// Confidence qualifies a data claim
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
)

// DataClaim is a single citable statement backed by a source
type DataClaim struct {
	Claim       string     `json:"claim"`
	Value       string     `json:"value"`
	SourceURL   string     `json:"sourceUrl"`
	SourceTitle string     `json:"sourceTitle"`
	Confidence  Confidence `json:"confidence"`
}

// OutlineSection is one H2 section of the brief outline
type OutlineSection struct {
	H2         string      `json:"h2"`
	H3s        []string    `json:"h3s,omitempty"`
	KeyPoints  []string    `json:"keyPoints"`
	DataClaims []DataClaim `json:"dataClaims"`
}

// FAQ is a question/answer pair
type FAQ struct {
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	SourceURL string `json:"sourceUrl,omitempty"`
}

// StructuredData holds the three schema.org fragments embedded in a brief
type StructuredData struct {
	Article        map[string]any `json:"article"`
	FAQPage        map[string]any `json:"faqPage"`
	BreadcrumbList map[string]any `json:"breadcrumbList"`
}

// Source is a cited URL with the claims that used it
type Source struct {
	URL             string   `json:"url"`
	Title           string   `json:"title"`
	Domain          string   `json:"domain"`
	UsedForClaims   []string `json:"usedForClaims"`
	CredibilityNote string   `json:"credibilityNote"`
}

// BriefMetadata describes when and for what a brief was generated
type BriefMetadata struct {
	Location      string      `json:"location"`
	Topic         string      `json:"topic"`
	ContentType   ContentType `json:"contentType"`
	GeneratedAt   time.Time   `json:"generatedAt"`
	DataFreshness string      `json:"dataFreshness"`
	SourcesCount  int         `json:"sourcesCount"`
	SignalsCount  int         `json:"signalsCount"`
}

// ContentBrief is the single deliverable of one run
type ContentBrief struct {
	ID              string           `json:"id"`
	Metadata        BriefMetadata    `json:"metadata"`
	GeoScore        GeoScore         `json:"geoScore"`
	Title           string           `json:"title"`
	MetaDescription string           `json:"metaDescription"`
	TargetKeywords  []string         `json:"targetKeywords"`
	Outline         []OutlineSection `json:"outline"`
	DataClaims      []DataClaim      `json:"dataClaims"`
	FAQSection      []FAQ            `json:"faqSection"`
	JSONLD          StructuredData   `json:"jsonLd"`
	Sources         []Source         `json:"sources"`
	CompetitorGaps  []string         `json:"competitorGaps"`
	CitabilityTips  []string         `json:"llmCitabilityTips"`
}

// RunRequest is the input of one agent run
type RunRequest struct {
	Location       string      `json:"location"`
	Topic          string      `json:"topic"`
	ContentType    ContentType `json:"contentType"`
	TargetKeywords []string    `json:"targetKeywords,omitempty"`
}

// Validate reports the missing or invalid fields of r
func (r RunRequest) Validate() error {
	var missing []string
	if strings.TrimSpace(r.Location) == "" {
		missing = append(missing, "location")
	}
	if strings.TrimSpace(r.Topic) == "" {
		missing = append(missing, "topic")
	}
	if r.ContentType == "" {
		missing = append(missing, "contentType")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}
	if !r.ContentType.Valid() {
		return fmt.Errorf("unknown content type %q", r.ContentType)
	}
	return nil
}
