// Package graph is the knowledge graph of locations, neighborhoods, market
// signals, sources, amenities and generated briefs.
package graph

import (
	"context"
	"errors"
	"fmt"

	"github.com/ppiankov/geoagent/internal/model"
	"github.com/ppiankov/geoagent/internal/util"
)

// Node labels
const (
	LabelLocation     = "Location"
	LabelNeighborhood = "Neighborhood"
	LabelMarketSignal = "MarketSignal"
	LabelSource       = "Source"
	LabelAmenity      = "Amenity"
	LabelContentBrief = "ContentBrief"
)

// Relationship types
const (
	RelHasNeighborhood = "HAS_NEIGHBORHOOD"
	RelHasSignal       = "HAS_SIGNAL"
	RelAffects         = "AFFECTS"
	RelSourcedFrom     = "SOURCED_FROM"
	RelHasAmenity      = "HAS_AMENITY"
	RelGeneratedFor    = "GENERATED_FOR"
)

// TopDomainsLimit bounds the preferred-source list used for dynamic context
const TopDomainsLimit = 10

// ErrInvalidSourceURL is returned when a market signal's source URL has no host
var ErrInvalidSourceURL = errors.New("invalid source URL")

// Store is the graph capability used by the agent tools and the synthesizer.
// Commands merge on identity fields and return the number of records written.
type Store interface {
	EnsureSchema(ctx context.Context) error

	CreateMarketSignal(ctx context.Context, s model.MarketSignal) (int, error)
	CreateAmenity(ctx context.Context, a model.Amenity) (int, error)
	StoreContentBrief(ctx context.Context, b model.BriefRecord) error

	// FullContext returns, per neighborhood of location, its metrics with nested signals and amenities
	FullContext(ctx context.Context, location string) ([]model.NeighborhoodContext, error)
	// MarketSignals returns the signals of location's neighborhoods, newest first
	MarketSignals(ctx context.Context, location string) ([]model.SignalRecord, error)
	TopSourceDomains(ctx context.Context, limit int) ([]model.DomainCount, error)
	// AverageGeoScore returns nil when no scored brief exists
	AverageGeoScore(ctx context.Context) (*model.ScoreAggregate, error)
	View(ctx context.Context) (*model.GraphView, error)

	Close(ctx context.Context) error
}

func sourceDomain(rawURL string) (string, error) {
	d, err := util.Domain(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidSourceURL, rawURL)
	}
	return d, nil
}
