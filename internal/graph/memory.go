package graph

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/geoagent/internal/model"
)

// MemoryStore is an in-process graph with the same semantics as the Neo4j
// store. It is used when no graph URI is configured and in tests.
type MemoryStore struct {
	mu  sync.RWMutex
	now func() time.Time

	locations     map[string]*memLocation
	neighborhoods map[string]*memNeighborhood
	sources       map[string]*memSource
	amenities     map[string]*memAmenity
	signals       []*memSignal
	briefs        []*memBrief
	order         []string // node ids in creation order
	labels        map[string]string
	names         map[string]string
	edges         []model.GraphEdge
}

type memLocation struct {
	id, name string
}

type memNeighborhood struct {
	id, name  string
	locations map[string]bool
	amenities []string // amenity keys
	metrics   [3]*float64
}

type memSource struct {
	id, url, title, domain string
}

type memAmenity struct {
	id, name, kind string
	rating         *float64
}

type memSignal struct {
	id           string
	location     string
	neighborhood string
	sourceURL    string
	rec          model.SignalRecord
	created      time.Time
	seq          int
}

type memBrief struct {
	id       string
	geoScore int
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty in-process graph
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now:           time.Now,
		locations:     make(map[string]*memLocation),
		neighborhoods: make(map[string]*memNeighborhood),
		sources:       make(map[string]*memSource),
		amenities:     make(map[string]*memAmenity),
		labels:        make(map[string]string),
		names:         make(map[string]string),
	}
}

func (m *MemoryStore) EnsureSchema(context.Context) error { return nil }

func (m *MemoryStore) Close(context.Context) error { return nil }

func (m *MemoryStore) addNode(label, name string) string {
	id := uuid.NewString()
	m.order = append(m.order, id)
	m.labels[id] = label
	m.names[id] = name
	return id
}

func (m *MemoryStore) link(from, to, rel string) {
	m.edges = append(m.edges, model.GraphEdge{Source: from, Target: to, Type: rel})
}

func (m *MemoryStore) location(name string) *memLocation {
	if l, ok := m.locations[name]; ok {
		return l
	}
	l := &memLocation{id: m.addNode(LabelLocation, name), name: name}
	m.locations[name] = l
	return l
}

func (m *MemoryStore) neighborhood(name string, loc *memLocation) *memNeighborhood {
	n, ok := m.neighborhoods[name]
	if !ok {
		n = &memNeighborhood{id: m.addNode(LabelNeighborhood, name), name: name, locations: map[string]bool{}}
		m.neighborhoods[name] = n
	}
	if !n.locations[loc.name] {
		n.locations[loc.name] = true
		m.link(n.id, loc.id, RelHasNeighborhood)
	}
	return n
}

// CreateMarketSignal stores one signal
func (m *MemoryStore) CreateMarketSignal(_ context.Context, sig model.MarketSignal) (int, error) {
	domain, err := sourceDomain(sig.SourceURL)
	if err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	loc := m.location(sig.Location)
	var hood *memNeighborhood
	if sig.Neighborhood != "" {
		hood = m.neighborhood(sig.Neighborhood, loc)
	}
	src, ok := m.sources[sig.SourceURL]
	if !ok {
		src = &memSource{id: m.addNode(LabelSource, sig.SourceTitle), url: sig.SourceURL, title: sig.SourceTitle, domain: domain}
		if src.title == "" {
			m.names[src.id] = src.id
		}
		m.sources[sig.SourceURL] = src
	}

	now := m.now()
	s := &memSignal{
		id:           m.addNode(LabelMarketSignal, sig.Headline),
		location:     sig.Location,
		neighborhood: sig.Neighborhood,
		sourceURL:    sig.SourceURL,
		created:      now,
		seq:          len(m.signals),
		rec: model.SignalRecord{
			Type:      string(sig.SignalType),
			Headline:  sig.Headline,
			Summary:   sig.Summary,
			Value:     sig.Value,
			Sentiment: sig.Sentiment,
			Date:      now.Format("2006-01-02"),
		},
	}
	m.signals = append(m.signals, s)
	if hood != nil {
		m.link(hood.id, s.id, RelHasSignal)
	} else {
		m.link(s.id, loc.id, RelAffects)
	}
	m.link(s.id, src.id, RelSourcedFrom)
	return 1, nil
}

// CreateAmenity merges an amenity by (name, type)
func (m *MemoryStore) CreateAmenity(_ context.Context, a model.Amenity) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	hood := m.neighborhood(a.Neighborhood, m.location(a.Location))
	key := a.AmenityName + "\x00" + a.AmenityType
	am, ok := m.amenities[key]
	if !ok {
		am = &memAmenity{id: m.addNode(LabelAmenity, a.AmenityName), name: a.AmenityName, kind: a.AmenityType}
		m.amenities[key] = am
	}
	if a.Rating != nil {
		r := *a.Rating
		am.rating = &r
	}
	for _, k := range hood.amenities {
		if k == key {
			return 1, nil
		}
	}
	hood.amenities = append(hood.amenities, key)
	m.link(hood.id, am.id, RelHasAmenity)
	return 1, nil
}

// StoreContentBrief records a brief against its location
func (m *MemoryStore) StoreContentBrief(_ context.Context, b model.BriefRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	loc := m.location(b.Location)
	name := b.Title
	if name == "" {
		name = b.ID
	}
	id := m.addNode(LabelContentBrief, name)
	m.briefs = append(m.briefs, &memBrief{id: b.ID, geoScore: b.GeoScore})
	m.link(id, loc.id, RelGeneratedFor)
	return nil
}

// SetNeighborhoodMetrics sets the numeric metrics reported by FullContext
func (m *MemoryStore) SetNeighborhoodMetrics(name string, medianPrice, avgDaysOnMarket, priceChangeYoY *float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.neighborhoods[name]
	if !ok {
		return fmt.Errorf("neighborhood %q not found", name)
	}
	n.metrics = [3]*float64{medianPrice, avgDaysOnMarket, priceChangeYoY}
	return nil
}

func (m *MemoryStore) hoodNames(location string) []*memNeighborhood {
	var out []*memNeighborhood
	for _, n := range m.neighborhoods {
		if n.locations[location] {
			out = append(out, n)
		}
	}
	return out
}

// FullContext returns per-neighborhood context ordered by median price descending
func (m *MemoryStore) FullContext(_ context.Context, location string) ([]model.NeighborhoodContext, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	hoods := m.hoodNames(location)
	sort.SliceStable(hoods, func(i, j int) bool {
		pi, pj := hoods[i].metrics[0], hoods[j].metrics[0]
		switch {
		case pi == nil && pj == nil:
			return hoods[i].name < hoods[j].name
		case pi == nil:
			return false
		case pj == nil:
			return true
		}
		return *pi > *pj
	})

	out := make([]model.NeighborhoodContext, 0, len(hoods))
	for _, n := range hoods {
		nc := model.NeighborhoodContext{
			Neighborhood:    n.name,
			MedianPrice:     n.metrics[0],
			AvgDaysOnMarket: n.metrics[1],
			PriceChangeYoY:  n.metrics[2],
			Signals:         []model.SignalRecord{},
			Amenities:       []model.AmenityRecord{},
		}
		for _, s := range m.signals {
			if s.neighborhood != n.name {
				continue
			}
			rec := s.rec
			rec.SourceURL = s.sourceURL
			rec.SourceTitle = m.sources[s.sourceURL].title
			nc.Signals = append(nc.Signals, rec)
		}
		for _, key := range n.amenities {
			a := m.amenities[key]
			nc.Amenities = append(nc.Amenities, model.AmenityRecord{Name: a.name, Type: a.kind, Rating: a.rating})
		}
		out = append(out, nc)
	}
	return out, nil
}

// MarketSignals returns the signals attached to the location's neighborhoods, newest first
func (m *MemoryStore) MarketSignals(_ context.Context, location string) ([]model.SignalRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var picked []*memSignal
	for _, s := range m.signals {
		if s.neighborhood == "" {
			continue
		}
		if n, ok := m.neighborhoods[s.neighborhood]; ok && n.locations[location] {
			picked = append(picked, s)
		}
	}
	sort.SliceStable(picked, func(i, j int) bool {
		if !picked[i].created.Equal(picked[j].created) {
			return picked[i].created.After(picked[j].created)
		}
		return picked[i].seq > picked[j].seq
	})

	out := make([]model.SignalRecord, 0, len(picked))
	for _, s := range picked {
		rec := s.rec
		rec.SourceURL = s.sourceURL
		rec.SourceTitle = m.sources[s.sourceURL].title
		rec.Neighborhood = s.neighborhood
		out = append(out, rec)
	}
	return out, nil
}

// TopSourceDomains ranks domains by signal count
func (m *MemoryStore) TopSourceDomains(_ context.Context, limit int) ([]model.DomainCount, error) {
	if limit <= 0 {
		limit = TopDomainsLimit
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	counts := map[string]int{}
	for _, s := range m.signals {
		counts[m.sources[s.sourceURL].domain]++
	}
	out := make([]model.DomainCount, 0, len(counts))
	for d, c := range counts {
		out = append(out, model.DomainCount{Domain: d, SignalCount: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SignalCount != out[j].SignalCount {
			return out[i].SignalCount > out[j].SignalCount
		}
		return out[i].Domain < out[j].Domain
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// AverageGeoScore returns nil when no brief has been stored
func (m *MemoryStore) AverageGeoScore(context.Context) (*model.ScoreAggregate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.briefs) == 0 {
		return nil, nil
	}
	total := 0
	for _, b := range m.briefs {
		total += b.geoScore
	}
	avg := math.Round(float64(total) / float64(len(m.briefs)))
	return &model.ScoreAggregate{AvgScore: int(avg), BriefCount: len(m.briefs)}, nil
}

// View returns all nodes in creation order and all edges
func (m *MemoryStore) View(context.Context) (*model.GraphView, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	view := &model.GraphView{
		Nodes: make([]model.GraphNode, 0, len(m.order)),
		Edges: make([]model.GraphEdge, 0, len(m.edges)),
	}
	for _, id := range m.order {
		name := m.names[id]
		if strings.TrimSpace(name) == "" {
			name = id
		}
		view.Nodes = append(view.Nodes, model.GraphNode{ID: id, Label: m.labels[id], Name: name})
	}
	view.Edges = append(view.Edges, m.edges...)
	return view, nil
}
