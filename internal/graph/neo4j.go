package graph

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/ppiankov/geoagent/internal/model"
)

// AccessMode controls whether a session is opened for read or write operations
type AccessMode string

const (
	AccessModeWrite AccessMode = "write"
	AccessModeRead  AccessMode = "read"
)

// SessionConfig mirrors the subset of Neo4j session configuration the store needs
type SessionConfig struct {
	AccessMode   AccessMode
	DatabaseName string
}

// neo4jDriver abstracts the Neo4j driver capabilities used by the store so
// tests can provide lightweight fakes.
type neo4jDriver interface {
	NewSession(ctx context.Context, config SessionConfig) (neo4jSession, error)
	Close(ctx context.Context) error
}

type neo4jSession interface {
	Run(ctx context.Context, query string, params map[string]any) (neo4jResult, error)
	Close(ctx context.Context) error
}

type neo4jResult interface {
	Next(ctx context.Context) bool
	Record() neo4jRecord
	Err() error
}

type neo4jRecord interface {
	Get(key string) (any, bool)
}

// Neo4jStore persists the knowledge graph in Neo4j
type Neo4jStore struct {
	driver   neo4jDriver
	database string
}

var _ Store = (*Neo4jStore)(nil)

// NewNeo4jStore constructs a store over driver
func NewNeo4jStore(driver neo4jDriver, database string) (*Neo4jStore, error) {
	if driver == nil {
		return nil, errors.New("neo4j driver is nil")
	}
	return &Neo4jStore{driver: driver, database: database}, nil
}

var schemaQueries = []string{
	"CREATE CONSTRAINT location_name IF NOT EXISTS FOR (l:Location) REQUIRE l.name IS UNIQUE",
	"CREATE CONSTRAINT neighborhood_name IF NOT EXISTS FOR (n:Neighborhood) REQUIRE n.name IS UNIQUE",
	"CREATE CONSTRAINT source_url IF NOT EXISTS FOR (s:Source) REQUIRE s.url IS UNIQUE",
	"CREATE CONSTRAINT market_signal_id IF NOT EXISTS FOR (ms:MarketSignal) REQUIRE ms.id IS UNIQUE",
	"CREATE CONSTRAINT content_brief_id IF NOT EXISTS FOR (cb:ContentBrief) REQUIRE cb.id IS UNIQUE",
	"CREATE INDEX amenity_name_type IF NOT EXISTS FOR (a:Amenity) ON (a.name, a.type)",
}

// EnsureSchema creates the uniqueness constraints and indexes
func (s *Neo4jStore) EnsureSchema(ctx context.Context) error {
	for _, q := range schemaQueries {
		if _, err := s.write(ctx, q, nil); err != nil {
			return fmt.Errorf("neo4j schema: %w", err)
		}
	}
	return nil
}

const mergeLocation = `
MERGE (l:Location {name: $location})
ON CREATE SET l.id = randomUUID(), l.createdAt = datetime()
`

const mergeNeighborhood = `
MERGE (n:Neighborhood {name: $neighborhood})
ON CREATE SET n.id = randomUUID()
MERGE (n)-[:HAS_NEIGHBORHOOD]->(l)
`

const createSignalTail = `
MERGE (s:Source {url: $sourceUrl})
ON CREATE SET s.id = randomUUID(), s.title = $sourceTitle,
              s.domain = $domain, s.createdAt = datetime()
CREATE (ms:MarketSignal {
  id: randomUUID(),
  type: $signalType,
  headline: $headline,
  summary: $summary,
  value: $value,
  sentiment: $sentiment,
  date: date(),
  createdAt: datetime()
})
`

// CreateMarketSignal stores one signal, creating its location, neighborhood and source when absent
func (s *Neo4jStore) CreateMarketSignal(ctx context.Context, sig model.MarketSignal) (int, error) {
	domain, err := sourceDomain(sig.SourceURL)
	if err != nil {
		return 0, err
	}

	query := mergeLocation
	if sig.Neighborhood != "" {
		query += mergeNeighborhood
	}
	query += createSignalTail
	if sig.Neighborhood != "" {
		query += "CREATE (n)-[:HAS_SIGNAL]->(ms)\n"
	} else {
		query += "CREATE (l)<-[:AFFECTS]-(ms)\n"
	}
	query += "CREATE (ms)-[:SOURCED_FROM]->(s)\nRETURN ms"

	var value any
	if sig.Value != "" {
		value = sig.Value
	}

	return s.write(ctx, query, map[string]any{
		"location":     sig.Location,
		"neighborhood": sig.Neighborhood,
		"sourceUrl":    sig.SourceURL,
		"sourceTitle":  sig.SourceTitle,
		"domain":       domain,
		"signalType":   string(sig.SignalType),
		"headline":     sig.Headline,
		"summary":      sig.Summary,
		"value":        value,
		"sentiment":    sig.Sentiment,
	})
}

// CreateAmenity merges an amenity by (name, type) and links it to its neighborhood
func (s *Neo4jStore) CreateAmenity(ctx context.Context, a model.Amenity) (int, error) {
	query := mergeLocation + mergeNeighborhood + `
MERGE (a:Amenity {name: $amenityName, type: $amenityType})
ON CREATE SET a.id = randomUUID()
`
	params := map[string]any{
		"location":     a.Location,
		"neighborhood": a.Neighborhood,
		"amenityName":  a.AmenityName,
		"amenityType":  a.AmenityType,
	}
	if a.Rating != nil {
		query += "SET a.rating = $rating\n"
		params["rating"] = *a.Rating
	}
	query += "MERGE (n)-[:HAS_AMENITY]->(a)\nRETURN a"

	return s.write(ctx, query, params)
}

// StoreContentBrief records a finished brief against its location
func (s *Neo4jStore) StoreContentBrief(ctx context.Context, b model.BriefRecord) error {
	query := mergeLocation + `
CREATE (cb:ContentBrief {
  id: $id,
  title: $title,
  topic: $topic,
  geoScore: $geoScore,
  status: 'final',
  createdAt: datetime()
})
CREATE (cb)-[:GENERATED_FOR]->(l)
RETURN cb`
	_, err := s.write(ctx, query, map[string]any{
		"id":       b.ID,
		"title":    b.Title,
		"topic":    b.Topic,
		"geoScore": int64(b.GeoScore),
		"location": b.Location,
	})
	return err
}

const fullContextQuery = `
MATCH (l:Location {name: $location})<-[:HAS_NEIGHBORHOOD]-(n:Neighborhood)
OPTIONAL MATCH (n)-[:HAS_SIGNAL]->(ms:MarketSignal)
OPTIONAL MATCH (ms)-[:SOURCED_FROM]->(s:Source)
OPTIONAL MATCH (n)-[:HAS_AMENITY]->(a:Amenity)
RETURN n.name AS neighborhood,
       n.medianPrice AS medianPrice,
       n.avgDaysOnMarket AS avgDaysOnMarket,
       n.priceChangeYoY AS priceChangeYoY,
       collect(DISTINCT {
         type: ms.type, headline: ms.headline, summary: ms.summary,
         value: ms.value, sentiment: ms.sentiment, date: toString(ms.date),
         sourceUrl: s.url, sourceTitle: s.title
       }) AS signals,
       collect(DISTINCT {name: a.name, type: a.type, rating: a.rating}) AS amenities
ORDER BY n.medianPrice DESC`

// FullContext returns the aggregated context of every neighborhood under location
func (s *Neo4jStore) FullContext(ctx context.Context, location string) ([]model.NeighborhoodContext, error) {
	out := []model.NeighborhoodContext{}
	err := s.read(ctx, fullContextQuery, map[string]any{"location": location}, func(rec neo4jRecord) {
		nc := model.NeighborhoodContext{
			Neighborhood:    getString(rec, "neighborhood"),
			MedianPrice:     getFloatPtr(rec, "medianPrice"),
			AvgDaysOnMarket: getFloatPtr(rec, "avgDaysOnMarket"),
			PriceChangeYoY:  getFloatPtr(rec, "priceChangeYoY"),
			Signals:         []model.SignalRecord{},
			Amenities:       []model.AmenityRecord{},
		}
		for _, m := range getMaps(rec, "signals") {
			if m["headline"] == nil {
				continue
			}
			nc.Signals = append(nc.Signals, signalFromMap(m))
		}
		for _, m := range getMaps(rec, "amenities") {
			if m["name"] == nil {
				continue
			}
			nc.Amenities = append(nc.Amenities, model.AmenityRecord{
				Name:   asString(m["name"]),
				Type:   asString(m["type"]),
				Rating: asFloatPtr(m["rating"]),
			})
		}
		out = append(out, nc)
	})
	if err != nil {
		return nil, fmt.Errorf("neo4j full context: %w", err)
	}
	return out, nil
}

const marketSignalsQuery = `
MATCH (l:Location {name: $location})<-[:HAS_NEIGHBORHOOD]-(n:Neighborhood)-[:HAS_SIGNAL]->(ms:MarketSignal)
OPTIONAL MATCH (ms)-[:SOURCED_FROM]->(s:Source)
RETURN ms.headline AS headline, ms.summary AS summary, ms.type AS type,
       ms.value AS value, ms.sentiment AS sentiment,
       toString(ms.date) AS date, s.url AS sourceUrl, s.title AS sourceTitle,
       n.name AS neighborhood
ORDER BY ms.createdAt DESC`

// MarketSignals returns a flat list of the location's signals, most recent first
func (s *Neo4jStore) MarketSignals(ctx context.Context, location string) ([]model.SignalRecord, error) {
	out := []model.SignalRecord{}
	err := s.read(ctx, marketSignalsQuery, map[string]any{"location": location}, func(rec neo4jRecord) {
		out = append(out, model.SignalRecord{
			Type:         getString(rec, "type"),
			Headline:     getString(rec, "headline"),
			Summary:      getString(rec, "summary"),
			Value:        getString(rec, "value"),
			Sentiment:    getString(rec, "sentiment"),
			Date:         getString(rec, "date"),
			SourceURL:    getString(rec, "sourceUrl"),
			SourceTitle:  getString(rec, "sourceTitle"),
			Neighborhood: getString(rec, "neighborhood"),
		})
	})
	if err != nil {
		return nil, fmt.Errorf("neo4j market signals: %w", err)
	}
	return out, nil
}

const topDomainsQuery = `
MATCH (s:Source)<-[:SOURCED_FROM]-(ms:MarketSignal)
RETURN s.domain AS domain, count(ms) AS signalCount
ORDER BY signalCount DESC, domain ASC LIMIT $limit`

// TopSourceDomains returns the domains that produced the most signals
func (s *Neo4jStore) TopSourceDomains(ctx context.Context, limit int) ([]model.DomainCount, error) {
	if limit <= 0 {
		limit = TopDomainsLimit
	}
	out := []model.DomainCount{}
	err := s.read(ctx, topDomainsQuery, map[string]any{"limit": int64(limit)}, func(rec neo4jRecord) {
		out = append(out, model.DomainCount{
			Domain:      getString(rec, "domain"),
			SignalCount: getInt(rec, "signalCount"),
		})
	})
	if err != nil {
		return nil, fmt.Errorf("neo4j top domains: %w", err)
	}
	return out, nil
}

const averageScoreQuery = `
MATCH (cb:ContentBrief)
WHERE cb.geoScore IS NOT NULL
RETURN avg(cb.geoScore) AS avgScore, count(cb) AS briefCount`

// AverageGeoScore returns the rounded mean score of stored briefs
func (s *Neo4jStore) AverageGeoScore(ctx context.Context) (*model.ScoreAggregate, error) {
	var agg *model.ScoreAggregate
	err := s.read(ctx, averageScoreQuery, nil, func(rec neo4jRecord) {
		count := getInt(rec, "briefCount")
		avg := getFloatPtr(rec, "avgScore")
		if count == 0 || avg == nil {
			return
		}
		agg = &model.ScoreAggregate{AvgScore: int(math.Round(*avg)), BriefCount: count}
	})
	if err != nil {
		return nil, fmt.Errorf("neo4j average score: %w", err)
	}
	return agg, nil
}

const viewQuery = `
MATCH (n)
WHERE n:Location OR n:Neighborhood OR n:MarketSignal OR n:Source OR n:Amenity OR n:ContentBrief
OPTIONAL MATCH (n)-[r]->(m)
WITH collect(DISTINCT {
  id: elementId(n),
  label: labels(n)[0],
  name: COALESCE(n.name, n.headline, n.title, n.id)
}) AS fromNodes,
collect(DISTINCT {
  id: elementId(m),
  label: labels(m)[0],
  name: COALESCE(m.name, m.headline, m.title, m.id)
}) AS toNodes,
collect({source: elementId(n), target: elementId(m), type: type(r)}) AS rels
RETURN fromNodes + toNodes AS nodes, rels AS edges`

// View returns every node and relationship for visualization
func (s *Neo4jStore) View(ctx context.Context) (*model.GraphView, error) {
	view := &model.GraphView{Nodes: []model.GraphNode{}, Edges: []model.GraphEdge{}}
	err := s.read(ctx, viewQuery, nil, func(rec neo4jRecord) {
		seen := map[string]bool{}
		for _, m := range getMaps(rec, "nodes") {
			id, label := asString(m["id"]), asString(m["label"])
			if id == "" || label == "" || seen[id] {
				continue
			}
			seen[id] = true
			view.Nodes = append(view.Nodes, model.GraphNode{ID: id, Label: label, Name: asString(m["name"])})
		}
		for _, m := range getMaps(rec, "edges") {
			e := model.GraphEdge{Source: asString(m["source"]), Target: asString(m["target"]), Type: asString(m["type"])}
			if e.Source == "" || e.Target == "" || e.Type == "" {
				continue
			}
			view.Edges = append(view.Edges, e)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("neo4j graph view: %w", err)
	}
	return view, nil
}

// Close closes the driver
func (s *Neo4jStore) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

func (s *Neo4jStore) write(ctx context.Context, query string, params map[string]any) (int, error) {
	count := 0
	err := s.run(ctx, AccessModeWrite, query, params, func(neo4jRecord) { count++ })
	return count, err
}

func (s *Neo4jStore) read(ctx context.Context, query string, params map[string]any, fn func(neo4jRecord)) error {
	return s.run(ctx, AccessModeRead, query, params, fn)
}

func (s *Neo4jStore) run(ctx context.Context, mode AccessMode, query string, params map[string]any, fn func(neo4jRecord)) error {
	session, err := s.driver.NewSession(ctx, SessionConfig{AccessMode: mode, DatabaseName: s.database})
	if err != nil {
		return fmt.Errorf("new session: %w", err)
	}
	defer func() { _ = session.Close(ctx) }()

	if params == nil {
		params = map[string]any{}
	}
	res, err := session.Run(ctx, query, params)
	if err != nil {
		return err
	}
	for res.Next(ctx) {
		if rec := res.Record(); rec != nil {
			fn(rec)
		}
	}
	return res.Err()
}

func signalFromMap(m map[string]any) model.SignalRecord {
	return model.SignalRecord{
		Type:        asString(m["type"]),
		Headline:    asString(m["headline"]),
		Summary:     asString(m["summary"]),
		Value:       asString(m["value"]),
		Sentiment:   asString(m["sentiment"]),
		Date:        asString(m["date"]),
		SourceURL:   asString(m["sourceUrl"]),
		SourceTitle: asString(m["sourceTitle"]),
	}
}

func getString(rec neo4jRecord, key string) string {
	v, _ := rec.Get(key)
	return asString(v)
}

func getInt(rec neo4jRecord, key string) int {
	v, _ := rec.Get(key)
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case float64:
		return int(n)
	}
	return 0
}

func getFloatPtr(rec neo4jRecord, key string) *float64 {
	v, _ := rec.Get(key)
	return asFloatPtr(v)
}

func getMaps(rec neo4jRecord, key string) []map[string]any {
	v, _ := rec.Get(key)
	list, _ := v.([]any)
	out := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	default:
		return fmt.Sprint(s)
	}
}

func asFloatPtr(v any) *float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case int64:
		f = float64(n)
	case int:
		f = float64(n)
	default:
		return nil
	}
	return &f
}
