package model

// SignalKind classifies a market signal
type SignalKind string

const (
	SignalPriceTrend  SignalKind = "price_trend"
	SignalInventory   SignalKind = "inventory"
	SignalDemand      SignalKind = "demand"
	SignalRegulation  SignalKind = "regulation"
	SignalDevelopment SignalKind = "development"
)

// SignalKinds lists the accepted signal kinds
var SignalKinds = []SignalKind{SignalPriceTrend, SignalInventory, SignalDemand, SignalRegulation, SignalDevelopment}

// Sentiments lists the accepted signal sentiments
var Sentiments = []string{"positive", "negative", "neutral"}

// AmenityKinds lists the accepted amenity types
var AmenityKinds = []string{"school", "park", "transit", "shopping", "hospital", "restaurant"}

// MarketSignal is the command payload for storing one discovered fact
type MarketSignal struct {
	Location     string     `json:"location"`
	Neighborhood string     `json:"neighborhood,omitempty"`
	SignalType   SignalKind `json:"signalType"`
	Headline     string     `json:"headline"`
	Summary      string     `json:"summary"`
	Value        string     `json:"value,omitempty"`
	Sentiment    string     `json:"sentiment"`
	SourceURL    string     `json:"sourceUrl"`
	SourceTitle  string     `json:"sourceTitle"`
}

// Amenity is the command payload for storing one neighborhood amenity
type Amenity struct {
	Neighborhood string   `json:"neighborhood"`
	Location     string   `json:"location"`
	AmenityName  string   `json:"amenityName"`
	AmenityType  string   `json:"amenityType"`
	Rating       *float64 `json:"rating,omitempty"`
}

// SignalRecord is a stored market signal as returned by graph queries
type SignalRecord struct {
	Type         string `json:"type"`
	Headline     string `json:"headline"`
	Summary      string `json:"summary"`
	Value        string `json:"value,omitempty"`
	Sentiment    string `json:"sentiment"`
	Date         string `json:"date"`
	SourceURL    string `json:"sourceUrl,omitempty"`
	SourceTitle  string `json:"sourceTitle,omitempty"`
	Neighborhood string `json:"neighborhood,omitempty"`
}

// AmenityRecord is a stored amenity as returned by graph queries
type AmenityRecord struct {
	Name   string   `json:"name"`
	Type   string   `json:"type"`
	Rating *float64 `json:"rating,omitempty"`
}

// NeighborhoodContext aggregates everything known about one neighborhood
type NeighborhoodContext struct {
	Neighborhood    string          `json:"neighborhood"`
	MedianPrice     *float64        `json:"medianPrice"`
	AvgDaysOnMarket *float64        `json:"avgDaysOnMarket"`
	PriceChangeYoY  *float64        `json:"priceChangeYoY"`
	Signals         []SignalRecord  `json:"signals"`
	Amenities       []AmenityRecord `json:"amenities"`
}

// DomainCount is a source domain with the number of signals it produced
type DomainCount struct {
	Domain      string `json:"domain"`
	SignalCount int    `json:"signalCount"`
}

// ScoreAggregate summarizes the scores of prior briefs
type ScoreAggregate struct {
	AvgScore   int `json:"avgScore"`
	BriefCount int `json:"briefCount"`
}

// BriefRecord is the summary of a brief persisted to the graph
type BriefRecord struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Topic    string `json:"topic"`
	GeoScore int    `json:"geoScore"`
	Location string `json:"location"`
}

// GraphNode and GraphEdge form the visualization projection of the graph
type GraphNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Name  string `json:"name"`
}

type GraphEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Type   string `json:"type"`
}

type GraphView struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}
