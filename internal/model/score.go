package model

// Dimension names one axis of the citability rubric
type Dimension string

const (
	DimDataBackedClaims Dimension = "dataBackedClaims"
	DimStructuredData   Dimension = "structuredData"
	DimContentStructure Dimension = "contentStructure"
	DimFreshness        Dimension = "freshness"
	DimOriginalInsights Dimension = "originalInsights"
	DimSourceAuthority  Dimension = "sourceAuthority"
)

// Dimensions lists the rubric axes in their fixed order
var Dimensions = []Dimension{
	DimDataBackedClaims,
	DimStructuredData,
	DimContentStructure,
	DimFreshness,
	DimOriginalInsights,
	DimSourceAuthority,
}

// Max returns the cap of a dimension
func (d Dimension) Max() int {
	switch d {
	case DimDataBackedClaims, DimStructuredData, DimContentStructure:
		return 20
	case DimFreshness, DimOriginalInsights:
		return 15
	case DimSourceAuthority:
		return 10
	default:
		return 0
	}
}

// ScoreBreakdown carries the six capped dimension scores
type ScoreBreakdown struct {
	DataBackedClaims int `json:"dataBackedClaims"`
	StructuredData   int `json:"structuredData"`
	ContentStructure int `json:"contentStructure"`
	Freshness        int `json:"freshness"`
	OriginalInsights int `json:"originalInsights"`
	SourceAuthority  int `json:"sourceAuthority"`
}

// Value returns the score of a single dimension
func (b ScoreBreakdown) Value(d Dimension) int {
	switch d {
	case DimDataBackedClaims:
		return b.DataBackedClaims
	case DimStructuredData:
		return b.StructuredData
	case DimContentStructure:
		return b.ContentStructure
	case DimFreshness:
		return b.Freshness
	case DimOriginalInsights:
		return b.OriginalInsights
	case DimSourceAuthority:
		return b.SourceAuthority
	default:
		return 0
	}
}

// Total sums all dimensions
func (b ScoreBreakdown) Total() int {
	total := 0
	for _, d := range Dimensions {
		total += b.Value(d)
	}
	return total
}

// GeoScore is the composite citability score of a brief.
// Overall always equals Breakdown.Total(); values are replaced wholesale.
type GeoScore struct {
	Overall   int            `json:"overall"`
	Breakdown ScoreBreakdown `json:"breakdown"`
}

// NewGeoScore builds a score whose overall is the sum of its breakdown
func NewGeoScore(b ScoreBreakdown) GeoScore {
	return GeoScore{Overall: b.Total(), Breakdown: b}
}
