package grid

// Aggregation selects the 1-D series derived from the grid.
type Aggregation string

const (
	AggGlobal  Aggregation = "global"
	AggLatMean Aggregation = "lat_mean"
	AggLonMean Aggregation = "lon_mean"
)

// ParseAggregation maps a request value to an Aggregation. Anything that is
// not lat_mean or lon_mean, including the empty string, selects AggGlobal.
func ParseAggregation(s string) Aggregation {
	switch Aggregation(s) {
	case AggLatMean:
		return AggLatMean
	case AggLonMean:
		return AggLonMean
	default:
		return AggGlobal
	}
}

// Series is the result of an aggregation. Axis and Means are set for the
// axis-mean modes, Histogram for AggGlobal.
type Series struct {
	Type      Aggregation
	Axis      []float64
	Means     []float64
	Histogram Histogram
}

func (g *Grid) Series(agg Aggregation) Series {
	switch agg {
	case AggLatMean:
		return Series{Type: AggLatMean, Axis: g.Lat(), Means: g.LatMean()}
	case AggLonMean:
		return Series{Type: AggLonMean, Axis: g.Lon(), Means: g.LonMean()}
	default:
		return Series{Type: AggGlobal, Histogram: g.Histogram()}
	}
}
