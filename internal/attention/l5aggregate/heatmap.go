package l5aggregate

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/attention.report/internal/attention/l4scoring"
)

// HeatmapBin is the mean engagement over [Start, End).
type HeatmapBin struct {
	Start         float64 `json:"start"`
	End           float64 `json:"end"`
	AvgEngagement float64 `json:"avg_engagement"`
}

// MaxHeatmapBins bounds the number of bins one sequence may produce.
const MaxHeatmapBins = 1 << 22

// HeatmapBinCount returns floor(last/binSec)+1, or false when that count is
// not finite or exceeds MaxHeatmapBins.
func HeatmapBinCount(last, binSec float64) (int, bool) {
	if !(binSec > 0) || math.IsInf(binSec, 0) {
		return 0, false
	}
	n := math.Floor(last/binSec) + 1
	if math.IsNaN(n) || n < 1 || n > MaxHeatmapBins {
		return 0, false
	}
	return int(n), true
}

// Heatmap buckets engagement into bins of width binSec covering
// [0, last timestamp]. There are floor(T/binSec)+1 bins; a bin with no
// frames reports zero. Empty input, a non-positive width, or a span needing
// more than MaxHeatmapBins bins yields no bins.
func Heatmap(frames []l4scoring.ScoredFrame, binSec float64) []HeatmapBin {
	if len(frames) == 0 {
		return []HeatmapBin{}
	}
	numBins, ok := HeatmapBinCount(frames[len(frames)-1].Timestamp, binSec)
	if !ok {
		return []HeatmapBin{}
	}

	groups := make([][]float64, numBins)
	for _, f := range frames {
		idx := int(math.Floor(f.Timestamp / binSec))
		if idx < 0 {
			idx = 0
		} else if idx >= numBins {
			idx = numBins - 1
		}
		groups[idx] = append(groups[idx], f.Engagement)
	}

	bins := make([]HeatmapBin, numBins)
	for i, g := range groups {
		start := float64(i) * binSec
		avg := 0.0
		if len(g) > 0 {
			avg = stat.Mean(g, nil)
		}
		bins[i] = HeatmapBin{Start: start, End: float64(i+1) * binSec, AvgEngagement: avg}
	}
	return bins
}
