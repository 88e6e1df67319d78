package l4scoring

import (
	"strconv"

	"github.com/banshee-data/attention.report/internal/attention/l3features"
)

// CSVHeader is the feature columns followed by the two scores.
var CSVHeader = append(append([]string(nil), l3features.CSVHeader...), "engagement", "confusion")

// CSVRecord formats s in CSVHeader order.
func (s ScoredFrame) CSVRecord() []string {
	return append(s.FrameFeatures.CSVRecord(),
		strconv.FormatFloat(s.Engagement, 'g', -1, 64),
		strconv.FormatFloat(s.Confusion, 'g', -1, 64),
	)
}
