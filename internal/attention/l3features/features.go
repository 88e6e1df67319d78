package l3features

import (
	"strconv"

	"github.com/banshee-data/attention.report/internal/attention/l2geometry"
)

// FrameFeatures is the canonical per-frame schema every later stage reads.
// Values are packed once by Build and never modified.
type FrameFeatures struct {
	Timestamp      float64 `json:"timestamp"` // seconds
	Yaw            float64 `json:"yaw"`       // degrees
	Pitch          float64 `json:"pitch"`     // degrees
	Roll           float64 `json:"roll"`      // degrees
	GazeX          float64 `json:"gaze_x"`
	GazeY          float64 `json:"gaze_y"`
	Blink          float64 `json:"blink"`
	MouthOpen      float64 `json:"mouth_open"`
	FaceConfidence float64 `json:"face_confidence"`
}

// Build packs solver output, timestamp and detector confidence.
func Build(g l2geometry.Geometry, timestamp, faceConfidence float64) FrameFeatures {
	return FrameFeatures{
		Timestamp:      timestamp,
		Yaw:            g.Yaw,
		Pitch:          g.Pitch,
		Roll:           g.Roll,
		GazeX:          g.GazeX,
		GazeY:          g.GazeY,
		Blink:          g.Blink,
		MouthOpen:      g.MouthOpen,
		FaceConfidence: faceConfidence,
	}
}

// CSVHeader is the column order of the tabular frame export.
var CSVHeader = []string{
	"timestamp", "yaw", "pitch", "roll", "gaze_x", "gaze_y",
	"blink", "mouth_open", "face_confidence",
}

// CSVRecord formats f in CSVHeader order.
func (f FrameFeatures) CSVRecord() []string {
	vals := []float64{
		f.Timestamp, f.Yaw, f.Pitch, f.Roll, f.GazeX, f.GazeY,
		f.Blink, f.MouthOpen, f.FaceConfidence,
	}
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return out
}
