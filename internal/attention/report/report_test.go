package report

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/attention.report/internal/attention/artifacts"
	"github.com/banshee-data/attention.report/internal/attention/l3features"
	"github.com/banshee-data/attention.report/internal/attention/l4scoring"
	"github.com/banshee-data/attention.report/internal/attention/l5aggregate"
	"github.com/banshee-data/attention.report/internal/attention/pipeline"
	"github.com/banshee-data/attention.report/internal/fsutil"
	"github.com/banshee-data/attention.report/internal/monitoring"
)

func TestMain(m *testing.M) {
	monitoring.SetLogger(nil)
	os.Exit(m.Run())
}

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func sampleResult() *pipeline.Result {
	var frames []l4scoring.ScoredFrame
	for i := 0; i < 6; i++ {
		conf := 0.1
		if i >= 2 && i <= 4 {
			conf = 0.8
		}
		frames = append(frames, l4scoring.ScoredFrame{
			FrameFeatures: l3features.FrameFeatures{Timestamp: float64(i), FaceConfidence: 1},
			Engagement:    1 - conf,
			Confusion:     conf,
		})
	}
	events := []l5aggregate.ConfusionEvent{{Start: 2, End: 4, Score: 0.8}}
	return &pipeline.Result{
		Frames:  frames,
		Heatmap: l5aggregate.Heatmap(frames, 2),
		Events:  events,
		Summary: l5aggregate.Summarize(frames, events, 0),
	}
}

func TestRenderHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderHTML(&buf, sampleResult(), Options{Title: "Lecture 3"}))

	page := buf.String()
	assert.Contains(t, page, "<title>Lecture 3</title>")
	for _, id := range []string{"engagement_heatmap", "attention_series", "confusion_events"} {
		assert.Contains(t, page, id)
	}
	assert.Contains(t, page, "2-4s")
	assert.Contains(t, page, "2.0-4.0s")
}

func TestRenderHTMLDeterministic(t *testing.T) {
	var a, b bytes.Buffer
	require.NoError(t, RenderHTML(&a, sampleResult(), Options{}))
	require.NoError(t, RenderHTML(&b, sampleResult(), Options{}))
	assert.Equal(t, a.String(), b.String())
}

func TestRenderHTMLEmptyResult(t *testing.T) {
	var buf bytes.Buffer
	res := &pipeline.Result{Heatmap: []l5aggregate.HeatmapBin{}, Events: []l5aggregate.ConfusionEvent{}}
	require.NoError(t, RenderHTML(&buf, res, Options{}))
	assert.Contains(t, buf.String(), "Attention report")
}

func TestRenderTimeline(t *testing.T) {
	png, err := RenderTimeline(sampleResult(), Options{ConfusionThreshold: 0.7})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, pngMagic))
}

func TestRenderTimelineEmptyResult(t *testing.T) {
	png, err := RenderTimeline(&pipeline.Result{}, Options{})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, pngMagic))
}

func TestWriteSession(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	store := artifacts.NewLocalStore(fsys, "/out")

	paths, err := WriteSession(store, "s1", sampleResult(), Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"/out/s1/report.html", "/out/s1/timeline.png"}, paths)

	data, err := fsys.ReadFile("/out/s1/timeline.png")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, pngMagic))
}
