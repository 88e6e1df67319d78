// Package report renders an analysed session for people: an interactive
// echarts HTML page and a static PNG timeline.
package report

import (
	"bytes"
	"fmt"
	"image/color"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/attention.report/internal/attention/artifacts"
	"github.com/banshee-data/attention.report/internal/attention/pipeline"
	"github.com/banshee-data/attention.report/internal/monitoring"
)

// Report file names within a session directory.
const (
	HTMLFile     = "report.html"
	TimelineFile = "timeline.png"
)

// Options controls report rendering.
type Options struct {
	Title string
	// AssetsHost overrides where the page loads echarts.min.js from.
	AssetsHost string
	// ConfusionThreshold is drawn on the timeline when positive.
	ConfusionThreshold float64
}

func (o Options) title() string {
	if o.Title == "" {
		return "Attention report"
	}
	return o.Title
}

// RenderHTML writes a page with the engagement heatmap, the smoothed
// engagement and confusion series, and the detected confusion events.
// Chart ids are fixed so identical results render identical pages.
func RenderHTML(w io.Writer, res *pipeline.Result, o Options) error {
	initOpts := func(id, height string) opts.Initialization {
		return opts.Initialization{
			PageTitle:  o.title(),
			ChartID:    id,
			Width:      "100%",
			Height:     height,
			AssetsHost: o.AssetsHost,
		}
	}

	heat := charts.NewBar()
	heat.SetGlobalOptions(
		charts.WithInitializationOpts(initOpts("engagement_heatmap", "360px")),
		charts.WithTitleOpts(opts.Title{
			Title:    "Engagement heatmap",
			Subtitle: fmt.Sprintf("%d bins, mean engagement %.2f", len(res.Heatmap), res.Summary.AvgEngagement),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "engagement", Min: 0, Max: 1}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:    opts.Bool(false),
			Min:     0,
			Max:     1,
			InRange: &opts.VisualMapInRange{Color: []string{"#d73027", "#fee08b", "#1a9850"}},
		}),
	)
	binLabels := make([]string, len(res.Heatmap))
	binData := make([]opts.BarData, len(res.Heatmap))
	for i, b := range res.Heatmap {
		binLabels[i] = fmt.Sprintf("%g-%gs", b.Start, b.End)
		binData[i] = opts.BarData{Value: b.AvgEngagement}
	}
	heat.SetXAxis(binLabels).AddSeries("avg engagement", binData)

	series := charts.NewLine()
	series.SetGlobalOptions(
		charts.WithInitializationOpts(initOpts("attention_series", "420px")),
		charts.WithTitleOpts(opts.Title{
			Title:    "Engagement and confusion",
			Subtitle: fmt.Sprintf("%d frames, %d dropped", res.Summary.Frames, res.Summary.DroppedFrames),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "t (s)"}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: 1}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider"}),
	)
	ts := make([]string, len(res.Frames))
	eng := make([]opts.LineData, len(res.Frames))
	conf := make([]opts.LineData, len(res.Frames))
	for i, f := range res.Frames {
		ts[i] = fmt.Sprintf("%.2f", f.Timestamp)
		eng[i] = opts.LineData{Value: f.Engagement}
		conf[i] = opts.LineData{Value: f.Confusion}
	}
	series.SetXAxis(ts).
		AddSeries("engagement", eng, charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)})).
		AddSeries("confusion", conf, charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}))

	events := charts.NewBar()
	events.SetGlobalOptions(
		charts.WithInitializationOpts(initOpts("confusion_events", "320px")),
		charts.WithTitleOpts(opts.Title{
			Title:    "Confusion events",
			Subtitle: fmt.Sprintf("%d events", len(res.Events)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "score", Min: 0, Max: 1}),
	)
	evLabels := make([]string, len(res.Events))
	evData := make([]opts.BarData, len(res.Events))
	for i, ev := range res.Events {
		evLabels[i] = fmt.Sprintf("%.1f-%.1fs", ev.Start, ev.End)
		evData[i] = opts.BarData{Value: ev.Score}
	}
	events.SetXAxis(evLabels).
		AddSeries("score", evData, charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}))

	page := components.NewPage()
	page.PageTitle = o.title()
	if o.AssetsHost != "" {
		page.SetAssetsHost(o.AssetsHost)
	}
	page.AddCharts(heat, series, events)
	return page.Render(w)
}

// RenderTimeline draws engagement and confusion against time with the
// confusion events shaded, encoded as PNG.
func RenderTimeline(res *pipeline.Result, o Options) ([]byte, error) {
	p := plot.New()
	p.Title.Text = o.title()
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = "Score"
	p.Add(plotter.NewGrid())

	for _, ev := range res.Events {
		band, err := plotter.NewPolygon(plotter.XYs{
			{X: ev.Start, Y: 0}, {X: ev.End, Y: 0}, {X: ev.End, Y: 1}, {X: ev.Start, Y: 1},
		})
		if err != nil {
			return nil, fmt.Errorf("event band: %w", err)
		}
		band.Color = color.RGBA{R: 255, G: 160, B: 0, A: 70}
		band.LineStyle.Width = 0
		p.Add(band)
	}

	if len(res.Frames) > 0 {
		engPts := make(plotter.XYs, len(res.Frames))
		confPts := make(plotter.XYs, len(res.Frames))
		for i, f := range res.Frames {
			engPts[i] = plotter.XY{X: f.Timestamp, Y: f.Engagement}
			confPts[i] = plotter.XY{X: f.Timestamp, Y: f.Confusion}
		}

		engLine, err := plotter.NewLine(engPts)
		if err != nil {
			return nil, fmt.Errorf("engagement line: %w", err)
		}
		engLine.Color = color.RGBA{R: 26, G: 152, B: 80, A: 255}
		engLine.Width = vg.Points(1.5)

		confLine, err := plotter.NewLine(confPts)
		if err != nil {
			return nil, fmt.Errorf("confusion line: %w", err)
		}
		confLine.Color = color.RGBA{R: 215, G: 48, B: 39, A: 255}
		confLine.Width = vg.Points(1.5)

		p.Add(engLine, confLine)
		p.Legend.Add("engagement", engLine)
		p.Legend.Add("confusion", confLine)

		if o.ConfusionThreshold > 0 {
			first, last := res.Frames[0].Timestamp, res.Frames[len(res.Frames)-1].Timestamp
			thr, err := plotter.NewLine(plotter.XYs{{X: first, Y: o.ConfusionThreshold}, {X: last, Y: o.ConfusionThreshold}})
			if err != nil {
				return nil, fmt.Errorf("threshold line: %w", err)
			}
			thr.Color = color.Gray{Y: 120}
			thr.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
			p.Add(thr)
			p.Legend.Add("threshold", thr)
		}
	} else {
		p.X.Min, p.X.Max = 0, 1
	}

	p.Y.Min, p.Y.Max = 0, 1
	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	wt, err := p.WriterTo(10*vg.Inch, 4*vg.Inch, "png")
	if err != nil {
		return nil, fmt.Errorf("create png writer: %w", err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteSession renders both reports into store under prefix and returns
// the written paths.
func WriteSession(store artifacts.Store, prefix string, res *pipeline.Result, o Options) ([]string, error) {
	var page bytes.Buffer
	if err := RenderHTML(&page, res, o); err != nil {
		return nil, fmt.Errorf("render html report: %w", err)
	}
	htmlPath, err := store.WriteBytes(prefix+"/"+HTMLFile, page.Bytes())
	if err != nil {
		return nil, err
	}

	png, err := RenderTimeline(res, o)
	if err != nil {
		return nil, fmt.Errorf("render timeline: %w", err)
	}
	pngPath, err := store.WriteBytes(prefix+"/"+TimelineFile, png)
	if err != nil {
		return nil, err
	}

	monitoring.Logf("[report] wrote %s and %s", htmlPath, pngPath)
	return []string{htmlPath, pngPath}, nil
}
