// Package pipeline runs the attention layers over one ordered sample
// sequence: validate, solve geometry, build features, score, smooth, then
// aggregate into heatmap bins, confusion events and a summary.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/attention.report/internal/attention/l1landmarks"
	"github.com/banshee-data/attention.report/internal/attention/l2geometry"
	"github.com/banshee-data/attention.report/internal/attention/l3features"
	"github.com/banshee-data/attention.report/internal/attention/l4scoring"
	"github.com/banshee-data/attention.report/internal/attention/l5aggregate"
	"github.com/banshee-data/attention.report/internal/config"
	"github.com/banshee-data/attention.report/internal/monitoring"
)

// Result is the output contract of one analysis run.
type Result struct {
	// Raw holds the unsmoothed scores, kept for traceability.
	Raw     []l4scoring.ScoredFrame
	Frames  []l4scoring.ScoredFrame
	Heatmap []l5aggregate.HeatmapBin
	Events  []l5aggregate.ConfusionEvent
	Summary l5aggregate.Summary
	Dropped int
	// SampleRate is the mean input rate in samples per second, 0 when
	// fewer than two samples span a positive duration.
	SampleRate float64
}

// Notes attaches transcript text to the result's events.
func (r *Result) Notes(segments []l5aggregate.TranscriptSegment) []l5aggregate.Note {
	return l5aggregate.GenerateNotes(r.Events, segments)
}

// Analyzer holds the resolved configuration for a run. It keeps no state
// between calls to Analyze.
type Analyzer struct {
	topology  l1landmarks.Topology
	solver    *l2geometry.Solver
	scorer    l4scoring.Scorer
	window    int
	edgeMode  l4scoring.EdgeMode
	threshold float64
	windowSec float64
	binSec    float64
	workers   int
}

// NewAnalyzer resolves cfg into an Analyzer using the MediaPipe face mesh
// topology and the heuristic scorer. A nil cfg uses the defaults.
func NewAnalyzer(cfg *config.AnalysisConfig) (*Analyzer, error) {
	if cfg == nil {
		cfg = config.EmptyAnalysisConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	weights, err := l4scoring.DefaultWeights().Apply(cfg.Weights)
	if err != nil {
		return nil, fmt.Errorf("scoring weights: %w", err)
	}
	edgeMode, err := l4scoring.ParseEdgeMode(cfg.GetSmoothingEdgeMode())
	if err != nil {
		return nil, err
	}

	a := &Analyzer{
		solver:    l2geometry.NewSolver(l2geometry.FocalBasis(cfg.GetFocalLengthBasis()), cfg.GetPoseMaxIterations()),
		scorer:    l4scoring.NewHeuristicScorer(weights),
		window:    cfg.GetSmoothingWindow(),
		edgeMode:  edgeMode,
		threshold: cfg.GetConfusionThreshold(),
		windowSec: cfg.GetConfusionWindowSec(),
		binSec:    cfg.GetHeatmapBinSec(),
		workers:   cfg.GetWorkers(),
	}
	if err := a.SetTopology(l1landmarks.MediaPipeFaceMesh); err != nil {
		return nil, err
	}
	return a, nil
}

// SetTopology switches the detector topology used to read landmark groups.
func (a *Analyzer) SetTopology(t l1landmarks.Topology) error {
	if err := t.Validate(); err != nil {
		return err
	}
	a.topology = t
	return nil
}

// SetScorer replaces the scoring strategy.
func (a *Analyzer) SetScorer(s l4scoring.Scorer) {
	a.scorer = s
}

// Analyze processes samples, which must already be in timestamp order. A
// broken input contract is reported as a *l3features.ContractError before
// any work is done. Frames whose pose solve fails are dropped and counted.
func (a *Analyzer) Analyze(ctx context.Context, samples []l3features.Sample) (*Result, error) {
	if err := l3features.ValidateSequence(samples); err != nil {
		return nil, err
	}
	if n := len(samples); n > 0 {
		last := samples[n-1].Timestamp
		if _, ok := l5aggregate.HeatmapBinCount(last, a.binSec); !ok {
			return nil, &l3features.ContractError{
				Index:  n - 1,
				Reason: fmt.Sprintf("timestamp %v spans more than %d heatmap bins of %vs", last, l5aggregate.MaxHeatmapBins, a.binSec),
			}
		}
	}

	features, dropped, err := a.extract(ctx, samples)
	if err != nil {
		return nil, err
	}

	raw := l4scoring.ScoreAll(a.scorer, features)
	smoothed := l4scoring.Smooth(raw, a.window, a.edgeMode)

	res := &Result{
		Raw:        raw,
		Frames:     smoothed,
		Heatmap:    l5aggregate.Heatmap(smoothed, a.binSec),
		Events:     l5aggregate.DetectConfusionEvents(smoothed, a.threshold, a.windowSec),
		Dropped:    dropped,
		SampleRate: sampleRate(samples),
	}
	res.Summary = l5aggregate.Summarize(smoothed, res.Events, dropped)

	monitoring.Logf("[pipeline] analysed %d samples: %d frames, %d dropped, %d events, avg engagement %.3f",
		len(samples), len(smoothed), dropped, len(res.Events), res.Summary.AvgEngagement)
	return res, nil
}

func sampleRate(samples []l3features.Sample) float64 {
	if len(samples) < 2 {
		return 0
	}
	span := samples[len(samples)-1].Timestamp - samples[0].Timestamp
	if !(span > 0) {
		return 0
	}
	return float64(len(samples)-1) / span
}

type slot struct {
	features l3features.FrameFeatures
	ok       bool
}

// extract solves geometry for every sample on up to a.workers goroutines.
// Results land in per-index slots so the output matches a sequential run.
func (a *Analyzer) extract(ctx context.Context, samples []l3features.Sample) ([]l3features.FrameFeatures, int, error) {
	slots := make([]slot, len(samples))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i := range samples {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			s := samples[i]
			if missing := a.topology.MissingIDs(s.Landmarks); len(missing) > 0 && monitoring.DebugEnabled() {
				monitoring.Debugf("[pipeline] sample %d (t=%.3f): %d landmark ids missing", i, s.Timestamp, len(missing))
			}
			geom, err := a.solver.Solve(a.topology.Bind(s.Landmarks), s.Width, s.Height)
			if errors.Is(err, l2geometry.ErrPoseSolveFailure) {
				monitoring.Debugf("[pipeline] dropping sample %d (t=%.3f): %v", i, s.Timestamp, err)
				return nil
			}
			if err != nil {
				return fmt.Errorf("sample %d: %w", i, err)
			}
			slots[i] = slot{features: l3features.Build(geom, s.Timestamp, s.FaceConfidence), ok: true}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, fmt.Errorf("extract features: %w", err)
	}

	features := make([]l3features.FrameFeatures, 0, len(samples))
	dropped := 0
	for _, s := range slots {
		if !s.ok {
			dropped++
			continue
		}
		features = append(features, s.features)
	}
	return features, dropped, nil
}
