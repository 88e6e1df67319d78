package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/banshee-data/attention.report/internal/attention/artifacts"
	"github.com/banshee-data/attention.report/internal/attention/ingest"
	"github.com/banshee-data/attention.report/internal/attention/l5aggregate"
	"github.com/banshee-data/attention.report/internal/attention/pipeline"
	"github.com/banshee-data/attention.report/internal/attention/report"
	"github.com/banshee-data/attention.report/internal/attention/storage/sqlite"
	"github.com/banshee-data/attention.report/internal/config"
	"github.com/banshee-data/attention.report/internal/db"
	"github.com/banshee-data/attention.report/internal/fsutil"
	"github.com/banshee-data/attention.report/internal/monitoring"
	"github.com/banshee-data/attention.report/internal/timeutil"
)

// ConfigFile is the config snapshot stored with each session's artifacts.
const ConfigFile = "config.json"

type runOptions struct {
	Input      string
	Transcript string
	Video      string
	Report     bool
	Config     *config.AnalysisConfig
	FS         fsutil.FileSystem
	Clock      timeutil.Clock
}

// run executes one session: the session row is created, moved to
// processing, then either completed with all derived records or marked failed.
func run(ctx context.Context, o runOptions) (*sqlite.Session, error) {
	cfg := o.Config
	if cfg == nil {
		cfg = config.EmptyAnalysisConfig()
	}
	analyzer, err := pipeline.NewAnalyzer(cfg)
	if err != nil {
		return nil, err
	}

	database, err := db.Open(cfg.GetDatabasePath())
	if err != nil {
		return nil, err
	}
	defer database.Close()

	sessions := sqlite.NewSessionStore(database.DB)
	sessions.SetClock(o.Clock)

	video := o.Video
	if video == "" {
		video = filepath.Base(o.Input)
	}
	sess, err := sessions.Create(video)
	if err != nil {
		return nil, err
	}
	if err := sessions.MarkProcessing(sess.ID); err != nil {
		return nil, err
	}

	start := o.Clock.Now()
	completion, err := process(ctx, analyzer, sess.ID, o, cfg)
	if err != nil {
		if ferr := sessions.Fail(sess.ID, err); ferr != nil {
			monitoring.Logf("[attention] could not mark session %s failed: %v", sess.ID, ferr)
		}
		return nil, fmt.Errorf("session %s: %w", sess.ID, err)
	}

	if err := sessions.Complete(sess.ID, *completion); err != nil {
		return nil, err
	}
	monitoring.Logf("[attention] session %s done in %s", sess.ID, o.Clock.Since(start))
	return sessions.Get(sess.ID)
}

func process(ctx context.Context, analyzer *pipeline.Analyzer, id string, o runOptions, cfg *config.AnalysisConfig) (*sqlite.Completion, error) {
	samples, err := ingest.ReadFile(o.FS, o.Input, ingest.Options{
		Stride:    cfg.GetSampleStride(),
		MaxFrames: cfg.GetMaxFrames(),
	})
	if err != nil {
		return nil, err
	}

	var segments []l5aggregate.TranscriptSegment
	if o.Transcript != "" {
		if segments, err = ingest.ReadTranscript(o.FS, o.Transcript); err != nil {
			return nil, err
		}
	}

	res, err := analyzer.Analyze(ctx, samples)
	if err != nil {
		return nil, err
	}
	notes := res.Notes(segments)

	store := artifacts.NewLocalStore(o.FS, cfg.GetStoragePath())
	prefix, err := artifacts.WriteSession(store, id, res, notes)
	if err != nil {
		return nil, err
	}
	if _, err := store.WriteJSON(prefix+"/"+ConfigFile, cfg); err != nil {
		return nil, err
	}
	if o.Report {
		title := o.Video
		if title == "" {
			title = filepath.Base(o.Input)
		}
		if _, err := report.WriteSession(store, prefix, res, report.Options{
			Title:              title,
			ConfusionThreshold: cfg.GetConfusionThreshold(),
		}); err != nil {
			return nil, err
		}
	}

	return &sqlite.Completion{
		Summary:       res.Summary,
		Heatmap:       res.Heatmap,
		Events:        res.Events,
		Notes:         notes,
		Frames:        res.Frames,
		ArtifactsPath: filepath.Join(cfg.GetStoragePath(), prefix),
		FPS:           res.SampleRate,
	}, nil
}
