package sqlite

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/attention.report/internal/attention/l3features"
	"github.com/banshee-data/attention.report/internal/attention/l4scoring"
	"github.com/banshee-data/attention.report/internal/attention/l5aggregate"
	"github.com/banshee-data/attention.report/internal/db"
	"github.com/banshee-data/attention.report/internal/monitoring"
	"github.com/banshee-data/attention.report/internal/timeutil"
)

func TestMain(m *testing.M) {
	monitoring.SetLogger(nil)
	os.Exit(m.Run())
}

func newTestStore(t *testing.T) (*SessionStore, *timeutil.MockClock) {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "attention.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	clock := timeutil.NewMockClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	store := NewSessionStore(database.DB)
	store.SetClock(clock)
	return store, clock
}

func sampleCompletion() Completion {
	seg := "so the derivative of the integral"
	frame := func(ts, eng, conf float64) l4scoring.ScoredFrame {
		return l4scoring.ScoredFrame{
			FrameFeatures: l3features.FrameFeatures{
				Timestamp: ts, Yaw: 2, Pitch: -1, Roll: 0.5,
				GazeX: 0.5, GazeY: 0.5, Blink: 0.3, FaceConfidence: 1,
			},
			Engagement: eng,
			Confusion:  conf,
		}
	}
	return Completion{
		Summary: l5aggregate.Summary{
			AvgEngagement:   0.6,
			ConfusionEvents: 1,
			DurationSeconds: 2,
			Frames:          3,
		},
		Heatmap: []l5aggregate.HeatmapBin{
			{Start: 0, End: 1, AvgEngagement: 0.8},
			{Start: 1, End: 2, AvgEngagement: 0.4},
		},
		Events: []l5aggregate.ConfusionEvent{{Start: 1, End: 2, Score: 0.75}},
		Notes: []l5aggregate.Note{
			{Timestamp: 1, Text: seg, SourceSegment: &seg, Score: 0.75},
		},
		Frames:        []l4scoring.ScoredFrame{frame(0, 0.8, 0.1), frame(1, 0.5, 0.75), frame(2, 0.5, 0.75)},
		ArtifactsPath: "output/sessions/x",
	}
}

func TestCreateAndGet(t *testing.T) {
	store, clock := newTestStore(t)

	sess, err := store.Create("lecture.mp4")
	require.NoError(t, err)
	assert.Equal(t, StatusCreated, sess.Status)
	assert.Equal(t, clock.Now().UnixNano(), sess.CreatedAt)

	got, err := store.Get(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)
	assert.Equal(t, "lecture.mp4", got.VideoFilename)
	assert.Equal(t, StatusCreated, got.Status)
	assert.Nil(t, got.Summary)
	assert.Nil(t, got.DurationSeconds)
	assert.Nil(t, got.FPS)
}

func TestMarkProcessing(t *testing.T) {
	store, _ := newTestStore(t)
	sess, err := store.Create("lecture.mp4")
	require.NoError(t, err)

	require.NoError(t, store.MarkProcessing(sess.ID))
	got, err := store.Get(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, got.Status)

	err = store.MarkProcessing(sess.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not in the created state")

	assert.ErrorIs(t, store.MarkProcessing("6f1c1f36-8f0e-4c63-a1b2-6e0c5e6d8f11"), ErrSessionNotFound)
	assert.ErrorIs(t, store.MarkProcessing("nope"), ErrInvalidSessionID)
}

func TestGetErrors(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Get("not-a-uuid")
	assert.ErrorIs(t, err, ErrInvalidSessionID)

	_, err = store.Get("6f1c1f36-8f0e-4c63-a1b2-6e0c5e6d8f11")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestComplete(t *testing.T) {
	store, _ := newTestStore(t)
	sess, err := store.Create("lecture.mp4")
	require.NoError(t, err)

	c := sampleCompletion()
	c.FPS = 29.97
	require.NoError(t, store.Complete(sess.ID, c))

	got, err := store.Get(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
	require.NotNil(t, got.FPS)
	assert.Equal(t, 29.97, *got.FPS)
	require.NotNil(t, got.Summary)
	assert.Equal(t, c.Summary, *got.Summary)
	require.NotNil(t, got.DurationSeconds)
	assert.Equal(t, 2.0, *got.DurationSeconds)
	assert.Equal(t, "output/sessions/x", got.ArtifactsPath)

	events, err := store.Events(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, c.Events, events)

	bins, err := store.HeatmapBins(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, c.Heatmap, bins)

	notes, err := store.Notes(sess.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(c.Notes, notes); diff != "" {
		t.Errorf("notes mismatch (-want +got):\n%s", diff)
	}

	frames, err := store.Frames(sess.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(c.Frames, frames); diff != "" {
		t.Errorf("frames mismatch (-want +got):\n%s", diff)
	}
}

func TestCompleteUnknownSessionRollsBack(t *testing.T) {
	store, _ := newTestStore(t)

	err := store.Complete("6f1c1f36-8f0e-4c63-a1b2-6e0c5e6d8f11", Completion{})
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestFail(t *testing.T) {
	store, _ := newTestStore(t)
	sess, err := store.Create("broken.mp4")
	require.NoError(t, err)

	require.NoError(t, store.Fail(sess.ID, errors.New("no face detected")))

	got, err := store.Get(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, got.Status)
	assert.Equal(t, "no face detected", got.Error)

	events, err := store.Events(sess.ID)
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.NotNil(t, events)
}

func TestListNewestFirst(t *testing.T) {
	store, clock := newTestStore(t)

	var ids []string
	for _, name := range []string{"a.mp4", "b.mp4", "c.mp4"} {
		sess, err := store.Create(name)
		require.NoError(t, err)
		ids = append(ids, sess.ID)
		clock.Advance(time.Minute)
	}

	all, err := store.List(0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, ids[2], all[0].ID)
	assert.Equal(t, ids[0], all[2].ID)

	recent, err := store.List(2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "c.mp4", recent[0].VideoFilename)
	assert.Equal(t, "b.mp4", recent[1].VideoFilename)
}

func TestDeleteCascades(t *testing.T) {
	store, _ := newTestStore(t)
	sess, err := store.Create("lecture.mp4")
	require.NoError(t, err)
	require.NoError(t, store.Complete(sess.ID, sampleCompletion()))

	require.NoError(t, store.Delete(sess.ID))

	_, err = store.Get(sess.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	for _, table := range []string{"confusion_events", "heatmap_bins", "notes", "scored_frames"} {
		var n int
		require.NoError(t, store.db.QueryRow(`SELECT COUNT(*) FROM `+table+` WHERE session_id = ?`, sess.ID).Scan(&n))
		assert.Zero(t, n, table)
	}

	assert.ErrorIs(t, store.Delete(sess.ID), ErrSessionNotFound)
}

func TestChildListsValidateSessionID(t *testing.T) {
	store, _ := newTestStore(t)
	unknown := "6f1c1f36-8f0e-4c63-a1b2-6e0c5e6d8f11"

	lists := map[string]func(id string) error{
		"events": func(id string) error { _, err := store.Events(id); return err },
		"bins":   func(id string) error { _, err := store.HeatmapBins(id); return err },
		"notes":  func(id string) error { _, err := store.Notes(id); return err },
		"frames": func(id string) error { _, err := store.Frames(id); return err },
	}
	for name, list := range lists {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, list("not-a-uuid"), ErrInvalidSessionID)
			assert.ErrorIs(t, list(unknown), ErrSessionNotFound)
		})
	}
}

func TestRetryOnBusy(t *testing.T) {
	clock := timeutil.NewMockClock(time.Unix(0, 0))

	calls := 0
	err := retryOnBusy(clock, func() error {
		calls++
		if calls < 3 {
			return errors.New("database is locked (5) (SQLITE_BUSY)")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{20 * time.Millisecond, 40 * time.Millisecond}, clock.Sleeps())
}

func TestRetryOnBusyGivesUp(t *testing.T) {
	clock := timeutil.NewMockClock(time.Unix(0, 0))

	calls := 0
	err := retryOnBusy(clock, func() error {
		calls++
		return errors.New("database is locked")
	})
	require.Error(t, err)
	assert.Equal(t, busyRetries, calls)
	assert.Len(t, clock.Sleeps(), busyRetries)
}

func TestRetryOnBusyPassesOtherErrors(t *testing.T) {
	clock := timeutil.NewMockClock(time.Unix(0, 0))
	boom := errors.New("constraint failed")

	calls := 0
	err := retryOnBusy(clock, func() error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
	assert.Empty(t, clock.Sleeps())
}
