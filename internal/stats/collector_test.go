package stats_test

import (
	"fmt"
	"testing"
	"time"

	"codeberg.org/mutker/framescore/internal/errors"
	"codeberg.org/mutker/framescore/internal/logger"
	"codeberg.org/mutker/framescore/internal/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const frame60 = 16670 * time.Microsecond

type fakeCounters struct {
	counters stats.Counters
	polls    int
}

func (f *fakeCounters) Counters() stats.Counters {
	f.polls++
	return f.counters
}

type fakeSurface struct {
	huds []stats.HUD
	err  error
}

func (f *fakeSurface) Show(hud stats.HUD) error {
	f.huds = append(f.huds, hud)
	return f.err
}

var epoch = time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

func newCollector(t *testing.T, counters *fakeCounters, opts ...stats.Option) *stats.Collector {
	t.Helper()

	opts = append([]stats.Option{stats.WithLogger(logger.Nop())}, opts...)
	c, err := stats.New(stats.DefaultConfig(), counters, opts...)
	require.NoError(t, err)

	return c
}

// runFrames records n frames spaced by delta after start and returns the
// timestamp of the last one.
func runFrames(c *stats.Collector, start time.Time, n int, delta time.Duration) time.Time {
	now := start
	for i := 0; i < n; i++ {
		now = now.Add(delta)
		c.RecordFrame(now)
	}

	return now
}

func TestNewRejectsInvalidInput(t *testing.T) {
	_, err := stats.New(stats.DefaultConfig(), nil)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, stats.ErrNoCounterSource))

	cfg := stats.DefaultConfig()
	cfg.WindowSize = 0
	_, err = stats.New(cfg, &fakeCounters{})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, stats.ErrInvalidWindowSize))
}

func TestRecordFrameKeepsMostRecentSamples(t *testing.T) {
	c := newCollector(t, &fakeCounters{})

	c.RecordFrame(epoch)
	now := epoch
	for i := 1; i <= 150; i++ {
		delta := time.Duration(1+i%100) * time.Millisecond
		now = now.Add(delta)
		c.RecordFrame(now)
		assert.LessOrEqual(t, len(c.Samples()), 60)
	}

	samples := c.Samples()
	require.Len(t, samples, 60)
	for i, sample := range samples {
		frame := 91 + i
		assert.InDelta(t, float64(1+frame%100), sample, 1e-9, "sample %d", i)
	}
}

func TestRecordFrameDropsInvalidDeltas(t *testing.T) {
	c := newCollector(t, &fakeCounters{})

	c.RecordFrame(epoch)
	assert.Empty(t, c.Samples(), "first frame only starts the clock")

	c.RecordFrame(epoch)
	assert.Empty(t, c.Samples(), "zero delta is not a frame")

	now := epoch.Add(time.Second)
	c.RecordFrame(now)
	assert.Empty(t, c.Samples(), "a one second stall is a pause")

	now = now.Add(5 * time.Second)
	c.RecordFrame(now)
	assert.Empty(t, c.Samples())

	back := now.Add(-time.Millisecond)
	c.RecordFrame(back)
	assert.Empty(t, c.Samples(), "clock going backwards is ignored")

	c.RecordFrame(back.Add(999 * time.Millisecond))
	assert.Equal(t, []float64{999}, c.Samples())
}

func TestTickEmitsOncePerInterval(t *testing.T) {
	counters := &fakeCounters{counters: stats.Counters{DrawCalls: 3, Triangles: 1200}}
	c := newCollector(t, counters)

	c.RecordFrame(epoch)
	_, ok := c.Tick(epoch)
	assert.False(t, ok)

	now := runFrames(c, epoch, 39, 25*time.Millisecond)
	_, ok = c.Tick(now)
	assert.False(t, ok, "975ms is below the tick interval")
	assert.Zero(t, counters.polls)

	now = runFrames(c, now, 1, 25*time.Millisecond)
	snapshot, ok := c.Tick(now)
	require.True(t, ok)
	// The frame that starts the clock counts toward the first interval.
	assert.Equal(t, 41, snapshot.FPS)
	assert.InDelta(t, 25.0, snapshot.FrameTime, 1e-9)
	assert.Equal(t, 3, snapshot.DrawCalls)
	assert.Equal(t, 1200, snapshot.Triangles)
	assert.Equal(t, now, snapshot.Timestamp)
	assert.Equal(t, 1, counters.polls)

	now = runFrames(c, now, 50, 20*time.Millisecond)
	snapshot, ok = c.Tick(now)
	require.True(t, ok)
	assert.Equal(t, 50, snapshot.FPS)
	assert.Equal(t, *snapshot, c.Latest())
}

func TestComputeScoreEmpty(t *testing.T) {
	c := newCollector(t, &fakeCounters{counters: stats.Counters{DrawCalls: 2}})

	score := c.ComputeScore()
	assert.Equal(t, stats.ScoreBreakdown{}, score)
}

func TestComputeScoreSixtyFPSScene(t *testing.T) {
	counters := &fakeCounters{counters: stats.Counters{
		DrawCalls:  5,
		Triangles:  4800,
		Geometries: 4,
		Textures:   3,
		Programs:   3,
	}}
	c := newCollector(t, counters)

	c.RecordFrame(epoch)
	now := runFrames(c, epoch, 60, frame60)
	_, ok := c.Tick(now)
	require.True(t, ok)

	require.Len(t, c.Samples(), 60)

	score := c.ComputeScore()
	assert.Equal(t, 60, score.Details.AvgFPS)
	assert.InDelta(t, 16.67, score.Details.AvgFrameTime, 1e-9)
	assert.Equal(t, 40.0, score.FPS)
	assert.Equal(t, 30.0, score.FrameTime)
	assert.Equal(t, 12.0, score.DrawCalls)
	assert.Equal(t, 13.0, score.Memory)
	assert.Equal(t, 95, score.Total)

	report := c.Report()
	assert.Equal(t, 60, report.AvgFPS)
	assert.Equal(t, 4800, report.Triangles)
	assert.Equal(t, stats.MemoryReport{Geometries: 4, Textures: 3, Programs: 3}, report.Memory)
}

func TestCompareWithoutBaseline(t *testing.T) {
	c := newCollector(t, &fakeCounters{})

	_, has := c.Baseline()
	assert.False(t, has)

	_, err := c.CompareToBaseline()
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, stats.ErrNoBaseline))
}

func TestCompareUnchangedIsZeroPercent(t *testing.T) {
	counters := &fakeCounters{counters: stats.Counters{DrawCalls: 5, Triangles: 900, Geometries: 10}}
	c := newCollector(t, counters)

	c.RecordFrame(epoch)
	now := runFrames(c, epoch, 60, frame60)
	_, ok := c.Tick(now)
	require.True(t, ok)

	baseline := c.SaveBaseline()
	assert.Equal(t, now, baseline.CapturedAt)

	saved, has := c.Baseline()
	require.True(t, has)
	assert.Equal(t, baseline, saved)

	cmp, err := c.CompareToBaseline()
	require.NoError(t, err)
	assert.Equal(t, stats.Improvement{Percent: 0, Applicable: true}, cmp.Score)
	assert.Equal(t, stats.Improvement{Percent: 0, Applicable: true}, cmp.FPS)
	assert.Equal(t, stats.Improvement{Percent: 0, Applicable: true}, cmp.FrameTime)
	assert.Equal(t, stats.Improvement{Percent: 0, Applicable: true}, cmp.DrawCalls)
	assert.Equal(t, baseline.Score.Total, cmp.CurrentScore.Total)
}

func TestCompareAfterOptimisation(t *testing.T) {
	counters := &fakeCounters{counters: stats.Counters{DrawCalls: 11, Triangles: 2000}}
	c := newCollector(t, counters)

	// 30 FPS before.
	c.RecordFrame(epoch)
	now := runFrames(c, epoch, 60, 2*frame60)
	_, ok := c.Tick(now)
	require.True(t, ok)
	before := c.SaveBaseline()

	// 60 FPS and fewer draw calls after.
	counters.counters = stats.Counters{DrawCalls: 6, Triangles: 1000}
	now = runFrames(c, now, 120, frame60)
	_, ok = c.Tick(now)
	require.True(t, ok)

	cmp, err := c.CompareToBaseline()
	require.NoError(t, err)
	assert.Equal(t, before, cmp.Baseline)
	assert.Greater(t, cmp.CurrentScore.Total, before.Score.Total)
	assert.True(t, cmp.Score.Applicable)
	assert.Greater(t, cmp.Score.Percent, 0.0)
	assert.InDelta(t, 100.0, cmp.FPS.Percent, 1e-9)
	assert.InDelta(t, 50.0, cmp.FrameTime.Percent, 1e-6)
	assert.InDelta(t, 100*5.0/11.0, cmp.DrawCalls.Percent, 1e-9)
	assert.InDelta(t, 50.0, cmp.Triangles.Percent, 1e-9)
}

func TestCompareZeroBaselineNotApplicable(t *testing.T) {
	c := newCollector(t, &fakeCounters{})

	baseline := c.SaveBaseline()
	assert.Zero(t, baseline.Score.Total)

	c.RecordFrame(epoch)
	now := runFrames(c, epoch, 60, frame60)
	c.Tick(now)

	cmp, err := c.CompareToBaseline()
	require.NoError(t, err)
	assert.False(t, cmp.Score.Applicable)
	assert.False(t, cmp.FPS.Applicable)
	assert.False(t, cmp.FrameTime.Applicable)
}

func TestSaveBaselineOverwrites(t *testing.T) {
	counters := &fakeCounters{counters: stats.Counters{DrawCalls: 1}}
	c := newCollector(t, counters)

	c.RecordFrame(epoch)
	now := runFrames(c, epoch, 60, 2*frame60)
	c.Tick(now)
	first := c.SaveBaseline()

	now = runFrames(c, now, 120, frame60)
	c.Tick(now)
	second := c.SaveBaseline()

	saved, _ := c.Baseline()
	assert.Equal(t, second, saved)
	assert.NotEqual(t, first.Score.Total, saved.Score.Total)
}

func TestRenderToleratesMissingSurface(t *testing.T) {
	c := newCollector(t, &fakeCounters{})

	assert.NotPanics(t, c.Render)
}

func TestRenderToleratesFailingSurface(t *testing.T) {
	surface := &fakeSurface{err: fmt.Errorf("detached")}
	c := newCollector(t, &fakeCounters{}, stats.WithSurface(surface))

	assert.NotPanics(t, c.Render)
	assert.Len(t, surface.huds, 1)
}

func TestRenderHUD(t *testing.T) {
	surface := &fakeSurface{}
	counters := &fakeCounters{counters: stats.Counters{DrawCalls: 5, Triangles: 4800, Geometries: 30}}
	c := newCollector(t, counters, stats.WithSurface(surface))

	c.RecordFrame(epoch)
	now := runFrames(c, epoch, 60, 2*frame60)
	c.Tick(now)
	c.Render()

	require.Len(t, surface.huds, 1)
	hud := surface.huds[0]
	assert.False(t, hud.HasBaseline)
	assert.Equal(t, 30, hud.AvgFPS)
	assert.Equal(t, stats.LevelFair, hud.FPSLevel)
	assert.Equal(t, stats.LevelPoor, hud.ScoreLevel)
	assert.Equal(t, 4800, hud.Triangles)
	assert.Zero(t, hud.ScoreDelta())

	c.SaveBaseline()
	now = runFrames(c, now, 120, frame60)
	c.Tick(now)
	c.Render()

	require.Len(t, surface.huds, 2)
	hud = surface.huds[1]
	assert.True(t, hud.HasBaseline)
	assert.Equal(t, stats.LevelGood, hud.FPSLevel)
	assert.Equal(t, hud.Score-hud.BaselineScore, hud.ScoreDelta())
	assert.Positive(t, hud.ScoreDelta())
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "good", stats.LevelGood.String())
	assert.Equal(t, "fair", stats.LevelFair.String())
	assert.Equal(t, "poor", stats.LevelPoor.String())
}
