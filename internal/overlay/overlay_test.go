package overlay_test

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"codeberg.org/mutker/framescore/internal/overlay"
	"codeberg.org/mutker/framescore/internal/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sampleHUD = stats.HUD{
	Score:      95,
	ScoreLevel: stats.LevelGood,
	FPS:        60,
	AvgFPS:     59,
	FPSLevel:   stats.LevelGood,
	FrameTime:  16.666,
	DrawCalls:  5,
	Triangles:  1234567,
}

func TestTerminalShow(t *testing.T) {
	var buf bytes.Buffer
	term := overlay.NewTerminal(&buf, overlay.TerminalOptions{})

	require.NoError(t, term.Show(sampleHUD))

	out := buf.String()
	assert.Contains(t, out, "Score: 95/100")
	assert.Contains(t, out, "FPS: 60 (avg 59)")
	assert.Contains(t, out, "Frame time: 16.67ms")
	assert.Contains(t, out, "Draw calls: 5")
	assert.Contains(t, out, "Triangles: 1,234,567")
	assert.NotContains(t, out, "baseline")
	assert.NotContains(t, out, "\x1b[", "no escape codes without colour")
}

func TestTerminalShowBaseline(t *testing.T) {
	var buf bytes.Buffer
	term := overlay.NewTerminal(&buf, overlay.TerminalOptions{})

	hud := sampleHUD
	hud.HasBaseline = true
	hud.BaselineScore = 80

	require.NoError(t, term.Show(hud))
	assert.Contains(t, buf.String(), "baseline: 80 (+15)")
}

func TestTerminalRedraw(t *testing.T) {
	var buf bytes.Buffer
	term := overlay.NewTerminal(&buf, overlay.TerminalOptions{Redraw: true})

	require.NoError(t, term.Show(sampleHUD))
	assert.NotContains(t, buf.String(), "\x1b[", "nothing to clear on the first draw")

	buf.Reset()
	require.NoError(t, term.Show(sampleHUD))
	assert.Contains(t, buf.String(), "\x1b[", "previous HUD is cleared")

	_, err := fmt.Fprintln(term, "Baseline saved")
	require.NoError(t, err)

	buf.Reset()
	require.NoError(t, term.Show(sampleHUD))
	assert.NotContains(t, buf.String(), "\x1b[", "printed text is kept")
	assert.Contains(t, buf.String(), "Score: 95/100")
}

type failingSurface struct{}

func (failingSurface) Show(stats.HUD) error { return fmt.Errorf("gone") }

type recordingSurface struct{ shown int }

func (r *recordingSurface) Show(stats.HUD) error {
	r.shown++
	return nil
}

func TestMultiContinuesPastFailures(t *testing.T) {
	rec := &recordingSurface{}
	multi := overlay.Multi{failingSurface{}, nil, rec}

	err := multi.Show(sampleHUD)
	require.Error(t, err)
	assert.Equal(t, 1, rec.shown)

	assert.NoError(t, overlay.Multi{rec}.Show(sampleHUD))
}

func TestWriteComparison(t *testing.T) {
	cmp := stats.Comparison{
		Baseline: stats.Baseline{
			Report: stats.Report{AvgFPS: 30, AvgFrameTime: 33.34, DrawCalls: 11, Triangles: 20000},
			Score:  stats.ScoreBreakdown{Total: 57},
		},
		Current:      stats.Report{AvgFPS: 60, AvgFrameTime: 16.67, DrawCalls: 6, Triangles: 10000},
		CurrentScore: stats.ScoreBreakdown{Total: 96, FPS: 40, FrameTime: 30, DrawCalls: 11, Memory: 15},
		Score:        stats.Improvement{Percent: 68.42, Applicable: true},
		FPS:          stats.Improvement{Percent: 100, Applicable: true},
		FrameTime:    stats.Improvement{Percent: 50, Applicable: true},
		DrawCalls:    stats.Improvement{Percent: 45.45, Applicable: true},
	}

	var buf bytes.Buffer
	require.NoError(t, overlay.WriteComparison(&buf, cmp))

	out := buf.String()
	assert.Contains(t, out, "before: 57")
	assert.Contains(t, out, "after:  96")
	assert.Contains(t, out, "↑ 68.4%")
	assert.Contains(t, out, "↑ 100.0%")
	assert.Contains(t, out, "before: 20,000")
	assert.Contains(t, out, "change: n/a", "triangles improvement not applicable")
	assert.Contains(t, out, "Score improved by 68.4%")

	// Every boxed line has the same width.
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if strings.HasPrefix(line, "Score ") {
			continue
		}
		assert.Equal(t, 60, len([]rune(line)), "line %q", line)
	}
}

func TestWriteComparisonUnchanged(t *testing.T) {
	cmp := stats.Comparison{Score: stats.Improvement{Applicable: true}}

	var buf bytes.Buffer
	require.NoError(t, overlay.WriteComparison(&buf, cmp))
	assert.Contains(t, buf.String(), "→ 0.0%")
	assert.Contains(t, buf.String(), "Score unchanged")
}

func TestWriteUsage(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, overlay.WriteUsage(&buf, stats.DefaultScoreConfig()))

	out := buf.String()
	assert.Contains(t, out, "FPS         40 points (60 FPS earns all)")
	assert.Contains(t, out, "frame time  30 points (16.67ms earns all)")
	assert.Contains(t, out, "framescore baseline")
}

func TestWriteReport(t *testing.T) {
	report := stats.Report{
		FPS:          58,
		AvgFPS:       60,
		FrameTime:    17.2,
		AvgFrameTime: 16.67,
		DrawCalls:    3,
		Triangles:    12288,
		Memory:       stats.MemoryReport{Geometries: 3, Textures: 2, Programs: 1},
	}
	score := stats.ScoreBreakdown{FPS: 40, FrameTime: 30, DrawCalls: 13, Memory: 14, Total: 97}

	var buf bytes.Buffer
	require.NoError(t, overlay.WriteReport(&buf, report, score))

	out := buf.String()
	assert.Contains(t, out, "Frame performance: current")
	assert.Contains(t, out, "Score:       97/100")
	assert.Contains(t, out, "fps 40 | frame time 30 | draw calls 13 | memory 14")
	assert.Contains(t, out, "FPS:         58 (avg 60)")
	assert.Contains(t, out, "Frame time:  17.20ms (avg 16.67ms)")
	assert.Contains(t, out, "Triangles:   12,288")
	assert.Contains(t, out, "Geometries: 3")
	assert.Contains(t, out, "Textures:   2")
	assert.Contains(t, out, "Programs:   1")
	assert.Contains(t, out, "1. framescore baseline")
	assert.NotContains(t, out, "before / after")

	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		assert.Equal(t, 60, utf8.RuneCountInString(line), "box line %q", line)
	}
}
