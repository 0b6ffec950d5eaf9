package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"codeberg.org/mutker/framescore/internal/config"
	"codeberg.org/mutker/framescore/internal/errors"
	"codeberg.org/mutker/framescore/internal/logger"
	"codeberg.org/mutker/framescore/internal/metrics"
	"codeberg.org/mutker/framescore/internal/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const frame60 = 16670 * time.Microsecond

func loadTestConfig(t *testing.T, extra string) *config.Config {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "framescore.toml")
	doc := fmt.Sprintf(`
pid_dir = %q

[overlay]
enabled = true
color = false

[metrics]
enabled = true
db_path = %q
batch_timeout = 0
%s`, dir, filepath.Join(dir, "history.db"), extra)
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	cfg, err := config.Load(nil, config.WithConfigFile(path))
	require.NoError(t, err)

	return cfg
}

func frameTimes(n int) <-chan time.Time {
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	frames := make(chan time.Time, n)
	for i := range n {
		frames <- start.Add(time.Duration(i) * frame60)
	}
	close(frames)

	return frames
}

func TestHostRunAndTriggers(t *testing.T) {
	cfg := loadTestConfig(t, "")

	var out bytes.Buffer
	h, err := newHost(context.Background(), cfg, &out, logger.Nop())
	require.NoError(t, err)

	// 121 frames span two tick intervals.
	require.NoError(t, h.run(context.Background(), frameTimes(121), nil))

	assert.Contains(t, out.String(), "Frame performance scoring enabled")
	assert.Contains(t, out.String(), "Score: 97/100")
	assert.Equal(t, 121, h.renderer.Frames())

	out.Reset()
	assert.False(t, h.handleSignal(syscall.SIGUSR2))
	assert.NotContains(t, out.String(), "before / after", "no comparison without a baseline")
	assert.Contains(t, out.String(), "Frame performance: current")
	assert.Contains(t, out.String(), "Score:       97/100")
	assert.Contains(t, out.String(), "Geometries: 2")
	assert.Contains(t, out.String(), "Textures:   0")
	assert.Contains(t, out.String(), "Programs:   2")
	assert.Contains(t, out.String(), "1. framescore baseline")

	out.Reset()
	assert.False(t, h.handleSignal(syscall.SIGUSR1))
	assert.Contains(t, out.String(), "Baseline saved: score 97/100, 60 FPS")

	assert.False(t, h.handleSignal(syscall.SIGUSR2))
	assert.Contains(t, out.String(), "before / after")
	assert.Contains(t, out.String(), "Score unchanged")

	assert.True(t, h.handleSignal(syscall.SIGTERM))

	require.NoError(t, h.close())

	history, err := metrics.OpenHistory(cfg.Metrics.DBPath, logger.Nop())
	require.NoError(t, err)
	defer history.Close()

	rows, err := history.Recent(10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 97, rows[0].Score.Total)
	assert.Equal(t, 3, rows[0].Render.DrawCalls)
	assert.Equal(t, 44, rows[0].Render.Triangles)
	assert.Nil(t, rows[0].GPU)
}

func TestHostStopsOnCancel(t *testing.T) {
	cfg := loadTestConfig(t, "")

	h, err := newHost(context.Background(), cfg, &bytes.Buffer{}, logger.Nop())
	require.NoError(t, err)
	defer h.close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, h.run(ctx, make(chan time.Time), nil))
}

func TestHostSceneFile(t *testing.T) {
	dir := t.TempDir()
	sceneFile := filepath.Join(dir, "scene.yaml")
	require.NoError(t, os.WriteFile(sceneFile, []byte(`
name: floor
geometries:
  plane: {kind: plane}
materials:
  floor: {shader: lambert}
meshes:
  - {name: floor, geometry: plane, materials: [floor]}
`), 0o600))

	cfg := loadTestConfig(t, fmt.Sprintf("\n[scene]\nfile = %q\n", sceneFile))

	h, err := newHost(context.Background(), cfg, &bytes.Buffer{}, logger.Nop())
	require.NoError(t, err)
	defer h.close()

	assert.Equal(t, []string{"floor"}, h.renderer.Visible())

	cfg.Scene.File = filepath.Join(dir, "missing.yaml")
	_, err = newHost(context.Background(), cfg, &bytes.Buffer{}, logger.Nop())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrLoadScene))
}

func TestHostHidesMeshes(t *testing.T) {
	cfg := loadTestConfig(t, "\n[scene]\nhide = [\"icosahedron\"]\n")

	h, err := newHost(context.Background(), cfg, &bytes.Buffer{}, logger.Nop())
	require.NoError(t, err)
	defer h.close()

	assert.Equal(t, []string{"cube-green", "cube-blue"}, h.renderer.Visible())

	cfg.Scene.Hide = []string{"teapot"}
	_, err = newHost(context.Background(), cfg, &bytes.Buffer{}, logger.Nop())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrLoadScene))
	assert.True(t, errors.HasCode(err, scene.ErrUnknownMesh))
}

func TestWriteHistory(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, writeHistory(&out, nil))
	assert.Equal(t, "No ticks recorded\n", out.String())

	out.Reset()
	rows := []metrics.MetricsSnapshot{{
		Timestamp: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Frame:     metrics.FrameMetrics{FPS: 60, AvgFrameTime: 16.67},
		Render:    metrics.RenderMetrics{DrawCalls: 5, Triangles: 33840},
		Score:     metrics.ScoreMetrics{Total: 95},
		GPU:       &metrics.GPUMetrics{Utilization: 87},
	}}
	require.NoError(t, writeHistory(&out, rows))

	assert.Contains(t, out.String(), "SCORE")
	assert.Contains(t, out.String(), "2024-03-01 12:00:00")
	assert.Contains(t, out.String(), "33,840")
	assert.Contains(t, out.String(), "87")
}
