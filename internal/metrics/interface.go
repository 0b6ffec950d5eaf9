package metrics

import (
	"context"
	"time"

	"codeberg.org/mutker/framescore/internal/stats"
)

// MetricsCollector receives one snapshot per collector tick.
type MetricsCollector interface {
	Record(ctx context.Context, snapshot *MetricsSnapshot) error
	Close() error
}

// MetricsRepository defines the interface for tick history storage
type MetricsRepository interface {
	Record(snapshot *MetricsSnapshot) error
	Recent(limit int) ([]MetricsSnapshot, error)
	Close() error
}

// HistoryReader reads an existing tick history without modifying it.
type HistoryReader interface {
	Recent(limit int) ([]MetricsSnapshot, error)
	Close() error
}

// MetricsSnapshot is the per-tick record written to every sink.
type MetricsSnapshot struct {
	Timestamp time.Time
	Frame     FrameMetrics
	Render    RenderMetrics
	Resources ResourceMetrics
	Score     ScoreMetrics
	GPU       *GPUMetrics
}

type FrameMetrics struct {
	FPS          int
	FrameTime    float64
	AvgFrameTime float64
}

type RenderMetrics struct {
	DrawCalls int
	Triangles int
}

type ResourceMetrics struct {
	Geometries int
	Textures   int
	Programs   int
}

func (r ResourceMetrics) Total() int {
	return r.Geometries + r.Textures + r.Programs
}

type ScoreMetrics struct {
	Total     int
	FPS       float64
	FrameTime float64
	DrawCalls float64
	Memory    float64
}

// GPUMetrics is the host GPU load at tick time. Nil when sampling is off.
type GPUMetrics struct {
	Utilization       int
	MemoryUtilization int
	Temperature       int
	AvgTemperature    int
	MemoryUsedMiB     int
}

// NewSnapshot builds a snapshot from a collector tick and the score at that
// moment.
func NewSnapshot(snap stats.Snapshot, score stats.ScoreBreakdown) *MetricsSnapshot {
	return &MetricsSnapshot{
		Timestamp: snap.Timestamp,
		Frame: FrameMetrics{
			FPS:          snap.FPS,
			FrameTime:    snap.FrameTime,
			AvgFrameTime: score.Details.AvgFrameTime,
		},
		Render: RenderMetrics{
			DrawCalls: snap.DrawCalls,
			Triangles: snap.Triangles,
		},
		Resources: ResourceMetrics{
			Geometries: snap.Geometries,
			Textures:   snap.Textures,
			Programs:   snap.Programs,
		},
		Score: ScoreMetrics{
			Total:     score.Total,
			FPS:       score.FPS,
			FrameTime: score.FrameTime,
			DrawCalls: score.DrawCalls,
			Memory:    score.Memory,
		},
	}
}
