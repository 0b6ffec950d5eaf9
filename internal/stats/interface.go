package stats

import "time"

// CounterSource exposes the renderer's per-frame counters. It is polled once
// per tick and never written to.
type CounterSource interface {
	Counters() Counters
}

// Surface is the display region the HUD is written into.
type Surface interface {
	Show(hud HUD) error
}

// Counters are the renderer statistics for the most recent frame.
type Counters struct {
	DrawCalls  int `json:"draw_calls"`
	Triangles  int `json:"triangles"`
	Geometries int `json:"geometries"`
	Textures   int `json:"textures"`
	Programs   int `json:"programs"`
}

// Resources returns the number of GPU-resident resources.
func (c Counters) Resources() int {
	return c.Geometries + c.Textures + c.Programs
}

// Snapshot is the state derived at the end of a tick interval.
type Snapshot struct {
	Timestamp time.Time `json:"timestamp"`
	FPS       int       `json:"fps"`
	FrameTime float64   `json:"frame_time_ms"`
	Counters
}

// ScoreBreakdown is the composite score and its per-axis terms.
type ScoreBreakdown struct {
	FPS       float64      `json:"fps"`
	FrameTime float64      `json:"frame_time"`
	DrawCalls float64      `json:"draw_calls"`
	Memory    float64      `json:"memory"`
	Total     int          `json:"total"`
	Details   ScoreDetails `json:"details"`
}

// ScoreDetails are the inputs the score was derived from.
type ScoreDetails struct {
	AvgFPS       int     `json:"avg_fps"`
	AvgFrameTime float64 `json:"avg_frame_time_ms"`
	DrawCalls    int     `json:"draw_calls"`
	Resources    int     `json:"resources"`
}

// MemoryReport lists resident GPU resources by kind.
type MemoryReport struct {
	Geometries int `json:"geometries"`
	Textures   int `json:"textures"`
	Programs   int `json:"programs"`
}

// Report is a point-in-time summary of frame performance.
type Report struct {
	FPS          int          `json:"fps"`
	AvgFPS       int          `json:"avg_fps"`
	FrameTime    float64      `json:"frame_time_ms"`
	AvgFrameTime float64      `json:"avg_frame_time_ms"`
	DrawCalls    int          `json:"draw_calls"`
	Triangles    int          `json:"triangles"`
	Memory       MemoryReport `json:"memory"`
}

// Baseline is a saved report and score used as a comparison reference.
type Baseline struct {
	Report     Report         `json:"report"`
	Score      ScoreBreakdown `json:"score"`
	CapturedAt time.Time      `json:"captured_at"`
}

// Improvement is a percentage change against the baseline. Positive values
// are always better. Applicable is false when the baseline value is zero.
type Improvement struct {
	Percent    float64 `json:"percent"`
	Applicable bool    `json:"applicable"`
}

// Comparison reports the current state against the saved baseline.
type Comparison struct {
	Baseline     Baseline       `json:"baseline"`
	Current      Report         `json:"current"`
	CurrentScore ScoreBreakdown `json:"current_score"`
	Score        Improvement    `json:"score"`
	FPS          Improvement    `json:"fps"`
	FrameTime    Improvement    `json:"frame_time"`
	DrawCalls    Improvement    `json:"draw_calls"`
	Triangles    Improvement    `json:"triangles"`
}
