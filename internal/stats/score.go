package stats

import "math"

const (
	maxScore = 100
	// Absorbs float error so that exact ratios such as 15*0.8 land on their
	// whole point instead of one below it.
	pointEpsilon = 1e-9
)

// Score derives the composite score from an average frame time in
// milliseconds and the renderer counters. A non-positive or non-finite
// average yields an all-zero breakdown.
func Score(cfg ScoreConfig, avgFrameTime float64, counters Counters) ScoreBreakdown {
	if avgFrameTime <= 0 || !finite(avgFrameTime) {
		return ScoreBreakdown{
			Details: ScoreDetails{DrawCalls: counters.DrawCalls},
		}
	}

	avgFPS := math.Round(1000 / avgFrameTime)
	if !finite(avgFPS) {
		avgFPS = 0
	}
	resources := counters.Resources()
	extraDrawCalls := max(0, counters.DrawCalls-cfg.FreeDrawCalls)

	breakdown := ScoreBreakdown{
		FPS:       points(avgFPS/cfg.TargetFPS*cfg.FPSWeight, cfg.FPSWeight),
		FrameTime: points(cfg.FrameTimeWeight*(cfg.TargetFrameTime/avgFrameTime), cfg.FrameTimeWeight),
		DrawCalls: points(cfg.DrawCallWeight*(1-float64(extraDrawCalls)/cfg.DrawCallBudget), cfg.DrawCallWeight),
		Memory:    points(cfg.MemoryWeight*(1-float64(resources)/cfg.ResourceBudget), cfg.MemoryWeight),
		Details: ScoreDetails{
			AvgFPS:       int(clamp(avgFPS, 0, math.MaxInt32)),
			AvgFrameTime: avgFrameTime,
			DrawCalls:    counters.DrawCalls,
			Resources:    resources,
		},
	}

	total := breakdown.FPS + breakdown.FrameTime + breakdown.DrawCalls + breakdown.Memory
	breakdown.Total = int(clamp(total, 0, maxScore))

	return breakdown
}

// points clamps a term to [0, limit] and truncates it to whole points.
func points(value, limit float64) float64 {
	if !finite(value) || !finite(limit) || limit <= 0 {
		return 0
	}

	return clamp(math.Floor(clamp(value, 0, limit)+pointEpsilon), 0, limit)
}

func clamp(value, minValue, maxValue float64) float64 {
	if value < minValue {
		return minValue
	}
	if value > maxValue {
		return maxValue
	}

	return value
}

func finite(value float64) bool {
	return !math.IsNaN(value) && !math.IsInf(value, 0)
}
