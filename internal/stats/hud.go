package stats

// Level grades a metric for display.
type Level int

const (
	LevelGood Level = iota
	LevelFair
	LevelPoor
)

func (l Level) String() string {
	switch l {
	case LevelGood:
		return "good"
	case LevelFair:
		return "fair"
	case LevelPoor:
		return "poor"
	default:
		return "unknown"
	}
}

func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// HUD is the content of the on-screen overlay.
type HUD struct {
	Score         int     `json:"score"`
	ScoreLevel    Level   `json:"score_level"`
	HasBaseline   bool    `json:"has_baseline"`
	BaselineScore int     `json:"baseline_score,omitempty"`
	FPS           int     `json:"fps"`
	AvgFPS        int     `json:"avg_fps"`
	FPSLevel      Level   `json:"fps_level"`
	FrameTime     float64 `json:"frame_time_ms"`
	DrawCalls     int     `json:"draw_calls"`
	Triangles     int     `json:"triangles"`
}

// ScoreDelta is the score change since the baseline.
func (h HUD) ScoreDelta() int {
	if !h.HasBaseline {
		return 0
	}

	return h.Score - h.BaselineScore
}

// HUD builds the overlay content for the current state.
func (c *Collector) HUD() HUD {
	report := c.Report()
	score := c.ComputeScore()

	hud := HUD{
		Score:      score.Total,
		ScoreLevel: grade(score.Total, c.cfg.Levels.ScorePoor, c.cfg.Levels.ScoreFair),
		FPS:        report.FPS,
		AvgFPS:     report.AvgFPS,
		FPSLevel:   grade(report.FPS, c.cfg.Levels.FPSPoor, c.cfg.Levels.FPSFair),
		FrameTime:  report.FrameTime,
		DrawCalls:  report.DrawCalls,
		Triangles:  report.Triangles,
	}

	if c.baseline != nil {
		hud.HasBaseline = true
		hud.BaselineScore = c.baseline.Score.Total
	}

	return hud
}

// Render writes the HUD onto the display surface. A missing or failing
// surface is logged and otherwise ignored so the render loop keeps going.
func (c *Collector) Render() {
	if c.surface == nil {
		c.logger.Debug().
			Str("error_code", string(ErrSurfaceMissing)).
			Msg("No display surface, skipping overlay update")
		return
	}

	if err := c.surface.Show(c.HUD()); err != nil {
		c.logger.Warn().
			Str("error_code", string(ErrSurfaceUpdate)).
			Err(err).
			Msg("Failed to update overlay")
	}
}

func grade(value, poor, fair int) Level {
	if value < poor {
		return LevelPoor
	}
	if value < fair {
		return LevelFair
	}

	return LevelGood
}
