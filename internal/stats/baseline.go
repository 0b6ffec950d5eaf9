package stats

import "codeberg.org/mutker/framescore/internal/errors"

// SaveBaseline captures the current report and score as the comparison
// reference, replacing any previous baseline.
func (c *Collector) SaveBaseline() Baseline {
	baseline := Baseline{
		Report:     c.Report(),
		Score:      c.ComputeScore(),
		CapturedAt: c.lastFrame,
	}
	c.baseline = &baseline

	c.logger.Info().
		Int("score", baseline.Score.Total).
		Int("avg_fps", baseline.Report.AvgFPS).
		Float64("avg_frame_time_ms", baseline.Report.AvgFrameTime).
		Int("draw_calls", baseline.Report.DrawCalls).
		Int("triangles", baseline.Report.Triangles).
		Msg("Baseline saved")

	return baseline
}

// Baseline returns the saved baseline, if any.
func (c *Collector) Baseline() (Baseline, bool) {
	if c.baseline == nil {
		return Baseline{}, false
	}

	return *c.baseline, true
}

// CompareToBaseline compares the current state with the saved baseline. When
// no baseline has been saved it returns an ErrNoBaseline error; callers
// should surface it as a warning.
func (c *Collector) CompareToBaseline() (Comparison, error) {
	if c.baseline == nil {
		return Comparison{}, errors.New().New(ErrNoBaseline)
	}

	base := *c.baseline
	current := c.Report()
	score := c.ComputeScore()

	return Comparison{
		Baseline:     base,
		Current:      current,
		CurrentScore: score,
		Score:        gain(float64(score.Total), float64(base.Score.Total)),
		FPS:          gain(float64(current.AvgFPS), float64(base.Report.AvgFPS)),
		FrameTime:    reduction(current.AvgFrameTime, base.Report.AvgFrameTime),
		DrawCalls:    reduction(float64(current.DrawCalls), float64(base.Report.DrawCalls)),
		Triangles:    reduction(float64(current.Triangles), float64(base.Report.Triangles)),
	}, nil
}

// gain is the relative increase of a higher-is-better value.
func gain(current, baseline float64) Improvement {
	if baseline == 0 || !finite(baseline) || !finite(current) {
		return Improvement{}
	}

	percent := (current - baseline) / baseline * 100
	if !finite(percent) {
		percent = 0
	}

	return Improvement{Percent: percent, Applicable: true}
}

// reduction is the relative decrease of a lower-is-better value.
func reduction(current, baseline float64) Improvement {
	if baseline == 0 || !finite(baseline) || !finite(current) {
		return Improvement{}
	}

	percent := (baseline - current) / baseline * 100
	if !finite(percent) {
		percent = 0
	}

	return Improvement{Percent: percent, Applicable: true}
}
