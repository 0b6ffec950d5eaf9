package overlay

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"codeberg.org/mutker/framescore/internal/stats"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const boxWidth = 58

type box struct {
	b strings.Builder
}

func (x *box) border(left, right string) {
	x.b.WriteString(left + strings.Repeat("═", boxWidth) + right + "\n")
}

func (x *box) line(text string) {
	pad := boxWidth - 1 - utf8.RuneCountInString(text)
	if pad < 0 {
		pad = 0
	}
	x.b.WriteString("║ " + text + strings.Repeat(" ", pad) + "║\n")
}

// WriteComparison writes the before/after report for a comparison.
func WriteComparison(w io.Writer, cmp stats.Comparison) error {
	p := message.NewPrinter(language.English)
	base := cmp.Baseline
	cur := cmp.Current
	score := cmp.CurrentScore

	var x box
	x.border("╔", "╗")
	x.line("Frame performance: before / after")
	x.border("╠", "╣")
	x.line("Score")
	x.line(fmt.Sprintf("  before: %d", base.Score.Total))
	x.line(fmt.Sprintf("  after:  %d", score.Total))
	x.line("  change: " + formatImprovement(cmp.Score))
	x.line(fmt.Sprintf("  fps %.0f | frame time %.0f | draw calls %.0f | memory %.0f",
		score.FPS, score.FrameTime, score.DrawCalls, score.Memory))
	x.border("╠", "╣")
	x.line("Average FPS")
	x.line(fmt.Sprintf("  before: %d", base.Report.AvgFPS))
	x.line(fmt.Sprintf("  after:  %d", cur.AvgFPS))
	x.line("  change: " + formatImprovement(cmp.FPS))
	x.border("╠", "╣")
	x.line("Average frame time (ms)")
	x.line(fmt.Sprintf("  before: %.2f", base.Report.AvgFrameTime))
	x.line(fmt.Sprintf("  after:  %.2f", cur.AvgFrameTime))
	x.line("  change: " + formatImprovement(cmp.FrameTime))
	x.border("╠", "╣")
	x.line("Draw calls")
	x.line(fmt.Sprintf("  before: %d", base.Report.DrawCalls))
	x.line(fmt.Sprintf("  after:  %d", cur.DrawCalls))
	x.line("  change: " + formatImprovement(cmp.DrawCalls))
	x.border("╠", "╣")
	x.line("Triangles")
	x.line(p.Sprintf("  before: %d", base.Report.Triangles))
	x.line(p.Sprintf("  after:  %d", cur.Triangles))
	x.line("  change: " + formatImprovement(cmp.Triangles))
	x.border("╚", "╝")

	switch {
	case !cmp.Score.Applicable:
	case cmp.Score.Percent > 0:
		fmt.Fprintf(&x.b, "Score improved by %.1f%%\n", cmp.Score.Percent)
	case cmp.Score.Percent < 0:
		fmt.Fprintf(&x.b, "Score dropped by %.1f%%\n", -cmp.Score.Percent)
	default:
		x.b.WriteString("Score unchanged\n")
	}

	_, err := io.WriteString(w, x.b.String())
	return err
}

// WriteReport writes the current performance and score, with a hint on how
// to get to a comparison. Used when no baseline exists yet.
func WriteReport(w io.Writer, report stats.Report, score stats.ScoreBreakdown) error {
	p := message.NewPrinter(language.English)

	var x box
	x.border("╔", "╗")
	x.line("Frame performance: current")
	x.border("╠", "╣")
	x.line(fmt.Sprintf("Score:       %d/100", score.Total))
	x.line(fmt.Sprintf("  fps %.0f | frame time %.0f | draw calls %.0f | memory %.0f",
		score.FPS, score.FrameTime, score.DrawCalls, score.Memory))
	x.border("╠", "╣")
	x.line(fmt.Sprintf("FPS:         %d (avg %d)", report.FPS, report.AvgFPS))
	x.line(fmt.Sprintf("Frame time:  %.2fms (avg %.2fms)", report.FrameTime, report.AvgFrameTime))
	x.line(fmt.Sprintf("Draw calls:  %d", report.DrawCalls))
	x.line(p.Sprintf("Triangles:   %d", report.Triangles))
	x.border("╠", "╣")
	x.line("Memory")
	x.line(fmt.Sprintf("  Geometries: %d", report.Memory.Geometries))
	x.line(fmt.Sprintf("  Textures:   %d", report.Memory.Textures))
	x.line(fmt.Sprintf("  Programs:   %d", report.Memory.Programs))
	x.border("╠", "╣")
	x.line("No baseline yet:")
	x.line("  1. framescore baseline  (SIGUSR1)")
	x.line("  2. change the scene, then framescore compare  (SIGUSR2)")
	x.border("╚", "╝")

	_, err := io.WriteString(w, x.b.String())
	return err
}

// WriteUsage writes the activation banner describing the score and the
// baseline triggers.
func WriteUsage(w io.Writer, cfg stats.ScoreConfig) error {
	var x box
	x.border("╔", "╗")
	x.line("Frame performance scoring enabled")
	x.border("╠", "╣")
	x.line("Score is 0-100, higher is better:")
	x.line(fmt.Sprintf("  FPS         %2.0f points (%.0f FPS earns all)", cfg.FPSWeight, cfg.TargetFPS))
	x.line(fmt.Sprintf("  frame time  %2.0f points (%.2fms earns all)", cfg.FrameTimeWeight, cfg.TargetFrameTime))
	x.line(fmt.Sprintf("  draw calls  %2.0f points (fewer is better)", cfg.DrawCallWeight))
	x.line(fmt.Sprintf("  memory      %2.0f points (fewer is better)", cfg.MemoryWeight))
	x.border("╠", "╣")
	x.line("Save a baseline:    framescore baseline  (SIGUSR1)")
	x.line("Compare with it:    framescore compare   (SIGUSR2)")
	x.border("╚", "╝")

	_, err := io.WriteString(w, x.b.String())
	return err
}

func formatImprovement(imp stats.Improvement) string {
	if !imp.Applicable {
		return "n/a"
	}

	switch {
	case imp.Percent > 0:
		return fmt.Sprintf("↑ %.1f%%", imp.Percent)
	case imp.Percent < 0:
		return fmt.Sprintf("↓ %.1f%%", -imp.Percent)
	default:
		return "→ 0.0%"
	}
}
