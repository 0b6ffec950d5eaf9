package overlay

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"codeberg.org/mutker/framescore/internal/stats"
	"github.com/muesli/termenv"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	colorGood  = "#00ff00"
	colorFair  = "#ffff00"
	colorPoor  = "#ff0000"
	colorMuted = "#888888"
)

type TerminalOptions struct {
	// Color enables ANSI colours when the writer supports them.
	Color bool
	// Redraw clears the previous HUD before drawing the next one.
	Redraw bool
}

// Terminal draws the HUD as a block of text on a terminal.
type Terminal struct {
	mu      sync.Mutex
	out     *termenv.Output
	printer *message.Printer
	redraw  bool
	lines   int
}

func NewTerminal(w io.Writer, opts TerminalOptions) *Terminal {
	var outputOpts []termenv.OutputOption
	if !opts.Color {
		outputOpts = append(outputOpts, termenv.WithProfile(termenv.Ascii))
	}

	return &Terminal{
		out:     termenv.NewOutput(w, outputOpts...),
		printer: message.NewPrinter(language.English),
		redraw:  opts.Redraw,
	}
}

func (t *Terminal) Show(hud stats.HUD) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	lines := t.format(hud)

	if t.redraw && t.lines > 0 {
		t.out.ClearLines(t.lines)
	}

	if _, err := io.WriteString(t.out, strings.Join(lines, "\n")+"\n"); err != nil {
		return err
	}
	t.lines = len(lines)

	return nil
}

// Write prints p below the current HUD. The next HUD is drawn after it
// instead of overwriting it.
func (t *Terminal) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.lines = 0

	return t.out.Write(p)
}

func (t *Terminal) format(hud stats.HUD) []string {
	score := t.out.String(fmt.Sprintf("%d/100", hud.Score)).
		Foreground(t.out.Color(levelColor(hud.ScoreLevel))).
		Bold()
	fps := t.out.String(fmt.Sprintf("%d", hud.FPS)).
		Foreground(t.out.Color(levelColor(hud.FPSLevel)))

	lines := []string{
		t.out.String("Frame performance").Bold().String(),
		fmt.Sprintf("Score: %s", score),
	}

	if hud.HasBaseline {
		delta := hud.ScoreDelta()
		deltaColor := colorPoor
		if delta > 0 {
			deltaColor = colorGood
		}
		lines = append(lines, t.out.String(fmt.Sprintf("  baseline: %d", hud.BaselineScore)).
			Foreground(t.out.Color(colorMuted)).String()+" "+
			t.out.String(fmt.Sprintf("(%+d)", delta)).Foreground(t.out.Color(deltaColor)).String())
	}

	lines = append(lines,
		fmt.Sprintf("FPS: %s (avg %d)", fps, hud.AvgFPS),
		fmt.Sprintf("Frame time: %.2fms", hud.FrameTime),
		fmt.Sprintf("Draw calls: %d", hud.DrawCalls),
		t.printer.Sprintf("Triangles: %d", hud.Triangles),
	)

	return lines
}

func levelColor(level stats.Level) string {
	switch level {
	case stats.LevelPoor:
		return colorPoor
	case stats.LevelFair:
		return colorFair
	default:
		return colorGood
	}
}
