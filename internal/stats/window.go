package stats

import (
	"math"

	"github.com/samber/lo"
)

// Window is a fixed-capacity FIFO of frame samples in milliseconds. Pushing
// into a full window overwrites the oldest sample.
type Window struct {
	samples []float64
	head    int
	count   int
}

func NewWindow(capacity int) *Window {
	if capacity <= 0 {
		capacity = defaultWindowSize
	}

	return &Window{samples: make([]float64, capacity)}
}

func (w *Window) Push(sample float64) {
	w.samples[w.head] = sample
	w.head = (w.head + 1) % len(w.samples)
	if w.count < len(w.samples) {
		w.count++
	}
}

func (w *Window) Len() int {
	return w.count
}

func (w *Window) Cap() int {
	return len(w.samples)
}

// Values returns the samples oldest first.
func (w *Window) Values() []float64 {
	values := make([]float64, 0, w.count)
	start := (w.head - w.count + len(w.samples)) % len(w.samples)
	for i := 0; i < w.count; i++ {
		values = append(values, w.samples[(start+i)%len(w.samples)])
	}

	return values
}

// Mean returns the average sample. ok is false when the window is empty or
// the mean is not a positive finite number.
func (w *Window) Mean() (mean float64, ok bool) {
	if w.count == 0 {
		return 0, false
	}

	mean = lo.Sum(w.Values()) / float64(w.count)
	if mean <= 0 || math.IsNaN(mean) || math.IsInf(mean, 0) {
		return 0, false
	}

	return mean, true
}
