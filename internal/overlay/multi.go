package overlay

import (
	"codeberg.org/mutker/framescore/internal/errors"
	"codeberg.org/mutker/framescore/internal/stats"
)

// Multi shows the same HUD on every surface, continuing past failures.
type Multi []stats.Surface

func (m Multi) Show(hud stats.HUD) error {
	var errs []error
	for _, surface := range m {
		if surface == nil {
			continue
		}
		if err := surface.Show(hud); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
