package scene

import (
	"bytes"
	"context"
	"embed"
	"io"
	"os"
	"path"
	"sort"
	"strings"

	"codeberg.org/mutker/framescore/internal/errors"
)

//go:embed presets/*.yaml
var presets embed.FS

const readChunk = 32 * 1024

// ProgressFunc receives the fraction of a load completed, in [0, 1].
type ProgressFunc func(fraction float64)

// Preset returns one of the built-in scenes.
func Preset(name string) (*Scene, error) {
	data, err := presets.ReadFile(path.Join("presets", name+".yaml"))
	if err != nil {
		return nil, errors.New().WithData(ErrUnknownPreset, name)
	}

	return Parse(data)
}

// Presets lists the built-in scene names.
func Presets() []string {
	entries, err := presets.ReadDir("presets")
	if err != nil {
		return nil
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(names)

	return names
}

// Load reads a YAML scene file, reporting progress as it goes. It returns
// early with the context error if ctx is cancelled.
func Load(ctx context.Context, filename string, progress ProgressFunc) (*Scene, error) {
	errFactory := errors.New()

	if progress == nil {
		progress = func(float64) {}
	}

	f, err := os.Open(filename)
	if err != nil {
		return nil, errFactory.Wrap(ErrReadScene, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, errFactory.Wrap(ErrReadScene, err)
	}
	total := info.Size()

	progress(0)

	var buf bytes.Buffer
	chunk := make([]byte, readChunk)
	for {
		if err := ctx.Err(); err != nil {
			return nil, errFactory.Wrap(ErrReadScene, err)
		}

		n, err := f.Read(chunk)
		buf.Write(chunk[:n])
		if total > 0 {
			// Parsing is the last step; reading stops short of completion.
			progress(min(0.9, 0.9*float64(buf.Len())/float64(total)))
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errFactory.Wrap(ErrReadScene, err)
		}
	}

	s, err := Parse(buf.Bytes())
	if err != nil {
		return nil, err
	}
	progress(1)

	return s, nil
}
