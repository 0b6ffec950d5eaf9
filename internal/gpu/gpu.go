package gpu

import (
	"sync"

	"codeberg.org/mutker/framescore/internal/errors"
	"codeberg.org/mutker/framescore/internal/logger"
	"github.com/NVIDIA/go-nvml/pkg/nvml"
	"github.com/samber/lo"
)

const temperatureWindowSize = 5

// GPU samples load from the first NVML device.
type GPU struct {
	lib                nvmlController
	device             device
	name               string
	log                logger.Logger
	temperatureHistory []int
	mu                 sync.Mutex
}

// New initialises NVML and opens device 0.
func New(log logger.Logger) (*GPU, error) {
	return newGPU(&nvmlWrapper{}, log)
}

func newGPU(lib nvmlController, log logger.Logger) (*GPU, error) {
	errFactory := errors.New()

	if err := lib.Initialize(); err != nil {
		return nil, err
	}

	count, err := lib.GetDeviceCount()
	if err != nil {
		lib.Shutdown()
		return nil, err
	}
	if count == 0 {
		lib.Shutdown()
		return nil, errFactory.WithData(ErrDeviceNotFound, "no NVML devices")
	}

	d, err := lib.GetDevice(0)
	if err != nil {
		lib.Shutdown()
		return nil, err
	}

	g := &GPU{lib: lib, device: d, log: log}

	if name, ret := d.GetName(); IsNVMLSuccess(ret) {
		g.name = name
		log.Info().Str("name", name).Int("devices", count).Msg("Detected GPU")
	} else {
		log.Warn().Str("error", nvml.ErrorString(ret)).Msg("Failed to get GPU name")
	}

	return g, nil
}

// Sample reads utilization, temperature and memory in one pass.
func (g *GPU) Sample() (Load, error) {
	errFactory := errors.New()

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.device == nil {
		return Load{}, errFactory.New(ErrNotInitialized)
	}

	util, ret := g.device.GetUtilizationRates()
	if !IsNVMLSuccess(ret) {
		return Load{}, errFactory.Wrap(ErrUtilizationReadFailed, newNVMLError(ret))
	}

	temp, ret := g.device.GetTemperature(nvml.TEMPERATURE_GPU)
	if !IsNVMLSuccess(ret) {
		return Load{}, errFactory.Wrap(ErrTemperatureReadFailed, newNVMLError(ret))
	}

	mem, ret := g.device.GetMemoryInfo()
	if !IsNVMLSuccess(ret) {
		return Load{}, errFactory.Wrap(ErrMemoryReadFailed, newNVMLError(ret))
	}

	g.temperatureHistory = append(g.temperatureHistory, int(temp))
	if len(g.temperatureHistory) > temperatureWindowSize {
		g.temperatureHistory = g.temperatureHistory[1:]
	}

	return Load{
		Name:              g.name,
		Utilization:       int(util.Gpu),
		MemoryUtilization: int(util.Memory),
		Temperature:       int(temp),
		AvgTemperature:    lo.Sum(g.temperatureHistory) / len(g.temperatureHistory),
		MemoryUsed:        mem.Used,
		MemoryTotal:       mem.Total,
	}, nil
}

// Shutdown releases NVML. Further samples fail with ErrNotInitialized.
func (g *GPU) Shutdown() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.device = nil
	if err := g.lib.Shutdown(); err != nil {
		return err
	}
	g.log.Debug().Msg("NVML shut down")

	return nil
}
