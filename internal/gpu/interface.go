package gpu

import "github.com/NVIDIA/go-nvml/pkg/nvml"

// Sampler reads the host GPU load once per collector tick.
type Sampler interface {
	Sample() (Load, error)
	Shutdown() error
}

// Load is one reading of the device.
type Load struct {
	Name              string
	Utilization       int // percent
	MemoryUtilization int // percent
	Temperature       int // °C
	AvgTemperature    int // °C, over the last few samples
	MemoryUsed        uint64
	MemoryTotal       uint64
}

// MemoryUsedMiB returns the used framebuffer memory in MiB.
func (l Load) MemoryUsedMiB() int {
	return int(l.MemoryUsed / (1 << 20))
}

// device is the part of nvml.Device the sampler reads.
type device interface {
	GetName() (string, nvml.Return)
	GetUtilizationRates() (nvml.Utilization, nvml.Return)
	GetTemperature(sensor nvml.TemperatureSensors) (uint32, nvml.Return)
	GetMemoryInfo() (nvml.Memory, nvml.Return)
}
