package metrics

import (
	"context"

	"codeberg.org/mutker/framescore/internal/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "framescore"

type promCollector struct {
	ticks        prometheus.Counter
	fps          prometheus.Gauge
	frameTime    prometheus.Gauge
	avgFrameTime prometheus.Gauge
	drawCalls    prometheus.Gauge
	triangles    prometheus.Gauge
	resources    *prometheus.GaugeVec
	score        prometheus.Gauge
	subscores    *prometheus.GaugeVec
	gpu          *prometheus.GaugeVec
}

// NewPrometheus registers the tick gauges on reg and returns a collector
// that updates them.
func NewPrometheus(reg prometheus.Registerer) MetricsCollector {
	factory := promauto.With(reg)

	return &promCollector{
		ticks: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Number of collector ticks recorded",
		}),
		fps: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "fps",
			Help:      "Frames counted during the last tick interval",
		}),
		frameTime: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "frame_time_milliseconds",
			Help:      "Duration of the most recent frame",
		}),
		avgFrameTime: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "avg_frame_time_milliseconds",
			Help:      "Mean frame duration over the sample window",
		}),
		drawCalls: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "draw_calls",
			Help:      "Draw calls submitted by the last frame",
		}),
		triangles: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "triangles",
			Help:      "Triangles submitted by the last frame",
		}),
		resources: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "resources",
			Help:      "GPU-resident resources",
		}, []string{"kind"}), // kind: geometry, texture, program
		score: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "score",
			Help:      "Composite performance score, 0-100",
		}),
		subscores: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "score_points",
			Help:      "Points contributed by each score axis",
		}, []string{"axis"}), // axis: fps, frame_time, draw_calls, memory
		gpu: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "gpu_load",
			Help:      "Host GPU load sampled at tick time",
		}, []string{"metric"}), // metric: utilization, memory_utilization, temperature, memory_used_mib
	}
}

func (p *promCollector) Record(_ context.Context, s *MetricsSnapshot) error {
	if s == nil {
		return errors.New().New(ErrInvalidMetrics)
	}

	p.ticks.Inc()
	p.fps.Set(float64(s.Frame.FPS))
	p.frameTime.Set(s.Frame.FrameTime)
	p.avgFrameTime.Set(s.Frame.AvgFrameTime)
	p.drawCalls.Set(float64(s.Render.DrawCalls))
	p.triangles.Set(float64(s.Render.Triangles))

	p.resources.WithLabelValues("geometry").Set(float64(s.Resources.Geometries))
	p.resources.WithLabelValues("texture").Set(float64(s.Resources.Textures))
	p.resources.WithLabelValues("program").Set(float64(s.Resources.Programs))

	p.score.Set(float64(s.Score.Total))
	p.subscores.WithLabelValues("fps").Set(s.Score.FPS)
	p.subscores.WithLabelValues("frame_time").Set(s.Score.FrameTime)
	p.subscores.WithLabelValues("draw_calls").Set(s.Score.DrawCalls)
	p.subscores.WithLabelValues("memory").Set(s.Score.Memory)

	if s.GPU != nil {
		p.gpu.WithLabelValues("utilization").Set(float64(s.GPU.Utilization))
		p.gpu.WithLabelValues("memory_utilization").Set(float64(s.GPU.MemoryUtilization))
		p.gpu.WithLabelValues("temperature").Set(float64(s.GPU.Temperature))
		p.gpu.WithLabelValues("temperature_avg").Set(float64(s.GPU.AvgTemperature))
		p.gpu.WithLabelValues("memory_used_mib").Set(float64(s.GPU.MemoryUsedMiB))
	}

	return nil
}

func (*promCollector) Close() error {
	return nil
}
