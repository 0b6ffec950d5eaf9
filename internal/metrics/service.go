package metrics

import (
	"context"

	"codeberg.org/mutker/framescore/internal/errors"
	"codeberg.org/mutker/framescore/internal/logger"
)

type service struct {
	repo MetricsRepository
	cfg  Config
}

// No-op implementation
type noopMetricsCollector struct{}

// NewService returns the SQLite-backed history collector, or a no-op
// collector when history is disabled.
func NewService(cfg Config, log logger.Logger) (MetricsCollector, error) {
	errFactory := errors.New()

	if err := cfg.Validate(); err != nil {
		return nil, errFactory.Wrap(ErrInvalidConfig, err)
	}

	// If metrics is disabled, return a no-op collector
	if !cfg.Enabled {
		log.Debug().Msg("Tick history disabled, using no-op collector")
		return Noop(), nil
	}

	repo, err := NewRepository(cfg, log)
	if err != nil {
		log.Debug().Err(err).Msg("Failed to create metrics repository")
		return nil, err
	}

	log.Debug().
		Str("db_path", cfg.DBPath).
		Bool("enabled", cfg.Enabled).
		Msg("Metrics service initialized successfully")

	return &service{
		repo: repo,
		cfg:  cfg,
	}, nil
}

// Noop returns a collector that discards every snapshot.
func Noop() MetricsCollector {
	return &noopMetricsCollector{}
}

func (s *service) Record(ctx context.Context, snapshot *MetricsSnapshot) error {
	errFactory := errors.New()

	if snapshot == nil {
		return errFactory.New(ErrInvalidMetrics)
	}

	select {
	case <-ctx.Done():
		return errFactory.Wrap(ErrOperationTimeout, ctx.Err())
	default:
		if err := s.repo.Record(snapshot); err != nil {
			return errFactory.Wrap(ErrMetricsCollection, err)
		}
	}

	return nil
}

func (s *service) Close() error {
	errFactory := errors.New()

	if err := s.repo.Close(); err != nil {
		return errFactory.Wrap(ErrServiceShutdown, err)
	}
	return nil
}

func (*noopMetricsCollector) Record(_ context.Context, _ *MetricsSnapshot) error {
	return nil
}

func (*noopMetricsCollector) Close() error {
	return nil
}

// Multi fans each snapshot out to several collectors. Every collector is
// called even when an earlier one fails.
type Multi []MetricsCollector

func (m Multi) Record(ctx context.Context, snapshot *MetricsSnapshot) error {
	var errs []error
	for _, c := range m {
		if err := c.Record(ctx, snapshot); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, c := range m {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
