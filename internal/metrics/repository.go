package metrics

import (
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	"codeberg.org/mutker/framescore/internal/errors"
	"codeberg.org/mutker/framescore/internal/logger"
	_ "github.com/mattn/go-sqlite3"
)

type repository struct {
	db            *sql.DB
	logger        logger.Logger
	cfg           Config
	mu            sync.Mutex
	buffer        []*MetricsSnapshot
	flushTicker   *time.Ticker
	shutdownChan  chan struct{}
	flushDoneChan chan struct{}
	closeOnce     sync.Once
}

// NewRepository opens (or creates) the SQLite tick history at cfg.DBPath.
// Snapshots are buffered and written in batches of cfg.BatchSize, or every
// cfg.BatchTimeout seconds, whichever comes first.
func NewRepository(cfg Config, log logger.Logger) (MetricsRepository, error) {
	errFactory := errors.New()

	if cfg.DBPath == "" {
		return nil, errFactory.New(ErrInvalidDBPath)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), defaultDirPerm); err != nil {
		return nil, errFactory.WithData(ErrStorageInit, struct {
			Phase string
			Path  string
			Error string
		}{
			Phase: "create_directory",
			Path:  cfg.DBPath,
			Error: err.Error(),
		})
	}

	dsn := cfg.DBPath + "?_journal=WAL&_auto_vacuum=2"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errFactory.WithData(ErrStorageInit, struct {
			Phase string
			Error string
		}{
			Phase: "open_database",
			Error: err.Error(),
		})
	}

	if err := ValidateAndUpdateSchema(db, cfg.backupDir(), log); err != nil {
		db.Close()
		return nil, errFactory.WithData(ErrStorageInit, struct {
			Phase string
			Error string
		}{
			Phase: "schema_version",
			Error: err.Error(),
		})
	}

	log.Info().
		Str("path", cfg.DBPath).
		Int("schema_version", SchemaVersion).
		Int("batch_size", cfg.BatchSize).
		Int("batch_timeout", cfg.BatchTimeout).
		Msg("Metrics repository initialized")

	repo := &repository{
		db:            db,
		logger:        log,
		cfg:           cfg,
		buffer:        make([]*MetricsSnapshot, 0, max(cfg.BatchSize, 1)),
		shutdownChan:  make(chan struct{}),
		flushDoneChan: make(chan struct{}),
	}

	if cfg.BatchSize > 0 && cfg.BatchTimeout > 0 {
		repo.flushTicker = time.NewTicker(time.Duration(cfg.BatchTimeout) * time.Second)
		go repo.flusher()
	} else {
		close(repo.flushDoneChan)
	}

	return repo, nil
}

func (r *repository) Record(snapshot *MetricsSnapshot) error {
	if snapshot == nil {
		return errors.New().New(ErrInvalidMetrics)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.buffer = append(r.buffer, snapshot)

	if len(r.buffer) >= r.cfg.BatchSize {
		return r.flush()
	}

	return nil
}

// Recent returns up to limit rows, newest first. Buffered snapshots are
// flushed before reading.
func (r *repository) Recent(limit int) ([]MetricsSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.flush(); err != nil {
		return nil, err
	}

	return queryRecent(r.db, limit)
}

func queryRecent(db *sql.DB, limit int) ([]MetricsSnapshot, error) {
	errFactory := errors.New()

	rows, err := db.Query(selectRecentSQL, limit)
	if err != nil {
		return nil, errFactory.Wrap(ErrStorageAccess, err)
	}
	defer rows.Close()

	var out []MetricsSnapshot
	for rows.Next() {
		s, err := scanTick(rows)
		if err != nil {
			return nil, errFactory.Wrap(ErrStorageAccess, err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, errFactory.Wrap(ErrStorageAccess, err)
	}

	return out, nil
}

func (r *repository) Close() error {
	var err error
	r.closeOnce.Do(func() {
		err = r.close()
	})

	return err
}

func (r *repository) close() error {
	close(r.shutdownChan)
	if r.flushTicker != nil {
		r.flushTicker.Stop()
	}

	// Wait for the flusher to finish its final flush
	<-r.flushDoneChan

	r.mu.Lock()
	r.flush()
	r.mu.Unlock()

	if _, err := r.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return errors.New().WithData(ErrStorageClose, struct {
			Phase string
			Error string
		}{
			Phase: "checkpoint_wal",
			Error: err.Error(),
		})
	}

	if err := r.db.Close(); err != nil {
		return errors.New().WithData(ErrStorageClose, struct {
			Phase string
			Error string
		}{
			Phase: "close_database",
			Error: err.Error(),
		})
	}

	r.logger.Info().Msg("Metrics repository closed gracefully")

	return nil
}

func (r *repository) flusher() {
	defer close(r.flushDoneChan)

	for {
		select {
		case <-r.flushTicker.C:
			r.mu.Lock()
			r.flush()
			r.mu.Unlock()
		case <-r.shutdownChan:
			return
		}
	}
}

// flush writes the buffer in one transaction and empties it. A batch that
// cannot be written is dropped rather than retried. Callers hold r.mu.
func (r *repository) flush() error {
	if len(r.buffer) == 0 {
		return nil
	}

	err := r.writeBatch()
	if err != nil {
		r.logger.Warn().Err(err).Int("records", len(r.buffer)).Msg("Dropping ticks that could not be written")
	} else {
		r.logger.Debug().Int("records", len(r.buffer)).Msg("Flushed ticks to database")
	}
	clear(r.buffer)
	r.buffer = r.buffer[:0]

	return err
}

func (r *repository) writeBatch() error {
	errFactory := errors.New()

	tx, err := r.db.Begin()
	if err != nil {
		r.logger.Error().Err(err).Msg("Failed to begin transaction")
		return errFactory.Wrap(ErrTransactionFailed, err)
	}

	stmt, err := tx.Prepare(insertTickSQL)
	if err != nil {
		r.logger.Error().Err(err).Msg("Failed to prepare statement")
		if err := tx.Rollback(); err != nil {
			r.logger.Error().Err(err).Msg("Failed to roll back transaction")
		}
		return errFactory.Wrap(ErrTransactionFailed, err)
	}
	defer stmt.Close()

	for _, snapshot := range r.buffer {
		if _, err := stmt.Exec(tickValues(snapshot)...); err != nil {
			r.logger.Error().Err(err).Msg("Failed to execute insert")
			if err := tx.Rollback(); err != nil {
				r.logger.Error().Err(err).Msg("Failed to roll back transaction")
			}
			return errFactory.Wrap(ErrTransactionFailed, err)
		}
	}

	if err := tx.Commit(); err != nil {
		r.logger.Error().Err(err).Msg("Failed to commit transaction")
		return errFactory.Wrap(ErrTransactionFailed, err)
	}

	return nil
}

func tickValues(s *MetricsSnapshot) []any {
	values := []any{
		s.Timestamp.UnixMilli(),
		int64(s.Frame.FPS),
		s.Frame.FrameTime,
		s.Frame.AvgFrameTime,
		int64(s.Render.DrawCalls),
		int64(s.Render.Triangles),
		int64(s.Resources.Geometries),
		int64(s.Resources.Textures),
		int64(s.Resources.Programs),
		int64(s.Score.Total),
		s.Score.FPS,
		s.Score.FrameTime,
		s.Score.DrawCalls,
		s.Score.Memory,
		int64(boolToInt(s.GPU != nil)),
	}

	if s.GPU == nil {
		return append(values, nil, nil, nil, nil, nil)
	}

	return append(values,
		int64(s.GPU.Utilization),
		int64(s.GPU.MemoryUtilization),
		int64(s.GPU.Temperature),
		int64(s.GPU.AvgTemperature),
		int64(s.GPU.MemoryUsedMiB),
	)
}

func scanTick(rows *sql.Rows) (MetricsSnapshot, error) {
	var (
		s          MetricsSnapshot
		ts         int64
		gpuSampled int
		util       sql.NullInt64
		memUtil    sql.NullInt64
		temp       sql.NullInt64
		tempAvg    sql.NullInt64
		memUsed    sql.NullInt64
	)

	err := rows.Scan(
		&ts,
		&s.Frame.FPS, &s.Frame.FrameTime, &s.Frame.AvgFrameTime,
		&s.Render.DrawCalls, &s.Render.Triangles,
		&s.Resources.Geometries, &s.Resources.Textures, &s.Resources.Programs,
		&s.Score.Total, &s.Score.FPS, &s.Score.FrameTime, &s.Score.DrawCalls, &s.Score.Memory,
		&gpuSampled, &util, &memUtil, &temp, &tempAvg, &memUsed,
	)
	if err != nil {
		return s, err
	}

	s.Timestamp = time.UnixMilli(ts)
	if gpuSampled == 1 {
		s.GPU = &GPUMetrics{
			Utilization:       int(util.Int64),
			MemoryUtilization: int(memUtil.Int64),
			Temperature:       int(temp.Int64),
			AvgTemperature:    int(tempAvg.Int64),
			MemoryUsedMiB:     int(memUsed.Int64),
		}
	}

	return s, nil
}
