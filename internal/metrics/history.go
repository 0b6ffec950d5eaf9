package metrics

import (
	"database/sql"
	"os"

	"codeberg.org/mutker/framescore/internal/errors"
	"codeberg.org/mutker/framescore/internal/logger"
)

type historyReader struct {
	db     *sql.DB
	logger logger.Logger
}

// OpenHistory opens an existing tick history for reading. The database is
// never created, migrated or backed up; a missing file or a schema from
// another version is an error.
func OpenHistory(path string, log logger.Logger) (HistoryReader, error) {
	errFactory := errors.New()

	if path == "" {
		return nil, errFactory.New(ErrInvalidDBPath)
	}

	if _, err := os.Stat(path); err != nil {
		return nil, errFactory.WithData(ErrStorageAccess, struct {
			Phase string
			Path  string
			Error string
		}{
			Phase: "stat_database",
			Path:  path,
			Error: err.Error(),
		})
	}

	db, err := sql.Open("sqlite3", path+"?_query_only=1")
	if err != nil {
		return nil, errFactory.Wrap(ErrStorageAccess, err)
	}

	version, err := GetSchemaVersion(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	if version != SchemaVersion {
		db.Close()
		return nil, errFactory.WithData(ErrSchemaValidationFailed, struct {
			Path     string
			Current  int
			Expected int
		}{
			Path:     path,
			Current:  version,
			Expected: SchemaVersion,
		})
	}

	log.Debug().Str("path", path).Int("schema_version", version).Msg("Opened tick history")

	return &historyReader{db: db, logger: log}, nil
}

// Recent returns up to limit rows, newest first.
func (h *historyReader) Recent(limit int) ([]MetricsSnapshot, error) {
	return queryRecent(h.db, limit)
}

func (h *historyReader) Close() error {
	if err := h.db.Close(); err != nil {
		return errors.New().Wrap(ErrStorageClose, err)
	}

	return nil
}
