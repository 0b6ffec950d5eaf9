package metrics

import (
	"database/sql"

	"codeberg.org/mutker/framescore/internal/errors"
	"codeberg.org/mutker/framescore/internal/logger"
)

const (
	SchemaVersion = 2

	// SQL statements derived from schema
	createTablesSQL = `
	   CREATE TABLE IF NOT EXISTS schema_versions (
	       version     INTEGER PRIMARY KEY,
	       applied_at  TEXT NOT NULL
	   );
	   CREATE TABLE IF NOT EXISTS ticks (
	       timestamp        INTEGER PRIMARY KEY,
	       fps              INTEGER NOT NULL CHECK (typeof(fps) = 'integer'),
	       frame_time       REAL    NOT NULL,
	       avg_frame_time   REAL    NOT NULL,
	       draw_calls       INTEGER NOT NULL CHECK (typeof(draw_calls) = 'integer'),
	       triangles        INTEGER NOT NULL CHECK (typeof(triangles) = 'integer'),
	       geometries       INTEGER NOT NULL CHECK (typeof(geometries) = 'integer'),
	       textures         INTEGER NOT NULL CHECK (typeof(textures) = 'integer'),
	       programs         INTEGER NOT NULL CHECK (typeof(programs) = 'integer'),
	       score            INTEGER NOT NULL CHECK (score BETWEEN 0 AND 100),
	       score_fps        REAL    NOT NULL,
	       score_frame_time REAL    NOT NULL,
	       score_draw_calls REAL    NOT NULL,
	       score_memory     REAL    NOT NULL,
	       gpu_sampled      INTEGER NOT NULL CHECK (gpu_sampled IN (0, 1)),
	       gpu_utilization  INTEGER,
	       gpu_memory_util  INTEGER,
	       gpu_temperature  INTEGER,
	       gpu_temp_avg     INTEGER,
	       gpu_memory_used  INTEGER
	   );`

	insertTickSQL = `
    INSERT OR REPLACE INTO ticks (
        timestamp,
        fps, frame_time, avg_frame_time,
        draw_calls, triangles,
        geometries, textures, programs,
        score, score_fps, score_frame_time, score_draw_calls, score_memory,
        gpu_sampled, gpu_utilization, gpu_memory_util, gpu_temperature, gpu_temp_avg, gpu_memory_used
    ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	selectRecentSQL = `
    SELECT
        timestamp,
        fps, frame_time, avg_frame_time,
        draw_calls, triangles,
        geometries, textures, programs,
        score, score_fps, score_frame_time, score_draw_calls, score_memory,
        gpu_sampled, gpu_utilization, gpu_memory_util, gpu_temperature, gpu_temp_avg, gpu_memory_used
    FROM ticks
    ORDER BY timestamp DESC
    LIMIT ?`
)

// InitSchema creates a new database schema with the current version
func InitSchema(db *sql.DB, log logger.Logger) error {
	errFactory := errors.New()

	log.Debug().Msg("Creating database...")

	tx, err := db.Begin()
	if err != nil {
		return errFactory.Wrap(ErrSchemaInitFailed, err)
	}

	// Track transaction state
	committed := false
	defer func() {
		if !committed {
			if err := tx.Rollback(); err != nil {
				if !errors.Is(err, sql.ErrTxDone) {
					log.Debug().Err(err).Msg("Failed to rollback transaction")
				}
			}
		}
	}()

	log.Debug().Str("sql", createTablesSQL).Msg("Executing SQL statement")
	if _, err := tx.Exec(createTablesSQL); err != nil {
		return errFactory.WithData(ErrSchemaInitFailed, struct {
			Error string
			SQL   string
		}{
			Error: err.Error(),
			SQL:   createTablesSQL,
		})
	}

	if _, err := tx.Exec(`
        INSERT INTO schema_versions (version, applied_at)
        VALUES (?, datetime('now'))
    `, SchemaVersion); err != nil {
		return errFactory.WithData(ErrSchemaInitFailed, struct {
			Error string
			Phase string
		}{
			Error: err.Error(),
			Phase: "record_version",
		})
	}

	if err := tx.Commit(); err != nil {
		return errFactory.Wrap(ErrSchemaInitFailed, err)
	}
	committed = true

	log.Info().
		Int("version", SchemaVersion).
		Msg("Schema initialized successfully")

	return nil
}

// GetSchemaVersion returns the current schema version, 0 for an empty
// database.
func GetSchemaVersion(db *sql.DB) (int, error) {
	errFactory := errors.New()

	exists, err := TableExists(db, "schema_versions")
	if err != nil {
		return 0, errFactory.Wrap(ErrSchemaValidationFailed, err)
	}
	if !exists {
		return 0, nil
	}

	var version int
	err = db.QueryRow(`
        SELECT version
        FROM schema_versions
        ORDER BY version DESC
        LIMIT 1
    `).Scan(&version)

	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, errFactory.WithData(ErrSchemaValidationFailed, struct {
			Phase string
			Error string
		}{
			Phase: "get_version",
			Error: err.Error(),
		})
	}

	return version, nil
}

// TableExists checks if a table exists
func TableExists(db *sql.DB, tableName string) (bool, error) {
	errFactory := errors.New()

	var exists bool
	err := db.QueryRow(`
        SELECT EXISTS (
            SELECT 1 FROM sqlite_master
            WHERE type='table' AND name=?
        )
    `, tableName).Scan(&exists)
	if err != nil {
		return false, errFactory.WithData(ErrSchemaValidationFailed, struct {
			Phase string
			Table string
			Error string
		}{
			Phase: "check_table_exists",
			Table: tableName,
			Error: err.Error(),
		})
	}

	return exists, nil
}
