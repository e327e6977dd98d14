package sqlite

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/cocktail-collective/cocktail/internal/port"
	"go.uber.org/zap"
)

// schemaVersion is stamped into the database's user_version pragma. A mirror
// created with a different version is dropped and rebuilt, which resets
// last_updated to the epoch and forces an AllTime resync.
const schemaVersion = 2

// Store implements port.Store on SQLite.
type Store struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// Ensure Store implements port.Store
var _ port.Store = (*Store)(nil)

// Open opens a connection to the SQLite database and prepares the schema.
func Open(dbPath string, logger *zap.Logger) (*Store, error) {
	db, err := sqlx.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA cache_size = -64000", // 64MB cache
		"PRAGMA temp_store = MEMORY",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %s: %w", pragma, err)
		}
	}

	store := &Store{db: db, logger: logger}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ping checks database connectivity
func (s *Store) Ping() error {
	return s.db.Ping()
}

var tables = []string{"model", "model_version", "model_file", "model_image", "metadata"}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS model (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT 'other',
		nsfw INTEGER NOT NULL DEFAULT 0,
		creator_name TEXT NOT NULL DEFAULT '',
		creator_image TEXT NOT NULL DEFAULT '',
		image TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		updated_at INTEGER NOT NULL DEFAULT 0
	)`,

	`CREATE TABLE IF NOT EXISTS model_version (
		id INTEGER PRIMARY KEY,
		model_id INTEGER NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT ''
	)`,

	`CREATE TABLE IF NOT EXISTS model_file (
		id INTEGER PRIMARY KEY,
		model_id INTEGER NOT NULL,
		model_version_id INTEGER NOT NULL,
		is_primary BOOLEAN NOT NULL DEFAULT FALSE,
		name TEXT NOT NULL,
		url TEXT NOT NULL,
		size REAL NOT NULL DEFAULT 0,
		safe BOOLEAN NOT NULL DEFAULT FALSE,
		format TEXT NOT NULL DEFAULT '',
		datatype TEXT NOT NULL DEFAULT '',
		pruned BOOLEAN NOT NULL DEFAULT FALSE
	)`,

	`CREATE TABLE IF NOT EXISTS model_image (
		id INTEGER PRIMARY KEY,
		model_id INTEGER NOT NULL,
		model_version_id INTEGER NOT NULL,
		url TEXT NOT NULL,
		generation_data TEXT NOT NULL DEFAULT '{}'
	)`,

	`CREATE TABLE IF NOT EXISTS metadata (
		key TEXT PRIMARY KEY,
		value TEXT
	)`,

	`CREATE INDEX IF NOT EXISTS idx_model_category ON model(category)`,
	`CREATE INDEX IF NOT EXISTS idx_model_updated_at ON model(updated_at)`,
	`CREATE INDEX IF NOT EXISTS idx_model_version_model_id ON model_version(model_id)`,
	`CREATE INDEX IF NOT EXISTS idx_model_file_model_id ON model_file(model_id)`,
	`CREATE INDEX IF NOT EXISTS idx_model_file_version_id ON model_file(model_version_id)`,
	`CREATE INDEX IF NOT EXISTS idx_model_image_model_id ON model_image(model_id)`,
	`CREATE INDEX IF NOT EXISTS idx_model_image_version_id ON model_image(model_version_id)`,
}

// migrate creates or rebuilds the database schema.
func (s *Store) migrate() error {
	version, err := s.schemaVersion()
	if err != nil {
		return err
	}

	if version != 0 && version != schemaVersion {
		s.logger.Warn("schema version mismatch, rebuilding mirror",
			zap.Int("found", version),
			zap.Int("want", schemaVersion))
		for _, table := range tables {
			if _, err := s.db.Exec("DROP TABLE IF EXISTS " + table); err != nil {
				return fmt.Errorf("failed to drop table %s: %w", table, err)
			}
		}
		version = 0
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, migration)
		}
	}

	if version == 0 {
		s.logger.Info("creating new mirror database")
		if err := s.SetLastUpdated(time.Unix(0, 0).UTC()); err != nil {
			return err
		}
		if _, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
			return fmt.Errorf("failed to set user_version: %w", err)
		}
	}

	return nil
}

// schemaVersion reads the engine-level user_version pragma.
func (s *Store) schemaVersion() (int, error) {
	var version int
	if err := s.db.Get(&version, "PRAGMA user_version"); err != nil {
		return 0, fmt.Errorf("failed to read user_version: %w", err)
	}
	return version, nil
}
