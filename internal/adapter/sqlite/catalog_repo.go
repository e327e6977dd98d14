package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cocktail-collective/cocktail/internal/domain"
	"go.uber.org/zap"
)

// lastUpdatedKey is the singleton metadata row tracking the last completed
// sync run.
const lastUpdatedKey = "last_updated"

// InsertPage writes the four entity batches of a page, each in its own
// transaction with insert-or-replace-by-primary-key semantics. Replaying the
// same page is idempotent.
func (s *Store) InsertPage(page domain.Page) error {
	if err := insertBatch(s, "model",
		[]string{"id", "name", "type", "category", "nsfw", "creator_name", "creator_image", "image", "description", "updated_at"},
		page.Models); err != nil {
		return err
	}

	if err := insertBatch(s, "model_version",
		[]string{"id", "model_id", "name", "description"},
		page.Versions); err != nil {
		return err
	}

	if err := insertBatch(s, "model_file",
		[]string{"id", "model_id", "model_version_id", "is_primary", "name", "url", "size", "safe", "format", "datatype", "pruned"},
		page.Files); err != nil {
		return err
	}

	return insertBatch(s, "model_image",
		[]string{"id", "model_id", "model_version_id", "url", "generation_data"},
		page.Images)
}

// insertBatch writes one entity batch in a single transaction. An empty batch
// is skipped with a warning. Any row failure rolls the transaction back and
// surfaces an error naming the table and the offending row.
func insertBatch[T any](s *Store, table string, columns []string, rows []T) error {
	if len(rows) == 0 {
		s.logger.Warn("nothing to insert, batch is empty", zap.String("table", table))
		return nil
	}

	start := time.Now()

	statement := "INSERT OR REPLACE INTO " + table + " ("
	for i, column := range columns {
		if i > 0 {
			statement += ", "
		}
		statement += column
	}
	statement += ") VALUES ("
	for i, column := range columns {
		if i > 0 {
			statement += ", "
		}
		statement += ":" + column
	}
	statement += ")"

	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction for %s: %w", table, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareNamed(statement)
	if err != nil {
		return fmt.Errorf("failed to prepare statement %q: %w", statement, err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.Exec(row); err != nil {
			return fmt.Errorf("failed to execute statement %q for row %+v: %w", statement, row, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch for %s: %w", table, err)
	}

	s.logger.Debug("inserted rows",
		zap.String("table", table),
		zap.Int("count", len(rows)),
		zap.Duration("duration", time.Since(start)))

	return nil
}

// ModelCount returns the number of mirrored models.
func (s *Store) ModelCount() (int64, error) {
	var count int64
	if err := s.db.Get(&count, "SELECT COUNT(*) FROM model"); err != nil {
		return 0, fmt.Errorf("failed to count models: %w", err)
	}
	return count, nil
}

// ListModels returns a page of mirrored models ordered by update recency. An
// empty category matches every category.
func (s *Store) ListModels(category string, limit, offset int) ([]domain.Model, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	models := []domain.Model{}
	var err error
	if category == "" {
		err = s.db.Select(&models,
			"SELECT * FROM model ORDER BY updated_at DESC LIMIT ? OFFSET ?",
			limit, offset)
	} else {
		err = s.db.Select(&models,
			"SELECT * FROM model WHERE category = ? ORDER BY updated_at DESC LIMIT ? OFFSET ?",
			category, limit, offset)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}
	return models, nil
}

// GetModel returns one model with its versions, files and images attached.
func (s *Store) GetModel(id int64) (*domain.ModelDetail, error) {
	detail := &domain.ModelDetail{
		Versions: []domain.ModelVersion{},
		Files:    []domain.ModelFile{},
		Images:   []domain.ModelImage{},
	}

	err := s.db.Get(&detail.Model, "SELECT * FROM model WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("model %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get model %d: %w", id, err)
	}

	if err := s.db.Select(&detail.Versions,
		"SELECT * FROM model_version WHERE model_id = ? ORDER BY id", id); err != nil {
		return nil, fmt.Errorf("failed to get versions for model %d: %w", id, err)
	}
	if err := s.db.Select(&detail.Files,
		"SELECT * FROM model_file WHERE model_id = ? ORDER BY id", id); err != nil {
		return nil, fmt.Errorf("failed to get files for model %d: %w", id, err)
	}
	if err := s.db.Select(&detail.Images,
		"SELECT * FROM model_image WHERE model_id = ? ORDER BY id", id); err != nil {
		return nil, fmt.Errorf("failed to get images for model %d: %w", id, err)
	}

	return detail, nil
}

// GetLastUpdated returns the timestamp of the last completed sync run. A zero
// time means the mirror has never completed a run.
func (s *Store) GetLastUpdated() (time.Time, error) {
	var value string
	err := s.db.Get(&value, "SELECT value FROM metadata WHERE key = ?", lastUpdatedKey)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read %s: %w", lastUpdatedKey, err)
	}

	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse %s %q: %w", lastUpdatedKey, value, err)
	}
	return t, nil
}

// SetLastUpdated records t as the last completed sync run. A zero t defaults
// to the current time.
func (s *Store) SetLastUpdated(t time.Time) error {
	if t.IsZero() {
		t = time.Now()
	}

	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO metadata (key, value) VALUES (?, ?)",
		lastUpdatedKey, t.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", lastUpdatedKey, err)
	}
	return nil
}
