// Package history persists the terminal outcome of every export attempt.
// The staging store is in-memory and forgets cards as soon as they reach a
// terminal state, so this is the only durable record of what was exported.
package history

import (
	"fmt"

	"github.com/mrlokans/cardbridge/internal/database"
	"github.com/mrlokans/cardbridge/internal/entities"
)

const defaultRecentLimit = 50

type Repository struct {
	db *database.Database
}

func NewRepository(db *database.Database) *Repository {
	return &Repository{db: db}
}

// Add stores one export outcome.
func (r *Repository) Add(record *entities.ExportRecord) error {
	if err := r.db.DB.Create(record).Error; err != nil {
		return fmt.Errorf("failed to save export record: %w", err)
	}
	return nil
}

// Recent returns the most recent export records, newest first.
func (r *Repository) Recent(limit int) ([]entities.ExportRecord, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	var records []entities.ExportRecord
	err := r.db.DB.Order("id DESC").Limit(limit).Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load export records: %w", err)
	}
	return records, nil
}

// Stats aggregates export outcomes by status.
func (r *Repository) Stats() (map[string]int64, error) {
	type row struct {
		Status string
		Count  int64
	}
	var rows []row
	err := r.db.DB.Model(&entities.ExportRecord{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate export records: %w", err)
	}

	stats := make(map[string]int64, len(rows))
	for _, r := range rows {
		stats[r.Status] = r.Count
	}
	return stats, nil
}
