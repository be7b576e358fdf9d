package entities

import "time"

// ExportRecord is the persisted trace of a finished export attempt. One row
// is written per terminal outcome; staged cards themselves are never
// persisted.
type ExportRecord struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Key        string    `gorm:"index" json:"key"`
	Word       string    `json:"word"`
	Backend    string    `json:"backend"`
	DeckName   string    `json:"deck_name"`
	Status     string    `gorm:"index" json:"status"`
	SyncStatus string    `json:"sync_status,omitempty"`
	Warning    string    `json:"warning,omitempty"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
