package models

import (
	"time"

	"gorm.io/datatypes"
)

// VectorChunk is one embedded window of a book's text, persisted as a row of
// the vector_chunks table. Rows are immutable after insert; regeneration
// deletes and recreates the full set for a (subject, filename) pair.
type VectorChunk struct {
	ID         uint   `gorm:"primaryKey"`
	ChunkID    string `gorm:"index;size:64"` // Stable external identifier (UUID)
	Subject    string `gorm:"index;not null;size:255"`
	Filename   string `gorm:"index;not null;size:255"`
	ChunkIndex int    `gorm:"not null"`
	Content    string `gorm:"type:longtext;not null"`
	// Embedding is the JSON-encoded vector, null when the embedding call failed.
	Embedding datatypes.JSON
	// Metadata carries optional position hints (char_offset_start, source_order).
	Metadata  datatypes.JSON
	CreatedAt time.Time
}

// TableName pins the legacy table name used by earlier deployments.
func (VectorChunk) TableName() string {
	return "vector_chunks"
}
