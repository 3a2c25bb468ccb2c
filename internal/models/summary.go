package models

import (
	"time"

	"gorm.io/datatypes"
)

// Summary is the persisted summarization artifact, keyed by (subject,
// book_title). Earlier deployments wrote subject_name/book_name and
// summary_text instead of subject/book_title/summary_content; both column
// pairs are kept populated so old readers keep working.
type Summary struct {
	ID          uint   `gorm:"primaryKey"`
	Subject     string `gorm:"index;size:255"`
	SubjectName string `gorm:"size:255"`
	BookTitle   string `gorm:"index;size:255"`
	BookName    string `gorm:"size:255"`

	SummaryContent string `gorm:"type:longtext"`
	SummaryText    string `gorm:"type:longtext"`

	// SectionSummaries and ChunkIdsUsed are JSON provenance metadata; they may
	// be null when a row was saved through the minimal-payload retry path.
	SectionSummaries   datatypes.JSON
	MethodUsed         string `gorm:"size:64"`
	OrderingConfidence float64
	ChunkIdsUsed       datatypes.JSON

	CreatedAt time.Time
}

// TableName pins the legacy table name used by earlier deployments.
func (Summary) TableName() string {
	return "summaries"
}
