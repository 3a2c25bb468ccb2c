package summarystore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"NurAI/internal/models"
	"NurAI/internal/summary_service/interfaces"
	"NurAI/internal/summary_service/schema"
	"NurAI/pkg/logger"

	"github.com/go-redis/redis/v8"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// MySQLStore is the gorm-backed SummaryStore with an optional Redis
// read-through cache on fetch. Summaries are replaced wholesale: a save
// deletes any existing row for the key (matching both legacy column-name
// variants) and inserts the new one.
type MySQLStore struct {
	db       *gorm.DB
	cache    *redis.Client
	cacheTTL time.Duration
	log      *logger.Logger
}

// NewMySQLStore creates a summary store. cache may be nil; fetches then go
// straight to MySQL.
func NewMySQLStore(db *gorm.DB, cache *redis.Client, cacheTTL time.Duration, log *logger.Logger) *MySQLStore {
	return &MySQLStore{db: db, cache: cache, cacheTTL: cacheTTL, log: log}
}

func cacheKey(subject, bookTitle string) string {
	return fmt.Sprintf("summary:%s:%s", subject, bookTitle)
}

// Save upserts the summary row for (subject, bookTitle). On a failure of the
// full-metadata insert it retries once with a minimal payload (content only)
// before giving up, so a schema drift on the metadata columns never loses
// the summary text itself.
func (s *MySQLStore) Save(ctx context.Context, subject, bookTitle, markdown string, meta *schema.SummaryMeta) error {
	row := models.Summary{
		Subject:        subject,
		SubjectName:    subject,
		BookTitle:      bookTitle,
		BookName:       bookTitle,
		SummaryContent: markdown,
		SummaryText:    markdown,
	}
	if meta != nil {
		row.MethodUsed = meta.MethodUsed
		row.OrderingConfidence = meta.OrderingConfidence
		if data, err := json.Marshal(meta.SectionSummaries); err == nil {
			row.SectionSummaries = datatypes.JSON(data)
		}
		if data, err := json.Marshal(meta.ChunkIDsUsed); err == nil {
			row.ChunkIdsUsed = datatypes.JSON(data)
		}
	}

	s.deleteExisting(ctx, subject, bookTitle)
	err := s.db.WithContext(ctx).Create(&row).Error
	if err != nil {
		// Retry with a minimal payload: keep the content, drop provenance.
		s.deleteExisting(ctx, subject, bookTitle)
		minimal := models.Summary{
			Subject:        subject,
			SubjectName:    subject,
			BookTitle:      bookTitle,
			BookName:       bookTitle,
			SummaryContent: markdown,
			SummaryText:    markdown,
		}
		if err2 := s.db.WithContext(ctx).Create(&minimal).Error; err2 != nil {
			return fmt.Errorf("failed to save summary: %w", err2)
		}
		s.log.Warn(fmt.Sprintf("Saved minimal summary without extended metadata due to error: %v", err))
	}

	s.invalidate(ctx, subject, bookTitle)
	return nil
}

func (s *MySQLStore) deleteExisting(ctx context.Context, subject, bookTitle string) {
	err := s.db.WithContext(ctx).
		Where("subject = ? AND (book_title = ? OR book_name = ?)", subject, bookTitle, bookTitle).
		Delete(&models.Summary{}).Error
	if err != nil {
		s.log.Warn(fmt.Sprintf("Failed to delete prior summary row: %v", err))
	}
}

func (s *MySQLStore) invalidate(ctx context.Context, subject, bookTitle string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, cacheKey(subject, bookTitle)).Err(); err != nil {
		s.log.Warn(fmt.Sprintf("Failed to invalidate summary cache: %v", err))
	}
}

// Fetch returns the summary for (subject, bookTitle), or nil when absent.
// Reads go through the cache when one is configured.
func (s *MySQLStore) Fetch(ctx context.Context, subject, bookTitle string) (*schema.SummaryRecord, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey(subject, bookTitle)).Bytes(); err == nil {
			var rec schema.SummaryRecord
			if err := json.Unmarshal(cached, &rec); err == nil {
				return &rec, nil
			}
		}
	}

	var rows []map[string]interface{}
	err := s.db.WithContext(ctx).Table("summaries").
		Select("summary_content, summary_text, created_at, section_summaries, method_used, ordering_confidence, chunk_ids_used").
		Where("subject = ? AND (book_title = ? OR book_name = ?)", subject, bookTitle, bookTitle).
		Limit(1).Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch summary: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	rec := normalizeSummaryRow(rows[0])

	if s.cache != nil {
		if data, err := json.Marshal(rec); err == nil {
			if err := s.cache.Set(ctx, cacheKey(subject, bookTitle), data, s.cacheTTL).Err(); err != nil {
				s.log.Warn(fmt.Sprintf("Failed to cache summary: %v", err))
			}
		}
	}
	return rec, nil
}

// ListBooks returns the distinct book titles with a summary for a subject,
// tolerating rows that only carry the legacy book_name column.
func (s *MySQLStore) ListBooks(ctx context.Context, subject string) ([]string, error) {
	var rows []map[string]interface{}
	err := s.db.WithContext(ctx).Table("summaries").
		Select("book_title, book_name").
		Where("subject = ?", subject).
		Order("book_title").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load summary books: %w", err)
	}

	seen := make(map[string]struct{}, len(rows))
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		title := asString(row["book_title"])
		if title == "" {
			title = asString(row["book_name"])
		}
		if title == "" {
			continue
		}
		if _, ok := seen[title]; ok {
			continue
		}
		seen[title] = struct{}{}
		out = append(out, title)
	}
	return out, nil
}

// normalizeSummaryRow converts a raw summaries row into a SummaryRecord,
// preferring summary_content over the legacy summary_text column.
func normalizeSummaryRow(row map[string]interface{}) *schema.SummaryRecord {
	rec := &schema.SummaryRecord{}

	rec.Content = asString(row["summary_content"])
	if rec.Content == "" {
		rec.Content = asString(row["summary_text"])
	}
	if t, ok := row["created_at"].(time.Time); ok {
		rec.CreatedAt = t
	}
	rec.Meta.MethodUsed = asString(row["method_used"])
	switch v := row["ordering_confidence"].(type) {
	case float64:
		rec.Meta.OrderingConfidence = v
	case float32:
		rec.Meta.OrderingConfidence = float64(v)
	}
	if raw, ok := row["section_summaries"].([]byte); ok {
		_ = json.Unmarshal(raw, &rec.Meta.SectionSummaries)
	}
	if raw, ok := row["chunk_ids_used"].([]byte); ok {
		_ = json.Unmarshal(raw, &rec.Meta.ChunkIDsUsed)
	}
	return rec
}

func asString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return ""
	}
}

var _ interfaces.SummaryStore = (*MySQLStore)(nil)
