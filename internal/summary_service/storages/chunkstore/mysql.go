package chunkstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"NurAI/internal/models"
	"NurAI/internal/summary_service/interfaces"
	"NurAI/internal/summary_service/schema"
	"NurAI/pkg/logger"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// chunkColumns is the projection used for reads; it includes both current
// and legacy text/id columns so old rows normalize cleanly.
const chunkColumns = "id, chunk_id, subject, filename, chunk_index, content, embedding, metadata"

// RemediationSQL is surfaced to the operator when the vector_chunks table is
// missing the chunk_index column (a known partially-migrated deployment
// state). It is an operator-actionable setup error, not a transient fault.
const RemediationSQL = `
CREATE TABLE IF NOT EXISTS vector_chunks (
  id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
  chunk_id VARCHAR(64),
  subject VARCHAR(255) NOT NULL,
  filename VARCHAR(255) NOT NULL,
  chunk_index INT NOT NULL,
  content LONGTEXT NOT NULL,
  embedding JSON,
  metadata JSON,
  created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

ALTER TABLE vector_chunks ADD COLUMN chunk_index INT NOT NULL DEFAULT 0;
ALTER TABLE vector_chunks ALTER COLUMN chunk_index DROP DEFAULT;
CREATE INDEX idx_vector_chunks_subject ON vector_chunks(subject);
CREATE INDEX idx_vector_chunks_filename ON vector_chunks(filename);
`

// MySQLStore is the gorm-backed ChunkStore.
type MySQLStore struct {
	db        *gorm.DB
	log       *logger.Logger
	batchSize int
}

// NewMySQLStore creates a chunk store writing batches of batchSize rows.
func NewMySQLStore(db *gorm.DB, log *logger.Logger, batchSize int) *MySQLStore {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &MySQLStore{db: db, log: log, batchSize: batchSize}
}

// InsertChunks writes the chunks in insert batches and returns the chunk ids
// stored. Chunks without an embedding are stored with a null embedding
// column rather than dropped.
func (s *MySQLStore) InsertChunks(ctx context.Context, chunks []schema.Chunk) ([]string, error) {
	rows := make([]models.VectorChunk, 0, len(chunks))
	ids := make([]string, 0, len(chunks))
	for i, ch := range chunks {
		row := models.VectorChunk{
			ChunkID:    ch.ID,
			Subject:    ch.Subject,
			Filename:   ch.Filename,
			ChunkIndex: i,
			Content:    ch.Text,
		}
		if idx, ok := ch.Metadata[schema.MetadataKeyChunkIndex].(int); ok {
			row.ChunkIndex = idx
		}
		if len(ch.Embedding) > 0 {
			if data, err := json.Marshal(ch.Embedding); err == nil {
				row.Embedding = datatypes.JSON(data)
			}
		}
		if len(ch.Metadata) > 0 {
			if data, err := json.Marshal(ch.Metadata); err == nil {
				row.Metadata = datatypes.JSON(data)
			}
		}
		rows = append(rows, row)
		ids = append(ids, ch.ID)
	}

	if err := s.db.WithContext(ctx).CreateInBatches(rows, s.batchSize).Error; err != nil {
		return nil, fmt.Errorf("failed to insert vector chunks: %w", err)
	}
	return ids, nil
}

// FetchByBook returns all chunks for a (subject, filename) pair, normalized
// into schema.Chunk values.
func (s *MySQLStore) FetchByBook(ctx context.Context, subject, filename string) ([]schema.Chunk, error) {
	var rows []map[string]interface{}
	query := s.db.WithContext(ctx).Table("vector_chunks").Select(chunkColumns).Where("filename = ?", filename)
	if subject != "" {
		query = query.Where("subject = ?", subject)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch chunks for %s: %w", filename, err)
	}

	chunks := make([]schema.Chunk, 0, len(rows))
	for _, row := range rows {
		decodeJSONColumns(row)
		chunks = append(chunks, schema.NormalizeChunkRow(row))
	}
	return chunks, nil
}

// FetchByIDs resolves chunks by row id, falling back to the chunk_id column
// when nothing matches (older rows carried provenance ids in either place).
func (s *MySQLStore) FetchByIDs(ctx context.Context, ids []string) (map[string]schema.Chunk, error) {
	if len(ids) == 0 {
		return map[string]schema.Chunk{}, nil
	}

	var rows []map[string]interface{}
	err := s.db.WithContext(ctx).Table("vector_chunks").Select(chunkColumns).
		Where("chunk_id IN ?", ids).Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch chunks by ids: %w", err)
	}
	if len(rows) == 0 {
		if err := s.db.WithContext(ctx).Table("vector_chunks").Select(chunkColumns).
			Where("id IN ?", ids).Find(&rows).Error; err != nil {
			return nil, fmt.Errorf("failed to fetch chunks by ids: %w", err)
		}
	}

	out := make(map[string]schema.Chunk, len(rows))
	for _, row := range rows {
		decodeJSONColumns(row)
		ch := schema.NormalizeChunkRow(row)
		if key := ch.Key(); key != "" {
			out[key] = ch
		}
	}
	return out, nil
}

// DeleteByBook removes all chunks for a (subject, filename) pair.
func (s *MySQLStore) DeleteByBook(ctx context.Context, subject, filename string) error {
	err := s.db.WithContext(ctx).
		Where("subject = ? AND filename = ?", subject, filename).
		Delete(&models.VectorChunk{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete chunks for %s/%s: %w", subject, filename, err)
	}
	return nil
}

// ListFilenames returns the distinct filenames ingested for a subject,
// first-seen order preserved.
func (s *MySQLStore) ListFilenames(ctx context.Context, subject string) ([]string, error) {
	var names []string
	err := s.db.WithContext(ctx).Table("vector_chunks").
		Where("subject = ?", subject).Pluck("filename", &names).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list filenames for subject %s: %w", subject, err)
	}

	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out, nil
}

// IsSchemaMismatch reports whether err looks like the known missing
// chunk_index column signature, so callers can surface RemediationSQL
// instead of a generic failure.
func IsSchemaMismatch(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "chunk_index") ||
		(strings.Contains(msg, "Unknown column") && strings.Contains(msg, "vector_chunks"))
}

// decodeJSONColumns unwraps JSON-typed columns scanned as raw bytes into
// plain Go values so the row normalizer can treat them uniformly.
func decodeJSONColumns(row map[string]interface{}) {
	for _, key := range []string{"embedding", "metadata"} {
		raw, ok := row[key].([]byte)
		if !ok || len(raw) == 0 {
			continue
		}
		var decoded interface{}
		if err := json.Unmarshal(raw, &decoded); err == nil {
			row[key] = decoded
		}
	}
}

var _ interfaces.ChunkStore = (*MySQLStore)(nil)
