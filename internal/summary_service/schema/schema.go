package schema

import (
	"fmt"
	"time"
)

const (
	// MetadataKeyChunkIndex is the sequence number assigned at ingest time.
	MetadataKeyChunkIndex = "chunk_index"
	// MetadataKeyCharOffsetStart is the character offset of the chunk within the source text.
	MetadataKeyCharOffsetStart = "char_offset_start"
	// MetadataKeySourceOrder is a numeric ordering hint from an upstream exporter.
	MetadataKeySourceOrder = "source_order"
	// MetadataKeySourceSequence is a legacy alias of source_order.
	MetadataKeySourceSequence = "source_sequence"
)

// Chunk is the central data structure of the pipeline: one bounded window of
// a book's text plus its provenance tags and optional embedding. Chunks are
// never mutated after creation.
type Chunk struct {
	// ID is the stable external chunk identifier (chunk_id column).
	ID string

	// RawID is the numeric row id rendered as a string; used as a fallback
	// key when a legacy row has no chunk_id.
	RawID string

	// Text is the raw extracted content window.
	Text string

	// Embedding is the vector representation of Text, nil when the embedding
	// call failed for this chunk.
	Embedding []float32

	// Filename and Subject identify the source document.
	Filename string
	Subject  string

	// Metadata may hold position hints; see the MetadataKey* constants.
	Metadata map[string]interface{}
}

// Key returns the identifier used for provenance tagging, preferring the
// external chunk id over the raw row id.
func (c *Chunk) Key() string {
	if c.ID != "" {
		return c.ID
	}
	return c.RawID
}

// SectionSummary is a stand-in descriptor for one merged block section.
type SectionSummary struct {
	SectionTitle string   `json:"section_title"`
	ParagraphID  string   `json:"paragraph_id"`
	ChunkIDs     []string `json:"chunk_ids"`
}

// SummaryMeta is the provenance metadata persisted alongside a summary.
type SummaryMeta struct {
	SectionSummaries   []SectionSummary `json:"section_summaries"`
	MethodUsed         string           `json:"method_used"`
	OrderingConfidence float64          `json:"ordering_confidence"`
	ChunkIDsUsed       []string         `json:"chunk_ids_used"`
}

// SummaryRecord is a fetched summary row.
type SummaryRecord struct {
	Content   string      `json:"content"`
	CreatedAt time.Time   `json:"created_at"`
	Meta      SummaryMeta `json:"meta"`
}

// NormalizeChunkRow converts a raw store row into a Chunk, tolerating the
// legacy column-name variants (content/text, chunk_id/id/uuid/_id). All
// field-name compatibility shimming lives here; the pipeline itself only
// ever sees Chunk values.
func NormalizeChunkRow(row map[string]interface{}) Chunk {
	id := firstString(row, "chunk_id", "uuid", "_id")
	rawID := stringify(row["id"])
	if id == "" {
		id = rawID
	}

	text := firstString(row, "text", "content")

	ch := Chunk{
		ID:       id,
		RawID:    rawID,
		Text:     text,
		Filename: stringify(row["filename"]),
		Subject:  stringify(row["subject"]),
		Metadata: map[string]interface{}{},
	}

	if md, ok := row["metadata"].(map[string]interface{}); ok {
		for k, v := range md {
			ch.Metadata[k] = v
		}
	}
	// A chunk_index column takes effect as a position hint unless the
	// metadata blob already carries one.
	if _, ok := ch.Metadata[MetadataKeyChunkIndex]; !ok {
		if idx, ok := row[MetadataKeyChunkIndex]; ok && idx != nil {
			ch.Metadata[MetadataKeyChunkIndex] = idx
		}
	}

	if emb, ok := row["embedding"].([]float32); ok {
		ch.Embedding = emb
	} else if emb, ok := row["embedding"].([]interface{}); ok {
		ch.Embedding = toFloat32Slice(emb)
	}

	return ch
}

func firstString(row map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if s := stringify(row[k]); s != "" {
			return s
		}
	}
	return ""
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

func toFloat32Slice(vals []interface{}) []float32 {
	out := make([]float32, 0, len(vals))
	for _, v := range vals {
		switch t := v.(type) {
		case float64:
			out = append(out, float32(t))
		case float32:
			out = append(out, t)
		case int:
			out = append(out, float32(t))
		default:
			return nil
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
