package schema

import (
	"testing"
)

func TestNormalizeChunkRow_ModernColumns(t *testing.T) {
	ch := NormalizeChunkRow(map[string]interface{}{
		"chunk_id": "abc-123",
		"id":       int64(7),
		"text":     "passage body",
		"filename": "book.pdf",
		"subject":  "physics",
		"metadata": map[string]interface{}{MetadataKeyChunkIndex: float64(3)},
	})

	if ch.ID != "abc-123" {
		t.Errorf("Expected chunk_id preferred, got %q", ch.ID)
	}
	if ch.RawID != "7" {
		t.Errorf("Expected raw id %q, got %q", "7", ch.RawID)
	}
	if ch.Text != "passage body" || ch.Filename != "book.pdf" || ch.Subject != "physics" {
		t.Errorf("Field mapping wrong: %+v", ch)
	}
	if v, _ := ch.Metadata[MetadataKeyChunkIndex].(float64); v != 3 {
		t.Errorf("Expected chunk_index 3 in metadata, got %v", ch.Metadata[MetadataKeyChunkIndex])
	}
}

func TestNormalizeChunkRow_LegacyColumns(t *testing.T) {
	ch := NormalizeChunkRow(map[string]interface{}{
		"id":      int64(42),
		"content": []byte("legacy passage body"),
	})

	if ch.ID != "42" {
		t.Errorf("Expected fallback to row id, got %q", ch.ID)
	}
	if ch.Text != "legacy passage body" {
		t.Errorf("Expected the content column used, got %q", ch.Text)
	}
	if ch.Key() != "42" {
		t.Errorf("Expected key %q, got %q", "42", ch.Key())
	}
}

func TestNormalizeChunkRow_TextWinsOverContent(t *testing.T) {
	ch := NormalizeChunkRow(map[string]interface{}{
		"text":    "modern",
		"content": "legacy",
	})
	if ch.Text != "modern" {
		t.Errorf("Expected the text column preferred, got %q", ch.Text)
	}
}

func TestNormalizeChunkRow_ColumnLevelChunkIndex(t *testing.T) {
	ch := NormalizeChunkRow(map[string]interface{}{
		"chunk_id":    "a",
		"text":        "body",
		"chunk_index": int64(5),
	})
	if v, _ := ch.Metadata[MetadataKeyChunkIndex].(int64); v != 5 {
		t.Errorf("Expected the chunk_index column promoted into metadata, got %v", ch.Metadata[MetadataKeyChunkIndex])
	}
}

func TestNormalizeChunkRow_MetadataBlobWinsOverColumn(t *testing.T) {
	ch := NormalizeChunkRow(map[string]interface{}{
		"chunk_id":    "a",
		"text":        "body",
		"chunk_index": int64(5),
		"metadata":    map[string]interface{}{MetadataKeyChunkIndex: float64(2)},
	})
	if v, _ := ch.Metadata[MetadataKeyChunkIndex].(float64); v != 2 {
		t.Errorf("Expected the metadata blob value kept, got %v", ch.Metadata[MetadataKeyChunkIndex])
	}
}

func TestNormalizeChunkRow_EmbeddingDecoding(t *testing.T) {
	ch := NormalizeChunkRow(map[string]interface{}{
		"chunk_id":  "a",
		"text":      "body",
		"embedding": []interface{}{float64(0.1), float64(0.2)},
	})
	if len(ch.Embedding) != 2 {
		t.Fatalf("Expected a 2-dim embedding, got %v", ch.Embedding)
	}

	ch = NormalizeChunkRow(map[string]interface{}{
		"chunk_id": "b",
		"text":     "body",
	})
	if ch.Embedding != nil {
		t.Errorf("Expected nil embedding when the column is absent, got %v", ch.Embedding)
	}
}

func TestChunkKey_PrefersExternalID(t *testing.T) {
	ch := Chunk{ID: "ext", RawID: "9"}
	if ch.Key() != "ext" {
		t.Errorf("Expected external id, got %q", ch.Key())
	}
}
