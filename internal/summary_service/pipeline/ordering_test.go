package pipeline

import (
	"fmt"
	"math"
	"testing"

	"NurAI/internal/summary_service/schema"
)

func TestDetermineOrdering_Empty(t *testing.T) {
	ordered, method, conf := DetermineOrdering(nil)
	if len(ordered) != 0 || method != MethodNone || conf != 0.0 {
		t.Errorf("Expected empty/none/0, got %d chunks, %q, %f", len(ordered), method, conf)
	}
}

func TestDetermineOrdering_ChunkIndexTier(t *testing.T) {
	// 11 of 12 chunks carry chunk_index (91% coverage, above the 90%
	// threshold); the chunk without a hint must sort last.
	var chunks []schema.Chunk
	for _, idx := range []int{7, 2, 9, 0, 4, 10, 1, 8, 3, 6, 5} {
		chunks = append(chunks, schema.Chunk{
			ID:       fmt.Sprintf("c%d", idx),
			Text:     "body",
			Metadata: map[string]interface{}{schema.MetadataKeyChunkIndex: idx},
		})
	}
	chunks = append(chunks, schema.Chunk{ID: "cx", Text: "body", Metadata: map[string]interface{}{}})

	ordered, method, conf := DetermineOrdering(chunks)
	if method != MethodChunkIndex {
		t.Fatalf("Expected method %q, got %q", MethodChunkIndex, method)
	}
	if conf != 0.95 {
		t.Errorf("Expected confidence 0.95, got %f", conf)
	}
	for i := 0; i < 11; i++ {
		want := fmt.Sprintf("c%d", i)
		if ordered[i].ID != want {
			t.Errorf("Position %d: expected %q, got %q", i, want, ordered[i].ID)
		}
	}
	if ordered[11].ID != "cx" {
		t.Errorf("Expected the unhinted chunk last, got %q", ordered[11].ID)
	}
}

func TestDetermineOrdering_TierThresholdNotMet(t *testing.T) {
	// Exactly 90% coverage does not clear the strict threshold; with no
	// embeddings either, ordering falls through to as-is.
	var chunks []schema.Chunk
	for i := 0; i < 9; i++ {
		chunks = append(chunks, schema.Chunk{
			ID:       fmt.Sprintf("c%d", i),
			Text:     "body",
			Metadata: map[string]interface{}{schema.MetadataKeyChunkIndex: 8 - i},
		})
	}
	chunks = append(chunks, schema.Chunk{ID: "cx", Text: "body"})

	ordered, method, conf := DetermineOrdering(chunks)
	if method != MethodAsIs {
		t.Fatalf("Expected method %q, got %q", MethodAsIs, method)
	}
	if conf != 0.2 {
		t.Errorf("Expected confidence 0.2, got %f", conf)
	}
	for i, ch := range ordered {
		if ch.ID != chunks[i].ID {
			t.Errorf("Position %d: expected input order preserved, got %q", i, ch.ID)
		}
	}
}

func TestDetermineOrdering_SourceOrderTier(t *testing.T) {
	chunks := []schema.Chunk{
		{ID: "b", Metadata: map[string]interface{}{schema.MetadataKeySourceOrder: 2}},
		{ID: "a", Metadata: map[string]interface{}{schema.MetadataKeySourceSequence: 1}},
		{ID: "c", Metadata: map[string]interface{}{schema.MetadataKeySourceOrder: 3}},
	}

	ordered, method, conf := DetermineOrdering(chunks)
	if method != MethodSourceOrder || conf != 0.85 {
		t.Fatalf("Expected source_order/0.85, got %q/%f", method, conf)
	}
	if ordered[0].ID != "a" || ordered[1].ID != "b" || ordered[2].ID != "c" {
		t.Errorf("Unexpected order: %q, %q, %q", ordered[0].ID, ordered[1].ID, ordered[2].ID)
	}
}

func TestDetermineOrdering_SemanticTier(t *testing.T) {
	// Embeddings placed along a smooth arc: the principal-axis projection must
	// recover the arc order, possibly globally reversed (the axis sign is
	// arbitrary).
	var chunks []schema.Chunk
	for i := 0; i < 8; i++ {
		theta := 0.15 * float64(i)
		chunks = append(chunks, schema.Chunk{
			ID:        fmt.Sprintf("c%d", i),
			Text:      "body",
			Embedding: []float32{float32(math.Cos(theta)), float32(math.Sin(theta))},
		})
	}

	ordered, method, conf := DetermineOrdering(chunks)
	if method != MethodSemantic {
		t.Fatalf("Expected method %q, got %q", MethodSemantic, method)
	}
	if conf < 0.4 || conf > 0.8 {
		t.Errorf("Confidence out of range [0.4, 0.8]: %f", conf)
	}

	forward := true
	backward := true
	for i := 0; i < len(ordered); i++ {
		if ordered[i].ID != fmt.Sprintf("c%d", i) {
			forward = false
		}
		if ordered[i].ID != fmt.Sprintf("c%d", len(ordered)-1-i) {
			backward = false
		}
	}
	if !forward && !backward {
		ids := make([]string, len(ordered))
		for i, ch := range ordered {
			ids[i] = ch.ID
		}
		t.Errorf("Expected the arc order or its reverse, got %v", ids)
	}
}

func TestDetermineOrdering_SemanticDeterministic(t *testing.T) {
	var chunks []schema.Chunk
	for i := 0; i < 6; i++ {
		theta := 0.3 * float64(i)
		chunks = append(chunks, schema.Chunk{
			ID:        fmt.Sprintf("c%d", i),
			Text:      "body",
			Embedding: []float32{float32(math.Cos(theta)), float32(math.Sin(theta)), 0.5},
		})
	}

	first, methodA, confA := DetermineOrdering(chunks)
	second, methodB, confB := DetermineOrdering(chunks)
	if methodA != methodB || confA != confB {
		t.Fatalf("Method/confidence differ between runs: %q/%f vs %q/%f", methodA, confA, methodB, confB)
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Errorf("Position %d differs between runs: %q vs %q", i, first[i].ID, second[i].ID)
		}
	}
}

func TestDetermineOrdering_MissingEmbeddingFallsBack(t *testing.T) {
	chunks := []schema.Chunk{
		{ID: "a", Embedding: []float32{1, 0}},
		{ID: "b"},
		{ID: "c", Embedding: []float32{0, 1}},
	}

	ordered, method, conf := DetermineOrdering(chunks)
	if method != MethodAsIs || conf != 0.2 {
		t.Fatalf("Expected as_is/0.2 when an embedding is missing, got %q/%f", method, conf)
	}
	if ordered[0].ID != "a" || ordered[1].ID != "b" || ordered[2].ID != "c" {
		t.Errorf("Expected input order preserved")
	}
}
