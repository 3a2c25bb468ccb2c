package pipeline

import (
	"strings"
	"testing"

	"NurAI/internal/summary_service/schema"
)

func chunksOfChars(n, chars int) []schema.Chunk {
	chunks := make([]schema.Chunk, n)
	for i := range chunks {
		chunks[i] = schema.Chunk{ID: string(rune('a' + i)), Text: strings.Repeat("x", chars)}
	}
	return chunks
}

func TestSplitIntoBlocks_Budget(t *testing.T) {
	// 8 chunks of ~100 tokens each against a 250-token budget: blocks close
	// at 3 chunks, the trailing pair stays as a partial block.
	chunks := chunksOfChars(8, 400)

	blocks := SplitIntoBlocks(chunks, 250)
	if len(blocks) != 3 {
		t.Fatalf("Expected 3 blocks, got %d", len(blocks))
	}
	if len(blocks[0]) != 3 || len(blocks[1]) != 3 || len(blocks[2]) != 2 {
		t.Errorf("Unexpected block sizes: %d, %d, %d", len(blocks[0]), len(blocks[1]), len(blocks[2]))
	}
}

func TestSplitIntoBlocks_PreservesOrder(t *testing.T) {
	chunks := chunksOfChars(8, 400)

	blocks := SplitIntoBlocks(chunks, 250)
	var flat []schema.Chunk
	for _, b := range blocks {
		flat = append(flat, b...)
	}
	if len(flat) != len(chunks) {
		t.Fatalf("Expected all %d chunks across blocks, got %d", len(chunks), len(flat))
	}
	for i := range flat {
		if flat[i].ID != chunks[i].ID {
			t.Errorf("Chunk %d out of order: %q vs %q", i, flat[i].ID, chunks[i].ID)
		}
	}
}

func TestSplitIntoBlocks_OversizedChunk(t *testing.T) {
	// A single chunk over budget still forms exactly one block.
	chunks := chunksOfChars(1, 12000)

	blocks := SplitIntoBlocks(chunks, 2500)
	if len(blocks) != 1 {
		t.Fatalf("Expected 1 block, got %d", len(blocks))
	}
	if len(blocks[0]) != 1 {
		t.Errorf("Expected the oversized chunk alone in its block, got %d chunks", len(blocks[0]))
	}
}

func TestSplitIntoBlocks_Empty(t *testing.T) {
	if got := SplitIntoBlocks(nil, 2500); len(got) != 0 {
		t.Errorf("Expected no blocks, got %d", len(got))
	}
}
