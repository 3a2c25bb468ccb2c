package pipeline

import (
	"unicode/utf8"

	"NurAI/internal/summary_service/schema"
)

// approxTokens estimates the token cost of a text as character count / 4,
// never less than 1.
func approxTokens(text string) int {
	t := utf8.RuneCountInString(text) / 4
	if t < 1 {
		return 1
	}
	return t
}

// SplitIntoBlocks groups ordered chunks into token-budgeted blocks for model
// consumption. A block closes as soon as its running approximate-token sum
// reaches targetTokens; the trailing partial block is kept. Chunks are never
// split, so a single chunk over budget forms (or finishes) one oversized
// block on its own.
func SplitIntoBlocks(orderedChunks []schema.Chunk, targetTokens int) [][]schema.Chunk {
	var blocks [][]schema.Chunk
	var cur []schema.Chunk
	curTokens := 0
	for _, ch := range orderedChunks {
		curTokens += approxTokens(ch.Text)
		cur = append(cur, ch)
		if curTokens >= targetTokens {
			blocks = append(blocks, cur)
			cur = nil
			curTokens = 0
		}
	}
	if len(cur) > 0 {
		blocks = append(blocks, cur)
	}
	return blocks
}
