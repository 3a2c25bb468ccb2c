package pipeline

import (
	"hash/fnv"
	"strings"
	"unicode/utf8"

	"NurAI/internal/summary_service/schema"
)

// minNormalizedChars is the floor below which a chunk is treated as noise
// (page numbers, headers, extraction artifacts).
const minNormalizedChars = 20

// normalizeText collapses whitespace runs to single spaces, trims, and
// lowercases, so near-identical extraction windows hash equal.
func normalizeText(t string) string {
	return strings.ToLower(strings.Join(strings.Fields(t), " "))
}

func normalizedHash(norm string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(norm))
	return h.Sum64()
}

// CleanAndDedupe drops noise chunks and exact near-duplicates. The first
// occurrence of a duplicate wins; input order is preserved otherwise.
// It always returns a (possibly empty) list.
func CleanAndDedupe(chunks []schema.Chunk) []schema.Chunk {
	seen := make(map[uint64]struct{}, len(chunks))
	cleaned := make([]schema.Chunk, 0, len(chunks))
	for _, ch := range chunks {
		norm := normalizeText(ch.Text)
		if utf8.RuneCountInString(norm) < minNormalizedChars {
			continue
		}
		h := normalizedHash(norm)
		if _, dup := seen[h]; dup {
			continue
		}
		seen[h] = struct{}{}
		cleaned = append(cleaned, ch)
	}
	return cleaned
}
