package splitters

import (
	"strings"

	"NurAI/internal/summary_service/interfaces"
)

// WindowSplitter cuts raw text into fixed-size character windows with
// overlap between consecutive windows, so context crossing a window boundary
// is preserved. Token counts are approximated as character count / 4; no
// tokenizer dependency is needed at this granularity.
type WindowSplitter struct {
	TargetTokens  int
	OverlapTokens int
}

// NewWindowSplitter creates a WindowSplitter with the given budgets.
func NewWindowSplitter(targetTokens, overlapTokens int) *WindowSplitter {
	return &WindowSplitter{
		TargetTokens:  targetTokens,
		OverlapTokens: overlapTokens,
	}
}

// Split produces the ordered window sequence for text. Empty input yields an
// empty result. Each window is stripped of surrounding whitespace; windows
// that strip to nothing are dropped.
func (s *WindowSplitter) Split(text string) []string {
	if text == "" {
		return nil
	}

	targetChars := s.TargetTokens * 4
	if targetChars < 1000 {
		targetChars = 1000
	}
	overlapChars := s.OverlapTokens * 4
	if overlapChars < 0 {
		overlapChars = 0
	}

	// Windows are measured in characters, not bytes; source books are
	// largely Cyrillic and byte slicing would cut runes in half.
	runes := []rune(text)
	var chunks []string
	n := len(runes)
	i := 0
	for i < n {
		end := i + targetChars
		if end > n {
			end = n
		}
		chunk := strings.TrimSpace(string(runes[i:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end >= n {
			break
		}
		next := end - overlapChars
		if next < 0 {
			next = 0
		}
		// The start index must strictly advance or the walk would stall when
		// the overlap meets or exceeds the window width.
		if next <= i {
			next = i + 1
		}
		i = next
	}
	return chunks
}

var _ interfaces.Splitter = (*WindowSplitter)(nil)
