package pipeline

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"NurAI/internal/summary_service/interfaces"
	"NurAI/internal/summary_service/schema"
	"NurAI/pkg/logger"
)

const (
	blockTemperature  float32 = 0.1
	mergeTemperature  float32 = 0.1
	expandTemperature float32 = 0.15

	blockMaxTokens  = 1800
	mergeMaxTokens  = 3000
	expandMaxTokens = 4000
)

const blockSystemPrompt = "You are a meticulous educator and summarizer. Only use the text below. Do NOT add external info. " +
	"Produce comprehensive study notes (конспект) covering all key concepts, definitions, explanations, examples, and takeaways."

const mergeSystemPrompt = "You are a summarizer. Only use the provided block summaries to create a unified, LONG, exam-ready Markdown study note. " +
	"Do NOT invent facts. Keep fidelity and provenance for paragraphs."

const expandSystemPrompt = "You are an expert educator. Expand and enrich the summary while strictly staying within the provided block summaries. " +
	"Do NOT add external information."

// Summarizer runs the two-stage (map-reduce) language-model summarization:
// one call per block, one merge call, and at most one expansion call.
type Summarizer struct {
	llm      interfaces.LLM
	log      *logger.Logger
	minChars int
}

// NewSummarizer creates a Summarizer. minChars is the final document length
// below which one expansion pass is attempted.
func NewSummarizer(llm interfaces.LLM, log *logger.Logger, minChars int) *Summarizer {
	return &Summarizer{
		llm:      llm,
		log:      log,
		minChars: minChars,
	}
}

// buildPassages renders a block's chunks with inline chunk_id tags so the
// model can cite its sources.
func buildPassages(block []schema.Chunk) string {
	lines := []string{"---"}
	for _, ch := range block {
		lines = append(lines, fmt.Sprintf("[chunk_id: %s] %s", ch.Key(), ch.Text))
	}
	lines = append(lines, "---")
	return strings.Join(lines, "\n")
}

// SummarizeBlock produces the Markdown study-note section for one block and
// the ids of the chunks that contributed. On any failure it logs and returns
// an empty result; the caller skips the block and continues.
func (s *Summarizer) SummarizeBlock(ctx context.Context, block []schema.Chunk) (string, []string) {
	passages := buildPassages(block)
	user := "Create a DETAILED Markdown section (not short) using the passages. Requirements:\n" +
		"- Use headings with ## and ### for sections and subsections.\n" +
		"- Use bullet points for key ideas, lists, and steps.\n" +
		"- Use **bold** for important terms and definitions; use *italic* for side notes.\n" +
		"- Use emojis like ✅ ❌ ⭐ ⚠️ to highlight key points.\n" +
		"- You may use inline HTML color spans (e.g., <span style=\"color:red\">...</span>) to emphasize critical phrases.\n" +
		"- Include formulas or code blocks if present using fenced blocks.\n" +
		"- After EACH paragraph add provenance: [sources: <comma-separated chunk_ids>].\n" +
		"- If uncertain, mark [uncertain]. Do NOT hallucinate.\n\n" +
		fmt.Sprintf("PASSAGES:\n%s\nReturn only valid, rich Markdown.", passages)

	content, err := s.llm.Complete(ctx, blockSystemPrompt, user, blockTemperature, blockMaxTokens)
	if err != nil || content == "" {
		s.log.Error(fmt.Sprintf("Block summarize error: %v", err))
		return "", nil
	}

	ids := make([]string, 0, len(block))
	for _, ch := range block {
		if key := ch.Key(); key != "" {
			ids = append(ids, key)
		}
	}
	return content, ids
}

// MergeBlocks merges the numbered per-block summaries into one document with
// a table of contents, preserving per-paragraph citations. Returns an empty
// string on failure; the caller treats that as fatal for the build.
func (s *Summarizer) MergeBlocks(ctx context.Context, blockSummaries []string) string {
	joined := joinNumbered(blockSummaries)
	user := "Merge and refine the block summaries into a comprehensive book summary with the following:\n" +
		"- A Table of Contents at the top.\n" +
		"- Clear sections with ## and ###.\n" +
		"- Bullet points for concepts and examples.\n" +
		"- **Bold** key terms, *italic* side notes, and emojis (✅ ❌ ⭐ ⚠️).\n" +
		"- Allow inline HTML color spans for emphasis.\n" +
		"- Keep each paragraph ending with [sources: <chunk ids>].\n\n" +
		fmt.Sprintf("BLOCK_SUMMARIES:\n%s", joined)

	content, err := s.llm.Complete(ctx, mergeSystemPrompt, user, mergeTemperature, mergeMaxTokens)
	if err != nil {
		s.log.Error(fmt.Sprintf("Merge summarize error: %v", err))
		return ""
	}
	return content
}

// ExpandIfShort issues one expansion call when the merged document is under
// the minimum length, using only the same block summaries as source
// material. The result is kept only when strictly longer than the input; the
// document never regresses, and failures silently fall back to the merge.
func (s *Summarizer) ExpandIfShort(ctx context.Context, merged string, blockSummaries []string) string {
	if merged == "" {
		return merged
	}
	if utf8.RuneCountInString(merged) >= s.minChars {
		return merged
	}

	joined := joinNumbered(blockSummaries)
	user := "The current merged summary is too short. Expand it into a LONG, exam-ready study note with:\n" +
		"- More detailed explanations and context;\n" +
		"- Additional bullet points, examples, and definitions;\n" +
		"- Use of **bold**, *italic*, ✅ ❌ ⭐ ⚠️ markers;\n" +
		"- Inline HTML color spans where helpful;\n" +
		"- Maintain paragraph-level provenance [sources: <chunk ids>].\n\n" +
		"Here are the block summaries you must rely on (no external info):\n" +
		joined + "\n\n" +
		"Here is the current merged summary. Expand and improve it while preserving its structure and fidelity:\n" +
		merged

	content, err := s.llm.Complete(ctx, expandSystemPrompt, user, expandTemperature, expandMaxTokens)
	if err != nil {
		s.log.Error(fmt.Sprintf("Expand summary error: %v", err))
		return merged
	}
	if utf8.RuneCountInString(content) > utf8.RuneCountInString(merged) {
		return content
	}
	return merged
}

func joinNumbered(blockSummaries []string) string {
	parts := make([]string, len(blockSummaries))
	for i, bs := range blockSummaries {
		parts[i] = fmt.Sprintf("(%d) %s", i+1, bs)
	}
	return strings.Join(parts, "\n\n")
}
