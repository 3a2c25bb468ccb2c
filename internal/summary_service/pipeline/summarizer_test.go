package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"NurAI/internal/summary_service/schema"
	"NurAI/pkg/logger"
)

type fakeLLM struct {
	calls    int
	lastUser string
	fn       func(system, user string, temperature float32, maxTokens int) (string, error)
}

func (f *fakeLLM) Complete(ctx context.Context, system, user string, temperature float32, maxTokens int) (string, error) {
	f.calls++
	f.lastUser = user
	return f.fn(system, user, temperature, maxTokens)
}

func testLogger() *logger.Logger {
	return logger.New("test")
}

func TestSummarizeBlock_TagsPassages(t *testing.T) {
	llm := &fakeLLM{fn: func(system, user string, temperature float32, maxTokens int) (string, error) {
		return "## Notes", nil
	}}
	s := NewSummarizer(llm, testLogger(), 1500)

	block := []schema.Chunk{
		{ID: "id-1", Text: "first passage"},
		{RawID: "42", Text: "second passage"},
	}
	content, ids := s.SummarizeBlock(context.Background(), block)
	if content != "## Notes" {
		t.Fatalf("Unexpected content: %q", content)
	}
	if len(ids) != 2 || ids[0] != "id-1" || ids[1] != "42" {
		t.Errorf("Expected provenance ids [id-1 42], got %v", ids)
	}
	if !strings.Contains(llm.lastUser, "[chunk_id: id-1] first passage") {
		t.Errorf("Prompt missing tagged passage: %q", llm.lastUser)
	}
	if !strings.Contains(llm.lastUser, "[chunk_id: 42] second passage") {
		t.Errorf("Prompt missing raw-id fallback passage: %q", llm.lastUser)
	}
}

func TestSummarizeBlock_FailureIsSkippable(t *testing.T) {
	llm := &fakeLLM{fn: func(system, user string, temperature float32, maxTokens int) (string, error) {
		return "", errors.New("model unavailable")
	}}
	s := NewSummarizer(llm, testLogger(), 1500)

	content, ids := s.SummarizeBlock(context.Background(), []schema.Chunk{{ID: "a", Text: "text"}})
	if content != "" || ids != nil {
		t.Errorf("Expected empty result on failure, got %q, %v", content, ids)
	}
}

func TestMergeBlocks_NumbersInputs(t *testing.T) {
	llm := &fakeLLM{fn: func(system, user string, temperature float32, maxTokens int) (string, error) {
		return "merged", nil
	}}
	s := NewSummarizer(llm, testLogger(), 1500)

	got := s.MergeBlocks(context.Background(), []string{"alpha", "beta"})
	if got != "merged" {
		t.Fatalf("Unexpected merge result: %q", got)
	}
	if !strings.Contains(llm.lastUser, "(1) alpha") || !strings.Contains(llm.lastUser, "(2) beta") {
		t.Errorf("Expected numbered block summaries in prompt: %q", llm.lastUser)
	}
}

func TestMergeBlocks_FailureReturnsEmpty(t *testing.T) {
	llm := &fakeLLM{fn: func(system, user string, temperature float32, maxTokens int) (string, error) {
		return "", errors.New("timeout")
	}}
	s := NewSummarizer(llm, testLogger(), 1500)

	if got := s.MergeBlocks(context.Background(), []string{"alpha"}); got != "" {
		t.Errorf("Expected empty result on merge failure, got %q", got)
	}
}

func TestExpandIfShort_LongEnoughSkipsCall(t *testing.T) {
	llm := &fakeLLM{fn: func(system, user string, temperature float32, maxTokens int) (string, error) {
		t.Fatal("Expansion must not be called for a long enough summary")
		return "", nil
	}}
	s := NewSummarizer(llm, testLogger(), 10)

	merged := strings.Repeat("x", 10)
	if got := s.ExpandIfShort(context.Background(), merged, nil); got != merged {
		t.Errorf("Expected merged summary unchanged, got %q", got)
	}
	if llm.calls != 0 {
		t.Errorf("Expected no model calls, got %d", llm.calls)
	}
}

func TestExpandIfShort_KeepsLongerResult(t *testing.T) {
	llm := &fakeLLM{fn: func(system, user string, temperature float32, maxTokens int) (string, error) {
		return strings.Repeat("y", 40), nil
	}}
	s := NewSummarizer(llm, testLogger(), 100)

	got := s.ExpandIfShort(context.Background(), "short", []string{"alpha"})
	if got != strings.Repeat("y", 40) {
		t.Errorf("Expected the longer expansion, got %q", got)
	}
}

func TestExpandIfShort_NeverRegresses(t *testing.T) {
	llm := &fakeLLM{fn: func(system, user string, temperature float32, maxTokens int) (string, error) {
		return "tiny", nil
	}}
	s := NewSummarizer(llm, testLogger(), 100)

	merged := "a summary longer than the expansion result"
	if got := s.ExpandIfShort(context.Background(), merged, []string{"alpha"}); got != merged {
		t.Errorf("Expected the merged summary kept, got %q", got)
	}
}

func TestExpandIfShort_FailureFallsBack(t *testing.T) {
	llm := &fakeLLM{fn: func(system, user string, temperature float32, maxTokens int) (string, error) {
		return "", errors.New("model unavailable")
	}}
	s := NewSummarizer(llm, testLogger(), 100)

	if got := s.ExpandIfShort(context.Background(), "short", []string{"alpha"}); got != "short" {
		t.Errorf("Expected fallback to merged summary, got %q", got)
	}
}

func TestExpandIfShort_RuneCounting(t *testing.T) {
	// Length comparisons count characters, not bytes: the Cyrillic expansion
	// is byte-longer but rune-shorter and must be rejected.
	llm := &fakeLLM{fn: func(system, user string, temperature float32, maxTokens int) (string, error) {
		return strings.Repeat("ж", 9), nil
	}}
	s := NewSummarizer(llm, testLogger(), 100)

	merged := strings.Repeat("z", 10)
	if got := s.ExpandIfShort(context.Background(), merged, []string{"alpha"}); got != merged {
		t.Errorf("Expected the rune-longer merged summary kept, got %q", got)
	}
}
