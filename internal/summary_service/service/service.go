package service

import (
	"context"
	"fmt"

	"NurAI/internal/config"
	"NurAI/internal/summary_service/interfaces"
	"NurAI/internal/summary_service/pipeline"
	"NurAI/internal/summary_service/schema"
	"NurAI/internal/summary_service/storages/chunkstore"
	"NurAI/pkg/logger"

	"github.com/google/uuid"
)

// User-facing status messages. Every fatal condition maps to a short Kazakh
// message plus a boolean flag; internals are logged, never surfaced.
const (
	MsgEmptyText    = "Мәтін бос немесе оқылмады."
	MsgNoChunks     = "Кітап үшін векторлық чанктар табылмады."
	MsgBlocksFailed = "Блок-дөңгелету нәтиже бермеді."
	MsgMergeFailed  = "Қорытынды суммари құрастыру сәтсіз."
	MsgSaved        = "Сақталды"
	MsgSaveFailed   = "Сақтау сәтсіз"

	msgSchemaMismatch = "vector_chunks кестесінде 'chunk_index' бағаны жоқ немесе schema ескі. Төмендегі SQL-ді орындаңыз:"
)

// Service exposes the summarization pipeline to the rest of the application:
// ingest, build, regenerate, fetch, and the listing helpers the UI layer
// needs. One build runs to completion before its request returns; concurrent
// builds for the same book are not coordinated.
type Service struct {
	cfg        *config.SummaryConfig
	log        *logger.Logger
	splitter   interfaces.Splitter
	embedder   interfaces.EmbeddingModel
	chunks     interfaces.ChunkStore
	summaries  interfaces.SummaryStore
	summarizer *pipeline.Summarizer
}

// New creates a Service wired with its collaborators.
func New(
	cfg *config.SummaryConfig,
	log *logger.Logger,
	splitter interfaces.Splitter,
	embedder interfaces.EmbeddingModel,
	llm interfaces.LLM,
	chunks interfaces.ChunkStore,
	summaries interfaces.SummaryStore,
) *Service {
	return &Service{
		cfg:        cfg,
		log:        log,
		splitter:   splitter,
		embedder:   embedder,
		chunks:     chunks,
		summaries:  summaries,
		summarizer: pipeline.NewSummarizer(llm, log, cfg.MinChars),
	}
}

// embedTexts obtains one embedding per text, in order. A failed embedding
// call degrades to per-text nil markers; the ordering stage falls back to
// its as-is tier when embeddings are missing, so this is never fatal.
func (s *Service) embedTexts(ctx context.Context, texts []string) [][]float32 {
	if len(texts) == 0 {
		return nil
	}
	embeddings, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil || len(embeddings) != len(texts) {
		s.log.Error(fmt.Sprintf("Embedding error: %v", err))
		return make([][]float32, len(texts))
	}
	return embeddings
}

// IngestBook chunks the full text, embeds the chunks, and writes them as
// vector_chunks rows in insert batches. Returns (ok, message, chunk ids).
func (s *Service) IngestBook(ctx context.Context, subject, filename, fullText string) (bool, string, []string) {
	texts := s.splitter.Split(fullText)
	if len(texts) == 0 {
		return false, MsgEmptyText, nil
	}

	embeddings := s.embedTexts(ctx, texts)

	chunks := make([]schema.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = schema.Chunk{
			ID:        uuid.New().String(),
			Text:      text,
			Embedding: embeddings[i],
			Subject:   subject,
			Filename:  filename,
			Metadata: map[string]interface{}{
				schema.MetadataKeyChunkIndex: i,
			},
		}
	}

	ids, err := s.chunks.InsertChunks(ctx, chunks)
	if err != nil {
		s.log.Error(fmt.Sprintf("Ingest error: %v", err))
		if chunkstore.IsSchemaMismatch(err) {
			return false, msgSchemaMismatch + "\n" + chunkstore.RemediationSQL, nil
		}
		return false, fmt.Sprintf("Ингест қате: %v", err), nil
	}

	return true, fmt.Sprintf("%d чанктар енгізілді.", len(chunks)), ids
}

// BuildAndSaveSummary runs the full pipeline for an already-ingested book:
// fetch chunks, clean, order, block, summarize per block, merge, expand if
// short, and persist the result with its provenance metadata.
func (s *Service) BuildAndSaveSummary(ctx context.Context, subject, bookTitle, filename string) (bool, string) {
	chunks, err := s.chunks.FetchByBook(ctx, subject, filename)
	if err != nil {
		s.log.Error(fmt.Sprintf("Failed to fetch chunks for %s: %v", filename, err))
	}
	if len(chunks) == 0 {
		return false, MsgNoChunks
	}

	cleaned := pipeline.CleanAndDedupe(chunks)
	ordered, methodUsed, confidence := pipeline.DetermineOrdering(cleaned)

	blocks := pipeline.SplitIntoBlocks(ordered, s.cfg.BlockTokens)
	var blockSummaries []string
	var chunkIDsUsed []string
	for _, block := range blocks {
		summary, ids := s.summarizer.SummarizeBlock(ctx, block)
		if summary != "" {
			blockSummaries = append(blockSummaries, summary)
		}
		chunkIDsUsed = append(chunkIDsUsed, ids...)
	}

	if len(blockSummaries) == 0 {
		return false, MsgBlocksFailed
	}

	merged := s.summarizer.MergeBlocks(ctx, blockSummaries)
	if merged == "" {
		return false, MsgMergeFailed
	}

	finalSummary := s.summarizer.ExpandIfShort(ctx, merged, blockSummaries)

	sections := make([]schema.SectionSummary, len(blockSummaries))
	for i := range blockSummaries {
		sections[i] = schema.SectionSummary{
			SectionTitle: fmt.Sprintf("Section %d", i+1),
			ParagraphID:  fmt.Sprintf("p%d", i+1),
			ChunkIDs:     []string{},
		}
	}

	meta := &schema.SummaryMeta{
		SectionSummaries:   sections,
		MethodUsed:         methodUsed,
		OrderingConfidence: confidence,
		ChunkIDsUsed:       dedupeStrings(chunkIDsUsed),
	}

	if err := s.summaries.Save(ctx, subject, bookTitle, finalSummary, meta); err != nil {
		s.log.Error(fmt.Sprintf("Failed to save summary: %v", err))
		return false, MsgSaveFailed
	}
	return true, MsgSaved
}

// RegenerateSummary drops the book's vector chunks, re-ingests the full
// text, and rebuilds the summary. The old chunks are deleted before the
// rebuild is confirmed; a failed rebuild leaves the book without chunks
// until the next successful build.
func (s *Service) RegenerateSummary(ctx context.Context, subject, bookTitle, filename, fullText string) (bool, string) {
	if err := s.chunks.DeleteByBook(ctx, subject, filename); err != nil {
		s.log.Warn(fmt.Sprintf("Failed to delete prior chunks for %s/%s: %v", subject, filename, err))
	}
	ok, msg, _ := s.IngestBook(ctx, subject, filename, fullText)
	if !ok {
		return false, msg
	}
	return s.BuildAndSaveSummary(ctx, subject, bookTitle, filename)
}

// FetchSummary returns the stored summary for (subject, bookTitle), or nil
// when none exists.
func (s *Service) FetchSummary(ctx context.Context, subject, bookTitle string) (*schema.SummaryRecord, error) {
	return s.summaries.Fetch(ctx, subject, bookTitle)
}

// FetchChunksByIDs resolves provenance ids back to their source chunks, for
// the sources view under a rendered summary.
func (s *Service) FetchChunksByIDs(ctx context.Context, ids []string) (map[string]schema.Chunk, error) {
	return s.chunks.FetchByIDs(ctx, ids)
}

// ListSummaryBooks returns the book titles with a stored summary for a subject.
func (s *Service) ListSummaryBooks(ctx context.Context, subject string) ([]string, error) {
	return s.summaries.ListBooks(ctx, subject)
}

// ListVectorFilenames returns the filenames with ingested chunks for a subject.
func (s *Service) ListVectorFilenames(ctx context.Context, subject string) ([]string, error) {
	return s.chunks.ListFilenames(ctx, subject)
}

// dedupeStrings removes duplicates preserving first-seen order.
func dedupeStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
