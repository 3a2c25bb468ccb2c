package interfaces

import (
	"context"

	"NurAI/internal/summary_service/schema"
)

// Loader is the interface for extracting plain text from a source file.
// Implementations return best-effort text; an empty string means nothing
// could be extracted.
type Loader interface {
	Load(ctx context.Context, path string) (string, error)
}

// Splitter is the interface for cutting raw text into overlapping windows.
// Splitting is a pure function of its input.
type Splitter interface {
	Split(text string) []string
}

// EmbeddingModel is the interface for a text embedding model.
type EmbeddingModel interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// LLM is the interface for a single-turn chat completion.
type LLM interface {
	Complete(ctx context.Context, system, user string, temperature float32, maxTokens int) (string, error)
}

// ChunkStore persists and retrieves a book's vector chunks.
type ChunkStore interface {
	// InsertChunks writes chunks in batches and returns the chunk ids actually stored.
	InsertChunks(ctx context.Context, chunks []schema.Chunk) ([]string, error)
	// FetchByBook returns all chunks for a (subject, filename) pair.
	FetchByBook(ctx context.Context, subject, filename string) ([]schema.Chunk, error)
	// FetchByIDs resolves chunks by id, falling back to the legacy chunk_id column.
	FetchByIDs(ctx context.Context, ids []string) (map[string]schema.Chunk, error)
	// DeleteByBook removes all chunks for a (subject, filename) pair.
	DeleteByBook(ctx context.Context, subject, filename string) error
	// ListFilenames returns the distinct filenames ingested for a subject.
	ListFilenames(ctx context.Context, subject string) ([]string, error)
}

// SummaryStore owns the summary row lifecycle: replace-on-save, fetch, list.
type SummaryStore interface {
	// Save upserts the summary for (subject, bookTitle), replacing any prior row.
	Save(ctx context.Context, subject, bookTitle, markdown string, meta *schema.SummaryMeta) error
	// Fetch returns the summary for (subject, bookTitle), or nil when absent.
	Fetch(ctx context.Context, subject, bookTitle string) (*schema.SummaryRecord, error)
	// ListBooks returns the distinct book titles that have summaries for a subject.
	ListBooks(ctx context.Context, subject string) ([]string, error)
}
