package loaders

import (
	"context"
	"path/filepath"
	"strings"

	"NurAI/internal/summary_service/interfaces"
)

// ForPath picks a loader by file extension. Unsupported extensions fall back
// to the text loader.
func ForPath(path string) interfaces.Loader {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return NewPdfLoader()
	case ".epub":
		return NewEpubLoader()
	default:
		return NewTxtLoader()
	}
}

// ReadText returns best-effort extracted plain text for a file, and an empty
// string on any failure. Callers treat empty as "nothing to summarize", not
// as an exception.
func ReadText(ctx context.Context, path string) string {
	text, err := ForPath(path).Load(ctx, path)
	if err != nil {
		return ""
	}
	return text
}
