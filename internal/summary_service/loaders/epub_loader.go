package loaders

import (
	"archive/zip"
	"context"
	"io"
	"strings"

	"NurAI/internal/summary_service/interfaces"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
)

// EpubLoader implements the Loader interface for EPUB files. An EPUB is a
// zip container of XHTML content documents; each content document is
// converted to Markdown text and the results joined in archive order.
type EpubLoader struct{}

// NewEpubLoader creates a new EpubLoader.
func NewEpubLoader() *EpubLoader {
	return &EpubLoader{}
}

// Load extracts text from every content document in the archive. Documents
// that fail to read or convert are skipped.
func (l *EpubLoader) Load(ctx context.Context, path string) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", err
	}
	defer zr.Close()

	var texts []string
	for _, file := range zr.File {
		name := strings.ToLower(file.Name)
		if !strings.HasSuffix(name, ".xhtml") && !strings.HasSuffix(name, ".html") && !strings.HasSuffix(name, ".htm") {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			continue
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			continue
		}

		markdown, err := htmltomarkdown.ConvertString(string(data))
		if err != nil {
			continue
		}
		if s := strings.TrimSpace(markdown); s != "" {
			texts = append(texts, s)
		}
	}

	return strings.Join(texts, "\n\n"), nil
}

// compile-time check to ensure EpubLoader implements the Loader interface
var _ interfaces.Loader = (*EpubLoader)(nil)
