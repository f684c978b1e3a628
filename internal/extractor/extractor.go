// Package extractor turns statement files into the plain text and
// candidate lines the parsers consume.
package extractor

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Document is the text of a statement file.
type Document struct {
	Path  string
	Text  string
	Pages int
}

// ReadFile extracts the text of a PDF or plain-text statement. The kind is
// chosen by extension.
func ReadFile(path string) (Document, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		pages, err := ReadPDF(path)
		if err != nil {
			return Document{}, err
		}
		return Document{Path: path, Text: strings.Join(pages, "\n"), Pages: len(pages)}, nil
	}

	data, err := os.ReadFile(path) // #nosec G304 -- statement path is chosen by the user
	if err != nil {
		return Document{}, fmt.Errorf("failed to read statement: %w", err)
	}
	return Document{Path: path, Text: normalizeNewlines(string(data)), Pages: 1}, nil
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
