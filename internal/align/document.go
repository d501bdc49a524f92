package align

import (
	"fmt"
	"os"
	"strings"
)

// Block is one ordered unit of reference content, typically a paragraph.
type Block struct {
	OrderIndex int    `json:"order_index"`
	Text       string `json:"text"`
}

// Document is the canonical script a recording is meant to follow.
type Document struct {
	Path   string  `json:"path"`
	Blocks []Block `json:"blocks"`
}

// Extractor produces ordered blocks from a reference document.
type Extractor interface {
	Extract(path string) (*Document, error)
}

// PlainTextExtractor splits a UTF-8 text file into paragraph blocks separated
// by blank lines.
type PlainTextExtractor struct{}

func (PlainTextExtractor) Extract(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read reference document: %w", err)
	}
	return ParseDocument(path, string(data)), nil
}

// ParseDocument splits raw text into paragraph blocks. Consecutive non-blank
// lines join into one block; blank lines separate blocks.
func ParseDocument(path, raw string) *Document {
	doc := &Document{Path: path}
	var current []string

	flush := func() {
		if len(current) == 0 {
			return
		}
		text := strings.TrimSpace(strings.Join(current, " "))
		current = current[:0]
		if text == "" {
			return
		}
		doc.Blocks = append(doc.Blocks, Block{OrderIndex: len(doc.Blocks), Text: text})
	}

	for _, line := range strings.Split(raw, "\n") {
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		current = append(current, strings.TrimSpace(line))
	}
	flush()
	return doc
}
