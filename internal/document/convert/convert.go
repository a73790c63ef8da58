// Package convert bridges documents to external markup formats. The
// format set is an open enumeration; converters consume the ordered
// block list and the per-type text projections, never the engine's
// internals.
package convert

import (
	"bytes"
	"strings"

	"github.com/pkg/errors"
	"github.com/yuin/goldmark"

	"github.com/inkdoc/inkdoc/internal/document"
	"github.com/inkdoc/inkdoc/internal/document/config"
)

var ErrFormatUnsupported = document.ErrFormatUnsupported

type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
	FormatText     Format = "text"
)

// Export renders the document into an external format.
func Export(doc *document.Document, format Format) ([]byte, error) {
	switch format {
	case FormatMarkdown:
		return exportMarkdown(doc, true)
	case FormatHTML:
		return exportHTML(doc)
	case FormatText:
		return exportText(doc), nil
	default:
		return nil, errors.Wrapf(ErrFormatUnsupported, "format %q", format)
	}
}

// Import builds a document from external content. Only markdown can be
// imported; rendered formats are one-way.
func Import(data []byte, format Format, cfg *config.Config) (*document.Document, error) {
	switch format {
	case FormatMarkdown:
		return importMarkdown(data, cfg)
	default:
		return nil, errors.Wrapf(ErrFormatUnsupported, "format %q", format)
	}
}

func exportHTML(doc *document.Document) ([]byte, error) {
	md, err := exportMarkdown(doc, false)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := goldmark.Convert(md, &buf); err != nil {
		return nil, errors.Wrap(err, "failed to render html")
	}
	return buf.Bytes(), nil
}

func exportText(doc *document.Document) []byte {
	cfg := doc.Config()

	var sections []string
	for _, b := range doc.Blocks() {
		text, ok := cfg.ProjectText(b.Type(), b.Raw())
		if !ok || text == "" {
			continue
		}
		sections = append(sections, text)
	}

	if len(sections) == 0 {
		return nil
	}
	return []byte(strings.Join(sections, "\n\n") + "\n")
}
