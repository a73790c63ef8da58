// Package search scans the textual projections of blocks. Blocks whose
// type has no projection are skipped. Replacements go through
// Document.Update, so they participate in validation and history exactly
// as manual edits do.
package search

import (
	"regexp"
	"strings"

	"github.com/gobwas/glob"
	"github.com/pkg/errors"

	"github.com/inkdoc/inkdoc/internal/document"
)

// Options control matching. TypeGlob optionally restricts the scan to
// block types matching a glob pattern, e.g. "head*".
type Options struct {
	CaseSensitive bool
	WholeWord     bool
	TypeGlob      string
}

type ReplaceOptions struct {
	CaseSensitive bool
	WholeWord     bool
	ReplaceAll    bool
	TypeGlob      string
}

// Span is a half-open byte range [Start, End) within a block's textual
// projection.
type Span struct {
	Start int
	End   int
}

// Match holds all spans found within one block.
type Match struct {
	BlockID string
	Index   int
	Spans   []Span
}

type Engine struct {
	doc *document.Document
}

func New(doc *document.Document) *Engine {
	return &Engine{doc: doc}
}

// Find returns per-block match spans in sequence order.
func (e *Engine) Find(query string, opts Options) ([]Match, error) {
	if query == "" {
		return nil, nil
	}

	re, err := compileQuery(query, opts.CaseSensitive, opts.WholeWord)
	if err != nil {
		return nil, err
	}
	typeFilter, err := compileTypeGlob(opts.TypeGlob)
	if err != nil {
		return nil, err
	}

	var matches []Match
	cfg := e.doc.Config()

	for i, b := range e.doc.Blocks() {
		if typeFilter != nil && !typeFilter.Match(b.Type()) {
			continue
		}
		text, ok := cfg.ProjectText(b.Type(), b.Raw())
		if !ok {
			continue
		}

		var spans []Span
		for _, loc := range re.FindAllStringIndex(text, -1) {
			spans = append(spans, Span{Start: loc[0], End: loc[1]})
		}
		if len(spans) > 0 {
			matches = append(matches, Match{BlockID: b.ID(), Index: i, Spans: spans})
		}
	}
	return matches, nil
}

// Replace substitutes query with replacement through each affected
// block's update and returns the number of replacements performed. With
// ReplaceAll false only the first match across the whole document, in
// sequence order, is replaced. Blocks whose projection cannot be written
// back are skipped.
func (e *Engine) Replace(query, replacement string, opts ReplaceOptions) (int, error) {
	if query == "" {
		return 0, nil
	}

	re, err := compileQuery(query, opts.CaseSensitive, opts.WholeWord)
	if err != nil {
		return 0, err
	}
	typeFilter, err := compileTypeGlob(opts.TypeGlob)
	if err != nil {
		return 0, err
	}

	cfg := e.doc.Config()
	count := 0

	for i, b := range e.doc.Blocks() {
		if typeFilter != nil && !typeFilter.Match(b.Type()) {
			continue
		}
		text, ok := cfg.ProjectText(b.Type(), b.Raw())
		if !ok {
			continue
		}

		locs := re.FindAllStringIndex(text, -1)
		if len(locs) == 0 {
			continue
		}

		var next string
		var replaced int
		if opts.ReplaceAll {
			next = re.ReplaceAllLiteralString(text, replacement)
			replaced = len(locs)
		} else {
			loc := locs[0]
			next = text[:loc[0]] + replacement + text[loc[1]:]
			replaced = 1
		}

		raw, ok := cfg.ApplyText(b.Type(), b.Raw(), next)
		if !ok {
			continue
		}
		if err := e.doc.Update(i, raw); err != nil {
			return count, errors.Wrapf(err, "replace in block %q", b.ID())
		}
		count += replaced

		if !opts.ReplaceAll {
			return count, nil
		}
	}
	return count, nil
}

func compileQuery(query string, caseSensitive, wholeWord bool) (*regexp.Regexp, error) {
	var pattern strings.Builder
	if !caseSensitive {
		pattern.WriteString("(?i)")
	}
	if wholeWord {
		pattern.WriteString(`\b`)
	}
	pattern.WriteString(regexp.QuoteMeta(query))
	if wholeWord {
		pattern.WriteString(`\b`)
	}

	re, err := regexp.Compile(pattern.String())
	if err != nil {
		return nil, errors.Wrapf(err, "failed to compile query %q", query)
	}
	return re, nil
}

func compileTypeGlob(pattern string) (glob.Glob, error) {
	if pattern == "" {
		return nil, nil
	}
	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to compile type glob %q", pattern)
	}
	return g, nil
}
