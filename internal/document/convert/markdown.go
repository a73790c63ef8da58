package convert

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"

	"github.com/inkdoc/inkdoc/internal/document"
	"github.com/inkdoc/inkdoc/internal/document/config"
	"github.com/inkdoc/inkdoc/internal/document/schema"
)

func exportMarkdown(doc *document.Document, withFrontmatter bool) ([]byte, error) {
	var sections []string

	if withFrontmatter {
		fm, err := marshalFrontmatter(doc.Config().Metadata())
		if err != nil {
			return nil, err
		}
		if len(fm) > 0 {
			sections = append(sections, strings.TrimRight(string(fm), "\n"))
		}
	}

	cfg := doc.Config()
	for _, b := range doc.Blocks() {
		section, ok := markdownSection(cfg, b)
		if !ok {
			continue
		}
		sections = append(sections, section)
	}

	if len(sections) == 0 {
		return nil, nil
	}
	return []byte(strings.Join(sections, "\n\n") + "\n"), nil
}

func markdownSection(cfg *config.Config, b *document.Block) (string, bool) {
	raw := b.Raw()

	switch b.Type() {
	case schema.TagHeading:
		content, _ := raw["content"].(string)
		return strings.Repeat("#", intField(raw, "level", 1)) + " " + content, true
	case schema.TagText:
		content, _ := raw["content"].(string)
		return content, true
	case schema.TagCode:
		content, _ := raw["content"].(string)
		language, _ := raw["language"].(string)
		return fmt.Sprintf("```%s\n%s\n```", language, content), true
	case schema.TagImage:
		url, _ := raw["url"].(string)
		alt, _ := raw["alt"].(string)
		return fmt.Sprintf("![%s](%s)", alt, url), true
	case schema.TagDivider:
		return "---", true
	default:
		// Custom types fall back to their textual projection.
		return cfg.ProjectText(b.Type(), raw)
	}
}

func intField(raw map[string]any, key string, fallback int) int {
	switch v := raw[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return fallback
	}
}

// importMarkdown splits a markdown source into blocks. Top-level AST
// nodes map onto the built-in tags; anything unrecognized becomes a text
// block carrying its raw source.
func importMarkdown(data []byte, cfg *config.Config) (*document.Document, error) {
	metadata, content, err := parseFrontmatter(data)
	if err != nil {
		return nil, err
	}
	for k, v := range metadata {
		cfg.SetMetadata(k, v)
	}

	root := goldmark.DefaultParser().Parse(gmtext.NewReader(content))

	var blocks []*document.Block
	for node := root.FirstChild(); node != nil; node = node.NextSibling() {
		tag, raw := blockFromNode(node, content)
		if tag == "" {
			continue
		}
		if err := cfg.Validate(tag, raw); err != nil {
			return nil, errors.Wrapf(err, "imported %s block", tag)
		}
		blocks = append(blocks, document.NewBlock(tag, raw))
	}

	return document.Load(cfg, blocks), nil
}

func blockFromNode(node ast.Node, source []byte) (string, map[string]any) {
	switch n := node.(type) {
	case *ast.Heading:
		return schema.TagHeading, map[string]any{
			"content": string(n.Text(source)),
			"level":   n.Level,
		}

	case *ast.FencedCodeBlock:
		var buf bytes.Buffer
		for i := 0; i < n.Lines().Len(); i++ {
			line := n.Lines().At(i)
			buf.Write(line.Value(source))
		}
		return schema.TagCode, map[string]any{
			"content":  strings.TrimRight(buf.String(), "\n"),
			"language": string(n.Language(source)),
		}

	case *ast.ThematicBreak:
		return schema.TagDivider, map[string]any{}

	case *ast.Paragraph:
		if img, ok := soleImage(n); ok {
			return schema.TagImage, map[string]any{
				"url": string(img.Destination),
				"alt": string(img.Text(source)),
			}
		}
		return schema.TagText, map[string]any{"content": nodeSource(n, source)}

	default:
		text := nodeSource(node, source)
		if text == "" {
			return "", nil
		}
		return schema.TagText, map[string]any{"content": text}
	}
}

func soleImage(p *ast.Paragraph) (*ast.Image, bool) {
	if p.ChildCount() != 1 {
		return nil, false
	}
	img, ok := p.FirstChild().(*ast.Image)
	return img, ok
}

// nodeSource reconstructs the raw source slice spanned by a node and its
// descendants.
func nodeSource(node ast.Node, source []byte) string {
	start, stop := -1, -1

	var walk func(n ast.Node)
	walk = func(n ast.Node) {
		if n.Type() == ast.TypeBlock {
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				if start == -1 || seg.Start < start {
					start = seg.Start
				}
				if seg.Stop > stop {
					stop = seg.Stop
				}
			}
		}
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			walk(c)
		}
	}
	walk(node)

	if start < 0 || stop <= start {
		return ""
	}
	// Extend left to the true line start so list markers and quote
	// prefixes survive.
	for start > 0 && source[start-1] != '\n' {
		start--
	}
	return strings.TrimRight(string(source[start:stop]), "\n")
}
