package search

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkdoc/inkdoc/internal/document"
	"github.com/inkdoc/inkdoc/internal/document/config"
	"github.com/inkdoc/inkdoc/internal/document/history"
	"github.com/inkdoc/inkdoc/internal/document/schema"
)

func newDoc(t *testing.T, contents ...string) *document.Document {
	t.Helper()
	d := document.New(config.Default())
	for _, content := range contents {
		_, err := d.Insert(d.Len(), schema.TagText, map[string]any{"content": content})
		require.NoError(t, err)
	}
	return d
}

func TestFind_CaseInsensitive(t *testing.T) {
	d := newDoc(t, "Hi there")
	e := New(d)

	matches, err := e.Find("hi", Options{CaseSensitive: false})
	require.NoError(t, err)

	require.Len(t, matches, 1)
	assert.Equal(t, 0, matches[0].Index)
	assert.Equal(t, []Span{{Start: 0, End: 2}}, matches[0].Spans)
}

func TestFind_CaseSensitive(t *testing.T) {
	d := newDoc(t, "Hi there, hi again")
	e := New(d)

	matches, err := e.Find("hi", Options{CaseSensitive: true})
	require.NoError(t, err)

	require.Len(t, matches, 1)
	assert.Equal(t, []Span{{Start: 10, End: 12}}, matches[0].Spans)
}

func TestFind_WholeWord(t *testing.T) {
	d := newDoc(t, "cat catalog cat")
	e := New(d)

	matches, err := e.Find("cat", Options{CaseSensitive: true, WholeWord: true})
	require.NoError(t, err)

	require.Len(t, matches, 1)
	assert.Equal(t, []Span{{Start: 0, End: 3}, {Start: 12, End: 15}}, matches[0].Spans)
}

func TestFind_SkipsBlocksWithoutProjection(t *testing.T) {
	d := newDoc(t, "hi")
	_, err := d.Insert(1, schema.TagImage, map[string]any{"url": "hi", "alt": "hi"})
	require.NoError(t, err)

	matches, err := New(d).Find("hi", Options{})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, 0, matches[0].Index)
}

func TestFind_TypeGlob(t *testing.T) {
	d := newDoc(t, "hi")
	_, err := d.Insert(1, schema.TagHeading, map[string]any{"content": "hi", "level": 1})
	require.NoError(t, err)

	matches, err := New(d).Find("hi", Options{TypeGlob: "head*"})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, 1, matches[0].Index)

	_, err = New(d).Find("hi", Options{TypeGlob: "[bad"})
	assert.Error(t, err)
}

func TestReplace_FirstMatchOnly(t *testing.T) {
	d := newDoc(t, "aaa", "aaa")
	e := New(d)

	count, err := e.Replace("a", "b", ReplaceOptions{CaseSensitive: true})
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	first, _ := d.BlockAt(0)
	second, _ := d.BlockAt(1)
	assert.Equal(t, "baa", first.Raw()["content"])
	assert.Equal(t, "aaa", second.Raw()["content"])
}

func TestReplace_All(t *testing.T) {
	d := newDoc(t, "aaa", "ba")
	e := New(d)

	count, err := e.Replace("a", "x", ReplaceOptions{CaseSensitive: true, ReplaceAll: true})
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	first, _ := d.BlockAt(0)
	second, _ := d.BlockAt(1)
	assert.Equal(t, "xxx", first.Raw()["content"])
	assert.Equal(t, "bx", second.Raw()["content"])
}

func TestReplace_ParticipatesInHistory(t *testing.T) {
	d := newDoc(t, "hello")
	h := history.New(d, history.DefaultLimit)

	_, err := New(d).Replace("hello", "goodbye", ReplaceOptions{CaseSensitive: true})
	require.NoError(t, err)

	require.True(t, h.Undo())
	b, _ := d.BlockAt(0)
	assert.Equal(t, "hello", b.Raw()["content"])
}

func TestReplace_ValidationFailureSurfaces(t *testing.T) {
	cfg := config.New(schema.Builtin())
	require.NoError(t, cfg.RegisterType(schema.TagText, &config.Type{
		Validator: func(raw map[string]any) bool {
			content, _ := raw["content"].(string)
			return content != "bad"
		},
		Projection: config.Projection{
			Extract: func(raw map[string]any) (string, bool) {
				s, ok := raw["content"].(string)
				return s, ok
			},
			Apply: func(raw map[string]any, text string) map[string]any {
				return map[string]any{"content": text}
			},
		},
	}))

	d := document.New(cfg)
	_, err := d.Insert(0, schema.TagText, map[string]any{"content": "bod"})
	require.NoError(t, err)

	_, err = New(d).Replace("o", "a", ReplaceOptions{CaseSensitive: true})
	require.Error(t, err)
	assert.True(t, errors.Is(err, schema.ErrInvalidBlockData))

	b, _ := d.BlockAt(0)
	assert.Equal(t, "bod", b.Raw()["content"], "document unchanged on failed replace")
}
