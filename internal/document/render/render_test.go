package render

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkdoc/inkdoc/internal/document"
	"github.com/inkdoc/inkdoc/internal/document/config"
	"github.com/inkdoc/inkdoc/internal/document/schema"
)

func TestDispatcher_RenderAll(t *testing.T) {
	d := document.New(config.Default())
	r := NewDispatcher(d)

	_, err := d.Insert(0, schema.TagHeading, map[string]any{"content": "Title", "level": 1})
	require.NoError(t, err)
	_, err = d.Insert(1, schema.TagText, map[string]any{"content": "hello"})
	require.NoError(t, err)

	outputs := r.RenderAll()
	require.Len(t, outputs, 2)
	assert.Equal(t, "# Title", outputs[0].Value)
	assert.Equal(t, "hello", outputs[1].Value)
}

func TestDispatcher_RenderOne(t *testing.T) {
	d := document.New(config.Default())
	r := NewDispatcher(d)

	_, err := d.Insert(0, schema.TagText, map[string]any{"content": "hello"})
	require.NoError(t, err)

	out, err := r.RenderOne(0)
	require.NoError(t, err)
	assert.Equal(t, "hello", out.Value)
	assert.False(t, out.IsError())

	_, err = r.RenderOne(1)
	assert.True(t, errors.Is(err, document.ErrIndexOutOfBounds))
}

func TestDispatcher_MissingRendererIsIsolated(t *testing.T) {
	cfg := config.New(schema.Builtin())
	require.NoError(t, cfg.RegisterType(schema.TagText, &config.Type{
		Renderer: func(raw map[string]any) (any, error) {
			return raw["content"], nil
		},
	}))
	// TagDivider has no renderer in this configuration.

	d := document.New(cfg)
	r := NewDispatcher(d)

	_, err := d.Insert(0, schema.TagText, map[string]any{"content": "ok"})
	require.NoError(t, err)
	_, err = d.Insert(1, schema.TagDivider, map[string]any{})
	require.NoError(t, err)
	_, err = d.Insert(2, schema.TagText, map[string]any{"content": "still ok"})
	require.NoError(t, err)

	outputs := r.RenderAll()
	require.Len(t, outputs, 3)

	assert.Equal(t, "ok", outputs[0].Value)

	require.True(t, outputs[1].IsError())
	assert.True(t, errors.Is(outputs[1].Err, config.ErrNoRendererConfigured))
	placeholder, ok := outputs[1].Value.(Placeholder)
	require.True(t, ok)
	assert.NotEmpty(t, placeholder.Message)

	assert.Equal(t, "still ok", outputs[2].Value)
}

func TestDispatcher_RendererErrorAndPanicAreIsolated(t *testing.T) {
	cfg := config.New(schema.Builtin())
	require.NoError(t, cfg.RegisterType(schema.TagText, &config.Type{
		Renderer: func(raw map[string]any) (any, error) {
			return nil, errors.New("boom")
		},
	}))
	require.NoError(t, cfg.RegisterType(schema.TagCode, &config.Type{
		Renderer: func(raw map[string]any) (any, error) {
			panic("renderer bug")
		},
	}))

	d := document.New(cfg)
	r := NewDispatcher(d)

	_, err := d.Insert(0, schema.TagText, map[string]any{"content": "x"})
	require.NoError(t, err)
	_, err = d.Insert(1, schema.TagCode, map[string]any{"content": "y"})
	require.NoError(t, err)

	outputs := r.RenderAll()
	require.Len(t, outputs, 2)
	assert.True(t, outputs[0].IsError())
	assert.True(t, outputs[1].IsError())
	assert.Contains(t, outputs[1].Value.(Placeholder).Message, "panicked")
}

func TestDispatcher_CacheInvalidation(t *testing.T) {
	calls := 0
	cfg := config.New(schema.Builtin())
	require.NoError(t, cfg.RegisterType(schema.TagText, &config.Type{
		Renderer: func(raw map[string]any) (any, error) {
			calls++
			return raw["content"], nil
		},
	}))

	d := document.New(cfg)
	r := NewDispatcher(d)

	_, err := d.Insert(0, schema.TagText, map[string]any{"content": "a"})
	require.NoError(t, err)

	r.RenderAll()
	r.RenderAll()
	assert.Equal(t, 1, calls)

	t.Run("update invalidates one block", func(t *testing.T) {
		require.NoError(t, d.Update(0, map[string]any{"content": "b"}))

		outputs := r.RenderAll()
		assert.Equal(t, "b", outputs[0].Value)
		assert.Equal(t, 2, calls)
	})

	t.Run("config swap invalidates everything", func(t *testing.T) {
		d.SwapConfig(cfg)
		r.RenderAll()
		assert.Equal(t, 3, calls)
	})

	t.Run("explicit invalidation", func(t *testing.T) {
		r.InvalidateCache()
		r.RenderAll()
		assert.Equal(t, 4, calls)
	})
}
