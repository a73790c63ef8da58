// Package render maps blocks to their configured renderers and isolates
// per-block failures. One malformed block never blanks the whole
// document: its output slot carries an error placeholder instead.
package render

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/inkdoc/inkdoc/internal/document"
	"github.com/inkdoc/inkdoc/internal/lru"
)

const DefaultCacheCapacity = 512

// Placeholder is the designated error-output value substituted for a
// block whose renderer failed or is missing.
type Placeholder struct {
	Message string
}

// Output is the result of rendering one block. Err is non-nil when Value
// holds a Placeholder.
type Output struct {
	BlockID string
	Value   any
	Err     error
}

func (o Output) IsError() bool { return o.Err != nil }

// Dispatcher renders blocks through the document's bound configuration.
// Rendered outputs are cached per block until the block mutates or the
// configuration is swapped.
type Dispatcher struct {
	doc    *document.Document
	cache  *lru.Cache[any]
	logger *zap.Logger
}

type Option func(*Dispatcher)

func WithCacheCapacity(capacity int) Option {
	return func(r *Dispatcher) { r.cache = lru.NewCache[any](capacity) }
}

func WithLogger(logger *zap.Logger) Option {
	return func(r *Dispatcher) { r.logger = logger }
}

// NewDispatcher builds a dispatcher and subscribes it to the document's
// events so the cache is invalidated on mutation and configuration swap.
func NewDispatcher(doc *document.Document, opts ...Option) *Dispatcher {
	r := &Dispatcher{
		doc:    doc,
		cache:  lru.NewCache[any](DefaultCacheCapacity),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	doc.Subscribe(r.onEvent)
	return r
}

func (r *Dispatcher) onEvent(ev document.Event) {
	switch ev.Name {
	case document.EventBlockUpdated, document.EventBlockRemoved:
		r.Invalidate(ev.BlockID)
	case document.EventConfigChanged:
		r.InvalidateCache()
	case document.EventContentChanged:
		// A content change without a block id is a bulk change
		// (restore, rearrange); drop everything.
		if ev.BlockID == "" {
			r.InvalidateCache()
		}
	}
}

// Invalidate drops the cached output for one block.
func (r *Dispatcher) Invalidate(blockID string) {
	r.cache.Delete(blockID)
}

// InvalidateCache forces full recomputation on the next render.
func (r *Dispatcher) InvalidateCache() {
	r.cache.Clear()
}

// RenderOne renders the block at index. The returned error is non-nil
// only for an invalid index; renderer failures surface as a placeholder
// in the Output.
func (r *Dispatcher) RenderOne(index int) (Output, error) {
	block, err := r.doc.BlockAt(index)
	if err != nil {
		return Output{}, err
	}
	return r.renderBlock(block), nil
}

// RenderAll renders every block in sequence order. The result has exactly
// one entry per block; failed blocks carry placeholders.
func (r *Dispatcher) RenderAll() []Output {
	blocks := r.doc.Blocks()
	outputs := make([]Output, 0, len(blocks))
	for _, block := range blocks {
		outputs = append(outputs, r.renderBlock(block))
	}
	return outputs
}

func (r *Dispatcher) renderBlock(block *document.Block) Output {
	if value, ok := r.cache.Get(block.ID()); ok {
		return Output{BlockID: block.ID(), Value: value}
	}

	value, err := r.invoke(block)
	if err != nil {
		r.logger.Warn("renderer failed",
			zap.String("id", block.ID()),
			zap.String("type", block.Type()),
			zap.Error(err),
		)
		return Output{
			BlockID: block.ID(),
			Value:   Placeholder{Message: err.Error()},
			Err:     err,
		}
	}

	r.cache.Put(block.ID(), value)
	return Output{BlockID: block.ID(), Value: value}
}

func (r *Dispatcher) invoke(block *document.Block) (value any, err error) {
	renderer, err := r.doc.Config().ResolveRenderer(block.Type())
	if err != nil {
		return nil, err
	}

	defer func() {
		if rec := recover(); rec != nil {
			err = errors.Errorf("renderer for type %q panicked: %v", block.Type(), rec)
		}
	}()

	value, err = renderer(block.Raw())
	if err != nil {
		return nil, errors.Wrapf(err, "renderer for type %q", block.Type())
	}
	return value, nil
}
