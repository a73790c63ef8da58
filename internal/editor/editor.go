// Package editor composes the engine: document, history, rendering
// dispatch, operation log, search, and plugin lifecycle behind one
// façade. External callers (UI, API clients) talk to an Engine; the
// focused components stay independently testable underneath it.
package editor

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/inkdoc/inkdoc/internal/document"
	"github.com/inkdoc/inkdoc/internal/document/config"
	"github.com/inkdoc/inkdoc/internal/document/convert"
	"github.com/inkdoc/inkdoc/internal/document/history"
	"github.com/inkdoc/inkdoc/internal/document/oplog"
	"github.com/inkdoc/inkdoc/internal/document/render"
	"github.com/inkdoc/inkdoc/internal/document/search"
	"github.com/inkdoc/inkdoc/internal/document/snapshot"
)

type Engine struct {
	cfg        *config.Config
	doc        *document.Document
	history    *history.History
	dispatcher *render.Dispatcher
	oplog      *oplog.Log
	search     *search.Engine
	logger     *zap.Logger

	selection string
	focus     string
	plugins   []*config.Plugin // initialized, in order
}

type options struct {
	historyLimit  int
	cacheCapacity int
	logger        *zap.Logger
}

type Option func(*options)

func WithHistoryLimit(limit int) Option {
	return func(o *options) { o.historyLimit = limit }
}

func WithRenderCacheCapacity(capacity int) Option {
	return func(o *options) { o.cacheCapacity = capacity }
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// New builds an engine bound to cfg and runs the plugin initialization
// phase. Initialization is the only cancellable phase; once New returns,
// all operations are synchronous and run to completion.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Engine, error) {
	o := options{
		historyLimit:  history.DefaultLimit,
		cacheCapacity: render.DefaultCacheCapacity,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	doc := document.New(cfg, document.WithLogger(o.logger))

	e := &Engine{
		cfg:     cfg,
		doc:     doc,
		history: history.New(doc, o.historyLimit),
		dispatcher: render.NewDispatcher(doc,
			render.WithCacheCapacity(o.cacheCapacity),
			render.WithLogger(o.logger),
		),
		oplog:  oplog.New(doc, oplog.WithLogger(o.logger)),
		search: search.New(doc),
		logger: o.logger,
	}

	if err := e.initializePlugins(ctx); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Engine) initializePlugins(ctx context.Context) error {
	for _, p := range e.cfg.Plugins() {
		if err := ctx.Err(); err != nil {
			return multierr.Append(errors.Wrap(err, "initialization cancelled"), e.cleanupPlugins())
		}
		if p.Initialize != nil {
			if err := p.Initialize(ctx); err != nil {
				err = errors.Wrapf(err, "plugin %q failed to initialize", p.Name)
				return multierr.Append(err, e.cleanupPlugins())
			}
		}
		e.plugins = append(e.plugins, p)
		e.logger.Debug("plugin initialized", zap.String("name", p.Name))
	}
	return nil
}

func (e *Engine) cleanupPlugins() error {
	var errs error
	for i := len(e.plugins) - 1; i >= 0; i-- {
		p := e.plugins[i]
		if p.Cleanup == nil {
			continue
		}
		if err := p.Cleanup(); err != nil {
			errs = multierr.Append(errs, errors.Wrapf(err, "plugin %q failed to clean up", p.Name))
		}
	}
	e.plugins = nil
	return errs
}

// Close runs plugin cleanup in reverse initialization order.
func (e *Engine) Close() error {
	return e.cleanupPlugins()
}

func (e *Engine) Document() *document.Document { return e.doc }

func (e *Engine) Config() *config.Config { return e.cfg }

func (e *Engine) Subscribe(l document.Listener) { e.doc.Subscribe(l) }

// SwapConfig atomically rebinds the configuration. All render caches are
// invalidated through the config-changed event.
func (e *Engine) SwapConfig(cfg *config.Config) {
	e.cfg = cfg
	e.doc.SwapConfig(cfg)
}

// --- mutations -------------------------------------------------------

func (e *Engine) InsertBlock(index int, tag string, raw map[string]any) (*document.Block, error) {
	return e.doc.Insert(index, tag, raw)
}

// InsertDefaultBlock inserts a block carrying the type's default payload.
func (e *Engine) InsertDefaultBlock(index int, tag string) (*document.Block, error) {
	raw, err := e.cfg.DefaultValue(tag)
	if err != nil {
		return nil, err
	}
	return e.doc.Insert(index, tag, raw)
}

func (e *Engine) RemoveBlock(index int) (*document.Block, error) {
	return e.doc.Remove(index)
}

func (e *Engine) UpdateBlock(index int, raw map[string]any) error {
	return e.doc.Update(index, raw)
}

func (e *Engine) ReorderBlock(from, to int) error {
	return e.doc.Reorder(from, to)
}

func (e *Engine) RearrangeBlocks(order []int) error {
	return e.doc.Rearrange(order)
}

func (e *Engine) DuplicateBlock(index int) (*document.Block, error) {
	return e.doc.Duplicate(index)
}

// --- history ---------------------------------------------------------

func (e *Engine) Undo() bool { return e.history.Undo() }

func (e *Engine) Redo() bool { return e.history.Redo() }

func (e *Engine) CanUndo() bool { return e.history.CanUndo() }

func (e *Engine) CanRedo() bool { return e.history.CanRedo() }

// BeginBatch groups subsequent mutations into one undo step until
// EndBatch.
func (e *Engine) BeginBatch() { e.history.Begin() }

func (e *Engine) EndBatch() { e.history.End() }

func (e *Engine) ResetHistory() { e.history.Reset() }

// --- rendering -------------------------------------------------------

// RenderBlock renders a single block through the dispatcher.
func (e *Engine) RenderBlock(index int) (render.Output, error) {
	return e.dispatcher.RenderOne(index)
}

// RenderAll renders the whole document. Plugins with a BeforeRender hook
// may rewrite the (type, payload) list first; in that case the rewritten
// list is rendered without touching the per-block cache. AfterRender
// hooks post-process the assembled outputs.
func (e *Engine) RenderAll() []render.Output {
	outputs := e.renderOutputs()

	for _, p := range e.plugins {
		if p.AfterRender == nil {
			continue
		}
		values := make([]any, len(outputs))
		for i, out := range outputs {
			values[i] = out.Value
		}
		values = p.AfterRender(values)
		if len(values) != len(outputs) {
			e.logger.Warn("plugin changed output count, ignoring",
				zap.String("name", p.Name))
			continue
		}
		for i := range outputs {
			outputs[i].Value = values[i]
		}
	}
	return outputs
}

func (e *Engine) renderOutputs() []render.Output {
	rewritten := false
	var blocks []config.BlockData

	for _, p := range e.plugins {
		if p.BeforeRender == nil {
			continue
		}
		if !rewritten {
			blocks = e.blockData()
			rewritten = true
		}
		blocks = p.BeforeRender(blocks)
	}

	if !rewritten {
		return e.dispatcher.RenderAll()
	}
	return e.renderData(blocks)
}

func (e *Engine) blockData() []config.BlockData {
	docBlocks := e.doc.Blocks()
	out := make([]config.BlockData, 0, len(docBlocks))
	for _, b := range docBlocks {
		out = append(out, config.BlockData{Type: b.Type(), Raw: b.Raw()})
	}
	return out
}

func (e *Engine) renderData(blocks []config.BlockData) []render.Output {
	outputs := make([]render.Output, 0, len(blocks))
	for _, bd := range blocks {
		outputs = append(outputs, e.renderDatum(bd))
	}
	return outputs
}

func (e *Engine) renderDatum(bd config.BlockData) (out render.Output) {
	defer func() {
		if rec := recover(); rec != nil {
			err := errors.Errorf("renderer for type %q panicked: %v", bd.Type, rec)
			out = render.Output{Value: render.Placeholder{Message: err.Error()}, Err: err}
		}
	}()

	renderer, err := e.cfg.ResolveRenderer(bd.Type)
	if err != nil {
		return render.Output{Value: render.Placeholder{Message: err.Error()}, Err: err}
	}
	value, err := renderer(bd.Raw)
	if err != nil {
		err = errors.Wrapf(err, "renderer for type %q", bd.Type)
		return render.Output{Value: render.Placeholder{Message: err.Error()}, Err: err}
	}
	return render.Output{Value: value}
}

func (e *Engine) InvalidateRenderCache() { e.dispatcher.InvalidateCache() }

// --- persistence -----------------------------------------------------

func (e *Engine) Serialize() ([]byte, error) {
	return snapshot.Serialize(e.doc)
}

// Deserialize replaces the document's content with a restored snapshot.
// History is reset; undo cannot cross a restore boundary.
func (e *Engine) Deserialize(data []byte) error {
	restored, err := snapshot.Deserialize(data, e.cfg)
	if err != nil {
		return err
	}
	e.doc.Restore(restored.Snapshot())
	e.history.Reset()
	return nil
}

// ExportTo delegates to the format converters.
func (e *Engine) ExportTo(format convert.Format) ([]byte, error) {
	return convert.Export(e.doc, format)
}

// ImportFrom replaces the document's content with imported external
// content. History is reset.
func (e *Engine) ImportFrom(data []byte, format convert.Format) error {
	imported, err := convert.Import(data, format, e.cfg)
	if err != nil {
		return err
	}
	e.doc.Restore(imported.Snapshot())
	e.history.Reset()
	return nil
}

// --- collaboration ---------------------------------------------------

func (e *Engine) ApplyOperation(op oplog.Operation) error {
	return e.oplog.Apply(op)
}

func (e *Engine) MergeOperations(ops []oplog.Operation) error {
	return e.oplog.Merge(ops)
}

func (e *Engine) Operations(fromVersion uint64) []oplog.Operation {
	return e.oplog.Operations(fromVersion)
}

// --- search ----------------------------------------------------------

func (e *Engine) Find(query string, opts search.Options) ([]search.Match, error) {
	return e.search.Find(query, opts)
}

// Replace substitutes matches through block updates. A replace-all runs
// as one history batch, so a single undo reverts it.
func (e *Engine) Replace(query, replacement string, opts search.ReplaceOptions) (int, error) {
	if opts.ReplaceAll {
		e.history.Begin()
		defer e.history.End()
	}
	return e.search.Replace(query, replacement, opts)
}

// --- selection and focus ---------------------------------------------

func (e *Engine) SetSelection(blockID string) {
	if e.selection == blockID {
		return
	}
	e.selection = blockID
	e.doc.Publish(document.Event{Name: document.EventSelectionChanged, BlockID: blockID})
}

func (e *Engine) Selection() string { return e.selection }

func (e *Engine) SetFocus(blockID string) {
	if e.focus == blockID {
		return
	}
	e.focus = blockID
	e.doc.Publish(document.Event{Name: document.EventFocusChanged, BlockID: blockID})
}

func (e *Engine) Focus() string { return e.focus }
