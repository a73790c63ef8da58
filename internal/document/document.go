// Package document implements the ordered, mutable collection of typed
// blocks at the center of the engine. All mutations validate against the
// bound configuration, leave the sequence untouched on failure, and emit
// events for collaborators (renderers, history, UI surfaces).
package document

import (
	stderrors "errors"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/inkdoc/inkdoc/internal/document/config"
)

var (
	ErrIndexOutOfBounds = stderrors.New("index out of bounds")

	// ErrFormatUnsupported is the shared sentinel for any persistence or
	// conversion format the engine cannot handle. The snapshot and
	// convert packages both wrap it, so one errors.Is check covers both.
	ErrFormatUnsupported = stderrors.New("unsupported format")
)

// Recorder captures pre-mutation state for undo. The document calls it
// after every committed mutation, before events are delivered.
type Recorder interface {
	Record(pre *State)
}

// Document is an ordered sequence of blocks bound to a configuration.
// It expects a single writer context; operations run to completion
// without interleaving.
type Document struct {
	cfg       *config.Config
	blocks    []*Block
	version   uint64
	recorder  Recorder
	listeners []Listener
	logger    *zap.Logger
}

type Option func(*Document)

func WithLogger(logger *zap.Logger) Option {
	return func(d *Document) { d.logger = logger }
}

func New(cfg *config.Config, opts ...Option) *Document {
	d := &Document{
		cfg:    cfg,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Load builds a document from pre-validated blocks, e.g. a deserialized
// snapshot. No events are emitted and no history is recorded.
func Load(cfg *config.Config, blocks []*Block, opts ...Option) *Document {
	d := New(cfg, opts...)
	d.blocks = blocks
	return d
}

func (d *Document) Len() int { return len(d.blocks) }

func (d *Document) Version() uint64 { return d.version }

func (d *Document) Config() *config.Config { return d.cfg }

// SwapConfig atomically rebinds the configuration. Render caches keyed on
// the previous configuration must be invalidated by the caller; the
// document signals the swap through EventConfigChanged.
func (d *Document) SwapConfig(cfg *config.Config) {
	d.cfg = cfg
	d.publish(Event{Name: EventConfigChanged})
}

func (d *Document) SetRecorder(r Recorder) { d.recorder = r }

func (d *Document) Subscribe(l Listener) {
	d.listeners = append(d.listeners, l)
}

// Publish delivers an event to all listeners synchronously. Collaborators
// such as the history manager use it for their own notifications.
func (d *Document) Publish(ev Event) { d.publish(ev) }

func (d *Document) publish(ev Event) {
	for _, l := range d.listeners {
		l(ev)
	}
}

// BlockAt returns the block at index.
func (d *Document) BlockAt(index int) (*Block, error) {
	if index < 0 || index >= len(d.blocks) {
		return nil, errors.Wrapf(ErrIndexOutOfBounds, "index %d, length %d", index, len(d.blocks))
	}
	return d.blocks[index], nil
}

// BlockByID returns the block carrying id and its current index.
func (d *Document) BlockByID(id string) (*Block, int, bool) {
	for i, b := range d.blocks {
		if b.id == id {
			return b, i, true
		}
	}
	return nil, -1, false
}

// Blocks returns the ordered sequence. The slice is a copy; the blocks
// are not.
func (d *Document) Blocks() []*Block {
	out := make([]*Block, len(d.blocks))
	copy(out, d.blocks)
	return out
}

// Insert validates and inserts a new block at index, shifting subsequent
// blocks. Index len(d) appends.
func (d *Document) Insert(index int, tag string, raw map[string]any) (*Block, error) {
	if index < 0 || index > len(d.blocks) {
		return nil, errors.Wrapf(ErrIndexOutOfBounds, "index %d, length %d", index, len(d.blocks))
	}
	if err := d.validate(tag, raw); err != nil {
		return nil, err
	}

	pre := d.preState()
	block := NewBlock(tag, raw)

	d.blocks = append(d.blocks, nil)
	copy(d.blocks[index+1:], d.blocks[index:])
	d.blocks[index] = block

	d.committed(pre)
	d.logger.Debug("block inserted", zap.String("id", block.id), zap.String("type", tag), zap.Int("index", index))
	d.publish(Event{Name: EventBlockAdded, Index: index, BlockID: block.id})
	d.publish(Event{Name: EventContentChanged, Index: index, BlockID: block.id})
	return block, nil
}

// Remove deletes the block at index, shifting subsequent blocks down.
// The removed identity is retired for good.
func (d *Document) Remove(index int) (*Block, error) {
	if index < 0 || index >= len(d.blocks) {
		return nil, errors.Wrapf(ErrIndexOutOfBounds, "index %d, length %d", index, len(d.blocks))
	}

	pre := d.preState()
	block := d.blocks[index]
	d.blocks = append(d.blocks[:index], d.blocks[index+1:]...)

	d.committed(pre)
	d.logger.Debug("block removed", zap.String("id", block.id), zap.Int("index", index))
	d.publish(Event{Name: EventBlockRemoved, Index: index, BlockID: block.id})
	d.publish(Event{Name: EventContentChanged, Index: index, BlockID: block.id})
	return block, nil
}

// Update replaces the payload of the block at index after re-validating
// it against the block's existing type. The document is unchanged on
// failure.
func (d *Document) Update(index int, raw map[string]any) error {
	if index < 0 || index >= len(d.blocks) {
		return errors.Wrapf(ErrIndexOutOfBounds, "index %d, length %d", index, len(d.blocks))
	}
	block := d.blocks[index]
	if err := d.validate(block.tag, raw); err != nil {
		return err
	}

	pre := d.preState()
	block.raw = deepCopyPayload(raw)

	d.committed(pre)
	d.publish(Event{Name: EventBlockUpdated, Index: index, BlockID: block.id})
	d.publish(Event{Name: EventContentChanged, Index: index, BlockID: block.id})
	return nil
}

// Reorder moves the block at from to position to. Identities are
// preserved; only positions change.
func (d *Document) Reorder(from, to int) error {
	if from < 0 || from >= len(d.blocks) {
		return errors.Wrapf(ErrIndexOutOfBounds, "from %d, length %d", from, len(d.blocks))
	}
	if to < 0 || to >= len(d.blocks) {
		return errors.Wrapf(ErrIndexOutOfBounds, "to %d, length %d", to, len(d.blocks))
	}
	if from == to {
		return nil
	}

	pre := d.preState()
	block := d.blocks[from]
	d.blocks = append(d.blocks[:from], d.blocks[from+1:]...)

	rest := make([]*Block, 0, len(d.blocks)+1)
	rest = append(rest, d.blocks[:to]...)
	rest = append(rest, block)
	rest = append(rest, d.blocks[to:]...)
	d.blocks = rest

	d.committed(pre)
	d.publish(Event{Name: EventContentChanged, Index: to, BlockID: block.id})
	return nil
}

// Rearrange permutes the whole sequence. order must be a bijection over
// the current index set: every current index appears exactly once.
func (d *Document) Rearrange(order []int) error {
	if len(order) != len(d.blocks) {
		return errors.Wrapf(ErrIndexOutOfBounds, "order has %d entries, document has %d blocks", len(order), len(d.blocks))
	}
	seen := make([]bool, len(d.blocks))
	for _, idx := range order {
		if idx < 0 || idx >= len(d.blocks) {
			return errors.Wrapf(ErrIndexOutOfBounds, "index %d, length %d", idx, len(d.blocks))
		}
		if seen[idx] {
			return errors.Wrapf(ErrIndexOutOfBounds, "index %d appears more than once", idx)
		}
		seen[idx] = true
	}

	pre := d.preState()
	next := make([]*Block, len(d.blocks))
	for pos, idx := range order {
		next[pos] = d.blocks[idx]
	}
	d.blocks = next

	d.committed(pre)
	d.publish(Event{Name: EventContentChanged})
	return nil
}

// Duplicate deep-copies the block at index under a fresh identity and
// inserts the copy immediately after it. The copy is independent: later
// mutation of one does not affect the other.
func (d *Document) Duplicate(index int) (*Block, error) {
	if index < 0 || index >= len(d.blocks) {
		return nil, errors.Wrapf(ErrIndexOutOfBounds, "index %d, length %d", index, len(d.blocks))
	}

	pre := d.preState()
	source := d.blocks[index]
	dup := NewBlock(source.tag, source.raw)

	d.blocks = append(d.blocks, nil)
	copy(d.blocks[index+2:], d.blocks[index+1:])
	d.blocks[index+1] = dup

	d.committed(pre)
	d.publish(Event{Name: EventBlockAdded, Index: index + 1, BlockID: dup.id})
	d.publish(Event{Name: EventContentChanged, Index: index + 1, BlockID: dup.id})
	return dup, nil
}

func (d *Document) validate(tag string, raw map[string]any) error {
	if err := d.cfg.Validate(tag, raw); err != nil {
		d.publish(Event{Name: EventValidationFailed, Err: err})
		return err
	}
	return nil
}

// preState captures the pre-mutation state when a recorder is attached.
func (d *Document) preState() *State {
	if d.recorder == nil {
		return nil
	}
	return d.Snapshot()
}

func (d *Document) committed(pre *State) {
	d.version++
	if d.recorder != nil && pre != nil {
		d.recorder.Record(pre)
	}
}

// State is a point-in-time deep copy of the sequence, used by the history
// manager and the serializer.
type State struct {
	blocks  []*Block
	version uint64
}

func (s *State) Blocks() []*Block { return s.blocks }

// Snapshot captures the current sequence. Blocks are deep-copied so later
// mutations cannot leak into the captured state.
func (d *Document) Snapshot() *State {
	blocks := make([]*Block, len(d.blocks))
	for i, b := range d.blocks {
		blocks[i] = b.Clone()
	}
	return &State{blocks: blocks, version: d.version}
}

// Restore replaces the sequence with a captured state. The version
// counter keeps advancing monotonically; it never rolls back. Restore
// bypasses the recorder, so undo itself is not undoable.
func (d *Document) Restore(st *State) {
	blocks := make([]*Block, len(st.blocks))
	for i, b := range st.blocks {
		blocks[i] = b.Clone()
	}
	d.blocks = blocks
	d.version++
	d.publish(Event{Name: EventContentChanged})
}
