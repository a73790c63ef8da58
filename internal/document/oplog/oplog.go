// Package oplog maintains a versioned log of document operations for
// collaboration. Operations created locally or received from remote
// participants are applied to the document exactly once, retained for
// replication, and checked for structural conflicts against the
// document's version counter.
package oplog

import (
	stderrors "errors"
	"sort"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/inkdoc/inkdoc/internal/document"
)

var ErrOperationConflict = stderrors.New("operation conflict")

type Kind string

const (
	KindInsert  Kind = "insert"
	KindRemove  Kind = "remove"
	KindUpdate  Kind = "update"
	KindReorder Kind = "reorder"
)

// Operation is one replayable document mutation. Index addresses inserts;
// TargetID addresses removes, updates, and reorders so stale positions do
// not corrupt the wrong block.
type Operation struct {
	Kind          Kind           `json:"kind"`
	Index         int            `json:"index,omitempty"`
	TargetID      string         `json:"targetId,omitempty"`
	BlockType     string         `json:"blockType,omitempty"`
	Payload       map[string]any `json:"payload,omitempty"`
	ToIndex       int            `json:"toIndex,omitempty"`
	OriginVersion uint64         `json:"originVersion"`
}

// Log applies operations to a document and retains them for replication.
type Log struct {
	doc    *document.Document
	ops    []Operation
	logger *zap.Logger
}

type Option func(*Log)

func WithLogger(logger *zap.Logger) Option {
	return func(l *Log) { l.logger = logger }
}

func New(doc *document.Document, opts ...Option) *Log {
	l := &Log{doc: doc, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Apply validates op against the current document state and applies it.
// A stale operation whose target no longer exists fails with
// ErrOperationConflict and leaves the document unchanged. A stale
// operation whose target still exists is applied last-writer-wins.
func (l *Log) Apply(op Operation) error {
	if err := l.apply(op); err != nil {
		return err
	}
	l.ops = append(l.ops, op)
	return nil
}

func (l *Log) apply(op Operation) error {
	stale := op.OriginVersion < l.doc.Version()

	switch op.Kind {
	case KindInsert:
		index := op.Index
		if index < 0 || index > l.doc.Len() {
			if !stale {
				return errors.Wrapf(document.ErrIndexOutOfBounds, "insert at %d", index)
			}
			// A stale insert may point past the end after concurrent
			// removals; clamp instead of dropping content.
			index = l.doc.Len()
		}
		_, err := l.doc.Insert(index, op.BlockType, op.Payload)
		return err

	case KindRemove:
		_, index, ok := l.doc.BlockByID(op.TargetID)
		if !ok {
			if stale {
				return errors.Wrapf(ErrOperationConflict, "remove of missing block %q at version %d", op.TargetID, op.OriginVersion)
			}
			return errors.Errorf("remove targets unknown block %q", op.TargetID)
		}
		_, err := l.doc.Remove(index)
		return err

	case KindUpdate:
		_, index, ok := l.doc.BlockByID(op.TargetID)
		if !ok {
			if stale {
				return errors.Wrapf(ErrOperationConflict, "update of missing block %q at version %d", op.TargetID, op.OriginVersion)
			}
			return errors.Errorf("update targets unknown block %q", op.TargetID)
		}
		return l.doc.Update(index, op.Payload)

	case KindReorder:
		_, index, ok := l.doc.BlockByID(op.TargetID)
		if !ok {
			if stale {
				return errors.Wrapf(ErrOperationConflict, "reorder of missing block %q at version %d", op.TargetID, op.OriginVersion)
			}
			return errors.Errorf("reorder targets unknown block %q", op.TargetID)
		}
		to := op.ToIndex
		if to < 0 || to >= l.doc.Len() {
			if !stale {
				return errors.Wrapf(document.ErrIndexOutOfBounds, "reorder to %d", to)
			}
			to = l.doc.Len() - 1
		}
		return l.doc.Reorder(index, to)

	default:
		return errors.Errorf("unknown operation kind %q", op.Kind)
	}
}

// Merge applies a batch in ascending origin-version order; ties keep
// arrival order, so merging is deterministic per log but not across
// replicas. Conflicting operations are reported, not silently dropped;
// the rest of the batch still applies.
func (l *Log) Merge(ops []Operation) error {
	sorted := make([]Operation, len(ops))
	copy(sorted, ops)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].OriginVersion < sorted[j].OriginVersion
	})

	var errs error
	for _, op := range sorted {
		if err := l.Apply(op); err != nil {
			l.logger.Debug("merge: operation rejected",
				zap.String("kind", string(op.Kind)),
				zap.Uint64("originVersion", op.OriginVersion),
				zap.Error(err),
			)
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

// Operations returns retained operations at or after fromVersion, for
// replication to other participants.
func (l *Log) Operations(fromVersion uint64) []Operation {
	var out []Operation
	for _, op := range l.ops {
		if op.OriginVersion >= fromVersion {
			out = append(out, op)
		}
	}
	return out
}

// Compact drops retained operations older than beforeVersion. Replicas
// that have not caught up past that version can no longer be served.
func (l *Log) Compact(beforeVersion uint64) {
	kept := l.ops[:0]
	for _, op := range l.ops {
		if op.OriginVersion >= beforeVersion {
			kept = append(kept, op)
		}
	}
	l.ops = kept
}

func (l *Log) Len() int { return len(l.ops) }
