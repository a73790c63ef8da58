// Package history provides linear undo/redo over document states. Every
// committed mutation pushes the pre-mutation state onto a bounded undo
// stack; undoing moves states onto a redo stack, and any new mutation
// clears the redo stack.
package history

import (
	"github.com/inkdoc/inkdoc/internal/document"
)

const DefaultLimit = 100

// History records document states. It implements document.Recorder and
// attaches itself to the document on construction.
type History struct {
	doc   *document.Document
	limit int
	undo  []*document.State
	redo  []*document.State

	batching   bool
	batchDirty bool
	batchBase  *document.State
}

func New(doc *document.Document, limit int) *History {
	if limit <= 0 {
		limit = DefaultLimit
	}
	h := &History{doc: doc, limit: limit}
	doc.SetRecorder(h)
	return h
}

// Record is called by the document after each committed mutation with the
// pre-mutation state. During a batch the individual states are discarded;
// the batch base is pushed once at End.
func (h *History) Record(pre *document.State) {
	if h.batching {
		h.batchDirty = true
		return
	}
	h.push(pre)
}

func (h *History) push(pre *document.State) {
	h.undo = append(h.undo, pre)
	if len(h.undo) > h.limit {
		// Evict oldest first. Undo within the retained window stays intact.
		h.undo = h.undo[len(h.undo)-h.limit:]
	}
	h.redo = nil
	h.doc.Publish(document.Event{Name: document.EventHistoryChanged})
}

// Undo restores the most recent pre-mutation state. It returns false,
// not an error, when there is nothing to undo.
func (h *History) Undo() bool {
	if h.batching || len(h.undo) == 0 {
		return false
	}

	pre := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]

	h.redo = append(h.redo, h.doc.Snapshot())
	h.doc.Restore(pre)
	h.doc.Publish(document.Event{Name: document.EventHistoryChanged})
	return true
}

// Redo restores the most recently undone state. Same non-error policy as
// Undo.
func (h *History) Redo() bool {
	if h.batching || len(h.redo) == 0 {
		return false
	}

	next := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]

	h.undo = append(h.undo, h.doc.Snapshot())
	h.doc.Restore(next)
	h.doc.Publish(document.Event{Name: document.EventHistoryChanged})
	return true
}

// Begin suspends per-mutation recording so a run of mutations undoes as
// one logical action. Nested Begin calls are ignored.
func (h *History) Begin() {
	if h.batching {
		return
	}
	h.batching = true
	h.batchDirty = false
	h.batchBase = h.doc.Snapshot()
}

// End closes the batch. The pre-batch state is pushed only if something
// actually mutated.
func (h *History) End() {
	if !h.batching {
		return
	}
	h.batching = false
	if h.batchDirty {
		h.push(h.batchBase)
	}
	h.batchBase = nil
}

// Reset drops both stacks.
func (h *History) Reset() {
	h.undo = nil
	h.redo = nil
	h.doc.Publish(document.Event{Name: document.EventHistoryChanged})
}

func (h *History) CanUndo() bool { return len(h.undo) > 0 }

func (h *History) CanRedo() bool { return len(h.redo) > 0 }

func (h *History) Depth() int { return len(h.undo) }
