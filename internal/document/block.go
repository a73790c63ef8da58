package document

import (
	"github.com/inkdoc/inkdoc/internal/ulid"
)

// Block is one addressable unit of content: an identity, a type tag, and
// a payload shaped per the schema entry for that tag. Identity is assigned
// at creation and never reused, even after the block is removed.
type Block struct {
	id  string
	tag string
	raw map[string]any
}

// NewBlock creates a block with a fresh identity. The payload is copied.
func NewBlock(tag string, raw map[string]any) *Block {
	return NewBlockWithID(ulid.GenerateID(), tag, raw)
}

// NewBlockWithID creates a block carrying a caller-provided identity.
// Used when restoring persisted documents that preserve identities.
func NewBlockWithID(id, tag string, raw map[string]any) *Block {
	return &Block{
		id:  id,
		tag: tag,
		raw: deepCopyPayload(raw),
	}
}

func (b *Block) ID() string { return b.id }

func (b *Block) Type() string { return b.tag }

// Raw returns the live payload. Callers must treat it as read-only;
// all payload changes go through Document.Update.
func (b *Block) Raw() map[string]any { return b.raw }

// Clone returns a deep copy sharing the same identity.
func (b *Block) Clone() *Block {
	return &Block{
		id:  b.id,
		tag: b.tag,
		raw: deepCopyPayload(b.raw),
	}
}

func deepCopyPayload(raw map[string]any) map[string]any {
	if raw == nil {
		return map[string]any{}
	}
	return deepCopyMap(raw)
}

func deepCopyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = deepCopyValue(v)
	}
	return out
}

func deepCopyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return deepCopyMap(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = deepCopyValue(item)
		}
		return out
	case []string:
		out := make([]string, len(t))
		copy(out, t)
		return out
	default:
		return v
	}
}
