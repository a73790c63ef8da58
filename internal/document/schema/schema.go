// Package schema defines the static registry of block type tags and the
// data shapes their payloads must follow. Every other component resolves
// type tags through a Schema; referencing a tag that was never registered
// is a contract violation surfaced as ErrUnknownBlockType.
package schema

import (
	stderrors "errors"
	"fmt"
	"sort"

	"github.com/pkg/errors"
)

var (
	ErrUnknownBlockType = stderrors.New("unknown block type")
	ErrInvalidBlockData = stderrors.New("invalid block data")
)

type FieldKind int

const (
	KindString FieldKind = iota + 1
	KindInt
	KindFloat
	KindBool
	KindStringList
	KindMap
)

func (k FieldKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindStringList:
		return "string list"
	case KindMap:
		return "map"
	default:
		return fmt.Sprintf("FieldKind(%d)", int(k))
	}
}

type Field struct {
	Kind     FieldKind
	Required bool
}

// Descriptor describes the payload shape of one block type.
// Fields not listed in Fields are rejected by Check.
type Descriptor struct {
	Tag    string
	Fields map[string]Field
}

// Check verifies that raw matches the descriptor's shape. Numbers decoded
// from JSON arrive as float64; Check accepts them for int fields as long
// as they carry no fractional part.
func (d *Descriptor) Check(raw map[string]any) error {
	for name, field := range d.Fields {
		value, ok := raw[name]
		if !ok {
			if field.Required {
				return errors.Wrapf(ErrInvalidBlockData, "type %q: missing required field %q", d.Tag, name)
			}
			continue
		}
		if !kindMatches(field.Kind, value) {
			return errors.Wrapf(ErrInvalidBlockData, "type %q: field %q is not a %s", d.Tag, name, field.Kind)
		}
	}

	for name := range raw {
		if _, ok := d.Fields[name]; !ok {
			return errors.Wrapf(ErrInvalidBlockData, "type %q: unexpected field %q", d.Tag, name)
		}
	}

	return nil
}

func kindMatches(kind FieldKind, value any) bool {
	switch kind {
	case KindString:
		_, ok := value.(string)
		return ok
	case KindInt:
		switch v := value.(type) {
		case int:
			return true
		case float64:
			return v == float64(int64(v))
		default:
			return false
		}
	case KindFloat:
		switch value.(type) {
		case float64, int:
			return true
		default:
			return false
		}
	case KindBool:
		_, ok := value.(bool)
		return ok
	case KindStringList:
		switch v := value.(type) {
		case []string:
			return true
		case []any:
			for _, item := range v {
				if _, ok := item.(string); !ok {
					return false
				}
			}
			return true
		default:
			return false
		}
	case KindMap:
		_, ok := value.(map[string]any)
		return ok
	default:
		return false
	}
}

// Schema is a registry of block type descriptors keyed by tag.
type Schema struct {
	descriptors map[string]*Descriptor
}

func New() *Schema {
	return &Schema{descriptors: make(map[string]*Descriptor)}
}

// Register adds or replaces the descriptor for its tag.
func (s *Schema) Register(d *Descriptor) error {
	if d == nil || d.Tag == "" {
		return errors.New("descriptor must carry a non-empty tag")
	}
	s.descriptors[d.Tag] = d
	return nil
}

// Resolve returns the descriptor registered for tag.
func (s *Schema) Resolve(tag string) (*Descriptor, error) {
	d, ok := s.descriptors[tag]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownBlockType, "tag %q", tag)
	}
	return d, nil
}

func (s *Schema) Has(tag string) bool {
	_, ok := s.descriptors[tag]
	return ok
}

// Tags returns all registered tags in lexical order.
func (s *Schema) Tags() []string {
	tags := make([]string, 0, len(s.descriptors))
	for tag := range s.descriptors {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}
