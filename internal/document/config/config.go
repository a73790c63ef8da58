// Package config holds the per-type handlers a document is bound to:
// validators, renderers, defaults, text projections, opaque metadata,
// and plugin hooks. A Config is treated as an immutable value once bound;
// swapping in a new Config is atomic from the document's point of view.
package config

import (
	"context"
	stderrors "errors"

	"github.com/pkg/errors"

	"github.com/inkdoc/inkdoc/internal/document/schema"
)

var ErrNoRendererConfigured = stderrors.New("no renderer configured")

// Renderer produces an opaque output value from a block payload.
// The output type is chosen by the embedding application.
type Renderer func(raw map[string]any) (any, error)

// Validator reports whether a block payload is acceptable.
// A nil validator means the payload is accepted unchecked.
type Validator func(raw map[string]any) bool

// DefaultFactory produces the initial payload for a newly created block.
type DefaultFactory func() map[string]any

// Projection maps a block payload to and from its plain-text form.
// Extract returns false when the block type has no textual content.
// Apply is optional; a nil Apply makes the type read-only for replace.
type Projection struct {
	Extract func(raw map[string]any) (string, bool)
	Apply   func(raw map[string]any, text string) map[string]any
}

// Type bundles the handlers for one block type tag.
type Type struct {
	Validator  Validator
	Condition  *Condition
	Renderer   Renderer
	Default    DefaultFactory
	Projection Projection
	Metadata   map[string]string
}

// Plugin is an ordered extension point. BeforeRender may rewrite the
// ordered (type, payload) list before dispatch; AfterRender may
// post-process the assembled output list.
type Plugin struct {
	Name         string
	Initialize   func(ctx context.Context) error
	Cleanup      func() error
	BeforeRender func(blocks []BlockData) []BlockData
	AfterRender  func(outputs []any) []any
}

// BlockData is the (type, payload) pair plugins operate on.
type BlockData struct {
	Type string
	Raw  map[string]any
}

// Config binds a schema to per-type handlers. Two renderer surfaces may
// coexist during migrations: the current one registered via RegisterType
// and a legacy one registered via RegisterLegacyRenderer. Resolution
// prefers the current surface.
type Config struct {
	schema          *schema.Schema
	types           map[string]*Type
	legacyRenderers map[string]Renderer
	metadata        map[string]string
	plugins         []*Plugin
}

func New(s *schema.Schema) *Config {
	return &Config{
		schema:          s,
		types:           make(map[string]*Type),
		legacyRenderers: make(map[string]Renderer),
		metadata:        make(map[string]string),
	}
}

func (c *Config) Schema() *schema.Schema { return c.schema }

// RegisterType binds handlers to a tag. The tag must exist in the schema.
// Registering again replaces the previous handlers.
func (c *Config) RegisterType(tag string, t *Type) error {
	if !c.schema.Has(tag) {
		return errors.Wrapf(schema.ErrUnknownBlockType, "tag %q", tag)
	}
	if t == nil {
		return errors.New("type handlers must not be nil")
	}
	c.types[tag] = t
	return nil
}

// RegisterLegacyRenderer binds a renderer on the legacy surface.
// It is only consulted when the current surface has no renderer for tag.
func (c *Config) RegisterLegacyRenderer(tag string, r Renderer) error {
	if !c.schema.Has(tag) {
		return errors.Wrapf(schema.ErrUnknownBlockType, "tag %q", tag)
	}
	c.legacyRenderers[tag] = r
	return nil
}

// Resolve returns the handlers bound to tag, or nil if none are bound.
// The tag itself must exist in the schema.
func (c *Config) Resolve(tag string) (*Type, error) {
	if !c.schema.Has(tag) {
		return nil, errors.Wrapf(schema.ErrUnknownBlockType, "tag %q", tag)
	}
	return c.types[tag], nil
}

// ResolveRenderer returns the active renderer for tag: current surface
// first, legacy surface second.
func (c *Config) ResolveRenderer(tag string) (Renderer, error) {
	if !c.schema.Has(tag) {
		return nil, errors.Wrapf(schema.ErrUnknownBlockType, "tag %q", tag)
	}
	if t := c.types[tag]; t != nil && t.Renderer != nil {
		return t.Renderer, nil
	}
	if r, ok := c.legacyRenderers[tag]; ok && r != nil {
		return r, nil
	}
	return nil, errors.Wrapf(ErrNoRendererConfigured, "tag %q", tag)
}

// Validate checks a payload against the schema shape, the declarative
// condition, and the validator function, in that order.
func (c *Config) Validate(tag string, raw map[string]any) error {
	d, err := c.schema.Resolve(tag)
	if err != nil {
		return err
	}
	if err := d.Check(raw); err != nil {
		return err
	}

	t := c.types[tag]
	if t == nil {
		return nil
	}
	if t.Condition != nil {
		ok, err := t.Condition.Evaluate(raw)
		if err != nil {
			return errors.Wrapf(schema.ErrInvalidBlockData, "tag %q: %s", tag, err)
		}
		if !ok {
			return errors.Wrapf(schema.ErrInvalidBlockData, "tag %q: condition %q not met", tag, t.Condition.Expression)
		}
	}
	if t.Validator != nil && !t.Validator(raw) {
		return errors.Wrapf(schema.ErrInvalidBlockData, "tag %q: rejected by validator", tag)
	}
	return nil
}

// DefaultValue returns the initial payload for tag, or an empty payload
// when no factory is registered.
func (c *Config) DefaultValue(tag string) (map[string]any, error) {
	if !c.schema.Has(tag) {
		return nil, errors.Wrapf(schema.ErrUnknownBlockType, "tag %q", tag)
	}
	if t := c.types[tag]; t != nil && t.Default != nil {
		return t.Default(), nil
	}
	return map[string]any{}, nil
}

// ProjectText returns the textual projection of a payload.
// The second result is false for types without one.
func (c *Config) ProjectText(tag string, raw map[string]any) (string, bool) {
	t := c.types[tag]
	if t == nil || t.Projection.Extract == nil {
		return "", false
	}
	return t.Projection.Extract(raw)
}

// ApplyText writes text back into a payload through the type's
// projection. It returns false when the type has no writable projection.
func (c *Config) ApplyText(tag string, raw map[string]any, text string) (map[string]any, bool) {
	t := c.types[tag]
	if t == nil || t.Projection.Apply == nil {
		return nil, false
	}
	return t.Projection.Apply(raw, text), true
}

// SetMetadata stores one declarative metadata entry. Metadata is the only
// part of a Config eligible for persistence.
func (c *Config) SetMetadata(key, value string) {
	c.metadata[key] = value
}

func (c *Config) Metadata() map[string]string {
	out := make(map[string]string, len(c.metadata))
	for k, v := range c.metadata {
		out[k] = v
	}
	return out
}

func (c *Config) AddPlugin(p *Plugin) {
	c.plugins = append(c.plugins, p)
}

func (c *Config) Plugins() []*Plugin {
	return c.plugins
}
