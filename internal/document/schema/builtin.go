package schema

// Built-in block type tags. The engine itself is generic; these cover the
// shapes the bundled markdown converter and CLI understand.
const (
	TagText    = "text"
	TagHeading = "heading"
	TagCode    = "code"
	TagImage   = "image"
	TagDivider = "divider"
)

// Builtin returns a schema with the bundled block types registered.
func Builtin() *Schema {
	s := New()

	must := func(d *Descriptor) {
		if err := s.Register(d); err != nil {
			panic(err)
		}
	}

	must(&Descriptor{
		Tag: TagText,
		Fields: map[string]Field{
			"content": {Kind: KindString, Required: true},
		},
	})
	must(&Descriptor{
		Tag: TagHeading,
		Fields: map[string]Field{
			"content": {Kind: KindString, Required: true},
			"level":   {Kind: KindInt, Required: true},
		},
	})
	must(&Descriptor{
		Tag: TagCode,
		Fields: map[string]Field{
			"content":  {Kind: KindString, Required: true},
			"language": {Kind: KindString},
		},
	})
	must(&Descriptor{
		Tag: TagImage,
		Fields: map[string]Field{
			"url": {Kind: KindString, Required: true},
			"alt": {Kind: KindString},
		},
	})
	must(&Descriptor{
		Tag:    TagDivider,
		Fields: map[string]Field{},
	})

	return s
}
