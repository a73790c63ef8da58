package config

import (
	"fmt"
	"strings"

	"github.com/inkdoc/inkdoc/internal/document/schema"
)

func contentProjection() Projection {
	return Projection{
		Extract: func(raw map[string]any) (string, bool) {
			s, ok := raw["content"].(string)
			return s, ok
		},
		Apply: func(raw map[string]any, text string) map[string]any {
			out := make(map[string]any, len(raw))
			for k, v := range raw {
				out[k] = v
			}
			out["content"] = text
			return out
		},
	}
}

func headingLevel(raw map[string]any) int {
	switch v := raw["level"].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 1
	}
}

// Default returns a configuration for the built-in schema. Renderers
// produce plain strings; embedding applications are expected to replace
// them with renderers producing their own output type.
func Default() *Config {
	c := New(schema.Builtin())

	must := func(err error) {
		if err != nil {
			panic(err)
		}
	}

	must(c.RegisterType(schema.TagText, &Type{
		Renderer: func(raw map[string]any) (any, error) {
			s, _ := raw["content"].(string)
			return s, nil
		},
		Default:    func() map[string]any { return map[string]any{"content": ""} },
		Projection: contentProjection(),
	}))

	must(c.RegisterType(schema.TagHeading, &Type{
		Condition: &Condition{Expression: "level >= 1 && level <= 6"},
		Renderer: func(raw map[string]any) (any, error) {
			s, _ := raw["content"].(string)
			return strings.Repeat("#", headingLevel(raw)) + " " + s, nil
		},
		Default:    func() map[string]any { return map[string]any{"content": "", "level": 1} },
		Projection: contentProjection(),
	}))

	must(c.RegisterType(schema.TagCode, &Type{
		Renderer: func(raw map[string]any) (any, error) {
			content, _ := raw["content"].(string)
			language, _ := raw["language"].(string)
			return fmt.Sprintf("```%s\n%s\n```", language, content), nil
		},
		Default:    func() map[string]any { return map[string]any{"content": "", "language": ""} },
		Projection: contentProjection(),
	}))

	must(c.RegisterType(schema.TagImage, &Type{
		Validator: func(raw map[string]any) bool {
			url, _ := raw["url"].(string)
			return url != ""
		},
		Renderer: func(raw map[string]any) (any, error) {
			url, _ := raw["url"].(string)
			alt, _ := raw["alt"].(string)
			return fmt.Sprintf("![%s](%s)", alt, url), nil
		},
		Default: func() map[string]any { return map[string]any{"url": "", "alt": ""} },
	}))

	must(c.RegisterType(schema.TagDivider, &Type{
		Renderer: func(map[string]any) (any, error) {
			return "---", nil
		},
		Default: func() map[string]any { return map[string]any{} },
	}))

	return c
}
