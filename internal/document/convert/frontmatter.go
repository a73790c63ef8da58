package convert

import (
	"bytes"
	"encoding/json"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/inkdoc/inkdoc/internal/version"
)

const (
	frontmatterFormatYAML = "yaml"
	frontmatterFormatJSON = "json"
	frontmatterFormatTOML = "toml"
)

// versionKey records the engine version that produced the export.
const versionKey = "inkdoc"

// marshalFrontmatter writes configuration metadata as a YAML frontmatter
// section, delimited by "---" lines. Exports carrying metadata are
// stamped with the producing engine version.
func marshalFrontmatter(metadata map[string]string) ([]byte, error) {
	if len(metadata) == 0 {
		return nil, nil
	}

	stamped := make(map[string]string, len(metadata)+1)
	for k, v := range metadata {
		stamped[k] = v
	}
	if _, ok := stamped[versionKey]; !ok {
		stamped[versionKey] = version.BaseVersion()
	}

	body, err := yaml.Marshal(stamped)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal frontmatter")
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(body)
	buf.WriteString("---\n")
	return buf.Bytes(), nil
}

// parseFrontmatter splits a leading metadata section off source. YAML
// ("---"), TOML ("+++"), and JSON ("{") sections are recognized, the way
// notebook frontmatter conventionally works. Sources without one come
// back untouched.
func parseFrontmatter(source []byte) (map[string]string, []byte, error) {
	trimmed := bytes.TrimLeft(source, "\n")

	var delimiter, format string
	switch {
	case bytes.HasPrefix(trimmed, []byte("---\n")):
		delimiter, format = "---", frontmatterFormatYAML
	case bytes.HasPrefix(trimmed, []byte("+++\n")):
		delimiter, format = "+++", frontmatterFormatTOML
	case bytes.HasPrefix(trimmed, []byte("{")):
		return parseJSONFrontmatter(trimmed)
	default:
		return nil, source, nil
	}

	rest := trimmed[len(delimiter)+1:]
	end := bytes.Index(rest, []byte("\n"+delimiter))
	if end < 0 {
		// No closing delimiter: not frontmatter, e.g. a leading divider.
		return nil, source, nil
	}

	// The closing delimiter may sit at EOF with no trailing newline.
	body := rest[:end+1]
	content := bytes.TrimLeft(rest[end+1+len(delimiter):], "\n")

	metadata := map[string]string{}
	var err error
	switch format {
	case frontmatterFormatYAML:
		err = yaml.Unmarshal(body, &metadata)
	case frontmatterFormatTOML:
		err = toml.Unmarshal(body, &metadata)
	}
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to parse %s frontmatter", format)
	}
	return metadata, content, nil
}

func parseJSONFrontmatter(source []byte) (map[string]string, []byte, error) {
	end := bytes.Index(source, []byte("}\n"))
	if end < 0 {
		return nil, source, nil
	}

	metadata := map[string]string{}
	if err := json.Unmarshal(source[:end+1], &metadata); err != nil {
		// A brace-leading paragraph, not metadata.
		return nil, source, nil
	}
	return metadata, bytes.TrimLeft(source[end+2:], "\n"), nil
}
