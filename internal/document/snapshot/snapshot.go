// Package snapshot converts a document to and from its portable
// persisted form: a versioned JSON envelope of ordered (id, type,
// rawData) triples plus declarative configuration metadata. Rendered
// output is never persisted; it is always derivable.
package snapshot

import (
	"encoding/json"
	stderrors "errors"

	"github.com/Masterminds/semver/v3"
	"github.com/pkg/errors"

	"github.com/inkdoc/inkdoc/internal/document"
	"github.com/inkdoc/inkdoc/internal/document/config"
	"github.com/inkdoc/inkdoc/internal/ulid"
)

// FormatVersion is written into every snapshot. Readers accept any
// snapshot whose major version matches.
const FormatVersion = "1.0.0"

var (
	ErrMalformedSnapshot = stderrors.New("malformed snapshot")
	ErrFormatUnsupported = document.ErrFormatUnsupported
)

type blockEnvelope struct {
	ID      string         `json:"id"`
	Type    string         `json:"type"`
	RawData map[string]any `json:"rawData"`
}

type envelope struct {
	FormatVersion         string            `json:"formatVersion"`
	Blocks                []blockEnvelope   `json:"blocks"`
	ConfigurationMetadata map[string]string `json:"configurationMetadata,omitempty"`
}

// Serialize writes the full ordered block sequence. Block identities are
// preserved so a round-trip restores them.
func Serialize(doc *document.Document) ([]byte, error) {
	env := envelope{
		FormatVersion: FormatVersion,
		Blocks:        make([]blockEnvelope, 0, doc.Len()),
	}

	for _, b := range doc.Blocks() {
		env.Blocks = append(env.Blocks, blockEnvelope{
			ID:      b.ID(),
			Type:    b.Type(),
			RawData: b.Raw(),
		})
	}

	if metadata := doc.Config().Metadata(); len(metadata) > 0 {
		env.ConfigurationMetadata = metadata
	}

	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal snapshot")
	}
	return data, nil
}

// Deserialize restores a document against cfg. Every stored block is
// validated; a block referencing a type the schema does not know fails
// with schema.ErrUnknownBlockType, a rejected payload with
// schema.ErrInvalidBlockData. Stored identities are preserved when they
// are valid ULIDs; anything else gets a fresh identity.
func Deserialize(data []byte, cfg *config.Config, opts ...document.Option) (*document.Document, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, errors.Wrapf(ErrMalformedSnapshot, "%s", err)
	}

	if err := checkFormatVersion(env.FormatVersion); err != nil {
		return nil, err
	}

	blocks := make([]*document.Block, 0, len(env.Blocks))
	seen := make(map[string]struct{}, len(env.Blocks))

	for i, be := range env.Blocks {
		if be.Type == "" {
			return nil, errors.Wrapf(ErrMalformedSnapshot, "block %d carries no type", i)
		}
		if err := cfg.Validate(be.Type, be.RawData); err != nil {
			return nil, errors.Wrapf(err, "block %d", i)
		}

		var block *document.Block
		if ulid.ValidID(be.ID) {
			if _, dup := seen[be.ID]; dup {
				return nil, errors.Wrapf(ErrMalformedSnapshot, "duplicate block id %q", be.ID)
			}
			seen[be.ID] = struct{}{}
			block = document.NewBlockWithID(be.ID, be.Type, be.RawData)
		} else {
			block = document.NewBlock(be.Type, be.RawData)
		}
		blocks = append(blocks, block)
	}

	return document.Load(cfg, blocks, opts...), nil
}

func checkFormatVersion(v string) error {
	if v == "" {
		return errors.Wrap(ErrMalformedSnapshot, "missing formatVersion")
	}
	parsed, err := semver.NewVersion(v)
	if err != nil {
		return errors.Wrapf(ErrMalformedSnapshot, "formatVersion %q: %s", v, err)
	}
	current := semver.MustParse(FormatVersion)
	if parsed.Major() != current.Major() {
		return errors.Wrapf(ErrFormatUnsupported, "formatVersion %q, supported major %d", v, current.Major())
	}
	return nil
}
