package snapshot

import (
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkdoc/inkdoc/internal/document"
	"github.com/inkdoc/inkdoc/internal/document/config"
	"github.com/inkdoc/inkdoc/internal/document/schema"
)

func buildDocument(t *testing.T) *document.Document {
	t.Helper()

	d := document.New(config.Default())

	_, err := d.Insert(0, schema.TagHeading, map[string]any{"content": "Title", "level": 1})
	require.NoError(t, err)
	_, err = d.Insert(1, schema.TagText, map[string]any{"content": "hello"})
	require.NoError(t, err)
	_, err = d.Insert(2, schema.TagImage, map[string]any{"url": "a", "alt": "b"})
	require.NoError(t, err)

	return d
}

func TestRoundTrip(t *testing.T) {
	d := buildDocument(t)

	data, err := Serialize(d)
	require.NoError(t, err)

	restored, err := Deserialize(data, d.Config())
	require.NoError(t, err)

	require.Equal(t, d.Len(), restored.Len())
	for i, want := range d.Blocks() {
		got, err := restored.BlockAt(i)
		require.NoError(t, err)
		assert.Equal(t, want.ID(), got.ID(), "ids are preserved")
		assert.Equal(t, want.Type(), got.Type())

		// Compare payloads in JSON-normalized form; ints arrive back
		// as float64.
		wantJSON, err := json.Marshal(want.Raw())
		require.NoError(t, err)
		gotJSON, err := json.Marshal(got.Raw())
		require.NoError(t, err)
		assert.JSONEq(t, string(wantJSON), string(gotJSON))
	}
}

func TestRoundTrip_NormalizesJSONNumbers(t *testing.T) {
	// Ints pass through JSON as float64; the shape check accepts both.
	d := buildDocument(t)

	data, err := Serialize(d)
	require.NoError(t, err)
	restored, err := Deserialize(data, d.Config())
	require.NoError(t, err)

	b, err := restored.BlockAt(0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, b.Raw()["level"])
}

func TestSerialize_IncludesConfigurationMetadata(t *testing.T) {
	cfg := config.Default()
	cfg.SetMetadata("title", "Notes")

	d := document.New(cfg)

	data, err := Serialize(d)
	require.NoError(t, err)

	var env map[string]any
	require.NoError(t, json.Unmarshal(data, &env))
	assert.Equal(t, FormatVersion, env["formatVersion"])
	assert.Equal(t, map[string]any{"title": "Notes"}, env["configurationMetadata"])
}

func TestDeserialize_Malformed(t *testing.T) {
	cfg := config.Default()

	tests := []struct {
		name string
		data string
	}{
		{name: "not json", data: "not json"},
		{name: "missing format version", data: `{"blocks":[]}`},
		{name: "bad format version", data: `{"formatVersion":"abc","blocks":[]}`},
		{name: "block without type", data: `{"formatVersion":"1.0.0","blocks":[{"id":"x","rawData":{}}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Deserialize([]byte(tt.data), cfg)
			assert.True(t, errors.Is(err, ErrMalformedSnapshot))
		})
	}
}

func TestDeserialize_FormatGate(t *testing.T) {
	cfg := config.Default()

	_, err := Deserialize([]byte(`{"formatVersion":"2.0.0","blocks":[]}`), cfg)
	assert.True(t, errors.Is(err, ErrFormatUnsupported))
	// One sentinel covers format failures engine-wide.
	assert.True(t, errors.Is(err, document.ErrFormatUnsupported))

	_, err = Deserialize([]byte(`{"formatVersion":"1.4.2","blocks":[]}`), cfg)
	assert.NoError(t, err)
}

func TestDeserialize_RejectsUnknownTypeAndBadData(t *testing.T) {
	cfg := config.Default()

	_, err := Deserialize([]byte(`{"formatVersion":"1.0.0","blocks":[{"id":"","type":"missing","rawData":{}}]}`), cfg)
	assert.True(t, errors.Is(err, schema.ErrUnknownBlockType))

	_, err = Deserialize([]byte(`{"formatVersion":"1.0.0","blocks":[{"id":"","type":"text","rawData":{"content":1}}]}`), cfg)
	assert.True(t, errors.Is(err, schema.ErrInvalidBlockData))
}

func TestDeserialize_ReassignsInvalidIDs(t *testing.T) {
	cfg := config.Default()

	doc, err := Deserialize([]byte(`{
		"formatVersion": "1.0.0",
		"blocks": [{"id": "not-a-ulid", "type": "text", "rawData": {"content": "hi"}}]
	}`), cfg)
	require.NoError(t, err)

	b, err := doc.BlockAt(0)
	require.NoError(t, err)
	assert.NotEqual(t, "not-a-ulid", b.ID())
	assert.NotEmpty(t, b.ID())
}

func TestDeserialize_RejectsDuplicateIDs(t *testing.T) {
	d := document.New(config.Default())
	b, err := d.Insert(0, schema.TagText, map[string]any{"content": "hi"})
	require.NoError(t, err)

	data := []byte(`{
		"formatVersion": "1.0.0",
		"blocks": [
			{"id": "` + b.ID() + `", "type": "text", "rawData": {"content": "a"}},
			{"id": "` + b.ID() + `", "type": "text", "rawData": {"content": "b"}}
		]
	}`)

	_, err = Deserialize(data, d.Config())
	assert.True(t, errors.Is(err, ErrMalformedSnapshot))
}
