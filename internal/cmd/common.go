package cmd

import (
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/inkdoc/inkdoc/internal/document"
	"github.com/inkdoc/inkdoc/internal/document/config"
	"github.com/inkdoc/inkdoc/internal/document/snapshot"
)

// readInput reads a file argument, with "-" standing for stdin.
func readInput(fileName string) ([]byte, error) {
	if fileName == "-" {
		data, err := io.ReadAll(os.Stdin)
		return data, errors.Wrap(err, "failed to read from stdin")
	}

	f, err := os.Open(fileName)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open file %q", fileName)
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(f)
	return data, errors.Wrapf(err, "failed to read from file %q", fileName)
}

func loadSnapshot(data []byte) (*document.Document, error) {
	doc, err := snapshot.Deserialize(data, config.Default())
	return doc, errors.Wrap(err, "failed to deserialize snapshot")
}
