package bundle

import (
	"bytes"
	"context"
	_ "embed"
	"io"
	"os"
	"path/filepath"
)

//go:embed data/refdata.json
var embedded []byte

// Source yields the raw bundle document.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	Name() string
}

// EmbeddedSource serves the bundle compiled into the binary.
type EmbeddedSource struct{}

// Open implements Source.
func (EmbeddedSource) Open(context.Context) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(embedded)), nil
}

// Name implements Source.
func (EmbeddedSource) Name() string { return "embedded" }

// FileSource reads the bundle from a file on disk.
type FileSource struct {
	Path string
}

// Open implements Source.
func (f FileSource) Open(context.Context) (io.ReadCloser, error) {
	return os.Open(filepath.Clean(f.Path))
}

// Name implements Source.
func (f FileSource) Name() string { return "file:" + f.Path }
