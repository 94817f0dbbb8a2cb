package feed

import (
	"context"
	_ "embed"
	"fmt"
	"os"

	"github.com/glutenvergelijker/backend/internal/domain"
)

//go:embed sample_products.json
var sampleProducts []byte

// FileSource reads the catalog from a bundled JSON file on disk
type FileSource struct {
	path string
}

// NewFileSource creates a file-backed catalog source
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (s *FileSource) Name() string { return "file" }

// Path returns the file the source reads
func (s *FileSource) Path() string { return s.path }

func (s *FileSource) Fetch(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}
	return data, nil
}

// SampleSource serves the catalog compiled into the binary
type SampleSource struct{}

func (SampleSource) Name() string { return "sample" }

func (SampleSource) Fetch(context.Context) ([]byte, error) {
	out := make([]byte, len(sampleProducts))
	copy(out, sampleProducts)
	return out, nil
}
