package catalog

import (
	"context"
	"fmt"

	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/logvault/config"
	"github.com/kilianp07/logvault/core/category"
)

// FileProvider reads the "categories" list of a yaml or json file.
type FileProvider struct {
	path   string
	parser koanf.Parser
	src    *file.File
}

// NewFileProvider creates a provider for the file at path. The format is
// picked from the extension.
func NewFileProvider(path string) (*FileProvider, error) {
	parser, err := config.Parser(path)
	if err != nil {
		return nil, err
	}
	return &FileProvider{path: path, parser: parser, src: file.Provider(path)}, nil
}

// GetAll loads the file and returns its category records.
func (p *FileProvider) GetAll(context.Context) ([]category.Record, error) {
	k := koanf.New(".")
	if err := k.Load(p.src, p.parser); err != nil {
		return nil, fmt.Errorf("load %s: %w", p.path, err)
	}
	var out []category.Record
	if err := k.UnmarshalWithConf("categories", &out, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, fmt.Errorf("decode categories of %s: %w", p.path, err)
	}
	return out, nil
}

// Watch calls onChange whenever the file is written. Errors reported by the
// watcher are passed to onChange as well; the caller decides whether to
// reload.
func (p *FileProvider) Watch(onChange func(err error)) error {
	return p.src.Watch(func(_ interface{}, err error) {
		onChange(err)
	})
}

// Close stops the watcher, if any.
func (p *FileProvider) Close() error {
	return p.src.Unwatch()
}
