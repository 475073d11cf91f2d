package base

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/nao1215/mintmerge/internal/fragment"
	"github.com/nao1215/mintmerge/internal/model"
)

// SourceExtensions lists the extensions tried, in order, when resolving a part's file.
var SourceExtensions = []string{".js", ".mjs", ".json", ".yaml", ".yml"}

// ErrNotMapping is returned when a part's export is not a key-value mapping.
var ErrNotMapping = errors.New("export is not a key-value mapping")

// FileProvider loads a part from <dir>/<name>.<ext>.
//
// The part is the module's export named after the part (export const common = {...}),
// falling back to the default export. Data files (.json, .yaml) provide their
// whole document. A directory without a source file for the part yields an
// empty part.
type FileProvider struct {
	name   string
	dir    string
	loader fragment.Loader
	logger *slog.Logger
}

// NewFileProvider creates a FileProvider for the named part.
func NewFileProvider(name, dir string, loader fragment.Loader, logger *slog.Logger) *FileProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileProvider{name: name, dir: dir, loader: loader, logger: logger}
}

// FileProviders returns providers for common, tab and anchor in dir.
func FileProviders(dir string, loader fragment.Loader, logger *slog.Logger) (common, tab, anchor Provider) {
	return NewFileProvider(PartCommon, dir, loader, logger),
		NewFileProvider(PartTab, dir, loader, logger),
		NewFileProvider(PartAnchor, dir, loader, logger)
}

// Name returns the part name.
func (p *FileProvider) Name() string { return p.name }

// Source returns the file the part is read from, or "" if none exists.
func (p *FileProvider) Source() string {
	for _, ext := range SourceExtensions {
		candidate := filepath.Join(p.dir, p.name+ext)
		if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
			return candidate
		}
	}
	return ""
}

// Values loads the part.
func (p *FileProvider) Values(ctx context.Context) (*model.Object, error) {
	source := p.Source()
	if source == "" {
		p.logger.Warn("no source for base configuration part, using an empty part",
			"part", p.name,
			"dir", p.dir,
		)
		return model.NewObject(), nil
	}

	mod, err := p.loader.LoadModule(ctx, source)
	if err != nil {
		return nil, err
	}

	value, ok := mod.Export(p.name)
	if !ok {
		value, ok = mod.Default()
	}
	if !ok {
		return nil, fmt.Errorf("%s: no %q or default export", source, p.name)
	}

	obj, isObject := value.(*model.Object)
	if !isObject {
		return nil, fmt.Errorf("%s: %w (got %T)", source, ErrNotMapping, value)
	}

	p.logger.Debug("loaded base configuration part", "part", p.name, "source", source, "keys", obj.Len())
	return obj, nil
}
