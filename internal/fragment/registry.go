package fragment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/nao1215/mintmerge/internal/model"
)

// ErrUnsupportedFile is returned for files whose extension has no registered loader.
var ErrUnsupportedFile = errors.New("no loader registered for file extension")

// Registry dispatches files to loaders by extension.
// It implements Loader itself.
type Registry struct {
	loaders map[string]Loader
	logger  *slog.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*registryConfig)

type registryConfig struct {
	console io.Writer
	logger  *slog.Logger
}

// WithModuleConsole sets the writer receiving console output of JavaScript modules.
func WithModuleConsole(w io.Writer) RegistryOption {
	return func(c *registryConfig) {
		c.console = w
	}
}

// WithLogger sets the logger for the registry and its default loaders.
func WithLogger(logger *slog.Logger) RegistryOption {
	return func(c *registryConfig) {
		c.logger = logger
	}
}

// NewRegistry creates a Registry with the default loaders registered:
// JavaScript for .js, .mjs and .cjs, data files for .json, .yaml and .yml.
func NewRegistry(opts ...RegistryOption) *Registry {
	cfg := registryConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}

	jsOpts := []JSOption{WithJSLogger(cfg.logger)}
	if cfg.console != nil {
		jsOpts = append(jsOpts, WithConsole(cfg.console))
	}
	js := NewJSLoader(jsOpts...)
	data := NewDataLoader()

	r := &Registry{
		loaders: make(map[string]Loader),
		logger:  cfg.logger,
	}
	for _, ext := range []string{".js", ".mjs", ".cjs"} {
		r.Register(ext, js)
	}
	for _, ext := range []string{".json", ".yaml", ".yml"} {
		r.Register(ext, data)
	}
	return r
}

// Register associates a file extension (with leading dot) with a loader,
// replacing any previous registration.
func (r *Registry) Register(ext string, loader Loader) {
	r.loaders[strings.ToLower(ext)] = loader
}

// Supports reports whether a loader is registered for the file's extension.
func (r *Registry) Supports(path string) bool {
	_, ok := r.loaders[strings.ToLower(filepath.Ext(path))]
	return ok
}

// LoadModule loads the file with the loader registered for its extension.
// Errors wrap model.ErrLoad.
func (r *Registry) LoadModule(ctx context.Context, path string) (*Module, error) {
	loader, ok := r.loaders[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return nil, fmt.Errorf("%w: %s: %w", model.ErrLoad, path, ErrUnsupportedFile)
	}

	mod, err := loader.LoadModule(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", model.ErrLoad, path, err)
	}
	return mod, nil
}

// Load loads a fragment file. ok is false when the file has no default
// export; such a file is skipped, not treated as an error.
func (r *Registry) Load(ctx context.Context, path string) (model.Fragment, bool, error) {
	mod, err := r.LoadModule(ctx, path)
	if err != nil {
		return model.Fragment{}, false, err
	}

	value, ok := mod.Default()
	if !ok {
		r.logger.Debug("fragment has no default export, skipping", "path", path)
		return model.Fragment{}, false, nil
	}
	return model.Fragment{Path: mod.Path, Value: value}, true, nil
}
