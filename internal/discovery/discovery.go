package discovery

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"

	"github.com/karrick/godirwalk"
	"github.com/nao1215/mintmerge/internal/model"
)

// DefaultFragmentName is the file name that marks a navigation fragment.
const DefaultFragmentName = "config.js"

// ErrNotDirectory is returned when the aggregation root is not a directory.
var ErrNotDirectory = errors.New("not a directory")

// Finder walks a directory tree looking for fragment files.
type Finder struct {
	// names is the set of file base names that mark a fragment.
	names map[string]bool

	// exclude holds path.Match patterns for directory names to prune.
	exclude []string

	// unsorted keeps the filesystem's entry order instead of sorting.
	unsorted bool

	// accept, if set, must report true for a matched file to be returned.
	accept func(path string) bool

	logger *slog.Logger
}

// Option configures a Finder.
type Option func(*Finder)

// WithNames sets the fragment file names. Empty names are ignored;
// if none remain, DefaultFragmentName is used.
func WithNames(names ...string) Option {
	return func(f *Finder) {
		set := make(map[string]bool, len(names))
		for _, n := range names {
			if n != "" {
				set[n] = true
			}
		}
		if len(set) > 0 {
			f.names = set
		}
	}
}

// WithExclude prunes directories whose base name matches any of the patterns.
func WithExclude(patterns ...string) Option {
	return func(f *Finder) {
		f.exclude = append(f.exclude, patterns...)
	}
}

// WithFilesystemOrder visits directory entries in the order the filesystem
// reports them instead of lexical order.
func WithFilesystemOrder() Option {
	return func(f *Finder) {
		f.unsorted = true
	}
}

// WithFilter drops matched files for which accept returns false.
func WithFilter(accept func(path string) bool) Option {
	return func(f *Finder) {
		f.accept = accept
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Finder) {
		f.logger = logger
	}
}

// NewFinder creates a Finder with the given options.
func NewFinder(opts ...Option) *Finder {
	f := &Finder{
		names: map[string]bool{DefaultFragmentName: true},
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.logger == nil {
		f.logger = slog.Default()
	}
	return f
}

// Discover is a convenience wrapper around NewFinder(opts...).Find(root).
func Discover(root string, opts ...Option) ([]string, error) {
	return NewFinder(opts...).Find(root)
}

// Find returns the absolute paths of all fragment files under root, depth-first.
// A root that is a symbolic link to a directory is walked, and the paths keep
// the root as given. Symbolic links inside the tree are neither followed nor matched.
// Errors wrap model.ErrDiscovery.
func (f *Finder) Find(root string) ([]string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", model.ErrDiscovery, root, err)
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrDiscovery, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s: %w", model.ErrDiscovery, absRoot, ErrNotDirectory)
	}

	// godirwalk refuses a root that is itself a symbolic link.
	walkRoot, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrDiscovery, err)
	}

	paths := make([]string, 0)
	err = godirwalk.Walk(walkRoot, &godirwalk.Options{
		Unsorted: f.unsorted,
		Callback: func(osPathname string, de *godirwalk.Dirent) error {
			if de.IsDir() {
				if osPathname != walkRoot && f.excluded(de.Name()) {
					f.logger.Debug("skipping excluded directory", "path", osPathname)
					return godirwalk.SkipThis
				}
				return nil
			}
			if de.IsRegular() && f.names[de.Name()] {
				rel, err := filepath.Rel(walkRoot, osPathname)
				if err != nil {
					return err
				}
				p := filepath.Join(absRoot, rel)
				if f.accept != nil && !f.accept(p) {
					f.logger.Debug("skipping filtered file", "path", p)
					return nil
				}
				paths = append(paths, p)
			}
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrDiscovery, err)
	}

	f.logger.Debug("fragment discovery complete", "root", absRoot, "count", len(paths))
	return paths, nil
}

// excluded reports whether a directory name matches an exclude pattern.
func (f *Finder) excluded(name string) bool {
	for _, pattern := range f.exclude {
		if ok, err := path.Match(pattern, name); err == nil && ok {
			return true
		}
	}
	return false
}
