package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/mintmerge/internal/model"
	"golang.org/x/sync/errgroup"
)

// FragmentLoader loads one fragment file.
// ok is false when the file has no default export.
type FragmentLoader interface {
	Load(ctx context.Context, path string) (frag model.Fragment, ok bool, err error)
}

// BatchResult is the outcome of loading one fragment file.
type BatchResult struct {
	// Path is the loaded file.
	Path string

	// Fragment is the loaded fragment. Only valid when OK is true.
	Fragment model.Fragment

	// OK is false when the file had no default export.
	OK bool
}

// BatchLoader loads many fragment files with bounded concurrency.
// Results are returned in input order regardless of completion order.
type BatchLoader struct {
	loader FragmentLoader

	// concurrency is the maximum number of files loaded at once.
	concurrency int

	logger *slog.Logger
}

// BatchOption configures a BatchLoader.
type BatchOption func(*BatchLoader)

// WithBatchLogger sets a custom logger for batch loading.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchLoader) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent loads.
// Default is 1, which loads files one after another.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchLoader) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchLoader creates a BatchLoader around loader.
func NewBatchLoader(loader FragmentLoader, opts ...BatchOption) *BatchLoader {
	bl := &BatchLoader{
		loader:      loader,
		concurrency: 1,
	}

	for _, opt := range opts {
		opt(bl)
	}

	if bl.logger == nil {
		bl.logger = slog.Default()
	}

	return bl
}

// LoadAll loads every path and returns one result per path, in the same order.
// The first load error cancels the remaining loads and is returned.
func (bl *BatchLoader) LoadAll(ctx context.Context, paths []string) ([]BatchResult, error) {
	bl.logger.Debug("loading fragments",
		"total", len(paths),
		"concurrency", bl.concurrency,
	)

	startTime := time.Now()

	// Each goroutine writes only its own index.
	results := make([]BatchResult, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bl.concurrency)

	for i, path := range paths {
		path := path
		i := i
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			frag, ok, err := bl.loader.Load(ctx, path)
			if err != nil {
				return err
			}
			results[i] = BatchResult{Path: path, Fragment: frag, OK: ok}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	bl.logger.Debug("fragments loaded",
		"total", len(paths),
		"elapsed", time.Since(startTime),
	)

	return results, nil
}
