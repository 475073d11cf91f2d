package fragment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dop251/goja"
	"github.com/evanw/esbuild/pkg/api"
	"github.com/nao1215/mintmerge/internal/model"
)

// moduleGlobal is the global variable the bundled module's namespace is assigned to.
const moduleGlobal = "__mintmergeModule"

// JSLoader evaluates JavaScript modules.
//
// Each call bundles the entry file with esbuild (so ES module syntax and
// relative imports work) and runs the bundle in a fresh goja runtime. Runtimes
// are never shared, so a JSLoader is safe for concurrent use.
//
// The bundle is a synchronous script, so modules using top-level await fail
// to load.
type JSLoader struct {
	// console receives console.log output of evaluated modules.
	console io.Writer

	// mu serializes writes to console.
	mu sync.Mutex

	logger *slog.Logger
}

// JSOption configures a JSLoader.
type JSOption func(*JSLoader)

// WithConsole sets the writer receiving console output of evaluated modules.
func WithConsole(w io.Writer) JSOption {
	return func(l *JSLoader) {
		l.console = w
	}
}

// WithJSLogger sets the logger used for debug output.
func WithJSLogger(logger *slog.Logger) JSOption {
	return func(l *JSLoader) {
		l.logger = logger
	}
}

// NewJSLoader creates a JSLoader. Console output goes to stdout by default.
func NewJSLoader(opts ...JSOption) *JSLoader {
	l := &JSLoader{console: os.Stdout}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}
	return l
}

// LoadModule bundles and evaluates the module at path and returns its exports.
// Cancelling ctx interrupts a running evaluation.
func (l *JSLoader) LoadModule(ctx context.Context, path string) (*Module, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(absPath); err != nil {
		return nil, err
	}

	code, err := bundle(absPath)
	if err != nil {
		return nil, err
	}
	l.logger.Debug("bundled module", "path", absPath, "bytes", len(code))

	vm := goja.New()
	if err := l.installConsole(vm); err != nil {
		return nil, err
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			vm.Interrupt(ctx.Err())
		case <-done:
		}
	}()

	if _, err := vm.RunScript(absPath, string(code)); err != nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}

	exports, err := namespaceExports(vm, vm.Get(moduleGlobal))
	if err != nil {
		return nil, err
	}

	return &Module{Path: absPath, Exports: exports}, nil
}

// bundle resolves the entry file and its relative imports into one script that
// assigns the module namespace to moduleGlobal.
func bundle(path string) ([]byte, error) {
	result := api.Build(api.BuildOptions{
		EntryPoints:   []string{path},
		Bundle:        true,
		Write:         false,
		Format:        api.FormatIIFE,
		GlobalName:    moduleGlobal,
		Platform:      api.PlatformNeutral,
		Target:        api.ES2015,
		LogLevel:      api.LogLevelSilent,
		AbsWorkingDir: filepath.Dir(path),
	})
	if len(result.Errors) > 0 {
		return nil, bundleError(result.Errors)
	}
	if len(result.OutputFiles) == 0 {
		return nil, errors.New("bundle: no output produced")
	}
	return result.OutputFiles[0].Contents, nil
}

// bundleError joins esbuild messages into one error.
func bundleError(msgs []api.Message) error {
	lines := make([]string, 0, len(msgs))
	for _, m := range msgs {
		if m.Location != nil {
			lines = append(lines, fmt.Sprintf("%s:%d:%d: %s",
				m.Location.File, m.Location.Line, m.Location.Column, m.Text))
			continue
		}
		lines = append(lines, m.Text)
	}
	return fmt.Errorf("bundle: %s", strings.Join(lines, "; "))
}

// installConsole exposes a minimal console object to the module.
func (l *JSLoader) installConsole(vm *goja.Runtime) error {
	write := func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = arg.String()
		}
		l.mu.Lock()
		defer l.mu.Unlock()
		fmt.Fprintln(l.console, strings.Join(parts, " "))
		return goja.Undefined()
	}

	console := vm.NewObject()
	for _, name := range []string{"log", "info", "warn", "error", "debug"} {
		if err := console.Set(name, write); err != nil {
			return err
		}
	}
	return vm.Set("console", console)
}

// namespaceExports converts a module namespace into exports.
// A namespace without the __esModule marker comes from a CommonJS module,
// whose module.exports value is its default export.
func namespaceExports(vm *goja.Runtime, ns goja.Value) (*model.Object, error) {
	exports := model.NewObject()
	if ns == nil || goja.IsUndefined(ns) || goja.IsNull(ns) {
		return exports, nil
	}

	obj, isObject := ns.(*goja.Object)
	if !isObject || !isESModule(obj) {
		if err := setExport(vm, exports, DefaultExport, ns); err != nil {
			return nil, err
		}
		return exports, nil
	}

	for _, key := range obj.Keys() {
		if err := setExport(vm, exports, key, obj.Get(key)); err != nil {
			return nil, err
		}
	}
	return exports, nil
}

func isESModule(obj *goja.Object) bool {
	marker := obj.Get("__esModule")
	return marker != nil && marker.ToBoolean()
}

// setExport stores value under name after a JSON.stringify round trip.
// undefined is omitted. Functions and symbols, which JSON.stringify cannot
// represent, are stored as model.Opaque so they still count as an export.
func setExport(vm *goja.Runtime, exports *model.Object, name string, value goja.Value) error {
	if value == nil || goja.IsUndefined(value) {
		return nil
	}

	jsonObj := vm.Get("JSON").ToObject(vm)
	stringify, ok := goja.AssertFunction(jsonObj.Get("stringify"))
	if !ok {
		return errors.New("JSON.stringify is not available")
	}

	out, err := stringify(jsonObj, value)
	if err != nil {
		return fmt.Errorf("export %q: %w", name, err)
	}
	if goja.IsUndefined(out) {
		if value.ToBoolean() {
			exports.Set(name, model.Opaque{})
		}
		return nil
	}

	v, err := model.DecodeJSON([]byte(out.String()))
	if err != nil {
		return fmt.Errorf("export %q: %w", name, err)
	}
	exports.Set(name, v)
	return nil
}
