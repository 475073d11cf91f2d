package fragment

import (
	"context"
	"encoding/json"

	"github.com/nao1215/mintmerge/internal/model"
)

// DefaultExport is the export name holding a fragment's navigation definition.
const DefaultExport = "default"

// Module is a loaded file and its exports.
type Module struct {
	// Path is the absolute path of the loaded file.
	Path string

	// Exports maps export names to JSON-compatible values, in declaration order.
	Exports *model.Object
}

// Export returns the named export. ok is false when the export is absent or
// falsy (false, 0, "" or null), matching a JavaScript truthiness check.
func (m *Module) Export(name string) (any, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.Exports.Get(name)
	if !ok || !truthy(v) {
		return nil, false
	}
	return v, true
}

// Default returns the default export.
func (m *Module) Default() (any, bool) {
	return m.Export(DefaultExport)
}

// Loader loads a file as a Module.
type Loader interface {
	LoadModule(ctx context.Context, path string) (*Module, error)
}

// truthy reports whether a JSON-compatible value is truthy in JavaScript terms.
func truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ""
	case json.Number:
		f, err := val.Float64()
		return err != nil || f != 0
	case int:
		return val != 0
	case int64:
		return val != 0
	case uint64:
		return val != 0
	case float64:
		return val != 0
	default:
		return true
	}
}
