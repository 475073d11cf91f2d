package fragment

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nao1215/mintmerge/internal/model"
	"gopkg.in/yaml.v3"
)

// DataLoader loads static JSON and YAML files. The whole document is the
// default export. YAML mapping order is preserved.
type DataLoader struct{}

// NewDataLoader creates a DataLoader.
func NewDataLoader() *DataLoader {
	return &DataLoader{}
}

// LoadModule reads and parses the file at path.
func (l *DataLoader) LoadModule(ctx context.Context, path string) (*Module, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(absPath) //nolint:gosec // Fragment paths come from discovery
	if err != nil {
		return nil, err
	}

	var value any
	switch ext := strings.ToLower(filepath.Ext(absPath)); ext {
	case ".json":
		value, err = model.DecodeJSON(data)
	case ".yaml", ".yml":
		value, err = DecodeYAML(data)
	default:
		return nil, fmt.Errorf("unsupported data file extension %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	exports := model.NewObject()
	exports.Set(DefaultExport, value)
	return &Module{Path: absPath, Exports: exports}, nil
}

// DecodeYAML decodes a YAML document into the same value shapes DecodeJSON
// produces: mappings become *model.Object in document order, sequences []any.
// An empty document decodes to nil.
func DecodeYAML(data []byte) (any, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind == 0 {
		return nil, nil
	}
	return fromYAMLNode(&doc)
}

func fromYAMLNode(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return fromYAMLNode(n.Content[0])
	case yaml.MappingNode:
		obj := model.NewObject()
		for i := 0; i+1 < len(n.Content); i += 2 {
			key, valNode := n.Content[i], n.Content[i+1]
			if key.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: mapping keys must be scalars", key.Line)
			}
			v, err := fromYAMLNode(valNode)
			if err != nil {
				return nil, err
			}
			obj.Set(key.Value, v)
		}
		return obj, nil
	case yaml.SequenceNode:
		list := make([]any, 0, len(n.Content))
		for _, item := range n.Content {
			v, err := fromYAMLNode(item)
			if err != nil {
				return nil, err
			}
			list = append(list, v)
		}
		return list, nil
	case yaml.AliasNode:
		return fromYAMLNode(n.Alias)
	case yaml.ScalarNode:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("line %d: unsupported YAML node kind %d", n.Line, n.Kind)
	}
}
