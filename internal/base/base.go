package base

import (
	"context"
	"fmt"

	"github.com/nao1215/mintmerge/internal/model"
)

// Names of the base configuration parts.
const (
	PartCommon = "common"
	PartTab    = "tab"
	PartAnchor = "anchor"
)

// MergeOrder is the fixed order in which parts are merged. Later parts win.
var MergeOrder = []string{PartCommon, PartTab, PartAnchor}

// Provider supplies one named part of the base configuration.
type Provider interface {
	// Name returns the part name (common, tab or anchor).
	Name() string

	// Values returns the part's key-value mapping.
	Values(ctx context.Context) (*model.Object, error)
}

// Assemble merges the three parts in the fixed order common, tab, anchor.
// Errors wrap model.ErrBase.
func Assemble(ctx context.Context, common, tab, anchor Provider) (*model.Object, error) {
	parts := make([]*model.Object, 0, len(MergeOrder))
	for _, p := range []Provider{common, tab, anchor} {
		if p == nil {
			continue
		}
		values, err := p.Values(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", model.ErrBase, p.Name(), err)
		}
		parts = append(parts, values)
	}
	return model.Merge(parts...), nil
}

// staticProvider returns a fixed mapping.
type staticProvider struct {
	name   string
	values *model.Object
}

// Static returns a Provider for an in-memory mapping. A nil mapping is an empty part.
func Static(name string, values *model.Object) Provider {
	if values == nil {
		values = model.NewObject()
	}
	return &staticProvider{name: name, values: values}
}

func (p *staticProvider) Name() string { return p.name }

func (p *staticProvider) Values(context.Context) (*model.Object, error) {
	return p.values, nil
}
