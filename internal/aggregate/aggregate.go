// Package aggregate combines the base configuration and the loaded fragments
// into the output document.
package aggregate

import "github.com/nao1215/mintmerge/internal/model"

// Document returns a new document holding every top-level key of base followed
// by the navigation list. The fragments are included verbatim and in order;
// the list is present even when empty. A navigation key in base is replaced.
// Neither base nor the fragments are modified.
func Document(base *model.Object, fragments []model.Fragment) *model.Object {
	doc := base.Clone()
	doc.Set(model.NavigationKey, model.Values(fragments))
	return doc
}
