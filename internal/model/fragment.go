package model

// Fragment is the navigation definition exported by one fragment file.
// Value is an arbitrary structured value (*Object, []any, string, json.Number,
// bool or nil) and is never modified after loading.
type Fragment struct {
	// Path is the absolute path of the file the fragment was loaded from.
	Path string `json:"path"`

	// Value is the file's default export.
	Value any `json:"value"`
}

// Values returns the fragment values in order, as they appear in the
// navigation list of the output document.
func Values(fragments []Fragment) []any {
	values := make([]any, len(fragments))
	for i, f := range fragments {
		values[i] = f.Value
	}
	return values
}
