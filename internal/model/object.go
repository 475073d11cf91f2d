package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Object is a string-keyed mapping that remembers insertion order.
//
// Site configuration documents are edited by humans, so the key order of the
// generated file should follow the order in which the sources declared them.
// Object behaves like a JavaScript object with respect to ordering: assigning
// to an existing key replaces the value but keeps the key's original position.
type Object struct {
	keys   []string
	values map[string]any
}

// NewObject creates an empty Object.
func NewObject() *Object {
	return &Object{values: make(map[string]any)}
}

// Set assigns value to key. New keys are appended; existing keys keep their position.
func (o *Object) Set(key string, value any) {
	if o.values == nil {
		o.values = make(map[string]any)
	}
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = value
}

// Get returns the value stored under key.
func (o *Object) Get(key string) (any, bool) {
	if o == nil {
		return nil, false
	}
	v, ok := o.values[key]
	return v, ok
}

// Keys returns a copy of the keys in insertion order.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	keys := make([]string, len(o.keys))
	copy(keys, o.keys)
	return keys
}

// Len returns the number of keys.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// Clone returns a shallow copy. Nested values are shared.
func (o *Object) Clone() *Object {
	c := NewObject()
	if o == nil {
		return c
	}
	for _, k := range o.keys {
		c.Set(k, o.values[k])
	}
	return c
}

// Merge shallow-merges parts from left to right into a new Object.
// On key collision the later part wins, keeping the position of the first occurrence.
// Nil parts are ignored.
func Merge(parts ...*Object) *Object {
	merged := NewObject()
	for _, part := range parts {
		if part == nil {
			continue
		}
		for _, k := range part.keys {
			merged.Set(k, part.values[k])
		}
	}
	return merged
}

// MarshalJSON implements json.Marshaler, emitting keys in insertion order.
func (o *Object) MarshalJSON() ([]byte, error) {
	return EncodeJSON(o)
}

// UnmarshalJSON implements json.Unmarshaler, keeping the document's key order.
func (o *Object) UnmarshalJSON(data []byte) error {
	v, err := DecodeJSON(data)
	if err != nil {
		return err
	}
	obj, ok := v.(*Object)
	if !ok {
		return fmt.Errorf("expected a JSON object, got %T", v)
	}
	*o = *obj
	return nil
}

// Opaque stands for a truthy JavaScript value that JSON cannot represent,
// such as a function. It encodes as null in arrays and is left out of
// objects, matching JSON.stringify.
type Opaque struct{}

// EncodeJSON encodes v compactly the way JavaScript's JSON.stringify does:
// no HTML escaping, U+2028 and U+2029 written raw. *Object values keep
// their key order.
func EncodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeValue(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeValue(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case *Object:
		if val == nil {
			buf.WriteString("null")
			return nil
		}
		buf.WriteByte('{')
		first := true
		for _, k := range val.keys {
			if _, skip := val.values[k].(Opaque); skip {
				continue
			}
			if !first {
				buf.WriteByte(',')
			}
			first = false
			if err := encodeScalar(buf, k); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := encodeValue(buf, val.values[k]); err != nil {
				return fmt.Errorf("key %q: %w", k, err)
			}
		}
		buf.WriteByte('}')
		return nil
	case []any:
		if val == nil {
			buf.WriteString("null")
			return nil
		}
		buf.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeValue(buf, item); err != nil {
				return fmt.Errorf("index %d: %w", i, err)
			}
		}
		buf.WriteByte(']')
		return nil
	case Opaque:
		buf.WriteString("null")
		return nil
	default:
		return encodeScalar(buf, val)
	}
}

func encodeScalar(buf *bytes.Buffer, v any) error {
	start := buf.Len()
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	// Encoder.Encode terminates every value with a newline.
	buf.Truncate(buf.Len() - 1)
	if _, isString := v.(string); isString {
		unescapeLineSeparators(buf, start)
	}
	return nil
}

// unescapeLineSeparators replaces the \u2028 and \u2029 escapes that
// encoding/json always emits in buf[start:] with the raw characters.
func unescapeLineSeparators(buf *bytes.Buffer, start int) {
	encoded := buf.Bytes()[start:]
	if !bytes.Contains(encoded, []byte(`\u202`)) {
		return
	}

	out := make([]byte, 0, len(encoded))
	for i := 0; i < len(encoded); i++ {
		c := encoded[i]
		if c != '\\' {
			out = append(out, c)
			continue
		}
		if rest := encoded[i:]; len(rest) >= 6 && rest[1] == 'u' && string(rest[2:5]) == "202" && (rest[5] == '8' || rest[5] == '9') {
			if rest[5] == '8' {
				out = append(out, "\u2028"...)
			} else {
				out = append(out, "\u2029"...)
			}
			i += 5
			continue
		}
		// Any other escape is two bytes: copy both so an escaped backslash
		// is never mistaken for the start of a sequence.
		out = append(out, c)
		if i+1 < len(encoded) {
			out = append(out, encoded[i+1])
			i++
		}
	}
	buf.Truncate(start)
	buf.Write(out)
}

// DecodeJSON decodes a JSON document keeping object key order.
// Objects become *Object, arrays []any and numbers json.Number.
func DecodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after top-level JSON value")
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			obj := NewObject()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("unexpected object key %v", keyTok)
				}
				value, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				obj.Set(key, value)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return obj, nil
		case '[':
			list := make([]any, 0)
			for dec.More() {
				value, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				list = append(list, value)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return list, nil
		default:
			return nil, fmt.Errorf("unexpected delimiter %q", t)
		}
	default:
		return t, nil
	}
}
