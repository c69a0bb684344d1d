package registry

import (
	"bytes"
	"encoding/json"
)

// Shape records how the registry encoded a record list.
type Shape int

const (
	// ShapeAbsent means no list was present (missing, null, "" or not a container).
	ShapeAbsent Shape = iota
	// ShapeSingle means a bare object, which the registry sends for exactly one record.
	ShapeSingle
	// ShapeMany means an array of records.
	ShapeMany
)

// OneOrMany decodes the registry's cardinality-dependent list encoding.
// It is normalised to a slice with List immediately after decoding.
type OneOrMany[T any] struct {
	Shape  Shape
	Single T
	Many   []T
}

// UnmarshalJSON never fails: anything it cannot interpret becomes ShapeAbsent,
// and array elements that do not decode are skipped.
func (o *OneOrMany[T]) UnmarshalJSON(data []byte) error {
	*o = OneOrMany[T]{}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil
	}

	switch trimmed[0] {
	case '{':
		var v T
		if err := json.Unmarshal(trimmed, &v); err != nil {
			return nil
		}
		o.Shape = ShapeSingle
		o.Single = v
	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return nil
		}
		many := make([]T, 0, len(raw))
		for _, elem := range raw {
			var v T
			if err := json.Unmarshal(elem, &v); err != nil {
				continue
			}
			many = append(many, v)
		}
		o.Shape = ShapeMany
		o.Many = many
	}
	return nil
}

// List returns the records as a slice of 0, 1 or N elements.
func (o OneOrMany[T]) List() []T {
	switch o.Shape {
	case ShapeSingle:
		return []T{o.Single}
	case ShapeMany:
		return o.Many
	default:
		return []T{}
	}
}

// fromSlice wraps elements decoded from repeated XML elements.
func fromSlice[T any](items []T) OneOrMany[T] {
	switch len(items) {
	case 0:
		return OneOrMany[T]{Shape: ShapeAbsent}
	case 1:
		return OneOrMany[T]{Shape: ShapeSingle, Single: items[0]}
	default:
		return OneOrMany[T]{Shape: ShapeMany, Many: items}
	}
}

// jsonItems handles the "items" wrapper, which the registry sends as ""
// when a query has no results.
type jsonItems[T any] struct {
	Item OneOrMany[T]
}

func (i *jsonItems[T]) UnmarshalJSON(data []byte) error {
	*i = jsonItems[T]{}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil
	}

	var aux struct {
		Item OneOrMany[T] `json:"item"`
	}
	if err := json.Unmarshal(trimmed, &aux); err != nil {
		return nil
	}
	i.Item = aux.Item
	return nil
}

// flexString accepts a JSON string, number or boolean literal. The registry is
// inconsistent about quoting numeric fields.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case len(trimmed) == 0, bytes.Equal(trimmed, []byte("null")):
		*f = ""
	case trimmed[0] == '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*f = flexString(s)
	case trimmed[0] == '{', trimmed[0] == '[':
		*f = ""
	default:
		*f = flexString(trimmed)
	}
	return nil
}
