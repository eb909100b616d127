package core

import (
	"fmt"

	json "github.com/goccy/go-json"
)

// Encode renders a value as compact JSON text. Mappings keep insertion
// order, placeholders render as null, and HTML characters are not escaped.
// A Scalar renders as a quoted JSON string.
func Encode(v Value) (string, error) {
	buf, err := appendJSON(nil, v)
	if err != nil {
		return "", err
	}
	return string(buf), nil
}

func appendJSON(buf []byte, v Value) ([]byte, error) {
	switch t := v.(type) {
	case nil:
		return append(buf, "null"...), nil

	case Scalar:
		quoted, err := json.MarshalNoEscape(string(t))
		if err != nil {
			return nil, fmt.Errorf("encode string: %w", err)
		}
		return append(buf, quoted...), nil

	case *Sequence:
		buf = append(buf, '[')
		for i, item := range t.Items {
			if i > 0 {
				buf = append(buf, ',')
			}
			var err error
			if buf, err = appendJSON(buf, item); err != nil {
				return nil, err
			}
		}
		return append(buf, ']'), nil

	case *Mapping:
		buf = append(buf, '{')
		var err error
		first := true
		t.Range(func(key string, item Value) bool {
			if !first {
				buf = append(buf, ',')
			}
			first = false
			if buf, err = appendJSON(buf, Scalar(key)); err != nil {
				return false
			}
			buf = append(buf, ':')
			buf, err = appendJSON(buf, item)
			return err == nil
		})
		if err != nil {
			return nil, err
		}
		return append(buf, '}'), nil

	default:
		return nil, fmt.Errorf("encode: unsupported value type %T", v)
	}
}

// encodeComposites replaces every sequence or mapping field with its JSON
// text. Scalars are left unchanged.
func encodeComposites(rec Record) error {
	for _, key := range rec.Keys() {
		v, _ := rec.Get(key)
		switch v.(type) {
		case *Sequence, *Mapping:
			text, err := Encode(v)
			if err != nil {
				return fmt.Errorf("field %q: %w", key, err)
			}
			rec.Set(key, Scalar(text))
		case nil:
			rec.Set(key, Scalar(""))
		}
	}
	return nil
}
