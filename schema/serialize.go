package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Serialize converts obj into a primitive mapping holding only the declared
// fields. obj may be a map, a Record or any value that marshals to a JSON
// object. Missing fields take their default, or null.
func (s *Schema) Serialize(obj any) (map[string]any, error) {
	s = OrNil(s)
	if s.IsNil() {
		return map[string]any{}, nil
	}

	src, err := toObject(obj)
	if err != nil {
		return nil, fmt.Errorf("serialize %s: %w", s.name, err)
	}

	return s.serialize(src)
}

func (s *Schema) serialize(src map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(s.fields))

	for _, f := range s.fields {
		v, ok := src[f.Name]
		if !ok || v == nil {
			out[f.Name] = f.Default
			continue
		}

		sv, err := f.serialize(v)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}
		out[f.Name] = sv
	}

	return out, nil
}

func (f Field) serialize(v any) (any, error) {
	switch f.Kind {
	case KindList:
		items, err := toList(v)
		if err != nil {
			return nil, err
		}

		out := make([]any, len(items))
		for i, item := range items {
			if f.Elem == KindObject {
				out[i], err = serializeObject(f.Schema, item)
			} else {
				out[i], err = serializeScalar(f.Elem, item)
			}
			if err != nil {
				return nil, err
			}
		}
		return out, nil

	case KindObject:
		return serializeObject(f.Schema, v)

	default:
		return serializeScalar(f.Kind, v)
	}
}

func serializeObject(s *Schema, v any) (any, error) {
	if s == nil {
		// untyped object, passed through as decoded JSON
		return toObject(v)
	}

	src, err := toObject(v)
	if err != nil {
		return nil, err
	}
	return s.serialize(src)
}

func serializeScalar(k Kind, v any) (any, error) {
	if v == nil {
		return nil, nil
	}

	switch k {
	case KindTime:
		t, err := toTime(v)
		if err != nil {
			return nil, err
		}
		return t.(time.Time).Format(time.RFC3339), nil
	case KindUUID:
		if id, ok := v.(uuid.UUID); ok {
			return id.String(), nil
		}
		id, err := toUUID(v)
		if err != nil {
			return nil, err
		}
		return id.(uuid.UUID).String(), nil
	case KindInt:
		return toInt(v)
	case KindFloat:
		return toFloat(v)
	case KindBool:
		return toBool(v)
	default:
		return toString(v)
	}
}

func toObject(v any) (map[string]any, error) {
	switch vv := v.(type) {
	case map[string]any:
		return vv, nil
	case Record:
		return vv, nil
	}

	d, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("json.Marshal: %w", err)
	}

	var obj map[string]any
	if err := decodeJSON(d, &obj); err != nil {
		return nil, fmt.Errorf("%T is not an object: %w", v, err)
	}

	return obj, nil
}

func toList(v any) ([]any, error) {
	switch vv := v.(type) {
	case []any:
		return vv, nil
	case []string:
		out := make([]any, len(vv))
		for i, s := range vv {
			out[i] = s
		}
		return out, nil
	}

	d, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("json.Marshal: %w", err)
	}

	var list []any
	if err := decodeJSON(d, &list); err != nil {
		return nil, fmt.Errorf("%T is not a list: %w", v, err)
	}

	return list, nil
}

func decodeJSON(d []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(d))
	dec.UseNumber()
	return dec.Decode(v)
}
