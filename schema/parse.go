package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Parse converts untyped input into a validated Record. On failure it returns
// a *ValidationError that holds every failing field, each with all of its
// summaries.
func (s *Schema) Parse(raw map[string]any) (Record, error) {
	s = OrNil(s)

	rec, errs := s.convert(raw)
	if err := s.check(rec, errs); err != nil {
		return nil, fmt.Errorf("schema %s: %w", s.name, err)
	}

	if len(errs) > 0 {
		return nil, &ValidationError{Schema: s.name, Fields: errs}
	}

	return rec, nil
}

// FromValues adapts query or form values to Parse input: single values become
// strings, repeated keys become string slices.
func FromValues(values url.Values) map[string]any {
	raw := make(map[string]any, len(values))
	for key, vals := range values {
		switch len(vals) {
		case 0:
			continue
		case 1:
			raw[key] = vals[0]
		default:
			raw[key] = append([]string(nil), vals...)
		}
	}
	return raw
}

func (s *Schema) convert(raw map[string]any) (Record, FieldErrors) {
	rec := make(Record, len(s.fields))
	errs := make(FieldErrors)

	if s.strict {
		for key := range raw {
			if _, ok := s.Field(key); !ok {
				errs.Add(key, MsgRogue)
			}
		}
	}

	for _, f := range s.fields {
		v, ok := raw[f.Name]
		if !ok || v == nil {
			switch {
			case f.Default != nil:
				rec[f.Name] = f.Default
			case f.Required:
				errs.Add(f.Name, MsgRequired)
			}
			continue
		}

		cv, nested, err := f.coerce(v)
		if len(nested) > 0 {
			errs.Nest(f.Name, nested)
			continue
		}
		if err != nil {
			errs.Add(f.Name, err.Error())
			continue
		}

		rec[f.Name] = cv

		for _, validate := range f.Validators {
			if err := validate(cv); err != nil {
				errs.Add(f.Name, err.Error())
			}
		}
	}

	return rec, errs
}

// coerce converts v to the field's kind. Nested objects report their own
// field errors separately so the caller can fold them under the field name.
func (f Field) coerce(v any) (any, FieldErrors, error) {
	switch f.Kind {
	case KindList:
		return coerceList(f, v)
	case KindObject:
		return coerceObject(f.Schema, v)
	default:
		cv, err := coerceScalar(f.Kind, v)
		return cv, nil, err
	}
}

func coerceList(f Field, v any) (any, FieldErrors, error) {
	var items []any
	switch vv := v.(type) {
	case []any:
		items = vv
	case []string:
		items = make([]any, len(vv))
		for i, s := range vv {
			items[i] = s
		}
	default:
		items = []any{v}
	}

	out := make([]any, 0, len(items))
	nested := make(FieldErrors)
	for i, item := range items {
		key := strconv.Itoa(i)
		if f.Elem == KindObject {
			cv, errs, err := coerceObject(f.Schema, item)
			switch {
			case len(errs) > 0:
				nested.Nest(key, errs)
			case err != nil:
				nested.Add(key, err.Error())
			default:
				out = append(out, cv)
			}
			continue
		}

		cv, err := coerceScalar(f.Elem, item)
		if err != nil {
			nested.Add(key, err.Error())
			continue
		}
		out = append(out, cv)
	}

	if len(nested) > 0 {
		return nil, nested, nil
	}

	return out, nil, nil
}

func coerceObject(s *Schema, v any) (any, FieldErrors, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		if rec, isRec := v.(Record); isRec {
			obj = rec
		} else {
			return nil, nil, errors.New(MsgNotObject)
		}
	}

	if s == nil {
		// untyped objects pass through as decoded
		return Record(obj), nil, nil
	}

	rec, errs := s.convert(obj)
	if len(errs) > 0 {
		return nil, errs, nil
	}

	return rec, nil, nil
}

func coerceScalar(k Kind, v any) (any, error) {
	switch k {
	case KindInt:
		return toInt(v)
	case KindFloat:
		return toFloat(v)
	case KindBool:
		return toBool(v)
	case KindTime:
		return toTime(v)
	case KindUUID:
		return toUUID(v)
	default:
		return toString(v)
	}
}

func toString(v any) (any, error) {
	switch vv := v.(type) {
	case string:
		return vv, nil
	case json.Number:
		return vv.String(), nil
	case float64:
		return strconv.FormatFloat(vv, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(vv), nil
	case int64:
		return strconv.FormatInt(vv, 10), nil
	case fmt.Stringer:
		return vv.String(), nil
	default:
		return nil, fmt.Errorf("Couldn't interpret '%v' as string.", v)
	}
}

func toInt(v any) (any, error) {
	fail := fmt.Errorf("Value '%v' is not int.", v)

	switch vv := v.(type) {
	case int:
		return vv, nil
	case int64:
		if int64(int(vv)) != vv {
			return nil, fail
		}
		return int(vv), nil
	case float64:
		// float64(math.MaxInt) rounds up to 2^63
		if vv != math.Trunc(vv) || vv >= float64(math.MaxInt) || vv < float64(math.MinInt) {
			return nil, fail
		}
		return int(vv), nil
	case json.Number:
		n, err := vv.Int64()
		if err != nil || int64(int(n)) != n {
			return nil, fail
		}
		return int(n), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(vv))
		if err != nil {
			return nil, fail
		}
		return n, nil
	default:
		return nil, fail
	}
}

func toFloat(v any) (any, error) {
	fail := fmt.Errorf("Value '%v' is not float.", v)

	switch vv := v.(type) {
	case float64:
		return vv, nil
	case int:
		return float64(vv), nil
	case int64:
		return float64(vv), nil
	case json.Number:
		n, err := vv.Float64()
		if err != nil {
			return nil, fail
		}
		return n, nil
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(vv), 64)
		if err != nil {
			return nil, fail
		}
		return n, nil
	default:
		return nil, fail
	}
}

func toBool(v any) (any, error) {
	switch vv := v.(type) {
	case bool:
		return vv, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(vv)) {
		case "1", "t", "true", "on", "yes", "y":
			return true, nil
		case "0", "f", "false", "off", "no", "n":
			return false, nil
		}
	case float64:
		if vv == 0 || vv == 1 {
			return vv == 1, nil
		}
	case int:
		if vv == 0 || vv == 1 {
			return vv == 1, nil
		}
	}

	return nil, errors.New("Must be either true or false.")
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func toTime(v any) (any, error) {
	fail := fmt.Errorf("Could not parse %v. Should be ISO 8601.", v)

	switch vv := v.(type) {
	case time.Time:
		return vv, nil
	case float64:
		if math.IsNaN(vv) || math.Abs(vv) >= math.MaxInt64 {
			return nil, fail
		}
		return unixFloat(vv), nil
	case json.Number:
		if n, err := vv.Int64(); err == nil {
			return unixTime(n), nil
		}
		f, err := vv.Float64()
		if err != nil || math.IsNaN(f) || math.Abs(f) >= math.MaxInt64 {
			return nil, fail
		}
		return unixFloat(f), nil
	case string:
		s := strings.TrimSpace(vv)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return unixTime(n), nil
		}
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
		}
	}

	return nil, fail
}

// unixTime accepts both seconds and milliseconds since the epoch.
func unixTime(n int64) time.Time {
	if n > 1e11 || n < -1e11 {
		return time.UnixMilli(n).UTC()
	}
	return time.Unix(n, 0).UTC()
}

// unixFloat is unixTime for fractional timestamps.
func unixFloat(f float64) time.Time {
	if f > 1e11 || f < -1e11 {
		f /= 1000
	}
	sec, frac := math.Modf(f)
	return time.Unix(int64(sec), int64(math.Round(frac*1e9))).UTC()
}

func toUUID(v any) (any, error) {
	switch vv := v.(type) {
	case uuid.UUID:
		return vv, nil
	case string:
		id, err := uuid.Parse(strings.TrimSpace(vv))
		if err == nil {
			return id, nil
		}
	}

	return nil, fmt.Errorf("Couldn't interpret '%v' value as UUID.", v)
}
