package schema

import (
	"time"

	"github.com/google/uuid"
)

// Record is the validated, typed result of Parse. Values have the Go types of
// their field kinds: string, int, float64, bool, time.Time, uuid.UUID, []any
// and nested Records.
type Record map[string]any

func (r Record) Has(name string) bool {
	_, ok := r[name]
	return ok
}

func (r Record) Get(name string) any {
	return r[name]
}

func (r Record) String(name string) string {
	s, _ := r[name].(string)
	return s
}

func (r Record) Int(name string) int {
	n, _ := r[name].(int)
	return n
}

func (r Record) Float(name string) float64 {
	switch v := r[name].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return 0
	}
}

func (r Record) Bool(name string) bool {
	b, _ := r[name].(bool)
	return b
}

func (r Record) Time(name string) time.Time {
	t, _ := r[name].(time.Time)
	return t
}

func (r Record) UUID(name string) uuid.UUID {
	id, _ := r[name].(uuid.UUID)
	return id
}

func (r Record) List(name string) []any {
	l, _ := r[name].([]any)
	return l
}

// Object returns a nested object value, or nil if the field is not an object.
func (r Record) Object(name string) Record {
	switch v := r[name].(type) {
	case Record:
		return v
	case map[string]any:
		return v
	default:
		return nil
	}
}
