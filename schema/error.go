package schema

import (
	"encoding/json"
	"fmt"
	"math/big"
	"sort"

	"github.com/xeipuuv/gojsonschema"
)

// Summaries used for failures detected while coercing input.
const (
	MsgRequired  = "This field is required."
	MsgRogue     = "Rogue field"
	MsgNotObject = "Value must be an object."
)

// FieldErrors groups validation failure summaries by field name. The
// summaries for a field keep the order in which they were found.
type FieldErrors map[string][]string

func (fe FieldErrors) Add(field string, summary string) {
	fe[field] = append(fe[field], summary)
}

// Nest folds the errors of a nested value into field, prefixing each summary
// with the nested path so the result keeps the flat {field: [summaries]} shape.
func (fe FieldErrors) Nest(field string, nested FieldErrors) {
	for _, sub := range nested.Names() {
		for _, summary := range nested[sub] {
			fe.Add(field, sub+": "+summary)
		}
	}
}

// Names returns the failing field names in sorted order.
func (fe FieldErrors) Names() []string {
	names := make([]string, 0, len(fe))
	for name := range fe {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidationError is returned by Parse when one or more fields fail.
type ValidationError struct {
	Schema string      `json:"schema,omitempty"`
	Fields FieldErrors `json:"fields"`
}

func (ve *ValidationError) Error() string {
	d, err := json.Marshal(ve.Fields)
	if err != nil {
		return err.Error()
	}

	return fmt.Sprintf("%s: invalid fields %s", ve.Schema, d)
}

// =============================================================================

func newErrorMessage(resErr gojsonschema.ResultError) string {
	details := resErr.Details()

	switch resErr.(type) {
	case *gojsonschema.StringLengthGTEError:
		return fmt.Sprintf("String value is too short, minimum length is %s.", number(details["min"]))
	case *gojsonschema.StringLengthLTEError:
		return fmt.Sprintf("String value is too long, maximum length is %s.", number(details["max"]))
	case *gojsonschema.NumberGTEError:
		return fmt.Sprintf("Value should be greater than or equal to %s.", number(details["min"]))
	case *gojsonschema.NumberLTEError:
		return fmt.Sprintf("Value should be less than or equal to %s.", number(details["max"]))
	case *gojsonschema.ArrayMinItemsError:
		return fmt.Sprintf("Please provide at least %s items.", number(details["min"]))
	case *gojsonschema.ArrayMaxItemsError:
		return fmt.Sprintf("Please provide no more than %s items.", number(details["max"]))
	case *gojsonschema.DoesNotMatchPatternError:
		return fmt.Sprintf("String value did not match validation regex %v.", details["pattern"])
	case *gojsonschema.DoesNotMatchFormatError:
		return fmt.Sprintf("Value is not a valid %v.", details["format"])
	case *gojsonschema.EnumError:
		return fmt.Sprintf("Value must be one of %v.", details["allowed"])
	case *gojsonschema.InvalidTypeError:
		return fmt.Sprintf("Value should be of type %v.", details["expected"])
	default:
		return resErr.Description()
	}
}

// number renders a constraint bound; gojsonschema carries them as big numbers.
func number(v any) string {
	switch n := v.(type) {
	case *big.Rat:
		if n.IsInt() {
			return n.Num().String()
		}
		f, _ := n.Float64()
		return fmt.Sprint(f)
	case *big.Float:
		return n.Text('g', -1)
	default:
		return fmt.Sprint(v)
	}
}
