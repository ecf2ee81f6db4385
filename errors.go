package mortar

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/tailbits/mortar/schema"
)

// ServerErrorMessage is the only text a client sees for unclassified faults.
const ServerErrorMessage = "Server error"

// ErrNotImplemented is returned by a Method that has no Execute function.
var ErrNotImplemented = errors.New("execute is not implemented")

// ErrorRecord is one client-visible error entry. A record with a zero Code is
// a bare message and is rendered on the wire as a plain JSON string.
type ErrorRecord struct {
	Code    int                `json:"code"`
	Message string             `json:"message"`
	Fields  schema.FieldErrors `json:"fields,omitempty"`
}

// IsBare reports whether the record carries only a message.
func (e ErrorRecord) IsBare() bool {
	return e.Code == 0 && len(e.Fields) == 0
}

func (e ErrorRecord) MarshalJSON() ([]byte, error) {
	if e.IsBare() {
		return json.Marshal(e.Message)
	}

	type record ErrorRecord
	return json.Marshal(record(e))
}

func (e *ErrorRecord) UnmarshalJSON(data []byte) error {
	var msg string
	if err := json.Unmarshal(data, &msg); err == nil {
		*e = ErrorRecord{Message: msg}
		return nil
	}

	type record ErrorRecord
	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}
	*e = ErrorRecord(r)
	return nil
}

// APIError is a typed fault with a client-visible status and message. It is
// rendered as-is by the view instead of the generic server error.
type APIError struct {
	Status  int
	Message string
	Fields  schema.FieldErrors
	Err     error
}

func NewAPIError(status int, message string) *APIError {
	return &APIError{Status: status, Message: message}
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%d %s: %v", e.Status, e.Message, e.Err)
	}
	return fmt.Sprintf("%d %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

func (e *APIError) StatusCode() int {
	return e.Status
}

// Record converts the fault into its client-visible error entry.
func (e *APIError) Record() ErrorRecord {
	return ErrorRecord{
		Code:    e.Status,
		Message: e.Message,
		Fields:  e.Fields,
	}
}

// BadRequest reports invalid input, with per-field summaries when known.
func BadRequest(fields schema.FieldErrors) *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Message: "Bad request",
		Fields:  fields,
	}
}

func MethodNotAllowed() *APIError {
	return NewAPIError(http.StatusMethodNotAllowed, "Method not allowed")
}

func NotFound(message string) *APIError {
	if message == "" {
		message = "Not found"
	}
	return NewAPIError(http.StatusNotFound, message)
}

// BadGateway wraps a failed call to an upstream dependency.
func BadGateway(err error) *APIError {
	return &APIError{
		Status:  http.StatusBadGateway,
		Message: "Bad gateway",
		Err:     err,
	}
}

// AsAPIError returns the first *APIError in err's chain.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// StatusCoder is implemented by errors that declare their own HTTP status
// without being typed API faults.
type StatusCoder interface {
	StatusCode() int
}

// statusOf returns the status declared by err, or 500.
func statusOf(err error) int {
	var sc StatusCoder
	if errors.As(err, &sc) && sc.StatusCode() > 0 {
		return sc.StatusCode()
	}
	return http.StatusInternalServerError
}

type panicError struct {
	value any
}

func (p *panicError) Error() string {
	return fmt.Sprintf("panic: %v", p.value)
}
