package mortar

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/tailbits/mortar/schema"
	"gotest.tools/v3/assert"
)

func TestErrorRecordJSON(t *testing.T) {
	tests := []struct {
		name   string
		record ErrorRecord
		want   string
	}{
		{name: "bare", record: ErrorRecord{Message: "oops"}, want: `"oops"`},
		{name: "coded", record: ErrorRecord{Code: 409, Message: "taken"}, want: `{"code":409,"message":"taken"}`},
		{
			name:   "fields",
			record: ErrorRecord{Code: 400, Message: "Bad request", Fields: schema.FieldErrors{"name": {"This field is required."}}},
			want:   `{"code":400,"message":"Bad request","fields":{"name":["This field is required."]}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := json.Marshal(tt.record)
			assert.NilError(t, err)
			assert.Equal(t, string(b), tt.want)

			var back ErrorRecord
			assert.NilError(t, json.Unmarshal(b, &back))
			assert.DeepEqual(t, back, tt.record)
		})
	}
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, statusOf(errors.New("x")), http.StatusInternalServerError)
	assert.Equal(t, statusOf(fmt.Errorf("wrap: %w", BadGateway(errors.New("down")))), http.StatusBadGateway)
	assert.Equal(t, statusOf(&APIError{}), http.StatusInternalServerError)
}

func TestAPIError(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := fmt.Errorf("status: %w", BadGateway(cause))

	apiErr, ok := AsAPIError(err)
	assert.Assert(t, ok)
	assert.DeepEqual(t, apiErr.Record(), ErrorRecord{Code: 502, Message: "Bad gateway"})
	assert.Assert(t, errors.Is(err, cause))
	assert.Equal(t, apiErr.Error(), "502 Bad gateway: dial tcp: refused")

	assert.Equal(t, NotFound("").Message, "Not found")
	assert.Equal(t, NotFound("No such note").Message, "No such note")
}

func TestMobileEnvelope(t *testing.T) {
	env := &Envelope{
		Errors: []ErrorRecord{
			{Code: 409, Message: "first"},
			{Message: "second"},
		},
	}

	b, err := json.Marshal(newMobileEnvelope(env, 409))
	assert.NilError(t, err)
	assert.Equal(t, string(b),
		`{"code":409,"data":{"result":[],"pagination":null},"error":{"code":409,"message":"first"},"errors":["second"]}`)

	b, err = json.Marshal(newMobileEnvelope(&Envelope{Result: []any{1}, Success: true}, 0))
	assert.NilError(t, err)
	assert.Equal(t, string(b), `{"code":0,"data":{"result":[1],"pagination":null}}`)
}
