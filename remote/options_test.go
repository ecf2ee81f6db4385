package remote

import (
	"net/http"
	"testing"
	"time"

	"gotest.tools/v3/assert"
)

func TestTimeoutOption(t *testing.T) {
	t.Run("default", func(t *testing.T) {
		a := New()
		assert.Equal(t, a.client.Timeout, defaultTimeout)
	})

	t.Run("applied after a caller client", func(t *testing.T) {
		caller := &http.Client{Timeout: time.Minute}
		a := New(WithTimeout(2*time.Second), WithHTTPClient(caller))

		assert.Equal(t, a.client.Timeout, 2*time.Second)
		assert.Equal(t, caller.Timeout, time.Minute)
		assert.Assert(t, a.client != caller)
	})

	t.Run("caller client kept without a timeout", func(t *testing.T) {
		caller := &http.Client{}
		a := New(WithHTTPClient(caller))

		assert.Assert(t, a.client == caller)
	})
}
