package mortar

// Pagination is attached to an envelope when the method reports a total.
type Pagination struct {
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// Envelope is the standard response body.
type Envelope struct {
	Result     []any         `json:"result"`
	Success    bool          `json:"success"`
	Errors     []ErrorRecord `json:"errors,omitempty"`
	Pagination *Pagination   `json:"pagination,omitempty"`
}

func errorEnvelope(errs []ErrorRecord) *Envelope {
	return &Envelope{
		Result: []any{},
		Errors: errs,
	}
}

// MobileEnvelope is the response body of the mobile flavor. Code is zero on
// success; otherwise Error holds the first error and Errors the rest.
type MobileEnvelope struct {
	Code   int           `json:"code"`
	Data   MobileData    `json:"data"`
	Error  *ErrorRecord  `json:"error,omitempty"`
	Errors []ErrorRecord `json:"errors,omitempty"`
}

type MobileData struct {
	Result     []any       `json:"result"`
	Pagination *Pagination `json:"pagination"`
}

func newMobileEnvelope(env *Envelope, code int) *MobileEnvelope {
	result := env.Result
	if result == nil {
		result = []any{}
	}

	menv := &MobileEnvelope{
		Data: MobileData{
			Result:     result,
			Pagination: env.Pagination,
		},
	}

	if len(env.Errors) > 0 {
		menv.Code = code
		menv.Error = &env.Errors[0]
		if len(env.Errors) > 1 {
			menv.Errors = env.Errors[1:]
		}
	}

	return menv
}
