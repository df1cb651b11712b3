package types

// SuccessEnvelope wraps every successful API payload.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the wire form of a request failure. Details is only filled
// for codes whose metadata allows echoing them back to the caller.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope wraps an APIError for the response body.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
