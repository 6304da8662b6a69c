package types

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// DeletedResponse acknowledges a removal that has no row left to return.
type DeletedResponse struct {
	OK      bool `json:"ok"`
	Deleted bool `json:"deleted,omitempty"`
}
