package types

// OK is embedded in success payloads so every response body carries the
// success flag at the top level.
type OK struct {
	Success bool `json:"success"`
}

// Ok returns the embeddable success marker.
func Ok() OK {
	return OK{Success: true}
}

// ErrorEnvelope is the uniform failure payload: success is always false and
// error carries the human-readable message. Business-rule failures ship this
// envelope with HTTP 200.
type ErrorEnvelope struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	Details   any    `json:"details,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}
