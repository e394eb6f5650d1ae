// Package apierror renders API failures as RFC 9457 problem documents.
package apierror

// ProblemDetails is the application/problem+json body. The first five
// fields are standard; the rest are healthlog extensions that clients use
// for display and retry decisions.
type ProblemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`

	RequestID   string       `json:"request_id,omitempty"`
	UserMessage string       `json:"user_message,omitempty"`
	RetryAfter  *int         `json:"retry_after,omitempty"` // seconds
	Action      string       `json:"action,omitempty"`      // "authenticate", "refresh_logs"
	Errors      []FieldError `json:"errors,omitempty"`
}

// FieldError describes one field that failed validation.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func (p *ProblemDetails) Error() string {
	if p.Detail != "" {
		return p.Detail
	}
	return p.Title
}
