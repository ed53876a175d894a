package offer

import "strings"

// Status is the visitor-facing outcome of checking a code.
type Status string

const (
	StatusSuccess Status = "success"
	StatusNeutral Status = "neutral"
	StatusInvalid Status = "invalid"
)

// Result pairs the check outcome with the message to display.
type Result struct {
	Status   Status `json:"status"`
	Message  string `json:"message"`
	Code     string `json:"code,omitempty"`
	Discount int64  `json:"discount,omitempty"`
}

// Check turns raw form input into a displayable result. Blank input is
// neutral rather than invalid; Parse itself does not make that distinction.
func Check(raw string, scheme Scheme) Result {
	if strings.TrimSpace(raw) == "" {
		return Result{Status: StatusNeutral, Message: scheme.NeutralMessage}
	}
	parsed, ok := Parse(raw, scheme)
	if !ok {
		return Result{Status: StatusInvalid, Message: scheme.InvalidMessage}
	}
	return Result{
		Status:   StatusSuccess,
		Message:  scheme.SuccessMessage,
		Code:     parsed.Code,
		Discount: parsed.Discount,
	}
}

// DiscountAmount returns the discount to apply, zero unless the check
// succeeded.
func (r Result) DiscountAmount() int64 {
	if r.Status != StatusSuccess {
		return 0
	}
	return r.Discount
}
