package delivery

import (
	"errors"
	"strings"

	"github.com/teemow/twilio-sms-mcp/internal/twilio"
)

// User-facing error texts.
const (
	msgInvalidFormat  = "Phone number must be in E.164 format (e.g., +1234567890)"
	msgAuthFailed     = "Twilio authentication failed. Please check your Account SID and Auth Token."
	msgRejectedNumber = "Invalid phone number format. Please use E.164 format (e.g., +1234567890)"
	msgSendFailed     = "Failed to send SMS: "
)

// ValidationError is returned before any provider call when the request is malformed.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return msgInvalidFormat
}

// ProviderAuthError means the provider refused the configured credentials.
type ProviderAuthError struct {
	Err error
}

func (e *ProviderAuthError) Error() string {
	return msgAuthFailed
}

func (e *ProviderAuthError) Unwrap() error {
	return e.Err
}

// ProviderRejectionError means the provider refused the destination number.
type ProviderRejectionError struct {
	Err error
}

func (e *ProviderRejectionError) Error() string {
	return msgRejectedNumber
}

func (e *ProviderRejectionError) Unwrap() error {
	return e.Err
}

// SubmissionError wraps any other failure to submit a message.
type SubmissionError struct {
	Err error
}

func (e *SubmissionError) Error() string {
	return msgSendFailed + detail(e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// translateSubmitError classifies a provider failure. Typed Twilio errors
// are matched by status and code; anything else falls back to the wording of
// the error text.
func translateSubmitError(err error) error {
	var apiErr *twilio.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.IsAuthentication():
			return &ProviderAuthError{Err: err}
		case apiErr.IsInvalidNumber():
			return &ProviderRejectionError{Err: err}
		}
	}

	text := err.Error()
	switch {
	case strings.Contains(text, "Authentication Error"):
		return &ProviderAuthError{Err: err}
	case strings.Contains(text, "Invalid phone number"):
		return &ProviderRejectionError{Err: err}
	}
	return &SubmissionError{Err: err}
}

// detail prefers the provider's own message over the client's decorated error text.
func detail(err error) string {
	if err == nil {
		return "unknown error"
	}
	var apiErr *twilio.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}
