package twilio

import (
	"fmt"
	"net/http"
)

// Message is the subset of the Twilio Message resource used by this server.
type Message struct {
	SID          string  `json:"sid"`
	AccountSID   string  `json:"account_sid,omitempty"`
	To           string  `json:"to,omitempty"`
	From         string  `json:"from,omitempty"`
	Status       string  `json:"status"`
	Direction    string  `json:"direction,omitempty"`
	NumSegments  string  `json:"num_segments,omitempty"`
	ErrorCode    *int    `json:"error_code,omitempty"`
	ErrorMessage *string `json:"error_message,omitempty"`
	DateCreated  string  `json:"date_created,omitempty"`
	DateUpdated  string  `json:"date_updated,omitempty"`
}

// MessageParams are the fields sent when creating a message.
type MessageParams struct {
	To   string
	From string
	Body string
}

// Twilio error codes that identify the failure class of a request.
const (
	CodeAuthenticationError = 20003
	CodeInvalidPhoneNumber  = 21401
	CodeInvalidToNumber     = 21211
	CodeNumberNotValid      = 21217
	CodeNotMobileNumber     = 21614
)

// APIError is the JSON error document returned by Twilio for non-2xx responses.
type APIError struct {
	// StatusCode is the HTTP status of the response
	StatusCode int `json:"-"`

	// Code is the Twilio error code (e.g., 20003, 21211)
	Code int `json:"code"`

	// Message is the human-readable error description
	Message string `json:"message"`

	// MoreInfo links to the Twilio error reference
	MoreInfo string `json:"more_info,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	switch {
	case e.Message != "" && e.Code != 0:
		return fmt.Sprintf("twilio: %s (code=%d, status=%d)", e.Message, e.Code, e.StatusCode)
	case e.Message != "":
		return fmt.Sprintf("twilio: %s (status=%d)", e.Message, e.StatusCode)
	default:
		return fmt.Sprintf("twilio: http status %d", e.StatusCode)
	}
}

// IsAuthentication reports whether Twilio rejected the account credentials.
func (e *APIError) IsAuthentication() bool {
	return e.StatusCode == http.StatusUnauthorized || e.Code == CodeAuthenticationError
}

// IsInvalidNumber reports whether Twilio rejected a phone number.
func (e *APIError) IsInvalidNumber() bool {
	switch e.Code {
	case CodeInvalidPhoneNumber, CodeInvalidToNumber, CodeNumberNotValid, CodeNotMobileNumber:
		return true
	}
	return false
}
