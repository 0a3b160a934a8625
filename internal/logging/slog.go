package logging

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
)

// Common log attribute keys for consistent naming across the codebase.
const (
	KeyOperation  = "operation"
	KeyTool       = "tool"
	KeyStatus     = "status"
	KeyError      = "error"
	KeyRecipient  = "recipient"
	KeyPhoneHash  = "phone_hash"
	KeyMessageSID = "message_sid"
	KeyAttempt    = "attempt"
	KeyDuration   = "duration"
)

// WithOperation returns a logger with the operation attribute set.
func WithOperation(logger *slog.Logger, operation string) *slog.Logger {
	return logger.With(slog.String(KeyOperation, operation))
}

// WithTool returns a logger with the tool attribute set.
func WithTool(logger *slog.Logger, tool string) *slog.Logger {
	return logger.With(slog.String(KeyTool, tool))
}

// Operation returns a slog attribute for the operation name.
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// Tool returns a slog attribute for the tool name.
func Tool(tool string) slog.Attr {
	return slog.String(KeyTool, tool)
}

// Status returns a slog attribute for a delivery or operation status.
func Status(status string) slog.Attr {
	return slog.String(KeyStatus, status)
}

// MessageSID returns a slog attribute for the provider message identifier.
func MessageSID(sid string) slog.Attr {
	return slog.String(KeyMessageSID, sid)
}

// Attempt returns a slog attribute for a polling attempt counter.
func Attempt(n int) slog.Attr {
	return slog.Int(KeyAttempt, n)
}

// Err returns a slog attribute for an error.
// If err is nil, returns an empty Group attribute that will be omitted from output.
//
// Usage:
//
//	logger.Info("operation", logging.Err(err))  // Safe even if err is nil
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Group("")
	}
	return slog.String(KeyError, err.Error())
}

// MaskPhone returns a masked representation of an E.164 number that keeps the
// leading "+", the first digit and the last two digits, e.g. "+1********67".
func MaskPhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return ""
	}
	runes := []rune(phone)
	if len(runes) <= 4 {
		return strings.Repeat("*", len(runes))
	}
	keepHead := 1
	if runes[0] == '+' {
		keepHead = 2
	}
	masked := make([]rune, len(runes))
	for i, r := range runes {
		if i < keepHead || i >= len(runes)-2 {
			masked[i] = r
			continue
		}
		masked[i] = '*'
	}
	return string(masked)
}

// HashPhone returns a stable hashed identifier for a phone number so that log
// entries can be correlated without exposing the number.
func HashPhone(phone string) string {
	if phone == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(phone))
	return "phone:" + hex.EncodeToString(hash[:8])
}

// Recipient returns a slog attribute with the masked recipient number.
func Recipient(phone string) slog.Attr {
	return slog.String(KeyRecipient, MaskPhone(phone))
}

// PhoneHash returns a slog attribute with the hashed phone number.
func PhoneHash(phone string) slog.Attr {
	return slog.String(KeyPhoneHash, HashPhone(phone))
}

// SanitizeSecret returns a length indicator for a credential without exposing any of it.
func SanitizeSecret(secret string) string {
	if secret == "" {
		return "<empty>"
	}
	return fmt.Sprintf("[secret:%d chars]", len(secret))
}

// SetOrMissing renders a credential presence marker for startup diagnostics.
func SetOrMissing(value string) string {
	if value == "" {
		return "not set"
	}
	return "set"
}
