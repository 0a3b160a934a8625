package instrumentation

import "strings"

// Label helpers that keep metric cardinality bounded. Provider status strings
// and request paths are open-ended, so they are folded into fixed sets
// before being used as label values.

var knownStatuses = map[string]bool{
	"accepted":    true,
	"scheduled":   true,
	"queued":      true,
	"sending":     true,
	"sent":        true,
	"delivered":   true,
	"undelivered": true,
	"failed":      true,
	"canceled":    true,
	"receiving":   true,
	"received":    true,
	"read":        true,
}

// NormalizeStatusLabel maps a provider delivery status to a bounded label value.
//
// Example:
//
//	NormalizeStatusLabel("Delivered")  // "delivered"
//	NormalizeStatusLabel("")           // "unknown"
//	NormalizeStatusLabel("weird")      // "other"
func NormalizeStatusLabel(status string) string {
	s := strings.ToLower(strings.TrimSpace(status))
	switch {
	case s == "":
		return "unknown"
	case knownStatuses[s]:
		return s
	default:
		return "other"
	}
}

var knownPaths = map[string]bool{
	"/mcp":              true,
	"/healthz":          true,
	"/readyz":           true,
	"/healthz/detailed": true,
	"/metrics":          true,
}

// NormalizePath maps request paths outside the server's fixed routes to "other".
func NormalizePath(path string) string {
	if knownPaths[path] {
		return path
	}
	return "other"
}
