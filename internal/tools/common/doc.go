// Package common provides shared helpers for MCP tool handlers: argument
// extraction and the instrumentation wrapper that records metrics, spans and
// audit entries for every tool call.
package common
