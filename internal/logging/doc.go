// Package logging provides structured logging utilities for the twilio-sms-mcp server.
//
// All logging goes through log/slog. Output is written to stderr because stdout
// carries the MCP protocol when the server runs on the stdio transport.
//
// # Usage Patterns
//
// Create a logger with standard attributes:
//
//	logger := logging.WithTool(slog.Default(), "send_sms")
//	logger.Info("message submitted",
//	    logging.MessageSID(sid),
//	    logging.Recipient(to))
//
// # Security Considerations
//
//   - Recipient phone numbers are masked or hashed, never logged in full
//   - Message bodies are never logged, only their length
//   - Auth tokens are reported as set/not set
package logging
