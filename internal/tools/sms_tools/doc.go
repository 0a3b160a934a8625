// Package sms_tools exposes SMS sending through the Model Context Protocol.
//
// It provides a single tool:
//
//   - send_sms: Send one SMS through Twilio and wait for its final delivery status
//
// The tool blocks until the delivery tracker reaches a decision and always
// answers with a "[FINAL]" text, so agents are told explicitly not to resend.
// Validation and submission failures surface as protocol-level errors.
//
// Example MCP tool call:
//
//	{
//	  "tool": "send_sms",
//	  "arguments": {
//	    "to": "+15559876543",
//	    "message": "Your appointment is confirmed."
//	  }
//	}
package sms_tools
