// Package cmd implements the command-line interface for twilio-sms-mcp.
//
// This package provides the following commands:
//   - serve: Start the MCP server exposing the send_sms tool
//   - send: Send one SMS from the terminal and wait for its final status
//   - version: Display version information
//   - generate-docs: Generate markdown documentation for all MCP tools
//
// The serve command is the default command when no subcommand is specified.
package cmd
