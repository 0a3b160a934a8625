// Package server holds the shared runtime of the twilio-sms-mcp server.
//
// ServerContext owns the startup configuration, the Twilio-backed delivery
// tracker and the optional metrics and audit recorders. Tool handlers reach
// every dependency through it.
//
// HTTPServer exposes the MCP streamable HTTP transport on /mcp alongside
// Kubernetes-style probes (/healthz, /readyz, /healthz/detailed). The probes
// never reveal credential values.
//
// MetricsServer serves Prometheus metrics on a separate port so operational
// data stays off the MCP listener.
package server
