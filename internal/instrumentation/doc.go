// Package instrumentation provides OpenTelemetry instrumentation for the
// twilio-sms-mcp server.
//
// # Metrics
//
// Server/HTTP Metrics:
//   - http_requests_total: Counter of HTTP requests by method, path, and status
//   - http_request_duration_seconds: Histogram of HTTP request durations
//
// Twilio API Metrics:
//   - twilio_api_operations_total: Counter of Twilio API calls by operation and status
//   - twilio_api_operation_duration_seconds: Histogram of Twilio API call durations
//
// Delivery Metrics:
//   - sms_delivery_outcomes_total: Counter of terminal delivery decisions by outcome and status
//   - sms_delivery_poll_attempts: Histogram of status observations needed per message
//
// MCP Tool Metrics:
//   - mcp_tool_invocations_total: Counter of MCP tool invocations by tool name and status
//   - mcp_tool_duration_seconds: Histogram of MCP tool execution durations
//
// # Tracing
//
// Spans are created for MCP tool invocations (tool.<name>), the delivery state
// machine (delivery.send) and each Twilio API call (twilio.messages.<operation>).
//
// # Configuration
//
//   - INSTRUMENTATION_ENABLED: Enable/disable instrumentation (default: true)
//   - METRICS_EXPORTER: prometheus, otlp, stdout (default: prometheus)
//   - TRACING_EXPORTER: otlp, stdout, none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_TRACES_SAMPLER_ARG: Sampling rate (0.0 to 1.0, default: 0.1)
//   - OTEL_SERVICE_NAME: Service name (default: twilio-sms-mcp)
//
// All Metrics methods are safe to call on a nil *Metrics, so components can
// record unconditionally whether or not instrumentation is enabled.
package instrumentation
