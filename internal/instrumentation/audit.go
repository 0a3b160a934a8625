package instrumentation

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/teemow/twilio-sms-mcp/internal/logging"
)

// ToolInvocation captures one MCP tool call for the audit trail.
//
// # Privacy Considerations
//
// Recipient holds a raw phone number. Regular logs only ever carry its hash;
// the full number is written only when the audit logger is configured with
// IncludePII.
type ToolInvocation struct {
	// ID uniquely identifies the invocation across logs.
	ID string

	Tool      string
	Recipient string

	// BodyLength is the message length in bytes. Bodies are never logged.
	BodyLength int

	// Delivery details, set once the tracker reaches a decision
	MessageSID string
	Outcome    string

	// Execution details
	StartTime time.Time
	Duration  time.Duration
	Success   bool
	Error     string

	// Tracing context
	TraceID string
	SpanID  string
}

// NewToolInvocation creates a new ToolInvocation with timing started.
// Call Complete() when the tool operation finishes.
func NewToolInvocation(tool string) *ToolInvocation {
	return &ToolInvocation{
		ID:        uuid.NewString(),
		Tool:      tool,
		StartTime: time.Now(),
	}
}

// WithRecipient sets the destination number and message length.
func (ti *ToolInvocation) WithRecipient(phone string, bodyLength int) *ToolInvocation {
	ti.Recipient = phone
	ti.BodyLength = bodyLength
	return ti
}

// WithDelivery records the provider handle and terminal outcome.
func (ti *ToolInvocation) WithDelivery(messageSID, outcome string) *ToolInvocation {
	ti.MessageSID = messageSID
	ti.Outcome = outcome
	return ti
}

// WithSpanContext extracts trace context from the current span.
func (ti *ToolInvocation) WithSpanContext(ctx context.Context) *ToolInvocation {
	ti.TraceID = GetTraceID(ctx)
	ti.SpanID = GetSpanID(ctx)
	return ti
}

// Complete marks the invocation as completed and calculates duration.
func (ti *ToolInvocation) Complete(success bool, err error) *ToolInvocation {
	ti.Duration = time.Since(ti.StartTime)
	ti.Success = success
	if err != nil {
		ti.Error = err.Error()
	}
	return ti
}

// CompleteWithError marks the invocation as failed with the given error.
func (ti *ToolInvocation) CompleteWithError(err error) *ToolInvocation {
	return ti.Complete(false, err)
}

// CompleteSuccess marks the invocation as successful.
func (ti *ToolInvocation) CompleteSuccess() *ToolInvocation {
	return ti.Complete(true, nil)
}

// Status returns "success" or "error" based on the Success field.
func (ti *ToolInvocation) Status() string {
	if ti.Success {
		return StatusSuccess
	}
	return StatusError
}

// LogAttrs returns slog attributes with the recipient reduced to a hash.
func (ti *ToolInvocation) LogAttrs() []slog.Attr {
	attrs := ti.baseAttrs()
	if ti.Recipient != "" {
		attrs = append(attrs, logging.PhoneHash(ti.Recipient))
	}
	return ti.appendOptional(attrs)
}

// LogAuditAttrs returns slog attributes including the full recipient number.
//
// # Security Warning
//
// Route these records to storage with appropriate access controls.
func (ti *ToolInvocation) LogAuditAttrs() []slog.Attr {
	attrs := ti.baseAttrs()
	if ti.Recipient != "" {
		attrs = append(attrs,
			slog.String("recipient", ti.Recipient),
			logging.PhoneHash(ti.Recipient),
		)
	}
	attrs = ti.appendOptional(attrs)
	if ti.SpanID != "" {
		attrs = append(attrs, slog.String("span_id", ti.SpanID))
	}
	return attrs
}

func (ti *ToolInvocation) baseAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("invocation_id", ti.ID),
		slog.String("tool", ti.Tool),
		slog.Duration("duration", ti.Duration),
		slog.Bool("success", ti.Success),
	}
}

func (ti *ToolInvocation) appendOptional(attrs []slog.Attr) []slog.Attr {
	if ti.BodyLength > 0 {
		attrs = append(attrs, slog.Int("body_length", ti.BodyLength))
	}
	if ti.MessageSID != "" {
		attrs = append(attrs, slog.String("message_sid", ti.MessageSID))
	}
	if ti.Outcome != "" {
		attrs = append(attrs, slog.String("outcome", ti.Outcome))
	}
	if ti.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", ti.TraceID))
	}
	if ti.Error != "" {
		attrs = append(attrs, slog.String("error", ti.Error))
	}
	return attrs
}

// AuditLogger writes tool invocation records through slog.
type AuditLogger struct {
	logger     *slog.Logger
	includePII bool
	enabled    bool
}

// NewAuditLogger creates an enabled AuditLogger that hashes recipients.
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return NewAuditLoggerWithConfig(logger, AuditLoggingConfig{Enabled: true})
}

// NewAuditLoggerWithConfig creates a new AuditLogger with the given configuration.
func NewAuditLoggerWithConfig(logger *slog.Logger, config AuditLoggingConfig) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger:     logger,
		includePII: config.IncludePII,
		enabled:    config.Enabled,
	}
}

// LogToolInvocation logs a completed tool invocation. Safe on a nil receiver.
func (al *AuditLogger) LogToolInvocation(ti *ToolInvocation) {
	if al == nil || !al.enabled || ti == nil {
		return
	}

	var attrs []slog.Attr
	if al.includePII {
		attrs = ti.LogAuditAttrs()
	} else {
		attrs = ti.LogAttrs()
	}

	args := make([]any, len(attrs))
	for i, attr := range attrs {
		args[i] = attr
	}

	if ti.Success {
		al.logger.Info("tool_executed", args...)
	} else {
		al.logger.Warn("tool_failed", args...)
	}
}
