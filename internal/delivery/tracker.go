package delivery

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/teemow/twilio-sms-mcp/internal/config"
	"github.com/teemow/twilio-sms-mcp/internal/instrumentation"
	"github.com/teemow/twilio-sms-mcp/internal/logging"
	"github.com/teemow/twilio-sms-mcp/internal/twilio"
)

// Final response texts. Each one tells the caller not to send again.
const (
	TextSuccess = "[FINAL] ✅ Message sent successfully. Do not attempt to resend this message."
	TextTimeout = "[FINAL] ❌ Message status unknown after maximum attempts. Do not attempt to resend this message."

	doNotResend   = " Do not attempt to resend this message."
	failurePrefix = "[FINAL] ❌ Failed to send message: "
)

// Default polling parameters.
const (
	DefaultPollInterval = 2 * time.Second
	DefaultMaxAttempts  = 10
)

// Provider is the part of the Twilio client the tracker depends on.
type Provider interface {
	CreateMessage(ctx context.Context, params twilio.MessageParams) (*twilio.Message, error)
	FetchMessage(ctx context.Context, sid string) (*twilio.Message, error)
}

// SendRequest is one outbound message.
type SendRequest struct {
	To      string
	Message string
}

// MessageHandle is the provider identifier of a submitted message.
type MessageHandle string

// Outcome is the tracker's terminal decision.
type Outcome string

const (
	OutcomeSuccess Outcome = instrumentation.OutcomeSuccess
	OutcomeFailure Outcome = instrumentation.OutcomeFailure
	OutcomeTimeout Outcome = instrumentation.OutcomeTimeout
)

// Result is the terminal answer for a submitted message.
type Result struct {
	// Text is the caller-facing message. It always starts with "[FINAL]".
	Text    string
	Outcome Outcome

	Handle MessageHandle

	// Status is the last status observed from the provider.
	Status Status

	// Attempts counts status observations, including the create response.
	Attempts int
}

// TrackerConfig configures a Tracker.
type TrackerConfig struct {
	// From is the sender number used for every message.
	From string

	PollInterval time.Duration
	MaxAttempts  int

	// Sleeper defaults to TimerSleeper.
	Sleeper Sleeper

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Metrics may be nil.
	Metrics *instrumentation.Metrics
}

// ConfigFrom builds a TrackerConfig from the loaded server configuration.
func ConfigFrom(cfg *config.Config) TrackerConfig {
	return TrackerConfig{
		From:         cfg.FromNumber,
		PollInterval: cfg.PollInterval,
		MaxAttempts:  cfg.MaxAttempts,
	}
}

// Tracker submits messages and follows them to a terminal status.
// It keeps no per-message state, so concurrent Send calls are independent.
type Tracker struct {
	provider     Provider
	from         string
	pollInterval time.Duration
	maxAttempts  int
	sleeper      Sleeper
	logger       *slog.Logger
	metrics      *instrumentation.Metrics
}

// NewTracker creates a Tracker. MaxAttempts and PollInterval fall back to
// their defaults when unset.
func NewTracker(provider Provider, cfg TrackerConfig) (*Tracker, error) {
	if provider == nil {
		return nil, errors.New("delivery: provider is required")
	}
	if cfg.From == "" {
		return nil, errors.New("delivery: sender number is required")
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.PollInterval < 0 {
		return nil, errors.New("delivery: poll interval must not be negative")
	}
	if cfg.Sleeper == nil {
		cfg.Sleeper = TimerSleeper{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Tracker{
		provider:     provider,
		from:         cfg.From,
		pollInterval: cfg.PollInterval,
		maxAttempts:  cfg.MaxAttempts,
		sleeper:      cfg.Sleeper,
		logger:       cfg.Logger.With(logging.Operation("delivery.send")),
		metrics:      cfg.Metrics,
	}, nil
}

// From returns the configured sender number.
func (t *Tracker) From() string {
	return t.from
}

// Send validates req, submits it exactly once and polls until a terminal
// decision. Provider errors from submission or a status fetch are returned as
// errors; cancellation while polling ends in the timeout Result.
func (t *Tracker) Send(ctx context.Context, req SendRequest) (*Result, error) {
	if !strings.HasPrefix(req.To, "+") {
		t.logger.Warn("rejecting recipient not in E.164 format", logging.Recipient(req.To))
		return nil, &ValidationError{Field: "to"}
	}

	ctx, span := instrumentation.StartSpan(ctx, "delivery.send",
		attribute.String(instrumentation.SpanAttrRecipient, logging.MaskPhone(req.To)),
		attribute.Int(instrumentation.SpanAttrBodyLength, len(req.Message)),
	)
	defer span.End()

	logger := t.logger.With(logging.Recipient(req.To))
	logger.Info("submitting message", slog.Int("body_length", len(req.Message)))

	msg, err := t.provider.CreateMessage(ctx, twilio.MessageParams{
		To:   req.To,
		From: t.from,
		Body: req.Message,
	})
	if err != nil {
		translated := translateSubmitError(err)
		logger.Error("message submission failed", logging.Err(err))
		instrumentation.SetSpanError(span, translated)
		return nil, translated
	}

	handle := MessageHandle(msg.SID)
	status := Status(msg.Status)
	logger = logger.With(logging.MessageSID(msg.SID))
	span.SetAttributes(attribute.String(instrumentation.SpanAttrMessageSID, msg.SID))

	attempts := 1
	for {
		logger.Debug("observed message status", logging.Status(string(status)), logging.Attempt(attempts))

		switch Classify(status) {
		case ClassSuccess:
			return t.finish(ctx, span, logger, handle, status, attempts, OutcomeSuccess), nil
		case ClassFailure:
			return t.finish(ctx, span, logger, handle, status, attempts, OutcomeFailure), nil
		}

		if attempts >= t.maxAttempts {
			return t.finish(ctx, span, logger, handle, status, attempts, OutcomeTimeout), nil
		}

		if err := t.sleeper.Sleep(ctx, t.pollInterval); err != nil {
			logger.Warn("status polling interrupted", logging.Err(err))
			return t.finish(ctx, span, logger, handle, status, attempts, OutcomeTimeout), nil
		}

		next, err := t.provider.FetchMessage(ctx, string(handle))
		attempts++
		if err != nil {
			if ctx.Err() != nil {
				logger.Warn("status polling interrupted", logging.Err(err), logging.Attempt(attempts))
				return t.finish(ctx, span, logger, handle, status, attempts, OutcomeTimeout), nil
			}
			translated := translateSubmitError(err)
			logger.Error("status fetch failed", logging.Err(err), logging.Attempt(attempts))
			instrumentation.SetSpanError(span, translated)
			return nil, translated
		}
		status = Status(next.Status)
	}
}

func (t *Tracker) finish(ctx context.Context, span spanSetter, logger *slog.Logger, handle MessageHandle, status Status, attempts int, outcome Outcome) *Result {
	res := &Result{
		Text:     FinalText(outcome, status),
		Outcome:  outcome,
		Handle:   handle,
		Status:   status,
		Attempts: attempts,
	}

	span.SetAttributes(
		attribute.String(instrumentation.SpanAttrDeliveryStatus, string(status)),
		attribute.String(instrumentation.SpanAttrOutcome, string(outcome)),
		attribute.Int(instrumentation.SpanAttrAttempt, attempts),
	)
	t.metrics.RecordDeliveryOutcome(context.WithoutCancel(ctx), string(outcome), string(status), attempts)

	logger.Info("delivery decided",
		slog.String("outcome", string(outcome)),
		logging.Status(string(status)),
		logging.Attempt(attempts),
	)
	return res
}

// FinalText renders the caller-facing text for a terminal decision.
func FinalText(outcome Outcome, status Status) string {
	switch outcome {
	case OutcomeSuccess:
		return TextSuccess
	case OutcomeFailure:
		return failurePrefix + StatusMessage(status) + "." + doNotResend
	default:
		return TextTimeout
	}
}

type spanSetter interface {
	SetAttributes(kv ...attribute.KeyValue)
}
