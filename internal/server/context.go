package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/teemow/twilio-sms-mcp/internal/config"
	"github.com/teemow/twilio-sms-mcp/internal/delivery"
	"github.com/teemow/twilio-sms-mcp/internal/instrumentation"
	"github.com/teemow/twilio-sms-mcp/internal/twilio"
)

// ServerContext holds the long-lived dependencies shared by every tool call.
type ServerContext struct {
	ctx         context.Context
	cancel      context.CancelFunc
	config      *config.Config
	tracker     *delivery.Tracker
	metrics     *instrumentation.Metrics
	auditLogger *instrumentation.AuditLogger
	logger      *slog.Logger
	mu          sync.RWMutex
	shutdown    bool
}

// Options carries the optional collaborators of a ServerContext.
type Options struct {
	Logger      *slog.Logger
	Metrics     *instrumentation.Metrics
	AuditLogger *instrumentation.AuditLogger

	// Provider replaces the Twilio client built from the configuration.
	Provider delivery.Provider

	// Sleeper replaces the real timer used between status checks.
	Sleeper delivery.Sleeper
}

// NewServerContext wires the Twilio client and delivery tracker for cfg.
func NewServerContext(ctx context.Context, cfg *config.Config, opts Options) (*ServerContext, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	provider := opts.Provider
	if provider == nil {
		client, err := twilio.New(twilio.Config{
			BaseURL:    cfg.APIBaseURL,
			AccountSID: cfg.AccountSID,
			AuthToken:  cfg.AuthToken,
			Timeout:    cfg.HTTPTimeout,
			Logger:     opts.Logger,
			Metrics:    opts.Metrics,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create Twilio client: %w", err)
		}
		provider = client
	}

	trackerCfg := delivery.ConfigFrom(cfg)
	trackerCfg.Sleeper = opts.Sleeper
	trackerCfg.Logger = opts.Logger
	trackerCfg.Metrics = opts.Metrics

	tracker, err := delivery.NewTracker(provider, trackerCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create delivery tracker: %w", err)
	}

	shutdownCtx, cancel := context.WithCancel(ctx)
	return &ServerContext{
		ctx:         shutdownCtx,
		cancel:      cancel,
		config:      cfg,
		tracker:     tracker,
		metrics:     opts.Metrics,
		auditLogger: opts.AuditLogger,
		logger:      opts.Logger,
	}, nil
}

// Context returns the server context. It is cancelled by Shutdown.
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Config returns the immutable startup configuration.
func (sc *ServerContext) Config() *config.Config {
	return sc.config
}

// Tracker returns the delivery tracker.
func (sc *ServerContext) Tracker() *delivery.Tracker {
	return sc.tracker
}

// Metrics returns the metrics recorder, or nil when instrumentation is off.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	return sc.metrics
}

// AuditLogger returns the audit logger, or nil when audit logging is off.
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	return sc.auditLogger
}

// Logger returns the server logger.
func (sc *ServerContext) Logger() *slog.Logger {
	return sc.logger
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}
