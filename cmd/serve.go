package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/twilio-sms-mcp/internal/config"
	"github.com/teemow/twilio-sms-mcp/internal/instrumentation"
	"github.com/teemow/twilio-sms-mcp/internal/logging"
	"github.com/teemow/twilio-sms-mcp/internal/server"
	"github.com/teemow/twilio-sms-mcp/internal/tools/sms_tools"
)

const (
	transportStdio          = "stdio"
	transportStreamableHTTP = "streamable-http"

	defaultMetricsAddr     = ":9090"
	metricsStartupTimeout  = 5 * time.Second
	gracefulShutdownPeriod = 30 * time.Second
)

// MetricsConfig holds configuration for the metrics server
type MetricsConfig struct {
	// Enabled determines whether to start the metrics server (default: true)
	Enabled bool

	// Addr is the address for the metrics server (e.g., ":9090")
	Addr string
}

// ServeConfig collects the serve command flags after environment fallbacks.
type ServeConfig struct {
	Transport string
	HTTPAddr  string
	EnvFile   string
	Debug     bool
	Metrics   MetricsConfig
}

func newServeCmd() *cobra.Command {
	var (
		debugMode      bool
		transport      string
		httpAddr       string
		envFile        string
		metricsEnabled bool
		metricsAddr    string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol (MCP) server exposing the send_sms tool.

Supports multiple transport types:
  - stdio: Standard input/output (default)
  - streamable-http: Streamable HTTP transport

Credentials:
  TWILIO_ACCOUNT_SID and TWILIO_AUTH_TOKEN are required.
  TWILIO_PHONE_NUMBER sets the sender (default: +13022716778).
  Values are read from the environment after loading an optional .env file
  (--env-file or SMS_ENV_FILE).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ServeConfig{
				Transport: transport,
				HTTPAddr:  httpAddr,
				EnvFile:   envFile,
				Debug:     debugMode,
				Metrics: MetricsConfig{
					Enabled: metricsEnabled,
					Addr:    metricsAddr,
				},
			}
			applyServeEnv(cmd, &cfg)
			return runServe(cfg)
		},
	}

	cmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&transport, "transport", transportStdio, "Transport type: stdio or streamable-http")
	cmd.Flags().StringVar(&httpAddr, "http-addr", server.DefaultHTTPAddr, "HTTP server address (for streamable-http transport)")
	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to a .env file with Twilio credentials. Can also use SMS_ENV_FILE env var.")
	cmd.Flags().BoolVar(&metricsEnabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port. Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", defaultMetricsAddr, "Metrics server address. Can also use METRICS_ADDR env var.")

	return cmd
}

// applyServeEnv fills in values from the environment for flags the user did not set.
func applyServeEnv(cmd *cobra.Command, cfg *ServeConfig) {
	if cfg.EnvFile == "" {
		cfg.EnvFile = os.Getenv(config.EnvEnvFile)
	}
	if !cmd.Flags().Changed("metrics-enabled") {
		if v, err := strconv.ParseBool(os.Getenv("METRICS_ENABLED")); err == nil {
			cfg.Metrics.Enabled = v
		}
	}
	if !cmd.Flags().Changed("metrics-addr") {
		if addr := os.Getenv("METRICS_ADDR"); addr != "" {
			cfg.Metrics.Addr = addr
		}
	}
}

func validateTransport(transport string) error {
	switch transport {
	case transportStdio, transportStreamableHTTP:
		return nil
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, streamable-http)", transport)
	}
}

func runServe(opts ServeConfig) error {
	if err := validateTransport(opts.Transport); err != nil {
		return err
	}

	cfg, err := config.Load(opts.EnvFile)
	if err != nil {
		logger := configLogger(nil, opts.Debug)
		var missing *config.MissingCredentialsError
		if errors.As(err, &missing) {
			if partial, ferr := config.FromEnv(); ferr == nil {
				logStartupDiagnostics(logger, partial)
			}
		}
		logger.Error("configuration invalid, refusing to start", logging.Err(err))
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := configLogger(cfg, opts.Debug)
	slog.SetDefault(logger)
	logStartupDiagnostics(logger, cfg)

	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Initialize instrumentation provider
	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(ctx); err != nil {
			logger.Warn("instrumentation shutdown failed", logging.Err(err))
		}
	}()

	// Start metrics server if enabled and not in stdio mode
	var metricsServer *server.MetricsServer
	if opts.Transport != transportStdio && opts.Metrics.Enabled && provider.Enabled() && provider.PrometheusHandler() != nil {
		metricsServer, err = startMetricsServer(opts.Metrics.Addr, provider, logger)
		if err != nil {
			return err
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(ctx); err != nil {
				logger.Warn("metrics server shutdown failed", logging.Err(err))
			}
		}()
	}

	var auditLogger *instrumentation.AuditLogger
	if instrConfig.AuditLogging.Enabled {
		auditLogger = instrumentation.NewAuditLoggerWithConfig(logger.With("component", "audit"), instrConfig.AuditLogging)
	}

	serverContext, err := server.NewServerContext(shutdownCtx, cfg, server.Options{
		Logger:      logger,
		Metrics:     provider.Metrics(),
		AuditLogger: auditLogger,
	})
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			logger.Warn("server context shutdown failed", logging.Err(err))
		}
	}()

	mcpSrv := mcpserver.NewMCPServer("twilio-sms-mcp", version,
		mcpserver.WithToolCapabilities(true),
	)

	if err := registerAllTools(mcpSrv, serverContext); err != nil {
		return err
	}

	switch opts.Transport {
	case transportStdio:
		logger.Info("starting MCP server", slog.String("transport", opts.Transport))
		return runStdioServer(mcpSrv)
	default:
		logger.Info("starting MCP server",
			slog.String("transport", opts.Transport),
			slog.String("addr", opts.HTTPAddr),
		)
		return runStreamableHTTPServer(shutdownCtx, mcpSrv, serverContext, opts.HTTPAddr, logger)
	}
}

// configLogger uses the loaded log level, or LOG_LEVEL from the environment
// when no configuration could be loaded.
func configLogger(cfg *config.Config, debug bool) *slog.Logger {
	if cfg == nil {
		return newLogger(os.Getenv(config.EnvLogLevel), debug)
	}
	return newLogger(cfg.LogLevel, debug)
}

func newLogger(level string, debug bool) *slog.Logger {
	if debug {
		level = "debug"
	}
	return logging.New(level, os.Stderr)
}

// logStartupDiagnostics reports whether credentials are present without
// revealing them.
func logStartupDiagnostics(logger *slog.Logger, cfg *config.Config) {
	logger.Info("twilio configuration",
		slog.String(strings.ToLower(config.EnvAccountSID), logging.SetOrMissing(cfg.AccountSID)),
		slog.String(strings.ToLower(config.EnvAuthToken), logging.SetOrMissing(cfg.AuthToken)),
		slog.String("from_number", logging.MaskPhone(cfg.FromNumber)),
		slog.Int("max_attempts", cfg.MaxAttempts),
		slog.Duration("poll_interval", cfg.PollInterval),
	)
}

func startMetricsServer(addr string, provider *instrumentation.Provider, logger *slog.Logger) (*server.MetricsServer, error) {
	metricsServer, err := server.NewMetricsServer(server.MetricsServerConfig{
		Addr:                    addr,
		InstrumentationProvider: provider,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics server: %w", err)
	}

	// Use ready channel to confirm metrics server started successfully
	metricsReady := make(chan struct{})
	metricsErr := make(chan error, 1)
	go func() {
		if err := metricsServer.StartWithReadySignal(metricsReady); err != nil && !errors.Is(err, http.ErrServerClosed) {
			metricsErr <- err
		}
		close(metricsErr)
	}()

	select {
	case <-metricsReady:
		logger.Info("metrics server started", slog.String("addr", metricsServer.Addr()))
		return metricsServer, nil
	case err := <-metricsErr:
		if err == nil {
			err = errors.New("server exited before becoming ready")
		}
		return nil, fmt.Errorf("metrics server failed to start: %w", err)
	case <-time.After(metricsStartupTimeout):
		return nil, fmt.Errorf("metrics server startup timed out")
	}
}

// registerAllTools registers all MCP tools
func registerAllTools(mcpSrv *mcpserver.MCPServer, sc *server.ServerContext) error {
	if err := sms_tools.RegisterSMSTools(mcpSrv, sc); err != nil {
		return fmt.Errorf("failed to register SMS tools: %w", err)
	}
	return nil
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	err := <-serverDone
	if err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

func runStreamableHTTPServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, sc *server.ServerContext, addr string, logger *slog.Logger) error {
	httpServer, err := server.NewHTTPServer(mcpSrv, sc, addr)
	if err != nil {
		return fmt.Errorf("failed to create HTTP server: %w", err)
	}

	ready := make(chan struct{})
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := httpServer.StartWithReadySignal(ready); err != nil {
			serverDone <- err
		}
	}()

	select {
	case <-ready:
		logger.Info("MCP HTTP server listening",
			slog.String("addr", httpServer.Addr()),
			slog.String("endpoint", server.DefaultMCPEndpoint),
		)
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("server stopped with error: %w", err)
		}
		return nil
	}

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received, stopping HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), gracefulShutdownPeriod)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error during server shutdown: %w", err)
		}
		logger.Info("HTTP server gracefully stopped")
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("server stopped with error: %w", err)
		}
	}

	return nil
}
