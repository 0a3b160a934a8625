package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teemow/twilio-sms-mcp/internal/config"
	"github.com/teemow/twilio-sms-mcp/internal/delivery"
	"github.com/teemow/twilio-sms-mcp/internal/server"
)

// SendOptions holds the flags of the send command.
type SendOptions struct {
	To      string
	Message string
	EnvFile string
	Debug   bool
}

func newSendCmd() *cobra.Command {
	var opts SendOptions

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send one SMS and wait for its final status",
		Long: `Send a single SMS through Twilio using the same delivery tracking as the
send_sms MCP tool, then print the final status line.

Example:
  twilio-sms-mcp send --to +15551234567 --message "Hello"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.EnvFile == "" {
				opts.EnvFile = os.Getenv(config.EnvEnvFile)
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			return runSend(ctx, cmd.OutOrStdout(), opts, nil)
		},
	}

	cmd.Flags().StringVar(&opts.To, "to", "", "Recipient phone number in E.164 format (e.g., +1234567890)")
	cmd.Flags().StringVar(&opts.Message, "message", "", "Message body")
	cmd.Flags().StringVar(&opts.EnvFile, "env-file", "", "Path to a .env file with Twilio credentials. Can also use SMS_ENV_FILE env var.")
	cmd.Flags().BoolVar(&opts.Debug, "debug", false, "Enable debug logging")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("message")

	return cmd
}

// runSend sends one message and writes the final text to out. A nil provider
// means the Twilio client built from the loaded configuration.
func runSend(ctx context.Context, out io.Writer, opts SendOptions, provider delivery.Provider) error {
	if opts.Message == "" {
		return errors.New("message must not be empty")
	}

	cfg, err := config.Load(opts.EnvFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := newLogger(cfg.LogLevel, opts.Debug)

	serverContext, err := server.NewServerContext(ctx, cfg, server.Options{
		Logger:   logger,
		Provider: provider,
	})
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		_ = serverContext.Shutdown()
	}()

	result, err := serverContext.Tracker().Send(ctx, delivery.SendRequest{
		To:      opts.To,
		Message: opts.Message,
	})
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(out, result.Text)
	return err
}
