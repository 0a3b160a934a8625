package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the twilio-sms-mcp application
var rootCmd = &cobra.Command{
	Use:   "twilio-sms-mcp",
	Short: "MCP server that sends SMS messages through Twilio",
	Long: `twilio-sms-mcp exposes a single send_sms tool to AI assistants over the
Model Context Protocol. Each call submits one message to Twilio and waits for
its final delivery status before answering.

It can run as:
  - An MCP server for AI assistants (default)
  - A one-shot CLI that sends a single message`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "twilio-sms-mcp version %s\n" .Version}}`)

	// If no subcommand is provided, run the serve command by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newSendCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
}
