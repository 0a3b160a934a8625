package sms_tools

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/twilio-sms-mcp/internal/delivery"
	"github.com/teemow/twilio-sms-mcp/internal/logging"
	"github.com/teemow/twilio-sms-mcp/internal/server"
	"github.com/teemow/twilio-sms-mcp/internal/tools/common"
)

// ToolSendSMS is the name of the SMS tool.
const ToolSendSMS = "send_sms"

const sendSMSDescription = "Send a SINGLE SMS message to a specified phone number. " +
	"IMPORTANT: This function should ONLY be called ONCE per message. " +
	"Do not attempt to resend or retry the same message. " +
	"The function will automatically handle delivery status checking and provide a final result."

// Sender delivers one message and reports the final outcome.
type Sender interface {
	Send(ctx context.Context, req delivery.SendRequest) (*delivery.Result, error)
}

// Gateway maps tool calls onto the delivery tracker.
type Gateway struct {
	sender Sender
	logger *slog.Logger
}

// NewGateway creates a Gateway. A nil logger falls back to slog.Default().
func NewGateway(sender Sender, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		sender: sender,
		logger: logging.WithTool(logger, ToolSendSMS),
	}
}

// SendSMSTool returns the send_sms tool definition.
func SendSMSTool() mcp.Tool {
	return mcp.NewTool(ToolSendSMS,
		mcp.WithDescription(sendSMSDescription),
		mcp.WithString("to",
			mcp.Required(),
			mcp.Description("The phone number to send the message to (E.164 format, e.g., +1234567890)"),
		),
		mcp.WithString("message",
			mcp.Required(),
			mcp.Description("The message content to send"),
		),
	)
}

// ListTools returns every tool the gateway serves.
func (g *Gateway) ListTools() []mcp.Tool {
	return []mcp.Tool{SendSMSTool()}
}

// CallTool runs the named tool with args. A nil args map is rejected before
// the tool name is considered.
func (g *Gateway) CallTool(ctx context.Context, name string, args map[string]interface{}) (*mcp.CallToolResult, error) {
	res, err := g.call(ctx, name, args)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(res.Text), nil
}

// Handle is the mcp-go handler for send_sms.
func (g *Gateway) Handle(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := g.call(ctx, request.Params.Name, request.GetArguments())
	if err != nil {
		return nil, err
	}
	if inv := common.InvocationFromContext(ctx); inv != nil {
		inv.WithDelivery(string(res.Handle), string(res.Outcome))
	}
	return mcp.NewToolResultText(res.Text), nil
}

func (g *Gateway) call(ctx context.Context, name string, args map[string]interface{}) (*delivery.Result, error) {
	if args == nil {
		g.logger.Warn("tool called without arguments", slog.String("requested_tool", name))
		return nil, &MissingArgumentsError{Tool: name}
	}
	if name != ToolSendSMS {
		g.logger.Warn("unknown tool requested", slog.String("requested_tool", name))
		return nil, &UnknownToolError{Name: name}
	}

	to, _ := common.StringArg(args, "to")
	message, ok := common.StringArg(args, "message")
	if !ok {
		return nil, &InvalidArgumentError{Tool: name, Argument: "message"}
	}

	g.logger.Info("send_sms invoked", logging.Recipient(to), slog.Int("body_length", len(message)))

	res, err := g.sender.Send(ctx, delivery.SendRequest{To: to, Message: message})
	if err != nil {
		g.logger.Warn("send_sms failed", logging.Recipient(to), logging.Err(err))
		return nil, err
	}

	g.logger.Info("send_sms finished",
		logging.Recipient(to),
		logging.MessageSID(string(res.Handle)),
		slog.String("outcome", string(res.Outcome)),
	)
	return res, nil
}

// RegisterSMSTools registers the SMS tools with the MCP server.
func RegisterSMSTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	if sc == nil || sc.Tracker() == nil {
		return fmt.Errorf("server context with a delivery tracker is required")
	}

	gateway := NewGateway(sc.Tracker(), sc.Logger())
	for _, tool := range gateway.ListTools() {
		s.AddTool(tool, common.InstrumentedToolHandler(tool.Name, sc, gateway.Handle))
	}
	return nil
}
