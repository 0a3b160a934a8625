package twilio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/teemow/twilio-sms-mcp/internal/instrumentation"
	"github.com/teemow/twilio-sms-mcp/internal/logging"
)

const (
	defaultBaseURL   = "https://api.twilio.com/2010-04-01"
	defaultUserAgent = "twilio-sms-mcp"
	defaultTimeout   = 10 * time.Second

	// maxResponseBytes caps how much of a response body is read.
	maxResponseBytes = 1 << 20
)

// Config controls how the Twilio client behaves.
type Config struct {
	BaseURL    string
	AccountSID string
	AuthToken  string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
	UserAgent  string

	// Metrics records provider operation counts and latencies (optional)
	Metrics *instrumentation.Metrics
}

// Client talks to the Twilio Messaging REST API with basic auth.
type Client struct {
	accountSID string
	authToken  string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	userAgent  string
	metrics    *instrumentation.Metrics
}

// New creates a configured Client with sane defaults.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.AccountSID) == "" {
		return nil, errors.New("twilio: account SID is required")
	}
	if strings.TrimSpace(cfg.AuthToken) == "" {
		return nil, errors.New("twilio: auth token is required")
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &Client{
		accountSID: cfg.AccountSID,
		authToken:  cfg.AuthToken,
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
		userAgent:  userAgent,
		metrics:    cfg.Metrics,
	}, nil
}

// AccountSID returns the account this client is bound to
func (c *Client) AccountSID() string {
	return c.accountSID
}

// CreateMessage submits a single outbound message. It is never retried.
func (c *Client) CreateMessage(ctx context.Context, params MessageParams) (*Message, error) {
	if params.To == "" {
		return nil, errors.New("twilio: to is required")
	}
	if params.From == "" {
		return nil, errors.New("twilio: from is required")
	}

	form := url.Values{}
	form.Set("To", params.To)
	form.Set("From", params.From)
	form.Set("Body", params.Body)

	path := fmt.Sprintf("/Accounts/%s/Messages.json", url.PathEscape(c.accountSID))

	ctx, span := instrumentation.StartProviderSpan(ctx, instrumentation.OperationCreate,
		attribute.String(instrumentation.SpanAttrRecipient, logging.MaskPhone(params.To)))
	defer span.End()

	start := time.Now()
	msg, err := c.do(ctx, http.MethodPost, path, form)
	c.record(ctx, instrumentation.OperationCreate, err, time.Since(start))
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return nil, err
	}

	span.SetAttributes(
		attribute.String(instrumentation.SpanAttrMessageSID, msg.SID),
		attribute.String(instrumentation.SpanAttrDeliveryStatus, msg.Status),
	)
	instrumentation.SetSpanSuccess(span)
	return msg, nil
}

// FetchMessage returns the current state of a previously created message.
func (c *Client) FetchMessage(ctx context.Context, sid string) (*Message, error) {
	if sid == "" {
		return nil, errors.New("twilio: message SID is required")
	}

	path := fmt.Sprintf("/Accounts/%s/Messages/%s.json", url.PathEscape(c.accountSID), url.PathEscape(sid))

	ctx, span := instrumentation.StartProviderSpan(ctx, instrumentation.OperationFetch,
		attribute.String(instrumentation.SpanAttrMessageSID, sid))
	defer span.End()

	start := time.Now()
	msg, err := c.do(ctx, http.MethodGet, path, nil)
	c.record(ctx, instrumentation.OperationFetch, err, time.Since(start))
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return nil, err
	}

	span.SetAttributes(attribute.String(instrumentation.SpanAttrDeliveryStatus, msg.Status))
	instrumentation.SetSpanSuccess(span)
	return msg, nil
}

// do performs one HTTP round trip and decodes a Message or an *APIError.
func (c *Client) do(ctx context.Context, method, path string, form url.Values) (*Message, error) {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("twilio: build request: %w", err)
	}
	req.SetBasicAuth(c.accountSID, c.authToken)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("twilio: http error: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("twilio: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := decodeAPIError(resp.StatusCode, data)
		c.logger.Debug("twilio request failed",
			"method", method,
			"status_code", resp.StatusCode,
			logging.Err(apiErr))
		return nil, apiErr
	}

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("twilio: decode response: %w", err)
	}
	if msg.SID == "" {
		return nil, errors.New("twilio: response did not include a message SID")
	}
	return &msg, nil
}

func (c *Client) record(ctx context.Context, operation string, err error, d time.Duration) {
	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
	}
	c.metrics.RecordProviderOperation(ctx, operation, status, d)
}

func decodeAPIError(status int, body []byte) *APIError {
	trimmed := strings.TrimSpace(string(body))
	apiErr := &APIError{StatusCode: status}
	if trimmed == "" {
		return apiErr
	}
	if err := json.Unmarshal([]byte(trimmed), apiErr); err != nil || apiErr.Message == "" {
		apiErr.Message = trimmed
	}
	apiErr.StatusCode = status
	return apiErr
}
