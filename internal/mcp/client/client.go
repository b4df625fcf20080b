package client

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	defaultRequestTimeout = 120 * time.Second
)

var (
	mcpClientImplementation = &mcp.Implementation{
		Name:    "mysql-mcp-client",
		Version: "1.0.0",
	}
)

type Config struct {
	Logger *slog.Logger

	Endpoint       string
	RequestTimeout time.Duration
	Token          string // Optional Bearer token for authentication

	// OnProgress, when set, receives the message of every progress
	// notification and makes tool calls request progress.
	OnProgress func(message string)

	// Transport overrides the streamable HTTP transport, for tests.
	Transport func() mcp.Transport
}

func (c *Config) Validate() error {
	if c.Logger == nil {
		return fmt.Errorf("logger is required")
	}
	if c.Endpoint == "" && c.Transport == nil {
		return fmt.Errorf("endpoint is required")
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = defaultRequestTimeout
	}
	return nil
}

type Client struct {
	log       *slog.Logger
	cfg       *Config
	session   *mcp.ClientSession
	sessionMu sync.RWMutex // protects session
	mcpClient *mcp.Client
	calls     atomic.Int64
}

func New(ctx context.Context, cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := &Client{
		log: cfg.Logger,
		cfg: &cfg,
	}

	opts := &mcp.ClientOptions{}
	if cfg.OnProgress != nil {
		opts.ProgressNotificationHandler = func(_ context.Context, req *mcp.ProgressNotificationClientRequest) {
			cfg.OnProgress(req.Params.Message)
		}
	}
	client.mcpClient = mcp.NewClient(mcpClientImplementation, opts)

	if err := client.connect(ctx); err != nil {
		return nil, err
	}
	return client, nil
}

func (c *Client) transport() mcp.Transport {
	if c.cfg.Transport != nil {
		return c.cfg.Transport()
	}

	httpClient := &http.Client{Timeout: c.cfg.RequestTimeout}
	if c.cfg.Token != "" {
		httpClient.Transport = &tokenTransport{
			base:  http.DefaultTransport,
			token: c.cfg.Token,
		}
	}
	return &mcp.StreamableClientTransport{
		Endpoint:   c.cfg.Endpoint,
		HTTPClient: httpClient,
	}
}

// connect establishes a new connection to the MCP server
func (c *Client) connect(ctx context.Context) error {
	session, err := c.mcpClient.Connect(ctx, c.transport(), nil)
	if err != nil {
		return fmt.Errorf("failed to connect to MCP server: %w", err)
	}

	c.sessionMu.Lock()
	if c.session != nil {
		c.session.Close()
	}
	c.session = session
	c.sessionMu.Unlock()

	c.log.Info("mcp/client: connected to server", "endpoint", c.cfg.Endpoint)
	return nil
}

func (c *Client) reconnect(ctx context.Context) error {
	c.log.Warn("mcp/client: attempting to reconnect")
	c.sessionMu.Lock()
	if c.session != nil {
		c.session.Close()
		c.session = nil
	}
	c.sessionMu.Unlock()

	return c.connect(ctx)
}

func (c *Client) currentSession() *mcp.ClientSession {
	c.sessionMu.RLock()
	defer c.sessionMu.RUnlock()
	return c.session
}

// isConnectionError checks if an error is a connection error that warrants reconnection
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "connection closed") ||
		strings.Contains(errStr, "EOF") ||
		strings.Contains(errStr, "client is closing") ||
		strings.Contains(errStr, "broken pipe") ||
		strings.Contains(errStr, "connection reset")
}

// withSession runs fn on the current session. A dropped connection gets one
// reconnect and one more attempt; there is no retry loop.
func (c *Client) withSession(ctx context.Context, fn func(*mcp.ClientSession) error) error {
	session := c.currentSession()
	if session == nil {
		if err := c.reconnect(ctx); err != nil {
			return fmt.Errorf("session not connected and reconnect failed: %w", err)
		}
		session = c.currentSession()
	}

	err := fn(session)
	if err == nil || !isConnectionError(err) {
		return err
	}

	c.log.Warn("mcp/client: connection error, attempting reconnect", "error", err)
	if reconnectErr := c.reconnect(ctx); reconnectErr != nil {
		return fmt.Errorf("failed to reconnect: %w (original error: %w)", reconnectErr, err)
	}
	if err := fn(c.currentSession()); err != nil {
		return fmt.Errorf("failed after reconnect: %w", err)
	}
	return nil
}

type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	InputSchema map[string]any `json:"inputSchema,omitempty"`
}

func (c *Client) ListTools(ctx context.Context) ([]Tool, error) {
	c.log.Debug("mcp/client: listing available tools")

	var result *mcp.ListToolsResult
	err := c.withSession(ctx, func(session *mcp.ClientSession) error {
		var err error
		result, err = session.ListTools(ctx, &mcp.ListToolsParams{})
		return err
	})
	if err != nil {
		return nil, err
	}

	tools := make([]Tool, 0, len(result.Tools))
	for _, t := range result.Tools {
		tools = append(tools, Tool{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: schemaMap(t.InputSchema),
		})
	}

	c.log.Debug("mcp/client: found tools", "count", len(tools))
	return tools, nil
}

// CallToolText calls a tool and joins its text content. The bool reports
// whether the server flagged the result as an error.
func (c *Client) CallToolText(ctx context.Context, name string, args map[string]any) (string, bool, error) {
	c.log.Debug("mcp/client: calling tool", "name", name)

	params := &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	}
	if c.cfg.OnProgress != nil {
		params.SetProgressToken(fmt.Sprintf("call-%d", c.calls.Add(1)))
	}

	var result *mcp.CallToolResult
	err := c.withSession(ctx, func(session *mcp.ClientSession) error {
		var err error
		result, err = session.CallTool(ctx, params)
		return err
	})
	if err != nil {
		return "", true, fmt.Errorf("failed to call tool: %w", err)
	}

	var textParts []string
	for _, content := range result.Content {
		if textContent, ok := content.(*mcp.TextContent); ok {
			textParts = append(textParts, textContent.Text)
		}
	}
	str := strings.Join(textParts, "\n")

	if result.IsError {
		c.log.Warn("mcp/client: tool returned error result", "error", str)
	} else {
		c.log.Debug("mcp/client: called tool", "chars", len(str))
	}
	return str, result.IsError, nil
}

func (c *Client) Close() error {
	c.sessionMu.Lock()
	defer c.sessionMu.Unlock()
	if c.session != nil {
		return c.session.Close()
	}
	return nil
}

// tokenTransport wraps an http.RoundTripper to add Authorization header
type tokenTransport struct {
	base  http.RoundTripper
	token string
}

func (t *tokenTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("Authorization", "Bearer "+t.token)
	return t.base.RoundTrip(req)
}
