package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/malbeclabs/mysql-mcp/internal/query"
	"github.com/malbeclabs/mysql-mcp/internal/schema"
)

const (
	defaultReadHeaderTimeout = 5 * time.Second
	defaultShutdownTimeout   = 5 * time.Second
	defaultReadyTimeout      = 2 * time.Second
)

// Executor runs one validated statement.
type Executor interface {
	Execute(ctx context.Context, req query.Request) (*query.Result, error)
}

type Inspector interface {
	Inspect(ctx context.Context, req schema.Request) (string, error)
}

// Pool is the part of the connection pool the server needs for readiness
// and shutdown.
type Pool interface {
	Current() *sql.DB
	Close() error
}

type Config struct {
	Logger *slog.Logger

	Executor  Executor
	Inspector Inspector
	Pool      Pool // optional; pinged by /readyz and closed after shutdown

	Version           string
	ListenAddr        string
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
	ReadyTimeout      time.Duration
	AllowedTokens     []string // Bearer tokens allowed for MCP endpoint authentication
}

func (c *Config) Validate() error {
	if c.Logger == nil {
		return fmt.Errorf("logger is required")
	}
	if c.Executor == nil {
		return fmt.Errorf("executor is required")
	}
	if c.Inspector == nil {
		return fmt.Errorf("inspector is required")
	}
	if c.ReadHeaderTimeout == 0 {
		c.ReadHeaderTimeout = defaultReadHeaderTimeout
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = defaultShutdownTimeout
	}
	if c.ReadyTimeout == 0 {
		c.ReadyTimeout = defaultReadyTimeout
	}
	return nil
}
