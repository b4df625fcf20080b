package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/malbeclabs/mysql-mcp/internal/metrics"
)

const (
	defaultMaxOpenConns    = 5
	defaultMaxIdleConns    = 1
	defaultConnMaxLifetime = 5 * time.Minute
)

// Opener creates a new *sql.DB for the given connection config.
type Opener func(ctx context.Context, cfg Config) (*sql.DB, error)

// OpenDB opens a pool through the go-sql-driver connector.
func OpenDB(_ context.Context, cfg Config) (*sql.DB, error) {
	dc, err := cfg.DriverConfig()
	if err != nil {
		return nil, err
	}
	connector, err := gomysql.NewConnector(dc)
	if err != nil {
		return nil, fmt.Errorf("failed to create connector: %w", err)
	}
	return sql.OpenDB(connector), nil
}

type PoolConfig struct {
	Logger *slog.Logger
	Config Config

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	Opener     Opener
	Registerer prometheus.Registerer // optional; receives pool stats
}

func (cfg *PoolConfig) Validate() error {
	if cfg.Logger == nil {
		return fmt.Errorf("logger is required")
	}
	if err := cfg.Config.Validate(); err != nil {
		return fmt.Errorf("invalid connection config: %w", err)
	}
	if cfg.MaxOpenConns == 0 {
		cfg.MaxOpenConns = defaultMaxOpenConns
	}
	if cfg.MaxIdleConns == 0 {
		cfg.MaxIdleConns = defaultMaxIdleConns
	}
	if cfg.MaxIdleConns > cfg.MaxOpenConns {
		return fmt.Errorf("max idle connections (%d) exceeds max open connections (%d)", cfg.MaxIdleConns, cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime == 0 {
		cfg.ConnMaxLifetime = defaultConnMaxLifetime
	}
	if cfg.Opener == nil {
		cfg.Opener = OpenDB
	}
	return nil
}

// Pool lazily creates a single bounded *sql.DB and hands it out until Close.
type Pool struct {
	log *slog.Logger
	cfg PoolConfig

	mu        sync.Mutex
	db        *sql.DB
	collector prometheus.Collector
}

func NewPool(cfg PoolConfig) (*Pool, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate pool config: %w", err)
	}
	return &Pool{
		log: cfg.Logger,
		cfg: cfg,
	}, nil
}

// Acquire returns the pool, creating and verifying it on first use.
// Concurrent first callers wait for a single creation.
func (p *Pool) Acquire(ctx context.Context) (*sql.DB, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.db != nil {
		return p.db, nil
	}

	db, err := p.cfg.Opener(ctx, p.cfg.Config)
	if err != nil {
		metrics.PoolCreationsTotal.WithLabelValues("error").Inc()
		p.log.Error("mysql: failed to create connection pool", "addr", p.cfg.Config.Addr(), "error", err)
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	db.SetMaxOpenConns(p.cfg.MaxOpenConns)
	db.SetMaxIdleConns(p.cfg.MaxIdleConns)
	db.SetConnMaxLifetime(p.cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		metrics.PoolCreationsTotal.WithLabelValues("error").Inc()
		p.log.Error("mysql: failed to create connection pool", "addr", p.cfg.Config.Addr(), "error", err)
		return nil, fmt.Errorf("failed to connect to mysql at %s: %w", p.cfg.Config.Addr(), err)
	}

	if p.cfg.Registerer != nil {
		collector := collectors.NewDBStatsCollector(db, "mysql")
		if err := p.cfg.Registerer.Register(collector); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				p.log.Warn("mysql: failed to register pool stats collector", "error", err)
			}
		} else {
			p.collector = collector
		}
	}

	p.db = db
	metrics.PoolCreationsTotal.WithLabelValues("success").Inc()
	p.log.Info("mysql: created connection pool",
		"addr", p.cfg.Config.Addr(),
		"database", p.cfg.Config.Database,
		"maxOpenConns", p.cfg.MaxOpenConns,
	)
	return db, nil
}

// Current returns the pool if it has been created, or nil.
func (p *Pool) Current() *sql.DB {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.db
}

// Close closes all connections and forgets the pool. Closing a pool that
// was never created is a no-op.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.db == nil {
		return nil
	}

	if p.collector != nil {
		p.cfg.Registerer.Unregister(p.collector)
		p.collector = nil
	}

	err := p.db.Close()
	p.db = nil
	if err != nil {
		return fmt.Errorf("failed to close connection pool: %w", err)
	}
	p.log.Info("mysql: closed connection pool", "addr", p.cfg.Config.Addr())
	return nil
}
