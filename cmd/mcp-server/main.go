package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	flag "github.com/spf13/pflag"

	"github.com/malbeclabs/mysql-mcp/internal/logger"
	"github.com/malbeclabs/mysql-mcp/internal/mcp/server"
	"github.com/malbeclabs/mysql-mcp/internal/metrics"
	"github.com/malbeclabs/mysql-mcp/internal/mysql"
	"github.com/malbeclabs/mysql-mcp/internal/query"
	"github.com/malbeclabs/mysql-mcp/internal/schema"
)

var (
	// Set by LDFLAGS
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const (
	defaultListenAddr  = "0.0.0.0:8000"
	defaultMetricsAddr = "0.0.0.0:0"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	verboseFlag := flag.Bool("verbose", false, "enable verbose (debug) logging")
	listenAddrFlag := flag.String("listen-addr", defaultListenAddr, "HTTP server listen address")
	metricsAddrFlag := flag.String("metrics-addr", defaultMetricsAddr, "Address to listen on for prometheus metrics (empty to disable)")
	envFileFlag := flag.String("env-file", "", "Optional .env file to load before reading MYSQL_* variables")
	maxOpenConnsFlag := flag.Int("max-open-conns", 5, "maximum number of open MySQL connections")
	flag.Parse()

	log := logger.New(*verboseFlag)

	if *envFileFlag != "" {
		if err := godotenv.Load(*envFileFlag); err != nil {
			return fmt.Errorf("failed to load env file: %w", err)
		}
	}

	dbConfig, err := mysql.ConfigFromEnv()
	if err != nil {
		return fmt.Errorf("failed to read mysql config: %w", err)
	}
	log.Info("mysql: using connection config", "config", dbConfig.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metricsServerErrCh := make(chan error, 1)
	if *metricsAddrFlag != "" {
		metrics.BuildInfo.WithLabelValues(version, commit, date).Set(1)
		listener, err := net.Listen("tcp", *metricsAddrFlag)
		if err != nil {
			return fmt.Errorf("failed to start prometheus metrics server listener: %w", err)
		}
		log.Info("prometheus metrics server listening", "address", listener.Addr().String())
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		go func() {
			if err := http.Serve(listener, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
				metricsServerErrCh <- err
			}
		}()
	}

	allowedTokens := allowedTokensFromEnv(log)

	pool, err := mysql.NewPool(mysql.PoolConfig{
		Logger:       log,
		Config:       dbConfig,
		MaxOpenConns: *maxOpenConnsFlag,
		Registerer:   prometheus.DefaultRegisterer,
	})
	if err != nil {
		return fmt.Errorf("failed to create pool: %w", err)
	}

	executor, err := query.NewExecutor(query.ExecutorConfig{
		Logger: log,
		Pool:   pool,
	})
	if err != nil {
		return fmt.Errorf("failed to create executor: %w", err)
	}

	inspector, err := schema.NewInspector(schema.InspectorConfig{
		Logger: log,
		Runner: executor,
	})
	if err != nil {
		return fmt.Errorf("failed to create inspector: %w", err)
	}

	srv, err := server.New(server.Config{
		Logger:        log,
		Executor:      executor,
		Inspector:     inspector,
		Pool:          pool,
		Version:       version,
		ListenAddr:    *listenAddrFlag,
		AllowedTokens: allowedTokens,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.Run(ctx)
	}()

	select {
	case err := <-serverErrCh:
		if err != nil {
			log.Error("server: server error causing shutdown", "error", err)
		}
		return err
	case err := <-metricsServerErrCh:
		log.Error("server: metrics server error causing shutdown", "error", err)
		stop()
		<-serverErrCh
		return err
	}
}

// allowedTokensFromEnv reads MCP_ALLOWED_TOKENS (comma-separated). Auth can
// be disabled explicitly with MCP_AUTH_DISABLED=true.
func allowedTokensFromEnv(log *slog.Logger) []string {
	if os.Getenv("MCP_AUTH_DISABLED") == "true" {
		log.Info("mcp server: authentication explicitly disabled")
		return nil
	}
	var tokens []string
	for token := range strings.SplitSeq(os.Getenv("MCP_ALLOWED_TOKENS"), ",") {
		if token = strings.TrimSpace(token); token != "" {
			tokens = append(tokens, token)
		}
	}
	if len(tokens) > 0 {
		log.Info("mcp server: token authentication enabled", "token_count", len(tokens))
	} else {
		log.Info("mcp server: authentication disabled (no tokens configured)")
	}
	return tokens
}
