package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/malbeclabs/mysql-mcp/internal/logger"
	"github.com/malbeclabs/mysql-mcp/internal/mysql"
	"github.com/malbeclabs/mysql-mcp/internal/query"
	"github.com/malbeclabs/mysql-mcp/internal/schema"
)

type ExitCode int

const (
	exitCodeSuccess = 0
	exitCodeError   = 1
)

// Backend is what the subcommands run against.
type Backend struct {
	Executor  *query.Executor
	Inspector *schema.Inspector
	Close     func() error
}

// Opener builds a Backend. The default connects with MYSQL_* settings.
type Opener func(ctx context.Context, log *slog.Logger) (*Backend, error)

func Run() ExitCode {
	root := NewRootCmd(os.Stdout, OpenBackend)
	if err := root.Execute(); err != nil {
		return exitCodeError
	}
	return exitCodeSuccess
}

func NewRootCmd(out io.Writer, open Opener) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "mysql-cli",
		Short:         "Run queries and inspect schemas on a MySQL server.",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cmd.Help(); err != nil {
				return fmt.Errorf("failed to show help: %w", err)
			}
			return nil
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			envFile, err := cmd.Flags().GetString("env-file")
			if err != nil {
				return fmt.Errorf("failed to get env-file flag: %w", err)
			}
			if envFile == "" {
				return nil
			}
			if err := godotenv.Load(envFile); err != nil {
				return fmt.Errorf("failed to load env file: %w", err)
			}
			return nil
		},
	}
	rootCmd.SetOut(out)

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "set debug logging level")
	rootCmd.PersistentFlags().String("env-file", "", "optional .env file to load before reading MYSQL_* variables")

	rootCmd.AddCommand(
		NewQueryCmd(open).Command(),
		NewSchemaCmd(open).Command(),
	)
	return rootCmd
}

// OpenBackend connects to MySQL using the environment configuration.
func OpenBackend(_ context.Context, log *slog.Logger) (*Backend, error) {
	cfg, err := mysql.ConfigFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to read mysql config: %w", err)
	}
	pool, err := mysql.NewPool(mysql.PoolConfig{
		Logger: log,
		Config: cfg,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	executor, err := query.NewExecutor(query.ExecutorConfig{Logger: log, Pool: pool})
	if err != nil {
		return nil, fmt.Errorf("failed to create executor: %w", err)
	}
	inspector, err := schema.NewInspector(schema.InspectorConfig{Logger: log, Runner: executor})
	if err != nil {
		return nil, fmt.Errorf("failed to create inspector: %w", err)
	}
	return &Backend{Executor: executor, Inspector: inspector, Close: pool.Close}, nil
}

// withBackend opens the backend for a subcommand and closes it afterwards.
func withBackend(cmd *cobra.Command, open Opener, fn func(ctx context.Context, b *Backend) error) error {
	verbose, err := cmd.Root().PersistentFlags().GetBool("verbose")
	if err != nil {
		return fmt.Errorf("failed to get verbose flag: %w", err)
	}
	log := logger.NewWithWriter(cmd.ErrOrStderr(), verbose)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	b, err := open(ctx, log)
	if err != nil {
		return err
	}
	defer func() {
		if b.Close == nil {
			return
		}
		if err := b.Close(); err != nil {
			log.Warn("failed to close backend", "error", err)
		}
	}()
	return fn(ctx, b)
}
