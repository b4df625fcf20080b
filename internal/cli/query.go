package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/malbeclabs/mysql-mcp/internal/query"
)

const (
	outputText   = "text"
	outputTable  = "table"
	outputEvents = "events"
)

type QueryCmd struct {
	open Opener
}

func NewQueryCmd(open Opener) *QueryCmd {
	return &QueryCmd{open: open}
}

func (c *QueryCmd) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query <sql>",
		Short: "Execute one SQL statement",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := cmd.Flags().GetString("database")
			if err != nil {
				return fmt.Errorf("failed to get database flag: %w", err)
			}
			limit, err := cmd.Flags().GetInt("limit")
			if err != nil {
				return fmt.Errorf("failed to get limit flag: %w", err)
			}
			metadata, err := cmd.Flags().GetBool("metadata")
			if err != nil {
				return fmt.Errorf("failed to get metadata flag: %w", err)
			}
			output, err := cmd.Flags().GetString("output")
			if err != nil {
				return fmt.Errorf("failed to get output flag: %w", err)
			}
			switch output {
			case outputText, outputTable, outputEvents:
			default:
				return fmt.Errorf("invalid output: %s", output)
			}

			req := query.Request{
				Query:         strings.Join(args, " "),
				Database:      database,
				Limit:         limit,
				FetchMetadata: metadata,
			}

			return withBackend(cmd, c.open, func(ctx context.Context, b *Backend) error {
				out := cmd.OutOrStdout()
				if output == outputEvents {
					return writeEvents(out, query.Stream(ctx, b.Executor, req).All())
				}

				res, err := b.Executor.Execute(ctx, req)
				if err != nil {
					return err
				}
				if output == outputTable && res.Success {
					writeTable(out, res)
				} else {
					fmt.Fprintln(out, query.Format(res))
				}
				if !res.Success {
					return errors.New(res.Error)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringP("database", "d", "", "database to switch to before executing")
	cmd.Flags().IntP("limit", "l", query.DefaultLimit, "maximum number of rows fetched for reads")
	cmd.Flags().Bool("metadata", true, "attach column metadata to read results")
	cmd.Flags().StringP("output", "o", outputText, "output format (text, table, events)")

	return cmd
}
