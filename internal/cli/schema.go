package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/malbeclabs/mysql-mcp/internal/schema"
)

type SchemaCmd struct {
	open Opener
}

func NewSchemaCmd(open Opener) *SchemaCmd {
	return &SchemaCmd{open: open}
}

func (c *SchemaCmd) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "List databases, list tables, or describe a table",
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := cmd.Flags().GetString("database")
			if err != nil {
				return fmt.Errorf("failed to get database flag: %w", err)
			}
			table, err := cmd.Flags().GetString("table")
			if err != nil {
				return fmt.Errorf("failed to get table flag: %w", err)
			}
			types, err := cmd.Flags().GetBool("types")
			if err != nil {
				return fmt.Errorf("failed to get types flag: %w", err)
			}

			return withBackend(cmd, c.open, func(ctx context.Context, b *Backend) error {
				text, err := b.Inspector.Inspect(ctx, schema.Request{
					Database:         database,
					Table:            table,
					IncludeDataTypes: types,
				})
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), text)
				return nil
			})
		},
	}

	cmd.Flags().StringP("database", "d", "", "database to list tables of")
	cmd.Flags().StringP("table", "t", "", "table to describe (requires --database)")
	cmd.Flags().Bool("types", true, "include data types when describing a table")

	return cmd
}
