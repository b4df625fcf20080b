package server

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/malbeclabs/mysql-mcp/internal/schema"
)

const SchemaToolName = "mysql_schema"

type SchemaInput struct {
	Database         string `json:"database,omitempty" jsonschema:"Database name (optional)"`
	Table            string `json:"table,omitempty" jsonschema:"Table name (optional)"`
	IncludeDataTypes bool   `json:"include_data_types,omitempty" jsonschema:"Include column data types"`
}

func schemaInputSchema() (*jsonschema.Schema, error) {
	s, err := jsonschema.For[SchemaInput](nil)
	if err != nil {
		return nil, err
	}
	s.Properties["include_data_types"].Default = json.RawMessage("true")
	return s, nil
}

func (s *Server) registerSchemaTool() error {
	input, err := schemaInputSchema()
	if err != nil {
		return fmt.Errorf("failed to create schema input schema: %w", err)
	}

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name: SchemaToolName,
		Description: "Inspect MySQL schema. With no arguments lists databases; with a database lists its tables; " +
			"with a table describes its columns.",
		InputSchema: input,
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in SchemaInput) (*mcp.CallToolResult, any, error) {
		s.log.Debug("mcp/tool: handling schema", "database", in.Database, "table", in.Table)
		return s.dispatch(ctx, SchemaToolName, func(ctx context.Context) (string, error) {
			return s.cfg.Inspector.Inspect(ctx, schema.Request{
				Database:         in.Database,
				Table:            in.Table,
				IncludeDataTypes: in.IncludeDataTypes,
			})
		}), nil, nil
	})
	return nil
}
