package server

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/malbeclabs/mysql-mcp/internal/query"
)

const QueryToolName = "mysql_query"

type QueryInput struct {
	Query         string `json:"query" jsonschema:"SQL query to execute"`
	Database      string `json:"database,omitempty" jsonschema:"Database name (optional)"`
	Limit         int    `json:"limit,omitempty" jsonschema:"Maximum number of rows to return (for SELECT queries)"`
	FetchMetadata bool   `json:"fetch_metadata,omitempty" jsonschema:"Include column metadata in results"`
}

func queryInputSchema() (*jsonschema.Schema, error) {
	schema, err := jsonschema.For[QueryInput](nil)
	if err != nil {
		return nil, err
	}
	schema.Properties["limit"].Default = json.RawMessage(fmt.Sprint(query.DefaultLimit))
	schema.Properties["fetch_metadata"].Default = json.RawMessage("true")
	return schema, nil
}

func (s *Server) registerQueryTool() error {
	input, err := queryInputSchema()
	if err != nil {
		return fmt.Errorf("failed to create query input schema: %w", err)
	}

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name: QueryToolName,
		Description: "Execute a MySQL query and return a text report. Supports SELECT, INSERT, UPDATE, DDL and " +
			"SHOW/DESCRIBE statements. Statements containing destructive patterns (DROP TABLE, TRUNCATE TABLE, " +
			"DELETE FROM, ...) are rejected. When a progress token is supplied, metadata, row and summary events " +
			"are also delivered as progress notifications.",
		InputSchema: input,
	}, func(ctx context.Context, req *mcp.CallToolRequest, in QueryInput) (*mcp.CallToolResult, any, error) {
		s.log.Debug("mcp/tool: handling query", "query", in.Query, "database", in.Database)
		return s.dispatch(ctx, QueryToolName, func(ctx context.Context) (string, error) {
			return s.handleQuery(ctx, req, in)
		}), nil, nil
	})
	return nil
}

func (s *Server) handleQuery(ctx context.Context, req *mcp.CallToolRequest, in QueryInput) (string, error) {
	qreq := query.Request{
		Query:         in.Query,
		Database:      in.Database,
		Limit:         in.Limit,
		FetchMetadata: in.FetchMetadata,
	}

	progress := newProgressSink(s, req)

	res, err := s.cfg.Executor.Execute(ctx, qreq)
	if err != nil {
		progress.send(ctx, query.ErrorEventFor(err))
		return "", err
	}

	for ev := range query.Events(res) {
		progress.send(ctx, ev)
	}
	return query.Format(res), nil
}

// progressSink forwards stream events as progress notifications when the
// caller asked for progress.
type progressSink struct {
	s     *Server
	req   *mcp.CallToolRequest
	token any
	count float64
}

func newProgressSink(s *Server, req *mcp.CallToolRequest) *progressSink {
	p := &progressSink{s: s, req: req}
	if req != nil && req.Params != nil && req.Session != nil {
		p.token = req.Params.GetProgressToken()
	}
	return p
}

func (p *progressSink) send(ctx context.Context, ev query.Event) {
	if p.token == nil {
		return
	}
	msg, err := json.Marshal(ev)
	if err != nil {
		p.s.log.Warn("mcp/tool: failed to encode stream event", "event", ev.Type, "error", err)
		return
	}
	p.count++
	if err := p.req.Session.NotifyProgress(ctx, &mcp.ProgressNotificationParams{
		ProgressToken: p.token,
		Progress:      p.count,
		Message:       string(msg),
	}); err != nil {
		p.s.log.Warn("mcp/tool: failed to send progress notification", "event", ev.Type, "error", err)
	}
}
