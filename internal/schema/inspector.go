package schema

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/malbeclabs/mysql-mcp/internal/query"
)

// Runner executes trusted introspection statements.
type Runner interface {
	Run(ctx context.Context, req query.Request) (*query.Result, error)
}

type InspectorConfig struct {
	Logger *slog.Logger
	Runner Runner
}

func (cfg *InspectorConfig) Validate() error {
	if cfg.Logger == nil {
		return fmt.Errorf("logger is required")
	}
	if cfg.Runner == nil {
		return fmt.Errorf("runner is required")
	}
	return nil
}

// Inspector lists databases, lists tables or describes a table depending on
// which names are supplied.
type Inspector struct {
	log *slog.Logger
	cfg InspectorConfig
}

func NewInspector(cfg InspectorConfig) (*Inspector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate inspector config: %w", err)
	}
	return &Inspector{
		log: cfg.Logger,
		cfg: cfg,
	}, nil
}

type Request struct {
	Database string
	Table    string
	// IncludeDataTypes is accepted for compatibility; DESCRIBE output always
	// carries types.
	IncludeDataTypes bool
}

// Inspect returns a text report. Statement failures are rendered into the
// report; only pool errors are returned.
func (i *Inspector) Inspect(ctx context.Context, req Request) (string, error) {
	switch {
	case req.Database == "" && req.Table == "":
		return i.listDatabases(ctx)
	case req.Table == "":
		return i.listTables(ctx, req.Database)
	default:
		return i.describeTable(ctx, req.Database, req.Table)
	}
}

func (i *Inspector) listDatabases(ctx context.Context) (string, error) {
	res, err := i.run(ctx, query.ShowDatabasesStatement(), "")
	if err != nil {
		return "", err
	}
	if !res.Success {
		return "Error listing databases: " + res.Error, nil
	}
	return "Available Databases:\n" + bullets(firstValues(res.Rows)), nil
}

func (i *Inspector) listTables(ctx context.Context, database string) (string, error) {
	res, err := i.run(ctx, query.ShowTablesStatement(database), "")
	if err != nil {
		return "", err
	}
	if !res.Success {
		return "Error listing tables: " + res.Error, nil
	}
	return fmt.Sprintf("Tables in database '%s':\n", database) + bullets(firstValues(res.Rows)), nil
}

func (i *Inspector) describeTable(ctx context.Context, database, table string) (string, error) {
	res, err := i.run(ctx, query.DescribeStatement(database, table), database)
	if err != nil {
		return "", err
	}
	if !res.Success {
		return "Error describing table: " + res.Error, nil
	}
	if len(res.Rows) == 0 {
		return fmt.Sprintf("Table '%s' has no columns or doesn't exist", table), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Schema for table '%s':\n", table)
	for _, row := range res.Rows {
		line, err := describeLine(row)
		if err != nil {
			return "Error describing table: " + err.Error(), nil
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

func (i *Inspector) run(ctx context.Context, sql, database string) (*query.Result, error) {
	i.log.Debug("schema: running introspection statement", "sql", sql)
	req := query.NewRequest(sql)
	req.Database = database
	return i.cfg.Runner.Run(ctx, req)
}

// describeLine renders one DESCRIBE row: field, type, null, key, default,
// extra.
func describeLine(row []query.Value) (string, error) {
	if len(row) != 6 {
		return "", fmt.Errorf("expected 6 fields per column, got %d", len(row))
	}
	field, typ, null, key, def, extra := row[0], row[1], row[2], row[3], row[4], row[5]

	var sb strings.Builder
	fmt.Fprintf(&sb, "  • %s: %s", field.Plain(), typ.Plain())
	if k := textOf(key); k != "" {
		fmt.Fprintf(&sb, " (%s)", k)
	}
	if textOf(null) == "NO" {
		sb.WriteString(" NOT NULL")
	}
	if !def.IsNull() {
		fmt.Fprintf(&sb, " DEFAULT %s", def.Plain())
	}
	if e := textOf(extra); e != "" {
		sb.WriteString(" " + e)
	}
	return sb.String(), nil
}

func textOf(v query.Value) string {
	if v.IsNull() {
		return ""
	}
	return v.Plain()
}

func firstValues(rows [][]query.Value) []string {
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		out = append(out, row[0].Plain())
	}
	return out
}

func bullets(items []string) string {
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = "  • " + item
	}
	return strings.Join(lines, "\n")
}
