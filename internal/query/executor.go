package query

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/malbeclabs/mysql-mcp/internal/metrics"
)

// Pool hands out the shared connection pool, creating it on first use.
type Pool interface {
	Acquire(ctx context.Context) (*sql.DB, error)
}

// Runner executes statements and returns normalized results.
type Runner interface {
	Execute(ctx context.Context, req Request) (*Result, error)
}

type ExecutorConfig struct {
	Logger *slog.Logger
	Pool   Pool
	Clock  clockwork.Clock
}

func (cfg *ExecutorConfig) Validate() error {
	if cfg.Logger == nil {
		return fmt.Errorf("logger is required")
	}
	if cfg.Pool == nil {
		return fmt.Errorf("pool is required")
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	return nil
}

// Executor runs one statement per call on a connection borrowed from the
// pool. It holds no state across calls.
type Executor struct {
	log *slog.Logger
	cfg ExecutorConfig
}

func NewExecutor(cfg ExecutorConfig) (*Executor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate executor config: %w", err)
	}
	return &Executor{
		log: cfg.Logger,
		cfg: cfg,
	}, nil
}

// Execute validates the request and runs it. Validation and pool errors are
// returned; statement failures come back as a failure-shaped Result.
func (e *Executor) Execute(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		metrics.QueryExecutionsTotal.WithLabelValues(string(Classify(req.Query)), "rejected").Inc()
		e.log.Warn("query: rejected statement", "query", req.Query, "error", err)
		return nil, err
	}
	return e.Run(ctx, req)
}

// Run executes the request without the dangerous-pattern check. It is meant
// for statements built from the introspection helpers.
func (e *Executor) Run(ctx context.Context, req Request) (*Result, error) {
	if req.Limit <= 0 {
		req.Limit = DefaultLimit
	}

	db, err := e.cfg.Pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	start := e.cfg.Clock.Now()
	stmtType := Classify(req.Query)
	res := &Result{
		Query:     req.Query,
		Timestamp: start,
	}

	execErr := e.run(ctx, db, req, stmtType, res)
	res.Duration = e.cfg.Clock.Since(start)

	metrics.QueryDuration.WithLabelValues(string(stmtType)).Observe(res.Duration.Seconds())
	if execErr != nil {
		metrics.QueryExecutionsTotal.WithLabelValues(string(stmtType), "error").Inc()
		e.log.Warn("query: statement failed", "query", req.Query, "database", req.Database, "error", execErr)
		return &Result{
			Query:         req.Query,
			StatementType: stmtType,
			Success:       false,
			Timestamp:     start,
			Duration:      res.Duration,
			Error:         execErr.Error(),
			ErrorKind:     KindOf(execErr),
		}, nil
	}

	metrics.QueryExecutionsTotal.WithLabelValues(string(stmtType), "success").Inc()
	e.log.Debug("query: executed statement", "query", req.Query, "type", stmtType, "rows", res.RowCount, "duration", res.Duration)
	return res, nil
}

func (e *Executor) run(ctx context.Context, db *sql.DB, req Request, stmtType StatementType, res *Result) error {
	conn, err := db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to get connection: %w", err)
	}
	switched := false
	defer func() {
		if switched {
			// The session default database changed; drop the connection
			// rather than return it to the pool.
			_ = conn.Raw(func(any) error { return driver.ErrBadConn })
		}
		_ = conn.Close()
	}()

	if req.Database != "" {
		switched = true
		if _, err := conn.ExecContext(ctx, UseStatement(req.Database)); err != nil {
			return err
		}
	}

	switch stmtType {
	case StatementMutation:
		result, err := conn.ExecContext(ctx, req.Query)
		if err != nil {
			return err
		}
		fillMutation(result, res)
	case StatementDefinition:
		if _, err := conn.ExecContext(ctx, req.Query); err != nil {
			return err
		}
		res.DDLExecuted = true
		res.Message = DDLExecutedMessage
	default:
		rows, err := conn.QueryContext(ctx, req.Query)
		if err != nil {
			return err
		}
		defer rows.Close()

		if stmtType == StatementRead {
			err = fillRead(rows, req, res)
		} else {
			err = fillOther(rows, req, res)
		}
		if err != nil {
			return err
		}
	}

	res.Keyword = Keyword(req.Query)
	res.StatementType = stmtType
	res.Success = true
	return nil
}

func fillMutation(result sql.Result, res *Result) {
	if n, err := result.RowsAffected(); err == nil {
		res.AffectedRows = n
	}
	if id, err := result.LastInsertId(); err == nil && id != 0 {
		res.LastInsertID = &id
	}
}

func fillRead(rows *sql.Rows, req Request, res *Result) error {
	types, err := rows.ColumnTypes()
	if err != nil {
		return fmt.Errorf("failed to get column types: %w", err)
	}

	out, err := scanRows(rows, types, req.Limit)
	if err != nil {
		return err
	}
	res.Rows = out
	res.RowCount = len(out)
	res.Limited = res.RowCount > 0 && res.RowCount == req.Limit

	if req.FetchMetadata {
		res.Columns = make([]Column, len(types))
		for i, ct := range types {
			res.Columns[i] = columnFromType(ct)
		}
	}
	return nil
}

// fillOther reads every row; the limit is not applied to statements outside
// the read category.
func fillOther(rows *sql.Rows, req Request, res *Result) error {
	types, err := rows.ColumnTypes()
	if err != nil {
		return fmt.Errorf("failed to get column types: %w", err)
	}

	out, err := scanRows(rows, types, 0)
	if err != nil {
		return err
	}
	res.Rows = out
	res.RowCount = len(out)

	if req.FetchMetadata {
		res.Columns = make([]Column, len(types))
		for i, ct := range types {
			res.Columns[i] = Column{Name: ct.Name()}
		}
	}
	return nil
}

// scanRows reads up to limit rows, or all rows when limit is zero.
func scanRows(rows *sql.Rows, types []*sql.ColumnType, limit int) ([][]Value, error) {
	out := make([][]Value, 0)
	for (limit == 0 || len(out) < limit) && rows.Next() {
		values := make([]any, len(types))
		valuePtrs := make([]any, len(types))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make([]Value, len(types))
		for i, v := range values {
			row[i] = ValueOf(v, types[i].DatabaseTypeName())
		}
		out = append(out, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return out, nil
}

func columnFromType(ct *sql.ColumnType) Column {
	col := Column{
		Name: ct.Name(),
		Type: ct.DatabaseTypeName(),
	}
	if length, ok := ct.Length(); ok {
		col.InternalSize = &length
	}
	if precision, scale, ok := ct.DecimalSize(); ok {
		col.Precision = &precision
		col.Scale = &scale
	}
	if nullable, ok := ct.Nullable(); ok {
		col.Nullable = &nullable
	}
	return col
}
