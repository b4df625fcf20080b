package cli

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/malbeclabs/mysql-mcp/internal/query"
	"github.com/malbeclabs/mysql-mcp/internal/schema"
)

type staticPool struct {
	db *sql.DB
}

func (p staticPool) Acquire(context.Context) (*sql.DB, error) { return p.db, nil }

func mockOpener(t *testing.T) (Opener, sqlmock.Sqlmock, *bool) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	closed := false
	open := func(_ context.Context, log *slog.Logger) (*Backend, error) {
		executor, err := query.NewExecutor(query.ExecutorConfig{Logger: log, Pool: staticPool{db: db}})
		if err != nil {
			return nil, err
		}
		inspector, err := schema.NewInspector(schema.InspectorConfig{Logger: log, Runner: executor})
		if err != nil {
			return nil, err
		}
		return &Backend{
			Executor:  executor,
			Inspector: inspector,
			Close: func() error {
				closed = true
				return nil
			},
		}, nil
	}
	return open, mock, &closed
}

func execute(t *testing.T, open Opener, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCmd(&out, open)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(t.Context())
	return out.String(), err
}

func TestCLI_Query_Text(t *testing.T) {
	t.Parallel()

	open, mock, closed := mockOpener(t)
	mock.ExpectQuery("SELECT id, name FROM users").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(int64(1), "alice"))

	out, err := execute(t, open, "query", "SELECT id, name FROM users")
	require.NoError(t, err)
	require.Contains(t, out, "MySQL SELECT Query Executed Successfully")
	require.Contains(t, out, "Rows returned: 1")
	require.Contains(t, out, "[1, 'alice']")
	require.True(t, *closed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCLI_Query_Table(t *testing.T) {
	t.Parallel()

	open, mock, _ := mockOpener(t)
	mock.ExpectQuery("SELECT id, name FROM users").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(int64(1), "alice").AddRow(int64(2), nil))

	out, err := execute(t, open, "query", "--output", "table", "SELECT id, name FROM users")
	require.NoError(t, err)
	require.Contains(t, out, "id")
	require.Contains(t, out, "name")
	require.Contains(t, out, "alice")
	require.Contains(t, out, "NULL")
	require.Contains(t, out, "2 row(s)")
}

func TestCLI_Query_Events(t *testing.T) {
	t.Parallel()

	open, mock, _ := mockOpener(t)
	mock.ExpectQuery("SELECT id FROM users").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)).AddRow(int64(2)))

	out, err := execute(t, open, "query", "-o", "events", "SELECT id FROM users")
	require.NoError(t, err)

	var types []string
	for line := range strings.Lines(out) {
		var ev map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &ev))
		types = append(types, ev["event"].(string))
	}
	require.Equal(t, []string{"metadata", "row", "row", "summary"}, types)
}

func TestCLI_Query_Failures(t *testing.T) {
	t.Parallel()

	t.Run("rejected", func(t *testing.T) {
		t.Parallel()
		open, _, _ := mockOpener(t)
		_, err := execute(t, open, "query", "DROP TABLE users")
		require.ErrorContains(t, err, "dangerous pattern")
	})

	t.Run("rejected events", func(t *testing.T) {
		t.Parallel()
		open, _, _ := mockOpener(t)
		out, err := execute(t, open, "query", "-o", "events", "   ")
		require.ErrorContains(t, err, "validation error")
		require.Contains(t, out, `"event":"error"`)
	})

	t.Run("execution error", func(t *testing.T) {
		t.Parallel()
		open, mock, _ := mockOpener(t)
		mock.ExpectQuery("SELECT * FROM missing").WillReturnError(errors.New("table does not exist"))
		out, err := execute(t, open, "query", "SELECT * FROM missing")
		require.ErrorContains(t, err, "table does not exist")
		require.Contains(t, out, "table does not exist")
	})

	t.Run("invalid output", func(t *testing.T) {
		t.Parallel()
		open, _, _ := mockOpener(t)
		_, err := execute(t, open, "query", "-o", "xml", "SELECT 1")
		require.ErrorContains(t, err, "invalid output: xml")
	})

	t.Run("open error", func(t *testing.T) {
		t.Parallel()
		open := func(context.Context, *slog.Logger) (*Backend, error) { return nil, errors.New("no server") }
		_, err := execute(t, open, "query", "SELECT 1")
		require.ErrorContains(t, err, "no server")
	})
}

func TestCLI_Query_Mutation_Table(t *testing.T) {
	t.Parallel()

	open, mock, _ := mockOpener(t)
	mock.ExpectExec("INSERT INTO users (name) VALUES ('bob')").WillReturnResult(sqlmock.NewResult(7, 1))

	out, err := execute(t, open, "query", "-o", "table", "INSERT INTO users (name) VALUES ('bob')")
	require.NoError(t, err)
	require.Contains(t, out, "Affected Rows")
	require.Contains(t, out, "7")
}

func TestCLI_Schema(t *testing.T) {
	t.Parallel()

	open, mock, _ := mockOpener(t)
	mock.ExpectQuery("SHOW DATABASES").
		WillReturnRows(sqlmock.NewRows([]string{"Database"}).AddRow("app").AddRow("mysql"))

	out, err := execute(t, open, "schema")
	require.NoError(t, err)
	require.Equal(t, "Available Databases:\n  • app\n  • mysql\n", out)
}
