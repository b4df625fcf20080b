package query

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func int64Ptr(v int64) *int64 { return &v }

func TestQuery_Format(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		res  *Result
		want string
	}{
		{
			name: "failure",
			res: &Result{
				Query:     "SELEC 1",
				Error:     "Error 1064 (42000): syntax",
				ErrorKind: ErrorKindSyntax,
			},
			want: "MySQL Error: Error 1064 (42000): syntax\nQuery: SELEC 1",
		},
		{
			name: "read limited with columns",
			res: &Result{
				Query:         "SELECT id, name FROM users",
				Keyword:       "SELECT",
				StatementType: StatementRead,
				Success:       true,
				Rows:          [][]Value{{Int(1), Text("a")}, {Int(2), Text("b")}},
				RowCount:      2,
				Limited:       true,
				Columns:       []Column{{Name: "id"}, {Name: "name"}},
			},
			want: "MySQL SELECT Query Executed Successfully\n" +
				"Query: SELECT id, name FROM users\n" +
				"Rows returned: 2 (limited)\n" +
				"Columns: id, name\n" +
				"\nData:\n" +
				"  Row 1: [1, 'a']\n" +
				"  Row 2: [2, 'b']\n",
		},
		{
			name: "read more than five rows",
			res: &Result{
				Query:         "select n from t",
				Keyword:       "SELECT",
				StatementType: StatementRead,
				Success:       true,
				Rows:          [][]Value{{Int(1)}, {Int(2)}, {Int(3)}, {Int(4)}, {Int(5)}, {Int(6)}, {Int(7)}},
				RowCount:      7,
			},
			want: "MySQL SELECT Query Executed Successfully\n" +
				"Query: select n from t\n" +
				"Rows returned: 7\n" +
				"\nData:\n" +
				"  Row 1: [1]\n" +
				"  Row 2: [2]\n" +
				"  Row 3: [3]\n" +
				"  Row 4: [4]\n" +
				"  Row 5: [5]\n" +
				"  ... and 2 more rows\n",
		},
		{
			name: "read no rows",
			res: &Result{
				Query:         "SELECT * FROM empty",
				Keyword:       "SELECT",
				StatementType: StatementRead,
				Success:       true,
			},
			want: "MySQL SELECT Query Executed Successfully\n" +
				"Query: SELECT * FROM empty\n" +
				"Rows returned: 0\n",
		},
		{
			name: "insert with id",
			res: &Result{
				Query:         "INSERT INTO t VALUES (1)",
				Keyword:       "INSERT",
				StatementType: StatementMutation,
				Success:       true,
				AffectedRows:  1,
				LastInsertID:  int64Ptr(9),
			},
			want: "MySQL INSERT Query Executed Successfully\n" +
				"Query: INSERT INTO t VALUES (1)\n" +
				"Affected rows: 1\n" +
				"Last insert ID: 9\n",
		},
		{
			name: "update with zero id",
			res: &Result{
				Query:         "UPDATE t SET a = 1",
				Keyword:       "UPDATE",
				StatementType: StatementMutation,
				Success:       true,
				AffectedRows:  4,
				LastInsertID:  int64Ptr(0),
			},
			want: "MySQL UPDATE Query Executed Successfully\n" +
				"Query: UPDATE t SET a = 1\n" +
				"Affected rows: 4\n",
		},
		{
			name: "definition",
			res: &Result{
				Query:         "CREATE TABLE t (id INT)",
				Keyword:       "CREATE",
				StatementType: StatementDefinition,
				Success:       true,
				DDLExecuted:   true,
				Message:       DDLExecutedMessage,
			},
			want: "MySQL CREATE Query Executed Successfully\n" +
				"Query: CREATE TABLE t (id INT)\n" +
				"DDL statement executed successfully\n",
		},
		{
			name: "other",
			res: &Result{
				Query:         "SHOW DATABASES",
				Keyword:       "SHOW",
				StatementType: StatementOther,
				Success:       true,
				Rows:          [][]Value{{Text("app_db")}, {Text("test_db")}},
				RowCount:      2,
			},
			want: "MySQL SHOW Query Executed Successfully\n" +
				"Query: SHOW DATABASES\n" +
				"Rows returned: 2\n" +
				"Results:\n" +
				"  1. ['app_db']\n" +
				"  2. ['test_db']\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Format(tt.res)
			require.Equal(t, tt.want, got)
			require.Equal(t, got, Format(tt.res))
		})
	}
}

func TestQuery_Format_OtherCapsAtTenRows(t *testing.T) {
	t.Parallel()

	res := &Result{
		Query:         "SHOW TABLES",
		Keyword:       "SHOW",
		StatementType: StatementOther,
		Success:       true,
	}
	for i := range 12 {
		res.Rows = append(res.Rows, []Value{Int(int64(i))})
	}
	res.RowCount = len(res.Rows)

	got := Format(res)
	require.Contains(t, got, "Rows returned: 12\n")
	require.Contains(t, got, "  10. [9]\n")
	require.NotContains(t, got, "  11. ")
}
