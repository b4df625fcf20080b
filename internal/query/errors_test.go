package query

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"testing"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/require"
)

func mysqlError(number uint16, state string, msg string) *gomysql.MySQLError {
	e := &gomysql.MySQLError{Number: number, Message: msg}
	copy(e.SQLState[:], state)
	return e
}

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func TestQuery_KindOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"parse error", mysqlError(1064, "42000", "You have an error in your SQL syntax"), ErrorKindSyntax},
		{"unknown table", mysqlError(1146, "42S02", "Table 'app.nope' doesn't exist"), ErrorKindSyntax},
		{"duplicate entry", mysqlError(1062, "23000", "Duplicate entry '1' for key 'PRIMARY'"), ErrorKindConstraint},
		{"foreign key", mysqlError(1452, "23000", "Cannot add or update a child row"), ErrorKindConstraint},
		{"lock wait timeout", mysqlError(1205, "HY000", "Lock wait timeout exceeded"), ErrorKindTimeout},
		{"max execution time", mysqlError(3024, "HY000", "Query execution was interrupted"), ErrorKindTimeout},
		{"access denied", mysqlError(1045, "28000", "Access denied"), ErrorKindConnection},
		{"too many connections", mysqlError(1040, "08004", "Too many connections"), ErrorKindConnection},
		{"other server error", mysqlError(1290, "HY000", "read-only"), ErrorKindUnknown},
		{"invalid connection", gomysql.ErrInvalidConn, ErrorKindConnection},
		{"bad conn wrapped", fmt.Errorf("failed to get connection: %w", driver.ErrBadConn), ErrorKindConnection},
		{"deadline", context.DeadlineExceeded, ErrorKindTimeout},
		{"net timeout", &net.OpError{Op: "read", Err: timeoutError{}}, ErrorKindTimeout},
		{"net refused", &net.OpError{Op: "dial", Err: errors.New("connection refused")}, ErrorKindConnection},
		{"plain", errors.New("boom"), ErrorKindUnknown},
		{"nil", nil, ErrorKindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}
