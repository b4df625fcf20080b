package query

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"

	gomysql "github.com/go-sql-driver/mysql"
)

// ErrorKind is the closed set of failure categories carried on failure
// records. ErrorKindValidation only appears on stream error events.
type ErrorKind string

const (
	ErrorKindConnection ErrorKind = "connection"
	ErrorKindSyntax     ErrorKind = "syntax"
	ErrorKindConstraint ErrorKind = "constraint"
	ErrorKindTimeout    ErrorKind = "timeout"
	ErrorKindUnknown    ErrorKind = "unknown"
	ErrorKindValidation ErrorKind = "validation"
)

// Server error numbers that map to a kind regardless of SQLSTATE.
var errorNumberKinds = map[uint16]ErrorKind{
	1040: ErrorKindConnection, // ER_CON_COUNT_ERROR
	1045: ErrorKindConnection, // ER_ACCESS_DENIED_ERROR
	1152: ErrorKindConnection, // ER_ABORTING_CONNECTION
	1153: ErrorKindConnection, // ER_NET_PACKET_TOO_LARGE
	1158: ErrorKindConnection, // ER_NET_READ_ERROR
	1159: ErrorKindConnection, // ER_NET_READ_INTERRUPTED
	1160: ErrorKindConnection, // ER_NET_ERROR_ON_WRITE
	1161: ErrorKindConnection, // ER_NET_WRITE_INTERRUPTED
	1205: ErrorKindTimeout,    // ER_LOCK_WAIT_TIMEOUT
	1969: ErrorKindTimeout,    // ER_STATEMENT_TIMEOUT (MariaDB)
	3024: ErrorKindTimeout,    // ER_QUERY_TIMEOUT
	1048: ErrorKindConstraint, // ER_BAD_NULL_ERROR
	1062: ErrorKindConstraint, // ER_DUP_ENTRY
	1216: ErrorKindConstraint, // ER_NO_REFERENCED_ROW
	1217: ErrorKindConstraint, // ER_ROW_IS_REFERENCED
	1451: ErrorKindConstraint, // ER_ROW_IS_REFERENCED_2
	1452: ErrorKindConstraint, // ER_NO_REFERENCED_ROW_2
	3819: ErrorKindConstraint, // ER_CHECK_CONSTRAINT_VIOLATED
	1064: ErrorKindSyntax,     // ER_PARSE_ERROR
}

// KindOf classifies an execution error from what the driver reports.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ErrorKindUnknown
	}

	var me *gomysql.MySQLError
	if errors.As(err, &me) {
		if kind, ok := errorNumberKinds[me.Number]; ok {
			return kind
		}
		switch string(me.SQLState[:2]) {
		case "42":
			return ErrorKindSyntax
		case "23":
			return ErrorKindConstraint
		case "08", "28":
			return ErrorKindConnection
		}
		return ErrorKindUnknown
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorKindTimeout
	}
	if errors.Is(err, gomysql.ErrInvalidConn) || errors.Is(err, driver.ErrBadConn) {
		return ErrorKindConnection
	}
	var ne net.Error
	if errors.As(err, &ne) {
		if ne.Timeout() {
			return ErrorKindTimeout
		}
		return ErrorKindConnection
	}
	return ErrorKindUnknown
}
