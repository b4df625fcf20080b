package query

import (
	"errors"
	"fmt"
	"strings"
)

// DangerousPatterns is the substring denylist checked against the
// lower-cased statement text. It is a best-effort guard, not a parser.
var DangerousPatterns = []string{
	"drop database",
	"drop schema",
	"drop table",
	"truncate table",
	"delete from",
	"format c:",
	"rm -rf",
	"shutdown",
	"system",
	"exec(",
	"xp_cmdshell",
}

var (
	ErrEmptyQuery   = errors.New("query cannot be empty")
	ErrInvalidLimit = errors.New("limit must be a positive integer")
)

type DangerousPatternError struct {
	Pattern string
}

func (e *DangerousPatternError) Error() string {
	return fmt.Sprintf("query contains potentially dangerous pattern: %s", e.Pattern)
}

// ValidateQuery rejects blank text and text containing a denylisted pattern.
func ValidateQuery(sql string) error {
	if strings.TrimSpace(sql) == "" {
		return ErrEmptyQuery
	}
	lower := strings.ToLower(sql)
	for _, pattern := range DangerousPatterns {
		if strings.Contains(lower, pattern) {
			return &DangerousPatternError{Pattern: pattern}
		}
	}
	return nil
}

// IsValidationError reports whether err was produced by request validation.
func IsValidationError(err error) bool {
	var dpe *DangerousPatternError
	return errors.Is(err, ErrEmptyQuery) || errors.Is(err, ErrInvalidLimit) || errors.As(err, &dpe)
}
