package query

import (
	"fmt"
	"strings"
)

const (
	maxFormattedReadRows  = 5
	maxFormattedOtherRows = 10
)

// Format renders a result as a human-readable report.
func Format(res *Result) string {
	var sb strings.Builder

	if !res.Success {
		errText := res.Error
		if errText == "" {
			errText = "Unknown error"
		}
		fmt.Fprintf(&sb, "MySQL Error: %s\nQuery: %s", errText, res.Query)
		return sb.String()
	}

	keyword := res.Keyword
	if keyword == "" {
		keyword = "UNKNOWN"
	}
	fmt.Fprintf(&sb, "MySQL %s Query Executed Successfully\n", keyword)
	fmt.Fprintf(&sb, "Query: %s\n", res.Query)

	switch res.StatementType {
	case StatementRead:
		fmt.Fprintf(&sb, "Rows returned: %d", res.RowCount)
		if res.Limited {
			sb.WriteString(" (limited)")
		}
		sb.WriteString("\n")

		if len(res.Columns) > 0 {
			fmt.Fprintf(&sb, "Columns: %s\n", strings.Join(res.ColumnNames(), ", "))
		}

		if len(res.Rows) > 0 {
			sb.WriteString("\nData:\n")
			for i, row := range res.Rows[:min(len(res.Rows), maxFormattedReadRows)] {
				fmt.Fprintf(&sb, "  Row %d: %s\n", i+1, FormatRow(row))
			}
			if len(res.Rows) > maxFormattedReadRows {
				fmt.Fprintf(&sb, "  ... and %d more rows\n", len(res.Rows)-maxFormattedReadRows)
			}
		}

	case StatementMutation:
		fmt.Fprintf(&sb, "Affected rows: %d\n", res.AffectedRows)
		if res.LastInsertID != nil && *res.LastInsertID != 0 {
			fmt.Fprintf(&sb, "Last insert ID: %d\n", *res.LastInsertID)
		}

	case StatementDefinition:
		msg := res.Message
		if msg == "" {
			msg = DDLExecutedMessage
		}
		sb.WriteString(msg + "\n")

	default:
		fmt.Fprintf(&sb, "Rows returned: %d\n", len(res.Rows))
		if len(res.Rows) > 0 {
			sb.WriteString("Results:\n")
			for i, row := range res.Rows[:min(len(res.Rows), maxFormattedOtherRows)] {
				fmt.Fprintf(&sb, "  %d. %s\n", i+1, FormatRow(row))
			}
		}
	}

	return sb.String()
}
