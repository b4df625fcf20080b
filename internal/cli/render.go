package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"iter"

	"github.com/olekukonko/tablewriter"

	"github.com/malbeclabs/mysql-mcp/internal/query"
)

// writeTable renders a successful result. Row-less results are rendered as
// a single summary row.
func writeTable(w io.Writer, res *query.Result) {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetBorder(true)

	switch res.StatementType {
	case query.StatementMutation:
		table.SetHeader([]string{"Affected Rows", "Last Insert ID"})
		lastID := ""
		if res.LastInsertID != nil {
			lastID = fmt.Sprintf("%d", *res.LastInsertID)
		}
		table.Append([]string{fmt.Sprintf("%d", res.AffectedRows), lastID})
	case query.StatementDefinition:
		table.SetHeader([]string{"Message"})
		table.Append([]string{res.Message})
	default:
		table.SetHeader(headerFor(res))
		for _, row := range res.Rows {
			cells := make([]string, len(row))
			for i, v := range row {
				cells[i] = v.Plain()
			}
			table.Append(cells)
		}
		table.SetCaption(true, fmt.Sprintf("%d row(s)%s", res.RowCount, limitedNote(res)))
	}
	table.Render()
}

func headerFor(res *query.Result) []string {
	if len(res.Columns) > 0 {
		return res.ColumnNames()
	}
	width := 0
	if len(res.Rows) > 0 {
		width = len(res.Rows[0])
	}
	header := make([]string, width)
	for i := range header {
		header[i] = fmt.Sprintf("col%d", i+1)
	}
	return header
}

func limitedNote(res *query.Result) string {
	if res.Limited {
		return ", limited"
	}
	return ""
}

// writeEvents writes each event as one JSON line. A failed execution makes
// the command fail after all events are written.
func writeEvents(w io.Writer, events iter.Seq[query.Event]) error {
	enc := json.NewEncoder(w)
	var failed *query.ErrorEvent
	for ev := range events {
		if err := enc.Encode(ev); err != nil {
			return fmt.Errorf("failed to encode event: %w", err)
		}
		switch {
		case ev.Type == query.EventError:
			failed = ev.Error
		case ev.Type == query.EventMetadata && !ev.Metadata.Success:
			failed = &query.ErrorEvent{Error: ev.Metadata.Error, Kind: ev.Metadata.ErrorKind}
		}
	}
	if failed != nil {
		return fmt.Errorf("%s error: %s", failed.Kind, failed.Error)
	}
	return nil
}
