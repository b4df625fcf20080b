package query

import (
	"context"
	"encoding/json"
	"iter"
	"sync/atomic"
)

type EventType string

const (
	EventMetadata EventType = "metadata"
	EventRow      EventType = "row"
	EventSummary  EventType = "summary"
	EventError    EventType = "error"
)

type MetadataEvent struct {
	Query         string        `json:"query"`
	Keyword       string        `json:"query_type,omitempty"`
	StatementType StatementType `json:"statement_type,omitempty"`
	Columns       []Column      `json:"columns"`
	Success       bool          `json:"success"`
	Error         string        `json:"error,omitempty"`
	ErrorKind     ErrorKind     `json:"error_type,omitempty"`
}

type RowEvent struct {
	Index int     `json:"index"`
	Row   []Value `json:"row"`
}

type SummaryEvent struct {
	RowCount     int    `json:"row_count"`
	Limited      bool   `json:"limited"`
	AffectedRows *int64 `json:"affected_rows"`
	LastInsertID *int64 `json:"last_insert_id"`
	DDLExecuted  bool   `json:"ddl_executed"`
	Message      string `json:"message,omitempty"`
}

type ErrorEvent struct {
	Error string    `json:"error"`
	Kind  ErrorKind `json:"error_type"`
}

// Event is one unit of incremental delivery. Exactly one payload pointer,
// matching Type, is set.
type Event struct {
	Type     EventType
	Metadata *MetadataEvent
	Row      *RowEvent
	Summary  *SummaryEvent
	Error    *ErrorEvent
}

// MarshalJSON flattens the payload next to an "event" discriminator.
func (e Event) MarshalJSON() ([]byte, error) {
	var payload any
	switch e.Type {
	case EventMetadata:
		payload = e.Metadata
	case EventRow:
		payload = e.Row
	case EventSummary:
		payload = e.Summary
	case EventError:
		payload = e.Error
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	typ, err := json.Marshal(string(e.Type))
	if err != nil {
		return nil, err
	}

	out := append([]byte(`{"event":`), typ...)
	if len(body) > 2 && body[0] == '{' {
		out = append(out, ',')
		out = append(out, body[1:]...)
		return out, nil
	}
	return append(out, '}'), nil
}

// Events converts a finished result into its event sequence: one metadata
// event, one row event per row for read statements, then one summary.
func Events(res *Result) iter.Seq[Event] {
	return func(yield func(Event) bool) {
		columns := res.Columns
		if columns == nil {
			columns = []Column{}
		}
		meta := &MetadataEvent{
			Query:         res.Query,
			Keyword:       res.Keyword,
			StatementType: res.StatementType,
			Columns:       columns,
			Success:       res.Success,
			Error:         res.Error,
			ErrorKind:     res.ErrorKind,
		}
		if !yield(Event{Type: EventMetadata, Metadata: meta}) {
			return
		}

		if res.Success && res.StatementType == StatementRead {
			for i, row := range res.Rows {
				if !yield(Event{Type: EventRow, Row: &RowEvent{Index: i, Row: row}}) {
					return
				}
			}
		}

		summary := &SummaryEvent{
			RowCount:     res.RowCount,
			Limited:      res.Limited,
			LastInsertID: res.LastInsertID,
			DDLExecuted:  res.DDLExecuted,
			Message:      res.Message,
		}
		if res.Success && res.StatementType == StatementMutation {
			affected := res.AffectedRows
			summary.AffectedRows = &affected
		}
		yield(Event{Type: EventSummary, Summary: summary})
	}
}

// ErrorEventFor builds the single event emitted when execution could not
// produce a result at all.
func ErrorEventFor(err error) Event {
	kind := ErrorKindConnection
	if IsValidationError(err) {
		kind = ErrorKindValidation
	}
	return Event{Type: EventError, Error: &ErrorEvent{Error: err.Error(), Kind: kind}}
}

// EventStream executes a request lazily and yields its events once.
type EventStream struct {
	ctx      context.Context
	runner   Runner
	req      Request
	consumed atomic.Bool
}

func Stream(ctx context.Context, runner Runner, req Request) *EventStream {
	return &EventStream{
		ctx:    ctx,
		runner: runner,
		req:    req,
	}
}

// All executes the request on first iteration. Any later iteration yields
// nothing and does not re-execute.
func (s *EventStream) All() iter.Seq[Event] {
	return func(yield func(Event) bool) {
		if !s.consumed.CompareAndSwap(false, true) {
			return
		}

		res, err := s.runner.Execute(s.ctx, s.req)
		if err != nil {
			yield(ErrorEventFor(err))
			return
		}
		for ev := range Events(res) {
			if !yield(ev) {
				return
			}
		}
	}
}
