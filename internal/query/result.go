package query

import "time"

const (
	DefaultLimit         = 100
	DDLExecutedMessage   = "DDL statement executed successfully"
	defaultFetchMetadata = true
)

// Request is one statement to execute.
type Request struct {
	Query         string
	Database      string
	Limit         int
	FetchMetadata bool
}

// NewRequest returns a request with the default limit and metadata enabled.
func NewRequest(sql string) Request {
	return Request{
		Query:         sql,
		Limit:         DefaultLimit,
		FetchMetadata: defaultFetchMetadata,
	}
}

// Validate applies the default limit to a zero limit and rejects blank
// text, denylisted text and negative limits.
func (r *Request) Validate() error {
	if err := ValidateQuery(r.Query); err != nil {
		return err
	}
	if r.Limit == 0 {
		r.Limit = DefaultLimit
	}
	if r.Limit < 0 {
		return ErrInvalidLimit
	}
	return nil
}

// Column describes one result column. Optional attributes are nil when the
// driver does not report them.
type Column struct {
	Name         string `json:"name"`
	Type         string `json:"type,omitempty"`
	DisplaySize  *int64 `json:"display_size,omitempty"`
	InternalSize *int64 `json:"internal_size,omitempty"`
	Precision    *int64 `json:"precision,omitempty"`
	Scale        *int64 `json:"scale,omitempty"`
	Nullable     *bool  `json:"null_ok,omitempty"`
}

// Result is the normalized outcome of one statement. Exactly one of the
// success-shaped or failure-shaped field groups is populated.
type Result struct {
	Query         string        `json:"query"`
	Keyword       string        `json:"query_type,omitempty"`
	StatementType StatementType `json:"statement_type,omitempty"`
	Success       bool          `json:"success"`
	Timestamp     time.Time     `json:"timestamp"`
	Duration      time.Duration `json:"duration_ns"`

	// Read and other statements.
	Rows     [][]Value `json:"rows,omitempty"`
	RowCount int       `json:"row_count"`
	Limited  bool      `json:"limited"`
	Columns  []Column  `json:"columns,omitempty"`

	// Mutation statements.
	AffectedRows int64  `json:"affected_rows,omitempty"`
	LastInsertID *int64 `json:"last_insert_id,omitempty"`

	// Definition statements.
	DDLExecuted bool   `json:"ddl_executed,omitempty"`
	Message     string `json:"message,omitempty"`

	// Failure.
	Error     string    `json:"error,omitempty"`
	ErrorKind ErrorKind `json:"error_type,omitempty"`
}

// ColumnNames returns the names of the attached columns, if any.
func (r *Result) ColumnNames() []string {
	names := make([]string, len(r.Columns))
	for i, c := range r.Columns {
		names[i] = c.Name
	}
	return names
}
