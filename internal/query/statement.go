package query

import "strings"

// StatementType is the coarse category of a SQL statement, decided by its
// leading keyword.
type StatementType string

const (
	StatementRead       StatementType = "read"
	StatementMutation   StatementType = "mutation"
	StatementDefinition StatementType = "definition"
	StatementOther      StatementType = "other"
)

// Keyword returns the first whitespace-delimited token of the statement,
// upper-cased. It returns "" for blank text.
func Keyword(sql string) string {
	fields := strings.Fields(sql)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToUpper(fields[0])
}

// Classify maps a statement to its type by leading keyword only.
func Classify(sql string) StatementType {
	switch Keyword(sql) {
	case "SELECT":
		return StatementRead
	case "INSERT", "UPDATE", "DELETE":
		return StatementMutation
	case "CREATE", "ALTER", "DROP":
		return StatementDefinition
	default:
		return StatementOther
	}
}

// QuoteIdentifier wraps a single identifier in backticks, doubling any
// embedded backtick.
func QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// quoteQualified quotes each dot-separated part of a possibly qualified name.
func quoteQualified(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = QuoteIdentifier(p)
	}
	return strings.Join(parts, ".")
}

// Introspection statements. Identifiers are always quoted here and nowhere
// else, so database and table names never reach SQL text unescaped.

func UseStatement(database string) string {
	return "USE " + QuoteIdentifier(database)
}

func ShowDatabasesStatement() string {
	return "SHOW DATABASES"
}

func ShowTablesStatement(database string) string {
	return "SHOW TABLES FROM " + QuoteIdentifier(database)
}

func DescribeStatement(database, table string) string {
	if database == "" {
		return "DESCRIBE " + quoteQualified(table)
	}
	return "DESCRIBE " + QuoteIdentifier(database) + "." + quoteQualified(table)
}
