package query

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

type ValueKind uint8

const (
	KindNull ValueKind = iota
	KindInt
	KindFloat
	KindText
	KindBinary
	KindTime
)

func (k ValueKind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindText:
		return "text"
	case KindBinary:
		return "binary"
	case KindTime:
		return "time"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is one column value of a result row.
type Value struct {
	kind ValueKind
	i    int64
	f    float64
	s    string
	b    []byte
	t    time.Time
}

func Null() Value { return Value{kind: KindNull} }
func Int(v int64) Value { return Value{kind: KindInt, i: v} }
func Float(v float64) Value { return Value{kind: KindFloat, f: v} }
func Text(v string) Value { return Value{kind: KindText, s: v} }
func Binary(v []byte) Value { return Value{kind: KindBinary, b: v} }
func Time(v time.Time) Value { return Value{kind: KindTime, t: v} }
func (v Value) Kind() ValueKind { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) Int() int64 { return v.i }
func (v Value) Float() float64 { return v.f }
func (v Value) Text() string { return v.s }
func (v Value) Bytes() []byte { return v.b }
func (v Value) Time() time.Time { return v.t }

// Any returns the value as a plain Go value (nil, int64, float64, string,
// []byte or time.Time).
func (v Value) Any() any {
	switch v.kind {
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindText:
		return v.s
	case KindBinary:
		return v.b
	case KindTime:
		return v.t
	default:
		return nil
	}
}

const timeLayout = "2006-01-02 15:04:05.999999"

// String renders the value the way it appears in formatted rows: text and
// times quoted, binary as hex, NULL bare.
func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindText:
		return "'" + strings.ReplaceAll(v.s, "'", `\'`) + "'"
	case KindBinary:
		return "0x" + hex.EncodeToString(v.b)
	case KindTime:
		return "'" + v.t.Format(timeLayout) + "'"
	default:
		return "NULL"
	}
}

// Plain renders the value without quoting, for tabular output.
func (v Value) Plain() string {
	switch v.kind {
	case KindText:
		return v.s
	case KindTime:
		return v.t.Format(timeLayout)
	default:
		return v.String()
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindInt:
		return json.Marshal(v.i)
	case KindFloat:
		return json.Marshal(v.f)
	case KindText:
		return json.Marshal(v.s)
	case KindBinary:
		return json.Marshal(base64.StdEncoding.EncodeToString(v.b))
	case KindTime:
		return json.Marshal(v.t.Format(time.RFC3339Nano))
	default:
		return []byte("null"), nil
	}
}

// FormatRow renders a row as "[v1, v2, ...]".
func FormatRow(row []Value) string {
	parts := make([]string, len(row))
	for i, v := range row {
		parts[i] = v.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// ValueOf converts a scanned driver value into a Value. Raw bytes are
// interpreted using the column's database type name, since the MySQL text
// protocol reports most values as bytes.
func ValueOf(src any, dbType string) Value {
	switch v := src.(type) {
	case nil:
		return Null()
	case int64:
		return Int(v)
	case int32:
		return Int(int64(v))
	case int:
		return Int(int64(v))
	case uint64:
		if v > 1<<63-1 {
			return Text(strconv.FormatUint(v, 10))
		}
		return Int(int64(v))
	case float64:
		return Float(v)
	case float32:
		return Float(float64(v))
	case bool:
		if v {
			return Int(1)
		}
		return Int(0)
	case string:
		return Text(v)
	case time.Time:
		return Time(v)
	case []byte:
		return bytesValue(v, dbType)
	default:
		return Text(fmt.Sprint(v))
	}
}

func bytesValue(b []byte, dbType string) Value {
	switch strings.ToUpper(dbType) {
	case "TINYINT", "SMALLINT", "MEDIUMINT", "INT", "INTEGER", "BIGINT", "YEAR",
		"UNSIGNED TINYINT", "UNSIGNED SMALLINT", "UNSIGNED MEDIUMINT", "UNSIGNED INT", "UNSIGNED BIGINT":
		if n, err := strconv.ParseInt(string(b), 10, 64); err == nil {
			return Int(n)
		}
	case "FLOAT", "DOUBLE":
		if f, err := strconv.ParseFloat(string(b), 64); err == nil {
			return Float(f)
		}
	case "BLOB", "TINYBLOB", "MEDIUMBLOB", "LONGBLOB", "BINARY", "VARBINARY", "BIT", "GEOMETRY":
		return Binary(append([]byte(nil), b...))
	}
	return Text(string(b))
}
