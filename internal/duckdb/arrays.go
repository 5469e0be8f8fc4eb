package duckdb

import (
	"fmt"
	"strconv"
	"strings"
)

// Int64List is a BIGINT[] column. The driver cannot bind Go slices, so
// values are written as list literals and read back from []any.
type Int64List []int64

// Scan implements sql.Scanner.
func (l *Int64List) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*l = nil
	case []int64:
		*l = append((*l)[:0], v...)
	case []any:
		out := make(Int64List, 0, len(v))
		for i, elem := range v {
			n, ok := elem.(int64)
			if !ok {
				return fmt.Errorf("list element %d: unexpected type %T", i, elem)
			}
			out = append(out, n)
		}
		*l = out
	default:
		return fmt.Errorf("cannot scan %T into Int64List", src)
	}
	return nil
}

// Int64ArrayToString converts values to a DuckDB list literal.
// Example: [1, 2, 3] -> "[1, 2, 3]"
func Int64ArrayToString(values []int64) string {
	if len(values) == 0 {
		return "[]"
	}

	var sb strings.Builder
	sb.WriteByte('[')
	for i, v := range values {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(strconv.FormatInt(v, 10))
	}
	sb.WriteByte(']')
	return sb.String()
}
