package store

import (
	"fmt"
	"strconv"
	"time"
)

// Record is one table row keyed by column name. It is an alias so that gorm
// recognises it as a plain map when creating and updating rows.
type Record = map[string]any

// Codec maps an entity type to and from a flat Record.
type Codec[T any, ID comparable] interface {
	// Table is the table the entity lives in.
	Table() string
	// KeyColumn is the primary key column.
	KeyColumn() string
	// ID extracts the identifier of an entity.
	ID(entity T) ID
	Encode(entity T) Record
	Decode(rec Record) (T, error)
}

// Int64 reads an integer column. SQLite may hand back int64, float64 or text
// depending on how the value was written.
func Int64(rec Record, column string) (int64, error) {
	v, ok := rec[column]
	if !ok || v == nil {
		return 0, fmt.Errorf("column %s: missing value", column)
	}
	return toInt64(column, v)
}

// OptionalInt64 reads a nullable integer column.
func OptionalInt64(rec Record, column string) (*int64, error) {
	v, ok := rec[column]
	if !ok || v == nil {
		return nil, nil
	}
	n, err := toInt64(column, v)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// Int reads an integer column as int.
func Int(rec Record, column string) (int, error) {
	n, err := Int64(rec, column)
	return int(n), err
}

// String reads a text column.
func String(rec Record, column string) (string, error) {
	v, ok := rec[column]
	if !ok || v == nil {
		return "", fmt.Errorf("column %s: missing value", column)
	}
	return toString(column, v)
}

// OptionalString reads a nullable text column.
func OptionalString(rec Record, column string) (*string, error) {
	v, ok := rec[column]
	if !ok || v == nil {
		return nil, nil
	}
	s, err := toString(column, v)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Millis reads an epoch-milliseconds column as a local time.
func Millis(rec Record, column string) (time.Time, error) {
	n, err := Int64(rec, column)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(n), nil
}

// OptionalMillis reads a nullable epoch-milliseconds column.
func OptionalMillis(rec Record, column string) (*time.Time, error) {
	n, err := OptionalInt64(rec, column)
	if err != nil || n == nil {
		return nil, err
	}
	t := time.UnixMilli(*n)
	return &t, nil
}

// ToMillis encodes a time as epoch milliseconds.
func ToMillis(t time.Time) int64 {
	return t.UnixMilli()
}

// OptionalToMillis encodes a nullable time; nil stays NULL.
func OptionalToMillis(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UnixMilli()
}

// Nullable turns a nil pointer into NULL and dereferences anything else.
func Nullable[V any](p *V) any {
	if p == nil {
		return nil
	}
	return *p
}

func toInt64(column string, v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case float64:
		return int64(n), nil
	case bool:
		if n {
			return 1, nil
		}
		return 0, nil
	case []byte:
		return parseInt(column, string(n))
	case string:
		return parseInt(column, n)
	case time.Time:
		return n.UnixMilli(), nil
	}
	return 0, fmt.Errorf("column %s: unexpected integer type %T", column, v)
}

func parseInt(column, s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("column %s: %w", column, err)
	}
	return n, nil
}

func toString(column string, v any) (string, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case []byte:
		return string(s), nil
	case int64:
		return strconv.FormatInt(s, 10), nil
	}
	return "", fmt.Errorf("column %s: unexpected text type %T", column, v)
}
