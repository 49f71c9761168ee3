package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"
)

var (
	// ErrEntityNotFound is returned when an update or delete matched no row.
	ErrEntityNotFound = errors.New("entity not found")

	// ErrDuplicateEntity is returned when inserting an id that already exists.
	ErrDuplicateEntity = errors.New("entity already exists")

	// ErrConnectionClosed marks failures caused by an unavailable database handle.
	ErrConnectionClosed = errors.New("database connection closed")
)

// OperationError wraps any other store-level failure with the operation and
// table it happened on.
type OperationError struct {
	Op    string
	Table string
	Err   error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Table, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

func operationError(op, table string, err error) error {
	if isConnectionClosed(err) && !errors.Is(err, ErrConnectionClosed) {
		err = errors.Join(ErrConnectionClosed, err)
	}
	return &OperationError{Op: op, Table: table, Err: err}
}

func isConnectionClosed(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrConnectionClosed) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	return strings.Contains(err.Error(), "database is closed")
}

// isUniqueViolation reports whether err is a SQLite PRIMARY KEY or UNIQUE
// constraint failure.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
