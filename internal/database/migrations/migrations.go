// Package migrations applies ordered, versioned schema changes.
//
// A Migration is one reversible (or not) unit identified by an integer
// version. The Engine keeps units sorted by version and applies a range of
// them, each inside its own transaction:
//
//	engine, err := migrations.New(
//		migrations.Statements{Number: 1, Forward: []string{"CREATE TABLE ..."}},
//		migrations.AddColumn{Number: 2, Table: "t", Column: "c", Definition: "INTEGER"},
//	)
//	err = engine.Migrate(db, 0, engine.Latest())
//
// The engine does not know where the current version is stored; callers
// pass it in and persist each step from an Observer, which runs inside the
// unit's transaction.
package migrations

import (
	"errors"
	"fmt"
	"sort"

	"gorm.io/gorm"
)

// ErrRollbackUnsupported is returned by Down when a unit has no reverse.
var ErrRollbackUnsupported = errors.New("rollback not supported")

// Direction tells whether a unit is applied or reverted.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// Migration is a single versioned schema change.
type Migration interface {
	Version() int
	Description() string
	Up(tx *gorm.DB) error
	Down(tx *gorm.DB) error
}

// MigrationError names the unit that failed.
type MigrationError struct {
	Version     int
	Description string
	Direction   Direction
	Err         error
}

func (e *MigrationError) Error() string {
	return fmt.Sprintf("migration %d (%s) %s failed: %v", e.Version, e.Description, e.Direction, e.Err)
}

func (e *MigrationError) Unwrap() error {
	return e.Err
}

// Observer is called inside the unit's transaction after it has been applied
// or reverted. A non-nil error rolls the unit back.
type Observer func(tx *gorm.DB, m Migration, dir Direction) error

// Engine holds a sorted set of migrations.
type Engine struct {
	units    []Migration
	observer Observer
}

// New sorts units by version. Two units sharing a version is an error.
func New(units ...Migration) (*Engine, error) {
	sorted := make([]Migration, len(units))
	copy(sorted, units)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Version() < sorted[j].Version()
	})

	for i := 1; i < len(sorted); i++ {
		if sorted[i].Version() == sorted[i-1].Version() {
			return nil, fmt.Errorf("duplicate migration version %d", sorted[i].Version())
		}
	}
	for _, m := range sorted {
		if m.Version() <= 0 {
			return nil, fmt.Errorf("migration version must be positive, got %d", m.Version())
		}
	}

	return &Engine{units: sorted}, nil
}

// Observe registers fn to be told about every applied unit.
func (e *Engine) Observe(fn Observer) {
	e.observer = fn
}

// Migrations returns the registered units in ascending order. The slice is a
// copy; changing it does not affect the engine.
func (e *Engine) Migrations() []Migration {
	out := make([]Migration, len(e.units))
	copy(out, e.units)
	return out
}

// Latest is the highest registered version, or 0 when there are none.
func (e *Engine) Latest() int {
	if len(e.units) == 0 {
		return 0
	}
	return e.units[len(e.units)-1].Version()
}

// Migrate applies every unit with from < version <= to in ascending order.
// It stops at the first failure; units applied before it stay applied.
func (e *Engine) Migrate(db *gorm.DB, from, to int) error {
	for _, m := range e.units {
		v := m.Version()
		if v <= from || v > to {
			continue
		}
		if err := e.apply(db, m, Up); err != nil {
			return err
		}
	}
	return nil
}

// Rollback reverts every unit with to < version <= from in descending order.
func (e *Engine) Rollback(db *gorm.DB, from, to int) error {
	for i := len(e.units) - 1; i >= 0; i-- {
		m := e.units[i]
		v := m.Version()
		if v <= to || v > from {
			continue
		}
		if err := e.apply(db, m, Down); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) apply(db *gorm.DB, m Migration, dir Direction) error {
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		if dir == Up {
			err = m.Up(tx)
		} else {
			err = m.Down(tx)
		}
		if err != nil || e.observer == nil {
			return err
		}
		return e.observer(tx, m, dir)
	})
	if err != nil {
		return &MigrationError{
			Version:     m.Version(),
			Description: m.Description(),
			Direction:   dir,
			Err:         err,
		}
	}
	return nil
}
