package store

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// Connector hands out the shared database handle. database.Database
// implements it by opening (and migrating) lazily on first use.
type Connector interface {
	Conn(ctx context.Context) (*gorm.DB, error)
}

// Query narrows Find and CountWhere. Where uses gorm placeholder syntax.
type Query struct {
	Where string
	Args  []any
	Order string
	Limit int
}

// Store provides CRUD for one entity type against one table.
type Store[T any, ID comparable] struct {
	conn  Connector
	codec Codec[T, ID]
	watch *Broadcaster[T, ID]
}

// New creates a store for the codec's table.
func New[T any, ID comparable](conn Connector, codec Codec[T, ID]) *Store[T, ID] {
	s := &Store[T, ID]{
		conn:  conn,
		codec: codec,
	}
	s.watch = newBroadcaster(s)
	return s
}

// Table returns the table name the store operates on.
func (s *Store[T, ID]) Table() string {
	return s.codec.Table()
}

func (s *Store[T, ID]) db(ctx context.Context, op string) (*gorm.DB, error) {
	db, err := s.conn.Conn(ctx)
	if err != nil {
		return nil, operationError(op, s.codec.Table(), err)
	}
	return db.WithContext(ctx), nil
}

func (s *Store[T, ID]) keyEquals() string {
	return s.codec.KeyColumn() + " = ?"
}

// GetAll returns every row in the table. Order is unspecified.
func (s *Store[T, ID]) GetAll(ctx context.Context) ([]T, error) {
	return s.Find(ctx, Query{})
}

// GetByID returns the entity with the given id. The boolean is false when no
// row matches; that is not an error.
func (s *Store[T, ID]) GetByID(ctx context.Context, id ID) (T, bool, error) {
	var zero T
	items, err := s.Find(ctx, Query{Where: s.keyEquals(), Args: []any{id}, Limit: 1})
	if err != nil {
		return zero, false, err
	}
	if len(items) == 0 {
		return zero, false, nil
	}
	return items[0], true, nil
}

// Find returns the rows matching q.
func (s *Store[T, ID]) Find(ctx context.Context, q Query) ([]T, error) {
	db, err := s.db(ctx, "find")
	if err != nil {
		return nil, err
	}

	tx := db.Table(s.codec.Table())
	if q.Where != "" {
		tx = tx.Where(q.Where, q.Args...)
	}
	if q.Order != "" {
		tx = tx.Order(q.Order)
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}

	var rows []Record
	if err := tx.Find(&rows).Error; err != nil {
		return nil, operationError("find", s.codec.Table(), err)
	}
	return s.decodeAll(rows)
}

// At returns the single row at offset when rows are ordered by key.
func (s *Store[T, ID]) At(ctx context.Context, offset int) (T, bool, error) {
	var zero T
	db, err := s.db(ctx, "at")
	if err != nil {
		return zero, false, err
	}

	var rows []Record
	err = db.Table(s.codec.Table()).
		Order(s.codec.KeyColumn()).
		Offset(offset).
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return zero, false, operationError("at", s.codec.Table(), err)
	}
	if len(rows) == 0 {
		return zero, false, nil
	}

	items, err := s.decodeAll(rows)
	if err != nil {
		return zero, false, err
	}
	return items[0], true, nil
}

// Insert writes a new row. It fails with ErrDuplicateEntity when the id is
// already taken; the primary key constraint is the authority, the existence
// check only avoids a round trip through the constraint error.
func (s *Store[T, ID]) Insert(ctx context.Context, entity T) error {
	id := s.codec.ID(entity)
	exists, err := s.Exists(ctx, id)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("insert %s %v: %w", s.codec.Table(), id, ErrDuplicateEntity)
	}

	db, err := s.db(ctx, "insert")
	if err != nil {
		return err
	}
	if err := db.Table(s.codec.Table()).Create(s.codec.Encode(entity)).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert %s %v: %w", s.codec.Table(), id, ErrDuplicateEntity)
		}
		return operationError("insert", s.codec.Table(), err)
	}

	s.watch.notify()
	return nil
}

// Update replaces the row with the entity's id.
func (s *Store[T, ID]) Update(ctx context.Context, entity T) error {
	id := s.codec.ID(entity)
	db, err := s.db(ctx, "update")
	if err != nil {
		return err
	}

	rec := s.codec.Encode(entity)
	delete(rec, s.codec.KeyColumn())

	res := db.Table(s.codec.Table()).Where(s.keyEquals(), id).Updates(rec)
	if res.Error != nil {
		return operationError("update", s.codec.Table(), res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("update %s %v: %w", s.codec.Table(), id, ErrEntityNotFound)
	}

	s.watch.notify()
	return nil
}

// Delete removes the row with the given id.
func (s *Store[T, ID]) Delete(ctx context.Context, id ID) error {
	db, err := s.db(ctx, "delete")
	if err != nil {
		return err
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE %s", s.codec.Table(), s.keyEquals())
	res := db.Exec(query, id)
	if res.Error != nil {
		return operationError("delete", s.codec.Table(), res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("delete %s %v: %w", s.codec.Table(), id, ErrEntityNotFound)
	}

	s.watch.notify()
	return nil
}

// Exists reports whether a row with the given id is present.
func (s *Store[T, ID]) Exists(ctx context.Context, id ID) (bool, error) {
	n, err := s.CountWhere(ctx, s.keyEquals(), id)
	return n > 0, err
}

// Count returns the number of rows in the table.
func (s *Store[T, ID]) Count(ctx context.Context) (int64, error) {
	return s.CountWhere(ctx, "")
}

// CountWhere counts the rows matching where. An empty where counts everything.
func (s *Store[T, ID]) CountWhere(ctx context.Context, where string, args ...any) (int64, error) {
	db, err := s.db(ctx, "count")
	if err != nil {
		return 0, err
	}

	tx := db.Table(s.codec.Table())
	if strings.TrimSpace(where) != "" {
		tx = tx.Where(where, args...)
	}

	var n int64
	if err := tx.Count(&n).Error; err != nil {
		return 0, operationError("count", s.codec.Table(), err)
	}
	return n, nil
}

// Clear removes every row. Subscribers are notified like any other mutation.
func (s *Store[T, ID]) Clear(ctx context.Context) error {
	db, err := s.db(ctx, "clear")
	if err != nil {
		return err
	}
	if err := db.Exec("DELETE FROM " + s.codec.Table()).Error; err != nil {
		return operationError("clear", s.codec.Table(), err)
	}

	s.watch.notify()
	return nil
}

// WatchAll streams the full table: once immediately, then after every mutation.
func (s *Store[T, ID]) WatchAll(ctx context.Context) <-chan Snapshot[T] {
	return s.watch.WatchAll(ctx)
}

// WatchByID streams a single entity: once immediately, then after every mutation.
func (s *Store[T, ID]) WatchByID(ctx context.Context, id ID) <-chan Item[T] {
	return s.watch.WatchByID(ctx, id)
}

// Close ends every subscription owned by the store.
func (s *Store[T, ID]) Close() {
	s.watch.Close()
}

func (s *Store[T, ID]) decodeAll(rows []Record) ([]T, error) {
	items := make([]T, 0, len(rows))
	for _, row := range rows {
		item, err := s.codec.Decode(row)
		if err != nil {
			return nil, operationError("decode", s.codec.Table(), err)
		}
		items = append(items, item)
	}
	return items, nil
}
