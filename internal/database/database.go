package database

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/readtracker/internal/database/migrations"
	"github.com/mrlokans/readtracker/internal/store"
)

// Option customises a Database before it is first opened.
type Option func(*Database)

// WithLogLevel sets the gorm SQL log level.
func WithLogLevel(level logger.LogLevel) Option {
	return func(d *Database) {
		d.logLevel = level
	}
}

// WithSchemaVersion pins the schema version the database is brought to on
// open. Zero means the latest registered migration.
func WithSchemaVersion(version int) Option {
	return func(d *Database) {
		d.target = version
	}
}

// WithMigrations replaces the bundled schema migrations.
func WithMigrations(units ...migrations.Migration) Option {
	return func(d *Database) {
		d.units = units
	}
}

// Database owns the single shared SQLite handle. It is opened lazily on the
// first Conn call, migrated to the target schema version, and can be closed
// and reopened any number of times.
type Database struct {
	path     string
	logLevel logger.LogLevel
	target   int
	units    []migrations.Migration
	engine   *migrations.Engine

	mu sync.Mutex
	db *gorm.DB
}

var _ store.Connector = (*Database)(nil)

// Open prepares a database at path. Nothing touches disk until Conn.
func Open(path string, opts ...Option) (*Database, error) {
	d := &Database{
		path:     path,
		logLevel: logger.Warn,
		units:    SchemaMigrations(),
	}
	for _, opt := range opts {
		opt(d)
	}

	engine, err := migrations.New(d.units...)
	if err != nil {
		return nil, fmt.Errorf("failed to register migrations: %w", err)
	}
	d.engine = engine

	if d.target == 0 {
		d.target = engine.Latest()
	}
	if d.target < 0 || d.target > engine.Latest() {
		return nil, fmt.Errorf("schema version %d out of range [0, %d]", d.target, engine.Latest())
	}
	return d, nil
}

// Path returns the database file path.
func (d *Database) Path() string {
	return d.path
}

// Conn returns the shared handle, opening and migrating it if needed.
func (d *Database) Conn(ctx context.Context) (*gorm.DB, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.db != nil {
		return d.db, nil
	}

	db, err := d.open(ctx)
	if err != nil {
		return nil, err
	}
	d.db = db
	return db, nil
}

func (d *Database) open(ctx context.Context) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn(d.path)), &gorm.Config{
		Logger: logger.Default.LogMode(d.logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	fail := func(err error) (*gorm.DB, error) {
		sqlDB.Close()
		return nil, err
	}

	db = db.WithContext(ctx)
	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		return fail(fmt.Errorf("failed to enable foreign keys: %w", err))
	}
	if err := d.migrate(db, d.target); err != nil {
		return fail(err)
	}

	log.Printf("[DB] Database initialized successfully at %s (schema version %d)", d.path, d.target)
	return db.WithContext(context.Background()), nil
}

// migrate brings the schema from its stored version to target. A rollback
// that hits an irreversible unit drops every table and rebuilds the schema.
func (d *Database) migrate(db *gorm.DB, target int) error {
	current, err := userVersion(db)
	if err != nil {
		return err
	}

	d.engine.Observe(func(tx *gorm.DB, m migrations.Migration, dir migrations.Direction) error {
		version := m.Version()
		if dir == migrations.Down {
			version = d.versionBefore(version)
		}
		if err := setUserVersion(tx, version); err != nil {
			return fmt.Errorf("failed to record schema version %d: %w", version, err)
		}
		log.Printf("[DB] Migration %d (%s) %s", m.Version(), m.Description(), dir)
		return nil
	})

	switch {
	case current < target:
		if err := d.engine.Migrate(db, current, target); err != nil {
			return fmt.Errorf("failed to migrate database from %d to %d: %w", current, target, err)
		}
	case current > target:
		err := d.engine.Rollback(db, current, target)
		if err == nil {
			break
		}
		if !errors.Is(err, migrations.ErrRollbackUnsupported) {
			return fmt.Errorf("failed to roll back database from %d to %d: %w", current, target, err)
		}

		log.Printf("[DB] Rollback to %d not possible, recreating schema: %v", target, err)
		if err := recreate(db); err != nil {
			return err
		}
		if err := d.engine.Migrate(db, 0, target); err != nil {
			return fmt.Errorf("failed to recreate schema at version %d: %w", target, err)
		}
	}
	return nil
}

// versionBefore is the highest registered version below v, or 0.
func (d *Database) versionBefore(v int) int {
	prev := 0
	for _, m := range d.engine.Migrations() {
		if m.Version() >= v {
			break
		}
		prev = m.Version()
	}
	return prev
}

// MigrateTo moves an open database to version and keeps that as the target
// for later reopens.
func (d *Database) MigrateTo(ctx context.Context, version int) error {
	if version < 0 || version > d.engine.Latest() {
		return fmt.Errorf("schema version %d out of range [0, %d]", version, d.engine.Latest())
	}

	db, err := d.Conn(ctx)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.migrate(db.WithContext(ctx), version); err != nil {
		return err
	}
	d.target = version
	return nil
}

// SchemaVersion reports the version stored in the database file.
func (d *Database) SchemaVersion(ctx context.Context) (int, error) {
	db, err := d.Conn(ctx)
	if err != nil {
		return 0, err
	}
	return userVersion(db.WithContext(ctx))
}

// StoredVersion reads the schema version of the file at path without
// opening it for use or migrating it. A missing file reports 0.
func StoredVersion(ctx context.Context, path string) (int, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}

	db, err := gorm.Open(sqlite.Open(dsn(path)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to connect to database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return 0, fmt.Errorf("failed to get database handle: %w", err)
	}
	defer sqlDB.Close()

	return userVersion(db.WithContext(ctx))
}

// LatestVersion is the highest version the registered migrations reach.
func (d *Database) LatestVersion() int {
	return d.engine.Latest()
}

// Ping checks that the handle is usable.
func (d *Database) Ping(ctx context.Context) error {
	db, err := d.Conn(ctx)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the handle. The next Conn opens it again.
func (d *Database) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.db == nil {
		return nil
	}
	sqlDB, err := d.db.DB()
	d.db = nil
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// dsn turns on SQLite foreign key enforcement for every connection of the pool.
func dsn(path string) string {
	if strings.Contains(path, "?") {
		return path + "&_foreign_keys=on"
	}
	return path + "?_foreign_keys=on"
}

func userVersion(db *gorm.DB) (int, error) {
	var version int
	if err := db.Raw("PRAGMA user_version").Row().Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}

func setUserVersion(db *gorm.DB, version int) error {
	// PRAGMA does not accept bound parameters.
	return db.Exec(fmt.Sprintf("PRAGMA user_version = %d", version)).Error
}

func recreate(db *gorm.DB) error {
	tables, err := db.Migrator().GetTables()
	if err != nil {
		return fmt.Errorf("failed to list tables: %w", err)
	}

	if err := db.Exec("PRAGMA foreign_keys = OFF").Error; err != nil {
		return err
	}
	defer db.Exec("PRAGMA foreign_keys = ON")

	for _, table := range tables {
		if strings.HasPrefix(table, "sqlite_") {
			continue
		}
		if err := db.Migrator().DropTable(table); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", table, err)
		}
	}
	return setUserVersion(db, 0)
}

// ParseLogLevel maps a config value to a gorm log level. Unknown values fall
// back to warn.
func ParseLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}
