package migrations

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// AddColumn adds one column to an existing table. Reverting drops it again.
type AddColumn struct {
	Number     int
	Table      string
	Column     string
	Definition string
}

func (m AddColumn) Version() int { return m.Number }

func (m AddColumn) Description() string {
	return fmt.Sprintf("add column %s.%s", m.Table, m.Column)
}

func (m AddColumn) Up(tx *gorm.DB) error {
	return tx.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", m.Table, m.Column, m.Definition)).Error
}

func (m AddColumn) Down(tx *gorm.DB) error {
	return tx.Exec(fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", m.Table, m.Column)).Error
}

// CreateIndex creates an index. Reverting drops it.
type CreateIndex struct {
	Number  int
	Name    string
	Table   string
	Columns []string
	Unique  bool
}

func (m CreateIndex) Version() int { return m.Number }

func (m CreateIndex) Description() string {
	return fmt.Sprintf("create index %s on %s", m.Name, m.Table)
}

func (m CreateIndex) Up(tx *gorm.DB) error {
	unique := ""
	if m.Unique {
		unique = "UNIQUE "
	}
	stmt := fmt.Sprintf("CREATE %sINDEX IF NOT EXISTS %s ON %s (%s)",
		unique, m.Name, m.Table, strings.Join(m.Columns, ", "))
	return tx.Exec(stmt).Error
}

func (m CreateIndex) Down(tx *gorm.DB) error {
	return tx.Exec("DROP INDEX IF EXISTS " + m.Name).Error
}

// Statements runs raw SQL. A nil Reverse makes the unit irreversible.
type Statements struct {
	Number  int
	Summary string
	Forward []string
	Reverse []string
}

func (m Statements) Version() int { return m.Number }

func (m Statements) Description() string {
	if m.Summary != "" {
		return m.Summary
	}
	return fmt.Sprintf("%d statements", len(m.Forward))
}

func (m Statements) Up(tx *gorm.DB) error {
	return execAll(tx, m.Forward)
}

func (m Statements) Down(tx *gorm.DB) error {
	if m.Reverse == nil {
		return ErrRollbackUnsupported
	}
	return execAll(tx, m.Reverse)
}

func execAll(tx *gorm.DB, stmts []string) error {
	for _, stmt := range stmts {
		if err := tx.Exec(stmt).Error; err != nil {
			return fmt.Errorf("exec %q: %w", firstLine(stmt), err)
		}
	}
	return nil
}

func firstLine(stmt string) string {
	stmt = strings.TrimSpace(stmt)
	if i := strings.IndexByte(stmt, '\n'); i >= 0 {
		return stmt[:i]
	}
	return stmt
}
