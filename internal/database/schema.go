package database

import (
	"github.com/mrlokans/readtracker/internal/database/migrations"
)

// Versions of the bundled schema.
const (
	SchemaInitial          = 1
	SchemaSessionTimeSpent = 2
	SchemaSessionDateIndex = 3
	LatestSchemaVersion    = SchemaSessionDateIndex
)

// SchemaMigrations returns the migrations that build the reading tracker
// schema, in version order.
func SchemaMigrations() []migrations.Migration {
	return []migrations.Migration{
		migrations.Statements{
			Number:  SchemaInitial,
			Summary: "create books, quotes, reading_sessions and user_stats",
			Forward: []string{
				`CREATE TABLE books (
					id TEXT PRIMARY KEY NOT NULL,
					title TEXT NOT NULL,
					author TEXT NOT NULL,
					cover_url TEXT NULL,
					total_pages INTEGER NOT NULL,
					pages_read INTEGER NOT NULL DEFAULT 0,
					status TEXT NOT NULL,
					created_at INTEGER NOT NULL,
					finished_at INTEGER NULL
				)`,
				`CREATE TABLE quotes (
					id TEXT PRIMARY KEY NOT NULL,
					book_id TEXT NOT NULL REFERENCES books(id) ON DELETE CASCADE,
					text TEXT NOT NULL,
					page_number INTEGER NULL,
					created_at INTEGER NOT NULL
				)`,
				`CREATE TABLE reading_sessions (
					id TEXT PRIMARY KEY NOT NULL,
					book_id TEXT NOT NULL REFERENCES books(id) ON DELETE CASCADE,
					pages_read INTEGER NOT NULL,
					session_date INTEGER NOT NULL
				)`,
				`CREATE TABLE user_stats (
					id INTEGER PRIMARY KEY NOT NULL CHECK (id = 1),
					current_streak INTEGER NOT NULL DEFAULT 0,
					longest_streak INTEGER NOT NULL DEFAULT 0,
					total_books_read INTEGER NOT NULL DEFAULT 0,
					total_pages_read INTEGER NOT NULL DEFAULT 0,
					last_reading_date INTEGER NULL
				)`,
				`INSERT INTO user_stats (id, current_streak, longest_streak, total_books_read, total_pages_read)
					VALUES (1, 0, 0, 0, 0)`,
				`CREATE INDEX idx_books_status ON books (status)`,
				`CREATE INDEX idx_books_created_at ON books (created_at)`,
				`CREATE INDEX idx_quotes_book_id ON quotes (book_id)`,
				`CREATE INDEX idx_quotes_created_at ON quotes (created_at)`,
				`CREATE INDEX idx_reading_sessions_book_id ON reading_sessions (book_id)`,
			},
			Reverse: []string{
				`DROP TABLE IF EXISTS reading_sessions`,
				`DROP TABLE IF EXISTS quotes`,
				`DROP TABLE IF EXISTS user_stats`,
				`DROP TABLE IF EXISTS books`,
			},
		},
		migrations.AddColumn{
			Number:     SchemaSessionTimeSpent,
			Table:      "reading_sessions",
			Column:     "time_spent",
			Definition: "INTEGER NULL",
		},
		migrations.CreateIndex{
			Number:  SchemaSessionDateIndex,
			Name:    "idx_reading_sessions_session_date",
			Table:   "reading_sessions",
			Columns: []string{"session_date"},
		},
	}
}
