// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Lazy connection, foreign keys, open-time migrations
//	├── schema.go        # Bundled schema migrations
//	├── migrations/      # Versioned migration engine and unit kinds
//	├── books/           # Book CRUD, status filters, progress
//	├── quotes/          # Quote CRUD, per-book filters, random pick
//	└── users/           # Reading sessions, stats and streaks
//
// # Using Sub-packages
//
// Each sub-package provides a Repository built on the generic store:
//
//	// Prepare the database; it is opened on first use
//	db, err := database.Open("./readtracker.db")
//
//	// Create domain-specific repositories
//	booksRepo := books.NewRepository(db)
//	quotesRepo := quotes.NewRepository(db)
//	usersRepo := users.NewRepository(db)
//
//	// Use repositories
//	book, found, err := booksRepo.GetByID(ctx, id)
//	updates := booksRepo.WatchByStatus(ctx, entities.BookStatusReading)
//
// # Schema Versions
//
// The schema version lives in PRAGMA user_version. Every open compares it
// with the target version: older files are migrated forward, newer ones are
// rolled back, and a rollback through an irreversible migration drops every
// table and rebuilds the schema from scratch.
//
// # Adding a New Domain
//
// To add a new domain (e.g., goals):
//
//  1. Add a migration creating its table to SchemaMigrations
//  2. Create a new sub-package: internal/database/goals/
//  3. Write a store.Codec for the entity
//  4. Add NewRepository(conn store.Connector) wrapping store.New
//  5. Add compile-time interface check: var _ SomeInterface = (*Repository)(nil)
package database
