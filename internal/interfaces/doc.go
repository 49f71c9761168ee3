// Package interfaces documents the core abstractions used throughout the application.
//
// This package consolidates interface documentation to help contributors find
// extension points and see how to implement new functionality.
//
// # Interface Categories
//
// ## Persistence Core
//
//   - Connector: Lazily opened shared database handle (internal/store/store.go)
//   - Codec: Entity to record mapping for one table (internal/store/codec.go)
//   - Migration: One versioned schema step (internal/database/migrations/migrations.go)
//
// ## Data Access Interfaces
//
//   - BookStore: Books and their change streams (internal/http/stores.go)
//   - QuoteStore: Quotes and random selection (internal/http/stores.go)
//   - ReadingStore: Sessions and statistics (internal/http/stores.go)
//   - HealthChecker: Database reachability and schema version (internal/http/stores.go)
//   - CoverCache: Local copies of cover images (internal/http/stores.go)
//
// ## Export
//
//   - BookExporter: Writes books with their quotes outside the database
//     (internal/exporters/generic.go)
//
// ## Background Work Interfaces
//
//   - StreakResetter, StatsRecomputer: Task processors' view of the users
//     repository (internal/tasks/streak.go)
//   - TaskEnqueuer, TaskQueue: Hand work to the task queue
//     (internal/scheduler/streak_reset.go, internal/http/stores.go)
//
// # Adding a New Entity
//
// To store a new kind of entity (e.g., reading goals):
//
//  1. Add the entity to internal/entities/
//
//  2. Add a schema migration to internal/database/schema.go:
//
//     migrations.Statements{
//         Number:  4,
//         Summary: "create reading_goals",
//         Forward: []string{`CREATE TABLE reading_goals (...)`},
//         Reverse: []string{`DROP TABLE reading_goals`},
//     }
//
//  3. Create sub-package internal/database/goals/ with a codec and repository:
//
//     type Codec struct{}
//
//     func (Codec) Table() string     { return "reading_goals" }
//     func (Codec) KeyColumn() string { return "id" }
//
//     type Repository struct {
//         *store.Store[entities.Goal, string]
//     }
//
//     func NewRepository(conn store.Connector) *Repository
//
//  4. Add compile-time checks:
//
//     var _ store.Codec[entities.Goal, string] = goals.Codec{}
//
// # Adding a Background Task
//
//  1. Define the task and its processor in internal/tasks/
//
//     type WeeklySummaryTask struct{}
//
//     func (t WeeklySummaryTask) Config() backlite.QueueConfig
//
//  2. Register its queue in internal/tasks/client.go the way
//     RegisterStreakQueues does; Enqueue rejects tasks whose queue was never
//     registered
//
//  3. Call the registration from entrypoint.go before Start
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// This pattern is used throughout the codebase. See checks.go for examples.
package interfaces
