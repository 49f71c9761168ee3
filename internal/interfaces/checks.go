package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/readtracker/internal/covers"
	"github.com/mrlokans/readtracker/internal/database"
	"github.com/mrlokans/readtracker/internal/database/books"
	"github.com/mrlokans/readtracker/internal/database/migrations"
	"github.com/mrlokans/readtracker/internal/database/quotes"
	"github.com/mrlokans/readtracker/internal/database/users"
	"github.com/mrlokans/readtracker/internal/entities"
	"github.com/mrlokans/readtracker/internal/exporters"
	"github.com/mrlokans/readtracker/internal/http"
	"github.com/mrlokans/readtracker/internal/scheduler"
	"github.com/mrlokans/readtracker/internal/store"
	"github.com/mrlokans/readtracker/internal/tasks"
)

// =============================================================================
// Persistence Core
// =============================================================================

// Connector implementations
var _ store.Connector = (*database.Database)(nil)

// Codec implementations
var _ store.Codec[entities.Book, string] = books.Codec{}
var _ store.Codec[entities.Quote, string] = quotes.Codec{}
var _ store.Codec[entities.ReadingSession, string] = users.SessionCodec{}
var _ store.Codec[entities.UserStats, int64] = users.StatsCodec{}

// Migration implementations
var _ migrations.Migration = migrations.AddColumn{}
var _ migrations.Migration = migrations.CreateIndex{}
var _ migrations.Migration = migrations.Statements{}

// =============================================================================
// Data Access Layer
// =============================================================================

var _ http.BookStore = (*books.Repository)(nil)
var _ http.QuoteStore = (*quotes.Repository)(nil)
var _ http.ReadingStore = (*users.Repository)(nil)
var _ http.HealthChecker = (*database.Database)(nil)
var _ http.CoverCache = (*covers.Cache)(nil)

// =============================================================================
// Background Work
// =============================================================================

var _ tasks.StreakResetter = (*users.Repository)(nil)
var _ tasks.StatsRecomputer = (*users.Repository)(nil)
var _ scheduler.TaskEnqueuer = (*tasks.Client)(nil)
var _ http.TaskQueue = (*tasks.Client)(nil)

// =============================================================================
// Export
// =============================================================================

var _ exporters.BookExporter = (*exporters.MarkdownExporter)(nil)
