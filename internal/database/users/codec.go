package users

import (
	"time"

	"github.com/mrlokans/readtracker/internal/entities"
	"github.com/mrlokans/readtracker/internal/store"
)

// SessionCodec maps reading sessions to rows of the reading_sessions table.
// Time spent is stored in milliseconds.
type SessionCodec struct{}

var _ store.Codec[entities.ReadingSession, string] = SessionCodec{}

func (SessionCodec) Table() string                             { return "reading_sessions" }
func (SessionCodec) KeyColumn() string                         { return "id" }
func (SessionCodec) ID(session entities.ReadingSession) string { return session.ID }

// Encode leaves time_spent out when it is unknown, so sessions can be
// written to a schema that predates the column.
func (SessionCodec) Encode(session entities.ReadingSession) store.Record {
	rec := store.Record{
		"id":           session.ID,
		"book_id":      session.BookID,
		"pages_read":   session.PagesRead,
		"session_date": store.ToMillis(session.SessionDate),
	}
	if session.TimeSpent != nil {
		rec["time_spent"] = session.TimeSpent.Milliseconds()
	}
	return rec
}

func (SessionCodec) Decode(rec store.Record) (entities.ReadingSession, error) {
	var (
		session entities.ReadingSession
		err     error
	)
	if session.ID, err = store.String(rec, "id"); err != nil {
		return entities.ReadingSession{}, err
	}
	if session.BookID, err = store.String(rec, "book_id"); err != nil {
		return entities.ReadingSession{}, err
	}
	if session.PagesRead, err = store.Int(rec, "pages_read"); err != nil {
		return entities.ReadingSession{}, err
	}

	ms, err := store.OptionalInt64(rec, "time_spent")
	if err != nil {
		return entities.ReadingSession{}, err
	}
	if ms != nil {
		d := time.Duration(*ms) * time.Millisecond
		session.TimeSpent = &d
	}

	if session.SessionDate, err = store.Millis(rec, "session_date"); err != nil {
		return entities.ReadingSession{}, err
	}
	return session, nil
}

// StatsCodec maps the single user_stats row.
type StatsCodec struct{}

var _ store.Codec[entities.UserStats, int64] = StatsCodec{}

func (StatsCodec) Table() string               { return "user_stats" }
func (StatsCodec) KeyColumn() string           { return "id" }
func (StatsCodec) ID(entities.UserStats) int64 { return entities.UserStatsID }

func (StatsCodec) Encode(stats entities.UserStats) store.Record {
	return store.Record{
		"id":                entities.UserStatsID,
		"current_streak":    stats.CurrentStreak,
		"longest_streak":    stats.LongestStreak,
		"total_books_read":  stats.TotalBooksRead,
		"total_pages_read":  stats.TotalPagesRead,
		"last_reading_date": store.OptionalToMillis(stats.LastReadingDate),
	}
}

func (StatsCodec) Decode(rec store.Record) (entities.UserStats, error) {
	var (
		stats entities.UserStats
		err   error
	)
	if stats.CurrentStreak, err = store.Int(rec, "current_streak"); err != nil {
		return entities.UserStats{}, err
	}
	if stats.LongestStreak, err = store.Int(rec, "longest_streak"); err != nil {
		return entities.UserStats{}, err
	}
	if stats.TotalBooksRead, err = store.Int(rec, "total_books_read"); err != nil {
		return entities.UserStats{}, err
	}
	if stats.TotalPagesRead, err = store.Int(rec, "total_pages_read"); err != nil {
		return entities.UserStats{}, err
	}
	if stats.LastReadingDate, err = store.OptionalMillis(rec, "last_reading_date"); err != nil {
		return entities.UserStats{}, err
	}
	return stats, nil
}
