// Package users provides database operations for the reader's sessions and
// aggregated statistics.
//
// There is a single reader. Their statistics live in the one user_stats row
// and are kept current as sessions are logged and books are finished.
//
// # Usage
//
//	repo := users.NewRepository(db)
//	err := repo.LogSession(ctx, session)
//	stats, err := repo.GetStats(ctx)
package users

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mrlokans/readtracker/internal/database/books"
	"github.com/mrlokans/readtracker/internal/entities"
	"github.com/mrlokans/readtracker/internal/store"
	"github.com/mrlokans/readtracker/internal/streak"
)

// Option customises a Repository.
type Option func(*Repository)

// WithClock overrides the time source that decides what "today" is.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) {
		r.now = now
	}
}

// Repository handles reading sessions and user statistics.
type Repository struct {
	sessions *store.Store[entities.ReadingSession, string]
	stats    *store.Store[entities.UserStats, int64]
	books    *store.Store[entities.Book, string]
	now      func() time.Time
}

// NewRepository creates a new users repository.
func NewRepository(conn store.Connector, opts ...Option) *Repository {
	r := &Repository{
		sessions: store.New[entities.ReadingSession, string](conn, SessionCodec{}),
		stats:    store.New[entities.UserStats, int64](conn, StatsCodec{}),
		books:    store.New[entities.Book, string](conn, books.Codec{}),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// GetAllSessions returns every reading session.
func (r *Repository) GetAllSessions(ctx context.Context) ([]entities.ReadingSession, error) {
	return r.sessions.GetAll(ctx)
}

// GetSession retrieves a session by id.
func (r *Repository) GetSession(ctx context.Context, id string) (entities.ReadingSession, bool, error) {
	return r.sessions.GetByID(ctx, id)
}

// InsertSession stores a session without touching the statistics. Use
// LogSession to record reading.
func (r *Repository) InsertSession(ctx context.Context, session entities.ReadingSession) error {
	return r.sessions.Insert(ctx, session)
}

// UpdateSession replaces a stored session.
func (r *Repository) UpdateSession(ctx context.Context, session entities.ReadingSession) error {
	return r.sessions.Update(ctx, session)
}

// DeleteSession removes a session.
func (r *Repository) DeleteSession(ctx context.Context, id string) error {
	return r.sessions.Delete(ctx, id)
}

// SessionExists reports whether a session with the id is stored.
func (r *Repository) SessionExists(ctx context.Context, id string) (bool, error) {
	return r.sessions.Exists(ctx, id)
}

// CountSessions returns the number of stored sessions.
func (r *Repository) CountSessions(ctx context.Context) (int64, error) {
	return r.sessions.Count(ctx)
}

// ClearSessions removes every session.
func (r *Repository) ClearSessions(ctx context.Context) error {
	return r.sessions.Clear(ctx)
}

// WatchSessions streams the full session list.
func (r *Repository) WatchSessions(ctx context.Context) <-chan store.Snapshot[entities.ReadingSession] {
	return r.sessions.WatchAll(ctx)
}

// WatchSession streams a single session.
func (r *Repository) WatchSession(ctx context.Context, id string) <-chan store.Item[entities.ReadingSession] {
	return r.sessions.WatchByID(ctx, id)
}

// GetSessionsBetween returns sessions with start <= session date <= end,
// oldest first.
func (r *Repository) GetSessionsBetween(ctx context.Context, start, end time.Time) ([]entities.ReadingSession, error) {
	return r.sessions.Find(ctx, store.Query{
		Where: "session_date >= ? AND session_date <= ?",
		Args:  []any{store.ToMillis(start), store.ToMillis(end)},
		Order: "session_date ASC",
	})
}

// GetSessionsForBook returns the sessions of one book, newest first.
func (r *Repository) GetSessionsForBook(ctx context.Context, bookID string) ([]entities.ReadingSession, error) {
	return r.sessions.Find(ctx, store.Query{
		Where: "book_id = ?",
		Args:  []any{bookID},
		Order: "session_date DESC",
	})
}

// GetStats returns the statistics row.
func (r *Repository) GetStats(ctx context.Context) (entities.UserStats, error) {
	stats, found, err := r.stats.GetByID(ctx, entities.UserStatsID)
	if err != nil {
		return entities.UserStats{}, err
	}
	if !found {
		return entities.UserStats{}, fmt.Errorf("user stats: %w", store.ErrEntityNotFound)
	}
	return stats, nil
}

// WatchStats streams the statistics row.
func (r *Repository) WatchStats(ctx context.Context) <-chan store.Item[entities.UserStats] {
	return r.stats.WatchByID(ctx, entities.UserStatsID)
}

// PagesReadOnDate sums the pages of all sessions on date's calendar day.
func (r *Repository) PagesReadOnDate(ctx context.Context, date time.Time) (int, error) {
	sessions, err := r.GetSessionsBetween(ctx, streak.StartOfDay(date), streak.EndOfDay(date))
	if err != nil {
		return 0, err
	}

	total := 0
	for _, s := range sessions {
		total += s.PagesRead
	}
	return total, nil
}

// HasReadToday reports whether any session falls on today's calendar day.
func (r *Repository) HasReadToday(ctx context.Context) (bool, error) {
	return r.hasReadOn(ctx, r.now())
}

func (r *Repository) hasReadOn(ctx context.Context, day time.Time) (bool, error) {
	n, err := r.sessions.CountWhere(ctx, "session_date >= ? AND session_date <= ?",
		store.ToMillis(streak.StartOfDay(day)), store.ToMillis(streak.EndOfDay(day)))
	return n > 0, err
}

// LogSession stores a session and folds it into the statistics: its pages
// are added to the total, its date becomes the last reading date, and the
// streak is recomputed.
func (r *Repository) LogSession(ctx context.Context, session entities.ReadingSession) error {
	if session.ID == "" {
		session.ID = entities.NewID()
	}
	if err := r.sessions.Insert(ctx, session); err != nil {
		return err
	}

	stats, err := r.GetStats(ctx)
	if err != nil {
		return err
	}

	current, err := r.CalculateStreak(ctx)
	if err != nil {
		return err
	}

	sessionDate := session.SessionDate
	stats.TotalPagesRead += session.PagesRead
	stats.LastReadingDate = &sessionDate
	stats.CurrentStreak = current
	stats.LongestStreak = max(stats.LongestStreak, current)

	return r.stats.Update(ctx, stats)
}

// CalculateStreak derives the current streak from the stored sessions.
func (r *Repository) CalculateStreak(ctx context.Context) (int, error) {
	dates, err := r.sessionDates(ctx)
	if err != nil {
		return 0, err
	}
	return streak.Calculate(dates, r.now()), nil
}

// UpdateStreakOnProgress recomputes the streak after reading progress was
// made, raising the longest streak if needed and stamping now as the last
// reading date.
func (r *Repository) UpdateStreakOnProgress(ctx context.Context) (entities.UserStats, error) {
	stats, err := r.GetStats(ctx)
	if err != nil {
		return entities.UserStats{}, err
	}

	current, err := r.CalculateStreak(ctx)
	if err != nil {
		return entities.UserStats{}, err
	}

	now := r.now()
	stats.CurrentStreak = current
	stats.LongestStreak = max(stats.LongestStreak, current)
	stats.LastReadingDate = &now

	if err := r.stats.Update(ctx, stats); err != nil {
		return entities.UserStats{}, err
	}
	return stats, nil
}

// ResetStreakIfMissed zeroes the current streak when there was no reading
// today or yesterday. The longest streak is left alone. It reports whether
// the streak was reset.
func (r *Repository) ResetStreakIfMissed(ctx context.Context) (bool, error) {
	now := r.now()

	readToday, err := r.hasReadOn(ctx, now)
	if err != nil || readToday {
		return false, err
	}
	readYesterday, err := r.hasReadOn(ctx, now.AddDate(0, 0, -1))
	if err != nil || readYesterday {
		return false, err
	}

	stats, err := r.GetStats(ctx)
	if err != nil {
		return false, err
	}
	if stats.CurrentStreak == 0 {
		return false, nil
	}

	log.Printf("Streak of %d day(s) missed, resetting", stats.CurrentStreak)
	stats.CurrentStreak = 0
	if err := r.stats.Update(ctx, stats); err != nil {
		return false, err
	}
	return true, nil
}

// RecordBookFinished counts one more finished book.
func (r *Repository) RecordBookFinished(ctx context.Context) error {
	stats, err := r.GetStats(ctx)
	if err != nil {
		return err
	}
	stats.TotalBooksRead++
	return r.stats.Update(ctx, stats)
}

// RecomputeStats rebuilds the statistics from the sessions and books tables.
// The longest streak never decreases.
func (r *Repository) RecomputeStats(ctx context.Context) (entities.UserStats, error) {
	stats, err := r.GetStats(ctx)
	if err != nil {
		return entities.UserStats{}, err
	}

	sessions, err := r.sessions.GetAll(ctx)
	if err != nil {
		return entities.UserStats{}, err
	}

	finished, err := r.books.CountWhere(ctx, "status = ?", string(entities.BookStatusFinished))
	if err != nil {
		return entities.UserStats{}, err
	}

	now := r.now()
	dates := make([]time.Time, 0, len(sessions))
	pages := 0
	var last *time.Time
	for _, s := range sessions {
		dates = append(dates, s.SessionDate)
		pages += s.PagesRead
		if last == nil || s.SessionDate.After(*last) {
			d := s.SessionDate
			last = &d
		}
	}

	stats.TotalPagesRead = pages
	stats.TotalBooksRead = int(finished)
	stats.CurrentStreak = streak.Calculate(dates, now)
	stats.LongestStreak = max(stats.LongestStreak, streak.Longest(dates, now.Location()), stats.CurrentStreak)
	stats.LastReadingDate = last

	if err := r.stats.Update(ctx, stats); err != nil {
		return entities.UserStats{}, err
	}
	log.Printf("Recomputed stats: %d pages, %d books, streak %d (longest %d)",
		stats.TotalPagesRead, stats.TotalBooksRead, stats.CurrentStreak, stats.LongestStreak)
	return stats, nil
}

func (r *Repository) sessionDates(ctx context.Context) ([]time.Time, error) {
	sessions, err := r.sessions.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	dates := make([]time.Time, 0, len(sessions))
	for _, s := range sessions {
		dates = append(dates, s.SessionDate)
	}
	return dates, nil
}

// Close ends every subscription owned by the repository.
func (r *Repository) Close() {
	r.sessions.Close()
	r.stats.Close()
	r.books.Close()
}
