package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/readtracker/internal/entities"
	"github.com/mrlokans/readtracker/internal/streak"
	"github.com/mrlokans/readtracker/internal/tasks"
)

// ReadingController serves reading sessions and the statistics derived from them.
type ReadingController struct {
	reading ReadingStore
	books   BookStore
	tasks   TaskQueue
}

func NewReadingController(reading ReadingStore, books BookStore, queue TaskQueue) *ReadingController {
	return &ReadingController{
		reading: reading,
		books:   books,
		tasks:   queue,
	}
}

// SessionRequest is the body of POST /api/sessions.
type SessionRequest struct {
	BookID           string     `json:"book_id" binding:"required"`
	PagesRead        int        `json:"pages_read" binding:"gte=0"`
	TimeSpentMinutes *int       `json:"time_spent_minutes" binding:"omitempty,gte=0"`
	SessionDate      *time.Time `json:"session_date"`
}

// TodayResponse summarises today's reading.
type TodayResponse struct {
	Date      string `json:"date"`
	PagesRead int    `json:"pages_read"`
	HasRead   bool   `json:"has_read"`
}

// LogSession handles POST /api/sessions. The session is stored and folded
// into the statistics.
func (rc *ReadingController) LogSession(c *gin.Context) {
	var req SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	ctx := c.Request.Context()
	_, found, err := rc.books.GetByID(ctx, req.BookID)
	if err != nil {
		respondStoreError(c, err, "book")
		return
	}
	if !found {
		respondNotFound(c, "book")
		return
	}

	session := entities.ReadingSession{
		ID:          entities.NewID(),
		BookID:      req.BookID,
		PagesRead:   req.PagesRead,
		SessionDate: nowMillis(),
	}
	if req.SessionDate != nil {
		session.SessionDate = time.UnixMilli(req.SessionDate.UnixMilli())
	}
	if req.TimeSpentMinutes != nil {
		spent := time.Duration(*req.TimeSpentMinutes) * time.Minute
		session.TimeSpent = &spent
	}

	if err := rc.reading.LogSession(ctx, session); err != nil {
		respondStoreError(c, err, "session")
		return
	}
	respondCreated(c, session)
}

// GetSessions handles GET /api/sessions. ?book_id= selects one book's
// sessions; ?from= and ?to= (YYYY-MM-DD, inclusive) select a date range.
func (rc *ReadingController) GetSessions(c *gin.Context) {
	ctx := c.Request.Context()

	if bookID := c.Query("book_id"); bookID != "" {
		sessions, err := rc.reading.GetSessionsForBook(ctx, bookID)
		if err != nil {
			respondStoreError(c, err, "sessions")
			return
		}
		respondSessions(c, sessions)
		return
	}

	from, ok := parseDateQuery(c, "from")
	if !ok {
		return
	}
	to, ok := parseDateQuery(c, "to")
	if !ok {
		return
	}

	var (
		sessions []entities.ReadingSession
		err      error
	)
	if from == nil && to == nil {
		sessions, err = rc.reading.GetAllSessions(ctx)
	} else {
		start := time.UnixMilli(0)
		end := time.Date(9999, time.December, 31, 0, 0, 0, 0, time.Local)
		if from != nil {
			start = streak.StartOfDay(*from)
		}
		if to != nil {
			end = streak.EndOfDay(*to)
		}
		if end.Before(start) {
			respondBadRequest(c, "from must not be after to")
			return
		}
		sessions, err = rc.reading.GetSessionsBetween(ctx, start, end)
	}
	if err != nil {
		respondStoreError(c, err, "sessions")
		return
	}
	respondSessions(c, sessions)
}

func respondSessions(c *gin.Context, sessions []entities.ReadingSession) {
	if sessions == nil {
		sessions = []entities.ReadingSession{}
	}
	c.IndentedJSON(http.StatusOK, gin.H{"sessions": sessions, "count": len(sessions)})
}

// DeleteSession handles DELETE /api/sessions/:id. Statistics are not
// adjusted; use POST /api/stats/recompute to rebuild them.
func (rc *ReadingController) DeleteSession(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := rc.reading.DeleteSession(c.Request.Context(), id); err != nil {
		respondStoreError(c, err, "session")
		return
	}
	respondSuccess(c, "session deleted")
}

// GetStats handles GET /api/stats.
func (rc *ReadingController) GetStats(c *gin.Context) {
	stats, err := rc.reading.GetStats(c.Request.Context())
	if err != nil {
		respondStoreError(c, err, "user stats")
		return
	}
	c.IndentedJSON(http.StatusOK, stats)
}

// WatchStats handles GET /api/stats/watch as a server-sent event stream.
func (rc *ReadingController) WatchStats(c *gin.Context) {
	streamItem(c, "stats", rc.reading.WatchStats(c.Request.Context()))
}

// GetToday handles GET /api/stats/today.
func (rc *ReadingController) GetToday(c *gin.Context) {
	ctx := c.Request.Context()
	now := time.Now()

	pages, err := rc.reading.PagesReadOnDate(ctx, now)
	if err != nil {
		respondStoreError(c, err, "sessions")
		return
	}
	hasRead, err := rc.reading.HasReadToday(ctx)
	if err != nil {
		respondStoreError(c, err, "sessions")
		return
	}

	c.IndentedJSON(http.StatusOK, TodayResponse{
		Date:      now.Format(dateLayout),
		PagesRead: pages,
		HasRead:   hasRead,
	})
}

// RecomputeStats handles POST /api/stats/recompute. With a task queue the
// work is enqueued and 202 is returned; otherwise it runs inline.
func (rc *ReadingController) RecomputeStats(c *gin.Context) {
	if rc.tasks != nil {
		taskID, err := rc.tasks.Enqueue(tasks.RecomputeStatsTask{Reason: "api"})
		if err != nil {
			respondInternalError(c, err, "enqueue recompute_stats")
			return
		}
		respondAccepted(c, "task enqueued", gin.H{"task_id": taskID, "queue": "recompute_stats"})
		return
	}

	stats, err := rc.reading.RecomputeStats(c.Request.Context())
	if err != nil {
		respondStoreError(c, err, "user stats")
		return
	}
	c.IndentedJSON(http.StatusOK, stats)
}
