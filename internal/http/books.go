package http

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/readtracker/internal/entities"
)

type BooksController struct {
	books   BookStore
	quotes  QuoteStore
	reading ReadingStore
	covers  CoverCache
}

func NewBooksController(books BookStore, quotes QuoteStore, reading ReadingStore, covers CoverCache) *BooksController {
	return &BooksController{
		books:   books,
		quotes:  quotes,
		reading: reading,
		covers:  covers,
	}
}

// BookResponse is a book with its derived progress.
type BookResponse struct {
	entities.Book
	Progress float64 `json:"progress"`
}

func newBookResponse(book entities.Book) BookResponse {
	return BookResponse{Book: book, Progress: book.Progress()}
}

// BookRequest is the body of book create and replace requests.
type BookRequest struct {
	Title      string  `json:"title" binding:"required"`
	Author     string  `json:"author" binding:"required"`
	CoverURL   *string `json:"cover_url"`
	TotalPages int     `json:"total_pages" binding:"gte=0"`
	PagesRead  int     `json:"pages_read" binding:"gte=0"`
	Status     string  `json:"status"`
}

// ProgressRequest is the body of POST /api/books/:id/progress.
type ProgressRequest struct {
	PagesRead *int `json:"pages_read" binding:"required"`
}

func (r BookRequest) status() (entities.BookStatus, error) {
	if r.Status == "" {
		return entities.BookStatusWant, nil
	}
	return entities.ParseBookStatus(r.Status)
}

// GetAllBooks handles GET /api/books, optionally filtered by ?status=.
func (controller *BooksController) GetAllBooks(c *gin.Context) {
	var (
		books []entities.Book
		err   error
	)
	if raw := c.Query("status"); raw != "" {
		status, parseErr := entities.ParseBookStatus(raw)
		if parseErr != nil {
			respondBadRequest(c, parseErr.Error())
			return
		}
		books, err = controller.books.GetByStatus(c.Request.Context(), status)
	} else {
		books, err = controller.books.GetAll(c.Request.Context())
	}
	if err != nil {
		respondStoreError(c, err, "books")
		return
	}

	response := make([]BookResponse, 0, len(books))
	for _, book := range books {
		response = append(response, newBookResponse(book))
	}
	c.IndentedJSON(http.StatusOK, gin.H{"books": response, "count": len(response)})
}

// GetBook handles GET /api/books/:id. The book's quotes are included.
func (controller *BooksController) GetBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, found, err := controller.books.GetWithQuotes(c.Request.Context(), id)
	if err != nil {
		respondStoreError(c, err, "book")
		return
	}
	if !found {
		respondNotFound(c, "book")
		return
	}
	c.IndentedJSON(http.StatusOK, newBookResponse(book))
}

// CreateBook handles POST /api/books.
func (controller *BooksController) CreateBook(c *gin.Context) {
	var req BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}
	status, err := req.status()
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	book := entities.Book{
		ID:         entities.NewID(),
		Title:      req.Title,
		Author:     req.Author,
		CoverURL:   req.CoverURL,
		TotalPages: req.TotalPages,
		PagesRead:  req.PagesRead,
		Status:     status,
		CreatedAt:  nowMillis(),
	}
	if book.Status == entities.BookStatusFinished {
		finished := book.CreatedAt
		book.FinishedAt = &finished
	}

	ctx := c.Request.Context()
	if err := controller.books.Insert(ctx, book); err != nil {
		respondStoreError(c, err, "book")
		return
	}
	if book.Status == entities.BookStatusFinished {
		if err := controller.recordFinished(ctx); err != nil {
			respondStoreError(c, err, "user stats")
			return
		}
	}
	respondCreated(c, newBookResponse(book))
}

// UpdateBook handles PUT /api/books/:id and replaces the editable fields.
func (controller *BooksController) UpdateBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}
	status, err := req.status()
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	book, found, err := controller.books.GetByID(ctx, id)
	if err != nil {
		respondStoreError(c, err, "book")
		return
	}
	if !found {
		respondNotFound(c, "book")
		return
	}

	coverChanged := stringValue(book.CoverURL) != stringValue(req.CoverURL)
	wasFinished := book.Status == entities.BookStatusFinished

	book.Title = req.Title
	book.Author = req.Author
	book.CoverURL = req.CoverURL
	book.TotalPages = req.TotalPages
	book.PagesRead = req.PagesRead
	book.Status = status
	switch {
	case status != entities.BookStatusFinished:
		book.FinishedAt = nil
	case book.FinishedAt == nil:
		now := nowMillis()
		book.FinishedAt = &now
	}

	if err := controller.books.Update(ctx, book); err != nil {
		respondStoreError(c, err, "book")
		return
	}
	if !wasFinished && status == entities.BookStatusFinished {
		if err := controller.recordFinished(ctx); err != nil {
			respondStoreError(c, err, "user stats")
			return
		}
	}
	if coverChanged {
		controller.invalidateCover(book.ID)
	}
	c.IndentedJSON(http.StatusOK, newBookResponse(book))
}

// DeleteBook handles DELETE /api/books/:id. Its quotes and sessions go with it.
func (controller *BooksController) DeleteBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := controller.books.Delete(c.Request.Context(), id); err != nil {
		respondStoreError(c, err, "book")
		return
	}
	controller.invalidateCover(id)
	respondSuccess(c, "book deleted")
}

// GetCover serves a cached book cover image.
// GET /api/books/:id/cover
func (controller *BooksController) GetCover(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	book, found, err := controller.books.GetByID(ctx, id)
	if err != nil {
		respondStoreError(c, err, "book")
		return
	}
	if !found || book.CoverURL == nil || *book.CoverURL == "" {
		c.Status(http.StatusNotFound)
		return
	}

	if controller.covers == nil {
		c.Redirect(http.StatusTemporaryRedirect, *book.CoverURL)
		return
	}

	// Get cached cover (will fetch if not cached)
	cachePath, err := controller.covers.GetCover(ctx, book.ID, *book.CoverURL)
	if err != nil || cachePath == "" {
		log.Printf("Cover for book %s unavailable, redirecting: %v", book.ID, err)
		c.Redirect(http.StatusTemporaryRedirect, *book.CoverURL)
		return
	}

	c.File(cachePath)
}

func (controller *BooksController) invalidateCover(id string) {
	if controller.covers == nil {
		return
	}
	if err := controller.covers.InvalidateCover(id); err != nil {
		log.Printf("Failed to invalidate cover for book %s: %v", id, err)
	}
}

// recordFinished counts a book that just became finished. Moving a book
// back out of finished is not subtracted; a recompute settles the total.
func (controller *BooksController) recordFinished(ctx context.Context) error {
	if controller.reading == nil {
		return nil
	}
	return controller.reading.RecordBookFinished(ctx)
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// UpdateProgress handles POST /api/books/:id/progress. Reaching the last
// page finishes the book and counts it in the statistics; any progress
// refreshes the streak.
func (controller *BooksController) UpdateProgress(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req ProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	ctx := c.Request.Context()
	before, found, err := controller.books.GetByID(ctx, id)
	if err != nil {
		respondStoreError(c, err, "book")
		return
	}
	if !found {
		respondNotFound(c, "book")
		return
	}

	book, err := controller.books.UpdateProgress(ctx, id, *req.PagesRead)
	if err != nil {
		respondStoreError(c, err, "book")
		return
	}

	if before.Status != entities.BookStatusFinished && book.Status == entities.BookStatusFinished {
		if err := controller.recordFinished(ctx); err != nil {
			respondStoreError(c, err, "user stats")
			return
		}
	}
	if controller.reading != nil {
		if book.PagesRead > before.PagesRead {
			if _, err := controller.reading.UpdateStreakOnProgress(ctx); err != nil {
				respondStoreError(c, err, "user stats")
				return
			}
		}
	}

	c.IndentedJSON(http.StatusOK, newBookResponse(book))
}

// GetBookQuotes handles GET /api/books/:id/quotes.
func (controller *BooksController) GetBookQuotes(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	_, found, err := controller.books.GetByID(ctx, id)
	if err != nil {
		respondStoreError(c, err, "book")
		return
	}
	if !found {
		respondNotFound(c, "book")
		return
	}

	quotes, err := controller.quotes.GetByBook(ctx, id)
	if err != nil {
		respondStoreError(c, err, "quotes")
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"quotes": quotes, "count": len(quotes)})
}

// WatchBooks handles GET /api/books/watch as a server-sent event stream,
// optionally filtered by ?status=.
func (controller *BooksController) WatchBooks(c *gin.Context) {
	ctx := c.Request.Context()
	if raw := c.Query("status"); raw != "" {
		status, err := entities.ParseBookStatus(raw)
		if err != nil {
			respondBadRequest(c, err.Error())
			return
		}
		streamSnapshots(c, "books", controller.books.WatchByStatus(ctx, status))
		return
	}
	streamSnapshots(c, "books", controller.books.WatchAll(ctx))
}

// WatchBook handles GET /api/books/:id/watch as a server-sent event stream.
func (controller *BooksController) WatchBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	streamItem(c, "book", controller.books.WatchByID(c.Request.Context(), id))
}
