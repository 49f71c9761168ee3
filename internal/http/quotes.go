package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/readtracker/internal/entities"
)

type QuotesController struct {
	quotes QuoteStore
	books  BookStore
}

func NewQuotesController(quotes QuoteStore, books BookStore) *QuotesController {
	return &QuotesController{
		quotes: quotes,
		books:  books,
	}
}

// QuoteRequest is the body of POST /api/quotes.
type QuoteRequest struct {
	BookID     string `json:"book_id" binding:"required"`
	Text       string `json:"text" binding:"required"`
	PageNumber *int   `json:"page_number" binding:"omitempty,gte=0"`
}

// GetQuotes handles GET /api/quotes, optionally filtered by ?book_id=.
func (qc *QuotesController) GetQuotes(c *gin.Context) {
	var (
		quotes []entities.Quote
		err    error
	)
	if bookID := c.Query("book_id"); bookID != "" {
		quotes, err = qc.quotes.GetByBook(c.Request.Context(), bookID)
	} else {
		quotes, err = qc.quotes.GetAll(c.Request.Context())
	}
	if err != nil {
		respondStoreError(c, err, "quotes")
		return
	}
	if quotes == nil {
		quotes = []entities.Quote{}
	}
	c.IndentedJSON(http.StatusOK, gin.H{"quotes": quotes, "count": len(quotes)})
}

// CreateQuote handles POST /api/quotes. The book must exist.
func (qc *QuotesController) CreateQuote(c *gin.Context) {
	var req QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	ctx := c.Request.Context()
	_, found, err := qc.books.GetByID(ctx, req.BookID)
	if err != nil {
		respondStoreError(c, err, "book")
		return
	}
	if !found {
		respondNotFound(c, "book")
		return
	}

	quote := entities.Quote{
		ID:         entities.NewID(),
		BookID:     req.BookID,
		Text:       req.Text,
		PageNumber: req.PageNumber,
		CreatedAt:  nowMillis(),
	}
	if err := qc.quotes.Insert(ctx, quote); err != nil {
		respondStoreError(c, err, "quote")
		return
	}
	respondCreated(c, quote)
}

// DeleteQuote handles DELETE /api/quotes/:id.
func (qc *QuotesController) DeleteQuote(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := qc.quotes.Delete(c.Request.Context(), id); err != nil {
		respondStoreError(c, err, "quote")
		return
	}
	respondSuccess(c, "quote deleted")
}

// RandomQuote handles GET /api/quotes/random.
func (qc *QuotesController) RandomQuote(c *gin.Context) {
	quote, found, err := qc.quotes.Random(c.Request.Context())
	if err != nil {
		respondStoreError(c, err, "quote")
		return
	}
	if !found {
		respondNotFound(c, "quote")
		return
	}
	c.IndentedJSON(http.StatusOK, quote)
}
