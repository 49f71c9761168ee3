package http

import (
	"github.com/gin-gonic/gin"
)

// NewRouter creates and configures the HTTP router with all endpoints.
// Uses RouterConfig to receive all dependencies, improving testability
// and reducing parameter count.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	healthController := NewHealthController(cfg.Database, cfg.Version)
	router.GET("/health", healthController.Status)

	api := router.Group("/api")

	booksController := NewBooksController(cfg.Books, cfg.Quotes, cfg.Reading, cfg.Covers)
	books := api.Group("/books")
	{
		books.GET("", booksController.GetAllBooks)
		books.POST("", booksController.CreateBook)
		books.GET("/watch", booksController.WatchBooks)
		books.GET("/:id", booksController.GetBook)
		books.PUT("/:id", booksController.UpdateBook)
		books.DELETE("/:id", booksController.DeleteBook)
		books.POST("/:id/progress", booksController.UpdateProgress)
		books.GET("/:id/quotes", booksController.GetBookQuotes)
		books.GET("/:id/cover", booksController.GetCover)
		books.GET("/:id/watch", booksController.WatchBook)
	}

	quotesController := NewQuotesController(cfg.Quotes, cfg.Books)
	quotes := api.Group("/quotes")
	{
		quotes.GET("", quotesController.GetQuotes)
		quotes.POST("", quotesController.CreateQuote)
		quotes.GET("/random", quotesController.RandomQuote)
		quotes.DELETE("/:id", quotesController.DeleteQuote)
	}

	readingController := NewReadingController(cfg.Reading, cfg.Books, cfg.Tasks)
	sessions := api.Group("/sessions")
	{
		sessions.GET("", readingController.GetSessions)
		sessions.POST("", readingController.LogSession)
		sessions.DELETE("/:id", readingController.DeleteSession)
	}
	stats := api.Group("/stats")
	{
		stats.GET("", readingController.GetStats)
		stats.GET("/watch", readingController.WatchStats)
		stats.GET("/today", readingController.GetToday)
		stats.POST("/recompute", readingController.RecomputeStats)
	}

	if cfg.Tasks != nil {
		tasksController := NewTasksController(cfg.Tasks)
		api.GET("/tasks/:id", tasksController.GetTaskStatus)
	}

	return router
}
