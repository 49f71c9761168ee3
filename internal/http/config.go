package http

// RouterConfig contains all dependencies needed to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Books    BookStore
	Quotes   QuoteStore
	Reading  ReadingStore
	Database HealthChecker

	// Optional; when nil, statistics are recomputed inline and the
	// task endpoints are not registered.
	Tasks TaskQueue

	// Optional; when nil, cover requests redirect to the original URL.
	Covers CoverCache

	// Application info
	Version string
}
