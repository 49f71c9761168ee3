package http

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/readtracker/internal/store"
)

// dateLayout is the format of calendar-day query parameters.
const dateLayout = "2006-01-02"

// --- Response Types ---

// ErrorResponse is the standard error response format for all API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`    // machine-readable error code
	Details any    `json:"details,omitempty"` // additional context (validation errors, etc.)
}

// SuccessResponse is a standard success response with optional data.
type SuccessResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// --- Error Response Helpers ---

// respondBadRequest sends a 400 Bad Request response.
func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message})
}

// respondValidationError sends a 400 response carrying the binding error.
func respondValidationError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   "invalid request body",
		Code:    "validation_failed",
		Details: err.Error(),
	})
}

// respondNotFound sends a 404 Not Found response.
func respondNotFound(c *gin.Context, resource string) {
	c.JSON(http.StatusNotFound, ErrorResponse{Error: resource + " not found"})
}

// respondInternalError logs the error and sends a 500 Internal Server Error response.
// The actual error is logged but not exposed to the client.
func respondInternalError(c *gin.Context, err error, context string) {
	log.Printf("Internal error (%s): %v", context, err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}

// respondStoreError maps a store error onto the matching status code.
func respondStoreError(c *gin.Context, err error, resource string) {
	switch {
	case errors.Is(err, store.ErrEntityNotFound):
		respondNotFound(c, resource)
	case errors.Is(err, store.ErrDuplicateEntity):
		c.JSON(http.StatusConflict, ErrorResponse{Error: resource + " already exists", Code: "duplicate"})
	case errors.Is(err, store.ErrConnectionClosed):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "database unavailable", Code: "connection_closed"})
	default:
		respondInternalError(c, err, resource)
	}
}

// --- Success Response Helpers ---

// respondSuccess sends a 200 OK response with a message.
func respondSuccess(c *gin.Context, message string) {
	c.JSON(http.StatusOK, SuccessResponse{Message: message})
}

// respondCreated sends a 201 Created response with data.
func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// respondAccepted sends a 202 Accepted response (for async operations).
func respondAccepted(c *gin.Context, message string, data any) {
	c.JSON(http.StatusAccepted, SuccessResponse{Message: message, Data: data})
}

// --- Parameter Parsing ---

// parseIDParam extracts a non-empty string ID from URL parameters.
// Responds with a 400 error and returns "", false when it is missing.
func parseIDParam(c *gin.Context, paramName string) (string, bool) {
	id := c.Param(paramName)
	if id == "" {
		respondBadRequest(c, paramName+" is required")
		return "", false
	}
	return id, true
}

// parseDateQuery parses an optional YYYY-MM-DD query parameter in local time.
// The boolean is false when the parameter was invalid and a 400 was sent.
func parseDateQuery(c *gin.Context, paramName string) (*time.Time, bool) {
	raw := c.Query(paramName)
	if raw == "" {
		return nil, true
	}
	day, err := time.ParseInLocation(dateLayout, raw, time.Local)
	if err != nil {
		respondBadRequest(c, "invalid "+paramName+", expected YYYY-MM-DD")
		return nil, false
	}
	return &day, true
}

// nowMillis returns the current time truncated to the stored precision.
func nowMillis() time.Time {
	return time.UnixMilli(time.Now().UnixMilli())
}
