package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBookStatus(t *testing.T) {
	for _, s := range []string{"want", "reading", "finished"} {
		status, err := ParseBookStatus(s)
		require.NoError(t, err)
		assert.Equal(t, BookStatus(s), status)
	}

	_, err := ParseBookStatus("abandoned")
	assert.Error(t, err)
}

func TestBook_Progress(t *testing.T) {
	assert.Equal(t, 0.0, Book{TotalPages: 0, PagesRead: 10}.Progress())
	assert.Equal(t, 0.5, Book{TotalPages: 200, PagesRead: 100}.Progress())
	assert.Equal(t, 1.0, Book{TotalPages: 200, PagesRead: 350}.Progress())
	assert.Equal(t, 0.0, Book{TotalPages: 200, PagesRead: -5}.Progress())
}

func TestBook_IsFinished(t *testing.T) {
	assert.True(t, Book{Status: BookStatusFinished}.IsFinished())
	assert.True(t, Book{Status: BookStatusReading, TotalPages: 100, PagesRead: 100}.IsFinished())
	assert.False(t, Book{Status: BookStatusReading, TotalPages: 100, PagesRead: 99}.IsFinished())
	assert.False(t, Book{Status: BookStatusWant}.IsFinished())
	assert.False(t, Book{Status: BookStatusReading, TotalPages: 0, PagesRead: 0}.IsFinished(),
		"an unknown page count never completes on its own")
	assert.True(t, Book{Status: BookStatusFinished, TotalPages: 0}.IsFinished())
}

func TestNewID(t *testing.T) {
	a, b := NewID(), NewID()
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}
