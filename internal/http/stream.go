package http

import (
	"io"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/readtracker/internal/store"
)

// SnapshotEvent is the payload of a collection stream event.
type SnapshotEvent[T any] struct {
	Items []T `json:"items"`
	Count int `json:"count"`
}

// ItemEvent is the payload of a single-entity stream event.
type ItemEvent[T any] struct {
	Found bool `json:"found"`
	Value *T   `json:"value,omitempty"`
}

func prepareStream(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
}

// streamSnapshots relays a collection stream as server-sent events until the
// client disconnects or the stream ends. An error is sent as a final
// "error" event.
func streamSnapshots[T any](c *gin.Context, event string, updates <-chan store.Snapshot[T]) {
	prepareStream(c)
	ctx := c.Request.Context()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case snap, ok := <-updates:
			if !ok {
				return false
			}
			if snap.Err != nil {
				c.SSEvent("error", ErrorResponse{Error: snap.Err.Error()})
				return false
			}
			items := snap.Items
			if items == nil {
				items = []T{}
			}
			c.SSEvent(event, SnapshotEvent[T]{Items: items, Count: len(items)})
			return true
		}
	})
}

// streamItem relays a single-entity stream as server-sent events. Absence is
// published as found=false and keeps the stream open.
func streamItem[T any](c *gin.Context, event string, updates <-chan store.Item[T]) {
	prepareStream(c)
	ctx := c.Request.Context()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case item, ok := <-updates:
			if !ok {
				return false
			}
			if item.Err != nil {
				c.SSEvent("error", ErrorResponse{Error: item.Err.Error()})
				return false
			}
			payload := ItemEvent[T]{Found: item.Found}
			if item.Found {
				value := item.Value
				payload.Value = &value
			}
			c.SSEvent(event, payload)
			return true
		}
	})
}
