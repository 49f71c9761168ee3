package store

// Filter derives a collection stream that only carries items accepted by
// keep. It is never notified on its own: it re-filters whatever the source
// publishes and closes when the source closes.
func Filter[T any](in <-chan Snapshot[T], keep func(T) bool) <-chan Snapshot[T] {
	return Map(in, func(items []T) []T {
		out := make([]T, 0, len(items))
		for _, item := range items {
			if keep(item) {
				out = append(out, item)
			}
		}
		return out
	})
}

// Map derives a collection stream by transforming each published set.
// Terminal errors pass through unchanged.
func Map[T, U any](in <-chan Snapshot[T], fn func([]T) []U) <-chan Snapshot[U] {
	out := make(chan Snapshot[U], subscriberBufferSize)
	go func() {
		defer close(out)
		for snap := range in {
			if snap.Err != nil {
				offer(out, Snapshot[U]{Err: snap.Err})
				continue
			}
			offer(out, Snapshot[U]{Items: fn(snap.Items)})
		}
	}()
	return out
}
