// Package store provides a generic, table-scoped entity store with live
// change streams.
//
// # Architecture
//
//	Codec[T, ID]        maps an entity to a flat column Record and back
//	Store[T, ID]        CRUD against one table through a Connector
//	Broadcaster[T, ID]  republishes the full table / single rows after every mutation
//
// Domain repositories (internal/database/books, quotes, users) wrap one or
// more stores and never touch their tables directly.
//
// # Usage
//
//	books := store.New[entities.Book, string](db, books.Codec{})
//	if err := books.Insert(ctx, book); errors.Is(err, store.ErrDuplicateEntity) {
//		...
//	}
//
//	updates := books.WatchAll(ctx)
//	for snap := range updates {
//		if snap.Err != nil {
//			break
//		}
//		render(snap.Items)
//	}
//
// # Notifications
//
// Streams use full re-evaluation: every successful Insert, Update, Delete or
// Clear triggers a fresh GetAll for collection subscribers and a fresh GetByID
// for every watched id. Re-evaluation runs in the background; callers of the
// mutation do not wait for it. Filtered streams are derived from the
// collection stream with Filter and are never notified on their own.
package store
