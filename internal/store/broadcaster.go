package store

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/google/uuid"
)

// subscriberBufferSize is the channel buffer for each subscriber. Every
// publish carries the complete current state, so a slow subscriber only
// needs the latest one: stale values are replaced rather than queued.
const subscriberBufferSize = 1

// Snapshot is one publish on a collection stream. A non-nil Err is terminal;
// the channel is closed right after it.
type Snapshot[T any] struct {
	Items []T
	Err   error
}

// Item is one publish on a single-entity stream. Found is false when the
// entity does not exist (anymore). A non-nil Err is terminal.
type Item[T any] struct {
	Value T
	Found bool
	Err   error
}

type itemSubscription[T any, ID comparable] struct {
	id ID
	ch chan Item[T]
}

// Broadcaster keeps subscribers of one store up to date by re-querying the
// store after every mutation.
type Broadcaster[T any, ID comparable] struct {
	store *Store[T, ID]

	// refreshMu serialises re-evaluations so that a new subscriber's
	// initial state can never overtake or trail a mutation publish.
	refreshMu sync.Mutex

	mu          sync.RWMutex
	collections map[string]chan Snapshot[T]
	items       map[string]*itemSubscription[T, ID]
	closed      bool
	done        chan struct{}
	inflight    sync.WaitGroup
}

func newBroadcaster[T any, ID comparable](s *Store[T, ID]) *Broadcaster[T, ID] {
	return &Broadcaster[T, ID]{
		store:       s,
		collections: make(map[string]chan Snapshot[T]),
		items:       make(map[string]*itemSubscription[T, ID]),
		done:        make(chan struct{}),
	}
}

// WatchAll registers a collection subscriber. The current table contents are
// published before WatchAll returns. The subscription ends when ctx is
// cancelled, on a terminal error, or when the broadcaster is closed.
func (b *Broadcaster[T, ID]) WatchAll(ctx context.Context) <-chan Snapshot[T] {
	ch := make(chan Snapshot[T], subscriberBufferSize)
	subID := uuid.NewString()

	b.refreshMu.Lock()
	defer b.refreshMu.Unlock()

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch
	}
	b.collections[subID] = ch
	b.mu.Unlock()

	items, err := b.store.GetAll(ctx)
	b.publishCollection(items, err, subID)

	go b.unsubscribeOnDone(ctx, func() { b.unsubscribeCollection(subID) })
	return ch
}

// WatchByID registers a subscriber for a single entity. The current value (or
// its absence) is published before WatchByID returns.
func (b *Broadcaster[T, ID]) WatchByID(ctx context.Context, id ID) <-chan Item[T] {
	ch := make(chan Item[T], subscriberBufferSize)
	subID := uuid.NewString()

	b.refreshMu.Lock()
	defer b.refreshMu.Unlock()

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch
	}
	b.items[subID] = &itemSubscription[T, ID]{id: id, ch: ch}
	b.mu.Unlock()

	value, found, err := b.store.GetByID(ctx, id)
	b.publishItem(id, value, found, err, subID)

	go b.unsubscribeOnDone(ctx, func() { b.unsubscribeItem(subID) })
	return ch
}

func (b *Broadcaster[T, ID]) unsubscribeOnDone(ctx context.Context, unsubscribe func()) {
	select {
	case <-ctx.Done():
		unsubscribe()
	case <-b.done:
	}
}

// notify schedules a re-evaluation in the background. Mutations do not wait
// for subscribers.
func (b *Broadcaster[T, ID]) notify() {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed || (len(b.collections) == 0 && len(b.items) == 0) {
		return
	}

	b.inflight.Add(1)
	go func() {
		defer b.inflight.Done()
		b.refresh(context.Background())
	}()
}

func (b *Broadcaster[T, ID]) refresh(ctx context.Context) {
	b.refreshMu.Lock()
	defer b.refreshMu.Unlock()

	b.mu.RLock()
	hasCollections := len(b.collections) > 0
	seen := make(map[ID]struct{}, len(b.items))
	ids := make([]ID, 0, len(b.items))
	for _, sub := range b.items {
		if _, ok := seen[sub.id]; ok {
			continue
		}
		seen[sub.id] = struct{}{}
		ids = append(ids, sub.id)
	}
	b.mu.RUnlock()

	if hasCollections {
		items, err := b.store.GetAll(ctx)
		b.publishCollection(items, err, "")
	}
	for _, id := range ids {
		value, found, err := b.store.GetByID(ctx, id)
		b.publishItem(id, value, found, err, "")
	}
}

// publishCollection delivers a collection result to one subscriber (onlySubID)
// or to all of them. A closed connection degrades to an empty set instead of
// ending the stream.
func (b *Broadcaster[T, ID]) publishCollection(items []T, err error, onlySubID string) {
	if err != nil && errors.Is(err, ErrConnectionClosed) {
		log.Printf("[WATCH] %s: connection closed, publishing empty set", b.store.Table())
		items, err = []T{}, nil
	}

	if err != nil {
		log.Printf("[WATCH] %s: re-evaluation failed: %v", b.store.Table(), err)
		b.mu.Lock()
		defer b.mu.Unlock()
		for subID, ch := range b.collections {
			if onlySubID != "" && subID != onlySubID {
				continue
			}
			offer(ch, Snapshot[T]{Err: err})
			close(ch)
			delete(b.collections, subID)
		}
		return
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for subID, ch := range b.collections {
		if onlySubID != "" && subID != onlySubID {
			continue
		}
		offer(ch, Snapshot[T]{Items: items})
	}
}

func (b *Broadcaster[T, ID]) publishItem(id ID, value T, found bool, err error, onlySubID string) {
	if err != nil {
		log.Printf("[WATCH] %s %v: re-evaluation failed: %v", b.store.Table(), id, err)
		b.mu.Lock()
		defer b.mu.Unlock()
		for subID, sub := range b.items {
			if sub.id != id || (onlySubID != "" && subID != onlySubID) {
				continue
			}
			offer(sub.ch, Item[T]{Err: err})
			close(sub.ch)
			delete(b.items, subID)
		}
		return
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for subID, sub := range b.items {
		if sub.id != id || (onlySubID != "" && subID != onlySubID) {
			continue
		}
		offer(sub.ch, Item[T]{Value: value, Found: found})
	}
}

func (b *Broadcaster[T, ID]) unsubscribeCollection(subID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.collections[subID]; ok {
		delete(b.collections, subID)
		close(ch)
	}
}

func (b *Broadcaster[T, ID]) unsubscribeItem(subID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if sub, ok := b.items[subID]; ok {
		delete(b.items, subID)
		close(sub.ch)
	}
}

// Subscribers returns the number of live collection and item subscriptions.
func (b *Broadcaster[T, ID]) Subscribers() (collections, items int) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.collections), len(b.items)
}

// Close ends every subscription and waits for in-flight re-evaluations.
// Publishes after Close are dropped.
func (b *Broadcaster[T, ID]) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	close(b.done)
	for subID, ch := range b.collections {
		close(ch)
		delete(b.collections, subID)
	}
	for subID, sub := range b.items {
		close(sub.ch)
		delete(b.items, subID)
	}
	b.mu.Unlock()

	b.inflight.Wait()
}

// offer delivers v without blocking, replacing a value the subscriber has not
// consumed yet. Callers must be the only producer for ch at that moment.
func offer[V any](ch chan V, v V) {
	for range 2 {
		select {
		case ch <- v:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
