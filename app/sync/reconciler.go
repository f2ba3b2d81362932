package sync

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sort"
	"sync"
	"time"

	"KopiPos/app/apperrors"
	"KopiPos/app/database"
	"KopiPos/app/websocket"
)

// FetchFunc loads the full remote record set for one collection.
type FetchFunc[T any] func(ctx context.Context) ([]T, error)

// Collection is a client-side replica of one entity table. Feed events are
// applied for instant UI feedback, then a full remote refresh reconciles the
// replica, so events only need to be hints. Refreshes write through to the
// offline mirror; when the remote store is unreachable the replica serves the
// mirror and flags itself degraded.
type Collection[T any] struct {
	name           string
	idOf           func(T) uint
	fetch          FetchFunc[T]
	mirror         *database.LocalDB
	refreshTimeout time.Duration

	mu       sync.RWMutex
	records  map[uint]T
	degraded bool
	refSeq   uint64 // refresh generation, last completed wins
	applied  uint64
}

// NewCollection creates an empty replica. fetch may be nil for event-only
// collections; mirror may be nil when no offline fallback is wanted.
func NewCollection[T any](name string, idOf func(T) uint, fetch FetchFunc[T], mirror *database.LocalDB, refreshTimeout time.Duration) *Collection[T] {
	if refreshTimeout <= 0 {
		refreshTimeout = 15 * time.Second
	}
	return &Collection[T]{
		name:           name,
		idOf:           idOf,
		fetch:          fetch,
		mirror:         mirror,
		refreshTimeout: refreshTimeout,
		records:        make(map[uint]T),
	}
}

// Name returns the collection's table name.
func (c *Collection[T]) Name() string {
	return c.name
}

// Apply folds one change event into the replica, then schedules a full
// refresh in the background. Insert and update both upsert the full record;
// delete of an absent record is a no-op, since the refresh that follows any
// missed event already converged the replica.
func (c *Collection[T]) Apply(event websocket.ChangeEvent) {
	switch event.Action {
	case websocket.ActionInsert, websocket.ActionUpdate:
		var record T
		if err := json.Unmarshal(event.New, &record); err != nil {
			log.Printf("Sync %s: undecodable %s payload: %v", c.name, event.Action, err)
			break
		}
		c.mu.Lock()
		c.records[c.idOf(record)] = record
		c.mu.Unlock()

	case websocket.ActionDelete:
		var record T
		if err := json.Unmarshal(event.Old, &record); err != nil {
			log.Printf("Sync %s: undecodable delete payload: %v", c.name, err)
			break
		}
		c.mu.Lock()
		delete(c.records, c.idOf(record))
		c.mu.Unlock()

	default:
		log.Printf("Sync %s: unknown action %q", c.name, event.Action)
	}

	if c.fetch != nil {
		go func() {
			if err := c.Refresh(context.Background()); err != nil {
				log.Printf("Sync %s: refresh after %s failed: %v", c.name, event.Action, err)
			}
		}()
	}
}

// Refresh replaces the replica with the full remote record set and mirrors
// it locally. Concurrent refreshes may run; the last one to complete wins.
// On remote failure the replica falls back to the offline mirror and marks
// itself degraded; only a missing mirror surfaces an error.
func (c *Collection[T]) Refresh(ctx context.Context) error {
	if c.fetch == nil {
		return nil
	}

	c.mu.Lock()
	c.refSeq++
	seq := c.refSeq
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, c.refreshTimeout)
	defer cancel()

	records, err := c.fetch(ctx)
	if err != nil {
		return c.fallback(seq, err)
	}

	c.install(seq, records, false)

	// The mirror only ever holds a non-empty snapshot: an empty read is
	// indistinguishable from a half-initialized remote, so the last good
	// mirror is kept.
	if c.mirror != nil && len(records) > 0 {
		if err := c.mirror.SaveCollection(c.name, records); err != nil {
			log.Printf("Sync %s: mirror write failed: %v", c.name, err)
		}
	}
	return nil
}

// fallback serves the offline mirror when the remote store is unreachable.
func (c *Collection[T]) fallback(seq uint64, cause error) error {
	if c.mirror == nil {
		return apperrors.NewRemoteUnavailable("refresh "+c.name, cause)
	}

	var records []T
	if err := c.mirror.LoadCollection(c.name, &records); err != nil {
		return apperrors.NewRemoteUnavailable("refresh "+c.name, cause)
	}

	c.install(seq, records, true)
	log.Printf("Sync %s: remote unavailable, serving %d mirrored records: %v", c.name, len(records), cause)
	return nil
}

// install replaces the record map if this refresh is newer than the last one
// that completed.
func (c *Collection[T]) install(seq uint64, records []T, degraded bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if seq <= c.applied {
		return
	}
	c.applied = seq

	next := make(map[uint]T, len(records))
	for _, r := range records {
		next[c.idOf(r)] = r
	}
	c.records = next
	c.degraded = degraded
}

// Snapshot returns the current records sorted by id.
func (c *Collection[T]) Snapshot() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]T, 0, len(c.records))
	for _, r := range c.records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		return c.idOf(out[i]) < c.idOf(out[j])
	})
	return out
}

// Get returns one record by id.
func (c *Collection[T]) Get(id uint) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.records[id]
	return r, ok
}

// Len returns the current record count.
func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}

// Degraded reports whether the replica is serving mirrored data because the
// remote store was unreachable on the last refresh.
func (c *Collection[T]) Degraded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.degraded
}

// Refresher is the type-erased surface of a Collection, used to load a mixed
// set of collections together.
type Refresher interface {
	Name() string
	Refresh(ctx context.Context) error
}

// RefreshAll loads every collection concurrently and joins. A failing
// collection never stops the others from populating; all failures come back
// joined.
func RefreshAll(ctx context.Context, collections ...Refresher) error {
	var wg sync.WaitGroup
	errs := make([]error, len(collections))

	for i, c := range collections {
		wg.Add(1)
		go func(i int, c Refresher) {
			defer wg.Done()
			errs[i] = c.Refresh(ctx)
		}(i, c)
	}
	wg.Wait()

	return errors.Join(errs...)
}

// Reconciler ties replicas to one feed connection and owns the
// subscriptions.
type Reconciler struct {
	feed *websocket.FeedClient

	mu   sync.Mutex
	subs []*websocket.Subscription
}

// NewReconciler wraps an established feed connection.
func NewReconciler(feed *websocket.FeedClient) *Reconciler {
	return &Reconciler{feed: feed}
}

// Watch subscribes a collection to its table on the reconciler's feed. A
// package function because methods cannot introduce type parameters.
func Watch[T any](r *Reconciler, c *Collection[T]) error {
	sub, err := r.feed.Subscribe(c.Name(), c.Apply)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.subs = append(r.subs, sub)
	r.mu.Unlock()
	return nil
}

// Done is closed when the underlying feed connection is lost.
func (r *Reconciler) Done() <-chan struct{} {
	return r.feed.Done()
}

// Close releases all subscriptions and the feed connection.
func (r *Reconciler) Close() error {
	r.mu.Lock()
	subs := r.subs
	r.subs = nil
	r.mu.Unlock()

	for _, s := range subs {
		s.Unsubscribe()
	}
	return r.feed.Close()
}
