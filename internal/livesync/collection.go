package livesync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/preschool-cms-api/internal/store"
	"github.com/rs/zerolog"
)

// Options describe how raw documents of a collection become records
type Options[T any] struct {
	Path     string
	Decode   func(id string, raw json.RawMessage) (T, error)
	Less     func(a, b T) bool // nil keeps key order
	Filter   func(T) bool      // nil keeps every record
	Fallback []T               // used when the filtered result is empty
}

// Feed is the type-erased view of a Collection used by streaming handlers
type Feed interface {
	Start(ctx context.Context) error
	Stop()
	Changes() (<-chan struct{}, func())
	Current() (any, bool)
}

// Flatten turns a snapshot into an ordered record list. Documents that fail
// to decode are skipped and reported.
func Flatten[T any](snap store.Snapshot, opts Options[T]) ([]T, []error) {
	records := make([]T, 0, len(snap.Docs))
	var errs []error
	for _, id := range snap.Keys() {
		rec, err := opts.Decode(id, snap.Docs[id])
		if err != nil {
			errs = append(errs, fmt.Errorf("document %s: %w", id, err))
			continue
		}
		if opts.Filter != nil && !opts.Filter(rec) {
			continue
		}
		records = append(records, rec)
	}

	if opts.Less != nil {
		sort.SliceStable(records, func(i, j int) bool {
			return opts.Less(records[i], records[j])
		})
	}

	if len(records) == 0 && len(opts.Fallback) > 0 {
		records = append(records, opts.Fallback...)
	}
	return records, errs
}

// Collection keeps an in-memory, ordered projection of a store collection
// that follows every snapshot the store delivers.
type Collection[T any] struct {
	sub  store.Subscriber
	opts Options[T]
	log  zerolog.Logger

	mu       sync.RWMutex
	records  []T
	loaded   bool
	ready    chan struct{}
	watchers map[chan struct{}]struct{}

	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New creates a collection; nothing is subscribed until Start
func New[T any](sub store.Subscriber, opts Options[T], log zerolog.Logger) *Collection[T] {
	return &Collection[T]{
		sub:      sub,
		opts:     opts,
		log:      log.With().Str("collection", opts.Path).Logger(),
		ready:    make(chan struct{}),
		watchers: make(map[chan struct{}]struct{}),
	}
}

// Start subscribes to the collection and applies snapshots in the background
func (c *Collection[T]) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return errors.New("collection already running")
	}

	ctx, cancel := context.WithCancel(ctx)
	ch, err := c.sub.Subscribe(ctx, c.opts.Path)
	if err != nil {
		cancel()
		return fmt.Errorf("subscribe %s: %w", c.opts.Path, err)
	}

	c.cancel = cancel
	c.running = true
	c.wg.Add(1)
	go c.run(ch)

	c.log.Debug().Msg("Collection subscribed")
	return nil
}

// Stop releases the subscription and waits for the apply loop to exit
func (c *Collection[T]) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	cancel := c.cancel
	c.mu.Unlock()

	cancel()
	c.wg.Wait()
	c.log.Debug().Msg("Collection unsubscribed")
}

func (c *Collection[T]) run(ch <-chan store.Snapshot) {
	defer c.wg.Done()
	for snap := range ch {
		c.apply(snap)
	}

	c.mu.RLock()
	running := c.running
	c.mu.RUnlock()
	if running {
		c.log.Warn().Msg("Subscription ended, keeping last known records")
	}
}

func (c *Collection[T]) apply(snap store.Snapshot) {
	records, errs := Flatten(snap, c.opts)
	for _, err := range errs {
		c.log.Warn().Err(err).Msg("Skipping undecodable document")
	}

	c.mu.Lock()
	c.records = records
	if !c.loaded {
		c.loaded = true
		close(c.ready)
	}
	for w := range c.watchers {
		select {
		case w <- struct{}{}:
		default:
		}
	}
	c.mu.Unlock()
}

// Records returns a copy of the current records and whether the first
// snapshot is still outstanding. While loading the list is empty.
func (c *Collection[T]) Records() ([]T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.loaded {
		return []T{}, true
	}
	out := make([]T, len(c.records))
	copy(out, c.records)
	return out, false
}

// Wait blocks until the first snapshot arrives or ctx is done. It reports
// whether the collection is still loading.
func (c *Collection[T]) Wait(ctx context.Context) ([]T, bool) {
	select {
	case <-c.ready:
	case <-ctx.Done():
	}
	return c.Records()
}

// Changes registers a watcher that is signalled after every applied
// snapshot. Signals coalesce; call the returned func to unregister.
func (c *Collection[T]) Changes() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	c.mu.Lock()
	c.watchers[ch] = struct{}{}
	if c.loaded {
		ch <- struct{}{}
	}
	c.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.watchers, ch)
			c.mu.Unlock()
		})
	}
}

// Current returns the records as an untyped value for streaming
func (c *Collection[T]) Current() (any, bool) {
	return c.Records()
}

var _ Feed = (*Collection[struct{}])(nil)
