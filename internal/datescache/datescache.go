// Package datescache holds the descending list of dates that have at least
// one stored message, populated on miss and invalidated on a timer.
package datescache

import (
	"context"
	"sort"
	"sync"
	"time"
)

// InvalidationInterval is how often the cached list is cleared, forcing the
// next reader to repopulate it from the store.
const InvalidationInterval = 5 * time.Minute

// Source populates the cache on a miss. *store.Store satisfies this via its
// DatesWithMessages method.
type Source interface {
	DatesWithMessages(ctx context.Context) ([]time.Time, error)
}

// Cache holds the dates list behind a single mutex; the same lock guards
// both the read-miss-populate path and the invalidation path, so neither
// ever observes the other mid-update.
type Cache struct {
	source Source

	mu    sync.Mutex
	dates []time.Time // descending; nil means "needs repopulating"

	ticker      *time.Ticker
	stopInvalid chan struct{}
}

// New creates a Cache backed by source. Call Start to begin the periodic
// invalidation timer.
func New(source Source) *Cache {
	return &Cache{source: source}
}

// Dates returns the cached descending date list, populating it from the
// source on a miss.
func (c *Cache) Dates(ctx context.Context) ([]time.Time, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.dates != nil {
		return c.dates, nil
	}

	dates, err := c.source.DatesWithMessages(ctx)
	if err != nil {
		return nil, err
	}

	sort.Slice(dates, func(i, j int) bool { return dates[i].After(dates[j]) })
	if dates == nil {
		dates = []time.Time{}
	}
	c.dates = dates
	return c.dates, nil
}

// Invalidate clears the cached list, forcing the next Dates call to
// repopulate it.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dates = nil
}

// Start launches the background timer that invalidates the cache every
// InvalidationInterval. Stop must be called to release it.
func (c *Cache) Start() {
	if c.ticker != nil {
		return
	}
	c.ticker = time.NewTicker(InvalidationInterval)
	c.stopInvalid = make(chan struct{})
	go func() {
		for {
			select {
			case <-c.ticker.C:
				c.Invalidate()
			case <-c.stopInvalid:
				c.ticker.Stop()
				return
			}
		}
	}()
}

// Stop halts the background invalidation timer, if running.
func (c *Cache) Stop() {
	if c.ticker == nil {
		return
	}
	select {
	case <-c.stopInvalid:
	default:
		close(c.stopInvalid)
	}
}
