package datescache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	calls int
	dates []time.Time
	err   error
}

func (f *fakeSource) DatesWithMessages(ctx context.Context) ([]time.Time, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.dates, nil
}

func TestDatesPopulatesOnMissAndCachesOnHit(t *testing.T) {
	src := &fakeSource{dates: []time.Time{
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
	}}
	c := New(src)

	dates, err := c.Dates(context.Background())
	require.NoError(t, err)
	require.Len(t, dates, 3)
	assert.Equal(t, 1, src.calls)
	// Descending order regardless of source order.
	assert.True(t, dates[0].After(dates[1]))
	assert.True(t, dates[1].After(dates[2]))

	_, err = c.Dates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, src.calls, "second call should hit the cache")
}

func TestInvalidateForcesRepopulate(t *testing.T) {
	src := &fakeSource{dates: []time.Time{time.Now()}}
	c := New(src)

	_, err := c.Dates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, src.calls)

	c.Invalidate()

	_, err = c.Dates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls)
}

func TestDatesPropagatesSourceError(t *testing.T) {
	src := &fakeSource{err: errors.New("boom")}
	c := New(src)

	_, err := c.Dates(context.Background())
	require.Error(t, err)
}

func TestStartStopInvalidatesOnTimer(t *testing.T) {
	src := &fakeSource{dates: []time.Time{time.Now()}}
	c := New(src)
	c.dates = []time.Time{time.Now()} // pre-seed so the next tick proves invalidation happened

	c.ticker = time.NewTicker(5 * time.Millisecond)
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
	defer c.Stop()

	require.Eventually(t, func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.dates == nil
	}, time.Second, time.Millisecond)
}
