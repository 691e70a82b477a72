package cache

import (
	"context"
	"sync"
	"time"

	"catalog_viewer/internal/domain"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

type Fetcher interface {
	FetchProducts(ctx context.Context, url string) (*domain.ProductListResponse, error)
}

// Observer is told about every completed fetch, after retries.
type Observer interface {
	ObserveFetch(key string, err error)
}

type Options struct {
	// DedupingInterval is how long a successful response satisfies Get
	// without another request.
	DedupingInterval time.Duration
	// ErrorRetryCount is the number of retries after the first failure.
	ErrorRetryCount int
	// ErrorRetryInterval is the wait before the first retry; it doubles
	// on every following retry.
	ErrorRetryInterval time.Duration
}

func DefaultOptions() Options {
	return Options{
		DedupingInterval:   10 * time.Second,
		ErrorRetryCount:    3,
		ErrorRetryInterval: 5 * time.Second,
	}
}

const (
	maxBackoffShift = 10
	maxBackoff      = time.Hour
)

type entry struct {
	data      *domain.ProductListResponse
	fetchedAt time.Time
	err       error
}

// ProductCache keys product list responses by request URL. At most one
// request per key is in flight; concurrent callers share its result.
type ProductCache struct {
	fetcher Fetcher
	opts    Options
	log     *logrus.Logger
	group   singleflight.Group
	now     func() time.Time

	mu        sync.RWMutex
	entries   map[string]*entry
	observers []Observer
}

func NewProductCache(fetcher Fetcher, opts Options, logger *logrus.Logger) *ProductCache {
	if opts.ErrorRetryCount < 0 {
		opts.ErrorRetryCount = 0
	}
	return &ProductCache{
		fetcher: fetcher,
		opts:    opts,
		log:     logger,
		now:     time.Now,
		entries: make(map[string]*entry),
	}
}

func (c *ProductCache) AddObserver(o Observer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, o)
}

// Get returns the cached response when it was fetched inside the deduping
// interval, and requests it otherwise. An empty key means no request.
func (c *ProductCache) Get(ctx context.Context, key string) (*domain.ProductListResponse, error) {
	if key == "" {
		return nil, nil
	}
	if data, ok := c.fresh(key); ok {
		c.log.Debugf("Cache: Deduplicated request for %s", key)
		return data, nil
	}
	return c.load(ctx, key)
}

// Revalidate requests key regardless of cache age. It still joins a request
// for the same key that is already in flight.
func (c *ProductCache) Revalidate(ctx context.Context, key string) (*domain.ProductListResponse, error) {
	if key == "" {
		return nil, nil
	}
	return c.load(ctx, key)
}

// Peek returns the last successful response for key without fetching.
func (c *ProductCache) Peek(key string) (*domain.ProductListResponse, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok || e.data == nil {
		return nil, false
	}
	return e.data, true
}

func (c *ProductCache) fresh(key string) (*domain.ProductListResponse, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok || e.data == nil || e.err != nil {
		return nil, false
	}
	return e.data, c.now().Sub(e.fetchedAt) < c.opts.DedupingInterval
}

// load joins or starts the shared request for key. The request runs detached
// from ctx; ctx only bounds how long this caller waits.
func (c *ProductCache) load(ctx context.Context, key string) (*domain.ProductListResponse, error) {
	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (interface{}, error) {
		return c.fetchWithRetry(fetchCtx, key)
	})

	select {
	case res := <-ch:
		if res.Shared {
			c.log.Debugf("Cache: Joined in-flight request for %s", key)
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*domain.ProductListResponse), nil
	case <-ctx.Done():
		c.log.Debugf("Cache: Caller stopped waiting for %s: %v", key, ctx.Err())
		return nil, ctx.Err()
	}
}

func (c *ProductCache) fetchWithRetry(ctx context.Context, key string) (*domain.ProductListResponse, error) {
	for attempt := 0; ; attempt++ {
		data, err := c.fetcher.FetchProducts(ctx, key)
		if err == nil {
			c.store(key, data, nil)
			c.notify(key, nil)
			return data, nil
		}

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if attempt >= c.opts.ErrorRetryCount {
			c.log.WithFields(logrus.Fields{
				"key":      key,
				"attempts": attempt + 1,
			}).Errorf("Cache: Giving up on request: %v", err)
			c.store(key, nil, err)
			c.notify(key, err)
			return nil, err
		}

		wait := c.retryDelay(attempt)
		c.log.WithFields(logrus.Fields{
			"key":     key,
			"attempt": attempt + 1,
			"wait_ms": wait.Milliseconds(),
		}).Warnf("Cache: Request failed, retrying: %v", err)

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		}
	}
}

// retryDelay doubles ErrorRetryInterval per attempt, capped at maxBackoff.
func (c *ProductCache) retryDelay(attempt int) time.Duration {
	interval := c.opts.ErrorRetryInterval
	if interval <= 0 {
		return 0
	}
	shift := min(attempt, maxBackoffShift)
	if interval > maxBackoff>>shift {
		return maxBackoff
	}
	return interval << shift
}

// store records the outcome of a fetch. A failure keeps the last good data.
func (c *ProductCache) store(key string, data *domain.ProductListResponse, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		e = &entry{}
		c.entries[key] = e
	}
	e.err = err
	if err == nil {
		e.data = data
		e.fetchedAt = c.now()
	}
}

func (c *ProductCache) notify(key string, err error) {
	c.mu.RLock()
	observers := make([]Observer, len(c.observers))
	copy(observers, c.observers)
	c.mu.RUnlock()

	for _, o := range observers {
		o.ObserveFetch(key, err)
	}
}
