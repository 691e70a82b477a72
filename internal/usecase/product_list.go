package usecase

import (
	"context"
	"errors"
	"sync"

	"catalog_viewer/internal/clients"
	"catalog_viewer/internal/domain"

	"github.com/sirupsen/logrus"
)

var (
	ErrInvalidPage = errors.New("page must be a positive integer")
	ErrListClosed  = errors.New("product list is closed")
)

// ListCache is the fetch layer the coordinator reads through.
type ListCache interface {
	Get(ctx context.Context, key string) (*domain.ProductListResponse, error)
	Revalidate(ctx context.Context, key string) (*domain.ProductListResponse, error)
	Peek(key string) (*domain.ProductListResponse, bool)
}

// ListState is a snapshot of everything a presenter needs.
type ListState struct {
	Products      []domain.Product
	Pagination    *domain.Pagination
	SearchParams  domain.SearchParams
	Lifecycle     domain.Lifecycle
	URL           string
	IsLoading     bool
	Error         error
	HasSearch     bool
	HasCustomSort bool
	HasFilters    bool
}

type ProductList interface {
	InitializeSearch()
	HandleSearch(term string)
	HandleSort(column domain.SortColumn, order domain.SortOrder)
	HandlePageChange(page int) error
	ResetFilters()
	ClearSearch()
	ResetSort()
	Refresh()

	State() ListState
	Subscribe() (<-chan ListState, func())
	WaitIdle(ctx context.Context) (ListState, error)
	Close()
}

type ListOptions struct {
	BaseURL           string
	DefaultSortColumn domain.SortColumn
	DefaultSortOrder  domain.SortOrder
}

type productList struct {
	cache    ListCache
	baseURL  string
	defaults domain.SearchParams
	log      *logrus.Entry
	ctx      context.Context
	cancel   context.CancelFunc

	mu        sync.Mutex
	lifecycle domain.Lifecycle
	params    domain.SearchParams
	url       string
	data      *domain.ProductListResponse
	err       error
	loading   bool
	closed    bool
	subs      map[int]chan ListState
	nextSub   int
}

// NewProductList returns a coordinator in the uninitialized state: no
// parameters and no request until a mutator runs.
func NewProductList(cache ListCache, opts ListOptions, logger *logrus.Logger) ProductList {
	ctx, cancel := context.WithCancel(context.Background())
	return &productList{
		cache:    cache,
		baseURL:  opts.BaseURL,
		defaults: domain.DefaultSearchParams(opts.DefaultSortColumn, opts.DefaultSortOrder),
		log:      logger.WithField("component", "product_list"),
		ctx:      ctx,
		cancel:   cancel,
		subs:     make(map[int]chan ListState),
	}
}

func (l *productList) InitializeSearch() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.lifecycle != domain.LifecycleUninitialized {
		return
	}
	l.log.Debug("Initializing search with default parameters")
	l.applyLocked(l.defaults, domain.LifecycleDefaulted)
}

func (l *productList) HandleSearch(term string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.applyLocked(l.params.WithSearch(term), domain.LifecycleUserModified)
}

func (l *productList) HandleSort(column domain.SortColumn, order domain.SortOrder) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.applyLocked(l.params.WithSort(column, order), domain.LifecycleUserModified)
}

func (l *productList) HandlePageChange(page int) error {
	if page < 1 {
		return ErrInvalidPage
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.applyLocked(l.params.WithPage(page), domain.LifecycleUserModified)
	return nil
}

func (l *productList) ResetFilters() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.applyLocked(l.defaults, domain.LifecycleDefaulted)
}

func (l *productList) ClearSearch() {
	l.HandleSearch("")
}

func (l *productList) ResetSort() {
	l.HandleSort(l.defaults.SortBy, l.defaults.Order)
}

// Refresh re-requests the current URL even when the cache holds fresh data.
func (l *productList) Refresh() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed || l.url == "" {
		return
	}
	l.startFetchLocked(l.url, true)
	l.publishLocked()
}

func (l *productList) State() ListState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshotLocked()
}

// Subscribe delivers a snapshot after every state change. The channel holds
// only the latest snapshot, so a slow reader skips intermediate states.
func (l *productList) Subscribe() (<-chan ListState, func()) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ch := make(chan ListState, 1)
	if l.closed {
		close(ch)
		return ch, func() {}
	}
	id := l.nextSub
	l.nextSub++
	l.subs[id] = ch

	return ch, func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if sub, ok := l.subs[id]; ok {
			delete(l.subs, id)
			close(sub)
		}
	}
}

// WaitIdle blocks until no fetch for the current URL is outstanding.
func (l *productList) WaitIdle(ctx context.Context) (ListState, error) {
	ch, unsubscribe := l.Subscribe()
	defer unsubscribe()

	if st := l.State(); !st.IsLoading {
		return st, nil
	}
	for {
		select {
		case st, ok := <-ch:
			if !ok {
				return l.State(), ErrListClosed
			}
			if !st.IsLoading {
				return st, nil
			}
		case <-ctx.Done():
			return l.State(), ctx.Err()
		}
	}
}

func (l *productList) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.closed = true
	l.cancel()
	for id, ch := range l.subs {
		delete(l.subs, id)
		close(ch)
	}
}

// applyLocked installs new parameters and fetches when the derived URL
// changed. Callers hold l.mu.
func (l *productList) applyLocked(params domain.SearchParams, lifecycle domain.Lifecycle) {
	if l.closed {
		return
	}
	l.params = params
	l.lifecycle = lifecycle

	key, _ := clients.BuildProductsURL(l.baseURL, &l.params)
	if key != l.url {
		l.url = key
		l.err = nil
		if cached, ok := l.cache.Peek(key); ok {
			l.data = cached
		}
		l.startFetchLocked(key, false)
	}
	l.publishLocked()
}

func (l *productList) startFetchLocked(key string, force bool) {
	l.loading = true
	l.log.WithField("url", key).Debug("Fetching product list")
	go l.fetch(key, force)
}

func (l *productList) fetch(key string, force bool) {
	var (
		data *domain.ProductListResponse
		err  error
	)
	if force {
		data, err = l.cache.Revalidate(l.ctx, key)
	} else {
		data, err = l.cache.Get(l.ctx, key)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}
	if key != l.url {
		l.log.WithField("url", key).Debug("Discarding response for superseded URL")
		return
	}

	l.loading = false
	if err != nil {
		l.log.WithField("url", key).Warnf("Product list fetch failed: %v", err)
		l.err = err
	} else {
		l.data = data
		l.err = nil
	}
	l.publishLocked()
}

func (l *productList) snapshotLocked() ListState {
	products := []domain.Product{}
	if l.data != nil && l.data.Data != nil {
		products = l.data.Data
	}
	return ListState{
		Products:      products,
		Pagination:    domain.NewPagination(l.data),
		SearchParams:  l.params,
		Lifecycle:     l.lifecycle,
		URL:           l.url,
		IsLoading:     l.loading,
		Error:         l.err,
		HasSearch:     l.params.HasSearch(),
		HasCustomSort: l.lifecycle != domain.LifecycleUninitialized && l.params.HasCustomSort(l.defaults),
		HasFilters:    l.lifecycle != domain.LifecycleUninitialized && l.params.HasFilters(l.defaults),
	}
}

func (l *productList) publishLocked() {
	if len(l.subs) == 0 {
		return
	}
	state := l.snapshotLocked()
	for _, ch := range l.subs {
		select {
		case ch <- state:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- state
		}
	}
}
