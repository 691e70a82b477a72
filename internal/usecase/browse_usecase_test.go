package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"catalog_viewer/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memorySessionRepo struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
	saveErr  error
}

func newMemorySessionRepo() *memorySessionRepo {
	return &memorySessionRepo{sessions: make(map[uuid.UUID]*Session)}
}

func (r *memorySessionRepo) Save(s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.sessions[s.ID] = s
	return nil
}

func (r *memorySessionRepo) Get(id uuid.UUID) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (r *memorySessionRepo) Delete(id uuid.UUID) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	delete(r.sessions, id)
	return s, nil
}

func (r *memorySessionRepo) ExpireIdle(idleSince time.Time) []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Session
	for id, s := range r.sessions {
		if s.CreatedAt.Before(idleSince) {
			out = append(out, s)
			delete(r.sessions, id)
		}
	}
	return out
}

func (r *memorySessionRepo) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func newTestBrowse(t *testing.T, f *scriptedFetcher, repo SessionRepository) *browseUseCase {
	t.Helper()
	list := newTestList(t, f).(*productList)
	return NewBrowseUseCase(list.cache, repo, BrowseOptions{
		List: ListOptions{
			BaseURL:           testBaseURL,
			DefaultSortColumn: domain.SortByName,
			DefaultSortOrder:  domain.OrderDesc,
		},
		Debounce: 10 * time.Millisecond,
	}, quietLogger()).(*browseUseCase)
}

func TestBrowseUseCase_OpenInitializesSession(t *testing.T) {
	repo := newMemorySessionRepo()
	uc := newTestBrowse(t, okFetcher(), repo)

	s, err := uc.Open()
	require.NoError(t, err)
	defer uc.Close(s.ID)

	assert.NotEqual(t, uuid.Nil, s.ID)
	st := waitIdle(t, s.List)
	assert.Equal(t, domain.LifecycleDefaulted, st.Lifecycle)
	assert.Len(t, st.Products, 1)

	got, err := uc.Get(s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)
}

func TestBrowseUseCase_SearchInputFeedsList(t *testing.T) {
	uc := newTestBrowse(t, okFetcher(), newMemorySessionRepo())
	s, err := uc.Open()
	require.NoError(t, err)
	defer uc.Close(s.ID)

	s.Search.Type("lamp")
	require.Eventually(t, func() bool {
		return s.List.State().SearchParams.Search == "lamp"
	}, time.Second, 5*time.Millisecond)

	s.Search.Clear()
	assert.Equal(t, "", s.List.State().SearchParams.Search)
}

func TestBrowseUseCase_OpenFailsWhenSaveFails(t *testing.T) {
	repo := newMemorySessionRepo()
	repo.saveErr = errors.New("full")
	uc := newTestBrowse(t, okFetcher(), repo)

	_, err := uc.Open()
	assert.Error(t, err)
}

func TestBrowseUseCase_CloseStopsSession(t *testing.T) {
	uc := newTestBrowse(t, okFetcher(), newMemorySessionRepo())
	s, err := uc.Open()
	require.NoError(t, err)

	require.NoError(t, uc.Close(s.ID))
	_, err = uc.Get(s.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, uc.Close(s.ID), ErrSessionNotFound)

	ch, _ := s.List.Subscribe()
	_, open := <-ch
	assert.False(t, open)
}

func TestBrowseUseCase_ExpireIdle(t *testing.T) {
	repo := newMemorySessionRepo()
	uc := newTestBrowse(t, okFetcher(), repo)

	now := time.Now()
	uc.now = func() time.Time { return now }
	_, err := uc.Open()
	require.NoError(t, err)

	now = now.Add(time.Hour)
	assert.Equal(t, 1, uc.ExpireIdle(30*time.Minute))
	assert.Equal(t, 0, repo.Count())
}

func TestBrowseUseCase_RunExpiryStopsOnCancel(t *testing.T) {
	uc := newTestBrowse(t, okFetcher(), newMemorySessionRepo())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		uc.RunExpiry(ctx, time.Minute, time.Millisecond)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RunExpiry did not return after cancel")
	}
}

func TestBrowseUseCase_ListProducts(t *testing.T) {
	f := okFetcher()
	uc := newTestBrowse(t, f, newMemorySessionRepo())

	resp, err := uc.ListProducts(context.Background(), domain.SearchParams{Search: "a b", Page: 2})
	require.NoError(t, err)
	assert.Equal(t, 25, resp.Total)
	require.Equal(t, 1, f.callCount())
	f.mu.Lock()
	first := f.calls[0]
	f.mu.Unlock()
	assert.True(t, strings.HasSuffix(first, "?search=a+b&page=2"))

	_, err = uc.ListProducts(context.Background(), domain.SearchParams{Page: -1})
	assert.ErrorIs(t, err, ErrInvalidPage)
}

func TestBrowseUseCase_AbandonedListingDoesNotFailSession(t *testing.T) {
	gate := make(chan struct{})
	f := &scriptedFetcher{respond: func(string) (*domain.ProductListResponse, error) {
		<-gate
		return named("Widget"), nil
	}}
	uc := newTestBrowse(t, f, newMemorySessionRepo())

	reqCtx, cancelReq := context.WithCancel(context.Background())
	listed := make(chan error, 1)
	go func() {
		_, err := uc.ListProducts(reqCtx, uc.Defaults())
		listed <- err
	}()
	require.Eventually(t, func() bool { return f.callCount() == 1 }, time.Second, time.Millisecond)

	s, err := uc.Open()
	require.NoError(t, err)
	defer uc.Close(s.ID)

	cancelReq()
	assert.ErrorIs(t, <-listed, context.Canceled)

	close(gate)
	st := waitIdle(t, s.List)
	assert.NoError(t, st.Error)
	require.Len(t, st.Products, 1)
	assert.Equal(t, "Widget", st.Products[0].Name)
	assert.Equal(t, 1, f.callCount())
}

func TestBrowseUseCase_Defaults(t *testing.T) {
	uc := newTestBrowse(t, okFetcher(), newMemorySessionRepo())
	assert.Equal(t, domain.SearchParams{Page: 1, SortBy: domain.SortByName, Order: domain.OrderDesc}, uc.Defaults())
}
