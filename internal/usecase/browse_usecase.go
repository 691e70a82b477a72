package usecase

import (
	"context"
	"errors"
	"time"

	"catalog_viewer/internal/clients"
	"catalog_viewer/internal/domain"
	"catalog_viewer/internal/search"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var ErrSessionNotFound = errors.New("session not found")

// Session is one user's browsing state: a coordinator and the search box
// that feeds it.
type Session struct {
	ID        uuid.UUID
	List      ProductList
	Search    *search.SearchInput
	CreatedAt time.Time
}

type SessionRepository interface {
	Save(session *Session) error
	Get(id uuid.UUID) (*Session, error)
	Delete(id uuid.UUID) (*Session, error)
	ExpireIdle(idleSince time.Time) []*Session
	Count() int
}

type BrowseUseCase interface {
	Open() (*Session, error)
	Get(id uuid.UUID) (*Session, error)
	Close(id uuid.UUID) error
	ExpireIdle(ttl time.Duration) int
	RunExpiry(ctx context.Context, ttl, every time.Duration)
	ListProducts(ctx context.Context, params domain.SearchParams) (*domain.ProductListResponse, error)
	Defaults() domain.SearchParams
}

type BrowseOptions struct {
	List     ListOptions
	Debounce time.Duration
}

type browseUseCase struct {
	cache ListCache
	repo  SessionRepository
	opts  BrowseOptions
	log   *logrus.Logger
	now   func() time.Time
}

func NewBrowseUseCase(cache ListCache, repo SessionRepository, opts BrowseOptions, logger *logrus.Logger) BrowseUseCase {
	return &browseUseCase{
		cache: cache,
		repo:  repo,
		opts:  opts,
		log:   logger,
		now:   time.Now,
	}
}

func (uc *browseUseCase) Open() (*Session, error) {
	list := NewProductList(uc.cache, uc.opts.List, uc.log)
	session := &Session{
		ID:        uuid.New(),
		List:      list,
		Search:    search.NewSearchInput(uc.opts.Debounce, list.HandleSearch, uc.log),
		CreatedAt: uc.now(),
	}

	if err := uc.repo.Save(session); err != nil {
		uc.log.Errorf("Use Case: Failed to save session %s: %v", session.ID, err)
		session.Search.Stop()
		list.Close()
		return nil, err
	}

	list.InitializeSearch()
	uc.log.Infof("Use Case: Opened browsing session %s", session.ID)
	return session, nil
}

func (uc *browseUseCase) Get(id uuid.UUID) (*Session, error) {
	session, err := uc.repo.Get(id)
	if err != nil {
		uc.log.Debugf("Use Case: Session %s lookup failed: %v", id, err)
		return nil, err
	}
	return session, nil
}

func (uc *browseUseCase) Close(id uuid.UUID) error {
	session, err := uc.repo.Delete(id)
	if err != nil {
		uc.log.Warnf("Use Case: Failed to close session %s: %v", id, err)
		return err
	}
	shutdown(session)
	uc.log.Infof("Use Case: Closed browsing session %s", id)
	return nil
}

func (uc *browseUseCase) ExpireIdle(ttl time.Duration) int {
	expired := uc.repo.ExpireIdle(uc.now().Add(-ttl))
	for _, session := range expired {
		shutdown(session)
	}
	if len(expired) > 0 {
		uc.log.Infof("Use Case: Expired %d idle sessions, %d remain", len(expired), uc.repo.Count())
	}
	return len(expired)
}

func (uc *browseUseCase) RunExpiry(ctx context.Context, ttl, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			uc.ExpireIdle(ttl)
		case <-ctx.Done():
			uc.log.Info("Use Case: Session expiry loop stopped")
			return
		}
	}
}

// ListProducts fetches one page through the shared cache without a session.
func (uc *browseUseCase) ListProducts(ctx context.Context, params domain.SearchParams) (*domain.ProductListResponse, error) {
	if params.Page < 0 {
		return nil, ErrInvalidPage
	}
	key, _ := clients.BuildProductsURL(uc.opts.List.BaseURL, &params)
	uc.log.Debugf("Use Case: One-shot product listing for %s", key)
	return uc.cache.Get(ctx, key)
}

func (uc *browseUseCase) Defaults() domain.SearchParams {
	return domain.DefaultSearchParams(uc.opts.List.DefaultSortColumn, uc.opts.List.DefaultSortOrder)
}

func shutdown(session *Session) {
	session.Search.Stop()
	session.List.Close()
}
