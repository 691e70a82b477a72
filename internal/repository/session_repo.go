package repository

import (
	"fmt"
	"sync"
	"time"

	"catalog_viewer/internal/usecase"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type sessionRecord struct {
	session  *usecase.Session
	lastSeen time.Time
}

type inMemorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*sessionRecord
	log      *logrus.Logger
	now      func() time.Time
}

func NewInMemorySessionRepository(logger *logrus.Logger) usecase.SessionRepository {
	return &inMemorySessionRepository{
		sessions: make(map[uuid.UUID]*sessionRecord),
		log:      logger,
		now:      time.Now,
	}
}

func (r *inMemorySessionRepository) Save(session *usecase.Session) error {
	if session == nil || session.ID == uuid.Nil {
		return fmt.Errorf("session must have an id")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sessions[session.ID]; exists {
		r.log.Warnf("Repository: Session %s already exists", session.ID)
		return fmt.Errorf("session with id %s already exists", session.ID)
	}
	r.sessions[session.ID] = &sessionRecord{session: session, lastSeen: r.now()}
	r.log.Debugf("Repository: Session %s saved", session.ID)
	return nil
}

// Get returns the session and marks it as recently used.
func (r *inMemorySessionRepository) Get(id uuid.UUID) (*usecase.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, usecase.ErrSessionNotFound)
	}
	rec.lastSeen = r.now()
	return rec.session, nil
}

func (r *inMemorySessionRepository) Delete(id uuid.UUID) (*usecase.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, usecase.ErrSessionNotFound)
	}
	delete(r.sessions, id)
	r.log.Debugf("Repository: Session %s deleted", id)
	return rec.session, nil
}

// ExpireIdle removes and returns sessions not used since idleSince.
func (r *inMemorySessionRepository) ExpireIdle(idleSince time.Time) []*usecase.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	var expired []*usecase.Session
	for id, rec := range r.sessions {
		if rec.lastSeen.Before(idleSince) {
			expired = append(expired, rec.session)
			delete(r.sessions, id)
		}
	}
	return expired
}

func (r *inMemorySessionRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
