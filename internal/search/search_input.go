package search

import (
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const DefaultDebounce = 500 * time.Millisecond

// SearchInput debounces search terms before handing them to onSearch.
// Only one timer is ever pending; each keystroke replaces it.
type SearchInput struct {
	delay    time.Duration
	onSearch func(term string)
	log      *logrus.Logger

	mu    sync.Mutex
	value string
	timer *time.Timer
	gen   uint64
}

func NewSearchInput(delay time.Duration, onSearch func(term string), logger *logrus.Logger) *SearchInput {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &SearchInput{
		delay:    delay,
		onSearch: onSearch,
		log:      logger,
	}
}

// Type records a keystroke. Blank values cancel the pending search and
// schedule nothing.
func (s *SearchInput) Type(value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.value = value
	s.stopLocked()
	if strings.TrimSpace(value) == "" {
		return
	}

	gen := s.gen
	s.timer = time.AfterFunc(s.delay, func() {
		s.mu.Lock()
		if gen != s.gen {
			s.mu.Unlock()
			return
		}
		s.timer = nil
		s.mu.Unlock()

		s.log.Debugf("SearchInput: Debounced search for %q", value)
		s.onSearch(value)
	})
}

// Submit searches for the current value right away.
func (s *SearchInput) Submit() {
	s.mu.Lock()
	s.stopLocked()
	value := s.value
	s.mu.Unlock()

	s.submit(value)
}

// SubmitValue replaces the input value and submits it.
func (s *SearchInput) SubmitValue(value string) {
	s.mu.Lock()
	s.stopLocked()
	s.value = value
	s.mu.Unlock()

	s.submit(value)
}

func (s *SearchInput) submit(value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	s.onSearch(value)
}

// Clear empties the input and searches for "" right away.
func (s *SearchInput) Clear() {
	s.mu.Lock()
	s.stopLocked()
	s.value = ""
	s.mu.Unlock()

	s.onSearch("")
}

// Reset empties the input and cancels any pending search without notifying.
func (s *SearchInput) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	s.value = ""
}

func (s *SearchInput) Value() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

func (s *SearchInput) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}

func (s *SearchInput) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

// stopLocked cancels the pending timer. Bumping gen also disarms a callback
// that already fired but has not taken the lock yet.
func (s *SearchInput) stopLocked() {
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
