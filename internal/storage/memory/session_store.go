package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/openlistings/fsbo-harvester/internal/scrape"
)

// SessionStore is a thread-safe in-memory scrape.SessionStore.
type SessionStore struct {
	mu       sync.RWMutex
	nextID   int64
	sessions []scrape.Session
}

// NewSessionStore creates an empty SessionStore.
func NewSessionStore() *SessionStore {
	return &SessionStore{nextID: 1}
}

// Record appends one session and returns its ID.
func (s *SessionStore) Record(_ context.Context, session scrape.Session) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session.ID = s.nextID
	s.nextID++
	s.sessions = append(s.sessions, session)
	return session.ID, nil
}

// History returns the most recent sessions, newest first, optionally
// restricted to one source.
func (s *SessionStore) History(_ context.Context, source string, limit int) ([]scrape.Session, error) {
	if limit <= 0 {
		limit = 20
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]scrape.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		if source != "" && sess.SourceWebsite != source {
			continue
		}
		matched = append(matched, sess)
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].ScrapeStart.Equal(matched[j].ScrapeStart) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].ScrapeStart.After(matched[j].ScrapeStart)
	})
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}
