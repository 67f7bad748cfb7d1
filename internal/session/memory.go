package session

import (
	"context"
	"sync"
	"time"

	"github.com/forgeml/platform/internal/auth"
)

// MemoryStore is an in-process implementation of auth.SessionStore and
// auth.OneTimeTokenStore for local development and tests. It is NOT suitable
// for multi-instance deployments: counters and sessions live in process
// memory.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]auth.SessionRecord
	byUser   map[string]map[string]struct{}
	onetime  map[string]onetimeEntry

	now func() time.Time
}

type onetimeEntry struct {
	userID    string
	expiresAt time.Time
}

// NewMemoryStore returns an empty store. A nil clock defaults to time.Now.
func NewMemoryStore(now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{
		sessions: make(map[string]auth.SessionRecord),
		byUser:   make(map[string]map[string]struct{}),
		onetime:  make(map[string]onetimeEntry),
		now:      now,
	}
}

var (
	_ auth.SessionStore      = (*MemoryStore)(nil)
	_ auth.OneTimeTokenStore = (*MemoryStore)(nil)
)

func (s *MemoryStore) Put(_ context.Context, rec auth.SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[rec.TokenID] = rec
	set, ok := s.byUser[rec.UserID]
	if !ok {
		set = make(map[string]struct{})
		s.byUser[rec.UserID] = set
	}
	set[rec.TokenID] = struct{}{}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, tokenID string) (*auth.SessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.sessions[tokenID]
	if !ok || s.now().After(rec.ExpiresAt) {
		return nil, auth.ErrNotFound
	}
	out := rec
	return &out, nil
}

func (s *MemoryStore) Delete(_ context.Context, tokenID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.sessions[tokenID]; ok {
		delete(s.sessions, tokenID)
		delete(s.byUser[rec.UserID], tokenID)
	}
	return nil
}

func (s *MemoryStore) RevokeUser(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for tokenID := range s.byUser[userID] {
		delete(s.sessions, tokenID)
	}
	delete(s.byUser, userID)
	return nil
}

func (s *MemoryStore) Save(_ context.Context, purpose, token, userID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onetime[purpose+":"+token] = onetimeEntry{
		userID:    userID,
		expiresAt: s.now().Add(ttl),
	}
	return nil
}

func (s *MemoryStore) Consume(_ context.Context, purpose, token string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := purpose + ":" + token
	entry, ok := s.onetime[key]
	if !ok {
		return "", auth.ErrNotFound
	}
	delete(s.onetime, key)
	if s.now().After(entry.expiresAt) {
		return "", auth.ErrNotFound
	}
	return entry.userID, nil
}
