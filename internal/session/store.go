package session

import (
	"crypto/rand"
	"encoding/base64"
	"sync"
	"time"
)

type entry struct {
	userID string
	expiry time.Time
}

// Store manages session tokens with automatic expiration. Each token is
// bound to the user it was issued for.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]entry
	ttl      time.Duration
	done     chan struct{}
	wg       sync.WaitGroup
}

// NewStore creates a new session store with the given TTL
func NewStore(ttl time.Duration) *Store {
	s := &Store{
		sessions: make(map[string]entry),
		ttl:      ttl,
		done:     make(chan struct{}),
	}
	// Start background cleanup goroutine
	s.wg.Add(1)
	go s.cleanup()
	return s
}

// Create generates a new session token bound to userID and stores it
func (s *Store) Create(userID string) (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	token := base64.URLEncoding.EncodeToString(b)

	s.mu.Lock()
	s.sessions[token] = entry{userID: userID, expiry: time.Now().Add(s.ttl)}
	s.mu.Unlock()

	return token, nil
}

// Lookup returns the user bound to a valid token
func (s *Store) Lookup(token string) (string, bool) {
	s.mu.RLock()
	e, exists := s.sessions[token]
	s.mu.RUnlock()

	if !exists || time.Now().After(e.expiry) {
		return "", false
	}
	return e.userID, true
}

// Delete removes a session token
func (s *Store) Delete(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

// Refresh extends the expiration of a valid token
func (s *Store) Refresh(token string) {
	s.mu.Lock()
	if e, exists := s.sessions[token]; exists && time.Now().Before(e.expiry) {
		e.expiry = time.Now().Add(s.ttl)
		s.sessions[token] = e
	}
	s.mu.Unlock()
}

// cleanup periodically removes expired sessions
func (s *Store) cleanup() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.ttl / 2)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			now := time.Now()
			s.mu.Lock()
			for token, e := range s.sessions {
				if now.After(e.expiry) {
					delete(s.sessions, token)
				}
			}
			s.mu.Unlock()
		}
	}
}

// Close signals the cleanup goroutine to stop and waits for it to finish
func (s *Store) Close() {
	close(s.done)
	s.wg.Wait()
}
