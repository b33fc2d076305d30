package service

import (
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/noah-isme/siak-warlock/internal/models"
)

// Session is one automation run. It owns its challenge relay so concurrent
// sessions never share a pending captcha.
type Session struct {
	ID    string
	Relay *ChallengeRelay
}

// NewSession creates a session with a fresh identifier.
func NewSession(relay *ChallengeRelay) *Session {
	return &Session{ID: uuid.NewString(), Relay: relay}
}

// SessionRegistry tracks live sessions so inbound replies can be routed to
// the relay holding the correlated challenge.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessionRegistry constructs an empty registry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{sessions: make(map[string]*Session)}
}

// Add registers a session.
func (r *SessionRegistry) Add(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s
}

// Remove forgets a session.
func (r *SessionRegistry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Get returns a session by id.
func (r *SessionRegistry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// List returns every live session.
func (r *SessionRegistry) List() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}

// Deliver routes a reply to whichever session holds the correlated challenge.
func (r *SessionRegistry) Deliver(reply models.ChallengeReply) bool {
	for _, s := range r.List() {
		if s.Relay != nil && s.Relay.Deliver(reply) {
			return true
		}
	}
	return false
}

// PendingChallenge pairs a posted challenge with its owning session.
type PendingChallenge struct {
	SessionID string           `json:"session_id"`
	Challenge models.Challenge `json:"challenge"`
}

// Pending lists posted challenges across sessions, oldest first.
func (r *SessionRegistry) Pending() []PendingChallenge {
	out := make([]PendingChallenge, 0)
	for _, s := range r.List() {
		if s.Relay == nil {
			continue
		}
		if c, ok := s.Relay.Current(); ok {
			out = append(out, PendingChallenge{SessionID: s.ID, Challenge: c})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Challenge.CreatedAt.Before(out[j].Challenge.CreatedAt)
	})
	return out
}
