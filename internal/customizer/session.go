package customizer

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"frameshop/pkg/cache"
)

// Session one shopper's customizer. All access goes through Do so that
// concurrent requests on the same session do not interleave.
type Session struct {
	ID     string
	CartID string

	mu         sync.Mutex
	customizer *Customizer
}

// Do runs fn with exclusive access to the session's customizer.
func (s *Session) Do(fn func(c *Customizer) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.customizer)
}

// BindCart remembers the cart the session's frames were added to.
func (s *Session) BindCart(cartID string) {
	s.mu.Lock()
	s.CartID = cartID
	s.mu.Unlock()
}

func (s *Session) Cart() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.CartID
}

// Store keeps sessions in memory; a session expires ttl after its last use.
type Store struct {
	sessions *cache.InMemory[*Session]
	ttl      time.Duration
}

func NewStore(sessions *cache.InMemory[*Session], ttl time.Duration) *Store {
	return &Store{sessions: sessions, ttl: ttl}
}

func (s *Store) Create(ctx context.Context, c *Customizer) (*Session, error) {
	session := &Session{ID: uuid.NewString(), customizer: c}
	if err := s.sessions.Set(ctx, session.ID, session, s.ttl); err != nil {
		return nil, err
	}
	return session, nil
}

// Get returns the session and extends its lifetime.
func (s *Store) Get(ctx context.Context, id string) (*Session, error) {
	session, ok, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrSessionNotFound
	}
	if err = s.sessions.Set(ctx, id, session, s.ttl); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	return s.sessions.Delete(ctx, id)
}

// Sweep drops expired sessions.
func (s *Store) Sweep() int {
	return s.sessions.Sweep()
}
