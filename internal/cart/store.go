package cart

import (
	"context"
	"sync"
	"time"

	"github.com/example/horeca/internal/apperr"
)

// Store holds carts and wishlists by session id.
type Store interface {
	// With runs fn with exclusive access to the session's cart and wishlist.
	// Changes are kept only when fn returns nil.
	With(ctx context.Context, id string, fn func(c *Cart, w *Wishlist) error) error
}

// session holds one visitor's state. Its mutex serializes every mutation.
type session struct {
	mu       sync.Mutex
	cart     Cart
	wishlist Wishlist
	seenAt   time.Time
}

// Memory keeps sessions in process, dropping those idle for longer than ttl.
type Memory struct {
	mu       sync.Mutex
	sessions map[string]*session
	ttl      time.Duration
	now      func() time.Time
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{sessions: make(map[string]*session), ttl: ttl, now: time.Now}
}

func (s *Memory) session(id string) *session {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	sess, ok := s.sessions[id]
	if !ok {
		s.evict(now)
		sess = &session{}
		s.sessions[id] = sess
	}
	sess.seenAt = now
	return sess
}

// evict runs under s.mu when a new session is created.
func (s *Memory) evict(now time.Time) {
	if s.ttl <= 0 {
		return
	}
	for id, sess := range s.sessions {
		if now.Sub(sess.seenAt) > s.ttl {
			delete(s.sessions, id)
		}
	}
}

func (s *Memory) With(ctx context.Context, id string, fn func(c *Cart, w *Wishlist) error) error {
	if err := ctx.Err(); err != nil {
		return apperr.FromStore(err, "cart")
	}
	sess := s.session(id)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	c := Cart{Lines: append([]Line(nil), sess.cart.Lines...)}
	w := Wishlist{IDs: append(sess.wishlist.IDs[:0:0], sess.wishlist.IDs...)}
	if err := fn(&c, &w); err != nil {
		return err
	}
	sess.cart, sess.wishlist = c, w
	return nil
}

func (s *Memory) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
