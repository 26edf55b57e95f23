package redirect

import (
	"context"
	"errors"
	"sync"

	"w3session/internal/domain"
)

// Channel delivers at most one callback URL per hand-off.
type Channel = domain.RedirectChannel

var (
	// ErrClosed is returned by Await once the channel is closed.
	ErrClosed = errors.New("redirect channel closed")
	// ErrNoCallback means the page was not loaded from a callback.
	ErrNoCallback = errors.New("no pending callback")
)

// slot hands over the first delivered URL and ignores the rest.
type slot struct {
	once      sync.Once
	ch        chan string
	closeOnce sync.Once
	closed    chan struct{}
}

func newSlot() *slot {
	return &slot{ch: make(chan string, 1), closed: make(chan struct{})}
}

// deliver reports whether u was accepted.
func (s *slot) deliver(u string) bool {
	accepted := false
	s.once.Do(func() {
		s.ch <- u
		accepted = true
	})
	return accepted
}

func (s *slot) await(ctx context.Context) (string, error) {
	select {
	case u := <-s.ch:
		return u, nil
	case <-s.closed:
		return "", ErrClosed
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (s *slot) close() {
	s.closeOnce.Do(func() { close(s.closed) })
}
