package interfaces

import "context"

// RedirectChannel delivers the callback URL of an external flow, at most
// once per pending hand-off.
type RedirectChannel interface {
	// RedirectURL is the URL the external flow should return to.
	RedirectURL() string
	// Await blocks until a callback URL arrives or ctx is done.
	Await(ctx context.Context) (string, error)
	Close() error
}
