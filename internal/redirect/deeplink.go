package redirect

import "context"

// DeepLink receives callback URLs pushed by the host, typically from an OS
// URL-scheme handler. The first URL wins.
type DeepLink struct {
	redirectURL string
	slot        *slot
}

// NewDeepLink returns a channel whose RedirectURL is the registered scheme
// URL, e.g. "myapp://auth".
func NewDeepLink(redirectURL string) *DeepLink {
	return &DeepLink{redirectURL: redirectURL, slot: newSlot()}
}

func (d *DeepLink) RedirectURL() string { return d.redirectURL }

// Deliver hands u to the waiting handshake. It reports false when a URL was
// already delivered.
func (d *DeepLink) Deliver(u string) bool { return d.slot.deliver(u) }

func (d *DeepLink) Await(ctx context.Context) (string, error) { return d.slot.await(ctx) }

func (d *DeepLink) Close() error {
	d.slot.close()
	return nil
}

var _ Channel = (*DeepLink)(nil)
