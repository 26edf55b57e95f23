package redirect

import (
	"context"
	"net/url"
)

// Fragment serves hosts where the redirect reloads the page itself: the
// callback is the URL the page was loaded with. A URL without a fragment
// means no callback is pending.
type Fragment struct {
	current *url.URL
	slot    *slot
}

// NewFragment parses the current page URL.
func NewFragment(currentURL string) (*Fragment, error) {
	u, err := url.Parse(currentURL)
	if err != nil {
		return nil, err
	}
	f := &Fragment{current: u, slot: newSlot()}
	if u.Fragment != "" {
		f.slot.deliver(u.String())
	}
	return f, nil
}

// RedirectURL is the current page without its fragment.
func (f *Fragment) RedirectURL() string {
	u := *f.current
	u.Fragment, u.RawFragment = "", ""
	return u.String()
}

// Await returns the callback at once, or ErrNoCallback.
func (f *Fragment) Await(ctx context.Context) (string, error) {
	if f.current.Fragment == "" {
		return "", ErrNoCallback
	}
	return f.slot.await(ctx)
}

func (f *Fragment) Close() error {
	f.slot.close()
	return nil
}

var _ Channel = (*Fragment)(nil)
