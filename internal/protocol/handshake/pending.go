package handshake

import (
	"context"
	"encoding/json"
	"sync"

	"w3session/internal/domain"
)

// Outcome is what a hand-off or a resume produced.
type Outcome struct {
	Kind OutcomeKind
	// Response is set for Login and MFASetup.
	Response *domain.Web3AuthResponse
	// Result is the decoded b64Params document for ActionResult.
	Result json.RawMessage
}

// Pending is one hand-off awaiting its redirect. It completes exactly once,
// with an Outcome or an error.
type Pending struct {
	// ID identifies the attempt in logs.
	ID string
	// URL is the hand-off URL to open in the external flow.
	URL string

	flow flow
	once sync.Once
	done chan struct{}
	out  Outcome
	err  error
}

func newPending(id, url string, f flow) *Pending {
	return &Pending{ID: id, URL: url, flow: f, done: make(chan struct{})}
}

// Done is closed once the hand-off has completed.
func (p *Pending) Done() <-chan struct{} { return p.done }

// Wait blocks until the hand-off completes or ctx ends. A ctx error leaves
// the hand-off pending.
func (p *Pending) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-p.done:
		return p.out, p.err
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}

// complete reports whether this call delivered the result.
func (p *Pending) complete(out Outcome, err error) bool {
	delivered := false
	p.once.Do(func() {
		p.out, p.err = out, err
		close(p.done)
		delivered = true
	})
	return delivered
}
