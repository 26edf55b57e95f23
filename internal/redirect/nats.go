package redirect

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// DialNATS connects to a NATS server with logging reconnect handlers.
func DialNATS(url, name string, log zerolog.Logger) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.Name(name),
		nats.ReconnectWait(2 * time.Second),
		nats.MaxReconnects(10),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}
	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return conn, nil
}

// NATS receives the callback URL over a message bus, for hosts with no
// browser or listener of their own. A forwarding page at RedirectURL
// publishes the callback URL it was loaded with to Subject.
type NATS struct {
	sub         *nats.Subscription
	subject     string
	redirectURL string
	slot        *slot
	log         zerolog.Logger
}

// NewNATS subscribes to a fresh subject under prefix. conn stays owned by the
// caller.
func NewNATS(conn *nats.Conn, prefix, redirectBase string, log zerolog.Logger) (*NATS, error) {
	n := newNATS(prefix, redirectBase, log)
	sub, err := conn.Subscribe(n.subject, n.handle)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", n.subject, err)
	}
	n.sub = sub
	n.log.Debug().Str("subject", n.subject).Msg("subscribed for redirect")
	return n, nil
}

func newNATS(prefix, redirectBase string, log zerolog.Logger) *NATS {
	token := uuid.NewString()
	return &NATS{
		subject:     strings.TrimSuffix(prefix, ".") + "." + token,
		redirectURL: strings.TrimSuffix(redirectBase, "/") + "/" + token,
		slot:        newSlot(),
		log:         log.With().Str("component", "nats_redirect").Logger(),
	}
}

func (n *NATS) handle(msg *nats.Msg) {
	u := strings.TrimSpace(string(msg.Data))
	if !n.slot.deliver(u) {
		n.log.Debug().Str("subject", msg.Subject).Msg("redirect already delivered, dropping")
		return
	}
	if msg.Reply != "" {
		_ = msg.Respond([]byte("ok"))
	}
}

// Subject is where the forwarding page publishes.
func (n *NATS) Subject() string { return n.subject }

func (n *NATS) RedirectURL() string { return n.redirectURL }

func (n *NATS) Await(ctx context.Context) (string, error) { return n.slot.await(ctx) }

func (n *NATS) Close() error {
	n.slot.close()
	if n.sub == nil {
		return nil
	}
	return n.sub.Unsubscribe()
}

var _ Channel = (*NATS)(nil)
