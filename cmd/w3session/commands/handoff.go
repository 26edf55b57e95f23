package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"w3session/internal/domain"
	"w3session/internal/protocol/handshake"
	"w3session/internal/redirect"
)

type beginFunc func(ctx context.Context, ch domain.RedirectChannel) (*handshake.Pending, error)

// handOff opens a redirect channel, starts the hand-off, prints its URL and
// waits for the outcome.
func handOff(ctx context.Context, begin beginFunc) (handshake.Outcome, error) {
	ch, err := wire.NewChannel()
	if err != nil {
		return handshake.Outcome{}, err
	}
	defer ch.Close()

	p, err := begin(ctx, ch)
	if err != nil {
		return handshake.Outcome{}, err
	}
	fmt.Fprintf(os.Stderr, "Open this URL to continue:\n\n  %s\n\n", p.URL)

	switch c := ch.(type) {
	case *redirect.DeepLink:
		fmt.Fprintln(os.Stderr, "Paste the callback URL:")
		go readCallback(os.Stdin, c)
	case *redirect.NATS:
		log.Debug().Str("subject", c.Subject()).Msg("waiting on NATS")
	}

	wctx, cancel := context.WithTimeout(ctx, wire.Config.Redirect.Wait)
	defer cancel()
	return wire.Session.Complete(wctx, ch, p)
}

func readCallback(r io.Reader, dl *redirect.DeepLink) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			dl.Deliver(line)
			return
		}
	}
}

// initSession merges project configuration and resumes any persisted
// session.
func initSession(ctx context.Context) error {
	if _, err := wire.Session.Init(ctx); err != nil {
		return fmt.Errorf("init: %w", err)
	}
	return nil
}

func printUser(u *domain.UserInfo) {
	name := u.Name
	if name == "" {
		name = u.VerifierID
	}
	fmt.Printf("User:     %s <%s>\n", name, u.Email)
	fmt.Printf("Verifier: %s (%s)\n", u.Verifier, u.TypeOfLogin)
	fmt.Printf("MFA:      %t\n", u.IsMFAEnabled)
}
