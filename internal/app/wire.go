package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"w3session/internal/domain"
	"w3session/internal/protocol/handshake"
	"w3session/internal/redirect"
	"w3session/internal/relay"
	sessionsvc "w3session/internal/services/session"
	"w3session/internal/store"
)

// Wire bundles the stores, clients and services for the CLI.
type Wire struct {
	Config    *Config
	KeyStore  domain.KeyValueStore
	Transport *relay.HTTP
	Store     *relay.Client
	Handshake *handshake.Handshake
	Session   *sessionsvc.Service

	log     zerolog.Logger
	nc      *nats.Conn
	closers []func() error
}

// NewWire constructs the dependency graph from cfg.
func NewWire(cfg *Config, log zerolog.Logger) (*Wire, error) {
	w := &Wire{Config: cfg, log: log}

	kv, err := w.openKeyStore()
	if err != nil {
		return nil, err
	}
	w.KeyStore = kv

	// The store transport has the store base; the signer config call uses
	// absolute URLs through the same transport.
	w.Transport = relay.NewHTTP(cfg.StoreURL, cfg.HTTPTimeout)
	w.Store = relay.NewClient(w.Transport)

	opts := sessionsvc.Options{
		ClientID:    cfg.ClientID,
		Network:     cfg.Network,
		BuildEnv:    cfg.BuildEnv,
		RedirectURL: cfg.Redirect.URL,
		SessionTime: cfg.SessionTime,
		SignerURL:   cfg.SignerURL,
	}
	if cfg.UseCoreKitKey {
		yes := true
		opts.UseCoreKitKey = &yes
	}
	if v := cfg.Verifier; v.Verifier != "" {
		name := v.Name
		if name == "" {
			name = v.TypeOfLogin
		}
		opts.LoginConfig = map[string]sessionsvc.LoginConfigItem{
			name: {Verifier: v.Verifier, TypeOfLogin: v.TypeOfLogin, ClientID: v.ClientID},
		}
	}

	w.Handshake = handshake.New(w.Store, kv, handshake.Config{
		SDKURL:        cfg.SDKURL,
		WalletURL:     cfg.WalletURL,
		SessionTTL:    cfg.HandOffTTL,
		AllowedOrigin: cfg.AllowedOrigin,
		Verifier:      opts.Verifier(),
		Logger:        &log,
	})
	w.Session = sessionsvc.New(opts, w.Handshake, kv, w.Transport, log)
	return w, nil
}

func (w *Wire) openKeyStore() (domain.KeyValueStore, error) {
	cfg := w.Config
	switch cfg.KeyStore.Backend {
	case KeyStoreMemory:
		return store.NewMemoryStore(), nil
	case KeyStoreSQLite:
		if err := os.MkdirAll(cfg.Home, 0o700); err != nil {
			return nil, err
		}
		s, err := store.OpenSQLiteStore(filepath.Join(cfg.Home, "session.db"))
		if err != nil {
			return nil, err
		}
		w.closers = append(w.closers, s.Close)
		return s, nil
	case KeyStoreFile:
		return store.NewFileStore(cfg.Home, cfg.KeyStore.Passphrase), nil
	default:
		return nil, fmt.Errorf("unknown keystore backend %q", cfg.KeyStore.Backend)
	}
}

// NewChannel opens a redirect channel for one hand-off according to the
// configured mode. The caller closes it.
func (w *Wire) NewChannel() (domain.RedirectChannel, error) {
	rc := w.Config.Redirect
	switch rc.Mode {
	case ModeLoopback:
		return redirect.NewLoopback(rc.ListenAddr, w.log)
	case ModeDeepLink:
		if rc.URL == "" {
			return nil, errors.New("deeplink mode needs redirect.url")
		}
		return redirect.NewDeepLink(rc.URL), nil
	case ModeNATS:
		if w.nc == nil {
			nc, err := redirect.DialNATS(rc.NATSURL, "w3session", w.log)
			if err != nil {
				return nil, err
			}
			w.nc = nc
			w.closers = append(w.closers, func() error { nc.Close(); return nil })
		}
		return redirect.NewNATS(w.nc, rc.NATSPrefix, rc.NATSRedirectBase, w.log)
	default:
		return nil, fmt.Errorf("unknown redirect mode %q", rc.Mode)
	}
}

// Close releases the key store and any bus connection.
func (w *Wire) Close() error {
	var err error
	for i := len(w.closers) - 1; i >= 0; i-- {
		err = errors.Join(err, w.closers[i]())
	}
	w.closers = nil
	return err
}
