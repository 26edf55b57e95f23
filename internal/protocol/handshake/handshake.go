package handshake

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"w3session/internal/crypto"
	"w3session/internal/domain"
	"w3session/internal/relay"
)

// Config holds the fixed parameters of a Handshake.
type Config struct {
	// SDKURL is the base of login and MFA hand-offs.
	SDKURL string
	// WalletURL is the base of wallet hand-offs. Defaults to SDKURL.
	WalletURL string
	// SessionTTL is the lifetime in seconds of the entry written for each
	// hand-off. It is clamped to relay.MaxTTL; zero means relay.DefaultTTL.
	SessionTTL int64
	// AllowedOrigin is declared on every hand-off entry. Defaults to "*".
	AllowedOrigin string
	// Verifier names the recovery share cleared on logout.
	Verifier string
	// Logger defaults to a no-op logger.
	Logger *zerolog.Logger
}

// Action describes a hand-off made on behalf of an existing session.
type Action struct {
	// Path is appended to the wallet URL, e.g. "wallet" or "wallet/request".
	Path    string
	Payload any
	Origin  string
	// Request, when set, is carried in the hand-off reference and the
	// redirect is delivered as an ActionResult instead of re-authorizing.
	Request string
}

type flow struct {
	base, path string
	payload    any
	origin     string
	kind       OutcomeKind
	// needSession requires a persisted session id; shareSession also puts it
	// in the hand-off reference.
	needSession  bool
	shareSession bool
	request      string
}

// Handshake drives session creation, hand-off, redirect resumption and
// logout against a remote session store. One Handshake serves one logical
// user session.
//
// Methods block on network calls and take a context; callers that must not
// block run them on their own goroutine. All transitions, and every write to
// the local key store, happen under a single mutex.
type Handshake struct {
	cfg   Config
	store domain.SessionStoreClient
	kv    domain.KeyValueStore
	log   zerolog.Logger

	state atomic.Int32

	mu      sync.Mutex
	pending *Pending

	view    sync.RWMutex
	session *domain.Web3AuthResponse
	lastErr error
}

// New returns an Idle handshake.
func New(store domain.SessionStoreClient, kv domain.KeyValueStore, cfg Config) *Handshake {
	if cfg.AllowedOrigin == "" {
		cfg.AllowedOrigin = "*"
	}
	if cfg.WalletURL == "" {
		cfg.WalletURL = cfg.SDKURL
	}
	log := zerolog.Nop()
	if cfg.Logger != nil {
		log = cfg.Logger.With().Str("component", "handshake").Logger()
	}
	return &Handshake{cfg: cfg, store: store, kv: kv, log: log}
}

// State returns the current state. It never blocks.
func (h *Handshake) State() State { return State(h.state.Load()) }

// Err returns the error of the most recent failure, if any.
func (h *Handshake) Err() error {
	h.view.RLock()
	defer h.view.RUnlock()
	return h.lastErr
}

// Session returns the response of the established session, or nil.
func (h *Handshake) Session() *domain.Web3AuthResponse {
	h.view.RLock()
	defer h.view.RUnlock()
	return h.session
}

// BeginLogin starts a login hand-off. The returned Pending completes when
// OnRedirect is called with the callback URL.
func (h *Handshake) BeginLogin(ctx context.Context, payload any, origin string) (*Pending, error) {
	return h.begin(ctx, flow{
		base:    h.cfg.SDKURL,
		path:    "start",
		payload: payload,
		origin:  origin,
		kind:    Login,
	})
}

// BeginMFA starts an MFA enrolment hand-off for the persisted session.
func (h *Handshake) BeginMFA(ctx context.Context, payload any, origin string) (*Pending, error) {
	return h.begin(ctx, flow{
		base:        h.cfg.SDKURL,
		path:        "start",
		payload:     payload,
		origin:      origin,
		kind:        MFASetup,
		needSession: true,
	})
}

// BeginAction starts a wallet hand-off for the persisted session. It fails
// with ErrSessionNotFound when there is none.
func (h *Handshake) BeginAction(ctx context.Context, a Action) (*Pending, error) {
	kind := Login
	if a.Request != "" {
		kind = ActionResult
	}
	return h.begin(ctx, flow{
		base:         h.cfg.WalletURL,
		path:         a.Path,
		payload:      a.Payload,
		origin:       a.Origin,
		kind:         kind,
		needSession:  true,
		shareSession: true,
		request:      a.Request,
	})
}

func (h *Handshake) begin(ctx context.Context, f flow) (*Pending, error) {
	if !h.mu.TryLock() {
		return nil, ErrBusy
	}
	defer h.mu.Unlock()
	if h.State().busy() {
		return nil, ErrBusy
	}

	var sessionID string
	if f.needSession {
		id, ok, err := h.kv.Get(domain.KeySessionID)
		if err != nil {
			return nil, fmt.Errorf("read session id: %w", err)
		}
		if !ok || id == "" {
			return nil, ErrSessionNotFound
		}
		sessionID = id
	}

	if p := h.pending; p != nil {
		h.pending = nil
		if p.complete(Outcome{}, ErrAbandoned) {
			h.log.Info().Str("attempt", p.ID).Msg("pending hand-off abandoned")
		}
	}

	attempt := uuid.NewString()
	log := h.log.With().Str("attempt", attempt).Str("path", f.path).Logger()
	h.setState(Creating)

	loginID, err := h.createSession(ctx, log, f.payload)
	if err != nil {
		log.Error().Err(err).Msg("create session")
		h.fail(err)
		return nil, err
	}

	ho := domain.HandOff{LoginID: loginID}
	if f.shareSession {
		ho.SessionID = sessionID
		ho.Platform = domain.PlatformTag
		ho.Request = f.request
	}
	b64, err := EncodeHandOff(ho)
	if err != nil {
		h.fail(err)
		return nil, err
	}
	u, err := HandOffURL(f.base, f.path, b64)
	if err != nil {
		h.fail(err)
		return nil, err
	}

	p := newPending(attempt, u, f)
	h.pending = p
	h.setState(AwaitingRedirect)
	log.Info().Msg("hand-off ready, awaiting redirect")
	return p, nil
}

// createSession seals payload under a fresh ephemeral key addressed to
// itself, stores it and returns the key's hex as the login id. The channel
// only keeps the payload opaque in transit; anyone holding the login id can
// read it.
func (h *Handshake) createSession(ctx context.Context, log zerolog.Logger, payload any) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode payload: %w", err)
	}
	key, err := crypto.GenerateSessionKey()
	if err != nil {
		return "", err
	}
	pub, err := key.PublicKeyHex()
	if err != nil {
		return "", err
	}
	iv, err := crypto.RandomIV()
	if err != nil {
		return "", err
	}
	ch, err := crypto.NewChannel(key, pub, crypto.EncodeHex(iv))
	if err != nil {
		return "", err
	}
	meta, err := ch.Seal(raw)
	crypto.Wipe(raw)
	if err != nil {
		return "", err
	}

	ttl := relay.ClampTTL(h.cfg.SessionTTL)
	if err := h.put(ctx, key, pub, meta, ttl, h.cfg.AllowedOrigin); err != nil {
		return "", err
	}
	log.Debug().Str("store_key", crypto.Fingerprint(pub)).Int64("ttl", ttl).Msg("session entry written")
	return key.Hex(), nil
}

// put signs the serialized metadata with key and writes it under pub.
func (h *Handshake) put(ctx context.Context, key crypto.SessionKey, pub string, meta domain.ShareMetadata, ttl int64, origin string) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	sig, err := crypto.Sign(key, data)
	if err != nil {
		return err
	}
	req := domain.SetRequest{
		Key:           pub,
		Data:          string(data),
		Signature:     sig,
		Timeout:       relay.FormatTTL(ttl),
		AllowedOrigin: origin,
	}
	if err := h.store.Put(ctx, req); err != nil {
		return fmt.Errorf("%w: %w", ErrStoreWriteFailed, err)
	}
	return nil
}

// OnRedirect resumes the pending hand-off with the callback URL delivered by
// the redirect channel. The outcome is delivered to the Pending; the returned
// error mirrors it.
func (h *Handshake) OnRedirect(ctx context.Context, rawURL string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	p := h.pending
	if p == nil || h.State() != AwaitingRedirect {
		return ErrUnexpectedRedirect
	}
	log := h.log.With().Str("attempt", p.ID).Logger()
	h.setState(Resuming)

	cb, err := parseCallback(rawURL)
	if err != nil {
		log.Warn().Err(err).Msg("redirect rejected")
		h.fail(err)
		return err
	}

	if p.flow.kind == ActionResult {
		if !json.Valid(cb.params) {
			err := fmt.Errorf("%w: action result is not JSON", ErrMalformedPayload)
			h.fail(err)
			return err
		}
		h.pending = nil
		h.setState(Established)
		p.complete(Outcome{Kind: ActionResult, Result: json.RawMessage(cb.params)}, nil)
		log.Info().Msg("action result delivered")
		return nil
	}

	var sr domain.SessionResponse
	if err := json.Unmarshal(cb.params, &sr); err != nil {
		err = fmt.Errorf("%w: %v", ErrMalformedParams, err)
		h.fail(err)
		return err
	}

	sessionID := sr.SessionID
	if sessionID != "" {
		if err := h.kv.Set(domain.KeySessionID, sessionID); err != nil {
			h.fail(err)
			return err
		}
	} else if sessionID, err = h.persisted(domain.KeySessionID); err != nil || sessionID == "" {
		if err == nil {
			err = ErrSessionNotFound
		}
		h.fail(err)
		return err
	}

	origin := p.flow.origin
	if origin != "" {
		if err := h.kv.Set(domain.KeyRedirectURL, origin); err != nil {
			h.fail(err)
			return err
		}
	} else if origin, err = h.persisted(domain.KeyRedirectURL); err != nil {
		h.fail(err)
		return err
	}

	out, err := h.authorize(ctx, log, sessionID, origin, p.flow.kind)
	if err != nil {
		log.Warn().Err(err).Msg("authorize failed")
		h.fail(err)
		return err
	}
	h.pending = nil
	p.complete(out, nil)
	log.Info().Stringer("outcome", out.Kind).Msg("hand-off complete")
	return nil
}

// Resume re-establishes the persisted session at start-up. With no persisted
// session it returns ErrSessionNotFound and leaves the handshake Idle.
func (h *Handshake) Resume(ctx context.Context) (Outcome, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.State() == AwaitingRedirect {
		return Outcome{}, ErrBusy
	}
	sessionID, err := h.persisted(domain.KeySessionID)
	if err != nil {
		return Outcome{}, err
	}
	if sessionID == "" {
		h.setSession(nil)
		h.setState(Idle)
		return Outcome{}, ErrSessionNotFound
	}
	origin, err := h.persisted(domain.KeyRedirectURL)
	if err != nil {
		return Outcome{}, err
	}

	h.setState(Resuming)
	out, err := h.authorize(ctx, h.log, sessionID, origin, Login)
	if err != nil {
		h.log.Warn().Err(err).Msg("resume failed")
		h.fail(err)
		return Outcome{}, err
	}
	return out, nil
}

// authorize fetches the entry for sessionID, decrypts it and applies the
// response. Callers hold h.mu.
func (h *Handshake) authorize(ctx context.Context, log zerolog.Logger, sessionID, origin string, kind OutcomeKind) (Outcome, error) {
	h.setState(Authorizing)

	key, err := crypto.ParseSessionKey(sessionID)
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: %w", ErrSessionNotFound, err)
	}
	pub, err := key.PublicKeyHex()
	if err != nil {
		return Outcome{}, err
	}
	log = log.With().Str("store_key", crypto.Fingerprint(pub)).Logger()

	entry, err := h.store.Get(ctx, pub, origin)
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: %w", ErrStoreReadFailed, err)
	}
	if entry == nil {
		return Outcome{}, ErrSessionNotFound
	}
	var meta domain.ShareMetadata
	if err := json.Unmarshal([]byte(entry.Message), &meta); err != nil {
		return Outcome{}, fmt.Errorf("%w: unreadable entry: %v", ErrSessionNotFound, err)
	}

	ch, err := crypto.NewChannel(key, meta.EphemPublicKey, meta.IV)
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: unreadable entry: %w", ErrSessionNotFound, err)
	}
	plain, err := ch.Open(meta)
	if err != nil {
		return Outcome{}, err
	}
	var resp domain.Web3AuthResponse
	err = json.Unmarshal(plain, &resp)
	crypto.Wipe(plain)
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if resp.Error != "" {
		return Outcome{}, &RemoteError{Message: resp.Error}
	}

	if crypto.IsZeroKeyHex(resp.PrivKey) {
		if err := h.kv.Delete(domain.KeySessionID); err != nil {
			return Outcome{}, err
		}
		h.setSession(nil)
		h.setState(LoggedOut)
		log.Info().Msg("session holds no key material")
		return Outcome{Kind: Logout}, nil
	}

	if resp.SessionID != "" {
		if err := h.kv.Set(domain.KeySessionID, resp.SessionID); err != nil {
			return Outcome{}, err
		}
	}
	if ui := resp.UserInfo; ui != nil && ui.DappShare != "" && ui.Verifier != "" {
		if err := h.kv.Set(ui.Verifier, ui.DappShare); err != nil {
			return Outcome{}, err
		}
	}

	h.setSession(&resp)
	h.setState(Established)
	log.Info().Bool("rotated", resp.SessionID != "").Msg("session established")
	return Outcome{Kind: kind, Response: &resp}, nil
}

// Logout overwrites the remote entry with an encrypted empty payload that
// expires in one second, then clears the local session. Local state is
// cleared even when the remote overwrite fails; that failure is returned.
// With no persisted session Logout does nothing and the handshake is Idle.
func (h *Handshake) Logout(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if p := h.pending; p != nil {
		h.pending = nil
		p.complete(Outcome{}, ErrAbandoned)
	}

	sessionID, err := h.persisted(domain.KeySessionID)
	if err != nil {
		return err
	}
	if sessionID == "" {
		h.setSession(nil)
		h.setState(Idle)
		return nil
	}

	remoteErr := h.tombstone(ctx, sessionID)
	if remoteErr != nil {
		h.log.Warn().Err(remoteErr).Msg("remote session not cleared")
	}

	var localErr error
	if err := h.kv.Delete(domain.KeySessionID); err != nil {
		localErr = err
	}
	if h.cfg.Verifier != "" {
		if err := h.kv.Delete(h.cfg.Verifier); err != nil {
			localErr = errors.Join(localErr, err)
		}
	}
	h.setSession(nil)
	h.setState(LoggedOut)
	h.log.Info().Msg("logged out")
	return errors.Join(remoteErr, localErr)
}

func (h *Handshake) tombstone(ctx context.Context, sessionID string) error {
	key, err := crypto.ParseSessionKey(sessionID)
	if err != nil {
		return err
	}
	pub, err := key.PublicKeyHex()
	if err != nil {
		return err
	}
	origin, err := h.persisted(domain.KeyRedirectURL)
	if err != nil {
		return err
	}

	entry, err := h.store.Get(ctx, pub, origin)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStoreReadFailed, err)
	}
	if entry == nil {
		return ErrSessionNotFound
	}
	var meta domain.ShareMetadata
	if err := json.Unmarshal([]byte(entry.Message), &meta); err != nil {
		return fmt.Errorf("%w: unreadable entry: %v", ErrSessionNotFound, err)
	}
	ch, err := crypto.NewChannel(key, meta.EphemPublicKey, meta.IV)
	if err != nil {
		return err
	}
	empty, err := ch.Seal(nil)
	if err != nil {
		return err
	}
	return h.put(ctx, key, pub, empty, 1, "")
}

// persisted reads key from the local store; a missing key is "".
func (h *Handshake) persisted(key string) (string, error) {
	v, _, err := h.kv.Get(key)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", key, err)
	}
	return v, nil
}

func (h *Handshake) setState(s State) {
	prev := State(h.state.Swap(int32(s)))
	if prev != s {
		h.log.Debug().Stringer("from", prev).Stringer("to", s).Msg("state")
	}
}

func (h *Handshake) setSession(r *domain.Web3AuthResponse) {
	h.view.Lock()
	h.session = r
	h.view.Unlock()
}

// fail moves to Failed and completes any pending hand-off with err.
func (h *Handshake) fail(err error) {
	h.view.Lock()
	h.lastErr = err
	h.view.Unlock()
	h.setState(Failed)
	if p := h.pending; p != nil {
		h.pending = nil
		p.complete(Outcome{}, err)
	}
}
