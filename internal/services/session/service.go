package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"w3session/internal/domain"
	"w3session/internal/protocol/handshake"
	"w3session/internal/relay"
)

var (
	// ErrNoUserFound is returned by accessors when no session is established.
	ErrNoUserFound = errors.New("no user found, please login again")
	// ErrMFAAlreadyEnabled is returned by EnableMFA for an enrolled user.
	ErrMFAAlreadyEnabled = errors.New("MFA is already enabled for this user")
)

const (
	actionLogin     = "login"
	actionEnableMFA = "enable_mfa"

	defaultWalletPath  = "wallet"
	defaultRequestPath = "wallet/request"
)

// Service is the application facing session API. It builds hand-off
// payloads from Options and drives a Handshake with them.
//
// A typical login:
//   - Init once at start-up to merge project configuration and resume any
//     persisted session.
//   - Login with a redirect channel, open Pending.URL in a browser.
//   - Complete with the same channel to receive the Outcome.
type Service struct {
	hs  *handshake.Handshake
	kv  domain.KeyValueStore
	t   domain.Transport
	log zerolog.Logger

	mu   sync.Mutex
	opts Options
}

// New returns a Service over hs. t is used only to fetch project
// configuration and may be nil when Init is not called.
func New(opts Options, hs *handshake.Handshake, kv domain.KeyValueStore, t domain.Transport, log zerolog.Logger) *Service {
	return &Service{
		hs:   hs,
		kv:   kv,
		t:    t,
		log:  log.With().Str("component", "session").Logger(),
		opts: opts,
	}
}

// Options returns a copy of the current options, including anything merged
// in by Init.
func (s *Service) Options() Options {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opts
}

// Init merges the project configuration into the options and resumes the
// persisted session. Having no persisted session is not an error and yields
// a zero Outcome.
func (s *Service) Init(ctx context.Context) (handshake.Outcome, error) {
	opts := s.Options()
	pc, err := relay.FetchProjectConfig(ctx, s.t, opts.SignerURL, opts.ClientID, opts.Network)
	if err != nil {
		return handshake.Outcome{}, err
	}

	s.mu.Lock()
	s.opts.OriginData = mergeOrigins(s.opts.OriginData, pc.Whitelist.SignedURLs)
	wl, err := mergeWhiteLabel(s.opts.WhiteLabel, pc.WhiteLabel)
	if err == nil {
		s.opts.WhiteLabel = wl
	}
	s.mu.Unlock()
	if err != nil {
		return handshake.Outcome{}, fmt.Errorf("merge whitelabel: %w", err)
	}
	s.log.Debug().Int("origins", len(pc.Whitelist.SignedURLs)).Msg("project config merged")

	out, err := s.hs.Resume(ctx)
	if errors.Is(err, handshake.ErrSessionNotFound) {
		return handshake.Outcome{}, nil
	}
	return out, err
}

// Resume re-authorizes the persisted session without touching options.
func (s *Service) Resume(ctx context.Context) (handshake.Outcome, error) {
	return s.hs.Resume(ctx)
}

// Login starts a login hand-off that returns to ch. The cached recovery
// share of the configured verifier, if any, is attached to params.
func (s *Service) Login(ctx context.Context, ch domain.RedirectChannel, params LoginParams) (*handshake.Pending, error) {
	if err := s.attachShare(&params); err != nil {
		return nil, err
	}
	if params.RedirectURL == "" {
		params.RedirectURL = ch.RedirectURL()
	}
	payload := map[string]any{
		"options":    s.initParams(ch.RedirectURL(), nil),
		"params":     params,
		"actionType": actionLogin,
	}
	return s.hs.BeginLogin(ctx, payload, channelOrigin(ch))
}

// EnableMFA starts MFA enrolment for the persisted session.
func (s *Service) EnableMFA(ctx context.Context, ch domain.RedirectChannel, params LoginParams) (*handshake.Pending, error) {
	if r := s.hs.Session(); r != nil && r.UserInfo != nil && r.UserInfo.IsMFAEnabled {
		return nil, ErrMFAAlreadyEnabled
	}
	sessionID, _, err := s.kv.Get(domain.KeySessionID)
	if err != nil {
		return nil, err
	}
	if sessionID == "" {
		return nil, handshake.ErrSessionNotFound
	}
	if err := s.attachShare(&params); err != nil {
		return nil, err
	}
	if params.RedirectURL == "" {
		params.RedirectURL = ch.RedirectURL()
	}
	payload := map[string]any{
		"options":    s.initParams(ch.RedirectURL(), nil),
		"params":     params,
		"actionType": actionEnableMFA,
		"sessionId":  sessionID,
	}
	return s.hs.BeginMFA(ctx, payload, channelOrigin(ch))
}

// LaunchWalletServices opens the wallet UI for the persisted session. An
// empty path means "wallet".
func (s *Service) LaunchWalletServices(ctx context.Context, ch domain.RedirectChannel, chain ChainConfig, path string) (*handshake.Pending, error) {
	if path == "" {
		path = defaultWalletPath
	}
	return s.hs.BeginAction(ctx, handshake.Action{
		Path:    path,
		Payload: map[string]any{"options": s.initParams(ch.RedirectURL(), &chain)},
		Origin:  channelOrigin(ch),
	})
}

// Request asks the wallet to run method with params and deliver its result
// through ch. An empty path means "wallet/request".
func (s *Service) Request(ctx context.Context, ch domain.RedirectChannel, chain ChainConfig, method string, params any, path string) (*handshake.Pending, error) {
	if path == "" {
		path = defaultRequestPath
	}
	if params == nil {
		params = []any{}
	}
	encoded, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("encode request params: %w", err)
	}
	req, err := json.Marshal(map[string]string{
		"method": method,
		"params": string(encoded),
	})
	if err != nil {
		return nil, err
	}
	return s.hs.BeginAction(ctx, handshake.Action{
		Path:    path,
		Payload: map[string]any{"options": s.initParams(ch.RedirectURL(), &chain)},
		Origin:  channelOrigin(ch),
		Request: string(req),
	})
}

// Complete waits on ch for the callback of p, resumes the handshake with it
// and returns the outcome.
func (s *Service) Complete(ctx context.Context, ch domain.RedirectChannel, p *handshake.Pending) (handshake.Outcome, error) {
	u, err := ch.Await(ctx)
	if err != nil {
		return handshake.Outcome{}, fmt.Errorf("await redirect: %w", err)
	}
	if err := s.hs.OnRedirect(ctx, u); err != nil {
		return handshake.Outcome{}, err
	}
	return p.Wait(ctx)
}

// Logout ends the session remotely and locally.
func (s *Service) Logout(ctx context.Context) error {
	return s.hs.Logout(ctx)
}

// PrivKey returns the secp256k1 key of the session, or "" with no session.
func (s *Service) PrivKey() string {
	r := s.hs.Session()
	if r == nil {
		return ""
	}
	if s.Options().coreKit() {
		return r.CoreKitKey
	}
	return r.PrivKey
}

// Ed25519PrivKey returns the ed25519 key of the session, or "".
func (s *Service) Ed25519PrivKey() string {
	r := s.hs.Session()
	if r == nil {
		return ""
	}
	if s.Options().coreKit() {
		return r.CoreKitEd25519PrivKey
	}
	return r.Ed25519PrivKey
}

// UserInfo returns the profile of the established session.
func (s *Service) UserInfo() (*domain.UserInfo, error) {
	r := s.hs.Session()
	if r == nil || r.UserInfo == nil {
		return nil, ErrNoUserFound
	}
	return r.UserInfo, nil
}

// attachShare fills params.DappShare from the local store.
func (s *Service) attachShare(params *LoginParams) error {
	v := s.Options().Verifier()
	if v == "" {
		return nil
	}
	share, ok, err := s.kv.Get(v)
	if err != nil {
		return fmt.Errorf("read recovery share: %w", err)
	}
	if ok && share != "" {
		params.DappShare = share
	}
	return nil
}

// initParams renders the options member. Structured blobs travel as JSON
// strings.
func (s *Service) initParams(redirectURL string, chain *ChainConfig) map[string]any {
	o := s.Options()
	m := map[string]any{
		"clientId": o.ClientID,
		"network":  strings.ToLower(o.Network),
	}
	if redirectURL == "" {
		redirectURL = o.RedirectURL
	}
	if redirectURL != "" {
		m["redirectUrl"] = redirectURL
	}
	if o.BuildEnv != "" {
		m["buildEnv"] = strings.ToLower(o.BuildEnv)
	}
	if len(o.WhiteLabel) > 0 {
		m["whiteLabel"] = string(o.WhiteLabel)
	}
	if len(o.LoginConfig) > 0 {
		if b, err := json.Marshal(o.LoginConfig); err == nil {
			m["loginConfig"] = string(b)
		}
	}
	if len(o.MFASettings) > 0 {
		m["mfaSettings"] = string(o.MFASettings)
	}
	if o.UseCoreKitKey != nil {
		m["useCoreKitKey"] = *o.UseCoreKitKey
	}
	if o.ChainNamespace != "" {
		m["chainNamespace"] = o.ChainNamespace
	}
	if o.SessionTime > 0 {
		m["sessionTime"] = o.SessionTime
	}
	if len(o.OriginData) > 0 {
		if b, err := json.Marshal(o.OriginData); err == nil {
			m["originData"] = string(b)
		}
	}
	if chain != nil {
		m["chainConfig"] = chain
	}
	return m
}

type originer interface {
	Origin() string
}

// channelOrigin is the origin the store entry is read back with: the
// channel's own when it has one, else scheme and host of its redirect URL.
func channelOrigin(ch domain.RedirectChannel) string {
	if o, ok := ch.(originer); ok {
		return o.Origin()
	}
	u, err := url.Parse(ch.RedirectURL())
	if err != nil || u.Scheme == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

// mergeOrigins adds signed urls that the caller did not set.
func mergeOrigins(own, signed map[string]string) map[string]string {
	if len(signed) == 0 {
		return own
	}
	out := make(map[string]string, len(own)+len(signed))
	for k, v := range signed {
		out[k] = v
	}
	for k, v := range own {
		out[k] = v
	}
	return out
}

// mergeWhiteLabel overlays the caller's top-level keys on the project's.
func mergeWhiteLabel(own, project json.RawMessage) (json.RawMessage, error) {
	if len(project) == 0 || string(project) == "null" {
		return own, nil
	}
	if len(own) == 0 || string(own) == "null" {
		return project, nil
	}
	var base, over map[string]json.RawMessage
	if err := json.Unmarshal(project, &base); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(own, &over); err != nil {
		return nil, err
	}
	if base == nil {
		base = make(map[string]json.RawMessage, len(over))
	}
	for k, v := range over {
		base[k] = v
	}
	return json.Marshal(base)
}
