package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"w3session/internal/relay"
)

// Redirect modes.
const (
	ModeLoopback = "loopback"
	ModeDeepLink = "deeplink"
	ModeNATS     = "nats"
)

// Key store backends.
const (
	KeyStoreFile   = "file"
	KeyStoreSQLite = "sqlite"
	KeyStoreMemory = "memory"
)

// Config holds runtime wiring options for building the app.
type Config struct {
	// Home is the state directory, e.g. $HOME/.w3session.
	Home string `yaml:"home"`

	ClientID string `yaml:"client_id"`
	Network  string `yaml:"network"`
	// BuildEnv selects default SDK and wallet URLs: production, staging or
	// testing.
	BuildEnv  string `yaml:"build_env"`
	SDKURL    string `yaml:"sdk_url"`
	WalletURL string `yaml:"wallet_url"`
	StoreURL  string `yaml:"store_url"`
	// SignerURL overrides the configuration host derived from Network.
	SignerURL string `yaml:"signer_url"`

	// SessionTime is the session lifetime in seconds, passed to the
	// authorizer in the login options.
	SessionTime int64 `yaml:"session_time"`
	// HandOffTTL is the lifetime in seconds of the store entry written for
	// each hand-off. Zero means relay.DefaultTTL.
	HandOffTTL    int64  `yaml:"handoff_ttl"`
	AllowedOrigin string `yaml:"allowed_origin"`
	UseCoreKitKey bool   `yaml:"use_core_kit_key"`

	Verifier VerifierConfig `yaml:"verifier"`
	Redirect RedirectConfig `yaml:"redirect"`
	KeyStore KeyStoreConfig `yaml:"keystore"`

	HTTPTimeout time.Duration `yaml:"http_timeout"`
	LogLevel    string        `yaml:"log_level"`
}

// VerifierConfig names the custom verifier, if any, whose recovery share is
// cached between logins.
type VerifierConfig struct {
	Name        string `yaml:"name"`
	Verifier    string `yaml:"verifier"`
	TypeOfLogin string `yaml:"type_of_login"`
	ClientID    string `yaml:"client_id"`
}

// RedirectConfig selects how the callback URL reaches this process.
type RedirectConfig struct {
	// Mode is loopback, deeplink or nats. Fragment delivery needs a page
	// reload and is only available through the redirect package.
	Mode string `yaml:"mode"`
	// URL is the deep-link URL for deeplink mode.
	URL string `yaml:"url"`
	// ListenAddr is the loopback listener address.
	ListenAddr string `yaml:"listen_addr"`
	// NATSURL, NATSPrefix and NATSRedirectBase configure nats mode.
	NATSURL          string `yaml:"nats_url"`
	NATSPrefix       string `yaml:"nats_prefix"`
	NATSRedirectBase string `yaml:"nats_redirect_base"`
	// Wait bounds how long a command waits for the callback.
	Wait time.Duration `yaml:"wait"`
}

type KeyStoreConfig struct {
	Backend string `yaml:"backend"`
	// Passphrase encrypts the file backend at rest. Empty stores plain JSON.
	Passphrase string `yaml:"passphrase"`
}

var (
	sdkURLs = map[string]string{
		"production": "https://auth.web3auth.io/v9",
		"staging":    "https://staging-auth.web3auth.io/v9",
		"testing":    "https://develop-auth.web3auth.io",
	}
	walletURLs = map[string]string{
		"production": "https://wallet.web3auth.io/v4",
		"staging":    "https://staging-wallet.web3auth.io/v4",
		"testing":    "https://develop-wallet.web3auth.io",
	}
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Network:       "sapphire_mainnet",
		BuildEnv:      "production",
		StoreURL:      relay.DefaultStoreURL,
		SessionTime:   86400,
		HandOffTTL:    relay.DefaultTTL,
		AllowedOrigin: "*",
		Redirect: RedirectConfig{
			Mode:       ModeLoopback,
			ListenAddr: "127.0.0.1:0",
			NATSPrefix: "w3session.redirect",
			Wait:       5 * time.Minute,
		},
		KeyStore:    KeyStoreConfig{Backend: KeyStoreFile},
		HTTPTimeout: 15 * time.Second,
		LogLevel:    "info",
	}
}

// LoadConfig builds the configuration: defaults, then the YAML file at path
// when it exists, then W3S_* environment variables (a .env file in the
// working directory is loaded first).
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	_ = godotenv.Load()
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Finish(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := map[string]*string{
		"W3S_HOME":              &c.Home,
		"W3S_CLIENT_ID":         &c.ClientID,
		"W3S_NETWORK":           &c.Network,
		"W3S_BUILD_ENV":         &c.BuildEnv,
		"W3S_SDK_URL":           &c.SDKURL,
		"W3S_WALLET_URL":        &c.WalletURL,
		"W3S_STORE_URL":         &c.StoreURL,
		"W3S_SIGNER_URL":        &c.SignerURL,
		"W3S_ALLOWED_ORIGIN":    &c.AllowedOrigin,
		"W3S_VERIFIER":          &c.Verifier.Verifier,
		"W3S_REDIRECT_MODE":     &c.Redirect.Mode,
		"W3S_REDIRECT_URL":      &c.Redirect.URL,
		"W3S_NATS_URL":          &c.Redirect.NATSURL,
		"W3S_KEYSTORE":          &c.KeyStore.Backend,
		"W3S_KEYSTORE_PASSWORD": &c.KeyStore.Passphrase,
		"W3S_LOG_LEVEL":         &c.LogLevel,
	}
	for name, dst := range str {
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}

	if v, ok := lookup("W3S_SESSION_TIME"); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("W3S_SESSION_TIME: %w", err)
		}
		c.SessionTime = n
	}
	if v, ok := lookup("W3S_HANDOFF_TTL"); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("W3S_HANDOFF_TTL: %w", err)
		}
		c.HandOffTTL = n
	}
	if v, ok := lookup("W3S_USE_CORE_KIT_KEY"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("W3S_USE_CORE_KIT_KEY: %w", err)
		}
		c.UseCoreKitKey = b
	}
	if v, ok := lookup("W3S_HTTP_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("W3S_HTTP_TIMEOUT: %w", err)
		}
		c.HTTPTimeout = d
	}
	return nil
}

// Finish fills derived fields and validates enumerations. Call it again
// after applying flag overrides.
func (c *Config) Finish() error {
	c.Network = strings.ToLower(c.Network)
	c.BuildEnv = strings.ToLower(c.BuildEnv)
	if c.Home == "" {
		dir, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		c.Home = filepath.Join(dir, ".w3session")
	}
	if c.SDKURL == "" {
		u, ok := sdkURLs[c.BuildEnv]
		if !ok {
			return fmt.Errorf("unknown build env %q", c.BuildEnv)
		}
		c.SDKURL = u
	}
	if c.WalletURL == "" {
		c.WalletURL = walletURLs[c.BuildEnv]
	}
	switch c.Redirect.Mode {
	case ModeLoopback, ModeDeepLink, ModeNATS:
	default:
		return fmt.Errorf("unknown redirect mode %q", c.Redirect.Mode)
	}
	switch c.KeyStore.Backend {
	case KeyStoreFile, KeyStoreSQLite, KeyStoreMemory:
	default:
		return fmt.Errorf("unknown keystore backend %q", c.KeyStore.Backend)
	}
	return nil
}
