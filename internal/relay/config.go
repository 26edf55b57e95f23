package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"w3session/internal/domain"
)

var signerByNetwork = map[string]string{
	"mainnet":          "https://signer.web3auth.io",
	"testnet":          "https://signer.web3auth.io",
	"cyan":             "https://signer-polygon.web3auth.io",
	"aqua":             "https://signer-polygon.web3auth.io",
	"sapphire_mainnet": "https://signer.web3auth.io",
	"sapphire_devnet":  "https://signer.web3auth.io",
}

// SignerURL returns the configuration host for network.
func SignerURL(network string) (string, error) {
	u, ok := signerByNetwork[network]
	if !ok {
		return "", fmt.Errorf("unknown network %q", network)
	}
	return u, nil
}

// ProjectConfig is the subset of the project configuration the session
// layer consumes. WhiteLabel is passed through untouched.
type ProjectConfig struct {
	SMSOTPEnabled        bool            `json:"sms_otp_enabled"`
	WalletConnectEnabled bool            `json:"wallet_connect_enabled"`
	KeyExportEnabled     bool            `json:"key_export_enabled"`
	WhiteLabel           json.RawMessage `json:"whitelabel,omitempty"`
	Whitelist            struct {
		URLs       []string          `json:"urls"`
		SignedURLs map[string]string `json:"signed_urls"`
	} `json:"whitelist"`
}

// FetchProjectConfig loads the configuration for clientID. An empty
// signerBase resolves the host from network.
func FetchProjectConfig(ctx context.Context, t domain.Transport, signerBase, clientID, network string) (*ProjectConfig, error) {
	if signerBase == "" {
		var err error
		if signerBase, err = SignerURL(network); err != nil {
			return nil, err
		}
	}
	q := url.Values{}
	q.Set("project_id", clientID)
	q.Set("network", network)
	q.Set("whitelist", "true")

	var cfg ProjectConfig
	if err := t.GetJSON(ctx, signerBase+"/api/configuration?"+q.Encode(), &cfg); err != nil {
		return nil, fmt.Errorf("fetch project config: %w", err)
	}
	return &cfg, nil
}
