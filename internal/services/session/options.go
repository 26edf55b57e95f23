package session

import (
	"encoding/json"
	"sort"
)

// LoginConfigItem configures a custom verifier.
type LoginConfigItem struct {
	Verifier              string `json:"verifier"`
	TypeOfLogin           string `json:"typeOfLogin"`
	Name                  string `json:"name,omitempty"`
	Description           string `json:"description,omitempty"`
	ClientID              string `json:"clientId,omitempty"`
	VerifierSubIdentifier string `json:"verifierSubIdentifier,omitempty"`
	ShowOnModal           *bool  `json:"showOnModal,omitempty"`
}

// Options are sent to the authorizer as the "options" member of every
// hand-off payload. Opaque blobs are passed through untouched.
type Options struct {
	ClientID       string
	Network        string
	BuildEnv       string
	RedirectURL    string
	WhiteLabel     json.RawMessage
	LoginConfig    map[string]LoginConfigItem
	MFASettings    json.RawMessage
	SessionTime    int64
	UseCoreKitKey  *bool
	ChainNamespace string
	OriginData     map[string]string
	// SignerURL overrides the configuration host derived from Network.
	SignerURL string
}

// Verifier returns the verifier whose recovery share is attached to logins:
// that of the first login config entry by name.
func (o Options) Verifier() string {
	if len(o.LoginConfig) == 0 {
		return ""
	}
	names := make([]string, 0, len(o.LoginConfig))
	for name := range o.LoginConfig {
		names = append(names, name)
	}
	sort.Strings(names)
	return o.LoginConfig[names[0]].Verifier
}

func (o Options) coreKit() bool { return o.UseCoreKitKey != nil && *o.UseCoreKitKey }

// LoginParams is the "params" member of a login or MFA payload.
type LoginParams struct {
	LoginProvider     string          `json:"loginProvider,omitempty"`
	DappShare         string          `json:"dappShare,omitempty"`
	ExtraLoginOptions json.RawMessage `json:"extraLoginOptions,omitempty"`
	RedirectURL       string          `json:"redirectUrl,omitempty"`
	AppState          string          `json:"appState,omitempty"`
	MFALevel          string          `json:"mfaLevel,omitempty"`
	Curve             string          `json:"curve,omitempty"`
	DappURL           string          `json:"dappUrl,omitempty"`
}

// ChainConfig describes the chain a wallet hand-off operates on.
type ChainConfig struct {
	ChainNamespace   string `json:"chainNamespace"`
	Decimals         int    `json:"decimals,omitempty"`
	BlockExplorerURL string `json:"blockExplorerUrl,omitempty"`
	ChainID          string `json:"chainId"`
	DisplayName      string `json:"displayName,omitempty"`
	Logo             string `json:"logo,omitempty"`
	RPCTarget        string `json:"rpcTarget"`
	Ticker           string `json:"ticker,omitempty"`
	TickerName       string `json:"tickerName,omitempty"`
}
