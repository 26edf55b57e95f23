package types

// UserInfo is the profile returned by the authorizer.
type UserInfo struct {
	Email             string `json:"email,omitempty"`
	Name              string `json:"name,omitempty"`
	ProfileImage      string `json:"profileImage,omitempty"`
	AggregateVerifier string `json:"aggregateVerifier,omitempty"`
	Verifier          string `json:"verifier,omitempty"`
	VerifierID        string `json:"verifierId,omitempty"`
	TypeOfLogin       string `json:"typeOfLogin,omitempty"`
	DappShare         string `json:"dappShare,omitempty"`
	IDToken           string `json:"idToken,omitempty"`
	OAuthIDToken      string `json:"oAuthIdToken,omitempty"`
	OAuthAccessToken  string `json:"oAuthAccessToken,omitempty"`
	IsMFAEnabled      bool   `json:"isMfaEnabled,omitempty"`
}

// Web3AuthResponse is the decrypted terminal payload of a session.
type Web3AuthResponse struct {
	PrivKey               string    `json:"privKey,omitempty"`
	Ed25519PrivKey        string    `json:"ed25519PrivKey,omitempty"`
	CoreKitKey            string    `json:"coreKitKey,omitempty"`
	CoreKitEd25519PrivKey string    `json:"coreKitEd25519PrivKey,omitempty"`
	SessionID             string    `json:"sessionId,omitempty"`
	UserInfo              *UserInfo `json:"userInfo,omitempty"`
	Error                 string    `json:"error,omitempty"`
}
