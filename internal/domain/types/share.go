package types

// ShareMetadata is the wire/storage form of an encrypted payload. All fields
// are hex. MAC covers Ciphertext only.
type ShareMetadata struct {
	IV             string `json:"iv"`
	EphemPublicKey string `json:"ephemPublicKey"`
	Ciphertext     string `json:"ciphertext"`
	MAC            string `json:"mac"`
}
