package crypto

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// DecodeHex decodes a hex field from the wire. Odd-length input is left-padded
// with a single zero nibble, which is how big-integer encoders drop a leading
// zero.
func DecodeHex(field, s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	if len(s)%2 == 1 {
		s = "0" + s
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", field, err)
	}
	return b, nil
}

// EncodeHex returns lowercase hex without a prefix.
func EncodeHex(b []byte) string { return hex.EncodeToString(b) }
