package handshake

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"w3session/internal/domain"
)

const paramB64 = "b64Params"

// EncodeHandOff returns the b64Params value for h.
func EncodeHandOff(h domain.HandOff) (string, error) {
	b, err := json.Marshal(h)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// HandOffURL joins path onto base and sets the b64Params fragment. Bases on a
// development host have their path replaced instead of extended.
func HandOffURL(base, path, b64 string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse hand-off base %q: %w", base, err)
	}
	path = strings.TrimPrefix(path, "/")
	if strings.Contains(base, "develop") {
		u.Path = "/" + path
	} else {
		u.Path = strings.TrimSuffix(u.Path, "/") + "/" + path
	}
	u.RawPath = ""
	u.Fragment = paramB64 + "=" + b64
	u.RawFragment = ""
	return u.String(), nil
}

// DecodeB64Params decodes a b64Params value written with either base64
// alphabet, padded or not. After trailing '=' are stripped a remainder of 2
// gets "==", 3 gets "=", and 1 cannot be valid base64. Spaces are read as
// '+', which query decoding produces from an unescaped standard alphabet.
func DecodeB64Params(s string) ([]byte, error) {
	s = strings.NewReplacer(" ", "+", "-", "+", "_", "/").Replace(s)
	s = strings.TrimRight(s, "=")
	switch len(s) % 4 {
	case 1:
		return nil, fmt.Errorf("%w: %d characters cannot be base64", ErrMalformedParams, len(s))
	case 2:
		s += "=="
	case 3:
		s += "="
	}
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedParams, err)
	}
	return b, nil
}

// callback is a parsed redirect URL.
type callback struct {
	params []byte
}

// parseCallback reads the redirect URL. The fragment, minus its '#', is a
// query string. An error field in either the query or the fragment wins over
// everything else.
func parseCallback(raw string) (callback, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return callback{}, fmt.Errorf("%w: %v", ErrMalformedParams, err)
	}
	if msg := u.Query().Get("error"); msg != "" {
		return callback{}, &RemoteError{Message: msg}
	}

	frag := strings.TrimPrefix(u.EscapedFragment(), "#")
	if frag == "" {
		return callback{}, ErrUserCancelled
	}
	fq, err := url.ParseQuery(frag)
	if err != nil {
		return callback{}, fmt.Errorf("%w: fragment: %v", ErrMalformedParams, err)
	}
	if msg := fq.Get("error"); msg != "" {
		return callback{}, &RemoteError{Message: msg}
	}

	v := fq.Get(paramB64)
	if v == "" {
		return callback{}, fmt.Errorf("%w: missing %s", ErrMalformedParams, paramB64)
	}
	b, err := DecodeB64Params(v)
	if err != nil {
		return callback{}, err
	}
	return callback{params: b}, nil
}
