// Package cryptox derives account secrets from user passwords.
//
// The password itself never leaves the device. The client derives an
// account key with Argon2id and the server only stores a SHA-256 verifier of
// that key, which doubles as the secret in account Basic auth.
package cryptox

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	SaltSize = 32
	KeySize  = 32
)

var ErrInvalidBasicAuth = errors.New("invalid basic auth header")

// DeriveAccountKey stretches password with Argon2id (1 pass, 64 MiB, 4 lanes).
func DeriveAccountKey(password []byte, salt []byte) []byte {
	return argon2.IDKey(password, salt, 1, 64*1024, 4, KeySize)
}

// MakeVerifier hashes an account key into the value the server stores.
func MakeVerifier(accountKey []byte) []byte {
	hash := sha256.Sum256(accountKey)
	return hash[:]
}

// VerifierEqual compares two verifiers in constant time.
func VerifierEqual(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}

// BasicAuth renders "Basic base64(user:hex(secret))".
func BasicAuth(user string, secret []byte) string {
	raw := user + ":" + hex.EncodeToString(secret)
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(raw))
}

// ParseBasicAuth is the inverse of BasicAuth.
func ParseBasicAuth(header string) (string, []byte, error) {
	encoded, ok := strings.CutPrefix(header, "Basic ")
	if !ok {
		return "", nil, ErrInvalidBasicAuth
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", nil, ErrInvalidBasicAuth
	}
	user, secretHex, ok := strings.Cut(string(raw), ":")
	if !ok || user == "" {
		return "", nil, ErrInvalidBasicAuth
	}
	secret, err := hex.DecodeString(secretHex)
	if err != nil {
		return "", nil, ErrInvalidBasicAuth
	}
	return user, secret, nil
}
