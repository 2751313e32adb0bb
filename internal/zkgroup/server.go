package zkgroup

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// Signature domains.
const (
	domainChangeActions        = "gophgroups.change-actions.v0"
	domainAuthCredential       = "gophgroups.auth-credential.v0"
	domainProfileKeyCredential = "gophgroups.profile-key-credential.v0"
)

// ServerSecretParams is the server's signing key.
type ServerSecretParams struct {
	key ed25519.PrivateKey
}

// GenerateServerSecretParams creates a random signing key.
func GenerateServerSecretParams() (ServerSecretParams, error) {
	_, key, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return ServerSecretParams{}, err
	}
	return ServerSecretParams{key: key}, nil
}

// ServerSecretParamsFromSeed rebuilds a signing key from its 32-byte seed.
func ServerSecretParamsFromSeed(seed []byte) (ServerSecretParams, error) {
	if len(seed) != ed25519.SeedSize {
		return ServerSecretParams{}, fmt.Errorf("%w: server seed must be %d bytes", ErrInvalidParams, ed25519.SeedSize)
	}
	return ServerSecretParams{key: ed25519.NewKeyFromSeed(seed)}, nil
}

func (s ServerSecretParams) Seed() []byte {
	return s.key.Seed()
}

func (s ServerSecretParams) PublicParams() ServerPublicParams {
	return ServerPublicParams{key: s.key.Public().(ed25519.PublicKey)}
}

func (s ServerSecretParams) sign(domain string, msg []byte) []byte {
	return ed25519.Sign(s.key, append([]byte(domain), msg...))
}

// SignChangeActions produces the server signature stored next to a change.
func (s ServerSecretParams) SignChangeActions(actions []byte) []byte {
	return s.sign(domainChangeActions, actions)
}

// ServerPublicParams is what clients are configured with to verify server
// signatures and issued credentials.
type ServerPublicParams struct {
	key ed25519.PublicKey
}

func DeserializeServerPublicParams(b []byte) (ServerPublicParams, error) {
	if len(b) != ed25519.PublicKeySize {
		return ServerPublicParams{}, fmt.Errorf("%w: server public params length %d", ErrInvalidParams, len(b))
	}
	return ServerPublicParams{key: ed25519.PublicKey(append([]byte(nil), b...))}, nil
}

// ParseServerPublicParams decodes the hex form used in configuration.
func ParseServerPublicParams(s string) (ServerPublicParams, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return ServerPublicParams{}, fmt.Errorf("%w: %w", ErrInvalidParams, err)
	}
	return DeserializeServerPublicParams(b)
}

func (p ServerPublicParams) Serialize() []byte {
	return append([]byte(nil), p.key...)
}

func (p ServerPublicParams) String() string {
	return hex.EncodeToString(p.key)
}

func (p ServerPublicParams) verify(domain string, msg, sig []byte) error {
	if len(p.key) != ed25519.PublicKeySize {
		return fmt.Errorf("%w: server public params not set", ErrInvalidParams)
	}
	if !ed25519.Verify(p.key, append([]byte(domain), msg...), sig) {
		return ErrVerification
	}
	return nil
}

// VerifyChangeActions checks the server signature over change actions.
func (p ServerPublicParams) VerifyChangeActions(actions, sig []byte) error {
	return p.verify(domainChangeActions, actions, sig)
}
