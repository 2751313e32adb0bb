// Package zkgroup provides the group and credential primitives used by the
// group sync protocol: group master keys and the secret/public parameters
// derived from them, deterministic member encryption, blob encryption,
// per-day auth credentials and profile key credentials.
//
// The credential scheme here is signature based. Issued credentials are
// ed25519 signatures by the server, and presentations carry the signed
// values next to their group ciphertexts so the server can check them.
// That keeps the client protocol (requests, presentations, verification
// points and failure modes) identical to an anonymous credential system,
// but presentations reveal the member identity to the server. It must not
// be mistaken for a zero-knowledge implementation.
package zkgroup

import "errors"

var (
	// ErrInvalidParams reports malformed or inconsistent group parameters.
	ErrInvalidParams = errors.New("zkgroup: invalid group parameters")
	// ErrMalformed reports bytes that do not decode as the expected object.
	ErrMalformed = errors.New("zkgroup: malformed input")
	// ErrVerification reports a signature or MAC that does not check out.
	ErrVerification = errors.New("zkgroup: verification failed")
	// ErrExpired reports a credential used outside its validity window.
	ErrExpired = errors.New("zkgroup: credential expired")
)
