// Package common defines shared constants and sentinel errors used across
// client and server layers of gophgroups. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// Local preconditions, detected before any network work.
	ErrMissingLocalIdentity   = errors.New("missing local identity")
	ErrInvalidGroupParameters = errors.New("invalid group parameters")
	ErrUnknownGroup           = errors.New("unknown group")
	ErrPreconditionFailed     = errors.New("precondition failed")

	// Credential acquisition.
	ErrCredentialFetchFailed        = errors.New("credential fetch failed")
	ErrCredentialVerificationFailed = errors.New("credential verification failed")

	// Service responses.
	ErrUnauthorized               = errors.New("unauthorized")
	ErrConflict                   = errors.New("conflict")
	ErrMalformedResponse          = errors.New("malformed response")
	ErrProtocolVerificationFailed = errors.New("protocol verification failed")
	ErrNetwork                    = errors.New("network error")
	ErrUnexpectedStatus           = errors.New("unexpected status")
)
