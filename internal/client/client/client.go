package client

import (
	"context"

	"github.com/google/uuid"
)

// Profile is what the account service returns for another user's profile.
// Credential is only set when a credential request was sent and the
// requested version matches the published one.
type Profile struct {
	Name       string
	Credential []byte
}

// Client is the account and profile API.
type Client interface {
	Close() error
	Register(ctx context.Context, uid uuid.UUID, salt []byte, verifier []byte) error
	GetSalt(ctx context.Context, uid uuid.UUID) ([]byte, error)
	Login(ctx context.Context, uid uuid.UUID, verifier []byte) error
	// SetAccount authenticates later calls without a Login round trip.
	SetAccount(uid uuid.UUID, verifier []byte)
	Ping(ctx context.Context) error
	SetProfile(ctx context.Context, version string, commitment []byte, name string) error
	GetProfile(ctx context.Context, uid uuid.UUID, version string, credentialRequest []byte) (*Profile, error)
}
