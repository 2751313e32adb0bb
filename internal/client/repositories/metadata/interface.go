package metadata

import (
	"context"
)

// Keys of the local identity.
const (
	KeyUID        = "uid"
	KeySalt       = "salt"
	KeyVerifier   = "verifier"
	KeyProfileKey = "profile_key"
)

// Repository is a key/value store for local account data. Get returns
// (nil, nil) for an absent key.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string][]byte, error)
	Clear(ctx context.Context) error
}
