// Package services contains the application services of the gophgroups
// client: account and local identity, auth credentials, profile key
// credentials, group sync and avatars.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophgroups/internal/client/client"
	"github.com/dmitrijs2005/gophgroups/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gophgroups/internal/client/repositories/profiles"
	"github.com/dmitrijs2005/gophgroups/internal/common"
	"github.com/dmitrijs2005/gophgroups/internal/cryptox"
	"github.com/dmitrijs2005/gophgroups/internal/dbx"
	"github.com/dmitrijs2005/gophgroups/internal/zkgroup"
	"github.com/google/uuid"
)

// Identity is the local account: its id, its own profile key and the
// verifier used for account Basic auth.
type Identity struct {
	UID        uuid.UUID
	ProfileKey zkgroup.ProfileKey
	Verifier   []byte
}

// IdentityProvider returns the local identity or
// common.ErrMissingLocalIdentity.
type IdentityProvider interface {
	LocalIdentity(ctx context.Context) (Identity, error)
}

// AuthService manages the account and the local identity.
//
//   - Register creates a new account, publishes a profile and stores the
//     identity locally.
//   - Login authenticates an existing account and stores the identity.
//   - Resume authenticates the client with the stored identity.
//   - Logout wipes the stored identity.
type AuthService interface {
	IdentityProvider
	Register(ctx context.Context, password []byte, name string) (uuid.UUID, error)
	Login(ctx context.Context, uid uuid.UUID, password []byte) error
	Resume(ctx context.Context) (Identity, error)
	Ping(ctx context.Context) error
	Logout(ctx context.Context) error
	Close(ctx context.Context) error
}

type authService struct {
	client client.Client
	db     *sql.DB
}

func NewAuthService(client client.Client, db *sql.DB) AuthService {
	return &authService{client: client, db: db}
}

func (a *authService) getMetadataRepo() metadata.Repository {
	return metadata.NewSQLiteRepository(a.db)
}

// LocalIdentity reads the identity saved by Register or Login.
func (a *authService) LocalIdentity(ctx context.Context) (Identity, error) {
	repo := a.getMetadataRepo()

	values := map[string][]byte{}
	for _, key := range []string{metadata.KeyUID, metadata.KeyVerifier, metadata.KeyProfileKey} {
		v, err := repo.Get(ctx, key)
		if err != nil {
			return Identity{}, err
		}
		if len(v) == 0 {
			return Identity{}, common.ErrMissingLocalIdentity
		}
		values[key] = v
	}

	uid, err := uuid.Parse(string(values[metadata.KeyUID]))
	if err != nil {
		return Identity{}, fmt.Errorf("%w: stored uid: %w", common.ErrMissingLocalIdentity, err)
	}
	var pk zkgroup.ProfileKey
	if len(values[metadata.KeyProfileKey]) != len(pk) {
		return Identity{}, fmt.Errorf("%w: stored profile key is corrupt", common.ErrMissingLocalIdentity)
	}
	copy(pk[:], values[metadata.KeyProfileKey])

	return Identity{UID: uid, ProfileKey: pk, Verifier: values[metadata.KeyVerifier]}, nil
}

// Register creates an account with a random id. The password is stretched
// locally and only its verifier is sent.
func (a *authService) Register(ctx context.Context, password []byte, name string) (uuid.UUID, error) {
	uid := uuid.New()
	salt := common.GenerateRandByteArray(cryptox.SaltSize)
	key := cryptox.DeriveAccountKey(password, salt)
	defer common.WipeByteArray(key)
	verifier := cryptox.MakeVerifier(key)

	if err := a.client.Register(ctx, uid, salt, verifier); err != nil {
		return uuid.Nil, fmt.Errorf("register error: %w", err)
	}
	if err := a.client.Login(ctx, uid, verifier); err != nil {
		return uuid.Nil, fmt.Errorf("login error: %w", err)
	}

	pk, err := zkgroup.GenerateProfileKey()
	if err != nil {
		return uuid.Nil, err
	}
	commitment := pk.Commitment(uid)
	if err := a.client.SetProfile(ctx, pk.Version(uid), commitment[:], name); err != nil {
		return uuid.Nil, fmt.Errorf("set profile error: %w", err)
	}

	if err := a.saveIdentity(ctx, uid, salt, verifier, pk); err != nil {
		return uuid.Nil, fmt.Errorf("identity saving error: %w", err)
	}
	return uid, nil
}

// Login authenticates uid. A profile key already stored for uid is kept;
// otherwise a new one is generated and published.
func (a *authService) Login(ctx context.Context, uid uuid.UUID, password []byte) error {
	salt, err := a.client.GetSalt(ctx, uid)
	if err != nil {
		return fmt.Errorf("get salt error: %w", err)
	}

	key := cryptox.DeriveAccountKey(password, salt)
	defer common.WipeByteArray(key)
	verifier := cryptox.MakeVerifier(key)

	if err := a.client.Login(ctx, uid, verifier); err != nil {
		return fmt.Errorf("login error: %w", err)
	}

	pk, err := a.storedProfileKey(ctx, uid)
	if err != nil {
		return err
	}
	if pk == nil {
		fresh, err := zkgroup.GenerateProfileKey()
		if err != nil {
			return err
		}
		commitment := fresh.Commitment(uid)
		if err := a.client.SetProfile(ctx, fresh.Version(uid), commitment[:], ""); err != nil {
			return fmt.Errorf("set profile error: %w", err)
		}
		pk = &fresh
	}

	if err := a.saveIdentity(ctx, uid, salt, verifier, *pk); err != nil {
		return fmt.Errorf("identity saving error: %w", err)
	}
	return nil
}

func (a *authService) storedProfileKey(ctx context.Context, uid uuid.UUID) (*zkgroup.ProfileKey, error) {
	id, err := a.LocalIdentity(ctx)
	if errors.Is(err, common.ErrMissingLocalIdentity) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if id.UID != uid {
		return nil, nil
	}
	return &id.ProfileKey, nil
}

// saveIdentity persists the identity in a single transaction. The own
// profile key also goes into the profile key store so that the local user
// resolves like any other member.
func (a *authService) saveIdentity(ctx context.Context, uid uuid.UUID, salt, verifier []byte, pk zkgroup.ProfileKey) error {
	return dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		if err := repo.Set(ctx, metadata.KeyUID, []byte(uid.String())); err != nil {
			return err
		}
		if err := repo.Set(ctx, metadata.KeySalt, salt); err != nil {
			return err
		}
		if err := repo.Set(ctx, metadata.KeyVerifier, verifier); err != nil {
			return err
		}
		if err := repo.Set(ctx, metadata.KeyProfileKey, pk[:]); err != nil {
			return err
		}
		return profiles.NewSQLiteRepository(tx).SetProfileKey(ctx, uid, pk)
	})
}

// Resume makes the client authenticate as the stored identity.
func (a *authService) Resume(ctx context.Context) (Identity, error) {
	id, err := a.LocalIdentity(ctx)
	if err != nil {
		return Identity{}, err
	}
	a.client.SetAccount(id.UID, id.Verifier)
	return id, nil
}

func (a *authService) Ping(ctx context.Context) error {
	return a.client.Ping(ctx)
}

func (a *authService) Close(ctx context.Context) error {
	return a.client.Close()
}

// Logout wipes the stored identity. Groups and contacts stay.
func (a *authService) Logout(ctx context.Context) error {
	return dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		for _, key := range []string{metadata.KeyUID, metadata.KeySalt, metadata.KeyVerifier, metadata.KeyProfileKey} {
			if err := repo.Delete(ctx, key); err != nil {
				return err
			}
		}
		return nil
	})
}
