// Package services contains the business logic of the reference group
// server: accounts and profiles, auth credential issuance, groups and
// avatars.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophgroups/internal/common"
	"github.com/dmitrijs2005/gophgroups/internal/cryptox"
	"github.com/dmitrijs2005/gophgroups/internal/server/models"
	"github.com/dmitrijs2005/gophgroups/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/gophgroups/internal/timex"
	"github.com/dmitrijs2005/gophgroups/internal/zkgroup"
	"github.com/google/uuid"
)

var (
	ErrBadRequest = errors.New("bad request")
	ErrForbidden  = errors.New("forbidden")
)

// IssuedCredential is one day of an auth credential response.
type IssuedCredential struct {
	RedemptionDay uint32
	Credential    []byte
}

// AccountService handles registration, account authentication, profiles
// and auth credential issuance.
type AccountService struct {
	repo               accounts.Repository
	server             zkgroup.ServerSecretParams
	credentialValidity time.Duration
	now                func() time.Time
}

func NewAccountService(repo accounts.Repository, server zkgroup.ServerSecretParams, credentialValidity time.Duration, now func() time.Time) *AccountService {
	if now == nil {
		now = time.Now
	}
	return &AccountService{repo: repo, server: server, credentialValidity: credentialValidity, now: now}
}

func (s *AccountService) Register(ctx context.Context, uid uuid.UUID, salt, verifier []byte) error {
	if uid == uuid.Nil || len(salt) == 0 || len(verifier) == 0 {
		return fmt.Errorf("%w: incomplete registration", ErrBadRequest)
	}
	a := &models.Account{UID: uid, Salt: salt, Verifier: verifier, CreatedAt: s.now()}
	if err := s.repo.Create(ctx, a); err != nil {
		return fmt.Errorf("error creating account: %w", err)
	}
	return nil
}

// GetSalt returns a random salt for unknown accounts so that the response
// does not reveal which ids exist.
func (s *AccountService) GetSalt(ctx context.Context, uid uuid.UUID) ([]byte, error) {
	a, err := s.repo.Get(ctx, uid)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.GenerateRandByteArray(cryptox.SaltSize), nil
		}
		return nil, common.ErrorInternal
	}
	return a.Salt, nil
}

// Authenticate checks a verifier candidate. Unknown accounts and wrong
// verifiers both give common.ErrUnauthorized.
func (s *AccountService) Authenticate(ctx context.Context, uid uuid.UUID, verifierCandidate []byte) (*models.Account, error) {
	a, err := s.repo.Get(ctx, uid)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrUnauthorized
		}
		return nil, common.ErrorInternal
	}
	if !cryptox.VerifierEqual(a.Verifier, verifierCandidate) {
		return nil, common.ErrUnauthorized
	}
	return a, nil
}

func (s *AccountService) SetProfile(ctx context.Context, uid uuid.UUID, version string, commitment []byte, name []byte) error {
	p := models.Profile{Name: name, Version: version}
	if version == "" || len(commitment) != len(p.Commitment) {
		return fmt.Errorf("%w: invalid profile commitment", ErrBadRequest)
	}
	copy(p.Commitment[:], commitment)
	return s.repo.SetProfile(ctx, uid, p)
}

// GetProfile returns the profile name of uid and, when credentialRequest
// is set and version is the published one, a profile key credential.
func (s *AccountService) GetProfile(ctx context.Context, uid uuid.UUID, version string, credentialRequest []byte) ([]byte, []byte, error) {
	a, err := s.repo.Get(ctx, uid)
	if err != nil {
		return nil, nil, err
	}
	if a.Profile == nil {
		return nil, nil, fmt.Errorf("profile of %s: %w", uid, common.ErrorNotFound)
	}
	if len(credentialRequest) == 0 || version != a.Profile.Version {
		return a.Profile.Name, nil, nil
	}

	expiration := s.now().Add(s.credentialValidity)
	cred, err := s.server.IssueProfileKeyCredential(credentialRequest, uid, a.Profile.Commitment, expiration)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return a.Profile.Name, cred, nil
}

// AuthCredentials issues one credential per day in [from, to]. from must be
// within a day of today and the range at most the redemption window.
func (s *AccountService) AuthCredentials(ctx context.Context, uid uuid.UUID, from, to uint32) ([]IssuedCredential, error) {
	today := timex.RedemptionDay(s.now())
	if int64(from) < int64(today)-1 || from > today+1 {
		return nil, fmt.Errorf("%w: start day %d too far from today %d", ErrBadRequest, from, today)
	}
	if to < from || to-from > common.RedemptionWindowDays {
		return nil, fmt.Errorf("%w: invalid day range %d..%d", ErrBadRequest, from, to)
	}

	out := make([]IssuedCredential, 0, to-from+1)
	for day := from; day <= to; day++ {
		out = append(out, IssuedCredential{RedemptionDay: day, Credential: s.server.IssueAuthCredential(uid, day)})
	}
	return out, nil
}
