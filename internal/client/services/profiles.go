package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophgroups/internal/client/client"
	"github.com/dmitrijs2005/gophgroups/internal/client/models"
	"github.com/dmitrijs2005/gophgroups/internal/client/repositories/profiles"
	"github.com/dmitrijs2005/gophgroups/internal/common"
	"github.com/dmitrijs2005/gophgroups/internal/logging"
	"github.com/dmitrijs2005/gophgroups/internal/zkgroup"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// maxConcurrentFetches bounds profile fetches running at once.
const maxConcurrentFetches = 8

// ProfileFetcher fetches a profile and, when possible, stores a fresh
// profile key credential for it.
type ProfileFetcher interface {
	FetchProfile(ctx context.Context, uid uuid.UUID) error
}

type profileFetcher struct {
	client client.Client
	repo   profiles.Repository
	server zkgroup.ServerPublicParams
	now    func() time.Time
}

func NewProfileFetcher(client client.Client, repo profiles.Repository, server zkgroup.ServerPublicParams, now func() time.Time) ProfileFetcher {
	if now == nil {
		now = time.Now
	}
	return &profileFetcher{client: client, repo: repo, server: server, now: now}
}

// FetchProfile requests a credential for the locally known profile key of
// uid. Without a known key the profile is fetched plain and no credential
// is stored.
func (f *profileFetcher) FetchProfile(ctx context.Context, uid uuid.UUID) error {
	pk, err := f.repo.GetProfileKey(ctx, uid)
	if errors.Is(err, common.ErrorNotFound) {
		if _, err := f.client.GetProfile(ctx, uid, "", nil); err != nil {
			return fmt.Errorf("get profile %s: %w", uid, err)
		}
		return nil
	}
	if err != nil {
		return err
	}

	reqCtx := zkgroup.NewProfileKeyCredentialRequestContext(uid, pk)
	profile, err := f.client.GetProfile(ctx, uid, pk.Version(uid), reqCtx.Request())
	if err != nil {
		return fmt.Errorf("get profile %s: %w", uid, err)
	}
	if len(profile.Credential) == 0 {
		return nil
	}

	cred, err := zkgroup.ReceiveProfileKeyCredential(f.server, reqCtx, profile.Credential, f.now())
	if err != nil {
		return fmt.Errorf("%w: profile %s: %w", common.ErrCredentialVerificationFailed, uid, err)
	}
	return f.repo.SetCredential(ctx, cred)
}

// AddressResolver maps an address to an account id. Unknown addresses
// give common.ErrorNotFound.
type AddressResolver interface {
	ResolveAddress(ctx context.Context, addr models.Address) (uuid.UUID, error)
}

// ProfileCredentialService makes profile key credentials available for
// group operations.
type ProfileCredentialService interface {
	// LoadProfileCredentials returns a credential for every uid or fails
	// with common.ErrCredentialFetchFailed.
	LoadProfileCredentials(ctx context.Context, uids []uuid.UUID) (models.ProfileKeyCredentialMap, error)
	// EnsureProfileCredentials fetches what it can and never fails.
	EnsureProfileCredentials(ctx context.Context, addrs []models.Address)
}

type profileCredentialService struct {
	repo     profiles.Repository
	fetcher  ProfileFetcher
	resolver AddressResolver
	flight   singleflight.Group
	now      func() time.Time
	logger   logging.Logger
}

func NewProfileCredentialService(repo profiles.Repository, fetcher ProfileFetcher, resolver AddressResolver, now func() time.Time, logger logging.Logger) ProfileCredentialService {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = logging.Nop{}
	}
	return &profileCredentialService{
		repo:     repo,
		fetcher:  fetcher,
		resolver: resolver,
		now:      now,
		logger:   logger.With("module", "profiles"),
	}
}

func dedupe(uids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(uids))
	out := make([]uuid.UUID, 0, len(uids))
	for _, uid := range uids {
		if _, ok := seen[uid]; ok {
			continue
		}
		seen[uid] = struct{}{}
		out = append(out, uid)
	}
	return out
}

// stored reads the credentials of uids, dropping expired ones.
func (s *profileCredentialService) stored(ctx context.Context, uids []uuid.UUID) (models.ProfileKeyCredentialMap, error) {
	creds, err := s.repo.GetCredentials(ctx, uids)
	if err != nil {
		return nil, err
	}
	now := s.now()
	for uid, cred := range creds {
		if cred.Expired(now) {
			delete(creds, uid)
		}
	}
	return creds, nil
}

// fetchAll fetches every uid concurrently and waits for all of them.
// Concurrent callers asking for the same uid share one fetch.
func (s *profileCredentialService) fetchAll(ctx context.Context, uids []uuid.UUID) error {
	var (
		mu   sync.Mutex
		errs []error
	)

	var g errgroup.Group
	g.SetLimit(maxConcurrentFetches)
	for _, uid := range uids {
		g.Go(func() error {
			_, err, _ := s.flight.Do(uid.String(), func() (any, error) {
				return nil, s.fetcher.FetchProfile(ctx, uid)
			})
			if err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

func (s *profileCredentialService) LoadProfileCredentials(ctx context.Context, uids []uuid.UUID) (models.ProfileKeyCredentialMap, error) {
	uids = dedupe(uids)

	creds, err := s.stored(ctx, uids)
	if err != nil {
		return nil, err
	}

	var missing []uuid.UUID
	for _, uid := range uids {
		if _, ok := creds[uid]; !ok {
			missing = append(missing, uid)
		}
	}
	if len(missing) == 0 {
		return creds, nil
	}

	s.logger.Debug(ctx, "fetching profile credentials", "count", len(missing))
	fetchErr := s.fetchAll(ctx, missing)

	creds, err = s.stored(ctx, uids)
	if err != nil {
		return nil, err
	}
	for _, uid := range uids {
		if _, ok := creds[uid]; !ok {
			if fetchErr != nil {
				return nil, fmt.Errorf("%w: %s: %w", common.ErrCredentialFetchFailed, uid, fetchErr)
			}
			return nil, fmt.Errorf("%w: no credential for %s", common.ErrCredentialFetchFailed, uid)
		}
	}
	return creds, nil
}

func (s *profileCredentialService) EnsureProfileCredentials(ctx context.Context, addrs []models.Address) {
	uids := make([]uuid.UUID, 0, len(addrs))
	for _, addr := range addrs {
		uid, err := s.resolver.ResolveAddress(ctx, addr)
		if err != nil {
			s.logger.Debug(ctx, "skipping unresolved address", "address", addr.String())
			continue
		}
		uids = append(uids, uid)
	}
	uids = dedupe(uids)

	creds, err := s.stored(ctx, uids)
	if err != nil {
		s.logger.Warn(ctx, "reading profile credentials", "error", err)
		return
	}

	var missing []uuid.UUID
	for _, uid := range uids {
		if _, ok := creds[uid]; !ok {
			missing = append(missing, uid)
		}
	}
	if len(missing) == 0 {
		return
	}

	if err := s.fetchAll(ctx, missing); err != nil {
		s.logger.Warn(ctx, "profile credential prefetch incomplete", "error", err)
	}
}
