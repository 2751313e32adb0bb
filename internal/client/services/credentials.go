package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophgroups/internal/client/client"
	"github.com/dmitrijs2005/gophgroups/internal/client/models"
	"github.com/dmitrijs2005/gophgroups/internal/common"
	"github.com/dmitrijs2005/gophgroups/internal/cryptox"
	"github.com/dmitrijs2005/gophgroups/internal/logging"
	"github.com/dmitrijs2005/gophgroups/internal/timex"
	"github.com/dmitrijs2005/gophgroups/internal/zkgroup"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

// CredentialsPath is the auth credential endpoint; both bounds are
// redemption days.
const CredentialsPath = "/v1/certificate/group/%d/%d"

// AuthCredentialService returns the auth credentials of an account for
// today and the following days of the redemption window.
type AuthCredentialService interface {
	Credentials(ctx context.Context, self Identity) (models.AuthCredentialMap, error)
}

type credentialKey struct {
	uid uuid.UUID
	day uint32
}

type authCredentialService struct {
	exec   client.Executor
	server zkgroup.ServerPublicParams
	cache  *lru.Cache[credentialKey, zkgroup.AuthCredential]
	now    func() time.Time
	logger logging.Logger
}

// NewAuthCredentialService builds the service. cacheSize 0 disables the
// cache and a positive size below one window is raised to one window. A nil
// now uses time.Now.
func NewAuthCredentialService(exec client.Executor, server zkgroup.ServerPublicParams, cacheSize int, now func() time.Time, logger logging.Logger) (AuthCredentialService, error) {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = logging.Nop{}
	}
	s := &authCredentialService{
		exec:   exec,
		server: server,
		now:    now,
		logger: logger.With("module", "credentials"),
	}
	if cacheSize > 0 {
		cacheSize = max(cacheSize, common.RedemptionWindowDays+1)
		cache, err := lru.New[credentialKey, zkgroup.AuthCredential](cacheSize)
		if err != nil {
			return nil, err
		}
		s.cache = cache
	}
	return s, nil
}

// Credentials serves from the cache when every day of the window from today
// is cached and otherwise fetches the whole window in one request.
func (s *authCredentialService) Credentials(ctx context.Context, self Identity) (models.AuthCredentialMap, error) {
	today := timex.RedemptionDay(s.now())

	if creds, ok := s.cached(self.UID, today); ok {
		s.logger.Debug(ctx, "auth credentials served from cache", "days", len(creds))
		return creds, nil
	}

	creds, err := s.fetch(ctx, self, today)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		for day, cred := range creds {
			s.cache.Add(credentialKey{uid: self.UID, day: day}, cred)
		}
	}
	return creds, nil
}

func (s *authCredentialService) cached(uid uuid.UUID, today uint32) (models.AuthCredentialMap, bool) {
	if s.cache == nil {
		return nil, false
	}
	for _, key := range s.cache.Keys() {
		if key.uid == uid && key.day < today {
			s.cache.Remove(key)
		}
	}

	creds := make(models.AuthCredentialMap, common.RedemptionWindowDays+1)
	for day := today; day <= today+common.RedemptionWindowDays; day++ {
		cred, ok := s.cache.Get(credentialKey{uid: uid, day: day})
		if !ok {
			return nil, false
		}
		creds[day] = cred
	}
	return creds, true
}

type credentialResponse struct {
	Credentials *[]credentialEntry `json:"credentials"`
}

type credentialEntry struct {
	Credential     *string `json:"credential"`
	RedemptionTime *uint32 `json:"redemptionTime"`
}

func (s *authCredentialService) fetch(ctx context.Context, self Identity, today uint32) (models.AuthCredentialMap, error) {
	h := http.Header{}
	h.Set(common.AuthorizationHeaderName, cryptox.BasicAuth(self.UID.String(), self.Verifier))

	resp, err := s.exec.Execute(ctx, &client.Request{
		Method: http.MethodGet,
		Path:   fmt.Sprintf(CredentialsPath, today, today+common.RedemptionWindowDays),
		Header: h,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrCredentialFetchFailed, err)
	}

	var body credentialResponse
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return nil, fmt.Errorf("%w: credentials: %w", common.ErrMalformedResponse, err)
	}
	if body.Credentials == nil {
		return nil, fmt.Errorf("%w: credentials: missing list", common.ErrMalformedResponse)
	}

	creds := make(models.AuthCredentialMap, len(*body.Credentials))
	for i, entry := range *body.Credentials {
		if entry.Credential == nil || entry.RedemptionTime == nil {
			return nil, fmt.Errorf("%w: credentials[%d]: missing field", common.ErrMalformedResponse, i)
		}
		day := *entry.RedemptionTime
		if _, dup := creds[day]; dup {
			return nil, fmt.Errorf("%w: credentials[%d]: duplicate day %d", common.ErrMalformedResponse, i, day)
		}
		blob, err := base64.StdEncoding.DecodeString(*entry.Credential)
		if err != nil {
			return nil, fmt.Errorf("%w: credentials[%d]: %w", common.ErrMalformedResponse, i, err)
		}
		cred, err := zkgroup.ReceiveAuthCredential(s.server, self.UID, day, blob)
		if err != nil {
			return nil, fmt.Errorf("%w: day %d: %w", common.ErrCredentialVerificationFailed, day, err)
		}
		creds[day] = cred
	}

	s.logger.Debug(ctx, "auth credentials fetched", "days", len(creds))
	return creds, nil
}
