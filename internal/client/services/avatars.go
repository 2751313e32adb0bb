package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/gophgroups/internal/client/client"
	"github.com/dmitrijs2005/gophgroups/internal/client/codec"
	"github.com/dmitrijs2005/gophgroups/internal/logging"
	"github.com/dmitrijs2005/gophgroups/internal/netx"
	"github.com/dmitrijs2005/gophgroups/internal/zkgroup"
)

// AvatarService uploads encrypted group avatars. The returned key is what
// goes into GroupState.Avatar.
type AvatarService interface {
	UploadAvatar(ctx context.Context, mk zkgroup.GroupMasterKey, image []byte) (string, error)
}

type avatarService struct {
	identity    IdentityProvider
	credentials AuthCredentialService
	codec       *codec.Codec
	exec        client.Executor
	http        *http.Client
	logger      logging.Logger
}

func NewAvatarService(identity IdentityProvider, credentials AuthCredentialService, c *codec.Codec, exec client.Executor, httpClient *http.Client, logger logging.Logger) AvatarService {
	if logger == nil {
		logger = logging.Nop{}
	}
	return &avatarService{
		identity:    identity,
		credentials: credentials,
		codec:       c,
		exec:        exec,
		http:        httpClient,
		logger:      logger.With("module", "avatars"),
	}
}

func (s *avatarService) UploadAvatar(ctx context.Context, mk zkgroup.GroupMasterKey, image []byte) (string, error) {
	params, err := DeriveGroupParams(mk)
	if err != nil {
		return "", err
	}
	ct, err := codec.EncryptAvatar(params, image)
	if err != nil {
		return "", err
	}

	self, err := s.identity.LocalIdentity(ctx)
	if err != nil {
		return "", err
	}
	authCreds, err := s.credentials.Credentials(ctx, self)
	if err != nil {
		return "", err
	}

	req, err := s.codec.BuildAvatarFormRequest(params, authCreds)
	if err != nil {
		return "", err
	}
	resp, err := s.exec.Execute(ctx, req)
	if err != nil {
		return "", fmt.Errorf("avatar form: %w", err)
	}
	attrs, err := s.codec.ParseAvatarUploadAttributes(resp.Body)
	if err != nil {
		return "", err
	}

	if err := netx.UploadToPresignedURL(ctx, s.http, attrs.URL, ct); err != nil {
		return "", fmt.Errorf("avatar upload: %w", err)
	}
	s.logger.Info(ctx, "avatar uploaded", "key", attrs.Key, "bytes", len(ct))
	return attrs.Key, nil
}
