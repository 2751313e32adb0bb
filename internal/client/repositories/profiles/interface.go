// Package profiles stores profile keys and profile key credentials of other
// users.
package profiles

import (
	"context"

	"github.com/dmitrijs2005/gophgroups/internal/client/models"
	"github.com/dmitrijs2005/gophgroups/internal/zkgroup"
	"github.com/google/uuid"
)

type Repository interface {
	// GetProfileKey returns common.ErrorNotFound when no key is known.
	GetProfileKey(ctx context.Context, uid uuid.UUID) (zkgroup.ProfileKey, error)
	SetProfileKey(ctx context.Context, uid uuid.UUID, pk zkgroup.ProfileKey) error

	// GetCredentials returns the stored credentials among uids. Missing
	// uids are absent from the map.
	GetCredentials(ctx context.Context, uids []uuid.UUID) (models.ProfileKeyCredentialMap, error)
	SetCredential(ctx context.Context, cred zkgroup.ProfileKeyCredential) error
	DeleteCredential(ctx context.Context, uid uuid.UUID) error
}
