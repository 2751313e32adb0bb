// Package groups stores the locally known state of every group the account
// belongs to.
package groups

import (
	"context"

	"github.com/dmitrijs2005/gophgroups/internal/client/models"
	"github.com/dmitrijs2005/gophgroups/internal/zkgroup"
)

// Repository persists group state keyed by group identifier. Get returns
// common.ErrorNotFound for an unknown group.
type Repository interface {
	Get(ctx context.Context, id zkgroup.GroupIdentifier) (*models.GroupState, error)
	Save(ctx context.Context, state models.GroupState) error
	List(ctx context.Context) ([]models.GroupState, error)
	Delete(ctx context.Context, id zkgroup.GroupIdentifier) error
}
