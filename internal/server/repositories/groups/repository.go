// Package groups stores encrypted groups and their change logs on the
// reference server.
package groups

import (
	"context"

	"github.com/dmitrijs2005/gophgroups/internal/server/models"
	"github.com/dmitrijs2005/gophgroups/internal/zkgroup"
)

type Repository interface {
	// Create returns common.ErrorAlreadyExists when the public key is taken.
	Create(ctx context.Context, rec *models.GroupRecord) error
	// Get returns common.ErrorNotFound for an unknown group.
	Get(ctx context.Context, key zkgroup.GroupPublicParams) (*models.GroupRecord, error)
	// Update runs fn on a copy of the record and stores it when fn returns
	// nil. Updates of one group are serialized.
	Update(ctx context.Context, key zkgroup.GroupPublicParams, fn func(rec *models.GroupRecord) error) error
}
