// Package accounts stores registered accounts of the reference server.
package accounts

import (
	"context"

	"github.com/dmitrijs2005/gophgroups/internal/server/models"
	"github.com/google/uuid"
)

type Repository interface {
	// Create returns common.ErrorAlreadyExists for a taken uid.
	Create(ctx context.Context, a *models.Account) error
	// Get returns common.ErrorNotFound for an unknown uid.
	Get(ctx context.Context, uid uuid.UUID) (*models.Account, error)
	SetProfile(ctx context.Context, uid uuid.UUID, p models.Profile) error
}
