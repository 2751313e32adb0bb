// Package recipients is the local address book. It maps phone numbers to
// account ids so that contacts can be added to groups.
package recipients

import (
	"context"

	"github.com/google/uuid"
)

type Recipient struct {
	UID   uuid.UUID
	Phone string
	Name  string
}

type Repository interface {
	Save(ctx context.Context, r Recipient) error
	// ByPhone returns common.ErrorNotFound for an unknown number.
	ByPhone(ctx context.Context, phone string) (Recipient, error)
	List(ctx context.Context) ([]Recipient, error)
}
