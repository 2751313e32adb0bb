package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/gophgroups/internal/client/models"
	"github.com/dmitrijs2005/gophgroups/internal/client/repositories/profiles"
	"github.com/dmitrijs2005/gophgroups/internal/client/repositories/recipients"
	"github.com/dmitrijs2005/gophgroups/internal/common"
	"github.com/dmitrijs2005/gophgroups/internal/dbx"
	"github.com/dmitrijs2005/gophgroups/internal/zkgroup"
	"github.com/google/uuid"
)

// Contact is a recipient together with the profile key its owner shared.
type Contact struct {
	recipients.Recipient
	ProfileKey *zkgroup.ProfileKey
}

// RecipientService is the local address book.
type RecipientService interface {
	AddressResolver
	AddContact(ctx context.Context, c Contact) error
	ListContacts(ctx context.Context) ([]recipients.Recipient, error)
}

type recipientService struct {
	db *sql.DB
}

func NewRecipientService(db *sql.DB) RecipientService {
	return &recipientService{db: db}
}

// AddContact saves the recipient and, if given, its profile key.
func (s *recipientService) AddContact(ctx context.Context, c Contact) error {
	if c.UID == uuid.Nil {
		return fmt.Errorf("%w: contact without uid", common.ErrPreconditionFailed)
	}
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := recipients.NewSQLiteRepository(tx).Save(ctx, c.Recipient); err != nil {
			return err
		}
		if c.ProfileKey == nil {
			return nil
		}
		return profiles.NewSQLiteRepository(tx).SetProfileKey(ctx, c.UID, *c.ProfileKey)
	})
}

func (s *recipientService) ListContacts(ctx context.Context) ([]recipients.Recipient, error) {
	return recipients.NewSQLiteRepository(s.db).List(ctx)
}

// ResolveAddress returns the uid of addr, looking phone-only addresses up
// in the address book.
func (s *recipientService) ResolveAddress(ctx context.Context, addr models.Address) (uuid.UUID, error) {
	if addr.HasUID() {
		return addr.UID, nil
	}
	if addr.Phone == "" {
		return uuid.Nil, fmt.Errorf("empty address: %w", common.ErrorNotFound)
	}
	r, err := recipients.NewSQLiteRepository(s.db).ByPhone(ctx, addr.Phone)
	if err != nil {
		return uuid.Nil, err
	}
	return r.UID, nil
}
