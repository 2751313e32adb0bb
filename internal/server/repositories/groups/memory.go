package groups

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/gophgroups/internal/common"
	pb "github.com/dmitrijs2005/gophgroups/internal/proto"
	"github.com/dmitrijs2005/gophgroups/internal/server/models"
	"github.com/dmitrijs2005/gophgroups/internal/zkgroup"
)

type InMemoryRepository struct {
	mu     sync.Mutex
	groups map[zkgroup.GroupPublicParams]*models.GroupRecord
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{groups: map[zkgroup.GroupPublicParams]*models.GroupRecord{}}
}

func (r *InMemoryRepository) Create(ctx context.Context, rec *models.GroupRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.groups[rec.PublicKey]; ok {
		return fmt.Errorf("group %s: %w", rec.PublicKey.Identifier(), common.ErrorAlreadyExists)
	}
	c, err := copyRecord(rec)
	if err != nil {
		return err
	}
	r.groups[rec.PublicKey] = c
	return nil
}

func (r *InMemoryRepository) Get(ctx context.Context, key zkgroup.GroupPublicParams) (*models.GroupRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.groups[key]
	if !ok {
		return nil, fmt.Errorf("group %s: %w", key.Identifier(), common.ErrorNotFound)
	}
	return copyRecord(rec)
}

func (r *InMemoryRepository) Update(ctx context.Context, key zkgroup.GroupPublicParams, fn func(rec *models.GroupRecord) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.groups[key]
	if !ok {
		return fmt.Errorf("group %s: %w", key.Identifier(), common.ErrorNotFound)
	}
	c, err := copyRecord(rec)
	if err != nil {
		return err
	}
	if err := fn(c); err != nil {
		return err
	}
	r.groups[key] = c
	return nil
}

// copyRecord deep-copies rec through the wire encoding.
func copyRecord(rec *models.GroupRecord) (*models.GroupRecord, error) {
	out := &models.GroupRecord{
		PublicKey: rec.PublicKey,
		Group:     &pb.Group{},
		Revisions: append([]uint32(nil), rec.Revisions...),
	}
	if rec.Group != nil {
		if err := out.Group.Unmarshal(rec.Group.Marshal()); err != nil {
			return nil, err
		}
	}
	for _, c := range rec.Changes {
		cc := &pb.GroupChange{}
		if err := cc.Unmarshal(c.Marshal()); err != nil {
			return nil, err
		}
		out.Changes = append(out.Changes, cc)
	}
	return out, nil
}
