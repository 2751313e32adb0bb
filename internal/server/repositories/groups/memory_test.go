package groups

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/dmitrijs2005/gophgroups/internal/common"
	pb "github.com/dmitrijs2005/gophgroups/internal/proto"
	"github.com/dmitrijs2005/gophgroups/internal/server/models"
	"github.com/dmitrijs2005/gophgroups/internal/zkgroup"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRecord(t *testing.T) *models.GroupRecord {
	t.Helper()
	mk, err := zkgroup.GenerateGroupMasterKey()
	require.NoError(t, err)
	params, err := zkgroup.DeriveGroupSecretParams(mk)
	require.NoError(t, err)
	pub := params.PublicParams()
	return &models.GroupRecord{
		PublicKey: pub,
		Group:     &pb.Group{PublicKey: pub[:], Avatar: "a"},
	}
}

func TestInMemoryRepository_CreateGet(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepository()
	rec := newRecord(t)

	_, err := repo.Get(ctx, rec.PublicKey)
	require.ErrorIs(t, err, common.ErrorNotFound)

	require.NoError(t, repo.Create(ctx, rec))
	require.ErrorIs(t, repo.Create(ctx, rec), common.ErrorAlreadyExists)

	rec.Group.Avatar = "changed"
	got, err := repo.Get(ctx, rec.PublicKey)
	require.NoError(t, err)
	assert.Equal(t, "a", got.Group.Avatar)
}

func TestInMemoryRepository_Update(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepository()
	rec := newRecord(t)
	require.NoError(t, repo.Create(ctx, rec))

	err := repo.Update(ctx, rec.PublicKey, func(r *models.GroupRecord) error {
		r.Group.Revision = 1
		r.Changes = append(r.Changes, &pb.GroupChange{Actions: []byte{1}})
		r.Revisions = append(r.Revisions, 1)
		return nil
	})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = repo.Update(ctx, rec.PublicKey, func(r *models.GroupRecord) error {
		r.Group.Revision = 99
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := repo.Get(ctx, rec.PublicKey)
	require.NoError(t, err)
	assert.EqualValues(t, 1, got.Group.Revision)
	assert.Len(t, got.Changes, 1)
	assert.Equal(t, []uint32{1}, got.Revisions)

	other := newRecord(t)
	require.ErrorIs(t, repo.Update(ctx, other.PublicKey, func(*models.GroupRecord) error { return nil }), common.ErrorNotFound)
}

func TestInMemoryRepository_ConcurrentUpdates(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepository()
	rec := newRecord(t)
	require.NoError(t, repo.Create(ctx, rec))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = repo.Update(ctx, rec.PublicKey, func(r *models.GroupRecord) error {
				r.Group.Revision++
				return nil
			})
		}()
	}
	wg.Wait()

	got, err := repo.Get(ctx, rec.PublicKey)
	require.NoError(t, err)
	assert.EqualValues(t, 20, got.Group.Revision)
}
