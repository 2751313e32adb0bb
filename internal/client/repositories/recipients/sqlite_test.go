package recipients

import (
	"context"
	"database/sql"
	"testing"

	"github.com/dmitrijs2005/gophgroups/internal/client/migrations"
	"github.com/dmitrijs2005/gophgroups/internal/common"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, migrations.Up(context.Background(), db))
	return db
}

func TestSaveAndResolve(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()
	alice := Recipient{UID: uuid.New(), Phone: "+15550100", Name: "Alice"}
	bob := Recipient{UID: uuid.New(), Name: "Bob"}

	require.NoError(t, r.Save(ctx, alice))
	require.NoError(t, r.Save(ctx, bob))

	got, err := r.ByPhone(ctx, "+15550100")
	require.NoError(t, err)
	assert.Equal(t, alice, got)

	_, err = r.ByPhone(ctx, "+15550199")
	require.ErrorIs(t, err, common.ErrorNotFound)

	all, err := r.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Recipient{alice, bob}, all)
}

func TestSave_UpdatesExisting(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()
	rec := Recipient{UID: uuid.New(), Phone: "+15550100", Name: "Alice"}
	require.NoError(t, r.Save(ctx, rec))

	rec.Phone = "+15550111"
	rec.Name = "Alice B."
	require.NoError(t, r.Save(ctx, rec))

	_, err := r.ByPhone(ctx, "+15550100")
	require.ErrorIs(t, err, common.ErrorNotFound)
	got, err := r.ByPhone(ctx, "+15550111")
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}

func TestSave_DuplicatePhoneFails(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()
	require.NoError(t, r.Save(ctx, Recipient{UID: uuid.New(), Phone: "+15550100"}))

	err := r.Save(ctx, Recipient{UID: uuid.New(), Phone: "+15550100"})
	require.ErrorContains(t, err, "failed to save recipient")
}
