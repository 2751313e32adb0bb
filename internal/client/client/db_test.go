package client

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, name).Scan(&n)
	require.NoError(t, err)
	return n > 0
}

func TestInitDatabase_CreatesSchema(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "groups.db")

	repos, err := InitDatabase(ctx, dsn)
	require.NoError(t, err)
	defer repos.Close()

	for _, table := range []string{"goose_db_version", "metadata", "groups", "group_members", "profile_keys", "profile_key_credentials", "recipients"} {
		require.True(t, tableExists(t, repos.DB, table), table)
	}

	require.NoError(t, repos.Metadata.Set(ctx, "probe", []byte("ok")))
	v, err := repos.Metadata.Get(ctx, "probe")
	require.NoError(t, err)
	require.Equal(t, []byte("ok"), v)
}

func TestRunMigrations_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "groups.db"))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, RunMigrations(ctx, db))
	require.NoError(t, RunMigrations(ctx, db))
	require.True(t, tableExists(t, db, "groups"))
}

func TestInitDatabase_CreatesParentDir(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "state", "groupsync", "groups.db")
	repos, err := InitDatabase(context.Background(), dsn)
	require.NoError(t, err)
	require.NoError(t, repos.Close())

	_, err = os.Stat(dsn)
	require.NoError(t, err)
}

func TestInitDatabase_BadPath(t *testing.T) {
	occupied := filepath.Join(t.TempDir(), "occupied")
	require.NoError(t, os.WriteFile(occupied, []byte("x"), 0o600))

	_, err := InitDatabase(context.Background(), filepath.Join(occupied, "groups.db"))
	require.Error(t, err)
}
