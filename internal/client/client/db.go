package client

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/gophgroups/internal/client/migrations"
	"github.com/dmitrijs2005/gophgroups/internal/client/repositories/groups"
	"github.com/dmitrijs2005/gophgroups/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gophgroups/internal/client/repositories/profiles"
	"github.com/dmitrijs2005/gophgroups/internal/client/repositories/recipients"
	"github.com/dmitrijs2005/gophgroups/internal/filex"

	_ "modernc.org/sqlite"
)

type Repositories struct {
	DB         *sql.DB
	Metadata   metadata.Repository
	Groups     *groups.Store
	Profiles   profiles.Repository
	Recipients recipients.Repository
}

func (r *Repositories) Close() error {
	return r.DB.Close()
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	return migrations.Up(ctx, db)
}

// InitDatabase opens the SQLite database at dsn and brings its schema up to
// date. The directory of a file path dsn is created if missing.
func InitDatabase(ctx context.Context, dsn string) (*Repositories, error) {
	if isFilePath(dsn) {
		if _, err := filex.EnsureDir(filepath.Dir(dsn)); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// A single connection keeps :memory: databases alive and serializes
	// writers.
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	return &Repositories{
		DB:         db,
		Metadata:   metadata.NewSQLiteRepository(db),
		Groups:     groups.NewStore(db),
		Profiles:   profiles.NewSQLiteRepository(db),
		Recipients: recipients.NewSQLiteRepository(db),
	}, nil
}

func isFilePath(dsn string) bool {
	return dsn != "" && !strings.HasPrefix(dsn, ":memory:") && !strings.HasPrefix(dsn, "file:")
}
