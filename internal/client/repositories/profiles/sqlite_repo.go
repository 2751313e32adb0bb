package profiles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophgroups/internal/client/models"
	"github.com/dmitrijs2005/gophgroups/internal/common"
	"github.com/dmitrijs2005/gophgroups/internal/dbx"
	"github.com/dmitrijs2005/gophgroups/internal/zkgroup"
	"github.com/google/uuid"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) GetProfileKey(ctx context.Context, uid uuid.UUID) (zkgroup.ProfileKey, error) {
	var pk zkgroup.ProfileKey
	var raw []byte
	err := r.db.QueryRowContext(ctx, `SELECT profile_key FROM profile_keys WHERE uid = ?`, uid.String()).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return pk, fmt.Errorf("profile key of %s: %w", uid, common.ErrorNotFound)
	}
	if err != nil {
		return pk, fmt.Errorf("failed to get profile key of %s: %w", uid, err)
	}
	if len(raw) != len(pk) {
		return pk, fmt.Errorf("stored profile key of %s has %d bytes", uid, len(raw))
	}
	copy(pk[:], raw)
	return pk, nil
}

func (r *SQLiteRepository) SetProfileKey(ctx context.Context, uid uuid.UUID, pk zkgroup.ProfileKey) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO profile_keys (uid, profile_key) VALUES (?, ?)
		ON CONFLICT(uid) DO UPDATE SET profile_key = excluded.profile_key
	`, uid.String(), pk[:])
	if err != nil {
		return fmt.Errorf("failed to set profile key of %s: %w", uid, err)
	}
	return nil
}

func (r *SQLiteRepository) GetCredentials(ctx context.Context, uids []uuid.UUID) (models.ProfileKeyCredentialMap, error) {
	result := make(models.ProfileKeyCredentialMap, len(uids))
	for _, uid := range uids {
		var raw []byte
		err := r.db.QueryRowContext(ctx, `SELECT credential FROM profile_key_credentials WHERE uid = ?`, uid.String()).Scan(&raw)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get credential of %s: %w", uid, err)
		}
		cred, err := zkgroup.DeserializeProfileKeyCredential(raw)
		if err != nil {
			return nil, fmt.Errorf("stored credential of %s: %w", uid, err)
		}
		result[uid] = cred
	}
	return result, nil
}

func (r *SQLiteRepository) SetCredential(ctx context.Context, cred zkgroup.ProfileKeyCredential) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO profile_key_credentials (uid, credential, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(uid) DO UPDATE SET credential = excluded.credential, expires_at = excluded.expires_at
	`, cred.UID.String(), cred.Serialize(), cred.Expiration.Unix())
	if err != nil {
		return fmt.Errorf("failed to set credential of %s: %w", cred.UID, err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteCredential(ctx context.Context, uid uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM profile_key_credentials WHERE uid = ?`, uid.String()); err != nil {
		return fmt.Errorf("failed to delete credential of %s: %w", uid, err)
	}
	return nil
}
