package groups

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

func groupID(mk zkgroup.GroupMasterKey) (string, error) {
	params, err := zkgroup.DeriveGroupSecretParams(mk)
	if err != nil {
		return "", err
	}
	return params.Identifier().String(), nil
}

// Save replaces the stored state of the group, members included. Callers
// wanting atomicity pass a transaction.
func (r *SQLiteRepository) Save(ctx context.Context, state models.GroupState) error {
	id, err := groupID(state.MasterKey)
	if err != nil {
		return fmt.Errorf("failed to derive group id: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO groups (id, master_key, revision, title, avatar, timer, attributes_access, members_access)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			revision = excluded.revision,
			title = excluded.title,
			avatar = excluded.avatar,
			timer = excluded.timer,
			attributes_access = excluded.attributes_access,
			members_access = excluded.members_access
	`, id, state.MasterKey[:], int64(state.Revision), state.Title, state.Avatar, int64(state.DisappearingMessagesTimer),
		int64(state.Access.Attributes), int64(state.Access.Members))
	if err != nil {
		return fmt.Errorf("failed to save group %s: %w", id, err)
	}

	if _, err := r.db.ExecContext(ctx, `DELETE FROM group_members WHERE group_id = ?`, id); err != nil {
		return fmt.Errorf("failed to clear members of group %s: %w", id, err)
	}
	for i, m := range state.Members {
		_, err := r.db.ExecContext(ctx, `
			INSERT INTO group_members (group_id, position, uid, role, profile_key, joined_at_revision)
			VALUES (?, ?, ?, ?, ?, ?)
		`, id, i, m.UID.String(), int64(m.Role), m.ProfileKey[:], int64(m.JoinedAtRevision))
		if err != nil {
			return fmt.Errorf("failed to save member %s of group %s: %w", m.UID, id, err)
		}
	}
	return nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id zkgroup.GroupIdentifier) (*models.GroupState, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT master_key, revision, title, avatar, timer, attributes_access, members_access
		FROM groups WHERE id = ?
	`, id.String())

	state, err := scanGroup(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("group %s: %w", id, common.ErrorNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group %s: %w", id, err)
	}

	if state.Members, err = r.members(ctx, id.String()); err != nil {
		return nil, err
	}
	return state, nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]models.GroupState, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT master_key, revision, title, avatar, timer, attributes_access, members_access, id
		FROM groups ORDER BY title, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	var result []models.GroupState
	var ids []string
	for rows.Next() {
		var id string
		state, err := scanGroup(rows, &id)
		if err != nil {
			return nil, fmt.Errorf("failed to scan group row: %w", err)
		}
		result = append(result, *state)
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate group rows: %w", err)
	}
	rows.Close()

	for i := range result {
		if result[i].Members, err = r.members(ctx, ids[i]); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id zkgroup.GroupIdentifier) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM group_members WHERE group_id = ?`, id.String()); err != nil {
		return fmt.Errorf("failed to delete members of group %s: %w", id, err)
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM groups WHERE id = ?`, id.String()); err != nil {
		return fmt.Errorf("failed to delete group %s: %w", id, err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanGroup(s scanner, extra ...any) (*models.GroupState, error) {
	var (
		state     models.GroupState
		masterKey []byte
	)
	dest := append([]any{&masterKey, &state.Revision, &state.Title, &state.Avatar,
		&state.DisappearingMessagesTimer, &state.Access.Attributes, &state.Access.Members}, extra...)
	if err := s.Scan(dest...); err != nil {
		return nil, err
	}
	if len(masterKey) != len(state.MasterKey) {
		return nil, fmt.Errorf("stored master key has %d bytes", len(masterKey))
	}
	copy(state.MasterKey[:], masterKey)
	return &state, nil
}

func (r *SQLiteRepository) members(ctx context.Context, id string) ([]models.Member, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT uid, role, profile_key, joined_at_revision
		FROM group_members WHERE group_id = ? ORDER BY position
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list members of group %s: %w", id, err)
	}
	defer rows.Close()

	var result []models.Member
	for rows.Next() {
		var (
			m   models.Member
			uid string
			pk  []byte
		)
		if err := rows.Scan(&uid, &m.Role, &pk, &m.JoinedAtRevision); err != nil {
			return nil, fmt.Errorf("failed to scan member row: %w", err)
		}
		if m.UID, err = uuid.Parse(uid); err != nil {
			return nil, fmt.Errorf("stored member id %q: %w", uid, err)
		}
		if len(pk) != len(m.ProfileKey) {
			return nil, fmt.Errorf("stored profile key of %s has %d bytes", uid, len(pk))
		}
		copy(m.ProfileKey[:], pk)
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate member rows: %w", err)
	}
	return result, nil
}
