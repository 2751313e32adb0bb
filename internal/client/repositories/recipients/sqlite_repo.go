package recipients

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophgroups/internal/common"
	"github.com/dmitrijs2005/gophgroups/internal/dbx"
	"github.com/google/uuid"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Save(ctx context.Context, rec Recipient) error {
	var phone sql.NullString
	if rec.Phone != "" {
		phone = sql.NullString{String: rec.Phone, Valid: true}
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO recipients (uid, phone, name) VALUES (?, ?, ?)
		ON CONFLICT(uid) DO UPDATE SET phone = excluded.phone, name = excluded.name
	`, rec.UID.String(), phone, rec.Name)
	if err != nil {
		return fmt.Errorf("failed to save recipient %s: %w", rec.UID, err)
	}
	return nil
}

func (r *SQLiteRepository) ByPhone(ctx context.Context, phone string) (Recipient, error) {
	row := r.db.QueryRowContext(ctx, `SELECT uid, phone, name FROM recipients WHERE phone = ?`, phone)
	rec, err := scanRecipient(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Recipient{}, fmt.Errorf("recipient %s: %w", phone, common.ErrorNotFound)
	}
	if err != nil {
		return Recipient{}, fmt.Errorf("failed to get recipient %s: %w", phone, err)
	}
	return rec, nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]Recipient, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT uid, phone, name FROM recipients ORDER BY name, uid`)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipients: %w", err)
	}
	defer rows.Close()

	var result []Recipient
	for rows.Next() {
		rec, err := scanRecipient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recipient row: %w", err)
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate recipient rows: %w", err)
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecipient(s scanner) (Recipient, error) {
	var (
		rec   Recipient
		uid   string
		phone sql.NullString
	)
	if err := s.Scan(&uid, &phone, &rec.Name); err != nil {
		return Recipient{}, err
	}
	id, err := uuid.Parse(uid)
	if err != nil {
		return Recipient{}, fmt.Errorf("stored recipient id %q: %w", uid, err)
	}
	rec.UID = id
	rec.Phone = phone.String
	return rec, nil
}
