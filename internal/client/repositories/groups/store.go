package groups

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/gophgroups/internal/client/models"
	"github.com/dmitrijs2005/gophgroups/internal/dbx"
	"github.com/dmitrijs2005/gophgroups/internal/zkgroup"
)

// Store adds transactional change application on top of the repository.
type Store struct {
	*SQLiteRepository
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{SQLiteRepository: NewSQLiteRepository(db), db: db}
}

// Apply applies changes in order to the stored state of group id and saves
// the result in one transaction. Each change must follow the revision
// before it, so a replayed or reordered change fails with
// models.ErrRevisionMismatch and nothing is written.
func (s *Store) Apply(ctx context.Context, id zkgroup.GroupIdentifier, changes ...models.ChangeActions) (models.GroupState, error) {
	var result models.GroupState
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := NewSQLiteRepository(tx)

		current, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}
		state := *current
		for _, c := range changes {
			if state, err = state.Apply(c); err != nil {
				return err
			}
		}
		if err := repo.Save(ctx, state); err != nil {
			return err
		}
		result = state
		return nil
	})
	if err != nil {
		return models.GroupState{}, fmt.Errorf("apply changes to group %s: %w", id, err)
	}
	return result, nil
}
