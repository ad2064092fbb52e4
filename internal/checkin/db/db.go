package db

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"ms-companion/internal/database"
	"ms-companion/internal/models"
)

// DB writes check-ins and raffle tickets through the privileged pool; staff act
// on other users' rows.
type DB struct {
	Bun *bun.DB
}

// InsertCheckIn inserts c unless the (user_id, event_id) pair already exists.
// It reports whether a row was written. An unknown user or event yields
// database.ErrMissingReference.
func (d *DB) InsertCheckIn(ctx context.Context, c *models.CheckIn) (bool, error) {
	res, err := d.Bun.NewInsert().
		Model(c).
		On("CONFLICT (user_id, event_id) DO NOTHING").
		Exec(ctx)
	if database.IsForeignKeyViolation(err) {
		return false, fmt.Errorf("%w: %v", database.ErrMissingReference, err)
	}
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (d *DB) InsertRaffleTicket(ctx context.Context, t *models.RaffleTicket) error {
	_, err := d.Bun.NewInsert().Model(t).Exec(ctx)
	return err
}
