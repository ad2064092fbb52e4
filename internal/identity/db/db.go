package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"ms-companion/internal/models"
)

// DB reads users through the privileged pool and writes profile changes through
// the restricted one.
type DB struct {
	Admin *bun.DB
	User  *bun.DB
}

// FindUsersByPhone returns at most two matches, enough to tell one from many.
func (d *DB) FindUsersByPhone(ctx context.Context, phone string) ([]models.User, error) {
	var users []models.User
	err := d.Admin.NewSelect().
		Model(&users).
		Where("phone_number = ?", phone).
		Limit(2).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return users, nil
}

// GetUserByID returns nil, nil when no row matches.
func (d *DB) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := d.Admin.NewSelect().
		Model(&user).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ReconcileUserID rewrites the id of the user holding phone. Related rows follow
// through ON UPDATE CASCADE. Matching ids make this a no-op.
func (d *DB) ReconcileUserID(ctx context.Context, phone, id string) error {
	_, err := d.Admin.NewUpdate().
		Model((*models.User)(nil)).
		Set("id = ?", id).
		Where("phone_number = ?", phone).
		Where("id <> ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("reconcile user id: %w", err)
	}
	return nil
}

func (d *DB) UpdateUserName(ctx context.Context, id, name string) error {
	_, err := d.User.NewUpdate().
		Model((*models.User)(nil)).
		Set("name = ?", name).
		Where("id = ?", id).
		Exec(ctx)
	return err
}
