package store

import (
	"context"
	"database/sql"
	"errors"

	"storefront/internal/models"
)

// UpsertUser inserts the user or refreshes name/avatar/email/admin flag on
// repeat logins. Returns true when the row was newly created.
func (d *DB) UpsertUser(ctx context.Context, user models.User) (bool, error) {
	existing, err := d.GetUserByID(ctx, user.ID)
	if err != nil {
		return false, err
	}

	if existing != nil {
		_, err = d.Bun.NewUpdate().
			Model(&user).
			Column("name", "avatar_url", "email", "is_admin").
			Where("id = ?", user.ID).
			Exec(ctx)
		return false, err
	}

	_, err = d.Bun.NewInsert().Model(&user).Exec(ctx)
	return err == nil, err
}

// GetUserByID returns nil without error when no user matches.
func (d *DB) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := d.Bun.NewSelect().
		Model(&user).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (d *DB) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := d.Bun.NewSelect().
		Model(&users).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []models.User{}
	}
	return users, nil
}
