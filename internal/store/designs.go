package store

import (
	"context"
	"database/sql"
	"errors"

	"storefront/internal/models"
)

func (d *DB) ListDesigns(ctx context.Context) ([]models.Design, error) {
	var designs []models.Design
	err := d.Bun.NewSelect().
		Model(&designs).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	if designs == nil {
		designs = []models.Design{}
	}
	return designs, nil
}

func (d *DB) GetDesignByID(ctx context.Context, id string) (*models.Design, error) {
	var design models.Design
	err := d.Bun.NewSelect().
		Model(&design).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &design, nil
}

func (d *DB) CreateDesign(ctx context.Context, design models.Design) error {
	_, err := d.Bun.NewInsert().Model(&design).Exec(ctx)
	return err
}

func (d *DB) DeleteDesign(ctx context.Context, id string) error {
	_, err := d.Bun.NewDelete().
		Model((*models.Design)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	return err
}
