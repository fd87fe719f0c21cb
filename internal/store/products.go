package store

import (
	"context"
	"database/sql"
	"errors"

	"storefront/internal/models"
)

func (d *DB) ListProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := d.Bun.NewSelect().
		Model(&products).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []models.Product{}
	}
	return products, nil
}

func (d *DB) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	err := d.Bun.NewSelect().
		Model(&product).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

func (d *DB) CreateProduct(ctx context.Context, product models.Product) error {
	_, err := d.Bun.NewInsert().Model(&product).Exec(ctx)
	return err
}
