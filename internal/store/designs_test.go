package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"storefront/internal/models"
)

func TestCreateListAndDeleteDesign(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	d := models.Design{
		ID:        "design1",
		Name:      "Neon Skyline",
		Author:    "Fresh Style Community",
		ImageURL:  "/product-images/neon_skyline.png",
		IsAI:      true,
		CreatedAt: time.Now().Round(time.Second),
	}

	assert.NoError(t, db.CreateDesign(ctx, d))

	designs, err := db.ListDesigns(ctx)
	assert.NoError(t, err)
	assert.Len(t, designs, 1)
	assert.Equal(t, "Neon Skyline", designs[0].Name)

	got, err := db.GetDesignByID(ctx, "design1")
	assert.NoError(t, err)
	assert.NotNil(t, got)
	assert.True(t, got.IsAI)

	assert.NoError(t, db.DeleteDesign(ctx, "design1"))

	got, err = db.GetDesignByID(ctx, "design1")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestCreateAndGetProduct(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	p := models.Product{
		ID:           "classic-tee",
		Name:         "Classic Tee",
		Price:        29.99,
		BaseImageURL: "/product-images/base-tee.png",
		Category:     models.CategoryTShirt,
		CreatedAt:    time.Now().Round(time.Second),
	}

	assert.NoError(t, db.CreateProduct(ctx, p))

	products, err := db.ListProducts(ctx)
	assert.NoError(t, err)
	assert.Len(t, products, 1)

	got, err := db.GetProductByID(ctx, "classic-tee")
	assert.NoError(t, err)
	assert.NotNil(t, got)
	assert.Equal(t, 29.99, got.Price)

	missing, err := db.GetProductByID(ctx, "nope")
	assert.NoError(t, err)
	assert.Nil(t, missing)
}
