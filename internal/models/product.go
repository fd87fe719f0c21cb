package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Product struct {
	bun.BaseModel `bun:"table:products"`

	ID           string    `bun:"id,pk" json:"id"`
	Name         string    `bun:"name,notnull" json:"name"`
	Description  string    `bun:"description" json:"description"`
	Price        float64   `bun:"price,notnull" json:"price"`
	BaseImageURL string    `bun:"base_image_url,notnull" json:"base_image_url"`
	Category     string    `bun:"category" json:"category"`
	CreatedAt    time.Time `bun:"created_at,notnull" json:"created_at"`
}

const (
	CategoryTShirt = "tshirt"
	CategoryHoodie = "hoodie"
)
