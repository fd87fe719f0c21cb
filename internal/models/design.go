package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Design is an immutable artwork record. There is no update path: designs
// are created when a user generates or uploads artwork and only an admin
// can delete one (never a seed design).
type Design struct {
	bun.BaseModel `bun:"table:designs"`

	ID        string    `bun:"id,pk" json:"id"`
	Name      string    `bun:"name,notnull" json:"name"`
	Author    string    `bun:"author,notnull" json:"author"`
	ImageURL  string    `bun:"image_url,notnull" json:"image_url"`
	IsAI      bool      `bun:"is_ai" json:"is_ai"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"created_at"`
}

type DesignCreateRequest struct {
	Name     string `json:"name"`
	Author   string `json:"author"`
	ImageURL string `json:"image_url"`
	IsAI     bool   `json:"is_ai"`
}
