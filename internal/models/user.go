package models

import (
	"time"

	"github.com/uptrace/bun"
)

type User struct {
	bun.BaseModel `bun:"table:users"`

	ID        string    `bun:"id,pk" json:"id"`
	Email     string    `bun:"email,unique,notnull" json:"email"`
	Name      string    `bun:"name" json:"name"`
	AvatarURL string    `bun:"avatar_url" json:"avatar_url"`
	IsAdmin   bool      `bun:"is_admin" json:"is_admin"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"created_at"`
}

// UserSyncRequest is the payload posted on every successful external login.
type UserSyncRequest struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
	IsAdmin   bool   `json:"is_admin"`
}
