package store

import (
	"context"

	"github.com/uptrace/bun"
)

// DB is the relational store. All durable state lives here; it is handed
// to the services at construction, never reached for as a global.
type DB struct {
	Bun *bun.DB
}

func New(bunDB *bun.DB) *DB {
	return &DB{Bun: bunDB}
}

func (d *DB) HealthCheck(ctx context.Context) error {
	var now string
	return d.Bun.NewSelect().
		ColumnExpr("CURRENT_TIMESTAMP").
		Scan(ctx, &now)
}
