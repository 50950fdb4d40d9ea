// One-shot migration: resync the users id sequence to max(id)+1. Needed
// after rows were inserted with explicit ids.
package main

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/MikeMC777/perfil-ecom/internal/config"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		logrus.Fatalf("[migrate] connecting to postgres: %v", err)
	}
	defer pool.Close()

	var maxID int64
	if err := pool.QueryRow(ctx, `SELECT COALESCE(MAX(id), 0) FROM users`).Scan(&maxID); err != nil {
		logrus.Fatalf("[migrate] reading max users id: %v", err)
	}

	var seq *string
	if err := pool.QueryRow(ctx, `SELECT pg_get_serial_sequence('users','id')`).Scan(&seq); err != nil {
		logrus.Fatalf("[migrate] resolving users id sequence: %v", err)
	}
	if seq == nil {
		logrus.Fatal("[migrate] could not determine the users id sequence name")
	}

	next := maxID + 1
	// setval with is_called=false so the next nextval returns `next`
	if _, err := pool.Exec(ctx, `SELECT setval($1, $2, false)`, *seq, next); err != nil {
		logrus.Fatalf("[migrate] setting sequence %s: %v", *seq, err)
	}
	logrus.Infof("[migrate] sequence %s set, next id will be %d", *seq, next)
}
