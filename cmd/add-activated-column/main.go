// One-shot migration: ensure users.activated exists. Default TRUE so
// existing accounts stay usable.
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

	if _, err := pool.Exec(ctx, `ALTER TABLE users ADD COLUMN IF NOT EXISTS activated BOOLEAN DEFAULT true`); err != nil {
		logrus.Fatalf("[migrate] adding activated column: %v", err)
	}
	logrus.Info("[migrate] column activated ensured on users (default true)")
}
