package main

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/MikeMC777/perfil-ecom/docs"
	"github.com/MikeMC777/perfil-ecom/internal/cart"
	"github.com/MikeMC777/perfil-ecom/internal/config"
	"github.com/MikeMC777/perfil-ecom/internal/httpx"
	"github.com/MikeMC777/perfil-ecom/internal/user"
)

// @title Perfil Ecom API
// @version 1.0
// @description Profile and cart endpoints for the shop backend.
func main() {
	cfg := config.Load()

	pool, err := pgxpool.New(context.Background(), cfg.PostgresDSN)
	if err != nil {
		logrus.Fatalf("[profile] connecting to postgres: %v", err)
	}
	defer pool.Close()

	users := user.NewPGRepo(pool)
	carts := cart.NewStore(pool)

	r := gin.New()
	r.Use(gin.Recovery(), httpx.RequestID(), httpx.Logger())
	r.Use(httpx.Sessions(cfg.SessionSecret)...)
	r.MaxMultipartMemory = 8 << 20

	registerRoutes(r, users, carts, cfg.PublicPath)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	logrus.Infof("[profile] listening on %s", cfg.HTTPAddr)
	if err := r.Run(cfg.HTTPAddr); err != nil {
		logrus.Fatal(err)
	}
}
