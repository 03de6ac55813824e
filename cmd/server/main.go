package main

import (
	"log"
	"net/http"

	_ "userhub/docs" // swagger docs

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"userhub/internal/auth"
	"userhub/internal/cache"
	"userhub/internal/config"
	"userhub/internal/db"
	"userhub/internal/handler"
	"userhub/internal/model"
	"userhub/internal/repository"
	"userhub/internal/router"
	"userhub/internal/service"
)

// @title User Account API
// @version 1.0
// @description User account management API with ownership-based authorization and JWT authentication.
// @host localhost:8080
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg := config.Load()

	e := echo.New()
	e.Use(middleware.RequestID())

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("database init: %v", err)
	}

	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Phone{},
	); err != nil {
		log.Fatalf("auto-migrate: %v", err)
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	userRepo := repository.NewUserRepository(gormDB)

	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.JWTTTL)
	revocations := auth.NewRevocationStore(cacheClient)

	userService := service.NewUserService(userRepo, jwtService)
	authService := service.NewAuthService(userRepo, jwtService, revocations)

	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService, authService)

	router.Register(e, cfg, jwtService, revocations, userHandler, authHandler)

	addr := ":" + cfg.ServerPort
	if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server start: %v", err)
	}
}
