// Package app assembles repositories, services and handlers into an echo
// instance.
package app

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"cashbook/internal/auth"
	"cashbook/internal/cache"
	"cashbook/internal/config"
	"cashbook/internal/handler"
	"cashbook/internal/repository"
	"cashbook/internal/router"
	"cashbook/internal/service"
)

// New wires the API on top of an opened store. cacheClient may be nil.
func New(cfg *config.Config, log *slog.Logger, gormDB *gorm.DB, cacheClient *cache.Client) *echo.Echo {
	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	sheetRepo := repository.NewSheetRepository(gormDB)

	// Initialize auth components
	hasher := auth.NewHasher(cfg.BcryptCost)
	issuer := auth.NewSessionIssuer(cfg.JWTSecret, auth.NewTokenStore(cacheClient))

	// Initialize services
	authService := service.NewAuthService(userRepo, hasher, issuer, log)
	sheetService := service.NewSheetService(sheetRepo, cacheClient, log)
	exportService := service.NewExportService()

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService, handler.NewCookiePolicy(cfg.IsProduction()))
	sheetHandler := handler.NewSheetHandler(sheetService, exportService)

	e := echo.New()
	e.HideBanner = true
	router.Register(e, cfg, log, authService, authHandler, sheetHandler)
	return e
}
