package entrypoint

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/devbook/devbook/internal/audit"
	"github.com/devbook/devbook/internal/auth"
	"github.com/devbook/devbook/internal/catalog"
	"github.com/devbook/devbook/internal/config"
	"github.com/devbook/devbook/internal/database"
	auditRepo "github.com/devbook/devbook/internal/database/audit"
	"github.com/devbook/devbook/internal/database/books"
	"github.com/devbook/devbook/internal/database/borrows"
	"github.com/devbook/devbook/internal/database/categories"
	"github.com/devbook/devbook/internal/database/users"
	"github.com/devbook/devbook/internal/directory"
	http_controllers "github.com/devbook/devbook/internal/http"
	"github.com/devbook/devbook/internal/lending"
)

// App holds the database and the services built on top of it.
type App struct {
	Config *config.Config
	Log    *logrus.Logger
	DB     *database.Database

	Auth      *auth.Service
	Catalog   *catalog.Service
	Lending   *lending.Service
	Directory *directory.Service
	Audit     *audit.Service
}

// NewApp opens the database and wires every service. An empty JWT secret
// is replaced with a random one, which invalidates tokens on restart.
func NewApp(cfg *config.Config, log *logrus.Logger) (*App, error) {
	if cfg.Auth.JWTSecret == "" {
		secret, err := auth.GenerateSecret()
		if err != nil {
			return nil, fmt.Errorf("generate jwt secret: %w", err)
		}
		cfg.Auth.JWTSecret = secret
		log.Warn("AUTH_JWT_SECRET is not set, generated a per-process secret; tokens will not survive a restart")
	}

	db, err := database.NewDatabase(cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("initialize database: %w", err)
	}

	userRepo := users.NewRepository(db.DB)
	bookRepo := books.NewRepository(db.DB)

	lendingService := lending.NewService(
		borrows.NewRepository(db.DB),
		bookRepo,
		lending.WithLoanPeriod(cfg.Lending.LoanPeriodDays),
	)

	return &App{
		Config:    cfg,
		Log:       log,
		DB:        db,
		Auth:      auth.NewService(userRepo, auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL), cfg.Auth),
		Catalog:   catalog.NewService(bookRepo, categories.NewRepository(db.DB)),
		Lending:   lendingService,
		Directory: directory.NewService(userRepo, lendingService, cfg.Auth.BcryptCost),
		Audit:     audit.NewService(auditRepo.NewRepository(db.DB), log),
	}, nil
}

// RouterConfig describes the HTTP surface of the app.
func (a *App) RouterConfig(version string) http_controllers.RouterConfig {
	return http_controllers.RouterConfig{
		Database:   a.DB,
		Logger:     a.Log,
		Auth:       a.Auth,
		Catalog:    a.Catalog,
		Lending:    a.Lending,
		Directory:  a.Directory,
		Audit:      a.Audit,
		StaticPath: a.Config.UI.StaticPath,
		Version:    version,
	}
}

// Close flushes pending audit events and closes the database.
func (a *App) Close() error {
	a.Audit.Wait()
	return a.DB.Close()
}
