package http

import (
	"github.com/sirupsen/logrus"

	"github.com/devbook/devbook/internal/audit"
	"github.com/devbook/devbook/internal/auth"
	"github.com/devbook/devbook/internal/catalog"
	"github.com/devbook/devbook/internal/database"
	"github.com/devbook/devbook/internal/directory"
	"github.com/devbook/devbook/internal/lending"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Database *database.Database
	Logger   *logrus.Logger

	// Services
	Auth      *auth.Service
	Catalog   *catalog.Service
	Lending   *lending.Service
	Directory *directory.Service

	// Audit trail (optional)
	Audit *audit.Service

	// Frontend directory served under "/" when it exists
	StaticPath string

	// Application info
	Version string
}
