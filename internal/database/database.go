package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/devbook/devbook/internal/config"
	"github.com/devbook/devbook/internal/entities"
)

var defaultRoles = []entities.Role{
	{ID: entities.RoleAdminID, Name: entities.RoleAdmin},
	{ID: entities.RoleStudentID, Name: entities.RoleStudent},
}

type Database struct {
	DB *gorm.DB
}

// NewDatabase opens the configured database, migrates the schema and seeds
// the roles lookup table.
func NewDatabase(cfg config.Database, log *logrus.Logger) (*Database, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	gormLogger := logger.Default.LogMode(logger.Silent)
	if cfg.LogSQL && log != nil {
		gormLogger = logger.New(log, logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Info,
			IgnoreRecordNotFoundError: true,
		})
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	err = db.AutoMigrate(
		&entities.Role{},
		&entities.User{},
		&entities.Category{},
		&entities.Book{},
		&entities.Borrow{},
		&entities.AuditEvent{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	database := &Database{DB: db}

	if err := database.seedRoles(); err != nil {
		return nil, fmt.Errorf("failed to seed roles: %w", err)
	}

	if log != nil {
		log.WithField("driver", cfg.Driver).Info("database initialized")
	}

	return database, nil
}

func dialectorFor(cfg config.Database) (gorm.Dialector, error) {
	switch cfg.Driver {
	case config.DatabaseDriverSQLite, "":
		return sqlite.Open(sqliteDSN(cfg.Path)), nil
	case config.DatabaseDriverMySQL:
		if cfg.DSN == "" {
			return nil, fmt.Errorf("DATABASE_DSN is required for the mysql driver")
		}
		return mysql.Open(cfg.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// sqliteDSN adds a busy timeout so concurrent writers wait instead of
// failing with "database is locked".
func sqliteDSN(path string) string {
	if strings.Contains(path, "?") {
		return path
	}
	return path + "?_busy_timeout=5000"
}

func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (d *Database) seedRoles() error {
	for _, role := range defaultRoles {
		var existing entities.Role
		err := d.DB.Where("id = ?", role.ID).First(&existing).Error
		if err == gorm.ErrRecordNotFound {
			if err := d.DB.Create(&role).Error; err != nil {
				return fmt.Errorf("failed to create role %s: %w", role.Name, err)
			}
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}
