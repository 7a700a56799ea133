// Package users provides database operations for user accounts.
//
// # Usage
//
//	repo := users.NewRepository(db)
//	user, err := repo.GetByEmail(ctx, "ada@example.com")
package users

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/devbook/devbook/internal/entities"
)

// ErrActiveBorrows is returned by DeleteWithHistory while the user still has
// books on loan.
var ErrActiveBorrows = errors.New("user has active borrows")

// Changes lists the columns an update may touch. Nil fields are left as
// they are.
type Changes struct {
	Name         *string
	Email        *string
	PasswordHash *string
	RoleID       *uint
}

func (c Changes) columns() map[string]any {
	cols := make(map[string]any, 4)
	if c.Name != nil {
		cols["name"] = *c.Name
	}
	if c.Email != nil {
		cols["email"] = *c.Email
	}
	if c.PasswordHash != nil {
		cols["password"] = *c.PasswordHash
	}
	if c.RoleID != nil {
		cols["role_id"] = *c.RoleID
	}
	return cols
}

// Repository handles all user database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new users repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a user. A duplicate email fails with gorm.ErrDuplicatedKey.
func (r *Repository) Create(ctx context.Context, user *entities.User) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(user).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).First(&user.Role, user.RoleID).Error
}

// GetByID retrieves a user with its role.
func (r *Repository) GetByID(ctx context.Context, id uint) (*entities.User, error) {
	var user entities.User
	err := r.db.WithContext(ctx).Preload("Role").First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail retrieves a user by exact email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	var user entities.User
	err := r.db.WithContext(ctx).Preload("Role").Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// List returns all users ordered by name.
func (r *Repository) List(ctx context.Context) ([]entities.User, error) {
	var users []entities.User
	err := r.db.WithContext(ctx).Preload("Role").Order("name ASC, id ASC").Find(&users).Error
	return users, err
}

// EmailTaken reports whether another user than excludeID already uses email.
func (r *Repository) EmailTaken(ctx context.Context, email string, excludeID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.User{}).
		Where("email = ? AND id <> ?", email, excludeID).
		Count(&count).Error
	return count > 0, err
}

// RoleExists reports whether id references a seeded role.
func (r *Repository) RoleExists(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Role{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// Apply writes the present fields of changes to the user. Returns
// gorm.ErrRecordNotFound if the user does not exist.
func (r *Repository) Apply(ctx context.Context, id uint, changes Changes) error {
	cols := changes.columns()
	if len(cols) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&entities.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Model(&entities.User{}).Where("id = ?", id).Updates(cols).Error
	})
}

// DeleteWithHistory removes the user and their closed borrows in one
// transaction. Fails with ErrActiveBorrows if any loan is still open.
func (r *Repository) DeleteWithHistory(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var active int64
		err := tx.Model(&entities.Borrow{}).
			Where("user_id = ? AND return_date IS NULL", id).
			Count(&active).Error
		if err != nil {
			return err
		}
		if active > 0 {
			return ErrActiveBorrows
		}

		if err := tx.Where("user_id = ?", id).Delete(&entities.Borrow{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&entities.User{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
