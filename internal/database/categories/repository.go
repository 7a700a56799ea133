// Package categories provides database operations for book categories.
//
// # Usage
//
//	repo := categories.NewRepository(db)
//	counts, err := repo.BookCounts(ctx)
package categories

import (
	"context"

	"gorm.io/gorm"

	"github.com/devbook/devbook/internal/entities"
)

// Repository handles all category database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new categories repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// List returns all categories ordered by name.
func (r *Repository) List(ctx context.Context) ([]entities.Category, error) {
	var categories []entities.Category
	err := r.db.WithContext(ctx).Order("name ASC, id ASC").Find(&categories).Error
	return categories, err
}

// GetByID retrieves a category by ID.
func (r *Repository) GetByID(ctx context.Context, id uint) (*entities.Category, error) {
	var category entities.Category
	err := r.db.WithContext(ctx).First(&category, id).Error
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// Exists reports whether a category with id is stored.
func (r *Repository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Category{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *Repository) Create(ctx context.Context, category *entities.Category) error {
	return r.db.WithContext(ctx).Create(category).Error
}

// Update replaces name and description of the category with category.ID.
func (r *Repository) Update(ctx context.Context, category *entities.Category) error {
	return r.db.WithContext(ctx).Model(&entities.Category{ID: category.ID}).
		Select("name", "description").
		Updates(category).Error
}

// Delete removes the category and clears the reference on its books in one
// transaction. The books themselves are kept.
func (r *Repository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&entities.Book{}).
			Where("category_id = ?", id).
			Update("category_id", nil).Error
		if err != nil {
			return err
		}

		result := tx.Delete(&entities.Category{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// BookCounts returns every category with the number of books filed under
// it, busiest first. Categories without books are included.
func (r *Repository) BookCounts(ctx context.Context) ([]entities.CategoryBookCount, error) {
	var counts []entities.CategoryBookCount
	err := r.db.WithContext(ctx).Table("categories").
		Select("categories.id AS id, categories.name AS name, COUNT(books.id) AS book_count").
		Joins("LEFT JOIN books ON books.category_id = categories.id").
		Group("categories.id, categories.name").
		Order("book_count DESC, categories.name ASC").
		Scan(&counts).Error
	return counts, err
}
