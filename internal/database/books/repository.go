// Package books provides database operations for the book catalog.
//
// Reads join the category name onto each book. Deletion also removes the
// book's closed borrow history and refuses while a loan is open.
package books

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/devbook/devbook/internal/entities"
)

// ErrActiveBorrow is returned by DeleteWithHistory while the book is on loan.
var ErrActiveBorrow = errors.New("book has an active borrow")

var writableColumns = []string{"title", "author", "category_id", "status", "rating", "description"}

// Repository handles all book database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) withCategory(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&entities.Book{}).
		Select("books.*, categories.name AS category_name").
		Joins("LEFT JOIN categories ON categories.id = books.category_id")
}

// List returns all books ordered by title.
func (r *Repository) List(ctx context.Context) ([]entities.Book, error) {
	var books []entities.Book
	err := r.withCategory(ctx).Order("books.title ASC, books.id ASC").Find(&books).Error
	return books, err
}

// GetByID retrieves a book with its category name.
func (r *Repository) GetByID(ctx context.Context, id uint) (*entities.Book, error) {
	var book entities.Book
	err := r.withCategory(ctx).Where("books.id = ?", id).First(&book).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// Exists reports whether a book with id is stored.
func (r *Repository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Book{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// Search matches term case-insensitively against title, author and
// description.
func (r *Repository) Search(ctx context.Context, term string) ([]entities.Book, error) {
	var books []entities.Book
	pattern := "%" + strings.ToLower(term) + "%"
	err := r.withCategory(ctx).
		Where("LOWER(books.title) LIKE ? OR LOWER(books.author) LIKE ? OR LOWER(books.description) LIKE ?",
			pattern, pattern, pattern).
		Order("books.title ASC, books.id ASC").
		Find(&books).Error
	return books, err
}

// ListByStatus returns books whose status equals status exactly.
func (r *Repository) ListByStatus(ctx context.Context, status entities.BookStatus) ([]entities.Book, error) {
	var books []entities.Book
	err := r.withCategory(ctx).
		Where("books.status = ?", status).
		Order("books.title ASC, books.id ASC").
		Find(&books).Error
	return books, err
}

// ListByCategory returns the books filed under a category.
func (r *Repository) ListByCategory(ctx context.Context, categoryID uint) ([]entities.Book, error) {
	var books []entities.Book
	err := r.withCategory(ctx).
		Where("books.category_id = ?", categoryID).
		Order("books.title ASC, books.id ASC").
		Find(&books).Error
	return books, err
}

func (r *Repository) Create(ctx context.Context, book *entities.Book) error {
	return r.db.WithContext(ctx).Create(book).Error
}

// Update replaces the writable columns of the book with book.ID, including
// zero values.
func (r *Repository) Update(ctx context.Context, book *entities.Book) error {
	return r.db.WithContext(ctx).Model(&entities.Book{ID: book.ID}).
		Select(writableColumns).
		Updates(book).Error
}

// DeleteWithHistory removes the book and its closed borrows in one
// transaction. Fails with ErrActiveBorrow while the book is on loan.
func (r *Repository) DeleteWithHistory(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var active int64
		err := tx.Model(&entities.Borrow{}).
			Where("book_id = ? AND return_date IS NULL", id).
			Count(&active).Error
		if err != nil {
			return err
		}
		if active > 0 {
			return ErrActiveBorrow
		}

		if err := tx.Where("book_id = ?", id).Delete(&entities.Borrow{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&entities.Book{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
