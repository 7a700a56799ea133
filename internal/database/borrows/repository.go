// Package borrows provides database operations for loans.
//
// A borrow is Active while return_date is NULL. The active_book_id column
// mirrors book_id for Active rows and carries a unique index, so a second
// Active borrow of the same book is rejected by the database with
// gorm.ErrDuplicatedKey. Returning a book is a conditional update that only
// matches Active rows.
package borrows

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/devbook/devbook/internal/entities"
)

var (
	// ErrBookNotFound is returned by Create when the book no longer exists.
	ErrBookNotFound = errors.New("book not found")
	// ErrUserNotFound is returned by Create when the borrower no longer exists.
	ErrUserNotFound = errors.New("borrower not found")
)

// Repository handles all borrow database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new borrows repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) joined(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&entities.Borrow{}).
		Select("borrows.*, books.title AS book_title, books.author AS book_author, users.name AS user_name").
		Joins("JOIN books ON books.id = borrows.book_id").
		Joins("JOIN users ON users.id = borrows.user_id")
}

// Create inserts an Active borrow. The book and the borrower are checked in
// the same transaction as the insert, so a row never points at a deleted
// user or book.
func (r *Repository) Create(ctx context.Context, borrow *entities.Borrow) error {
	bookID := borrow.BookID
	borrow.ActiveBookID = &bookID
	borrow.ReturnDate = nil

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&entities.Book{}).Where("id = ?", borrow.BookID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrBookNotFound
		}

		if err := tx.Model(&entities.User{}).Where("id = ?", borrow.UserID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrUserNotFound
		}

		return tx.Create(borrow).Error
	})
}

// GetByID retrieves a borrow with book and user details.
func (r *Repository) GetByID(ctx context.Context, id uint) (*entities.Borrow, error) {
	var borrow entities.Borrow
	err := r.joined(ctx).Where("borrows.id = ?", id).First(&borrow).Error
	if err != nil {
		return nil, err
	}
	return &borrow, nil
}

// HasActive reports whether the book is currently on loan.
func (r *Repository) HasActive(ctx context.Context, bookID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Borrow{}).
		Where("book_id = ? AND return_date IS NULL", bookID).
		Count(&count).Error
	return count > 0, err
}

// MarkReturned closes an Active borrow. It returns false without error when
// the borrow is missing or already returned.
func (r *Repository) MarkReturned(ctx context.Context, id uint, date entities.Date) (bool, error) {
	result := r.db.WithContext(ctx).Model(&entities.Borrow{}).
		Where("id = ? AND return_date IS NULL", id).
		Updates(map[string]any{
			"return_date":    date,
			"active_book_id": nil,
		})
	return result.RowsAffected > 0, result.Error
}

// ListAll returns every borrow, newest first.
func (r *Repository) ListAll(ctx context.Context) ([]entities.Borrow, error) {
	var borrows []entities.Borrow
	err := r.joined(ctx).Order("borrows.borrow_date DESC, borrows.id DESC").Find(&borrows).Error
	return borrows, err
}

// ListForUser returns the borrows of one user, newest first.
func (r *Repository) ListForUser(ctx context.Context, userID uint) ([]entities.Borrow, error) {
	var borrows []entities.Borrow
	err := r.joined(ctx).
		Where("borrows.user_id = ?", userID).
		Order("borrows.borrow_date DESC, borrows.id DESC").
		Find(&borrows).Error
	return borrows, err
}

// ListOverdue returns Active borrows due before today, longest overdue first.
func (r *Repository) ListOverdue(ctx context.Context, today entities.Date) ([]entities.Borrow, error) {
	var borrows []entities.Borrow
	err := r.joined(ctx).
		Where("borrows.return_date IS NULL AND borrows.expected_return_date < ?", today).
		Order("borrows.expected_return_date ASC, borrows.id ASC").
		Find(&borrows).Error
	return borrows, err
}

// ListByBorrowDate returns the borrows made on date.
func (r *Repository) ListByBorrowDate(ctx context.Context, date string) ([]entities.Borrow, error) {
	var borrows []entities.Borrow
	err := r.joined(ctx).
		Where("borrows.borrow_date = ?", date).
		Order("borrows.id DESC").
		Find(&borrows).Error
	return borrows, err
}

// Counts returns the total, Active and overdue number of borrows.
func (r *Repository) Counts(ctx context.Context, today entities.Date) (total, active, overdue int64, err error) {
	db := r.db.WithContext(ctx)
	if err = db.Model(&entities.Borrow{}).Count(&total).Error; err != nil {
		return
	}
	if err = db.Model(&entities.Borrow{}).Where("return_date IS NULL").Count(&active).Error; err != nil {
		return
	}
	err = db.Model(&entities.Borrow{}).
		Where("return_date IS NULL AND expected_return_date < ?", today).
		Count(&overdue).Error
	return
}

// TopBooks ranks books by number of borrows. An empty monthPrefix counts
// all time; otherwise only borrows whose date starts with the prefix.
func (r *Repository) TopBooks(ctx context.Context, monthPrefix string, limit int) ([]entities.BookBorrowCount, error) {
	var top []entities.BookBorrowCount
	query := r.db.WithContext(ctx).Table("borrows").
		Select("books.id AS id, books.title AS title, books.author AS author, COUNT(borrows.id) AS borrow_count").
		Joins("JOIN books ON books.id = borrows.book_id")
	if monthPrefix != "" {
		query = query.Where("borrows.borrow_date LIKE ?", monthPrefix+"%")
	}
	err := query.
		Group("books.id, books.title, books.author").
		Order("borrow_count DESC, books.id ASC").
		Limit(limit).
		Scan(&top).Error
	return top, err
}
