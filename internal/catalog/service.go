// Package catalog manages books and categories.
//
// Catalog reads are public; writes are restricted to admins at the route
// level. Categories are weak owners: deleting one clears the reference on
// its books instead of deleting them.
package catalog

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/devbook/devbook/internal/apperror"
	"github.com/devbook/devbook/internal/database/books"
	"github.com/devbook/devbook/internal/entities"
)

// BookStore is the book persistence the catalog needs.
type BookStore interface {
	List(ctx context.Context) ([]entities.Book, error)
	GetByID(ctx context.Context, id uint) (*entities.Book, error)
	Exists(ctx context.Context, id uint) (bool, error)
	Search(ctx context.Context, term string) ([]entities.Book, error)
	ListByStatus(ctx context.Context, status entities.BookStatus) ([]entities.Book, error)
	ListByCategory(ctx context.Context, categoryID uint) ([]entities.Book, error)
	Create(ctx context.Context, book *entities.Book) error
	Update(ctx context.Context, book *entities.Book) error
	DeleteWithHistory(ctx context.Context, id uint) error
}

// CategoryStore is the category persistence the catalog needs.
type CategoryStore interface {
	List(ctx context.Context) ([]entities.Category, error)
	GetByID(ctx context.Context, id uint) (*entities.Category, error)
	Exists(ctx context.Context, id uint) (bool, error)
	Create(ctx context.Context, category *entities.Category) error
	Update(ctx context.Context, category *entities.Category) error
	Delete(ctx context.Context, id uint) error
	BookCounts(ctx context.Context) ([]entities.CategoryBookCount, error)
}

type Service struct {
	books      BookStore
	categories CategoryStore
}

func NewService(books BookStore, categories CategoryStore) *Service {
	return &Service{books: books, categories: categories}
}

func (s *Service) ListBooks(ctx context.Context) ([]entities.Book, error) {
	list, err := s.books.List(ctx)
	if err != nil {
		return nil, apperror.Unexpected(err)
	}
	return list, nil
}

func (s *Service) GetBook(ctx context.Context, id uint) (*entities.Book, error) {
	book, err := s.books.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("book not found")
		}
		return nil, apperror.Unexpected(err)
	}
	return book, nil
}

func (s *Service) CreateBook(ctx context.Context, input entities.BookInput) (*entities.Book, error) {
	book, err := s.bookFromInput(ctx, input)
	if err != nil {
		return nil, err
	}
	if err := s.books.Create(ctx, book); err != nil {
		return nil, apperror.Unexpected(err)
	}
	return s.GetBook(ctx, book.ID)
}

// UpdateBook replaces every writable field of the book. Omitted optional
// fields fall back to their defaults.
func (s *Service) UpdateBook(ctx context.Context, id uint, input entities.BookInput) (*entities.Book, error) {
	exists, err := s.books.Exists(ctx, id)
	if err != nil {
		return nil, apperror.Unexpected(err)
	}
	if !exists {
		return nil, apperror.NotFound("book not found")
	}

	book, err := s.bookFromInput(ctx, input)
	if err != nil {
		return nil, err
	}
	book.ID = id
	if err := s.books.Update(ctx, book); err != nil {
		return nil, apperror.Unexpected(err)
	}
	return s.GetBook(ctx, id)
}

// DeleteBook removes the book with its closed loan history. A book that is
// currently on loan cannot be deleted.
func (s *Service) DeleteBook(ctx context.Context, id uint) error {
	err := s.books.DeleteWithHistory(ctx, id)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperror.NotFound("book not found")
	case errors.Is(err, books.ErrActiveBorrow):
		return apperror.Conflict("book is currently borrowed")
	default:
		return apperror.Unexpected(err)
	}
}

// Search matches term against title, author and description,
// case-insensitively.
func (s *Service) Search(ctx context.Context, term string) ([]entities.Book, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, apperror.Validation("search term is required")
	}
	list, err := s.books.Search(ctx, term)
	if err != nil {
		return nil, apperror.Unexpected(err)
	}
	return list, nil
}

// FilterByStatus returns books with exactly this status. Unknown statuses
// are not rejected; they simply match nothing.
func (s *Service) FilterByStatus(ctx context.Context, status string) ([]entities.Book, error) {
	list, err := s.books.ListByStatus(ctx, entities.BookStatus(status))
	if err != nil {
		return nil, apperror.Unexpected(err)
	}
	return list, nil
}

func (s *Service) bookFromInput(ctx context.Context, input entities.BookInput) (*entities.Book, error) {
	title := strings.TrimSpace(input.Title)
	author := strings.TrimSpace(input.Author)
	if title == "" || author == "" {
		return nil, apperror.Validation("title and author are required")
	}

	status := input.Status
	if status == "" {
		status = entities.BookStatusToRead
	}
	if !status.Valid() {
		return nil, apperror.Validation("status must be one of to_read, reading, read")
	}

	rating := entities.MinRating
	if input.Rating != nil {
		rating = *input.Rating
	}
	if rating < entities.MinRating || rating > entities.MaxRating {
		return nil, apperror.Validation("rating must be between %d and %d", entities.MinRating, entities.MaxRating)
	}

	if input.CategoryID != nil {
		exists, err := s.categories.Exists(ctx, *input.CategoryID)
		if err != nil {
			return nil, apperror.Unexpected(err)
		}
		if !exists {
			return nil, apperror.Validation("category %d does not exist", *input.CategoryID)
		}
	}

	return &entities.Book{
		Title:       title,
		Author:      author,
		CategoryID:  input.CategoryID,
		Status:      status,
		Rating:      rating,
		Description: input.Description,
	}, nil
}
