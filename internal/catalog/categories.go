package catalog

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/devbook/devbook/internal/apperror"
	"github.com/devbook/devbook/internal/entities"
)

func (s *Service) ListCategories(ctx context.Context) ([]entities.Category, error) {
	list, err := s.categories.List(ctx)
	if err != nil {
		return nil, apperror.Unexpected(err)
	}
	return list, nil
}

// GetCategory returns the category together with its books.
func (s *Service) GetCategory(ctx context.Context, id uint) (*entities.CategoryWithBooks, error) {
	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("category not found")
		}
		return nil, apperror.Unexpected(err)
	}

	list, err := s.books.ListByCategory(ctx, id)
	if err != nil {
		return nil, apperror.Unexpected(err)
	}
	if list == nil {
		list = []entities.Book{}
	}
	return &entities.CategoryWithBooks{Category: *category, Books: list}, nil
}

func (s *Service) CreateCategory(ctx context.Context, input entities.CategoryInput) (*entities.Category, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperror.Validation("name is required")
	}

	category := &entities.Category{Name: name, Description: input.Description}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, apperror.Unexpected(err)
	}
	return category, nil
}

func (s *Service) UpdateCategory(ctx context.Context, id uint, input entities.CategoryInput) (*entities.Category, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperror.Validation("name is required")
	}

	exists, err := s.categories.Exists(ctx, id)
	if err != nil {
		return nil, apperror.Unexpected(err)
	}
	if !exists {
		return nil, apperror.NotFound("category not found")
	}

	if err := s.categories.Update(ctx, &entities.Category{ID: id, Name: name, Description: input.Description}); err != nil {
		return nil, apperror.Unexpected(err)
	}

	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.Unexpected(err)
	}
	return category, nil
}

// DeleteCategory removes the category. Its books are kept with the
// category reference cleared.
func (s *Service) DeleteCategory(ctx context.Context, id uint) error {
	if err := s.categories.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound("category not found")
		}
		return apperror.Unexpected(err)
	}
	return nil
}

// CategoryBookCounts lists every category with its number of books,
// busiest first.
func (s *Service) CategoryBookCounts(ctx context.Context) ([]entities.CategoryBookCount, error) {
	counts, err := s.categories.BookCounts(ctx)
	if err != nil {
		return nil, apperror.Unexpected(err)
	}
	return counts, nil
}
