// Package lending implements the borrow/return lifecycle.
//
// A borrow is Active until it is returned, and Returned is terminal.
// Overdue is derived from the current date every time a borrow is read and
// is never stored. The clock is injectable so "today" can be pinned in tests.
//
// One Active borrow per book is guaranteed by a unique index on
// borrows.active_book_id. The HasActive pre-check only exists to report the
// common case cleanly; a lost race surfaces as the same ConflictError.
package lending

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/devbook/devbook/internal/apperror"
	"github.com/devbook/devbook/internal/auth"
	"github.com/devbook/devbook/internal/config"
	"github.com/devbook/devbook/internal/database/borrows"
	"github.com/devbook/devbook/internal/entities"
)

const (
	statsTopBooks = 5
	monthTopBooks = 10
)

// BorrowStore is the borrow persistence the lending service needs.
type BorrowStore interface {
	Create(ctx context.Context, borrow *entities.Borrow) error
	GetByID(ctx context.Context, id uint) (*entities.Borrow, error)
	HasActive(ctx context.Context, bookID uint) (bool, error)
	MarkReturned(ctx context.Context, id uint, date entities.Date) (bool, error)
	ListAll(ctx context.Context) ([]entities.Borrow, error)
	ListForUser(ctx context.Context, userID uint) ([]entities.Borrow, error)
	ListOverdue(ctx context.Context, today entities.Date) ([]entities.Borrow, error)
	ListByBorrowDate(ctx context.Context, date string) ([]entities.Borrow, error)
	Counts(ctx context.Context, today entities.Date) (total, active, overdue int64, err error)
	TopBooks(ctx context.Context, monthPrefix string, limit int) ([]entities.BookBorrowCount, error)
}

// BookChecker reports whether a book exists.
type BookChecker interface {
	Exists(ctx context.Context, id uint) (bool, error)
}

type Option func(*Service)

// WithClock replaces time.Now as the source of "today".
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithLoanPeriod sets how many days a borrow lasts before it is due.
func WithLoanPeriod(days int) Option {
	return func(s *Service) {
		if days > 0 {
			s.loanPeriodDays = days
		}
	}
}

type Service struct {
	borrows        BorrowStore
	books          BookChecker
	loanPeriodDays int
	now            func() time.Time
}

func NewService(store BorrowStore, books BookChecker, opts ...Option) *Service {
	s := &Service{
		borrows:        store,
		books:          books,
		loanPeriodDays: config.DefaultLoanPeriodDays,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Today is the current civil date according to the service clock.
func (s *Service) Today() entities.Date {
	return entities.DateOf(s.now())
}

// CreateBorrow lends the book to the user from today for the loan period.
func (s *Service) CreateBorrow(ctx context.Context, bookID, userID uint) (*entities.Borrow, error) {
	if bookID == 0 {
		return nil, apperror.Validation("book_id is required")
	}

	exists, err := s.books.Exists(ctx, bookID)
	if err != nil {
		return nil, apperror.Unexpected(err)
	}
	if !exists {
		return nil, apperror.NotFound("book not found")
	}

	active, err := s.borrows.HasActive(ctx, bookID)
	if err != nil {
		return nil, apperror.Unexpected(err)
	}
	if active {
		return nil, apperror.Conflict("book is already borrowed")
	}

	today := s.Today()
	due, err := today.AddDays(s.loanPeriodDays)
	if err != nil {
		return nil, apperror.Unexpected(err)
	}

	borrow := &entities.Borrow{
		BookID:             bookID,
		UserID:             userID,
		BorrowDate:         today,
		ExpectedReturnDate: due,
	}
	if err := s.borrows.Create(ctx, borrow); err != nil {
		switch {
		case errors.Is(err, gorm.ErrDuplicatedKey):
			return nil, apperror.Conflict("book is already borrowed")
		case errors.Is(err, borrows.ErrBookNotFound):
			return nil, apperror.NotFound("book not found")
		case errors.Is(err, borrows.ErrUserNotFound):
			return nil, apperror.Auth("account no longer exists")
		}
		return nil, apperror.Unexpected(err)
	}

	return s.get(ctx, borrow.ID)
}

// ReturnBorrow closes the borrow. Only its owner or an admin may return it,
// and returning twice is rejected.
func (s *Service) ReturnBorrow(ctx context.Context, borrowID uint, caller *auth.Principal) (*entities.Borrow, error) {
	borrow, err := s.get(ctx, borrowID)
	if err != nil {
		return nil, err
	}

	if err := auth.RequireSelfOrAdmin(caller, borrow.UserID); err != nil {
		return nil, err
	}

	if !borrow.IsActive() {
		return nil, apperror.Conflict("book has already been returned")
	}

	returned, err := s.borrows.MarkReturned(ctx, borrowID, s.Today())
	if err != nil {
		return nil, apperror.Unexpected(err)
	}
	if !returned {
		// Someone else returned it between the read and the write.
		return nil, apperror.Conflict("book has already been returned")
	}

	return s.get(ctx, borrowID)
}

// Stats summarises lending activity with the five most borrowed books.
func (s *Service) Stats(ctx context.Context) (*entities.BorrowStats, error) {
	total, active, overdue, err := s.borrows.Counts(ctx, s.Today())
	if err != nil {
		return nil, apperror.Unexpected(err)
	}

	top, err := s.borrows.TopBooks(ctx, "", statsTopBooks)
	if err != nil {
		return nil, apperror.Unexpected(err)
	}
	if top == nil {
		top = []entities.BookBorrowCount{}
	}

	return &entities.BorrowStats{
		Total:    total,
		Active:   active,
		Overdue:  overdue,
		TopBooks: top,
	}, nil
}

// TopBorrowedForMonth ranks up to ten books by borrows made in the month.
func (s *Service) TopBorrowedForMonth(ctx context.Context, yearStr, monthStr string) ([]entities.BookBorrowCount, error) {
	year, okYear := parseDigits(yearStr)
	month, okMonth := parseDigits(monthStr)
	if !okYear || !okMonth || year < 1 || year > 9999 || month < 1 || month > 12 {
		return nil, apperror.Validation("invalid year or month")
	}

	top, err := s.borrows.TopBooks(ctx, entities.MonthPrefix(year, month), monthTopBooks)
	if err != nil {
		return nil, apperror.Unexpected(err)
	}
	if top == nil {
		top = []entities.BookBorrowCount{}
	}
	return top, nil
}

// Overdue lists Active borrows past their due date, longest overdue first.
func (s *Service) Overdue(ctx context.Context) ([]entities.Borrow, error) {
	today := s.Today()
	list, err := s.borrows.ListOverdue(ctx, today)
	if err != nil {
		return nil, apperror.Unexpected(err)
	}
	return s.withOverdue(list, today), nil
}

// ByDate lists the borrows made on date. Only the YYYY-MM-DD shape is
// checked; a well-formed but impossible date simply matches nothing.
func (s *Service) ByDate(ctx context.Context, date string) ([]entities.Borrow, error) {
	if !entities.IsWellFormed(date) {
		return nil, apperror.Validation("invalid date format, expected YYYY-MM-DD")
	}
	list, err := s.borrows.ListByBorrowDate(ctx, date)
	if err != nil {
		return nil, apperror.Unexpected(err)
	}
	return s.withOverdue(list, s.Today()), nil
}

// ListAll lists every borrow, newest first.
func (s *Service) ListAll(ctx context.Context) ([]entities.Borrow, error) {
	list, err := s.borrows.ListAll(ctx)
	if err != nil {
		return nil, apperror.Unexpected(err)
	}
	return s.withOverdue(list, s.Today()), nil
}

// ListForUser lists one user's borrows, newest first.
func (s *Service) ListForUser(ctx context.Context, userID uint) ([]entities.Borrow, error) {
	list, err := s.borrows.ListForUser(ctx, userID)
	if err != nil {
		return nil, apperror.Unexpected(err)
	}
	return s.withOverdue(list, s.Today()), nil
}

func (s *Service) get(ctx context.Context, id uint) (*entities.Borrow, error) {
	borrow, err := s.borrows.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("borrow not found")
		}
		return nil, apperror.Unexpected(err)
	}
	borrow.ApplyOverdue(s.Today())
	return borrow, nil
}

func (s *Service) withOverdue(list []entities.Borrow, today entities.Date) []entities.Borrow {
	if list == nil {
		return []entities.Borrow{}
	}
	for i := range list {
		list[i].ApplyOverdue(today)
	}
	return list
}

// parseDigits accepts unsigned decimal digits only, so signs and spaces that
// strconv.Atoi tolerates are rejected.
func parseDigits(s string) (int, bool) {
	if s == "" || len(s) > 9 || strings.Trim(s, "0123456789") != "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	return n, err == nil
}
