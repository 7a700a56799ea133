// Package directory manages user accounts after registration: listing,
// viewing, partial updates and removal.
package directory

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/devbook/devbook/internal/apperror"
	"github.com/devbook/devbook/internal/auth"
	"github.com/devbook/devbook/internal/database/users"
	"github.com/devbook/devbook/internal/entities"
)

// UserStore is the user persistence the directory needs.
type UserStore interface {
	GetByID(ctx context.Context, id uint) (*entities.User, error)
	List(ctx context.Context) ([]entities.User, error)
	EmailTaken(ctx context.Context, email string, excludeID uint) (bool, error)
	RoleExists(ctx context.Context, id uint) (bool, error)
	Apply(ctx context.Context, id uint, changes users.Changes) error
	DeleteWithHistory(ctx context.Context, id uint) error
}

// BorrowLister lists a user's borrows.
type BorrowLister interface {
	ListForUser(ctx context.Context, userID uint) ([]entities.Borrow, error)
}

type Service struct {
	users      UserStore
	borrows    BorrowLister
	bcryptCost int
}

func NewService(users UserStore, borrows BorrowLister, bcryptCost int) *Service {
	return &Service{
		users:      users,
		borrows:    borrows,
		bcryptCost: bcryptCost,
	}
}

// List returns every user ordered by name. Admin only.
func (s *Service) List(ctx context.Context, caller *auth.Principal) ([]entities.PublicUser, error) {
	if err := auth.RequireAdmin(caller); err != nil {
		return nil, err
	}

	list, err := s.users.List(ctx)
	if err != nil {
		return nil, apperror.Unexpected(err)
	}

	out := make([]entities.PublicUser, 0, len(list))
	for i := range list {
		out = append(out, list[i].Public())
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id uint, caller *auth.Principal) (*entities.PublicUser, error) {
	if err := auth.RequireSelfOrAdmin(caller, id); err != nil {
		return nil, err
	}

	user, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	public := user.Public()
	return &public, nil
}

// Update applies the present fields of update. Role changes are only
// honoured for admins and silently dropped for everyone else.
func (s *Service) Update(ctx context.Context, id uint, update entities.UserUpdate, caller *auth.Principal) (*entities.PublicUser, error) {
	if err := auth.RequireSelfOrAdmin(caller, id); err != nil {
		return nil, err
	}
	if !caller.IsAdmin() {
		update.RoleID = nil
	}
	if update.IsEmpty() {
		return nil, apperror.Validation("no data to update")
	}

	if _, err := s.get(ctx, id); err != nil {
		return nil, err
	}

	changes, err := s.changesFor(ctx, id, update)
	if err != nil {
		return nil, err
	}

	if err := s.users.Apply(ctx, id, changes); err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, apperror.NotFound("user not found")
		case errors.Is(err, gorm.ErrDuplicatedKey):
			return nil, apperror.Conflict("email is already in use")
		}
		return nil, apperror.Unexpected(err)
	}

	return s.Get(ctx, id, caller)
}

func (s *Service) changesFor(ctx context.Context, id uint, update entities.UserUpdate) (users.Changes, error) {
	var changes users.Changes

	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return changes, apperror.Validation("name cannot be empty")
		}
		changes.Name = &name
	}

	if update.Email != nil {
		email := strings.TrimSpace(*update.Email)
		if email == "" {
			return changes, apperror.Validation("email cannot be empty")
		}
		taken, err := s.users.EmailTaken(ctx, email, id)
		if err != nil {
			return changes, apperror.Unexpected(err)
		}
		if taken {
			return changes, apperror.Conflict("email is already in use")
		}
		changes.Email = &email
	}

	if update.Password != nil {
		if strings.TrimSpace(*update.Password) == "" {
			return changes, apperror.Validation("password cannot be empty")
		}
		if len(*update.Password) > auth.MaxPasswordBytes {
			return changes, apperror.Validation("password must be at most %d bytes", auth.MaxPasswordBytes)
		}
		hash, err := auth.HashPassword(*update.Password, s.bcryptCost)
		if err != nil {
			return changes, apperror.Unexpected(err)
		}
		changes.PasswordHash = &hash
	}

	if update.RoleID != nil {
		ok, err := s.users.RoleExists(ctx, *update.RoleID)
		if err != nil {
			return changes, apperror.Unexpected(err)
		}
		if !ok {
			return changes, apperror.Validation("invalid role")
		}
		changes.RoleID = update.RoleID
	}

	return changes, nil
}

// Delete removes a user together with their returned borrows. Admins cannot
// delete themselves, and users with books on loan cannot be deleted.
func (s *Service) Delete(ctx context.Context, id uint, caller *auth.Principal) error {
	if err := auth.RequireAdmin(caller); err != nil {
		return err
	}
	if caller.ID == id {
		return apperror.Validation("you cannot delete your own account")
	}

	if err := s.users.DeleteWithHistory(ctx, id); err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return apperror.NotFound("user not found")
		case errors.Is(err, users.ErrActiveBorrows):
			return apperror.Conflict("user still has borrowed books")
		}
		return apperror.Unexpected(err)
	}
	return nil
}

// Borrows lists the borrows of one user, newest first.
func (s *Service) Borrows(ctx context.Context, id uint, caller *auth.Principal) ([]entities.Borrow, error) {
	if err := auth.RequireSelfOrAdmin(caller, id); err != nil {
		return nil, err
	}
	if _, err := s.get(ctx, id); err != nil {
		return nil, err
	}
	return s.borrows.ListForUser(ctx, id)
}

func (s *Service) get(ctx context.Context, id uint) (*entities.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("user not found")
		}
		return nil, apperror.Unexpected(err)
	}
	return user, nil
}
