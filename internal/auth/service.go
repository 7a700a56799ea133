package auth

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/devbook/devbook/internal/apperror"
	"github.com/devbook/devbook/internal/config"
	"github.com/devbook/devbook/internal/entities"
)

// UserStore is the user persistence the credential service needs.
type UserStore interface {
	Create(ctx context.Context, user *entities.User) error
	GetByEmail(ctx context.Context, email string) (*entities.User, error)
}

// Session is the result of a successful register or login.
type Session struct {
	Token string              `json:"token"`
	User  entities.PublicUser `json:"user"`
}

// Service handles registration, login and token verification.
type Service struct {
	users  UserStore
	tokens *TokenIssuer
	config config.Auth
}

// NewService creates a new credential service.
func NewService(users UserStore, tokens *TokenIssuer, cfg config.Auth) *Service {
	return &Service{
		users:  users,
		tokens: tokens,
		config: cfg,
	}
}

// Register creates a student account and returns a session for it.
func (s *Service) Register(ctx context.Context, name, email, password string) (*Session, error) {
	user, err := s.createUser(ctx, name, email, password, entities.RoleStudentID)
	if err != nil {
		return nil, err
	}
	return s.issue(user)
}

// CreateAdmin creates an administrator account. Registration only ever
// creates students, so this is the bootstrap path for the first admin.
func (s *Service) CreateAdmin(ctx context.Context, name, email, password string) (*entities.User, error) {
	return s.createUser(ctx, name, email, password, entities.RoleAdminID)
}

func (s *Service) createUser(ctx context.Context, name, email, password string, roleID uint) (*entities.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" || strings.TrimSpace(password) == "" {
		return nil, apperror.Validation("name, email and password are required")
	}
	if len(password) > MaxPasswordBytes {
		return nil, apperror.Validation("password must be at most %d bytes", MaxPasswordBytes)
	}

	_, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return nil, apperror.Conflict("email is already in use")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.Unexpected(err)
	}

	hash, err := HashPassword(password, s.config.BcryptCost)
	if err != nil {
		return nil, apperror.Unexpected(err)
	}

	user := &entities.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		RoleID:       roleID,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.Conflict("email is already in use")
		}
		return nil, apperror.Unexpected(err)
	}
	return user, nil
}

// Login checks the credentials and returns a session carrying the stored
// role. Unknown email and wrong password fail identically.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, apperror.Validation("email and password are required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.Auth("invalid credentials")
		}
		return nil, apperror.Unexpected(err)
	}

	if err := CheckPassword(password, user.PasswordHash); err != nil {
		if errors.Is(err, ErrInvalidPassword) {
			return nil, apperror.Auth("invalid credentials")
		}
		return nil, apperror.Unexpected(err)
	}

	return s.issue(user)
}

// Verify decodes a token. It never fails; an invalid token yields
// (nil, false).
func (s *Service) Verify(token string) (*Claims, bool) {
	if token == "" {
		return nil, false
	}
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, false
	}
	return claims, true
}

func (s *Service) issue(user *entities.User) (*Session, error) {
	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, apperror.Unexpected(err)
	}
	return &Session{Token: token, User: user.Public()}, nil
}
