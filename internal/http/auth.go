package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/devbook/devbook/internal/apperror"
	"github.com/devbook/devbook/internal/auth"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionResponse is returned by register and login.
type SessionResponse struct {
	Message string `json:"message"`
	auth.Session
}

// VerifyResponse reports whether the presented token is still valid.
type VerifyResponse struct {
	Valid bool        `json:"valid"`
	User  *VerifyUser `json:"user,omitempty"`
}

type VerifyUser struct {
	ID    uint   `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

type AuthController struct {
	service *auth.Service
	audit   AuditRecorder
}

func NewAuthController(service *auth.Service, audit AuditRecorder) *AuthController {
	return &AuthController{
		service: service,
		audit:   audit,
	}
}

// Register creates a student account.
// POST /api/auth/register
func (ac *AuthController) Register(c *gin.Context) {
	var req registerRequest
	if !bindJSON(c, &req) {
		return
	}

	session, err := ac.service.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		if !apperror.Is(err, apperror.KindUnexpected) {
			ac.audit.LogAuth(0, "register", req.Email, c.ClientIP(), false)
		}
		respondError(c, err)
		return
	}

	ac.audit.LogAuth(session.User.ID, "register", session.User.Email, c.ClientIP(), true)
	c.JSON(http.StatusCreated, SessionResponse{Message: "user created successfully", Session: *session})
}

// Login exchanges credentials for a token.
// POST /api/auth/login
func (ac *AuthController) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}

	session, err := ac.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if apperror.Is(err, apperror.KindAuth) {
			ac.audit.LogAuth(0, "login_failed", req.Email, c.ClientIP(), false)
		}
		respondError(c, err)
		return
	}

	ac.audit.LogAuth(session.User.ID, "login", session.User.Email, c.ClientIP(), true)
	c.JSON(http.StatusOK, SessionResponse{Message: "login successful", Session: *session})
}

// Verify checks the bearer token. It always answers 200.
// GET /api/auth/verify
func (ac *AuthController) Verify(c *gin.Context) {
	claims, ok := ac.service.Verify(auth.BearerToken(c))
	if !ok {
		c.JSON(http.StatusOK, VerifyResponse{Valid: false})
		return
	}

	c.JSON(http.StatusOK, VerifyResponse{
		Valid: true,
		User: &VerifyUser{
			ID:    claims.ID,
			Email: claims.Email,
			Name:  claims.Name,
			Role:  claims.Role,
		},
	})
}
