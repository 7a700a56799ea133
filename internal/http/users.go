package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/devbook/devbook/internal/auth"
	"github.com/devbook/devbook/internal/directory"
	"github.com/devbook/devbook/internal/entities"
)

type UsersController struct {
	directory *directory.Service
	audit     AuditRecorder
}

func NewUsersController(directory *directory.Service, audit AuditRecorder) *UsersController {
	return &UsersController{
		directory: directory,
		audit:     audit,
	}
}

func (uc *UsersController) List(c *gin.Context) {
	users, err := uc.directory.List(c.Request.Context(), auth.GetPrincipal(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (uc *UsersController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	user, err := uc.directory.Get(c.Request.Context(), id, auth.GetPrincipal(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// Update applies a partial update. Only fields present in the body change.
func (uc *UsersController) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var update entities.UserUpdate
	if !bindJSON(c, &update) {
		return
	}

	user, err := uc.directory.Update(c.Request.Context(), id, update, auth.GetPrincipal(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (uc *UsersController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	principal := auth.GetPrincipal(c)
	if err := uc.directory.Delete(c.Request.Context(), id, principal); err != nil {
		respondError(c, err)
		return
	}

	uc.audit.LogDelete(principal.ID, entities.AuditEventDirectory, "user", id)
	respondDeleted(c, "user deleted successfully", id)
}

func (uc *UsersController) Borrows(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	borrows, err := uc.directory.Borrows(c.Request.Context(), id, auth.GetPrincipal(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, borrows)
}
