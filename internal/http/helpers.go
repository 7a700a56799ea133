package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/devbook/devbook/internal/apperror"
	"github.com/devbook/devbook/internal/logging"
)

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Message string `json:"message"`
}

// DeletedResponse confirms a deletion.
type DeletedResponse struct {
	Message string `json:"message"`
	ID      uint   `json:"id"`
}

// respondError maps err onto a status and a client-facing message.
// Unexpected errors are logged with the request fields and reported as a
// generic "server error".
func respondError(c *gin.Context, err error) {
	var appErr *apperror.Error
	if !errors.As(err, &appErr) {
		appErr = apperror.Unexpected(err)
	}

	if appErr.Kind == apperror.KindUnexpected {
		logging.FromContext(c).WithFields(logrus.Fields{
			"error": appErr.Err,
		}).Error("request failed")
	}

	c.JSON(appErr.Kind.HTTPStatus(), ErrorResponse{Message: appErr.Message})
}

// respondBadRequest sends a 400 Bad Request response.
func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Message: message})
}

func respondDeleted(c *gin.Context, message string, id uint) {
	c.JSON(http.StatusOK, DeletedResponse{Message: message, ID: id})
}

// parseIDParam extracts and validates an unsigned integer ID from URL parameters.
// Returns the parsed ID or responds with a 400 error and returns 0, false.
func parseIDParam(c *gin.Context, paramName string) (uint, bool) {
	idStr := c.Param(paramName)
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil || id == 0 {
		respondBadRequest(c, "invalid "+paramName)
		return 0, false
	}
	return uint(id), true
}

// bindJSON decodes the request body into dst or responds with a 400.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondBadRequest(c, "invalid request body")
		return false
	}
	return true
}
