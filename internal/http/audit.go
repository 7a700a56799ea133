package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/devbook/devbook/internal/apperror"
	"github.com/devbook/devbook/internal/audit"
	"github.com/devbook/devbook/internal/entities"
)

type AuditController struct {
	auditService *audit.Service
}

func NewAuditController(auditService *audit.Service) *AuditController {
	return &AuditController{
		auditService: auditService,
	}
}

// List returns the most recent audit events.
// GET /api/audit?type=lending&limit=50
func (ac *AuditController) List(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondBadRequest(c, "invalid limit")
			return
		}
		limit = n
	}

	events, err := ac.auditService.ListRecent(c.Request.Context(), entities.AuditEventType(c.Query("type")), limit)
	if err != nil {
		respondError(c, apperror.Unexpected(err))
		return
	}
	c.JSON(http.StatusOK, events)
}
