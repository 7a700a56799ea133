package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/devbook/devbook/internal/auth"
	"github.com/devbook/devbook/internal/catalog"
	"github.com/devbook/devbook/internal/entities"
)

type CategoriesController struct {
	catalog *catalog.Service
	audit   AuditRecorder
}

func NewCategoriesController(catalog *catalog.Service, audit AuditRecorder) *CategoriesController {
	return &CategoriesController{
		catalog: catalog,
		audit:   audit,
	}
}

func (cc *CategoriesController) List(c *gin.Context) {
	categories, err := cc.catalog.ListCategories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

// Get returns the category with its books.
func (cc *CategoriesController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	category, err := cc.catalog.GetCategory(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

func (cc *CategoriesController) BookCounts(c *gin.Context) {
	counts, err := cc.catalog.CategoryBookCounts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, counts)
}

func (cc *CategoriesController) Create(c *gin.Context) {
	var input entities.CategoryInput
	if !bindJSON(c, &input) {
		return
	}

	category, err := cc.catalog.CreateCategory(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

func (cc *CategoriesController) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var input entities.CategoryInput
	if !bindJSON(c, &input) {
		return
	}

	category, err := cc.catalog.UpdateCategory(c.Request.Context(), id, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

// Delete removes the category. Its books are kept without a category.
func (cc *CategoriesController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := cc.catalog.DeleteCategory(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	cc.audit.LogDelete(auth.GetUserID(c), entities.AuditEventCatalog, "category", id)
	respondDeleted(c, "category deleted successfully", id)
}
