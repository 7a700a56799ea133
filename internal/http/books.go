package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/devbook/devbook/internal/auth"
	"github.com/devbook/devbook/internal/catalog"
	"github.com/devbook/devbook/internal/entities"
)

type BooksController struct {
	catalog *catalog.Service
	audit   AuditRecorder
}

func NewBooksController(catalog *catalog.Service, audit AuditRecorder) *BooksController {
	return &BooksController{
		catalog: catalog,
		audit:   audit,
	}
}

func (controller *BooksController) List(c *gin.Context) {
	books, err := controller.catalog.ListBooks(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, books)
}

func (controller *BooksController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := controller.catalog.GetBook(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, book)
}

// Search matches the q query parameter against title, author and description.
func (controller *BooksController) Search(c *gin.Context) {
	books, err := controller.catalog.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, books)
}

func (controller *BooksController) ByStatus(c *gin.Context) {
	books, err := controller.catalog.FilterByStatus(c.Request.Context(), c.Param("status"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, books)
}

func (controller *BooksController) Create(c *gin.Context) {
	var input entities.BookInput
	if !bindJSON(c, &input) {
		return
	}

	book, err := controller.catalog.CreateBook(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, book)
}

func (controller *BooksController) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var input entities.BookInput
	if !bindJSON(c, &input) {
		return
	}

	book, err := controller.catalog.UpdateBook(c.Request.Context(), id, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, book)
}

func (controller *BooksController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := controller.catalog.DeleteBook(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	controller.audit.LogDelete(auth.GetUserID(c), entities.AuditEventCatalog, "book", id)
	respondDeleted(c, "book deleted successfully", id)
}
