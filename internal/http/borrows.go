package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/devbook/devbook/internal/auth"
	"github.com/devbook/devbook/internal/lending"
)

type createBorrowRequest struct {
	BookID uint `json:"book_id"`
}

type BorrowsController struct {
	lending *lending.Service
	audit   AuditRecorder
}

func NewBorrowsController(lending *lending.Service, audit AuditRecorder) *BorrowsController {
	return &BorrowsController{
		lending: lending,
		audit:   audit,
	}
}

// List returns every borrow.
// GET /api/borrows
func (bc *BorrowsController) List(c *gin.Context) {
	borrows, err := bc.lending.ListAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, borrows)
}

// Mine returns the caller's borrows.
// GET /api/borrows/my
func (bc *BorrowsController) Mine(c *gin.Context) {
	borrows, err := bc.lending.ListForUser(c.Request.Context(), auth.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, borrows)
}

// Create lends a book to the caller.
// POST /api/borrows
func (bc *BorrowsController) Create(c *gin.Context) {
	var req createBorrowRequest
	if !bindJSON(c, &req) {
		return
	}

	userID := auth.GetUserID(c)
	borrow, err := bc.lending.CreateBorrow(c.Request.Context(), req.BookID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	bc.audit.LogLending(userID, "borrow_create", borrow.ID, borrow.BookID)
	c.JSON(http.StatusCreated, borrow)
}

// Return closes a borrow.
// PUT /api/borrows/:id/return
func (bc *BorrowsController) Return(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	principal := auth.GetPrincipal(c)
	borrow, err := bc.lending.ReturnBorrow(c.Request.Context(), id, principal)
	if err != nil {
		respondError(c, err)
		return
	}

	bc.audit.LogLending(principal.ID, "borrow_return", borrow.ID, borrow.BookID)
	c.JSON(http.StatusOK, borrow)
}

// Overdue lists the loans past their due date.
// GET /api/borrows/overdue
func (bc *BorrowsController) Overdue(c *gin.Context) {
	borrows, err := bc.lending.Overdue(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, borrows)
}

// Stats summarises lending activity.
// GET /api/borrows/stats
func (bc *BorrowsController) Stats(c *gin.Context) {
	stats, err := bc.lending.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ByDate lists the borrows made on one day.
// GET /api/borrows/date/:date
func (bc *BorrowsController) ByDate(c *gin.Context) {
	borrows, err := bc.lending.ByDate(c.Request.Context(), c.Param("date"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, borrows)
}

// TopForMonth ranks the most borrowed books of a month.
// GET /api/borrows/top/:year/:month
func (bc *BorrowsController) TopForMonth(c *gin.Context) {
	top, err := bc.lending.TopBorrowedForMonth(c.Request.Context(), c.Param("year"), c.Param("month"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, top)
}
