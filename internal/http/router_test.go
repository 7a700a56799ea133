package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devbook/devbook/internal/audit"
	"github.com/devbook/devbook/internal/auth"
	"github.com/devbook/devbook/internal/catalog"
	"github.com/devbook/devbook/internal/config"
	"github.com/devbook/devbook/internal/database"
	auditRepo "github.com/devbook/devbook/internal/database/audit"
	"github.com/devbook/devbook/internal/database/books"
	"github.com/devbook/devbook/internal/database/borrows"
	"github.com/devbook/devbook/internal/database/categories"
	"github.com/devbook/devbook/internal/database/users"
	"github.com/devbook/devbook/internal/directory"
	"github.com/devbook/devbook/internal/entities"
	"github.com/devbook/devbook/internal/lending"
)

type testServer struct {
	t          *testing.T
	router     *gin.Engine
	db         *database.Database
	audit      *audit.Service
	adminToken string
}

func newTestServer(t *testing.T, staticPath string) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.NewDatabase(config.Database{
		Driver: config.DatabaseDriverSQLite,
		Path:   filepath.Join(t.TempDir(), "http.db"),
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	authCfg := config.Auth{JWTSecret: "test-secret", TokenTTL: time.Hour, BcryptCost: 4}
	userRepo := users.NewRepository(db.DB)
	bookRepo := books.NewRepository(db.DB)
	authService := auth.NewService(userRepo, auth.NewTokenIssuer(authCfg.JWTSecret, authCfg.TokenTTL), authCfg)
	lendingService := lending.NewService(borrows.NewRepository(db.DB), bookRepo)
	auditService := audit.NewService(auditRepo.NewRepository(db.DB), nil)
	t.Cleanup(auditService.Wait)

	_, err = authService.CreateAdmin(context.Background(), "Root", "root@example.com", "rootpass")
	require.NoError(t, err)

	s := &testServer{
		t:  t,
		db: db,
		router: NewRouter(RouterConfig{
			Database:   db,
			Auth:       authService,
			Catalog:    catalog.NewService(bookRepo, categories.NewRepository(db.DB)),
			Lending:    lendingService,
			Directory:  directory.NewService(userRepo, lendingService, authCfg.BcryptCost),
			Audit:      auditService,
			StaticPath: staticPath,
			Version:    "test",
		}),
		audit: auditService,
	}
	s.adminToken = s.login("root@example.com", "rootpass")
	return s
}

func (s *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) login(email, password string) string {
	s.t.Helper()
	w := s.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": email, "password": password})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	var resp SessionResponse
	require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Token
}

// register creates a student and returns its token and id.
func (s *testServer) register(name, email string) (string, uint) {
	s.t.Helper()
	w := s.do(http.MethodPost, "/api/auth/register", "", gin.H{"name": name, "email": email, "password": "secret1"})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	var resp SessionResponse
	require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Token, resp.User.ID
}

func (s *testServer) createBook(title string) uint {
	s.t.Helper()
	w := s.do(http.MethodPost, "/api/books", s.adminToken, gin.H{"title": title, "author": "Someone"})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	var book entities.Book
	require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &book))
	return book.ID
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestAuth_RegisterLoginVerify(t *testing.T) {
	s := newTestServer(t, "")

	w := s.do(http.MethodPost, "/api/auth/register", "", gin.H{"name": "Ada", "email": "ada@example.com", "password": "secret1"})
	require.Equal(t, http.StatusCreated, w.Code)
	registered := decode[SessionResponse](t, w)
	assert.NotEmpty(t, registered.Token)
	assert.Equal(t, "student", registered.User.Role)
	assert.NotContains(t, w.Body.String(), "password")

	token := s.login("ada@example.com", "secret1")

	w = s.do(http.MethodGet, "/api/auth/verify", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	verify := decode[VerifyResponse](t, w)
	assert.True(t, verify.Valid)
	require.NotNil(t, verify.User)
	assert.Equal(t, "ada@example.com", verify.User.Email)
	assert.Equal(t, "student", verify.User.Role)
}

func TestAuth_VerifyInvalidTokenIsStillOK(t *testing.T) {
	s := newTestServer(t, "")

	for _, token := range []string{"", "garbage", "a.b.c"} {
		w := s.do(http.MethodGet, "/api/auth/verify", token, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"valid":false}`, w.Body.String())
	}
}

func TestAuth_Errors(t *testing.T) {
	s := newTestServer(t, "")
	s.register("Ada", "ada@example.com")

	w := s.do(http.MethodPost, "/api/auth/register", "", gin.H{"name": "Ada", "email": "ada@example.com", "password": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"message":"email is already in use"}`, w.Body.String())

	w = s.do(http.MethodPost, "/api/auth/register", "", gin.H{"name": "", "email": "b@example.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "ada@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"message":"invalid credentials"}`, w.Body.String())

	w = s.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "ada@example.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGuards(t *testing.T) {
	s := newTestServer(t, "")
	student, _ := s.register("Ada", "ada@example.com")

	w := s.do(http.MethodPost, "/api/borrows", "", gin.H{"book_id": 1})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodPost, "/api/borrows", "not-a-token", gin.H{"book_id": 1})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"message":"invalid token"}`, w.Body.String())

	w = s.do(http.MethodPost, "/api/books", student, gin.H{"title": "T", "author": "A"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodGet, "/api/borrows/stats", student, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodGet, "/api/books", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBooks_CRUD(t *testing.T) {
	s := newTestServer(t, "")

	w := s.do(http.MethodPost, "/api/books", s.adminToken, gin.H{"title": "", "author": "A"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	id := s.createBook("The Go Programming Language")

	w = s.do(http.MethodGet, fmt.Sprintf("/api/books/%d", id), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	book := decode[entities.Book](t, w)
	assert.Equal(t, entities.BookStatusToRead, book.Status)

	w = s.do(http.MethodPut, fmt.Sprintf("/api/books/%d", id), s.adminToken, gin.H{
		"title": "The Go Programming Language", "author": "Donovan", "status": "read", "rating": 5,
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5, decode[entities.Book](t, w).Rating)

	w = s.do(http.MethodGet, "/api/books/search?q=go", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]entities.Book](t, w), 1)

	w = s.do(http.MethodGet, "/api/books/search", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/books/status/read", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]entities.Book](t, w), 1)

	w = s.do(http.MethodGet, "/api/books/abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodDelete, fmt.Sprintf("/api/books/%d", id), s.adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, id, decode[DeletedResponse](t, w).ID)

	w = s.do(http.MethodGet, fmt.Sprintf("/api/books/%d", id), "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"message":"book not found"}`, w.Body.String())
}

func TestCategories_DeleteKeepsBooks(t *testing.T) {
	s := newTestServer(t, "")

	w := s.do(http.MethodPost, "/api/categories", s.adminToken, gin.H{"name": "Systems"})
	require.Equal(t, http.StatusCreated, w.Code)
	category := decode[entities.Category](t, w)

	w = s.do(http.MethodPost, "/api/books", s.adminToken, gin.H{"title": "OSTEP", "author": "Arpaci", "category_id": category.ID})
	require.Equal(t, http.StatusCreated, w.Code)
	book := decode[entities.Book](t, w)

	w = s.do(http.MethodGet, fmt.Sprintf("/api/categories/%d", category.ID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[entities.CategoryWithBooks](t, w).Books, 1)

	w = s.do(http.MethodGet, "/api/categories/stats/book-count", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	counts := decode[[]entities.CategoryBookCount](t, w)
	require.Len(t, counts, 1)
	assert.Equal(t, int64(1), counts[0].BookCount)

	w = s.do(http.MethodDelete, fmt.Sprintf("/api/categories/%d", category.ID), s.adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, fmt.Sprintf("/api/books/%d", book.ID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, decode[entities.Book](t, w).CategoryID)
}

func TestBorrows_Lifecycle(t *testing.T) {
	s := newTestServer(t, "")
	owner, _ := s.register("Ada", "ada@example.com")
	other, _ := s.register("Bob", "bob@example.com")
	bookID := s.createBook("Dune")

	w := s.do(http.MethodPost, "/api/borrows", owner, gin.H{"book_id": bookID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	borrow := decode[entities.Borrow](t, w)
	assert.Equal(t, "Dune", borrow.BookTitle)

	w = s.do(http.MethodPost, "/api/borrows", other, gin.H{"book_id": bookID})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"message":"book is already borrowed"}`, w.Body.String())

	w = s.do(http.MethodPost, "/api/borrows", owner, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/borrows", owner, gin.H{"book_id": 9999})
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Deleting a borrowed book is refused.
	w = s.do(http.MethodDelete, fmt.Sprintf("/api/books/%d", bookID), s.adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/borrows/my", owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]entities.Borrow](t, w), 1)

	w = s.do(http.MethodGet, "/api/borrows/my", other, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	returnPath := fmt.Sprintf("/api/borrows/%d/return", borrow.ID)
	w = s.do(http.MethodPut, returnPath, other, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodPut, returnPath, owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotNil(t, decode[entities.Borrow](t, w).ReturnDate)

	w = s.do(http.MethodPut, returnPath, owner, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"message":"book has already been returned"}`, w.Body.String())

	w = s.do(http.MethodPut, "/api/borrows/x/return", owner, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/borrows", s.adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]entities.Borrow](t, w), 1)
}

func TestBorrows_AdminReports(t *testing.T) {
	s := newTestServer(t, "")
	_, userID := s.register("Ada", "ada@example.com")
	bookID := s.createBook("Dune")

	// A loan that fell due yesterday.
	borrowed := time.Now().AddDate(0, 0, -15)
	due := time.Now().AddDate(0, 0, -1)
	require.NoError(t, borrows.NewRepository(s.db.DB).Create(context.Background(), &entities.Borrow{
		BookID:             bookID,
		UserID:             userID,
		BorrowDate:         entities.DateOf(borrowed),
		ExpectedReturnDate: entities.DateOf(due),
	}))

	w := s.do(http.MethodGet, "/api/borrows/overdue", s.adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	overdue := decode[[]entities.Borrow](t, w)
	require.Len(t, overdue, 1)
	assert.Equal(t, 1, overdue[0].DaysOverdue)

	w = s.do(http.MethodGet, "/api/borrows/stats", s.adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode[entities.BorrowStats](t, w)
	assert.Equal(t, int64(1), stats.Overdue)
	assert.Contains(t, w.Body.String(), `"topBooks"`)

	w = s.do(http.MethodGet, "/api/borrows/date/"+entities.DateOf(borrowed).String(), s.adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]entities.Borrow](t, w), 1)

	w = s.do(http.MethodGet, "/api/borrows/date/2024-13-40", s.adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = s.do(http.MethodGet, "/api/borrows/date/2024-1-05", s.adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, fmt.Sprintf("/api/borrows/top/%d/%d", borrowed.Year(), int(borrowed.Month())), s.adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]entities.BookBorrowCount](t, w), 1)

	w = s.do(http.MethodGet, "/api/borrows/top/2024/13", s.adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUsers(t *testing.T) {
	s := newTestServer(t, "")
	ada, adaID := s.register("Ada", "ada@example.com")
	bob, bobID := s.register("Bob", "bob@example.com")

	w := s.do(http.MethodGet, "/api/users", s.adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]entities.PublicUser](t, w), 3)
	assert.NotContains(t, w.Body.String(), "password")

	w = s.do(http.MethodGet, fmt.Sprintf("/api/users/%d", adaID), ada, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, fmt.Sprintf("/api/users/%d", adaID), bob, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodPut, fmt.Sprintf("/api/users/%d", adaID), ada, gin.H{"name": "Ada L.", "role_id": entities.RoleAdminID})
	require.Equal(t, http.StatusOK, w.Code)
	updated := decode[entities.PublicUser](t, w)
	assert.Equal(t, "Ada L.", updated.Name)
	assert.Equal(t, "student", updated.Role)

	w = s.do(http.MethodPut, fmt.Sprintf("/api/users/%d", adaID), ada, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"message":"no data to update"}`, w.Body.String())

	w = s.do(http.MethodPut, fmt.Sprintf("/api/users/%d", adaID), ada, gin.H{"email": "bob@example.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, fmt.Sprintf("/api/users/%d/borrows", adaID), ada, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = s.do(http.MethodDelete, fmt.Sprintf("/api/users/%d", bobID), bob, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodDelete, fmt.Sprintf("/api/users/%d", bobID), s.adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, bobID, decode[DeletedResponse](t, w).ID)

	w = s.do(http.MethodGet, fmt.Sprintf("/api/users/%d", bobID), s.adminToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAudit_RecordsEvents(t *testing.T) {
	s := newTestServer(t, "")
	s.register("Ada", "ada@example.com")
	s.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "ada@example.com", "password": "nope"})
	s.audit.Wait()

	w := s.do(http.MethodGet, "/api/audit?type=auth", s.adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	events := decode[[]entities.AuditEvent](t, w)

	actions := make([]string, 0, len(events))
	for _, e := range events {
		actions = append(actions, e.Action)
	}
	assert.Contains(t, actions, "register")
	assert.Contains(t, actions, "login")
	assert.Contains(t, actions, "login_failed")

	w = s.do(http.MethodGet, "/api/audit?limit=zero", s.adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthAndPing(t *testing.T) {
	s := newTestServer(t, "")

	w := s.do(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	health := decode[HealthResponse](t, w)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "ok", health.Checks["database"])
	assert.Equal(t, "test", health.Version)

	w = s.do(http.MethodGet, "/ping", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"pong"}`, w.Body.String())
}

func TestNotFoundAndStatic(t *testing.T) {
	staticDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(staticDir, "index.html"), []byte("<html>devbook</html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(staticDir, "app.js"), []byte("console.log(1)"), 0o644))
	s := newTestServer(t, staticDir)

	w := s.do(http.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"message":"route not found"}`, w.Body.String())

	w = s.do(http.MethodGet, "/app.js", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "console.log")

	w = s.do(http.MethodGet, "/books/42", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "devbook")

	w = s.do(http.MethodGet, "/../../etc/passwd", "", nil)
	assert.NotContains(t, w.Body.String(), "root:")
}

func TestNotFound_WithoutFrontend(t *testing.T) {
	s := newTestServer(t, filepath.Join(t.TempDir(), "missing"))

	w := s.do(http.MethodGet, "/anything", "", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"message":"route not found"}`, w.Body.String())
}
