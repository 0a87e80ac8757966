package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"shelftrack/internal/adapters/http/middleware"
	"shelftrack/internal/adapters/persistence/models"
	"shelftrack/internal/config"
	"shelftrack/internal/pkg/password"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestApp wires a full application against an isolated SQLite
// database with one seeded librarian account.
func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.db") + "?_busy_timeout=5000&_txlock=immediate"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, models.AutoMigrate(db))

	hashed, err := password.Hash("library-pass")
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.User{
		Username: "librarian",
		Email:    "librarian@example.com",
		Password: hashed,
		Role:     models.RoleLibrarian,
		IsActive: true,
	}).Error)

	cfg := &config.Config{
		AppMode: "dev",
		Port:    "3000",
		JWT: config.JWTConfig{
			Secret:           "test-access-secret",
			RefreshSecret:    "test-refresh-secret",
			AccessTokenMins:  15,
			RefreshTokenDays: 7,
		},
		Cookie: config.CookieConfig{SameSite: "lax"},
	}
	config.AppConfig = cfg

	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.CustomErrorHandler,
	})
	Setup(app, db, cfg)

	return app
}

// doJSON issues a JSON request and decodes the response body
func doJSON(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var decoded map[string]interface{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded), "body: %s", raw)
	}

	return resp.StatusCode, decoded
}

func login(t *testing.T, app *fiber.App) string {
	t.Helper()

	status, body := doJSON(t, app, "POST", "/api/v1/auth/login", "", map[string]string{
		"username": "librarian",
		"password": "library-pass",
	})
	require.Equal(t, http.StatusOK, status)

	data := body["data"].(map[string]interface{})
	token := data["access_token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestRoutesRequireAuth(t *testing.T) {
	app := newTestApp(t)

	for _, path := range []string{"/api/v1/books", "/api/v1/members", "/api/v1/borrow"} {
		status, _ := doJSON(t, app, "GET", path, "", nil)
		require.Equal(t, http.StatusUnauthorized, status, path)
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	app := newTestApp(t)

	status, _ := doJSON(t, app, "POST", "/api/v1/auth/login", "", map[string]string{
		"username": "librarian",
		"password": "wrong",
	})
	require.Equal(t, http.StatusUnauthorized, status)
}

func TestBorrowReturnFlow(t *testing.T) {
	app := newTestApp(t)
	token := login(t, app)

	// Create a book
	status, body := doJSON(t, app, "POST", "/api/v1/books", token, map[string]interface{}{
		"title":          "The Dispossessed",
		"author":         "Ursula K. Le Guin",
		"published_year": 1974,
	})
	require.Equal(t, http.StatusCreated, status)
	book := body["data"].(map[string]interface{})["book"].(map[string]interface{})
	bookID := book["id"].(float64)
	require.True(t, book["available"].(bool))

	// Create a member
	status, body = doJSON(t, app, "POST", "/api/v1/members", token, map[string]interface{}{
		"name":  "Ada Lovelace",
		"email": "ada@example.com",
	})
	require.Equal(t, http.StatusCreated, status)
	member := body["data"].(map[string]interface{})["member"].(map[string]interface{})
	memberID := member["id"].(float64)

	// Borrow it
	status, body = doJSON(t, app, "POST", "/api/v1/borrow", token, map[string]interface{}{
		"book_id":   bookID,
		"member_id": memberID,
	})
	require.Equal(t, http.StatusCreated, status)
	borrow := body["data"].(map[string]interface{})["borrow"].(map[string]interface{})
	borrowID := borrow["id"].(float64)
	require.Nil(t, borrow["returned_at"])

	// Book now shows unavailable
	status, body = doJSON(t, app, "GET", fmt.Sprintf("/api/v1/books/%.0f", bookID), token, nil)
	require.Equal(t, http.StatusOK, status)
	book = body["data"].(map[string]interface{})["book"].(map[string]interface{})
	require.False(t, book["available"].(bool))

	// Second borrow conflicts
	status, _ = doJSON(t, app, "POST", "/api/v1/borrow", token, map[string]interface{}{
		"book_id":   bookID,
		"member_id": memberID,
	})
	require.Equal(t, http.StatusConflict, status)

	// Ledger shows the record with expanded book and member
	status, body = doJSON(t, app, "GET", "/api/v1/borrow", token, nil)
	require.Equal(t, http.StatusOK, status)
	list := body["data"].(map[string]interface{})
	require.EqualValues(t, 1, list["total"].(float64))
	entry := list["data"].([]interface{})[0].(map[string]interface{})
	require.Equal(t, "The Dispossessed", entry["book"].(map[string]interface{})["title"])
	require.Equal(t, "Ada Lovelace", entry["member"].(map[string]interface{})["name"])

	// Return it
	status, body = doJSON(t, app, "PATCH", fmt.Sprintf("/api/v1/borrow/%.0f/return", borrowID), token, nil)
	require.Equal(t, http.StatusOK, status)
	borrow = body["data"].(map[string]interface{})["borrow"].(map[string]interface{})
	require.NotNil(t, borrow["returned_at"])

	// Second return conflicts
	status, _ = doJSON(t, app, "PATCH", fmt.Sprintf("/api/v1/borrow/%.0f/return", borrowID), token, nil)
	require.Equal(t, http.StatusConflict, status)

	// The book can be borrowed again
	status, _ = doJSON(t, app, "POST", "/api/v1/borrow", token, map[string]interface{}{
		"book_id":   bookID,
		"member_id": memberID,
	})
	require.Equal(t, http.StatusCreated, status)

	// Full ledger by default, open records only with returned=false
	status, body = doJSON(t, app, "GET", "/api/v1/borrow", token, nil)
	require.Equal(t, http.StatusOK, status)
	list = body["data"].(map[string]interface{})
	require.EqualValues(t, 2, list["total"].(float64))

	status, body = doJSON(t, app, "GET", "/api/v1/borrow?returned=false", token, nil)
	require.Equal(t, http.StatusOK, status)
	list = body["data"].(map[string]interface{})
	require.EqualValues(t, 1, list["total"].(float64))
}

func TestValidationErrors(t *testing.T) {
	app := newTestApp(t)
	token := login(t, app)

	// Book without a title
	status, _ := doJSON(t, app, "POST", "/api/v1/books", token, map[string]interface{}{
		"author": "Anonymous",
	})
	require.Equal(t, http.StatusBadRequest, status)

	// Member with a malformed email
	status, _ = doJSON(t, app, "POST", "/api/v1/members", token, map[string]interface{}{
		"name":  "Ada",
		"email": "not-an-email",
	})
	require.Equal(t, http.StatusBadRequest, status)

	// Borrow of an unknown book
	status, _ = doJSON(t, app, "POST", "/api/v1/borrow", token, map[string]interface{}{
		"book_id":   4242,
		"member_id": 4242,
	})
	require.Equal(t, http.StatusNotFound, status)
}

func TestBorrowListRejectsBadFilters(t *testing.T) {
	app := newTestApp(t)
	token := login(t, app)

	for _, query := range []string{"returned=banana", "member_id=abc", "book_id=-1"} {
		status, _ := doJSON(t, app, "GET", "/api/v1/borrow?"+query, token, nil)
		require.Equal(t, http.StatusBadRequest, status, query)
	}

	// Well-formed filters still work
	status, _ := doJSON(t, app, "GET", "/api/v1/borrow?returned=false&member_id=1&book_id=1", token, nil)
	require.Equal(t, http.StatusOK, status)
}

func TestInactiveMemberCannotBorrow(t *testing.T) {
	app := newTestApp(t)
	token := login(t, app)

	status, body := doJSON(t, app, "POST", "/api/v1/books", token, map[string]interface{}{
		"title":  "Kindred",
		"author": "Octavia E. Butler",
	})
	require.Equal(t, http.StatusCreated, status)
	bookID := body["data"].(map[string]interface{})["book"].(map[string]interface{})["id"].(float64)

	status, body = doJSON(t, app, "POST", "/api/v1/members", token, map[string]interface{}{
		"name":   "Dormant Member",
		"email":  "dormant@example.com",
		"active": false,
	})
	require.Equal(t, http.StatusCreated, status)
	memberID := body["data"].(map[string]interface{})["member"].(map[string]interface{})["id"].(float64)

	status, _ = doJSON(t, app, "POST", "/api/v1/borrow", token, map[string]interface{}{
		"book_id":   bookID,
		"member_id": memberID,
	})
	require.Equal(t, http.StatusConflict, status)
}
