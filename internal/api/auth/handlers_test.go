package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/lib/pq"

	"github.com/descubre-boyaca/descubre-backend/internal/auth"
	"github.com/descubre-boyaca/descubre-backend/internal/db/repositories"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var userCols = []string{"id", "email", "name", "password_hash", "oauth_sub", "role", "created_at", "updated_at"}

func newHandlers(t *testing.T) (*Handlers, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	tokens, err := auth.NewTokenService("test-secret-at-least-32-characters!!", time.Hour, 720*time.Hour, false)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return NewHandlers(repositories.NewUserRepository(db), tokens, nil), mock
}

func newRouter(h *Handlers) *gin.Engine {
	router := gin.New()
	router.POST("/api/v1/auth/register", h.RegisterHandler())
	router.POST("/api/v1/auth/login", h.LoginHandler())
	router.POST("/api/v1/auth/refresh", h.RefreshHandler())
	router.GET("/api/v1/auth/google", h.GoogleRedirectHandler())
	return router
}

func postJSON(router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	buf, _ := json.Marshal(body)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(buf))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestRegister_CreatesUserAndReturnsTokens(t *testing.T) {
	h, mock := newHandlers(t)
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO users`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := postJSON(newRouter(h), "/api/v1/auth/register", gin.H{
		"email":    "ana@example.com",
		"password": "correcthorse",
		"name":     "Ana",
	})

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var body struct {
		User struct {
			ID   string `json:"id"`
			Role string `json:"role"`
		} `json:"user"`
		Tokens struct {
			AccessToken  string `json:"access_token"`
			RefreshToken string `json:"refresh_token"`
		} `json:"tokens"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.User.ID == "" || body.User.Role != "user" {
		t.Errorf("user = %+v", body.User)
	}
	if body.Tokens.AccessToken == "" || body.Tokens.RefreshToken == "" {
		t.Error("expected a token pair")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	h, mock := newHandlers(t)
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO users`)).
		WillReturnError(&pq.Error{Code: "23505"})

	w := postJSON(newRouter(h), "/api/v1/auth/register", gin.H{
		"email":    "ana@example.com",
		"password": "correcthorse",
		"name":     "Ana",
	})

	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}
}

func TestRegister_ShortPassword(t *testing.T) {
	h, _ := newHandlers(t)
	w := postJSON(newRouter(h), "/api/v1/auth/register", gin.H{
		"email":    "ana@example.com",
		"password": "short",
		"name":     "Ana",
	})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", w.Code)
	}
}

func TestLogin_Success(t *testing.T) {
	h, mock := newHandlers(t)
	hash, err := auth.HashPassword("correcthorse")
	if err != nil {
		t.Fatal(err)
	}
	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE email =`)).
		WithArgs("ana@example.com").
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow("01HUSER0000000000000000000", "ana@example.com", "Ana", hash, nil, "user", now, now))

	w := postJSON(newRouter(h), "/api/v1/auth/login", gin.H{
		"email":    "ana@example.com",
		"password": "correcthorse",
	})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	h, mock := newHandlers(t)
	hash, _ := auth.HashPassword("correcthorse")
	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE email =`)).
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow("01HUSER0000000000000000000", "ana@example.com", "Ana", hash, nil, "user", now, now))

	w := postJSON(newRouter(h), "/api/v1/auth/login", gin.H{
		"email":    "ana@example.com",
		"password": "wrong",
	})

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestLogin_UnknownEmailSameAnswer(t *testing.T) {
	h, mock := newHandlers(t)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE email =`)).
		WillReturnRows(sqlmock.NewRows(userCols))

	w := postJSON(newRouter(h), "/api/v1/auth/login", gin.H{
		"email":    "nobody@example.com",
		"password": "whatever1",
	})

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestLogin_OAuthOnlyAccountRejectsPassword(t *testing.T) {
	h, mock := newHandlers(t)
	sub := "google-sub-1"
	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE email =`)).
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow("01HUSER0000000000000000000", "ana@example.com", "Ana", nil, sub, "user", now, now))

	w := postJSON(newRouter(h), "/api/v1/auth/login", gin.H{
		"email":    "ana@example.com",
		"password": "anything1",
	})

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestRefresh_RotatesPair(t *testing.T) {
	h, mock := newHandlers(t)
	pair, err := h.tokens.GeneratePair("01HUSER0000000000000000000", "ana@example.com", "user")
	if err != nil {
		t.Fatal(err)
	}
	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE id =`)).
		WithArgs("01HUSER0000000000000000000").
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow("01HUSER0000000000000000000", "ana@example.com", "Ana", nil, nil, "user", now, now))

	w := postJSON(newRouter(h), "/api/v1/auth/refresh", gin.H{"refresh_token": pair.RefreshToken})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var body struct {
		Tokens struct {
			AccessToken string `json:"access_token"`
		} `json:"tokens"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Tokens.AccessToken == "" {
		t.Error("expected a fresh access token")
	}
}

func TestRefresh_AccessTokenRejected(t *testing.T) {
	h, _ := newHandlers(t)
	pair, err := h.tokens.GeneratePair("01HUSER0000000000000000000", "ana@example.com", "user")
	if err != nil {
		t.Fatal(err)
	}

	w := postJSON(newRouter(h), "/api/v1/auth/refresh", gin.H{"refresh_token": pair.AccessToken})

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestRefresh_DeletedUser(t *testing.T) {
	h, mock := newHandlers(t)
	pair, err := h.tokens.GeneratePair("01HUSER0000000000000000000", "ana@example.com", "user")
	if err != nil {
		t.Fatal(err)
	}
	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE id =`)).
		WillReturnRows(sqlmock.NewRows(userCols))

	w := postJSON(newRouter(h), "/api/v1/auth/refresh", gin.H{"refresh_token": pair.RefreshToken})

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestGoogleRedirect_DisabledAnswers404(t *testing.T) {
	h, _ := newHandlers(t)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/google", nil)
	newRouter(h).ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}
