package dishes

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/descubre-boyaca/descubre-backend/internal/archive"
	"github.com/descubre-boyaca/descubre-backend/internal/db/models"
	"github.com/descubre-boyaca/descubre-backend/internal/db/repositories"
	"github.com/descubre-boyaca/descubre-backend/internal/middleware"
	"github.com/descubre-boyaca/descubre-backend/internal/ownership"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const (
	restaurantID = "01HREST000000000000000000A"
	dishID       = "01HDISH000000000000000000A"
	managerID    = "01HMNGR000000000000000000A"
)

var (
	dishCols      = []string{"id", "restaurant_id", "name", "description", "price_cents", "category", "available", "created_at", "updated_at", "created_by", "updated_by"}
	ownershipCols = []string{"restaurant_id", "user_id", "role", "is_primary", "created_at", "updated_at"}
)

func dishRow() []driver.Value {
	now := time.Now().UTC()
	return []driver.Value{dishID, restaurantID, "Cocido boyacense", "", 28000, "plato fuerte", true, now, now, nil, nil}
}

func newHandlers(t *testing.T) (*Handlers, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	dishRepo := repositories.NewDishRepository(db)
	restRepo := repositories.NewRestaurantRepository(db)
	reviewRepo := repositories.NewReviewRepository(db)
	userRepo := repositories.NewUserRepository(db)
	ownerRepo := repositories.NewOwnershipRepository(db)
	archiveRepo := repositories.NewArchiveRepository(sqlx.NewDb(db, "sqlmock"))

	ownSvc := ownership.NewService(db, ownerRepo, restRepo, dishRepo, userRepo)
	arcSvc := archive.NewService(db, archiveRepo, restRepo, dishRepo, reviewRepo)
	return NewHandlers(dishRepo, restRepo, ownSvc, arcSvc), mock
}

func asUser(user *models.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserContextKey, user)
		c.Set(middleware.UserIDContextKey, user.ID)
		c.Next()
	}
}

func TestListByRestaurant_UnknownRestaurant(t *testing.T) {
	h, mock := newHandlers(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS (SELECT 1 FROM restaurants WHERE id = $1)`)).
		WithArgs(restaurantID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	router := gin.New()
	router.GET("/api/v1/restaurants/:id/dishes", h.ListByRestaurantHandler())
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/restaurants/"+restaurantID+"/dishes", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestListByRestaurant_Paginates(t *testing.T) {
	h, mock := newHandlers(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS (SELECT 1 FROM restaurants WHERE id = $1)`)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM dishes WHERE restaurant_id = $1`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`FROM dishes`).
		WillReturnRows(sqlmock.NewRows(dishCols).AddRow(dishRow()...))

	router := gin.New()
	router.GET("/api/v1/restaurants/:id/dishes", h.ListByRestaurantHandler())
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/restaurants/"+restaurantID+"/dishes", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var body struct {
		Dishes []models.Dish `json:"dishes"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Dishes) != 1 || body.Dishes[0].Name != "Cocido boyacense" {
		t.Errorf("unexpected body: %s", w.Body.String())
	}
}

func TestCreateHandler_SetsRestaurantAndActor(t *testing.T) {
	h, mock := newHandlers(t)
	manager := &models.User{ID: managerID, Role: models.RoleUser}
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO dishes`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	router := gin.New()
	router.POST("/api/v1/owner/restaurants/:id/dishes", asUser(manager), h.CreateHandler())

	buf, _ := json.Marshal(gin.H{"name": "Cocido boyacense", "price_cents": 28000})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/owner/restaurants/"+restaurantID+"/dishes", bytes.NewReader(buf))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var dish models.Dish
	if err := json.Unmarshal(w.Body.Bytes(), &dish); err != nil {
		t.Fatal(err)
	}
	if dish.RestaurantID != restaurantID {
		t.Errorf("restaurant_id = %q", dish.RestaurantID)
	}
	if dish.CreatedBy == nil || *dish.CreatedBy != managerID {
		t.Errorf("created_by = %v", dish.CreatedBy)
	}
	if !dish.Available {
		t.Error("new dishes should default to available")
	}
}

func TestUpdateHandler_ManagerAllowed(t *testing.T) {
	h, mock := newHandlers(t)
	manager := &models.User{ID: managerID, Role: models.RoleUser}
	now := time.Now().UTC()

	// AuthorizeDish: dish lookup then ownership lookup.
	mock.ExpectQuery(`FROM dishes WHERE id =`).
		WillReturnRows(sqlmock.NewRows(dishCols).AddRow(dishRow()...))
	mock.ExpectQuery(`FROM restaurant_owners WHERE restaurant_id =`).
		WithArgs(restaurantID, managerID).
		WillReturnRows(sqlmock.NewRows(ownershipCols).
			AddRow(restaurantID, managerID, "manager", false, now, now))
	mock.ExpectQuery(`FROM dishes WHERE id =`).
		WillReturnRows(sqlmock.NewRows(dishCols).AddRow(dishRow()...))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE dishes`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	router := gin.New()
	router.PATCH("/api/v1/owner/dishes/:id", asUser(manager), h.UpdateHandler())

	buf, _ := json.Marshal(gin.H{"available": false})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/owner/dishes/"+dishID, bytes.NewReader(buf))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var dish models.Dish
	if err := json.Unmarshal(w.Body.Bytes(), &dish); err != nil {
		t.Fatal(err)
	}
	if dish.Available {
		t.Error("available should be false after update")
	}
}

func TestUpdateHandler_StaffForbidden(t *testing.T) {
	h, mock := newHandlers(t)
	staff := &models.User{ID: managerID, Role: models.RoleUser}
	now := time.Now().UTC()

	mock.ExpectQuery(`FROM dishes WHERE id =`).
		WillReturnRows(sqlmock.NewRows(dishCols).AddRow(dishRow()...))
	mock.ExpectQuery(`FROM restaurant_owners WHERE restaurant_id =`).
		WillReturnRows(sqlmock.NewRows(ownershipCols).
			AddRow(restaurantID, managerID, "staff", false, now, now))

	router := gin.New()
	router.PATCH("/api/v1/owner/dishes/:id", asUser(staff), h.UpdateHandler())

	buf, _ := json.Marshal(gin.H{"available": false})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/owner/dishes/"+dishID, bytes.NewReader(buf))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
}

func TestUpdateHandler_UnknownDish(t *testing.T) {
	h, mock := newHandlers(t)
	admin := &models.User{ID: managerID, Role: models.RoleAdmin}
	mock.ExpectQuery(`FROM dishes WHERE id =`).
		WillReturnRows(sqlmock.NewRows(dishCols))

	router := gin.New()
	router.PATCH("/api/v1/owner/dishes/:id", asUser(admin), h.UpdateHandler())

	buf, _ := json.Marshal(gin.H{"available": false})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/owner/dishes/"+dishID, bytes.NewReader(buf))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestDeleteHandler_AdminBypassesOwnership(t *testing.T) {
	h, mock := newHandlers(t)
	admin := &models.User{ID: "01HADMIN00000000000000000A", Role: models.RoleAdmin}

	// AuthorizeDish resolves the dish; the admin role skips the ownership read.
	mock.ExpectQuery(`FROM dishes WHERE id =`).
		WillReturnRows(sqlmock.NewRows(dishCols).AddRow(dishRow()...))
	// SoftDeleteDish re-reads, then archives and deletes in one tx.
	mock.ExpectQuery(`FROM dishes WHERE id =`).
		WillReturnRows(sqlmock.NewRows(dishCols).AddRow(dishRow()...))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO archive_records`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM dishes`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	router := gin.New()
	router.DELETE("/api/v1/owner/dishes/:id", asUser(admin), h.DeleteHandler())
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/owner/dishes/"+dishID, nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
