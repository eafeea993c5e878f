package graphql

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/descubre-boyaca/descubre-backend/internal/db/repositories"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const restaurantID = "01HREST000000000000000000A"

var restaurantCols = []string{
	"id", "name", "slug", "description", "address", "municipality", "phone",
	"price_range", "cuisine", "active", "created_at", "updated_at", "created_by", "updated_by",
}

func newHandler(t *testing.T) (*Handler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewHandler(
		repositories.NewRestaurantRepository(db),
		repositories.NewDishRepository(db),
		repositories.NewReviewRepository(db),
	), mock
}

func query(t *testing.T, h *Handler, body map[string]any) map[string]any {
	t.Helper()
	router := gin.New()
	router.POST("/api/v1/graphql", h.QueryHandler())

	buf, err := json.Marshal(body)
	require.NoError(t, err)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/graphql", bytes.NewReader(buf))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var envelope map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	return envelope
}

func addRestaurantRow(rows *sqlmock.Rows) *sqlmock.Rows {
	now := time.Now().UTC()
	return rows.AddRow(restaurantID, "La Cascada", "la-cascada", "comida tradicional", "Cra 9 #20-15",
		"Tunja", "3001234567", 2, "boyacense", true, now, now, nil, nil)
}

func TestQuery_RestaurantsWithFilterAndAlias(t *testing.T) {
	h, mock := newHandler(t)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM restaurants`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`FROM restaurants`).
		WillReturnRows(addRestaurantRow(sqlmock.NewRows(restaurantCols)))

	envelope := query(t, h, map[string]any{
		"query": `{ places: restaurants(municipality: "Tunja") { id name priceRange } }`,
	})

	require.Nil(t, envelope["errors"], "unexpected errors: %v", envelope["errors"])
	data := envelope["data"].(map[string]any)
	places := data["places"].([]any)
	require.Len(t, places, 1)
	first := places[0].(map[string]any)
	assert.Equal(t, "La Cascada", first["name"])
	assert.Equal(t, float64(2), first["priceRange"])
	assert.NotContains(t, first, "slug", "unselected fields must not be returned")
}

func TestQuery_RestaurantWithNestedDishesAndReviews(t *testing.T) {
	h, mock := newHandler(t)
	now := time.Now().UTC()
	mock.ExpectQuery(`FROM restaurants WHERE id =`).
		WillReturnRows(addRestaurantRow(sqlmock.NewRows(restaurantCols)))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM dishes`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`FROM dishes`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "restaurant_id", "name", "description", "price_cents", "category", "available", "created_at", "updated_at", "created_by", "updated_by"}).
			AddRow("01HDISH000000000000000000A", restaurantID, "Cocido", "", 28000, "plato fuerte", true, now, now, nil, nil))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM reviews`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`LEFT JOIN users`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "restaurant_id", "user_id", "rating", "comment", "created_at", "updated_at", "created_by", "updated_by", "user_name"}).
			AddRow("01HREVW000000000000000000A", restaurantID, "01HFAN0000000000000000000A", 5, "excelente", now, now, nil, nil, "Ana"))

	envelope := query(t, h, map[string]any{
		"query": `query($id: ID!) {
			restaurant(id: $id) {
				name
				dishes { name priceCents }
				reviews { rating userName }
			}
		}`,
		"variables": map[string]any{"id": restaurantID},
	})

	require.Nil(t, envelope["errors"], "unexpected errors: %v", envelope["errors"])
	rest := envelope["data"].(map[string]any)["restaurant"].(map[string]any)
	dishes := rest["dishes"].([]any)
	require.Len(t, dishes, 1)
	assert.Equal(t, "Cocido", dishes[0].(map[string]any)["name"])
	reviews := rest["reviews"].([]any)
	require.Len(t, reviews, 1)
	assert.Equal(t, "Ana", reviews[0].(map[string]any)["userName"])
}

func TestQuery_MissingRestaurantIsNull(t *testing.T) {
	h, mock := newHandler(t)
	mock.ExpectQuery(`FROM restaurants WHERE id =`).
		WillReturnRows(sqlmock.NewRows(restaurantCols))

	envelope := query(t, h, map[string]any{
		"query": `{ restaurant(id: "` + restaurantID + `") { name } }`,
	})

	require.Nil(t, envelope["errors"])
	data := envelope["data"].(map[string]any)
	assert.Nil(t, data["restaurant"])
}

func TestQuery_ValidationErrorEnvelope(t *testing.T) {
	h, _ := newHandler(t)
	envelope := query(t, h, map[string]any{
		"query": `{ restaurants { nonexistentField } }`,
	})

	errs, ok := envelope["errors"].([]any)
	require.True(t, ok, "expected an errors list, got: %v", envelope)
	require.NotEmpty(t, errs)
	first := errs[0].(map[string]any)
	assert.Contains(t, first["message"], "nonexistentField")
}

func TestQuery_MutationRejected(t *testing.T) {
	h, _ := newHandler(t)
	envelope := query(t, h, map[string]any{
		"query": `mutation { restaurants { id } }`,
	})

	errs, ok := envelope["errors"].([]any)
	require.True(t, ok, "expected an errors list, got: %v", envelope)
	require.NotEmpty(t, errs)
}

func TestQuery_FragmentsAreFlattened(t *testing.T) {
	h, mock := newHandler(t)
	mock.ExpectQuery(`FROM restaurants WHERE id =`).
		WillReturnRows(addRestaurantRow(sqlmock.NewRows(restaurantCols)))

	envelope := query(t, h, map[string]any{
		"query": `
			query {
				restaurant(id: "` + restaurantID + `") { ...basics }
			}
			fragment basics on Restaurant { name municipality }
		`,
	})

	require.Nil(t, envelope["errors"], "unexpected errors: %v", envelope["errors"])
	rest := envelope["data"].(map[string]any)["restaurant"].(map[string]any)
	assert.Equal(t, "La Cascada", rest["name"])
	assert.Equal(t, "Tunja", rest["municipality"])
}

func TestQuery_InternalErrorsAreOpaque(t *testing.T) {
	h, mock := newHandler(t)
	mock.ExpectQuery(`FROM restaurants WHERE id =`).
		WillReturnError(assertableError{})

	envelope := query(t, h, map[string]any{
		"query": `{ restaurant(id: "` + restaurantID + `") { name } }`,
	})

	errs, ok := envelope["errors"].([]any)
	require.True(t, ok)
	require.NotEmpty(t, errs)
	first := errs[0].(map[string]any)
	assert.Equal(t, "internal error", first["message"])
}

type assertableError struct{}

func (assertableError) Error() string { return "pq: connection refused" }
