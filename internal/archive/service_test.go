package archive

import (
	"context"
	"encoding/json"
	"reflect"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/descubre-boyaca/descubre-backend/internal/db/models"
	"github.com/descubre-boyaca/descubre-backend/internal/db/repositories"
	"github.com/descubre-boyaca/descubre-backend/internal/domain"
)

var archiveCols = []string{"id", "original_table", "original_id", "data", "deleted_at", "deleted_by", "note"}

func newService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	svc := NewService(
		db,
		repositories.NewArchiveRepository(sqlx.NewDb(db, "sqlmock")),
		repositories.NewRestaurantRepository(db),
		repositories.NewDishRepository(db),
		repositories.NewReviewRepository(db),
	)
	return svc, mock
}

func TestArchiveEntity_SnapshotsWithinCallerTx(t *testing.T) {
	svc, mock := newService(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO archive_records").
		WithArgs(sqlmock.AnyArg(), "dishes", "01HDISH0000000000000000001",
			sqlmock.AnyArg(), sqlmock.AnyArg(), "admin-1", nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := svc.db.BeginTx(context.Background(), nil)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}

	dish := &models.Dish{
		ID:           "01HDISH0000000000000000001",
		RestaurantID: "01HREST0000000000000000001",
		Name:         "Cocido boyacense",
	}
	actor := "admin-1"
	rec, err := svc.ArchiveEntity(context.Background(), tx, models.TableDishes, dish, nil, &actor)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	if rec.OriginalID != dish.ID {
		t.Errorf("original id = %s, want %s", rec.OriginalID, dish.ID)
	}
	if rec.Data["name"] != "Cocido boyacense" {
		t.Errorf("snapshot name = %v", rec.Data["name"])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestArchiveEntity_RejectsSnapshotWithoutID(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.ArchiveEntity(context.Background(), svc.db, models.TableDishes, &models.Dish{}, nil, nil)
	if !domain.IsValidation(err) {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestRestoreRestaurant(t *testing.T) {
	svc, mock := newService(t)

	snapshot := []byte(`{"id":"01HREST0000000000000000001","name":"La Casona","slug":"la-casona","active":true,"created_at":"2025-01-10T12:00:00Z"}`)
	mock.ExpectQuery("SELECT.*FROM archive_records WHERE id").
		WithArgs("a-1").
		WillReturnRows(sqlmock.NewRows(archiveCols).
			AddRow("a-1", "restaurants", "01HREST0000000000000000001", snapshot, time.Now(), nil, nil))

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT EXISTS.*FROM restaurants").
		WithArgs("01HREST0000000000000000001").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec("INSERT INTO restaurants").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	entity, err := svc.Restore(context.Background(), "a-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rest, ok := entity.(*models.Restaurant)
	if !ok {
		t.Fatalf("entity type = %T, want *models.Restaurant", entity)
	}
	if rest.ID != "01HREST0000000000000000001" || rest.Name != "La Casona" {
		t.Errorf("restored restaurant = %+v", rest)
	}
	if rest.UpdatedAt.Before(rest.CreatedAt) {
		t.Error("restored updated_at must not precede created_at")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestRestoreThenRearchive_ReproducesDocument(t *testing.T) {
	svc, mock := newService(t)

	snapshot := []byte(`{"id":"01HREST0000000000000000001","name":"La Casona","slug":"la-casona",` +
		`"description":"Comida típica","address":"Calle 10 #5-21","municipality":"Tunja",` +
		`"phone":"3001234567","price_range":2,"cuisine":"boyacense","active":true,` +
		`"created_at":"2025-01-10T12:00:00Z","updated_at":"2025-02-01T09:30:00Z",` +
		`"created_by":"01HADMN000000000000000000A","updated_by":null}`)
	mock.ExpectQuery("SELECT.*FROM archive_records WHERE id").
		WithArgs("a-1").
		WillReturnRows(sqlmock.NewRows(archiveCols).
			AddRow("a-1", "restaurants", "01HREST0000000000000000001", snapshot, time.Now(), nil, nil))
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT EXISTS.*FROM restaurants").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec("INSERT INTO restaurants").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	entity, err := svc.Restore(context.Background(), "a-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var original map[string]any
	if err := json.Unmarshal(snapshot, &original); err != nil {
		t.Fatalf("decode document: %v", err)
	}
	rearchived, err := Snapshot(entity)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(rearchived) != len(original) {
		t.Fatalf("document keys = %d, want %d", len(rearchived), len(original))
	}
	for key, want := range original {
		if key == "updated_at" {
			continue
		}
		if got := rearchived[key]; !reflect.DeepEqual(got, want) {
			t.Errorf("%s = %v, want %v", key, got, want)
		}
	}
	if rearchived["updated_at"] == original["updated_at"] {
		t.Error("updated_at must be refreshed on restore")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestRestore_ConflictWhenIDReused(t *testing.T) {
	svc, mock := newService(t)

	snapshot := []byte(`{"id":"01HREST0000000000000000001","name":"La Casona"}`)
	mock.ExpectQuery("SELECT.*FROM archive_records WHERE id").
		WillReturnRows(sqlmock.NewRows(archiveCols).
			AddRow("a-1", "restaurants", "01HREST0000000000000000001", snapshot, time.Now(), nil, nil))

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT EXISTS.*FROM restaurants").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	_, err := svc.Restore(context.Background(), "a-1")
	if !domain.IsAlreadyExists(err) {
		t.Fatalf("err = %v, want already_exists", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestRestore_UnknownArchiveID(t *testing.T) {
	svc, mock := newService(t)

	mock.ExpectQuery("SELECT.*FROM archive_records WHERE id").
		WillReturnRows(sqlmock.NewRows(archiveCols))

	_, err := svc.Restore(context.Background(), "missing")
	if !domain.IsNotFound(err) {
		t.Fatalf("err = %v, want not_found", err)
	}
}

func TestRestoreDish_ParentMustExist(t *testing.T) {
	svc, mock := newService(t)

	snapshot := []byte(`{"id":"01HDISH0000000000000000001","restaurant_id":"01HREST0000000000000000001","name":"Cuchuco"}`)
	mock.ExpectQuery("SELECT.*FROM archive_records WHERE id").
		WillReturnRows(sqlmock.NewRows(archiveCols).
			AddRow("a-2", "dishes", "01HDISH0000000000000000001", snapshot, time.Now(), nil, nil))

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT EXISTS.*FROM dishes").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery("SELECT EXISTS.*FROM restaurants").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectRollback()

	_, err := svc.Restore(context.Background(), "a-2")
	if !domain.IsKind(err, domain.KindDomain) {
		t.Fatalf("err = %v, want domain error", err)
	}
}

func TestSoftDeleteDish_ArchivesAndDeletesInOneTx(t *testing.T) {
	svc, mock := newService(t)

	mock.ExpectQuery("SELECT.*FROM dishes WHERE id").
		WithArgs("01HDISH0000000000000000001").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "restaurant_id", "name", "description", "price_cents", "category", "available",
			"created_at", "updated_at", "created_by", "updated_by",
		}).AddRow("01HDISH0000000000000000001", "01HREST0000000000000000001", "Cuchuco", "", 12000, "soup", true,
			time.Now(), time.Now(), nil, nil))

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO archive_records").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM dishes").
		WithArgs("01HDISH0000000000000000001").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	rec, err := svc.SoftDeleteDish(context.Background(), "01HDISH0000000000000000001", nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.OriginalTable != models.TableDishes {
		t.Errorf("original table = %s", rec.OriginalTable)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestSoftDeleteRestaurant_CascadesDishesAndReviews(t *testing.T) {
	svc, mock := newService(t)

	mock.ExpectQuery("SELECT.*FROM restaurants WHERE id").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "slug", "description", "address", "municipality", "phone",
			"price_range", "cuisine", "active", "created_at", "updated_at", "created_by", "updated_by",
		}).AddRow("01HREST0000000000000000001", "La Casona", "la-casona", "", "", "Tunja", "",
			2, "boyacense", true, time.Now(), time.Now(), nil, nil))

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT.*FROM dishes WHERE restaurant_id").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "restaurant_id", "name", "description", "price_cents", "category", "available",
			"created_at", "updated_at", "created_by", "updated_by",
		}).AddRow("01HDISH0000000000000000001", "01HREST0000000000000000001", "Cuchuco", "", 12000, "soup", true,
			time.Now(), time.Now(), nil, nil))
	mock.ExpectExec("INSERT INTO archive_records").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM dishes").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT.*FROM reviews WHERE restaurant_id").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "restaurant_id", "user_id", "rating", "comment",
			"created_at", "updated_at", "created_by", "updated_by",
		}))
	mock.ExpectExec("INSERT INTO archive_records").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM restaurants").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	rec, err := svc.SoftDeleteRestaurant(context.Background(), "01HREST0000000000000000001", nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.OriginalTable != models.TableRestaurants {
		t.Errorf("original table = %s", rec.OriginalTable)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestHardDelete_MissingRecord(t *testing.T) {
	svc, mock := newService(t)

	mock.ExpectExec("DELETE FROM archive_records").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := svc.HardDelete(context.Background(), "missing")
	if !domain.IsNotFound(err) {
		t.Fatalf("err = %v, want not_found", err)
	}
}
