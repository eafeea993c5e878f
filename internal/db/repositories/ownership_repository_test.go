package repositories

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"github.com/descubre-boyaca/descubre-backend/internal/db/models"
)

var ownershipCols = []string{"restaurant_id", "user_id", "role", "is_primary", "created_at", "updated_at"}

func sampleOwnershipRow() *sqlmock.Rows {
	return sqlmock.NewRows(ownershipCols).
		AddRow("rest-1", "user-1", "owner", true, time.Now(), time.Now())
}

func emptyOwnershipRow() *sqlmock.Rows {
	return sqlmock.NewRows(ownershipCols)
}

func newOwnershipRepo(t *testing.T) (*OwnershipRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewOwnershipRepository(db), mock
}

func TestGetByPair_Found(t *testing.T) {
	repo, mock := newOwnershipRepo(t)
	mock.ExpectQuery("SELECT.*FROM restaurant_owners WHERE restaurant_id").
		WithArgs("rest-1", "user-1").
		WillReturnRows(sampleOwnershipRow())

	o, err := repo.GetByPair(context.Background(), repo.db, "rest-1", "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o == nil {
		t.Fatal("expected ownership, got nil")
	}
	if o.Role != models.OwnershipOwner || !o.IsPrimary {
		t.Errorf("Role = %s, IsPrimary = %v", o.Role, o.IsPrimary)
	}
}

func TestGetByPair_NotFound(t *testing.T) {
	repo, mock := newOwnershipRepo(t)
	mock.ExpectQuery("SELECT.*FROM restaurant_owners WHERE restaurant_id").
		WillReturnRows(emptyOwnershipRow())

	o, err := repo.GetByPair(context.Background(), repo.db, "rest-1", "user-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o != nil {
		t.Error("expected nil, got non-nil")
	}
}

func TestGetPrimary(t *testing.T) {
	repo, mock := newOwnershipRepo(t)
	mock.ExpectQuery("SELECT.*FROM restaurant_owners WHERE restaurant_id .* is_primary").
		WithArgs("rest-1").
		WillReturnRows(sampleOwnershipRow())

	o, err := repo.GetPrimary(context.Background(), repo.db, "rest-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o == nil || !o.IsPrimary {
		t.Fatal("expected primary ownership")
	}
}

func TestInsertOwnership(t *testing.T) {
	repo, mock := newOwnershipRepo(t)
	mock.ExpectExec("INSERT INTO restaurant_owners").
		WithArgs("rest-1", "user-2", "manager", false, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	o := &models.Ownership{
		RestaurantID: "rest-1",
		UserID:       "user-2",
		Role:         models.OwnershipManager,
	}
	if err := repo.Insert(context.Background(), repo.db, o); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.CreatedAt.IsZero() || o.UpdatedAt.IsZero() {
		t.Error("timestamps not set on insert")
	}
}

func TestUpdateRole_Found(t *testing.T) {
	repo, mock := newOwnershipRepo(t)
	mock.ExpectExec("UPDATE restaurant_owners.*SET role").
		WithArgs("rest-1", "user-1", "staff", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	found, err := repo.UpdateRole(context.Background(), repo.db, "rest-1", "user-1", models.OwnershipStaff)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !found {
		t.Error("expected found = true")
	}
}

func TestUpdateRole_NotFound(t *testing.T) {
	repo, mock := newOwnershipRepo(t)
	mock.ExpectExec("UPDATE restaurant_owners.*SET role").
		WillReturnResult(sqlmock.NewResult(0, 0))

	found, err := repo.UpdateRole(context.Background(), repo.db, "rest-1", "missing", models.OwnershipStaff)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found {
		t.Error("expected found = false")
	}
}

func TestDeleteOwnership_Idempotent(t *testing.T) {
	repo, mock := newOwnershipRepo(t)
	mock.ExpectExec("DELETE FROM restaurant_owners").
		WithArgs("rest-1", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM restaurant_owners").
		WithArgs("rest-1", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	removed, err := repo.Delete(context.Background(), "rest-1", "user-1")
	if err != nil || !removed {
		t.Fatalf("first delete: removed = %v, err = %v", removed, err)
	}
	removed, err = repo.Delete(context.Background(), "rest-1", "user-1")
	if err != nil {
		t.Fatalf("second delete errored: %v", err)
	}
	if removed {
		t.Error("second delete should report no row removed")
	}
}

func TestListByRestaurant_PrimaryFirst(t *testing.T) {
	repo, mock := newOwnershipRepo(t)
	cols := append(append([]string{}, ownershipCols...), "user_name", "user_email")
	rows := sqlmock.NewRows(cols).
		AddRow("rest-1", "user-1", "owner", true, time.Now(), time.Now(), "Ana", "ana@example.com").
		AddRow("rest-1", "user-2", "manager", false, time.Now(), time.Now(), "Luis", "luis@example.com")
	mock.ExpectQuery("SELECT.*FROM restaurant_owners ro.*ORDER BY ro.is_primary DESC").
		WithArgs("rest-1").
		WillReturnRows(rows)

	owners, err := repo.ListByRestaurant(context.Background(), "rest-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(owners) != 2 {
		t.Fatalf("len(owners) = %d, want 2", len(owners))
	}
	if !owners[0].IsPrimary || owners[0].UserName != "Ana" {
		t.Errorf("first owner = %+v, want primary Ana", owners[0])
	}
}
