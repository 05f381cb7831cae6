package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestReserveSlotTxClaimsSlot(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE classes SET taken_slots = taken_slots + 1")).
		WithArgs(uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	repo := NewClassRepo(db)
	if err := repo.ReserveSlotTx(context.Background(), tx, 7); err != nil {
		t.Fatalf("ReserveSlotTx returned %v, want nil", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestReserveSlotTxFullClass(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	// taken_slots == available_slots: the conditional update matches no row.
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE classes SET taken_slots = taken_slots + 1")).
		WithArgs(uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	repo := NewClassRepo(db)
	if err := repo.ReserveSlotTx(context.Background(), tx, 7); err != ErrClassFull {
		t.Fatalf("ReserveSlotTx returned %v, want ErrClassFull", err)
	}
}

func TestReleaseSlotTxGuardsZero(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	// A replayed release matches no row and must not error.
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE classes SET taken_slots = taken_slots - 1")).
		WithArgs(uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	repo := NewClassRepo(db)
	if err := repo.ReleaseSlotTx(context.Background(), tx, 3); err != nil {
		t.Fatalf("ReleaseSlotTx returned %v, want nil", err)
	}
}

func TestDeleteRejectsClassWithBookings(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM class_bookings WHERE class_id=?")).
		WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	repo := NewClassRepo(db)
	if err := repo.Delete(context.Background(), 5); err != ErrConflict {
		t.Fatalf("Delete returned %v, want ErrConflict", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
