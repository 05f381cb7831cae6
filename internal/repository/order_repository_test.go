package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/lunafit/studio-booking/internal/model"
)

func TestMarkTerminalTxFirstDelivery(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE orders SET status=?, approved_at=?, updated_at=NOW()")).
		WithArgs(model.OrderSuccessful, now.Format("2006-01-02 15:04:05"), "ref-1", model.OrderPending).
		WillReturnResult(sqlmock.NewResult(0, 1))

	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	repo := NewOrderRepo(db)
	flipped, err := repo.MarkTerminalTx(context.Background(), tx, "ref-1", model.OrderSuccessful, &now)
	if err != nil {
		t.Fatalf("MarkTerminalTx returned %v, want nil", err)
	}
	if !flipped {
		t.Fatal("MarkTerminalTx reported no transition, want one")
	}
}

func TestMarkTerminalTxDuplicateDelivery(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	// Order already terminal: the status=PENDING guard matches no row.
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE orders SET status=?, approved_at=?, updated_at=NOW()")).
		WithArgs(model.OrderFailed, nil, "ref-1", model.OrderPending).
		WillReturnResult(sqlmock.NewResult(0, 0))

	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	repo := NewOrderRepo(db)
	flipped, err := repo.MarkTerminalTx(context.Background(), tx, "ref-1", model.OrderFailed, nil)
	if err != nil {
		t.Fatalf("MarkTerminalTx returned %v, want nil", err)
	}
	if flipped {
		t.Fatal("MarkTerminalTx reported a transition on a duplicate delivery")
	}
}
