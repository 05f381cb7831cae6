package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestSpendOneTxInsufficientBalance(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	// balance = 0 (or no row at all): the guarded update matches nothing.
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE user_credits SET balance = balance - 1 WHERE user_id = ? AND balance > 0")).
		WithArgs(uint64(42)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	repo := NewCreditRepo(db)
	if err := repo.SpendOneTx(context.Background(), tx, 42); err != ErrInsufficientCredits {
		t.Fatalf("SpendOneTx returned %v, want ErrInsufficientCredits", err)
	}
}

func TestSpendOneTxDecrements(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE user_credits SET balance = balance - 1")).
		WithArgs(uint64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	repo := NewCreditRepo(db)
	if err := repo.SpendOneTx(context.Background(), tx, 42); err != nil {
		t.Fatalf("SpendOneTx returned %v, want nil", err)
	}
}

func TestGetBalanceMissingRowIsZero(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, user_id, balance FROM user_credits")).
		WithArgs(uint64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "balance"}))

	repo := NewCreditRepo(db)
	uc, err := repo.GetBalance(context.Background(), 9)
	if err != nil {
		t.Fatalf("GetBalance returned %v, want nil", err)
	}
	if uc.Balance != 0 || uc.UserID != 9 {
		t.Fatalf("GetBalance = %+v, want zero balance for user 9", uc)
	}
}
