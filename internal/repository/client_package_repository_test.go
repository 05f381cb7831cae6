package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/lunafit/studio-booking/internal/model"
)

func TestActivationReplacesActiveRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	credits := uint32(10)
	cp := model.ClientPackage{
		UserID:        4,
		PackageID:     2,
		Title:         "10 Sessions",
		Credits:       &credits,
		ValidityDays:  30,
		Status:        model.ClientPackageActive,
		PaymentMethod: model.PaymentMethodGateway,
		PurchasedAt:   now,
		ExpiresAt:     now.Add(30 * 24 * time.Hour),
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE client_packages SET status=?, expires_at=?")).
		WithArgs(model.ClientPackageExpired, now.Format("2006-01-02 15:04:05"), uint64(4), model.ClientPackageActive).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO client_packages")).
		WithArgs(uint64(4), uint64(2), "10 Sessions", credits, uint32(30),
			model.ClientPackageActive, model.PaymentMethodGateway,
			now.Format("2006-01-02 15:04:05"),
			now.Add(30*24*time.Hour).Format("2006-01-02 15:04:05")).
		WillReturnResult(sqlmock.NewResult(88, 1))

	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	repo := NewClientPackageRepo(db)
	if err := repo.ExpireActiveTx(context.Background(), tx, 4, now); err != nil {
		t.Fatalf("ExpireActiveTx: %v", err)
	}
	if err := repo.InsertTx(context.Background(), tx, &cp); err != nil {
		t.Fatalf("InsertTx: %v", err)
	}
	if cp.ID != 88 {
		t.Fatalf("InsertTx did not populate ID, got %d", cp.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestExpireOverdueCountsRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE client_packages SET status=? WHERE status=? AND expires_at < ?")).
		WithArgs(model.ClientPackageExpired, model.ClientPackageActive, now.Format("2006-01-02 15:04:05")).
		WillReturnResult(sqlmock.NewResult(0, 3))

	repo := NewClientPackageRepo(db)
	n, err := repo.ExpireOverdue(context.Background(), now)
	if err != nil {
		t.Fatalf("ExpireOverdue: %v", err)
	}
	if n != 3 {
		t.Fatalf("ExpireOverdue = %d rows, want 3", n)
	}
}

func TestAdminUpdateMissingRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	exp := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE client_packages SET status=?, credits=?, expires_at=? WHERE id=?")).
		WithArgs(model.ClientPackageInactive, nil, exp.Format("2006-01-02 15:04:05"), uint64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewClientPackageRepo(db)
	err = repo.AdminUpdate(context.Background(), 99, model.ClientPackageInactive, nil, exp)
	if err == nil {
		t.Fatal("AdminUpdate on a missing row returned nil, want error")
	}
}
