package repository

import (
	"context"
	"database/sql"

	"github.com/lunafit/studio-booking/internal/model"
)

// CreditRepo manages the per-user credit balance in user_credits. The
// balance is a single running counter: package activation overwrites it,
// bookings decrement it, eligible cancellations refund it. Spending goes
// through a conditional UPDATE so a zero balance can never go negative
// regardless of interleaving.
type CreditRepo struct {
	db *sql.DB
}

// NewCreditRepo returns a CreditRepo bound to the given database.
func NewCreditRepo(db *sql.DB) *CreditRepo { return &CreditRepo{db: db} }

// GetBalance returns the user's current balance. A user without a
// user_credits row yet has balance zero.
func (r *CreditRepo) GetBalance(ctx context.Context, userID uint64) (model.UserCredits, error) {
	var uc model.UserCredits
	err := r.db.QueryRowContext(ctx,
		"SELECT id, user_id, balance FROM user_credits WHERE user_id=? LIMIT 1",
		userID).Scan(&uc.ID, &uc.UserID, &uc.Balance)
	if err == sql.ErrNoRows {
		return model.UserCredits{UserID: userID}, nil
	}
	return uc, err
}

// SetBalanceTx overwrites the user's balance inside a transaction,
// creating the row on first purchase. Activation of a new package resets
// the visible balance rather than stacking credits from two unexpired
// packages; see the ledger notes in DESIGN.md before "fixing" this.
func (r *CreditRepo) SetBalanceTx(ctx context.Context, tx *sql.Tx, userID uint64, balance uint32) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO user_credits (user_id, balance) VALUES (?,?)
		 ON DUPLICATE KEY UPDATE balance = VALUES(balance)`,
		userID, balance)
	return err
}

// SpendOneTx decrements the balance by one. It returns
// ErrInsufficientCredits when the conditional update matches no row,
// which covers both a zero balance and a user with no credits row yet.
func (r *CreditRepo) SpendOneTx(ctx context.Context, tx *sql.Tx, userID uint64) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE user_credits SET balance = balance - 1 WHERE user_id = ? AND balance > 0",
		userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrInsufficientCredits
	}
	return nil
}

// RefundOneTx returns one credit to the balance after an in-window
// cancellation.
func (r *CreditRepo) RefundOneTx(ctx context.Context, tx *sql.Tx, userID uint64) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO user_credits (user_id, balance) VALUES (?,1)
		 ON DUPLICATE KEY UPDATE balance = balance + 1`,
		userID)
	return err
}
