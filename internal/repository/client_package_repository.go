package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/lunafit/studio-booking/internal/model"
)

// ClientPackageRepo provides persistence for the credit ledger: purchased
// package instances per user. Rows are never deleted; lifecycle moves
// through status transitions only. The single-active-package invariant is
// maintained by ExpireActiveTx running in the same transaction as the
// insert of the replacement row.
type ClientPackageRepo struct {
	db *sql.DB
}

// NewClientPackageRepo returns a ClientPackageRepo bound to the database.
func NewClientPackageRepo(db *sql.DB) *ClientPackageRepo { return &ClientPackageRepo{db: db} }

// DB exposes the underlying handle for transactions spanning the ledger,
// orders and user_credits.
func (r *ClientPackageRepo) DB() *sql.DB { return r.db }

const clientPackageColumns = `id, user_id, package_id, title, credits, validity_days,
	status, payment_method, purchased_at, expires_at, expiry_notified`

func scanClientPackage(row interface{ Scan(...interface{}) error }) (model.ClientPackage, error) {
	var (
		cp      model.ClientPackage
		credits sql.NullInt64
	)
	err := row.Scan(&cp.ID, &cp.UserID, &cp.PackageID, &cp.Title, &credits,
		&cp.ValidityDays, &cp.Status, &cp.PaymentMethod, &cp.PurchasedAt,
		&cp.ExpiresAt, &cp.ExpiryNotified)
	if err != nil {
		return model.ClientPackage{}, err
	}
	if credits.Valid {
		c := uint32(credits.Int64)
		cp.Credits = &c
	}
	return cp, nil
}

// GetActiveByUser returns the user's single active ledger entry, or
// sql.ErrNoRows when none exists.
func (r *ClientPackageRepo) GetActiveByUser(ctx context.Context, userID uint64) (model.ClientPackage, error) {
	return scanClientPackage(r.db.QueryRowContext(ctx,
		"SELECT "+clientPackageColumns+" FROM client_packages WHERE user_id=? AND status=? LIMIT 1",
		userID, model.ClientPackageActive))
}

// GetActiveByUserTx is GetActiveByUser inside an existing transaction,
// used by the booking flow to check for an unlimited package.
func (r *ClientPackageRepo) GetActiveByUserTx(ctx context.Context, tx *sql.Tx, userID uint64) (model.ClientPackage, error) {
	return scanClientPackage(tx.QueryRowContext(ctx,
		"SELECT "+clientPackageColumns+" FROM client_packages WHERE user_id=? AND status=? LIMIT 1",
		userID, model.ClientPackageActive))
}

// ListByUser returns the user's full ledger history, newest first.
func (r *ClientPackageRepo) ListByUser(ctx context.Context, userID uint64) ([]model.ClientPackage, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+clientPackageColumns+" FROM client_packages WHERE user_id=? ORDER BY purchased_at DESC",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	entries := make([]model.ClientPackage, 0)
	for rows.Next() {
		cp, err := scanClientPackage(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, cp)
	}
	return entries, rows.Err()
}

// ExpireActiveTx marks every active ledger row of the user expired with
// expires_at clamped to now. Called right before inserting a replacement
// row so at most one active row exists once the transaction commits.
func (r *ClientPackageRepo) ExpireActiveTx(ctx context.Context, tx *sql.Tx, userID uint64, now time.Time) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE client_packages SET status=?, expires_at=?
		 WHERE user_id=? AND status=?`,
		model.ClientPackageExpired, now.UTC().Format("2006-01-02 15:04:05"),
		userID, model.ClientPackageActive)
	return err
}

// InsertTx appends a new ledger row inside the transaction and populates
// its ID.
func (r *ClientPackageRepo) InsertTx(ctx context.Context, tx *sql.Tx, cp *model.ClientPackage) error {
	var credits interface{}
	if cp.Credits != nil {
		credits = *cp.Credits
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO client_packages
		 (user_id, package_id, title, credits, validity_days, status, payment_method, purchased_at, expires_at, expiry_notified)
		 VALUES (?,?,?,?,?,?,?,?,?,0)`,
		cp.UserID, cp.PackageID, cp.Title, credits, cp.ValidityDays, cp.Status,
		cp.PaymentMethod,
		cp.PurchasedAt.UTC().Format("2006-01-02 15:04:05"),
		cp.ExpiresAt.UTC().Format("2006-01-02 15:04:05"))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	cp.ID = uint64(id)
	return nil
}

// ListExpiringSoon returns active, not-yet-notified rows whose expiry
// falls within the lookahead window. The sweep job sends one reminder per
// row and flips the flag to prevent duplicate sends.
func (r *ClientPackageRepo) ListExpiringSoon(ctx context.Context, now time.Time, lookahead time.Duration) ([]model.ClientPackage, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+clientPackageColumns+` FROM client_packages
		 WHERE status=? AND expiry_notified=0 AND expires_at BETWEEN ? AND ?
		 ORDER BY expires_at ASC`,
		model.ClientPackageActive,
		now.UTC().Format("2006-01-02 15:04:05"),
		now.Add(lookahead).UTC().Format("2006-01-02 15:04:05"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	entries := make([]model.ClientPackage, 0)
	for rows.Next() {
		cp, err := scanClientPackage(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, cp)
	}
	return entries, rows.Err()
}

// MarkExpiryNotified sets the once-per-package reminder flag.
func (r *ClientPackageRepo) MarkExpiryNotified(ctx context.Context, id uint64) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE client_packages SET expiry_notified=1 WHERE id=?", id)
	return err
}

// ExpireOverdue flips active rows whose expiry has passed to expired and
// returns how many were affected. Run by the sweep so stale rows do not
// linger until the user's next purchase.
func (r *ClientPackageRepo) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE client_packages SET status=? WHERE status=? AND expires_at < ?",
		model.ClientPackageExpired, model.ClientPackageActive,
		now.UTC().Format("2006-01-02 15:04:05"))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// GetByIDTx returns one ledger row inside an existing transaction, or
// sql.ErrNoRows.
func (r *ClientPackageRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (model.ClientPackage, error) {
	return scanClientPackage(tx.QueryRowContext(ctx,
		"SELECT "+clientPackageColumns+" FROM client_packages WHERE id=?", id))
}

// AdminUpdate lets an admin rewrite status, credits snapshot and expiry
// on a single ledger row. No side effects are triggered: the running
// balance in user_credits is adjusted separately when requested.
func (r *ClientPackageRepo) AdminUpdate(ctx context.Context, id uint64, status string, credits *uint32, expiresAt time.Time) error {
	var creditsArg interface{}
	if credits != nil {
		creditsArg = *credits
	}
	res, err := r.db.ExecContext(ctx,
		"UPDATE client_packages SET status=?, credits=?, expires_at=? WHERE id=?",
		status, creditsArg, expiresAt.UTC().Format("2006-01-02 15:04:05"), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// AdminUpdateTx is AdminUpdate inside an existing transaction, used when
// the edit also rewrites the running credit balance.
func (r *ClientPackageRepo) AdminUpdateTx(ctx context.Context, tx *sql.Tx, id uint64, status string, credits *uint32, expiresAt time.Time) error {
	var creditsArg interface{}
	if credits != nil {
		creditsArg = *credits
	}
	res, err := tx.ExecContext(ctx,
		"UPDATE client_packages SET status=?, credits=?, expires_at=? WHERE id=?",
		status, creditsArg, expiresAt.UTC().Format("2006-01-02 15:04:05"), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
