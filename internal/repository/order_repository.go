package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/lunafit/studio-booking/internal/model"
)

// OrderRepo provides persistence for checkout orders and the append-only
// purchase_history audit trail. Terminal transitions are guarded by a
// conditional `status = PENDING` update: a duplicate webhook delivery
// matches zero rows and grants nothing, which is what makes webhook
// processing idempotent.
type OrderRepo struct {
	db *sql.DB
}

// NewOrderRepo returns an OrderRepo bound to the given database.
func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{db: db} }

// DB exposes the underlying handle so the webhook handler can run the
// order transition and the credit grant in one transaction.
func (r *OrderRepo) DB() *sql.DB { return r.db }

const orderColumns = `id, checkout_ref, user_id, package_id, customer_name, customer_email,
	amount_cents, status, approved_at, created_at, updated_at`

func scanOrder(row interface{ Scan(...interface{}) error }) (model.Order, error) {
	var (
		o          model.Order
		approvedAt sql.NullTime
	)
	err := row.Scan(&o.ID, &o.CheckoutRef, &o.UserID, &o.PackageID,
		&o.CustomerName, &o.CustomerEmail, &o.AmountCents, &o.Status,
		&approvedAt, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return model.Order{}, err
	}
	if approvedAt.Valid {
		t := approvedAt.Time
		o.ApprovedAt = &t
	}
	return o, nil
}

// Create inserts a PENDING order at checkout initiation and populates
// its ID.
func (r *OrderRepo) Create(ctx context.Context, o *model.Order) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO orders (checkout_ref, user_id, package_id, customer_name, customer_email, amount_cents, status)
		 VALUES (?,?,?,?,?,?,?)`,
		o.CheckoutRef, o.UserID, o.PackageID, o.CustomerName, o.CustomerEmail,
		o.AmountCents, model.OrderPending)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	o.ID = uint64(id)
	o.Status = model.OrderPending
	return nil
}

// GetByCheckoutRef fetches the order correlated to a gateway callback.
func (r *OrderRepo) GetByCheckoutRef(ctx context.Context, ref string) (model.Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE checkout_ref=? LIMIT 1", ref))
	if err == sql.ErrNoRows {
		return model.Order{}, ErrOrderNotFound
	}
	return o, err
}

// GetByCheckoutRefTx is GetByCheckoutRef inside an existing transaction.
func (r *OrderRepo) GetByCheckoutRefTx(ctx context.Context, tx *sql.Tx, ref string) (model.Order, error) {
	o, err := scanOrder(tx.QueryRowContext(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE checkout_ref=? LIMIT 1", ref))
	if err == sql.ErrNoRows {
		return model.Order{}, ErrOrderNotFound
	}
	return o, err
}

// ListByUser returns a user's orders, newest first.
func (r *OrderRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Order, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE user_id=? ORDER BY created_at DESC", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	orders := make([]model.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// MarkTerminalTx moves a PENDING order to the given terminal status and
// reports whether this call performed the transition. A false return
// with nil error means the order was already terminal (duplicate or late
// delivery) and the caller must skip all side effects.
func (r *OrderRepo) MarkTerminalTx(ctx context.Context, tx *sql.Tx, ref, status string, approvedAt *time.Time) (bool, error) {
	var approved interface{}
	if approvedAt != nil {
		approved = approvedAt.UTC().Format("2006-01-02 15:04:05")
	}
	res, err := tx.ExecContext(ctx,
		`UPDATE orders SET status=?, approved_at=?, updated_at=NOW()
		 WHERE checkout_ref=? AND status=?`,
		status, approved, ref, model.OrderPending)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// InsertHistory appends a webhook delivery to the audit trail. Every
// delivery is recorded, duplicates included.
func (r *OrderRepo) InsertHistory(ctx context.Context, h *model.PurchaseHistory) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO purchase_history (checkout_ref, checkout_id, raw_status, amount_cents, received_at)
		 VALUES (?,?,?,?,?)`,
		h.CheckoutRef, h.CheckoutID, h.RawStatus, h.AmountCents,
		h.ReceivedAt.UTC().Format("2006-01-02 15:04:05"))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	h.ID = uint64(id)
	return nil
}
