package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/lunafit/studio-booking/internal/model"
)

// BookingRepo provides persistence for class bookings. Bookings are
// never physically deleted; cancellation and attendance marking are
// status transitions guarded by conditional UPDATEs so a terminal row
// can never be transitioned twice.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingColumns = `id, class_id, user_id, walk_in_name, walk_in_phone, class_date,
	status, reminder_sent, created_at, updated_at`

func scanBooking(row interface{ Scan(...interface{}) error }) (model.ClassBooking, error) {
	var (
		b           model.ClassBooking
		userID      sql.NullInt64
		walkInName  sql.NullString
		walkInPhone sql.NullString
	)
	err := row.Scan(&b.ID, &b.ClassID, &userID, &walkInName, &walkInPhone,
		&b.ClassDate, &b.Status, &b.ReminderSent, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return model.ClassBooking{}, err
	}
	if userID.Valid {
		id := uint64(userID.Int64)
		b.UserID = &id
	}
	b.WalkInName = walkInName.String
	b.WalkInPhone = walkInPhone.String
	return b, nil
}

// CreateTx inserts a booking row within the slot-reservation transaction
// and populates its ID.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.ClassBooking) error {
	var userID interface{}
	if b.UserID != nil {
		userID = *b.UserID
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO class_bookings (class_id, user_id, walk_in_name, walk_in_phone, class_date, status, reminder_sent)
		 VALUES (?,?,?,?,?,?,0)`,
		b.ClassID, userID, b.WalkInName, b.WalkInPhone,
		b.ClassDate.UTC().Format("2006-01-02 15:04:05"), b.Status)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return nil
}

// GetByID fetches a booking by id.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (model.ClassBooking, error) {
	b, err := scanBooking(r.db.QueryRowContext(ctx,
		"SELECT "+bookingColumns+" FROM class_bookings WHERE id=? LIMIT 1", id))
	if err == sql.ErrNoRows {
		return model.ClassBooking{}, ErrBookingNotFound
	}
	return b, err
}

// GetByIDTx is GetByID inside an existing transaction; the cancellation
// flow reads the row before transitioning it.
func (r *BookingRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (model.ClassBooking, error) {
	b, err := scanBooking(tx.QueryRowContext(ctx,
		"SELECT "+bookingColumns+" FROM class_bookings WHERE id=? LIMIT 1", id))
	if err == sql.ErrNoRows {
		return model.ClassBooking{}, ErrBookingNotFound
	}
	return b, err
}

// ListByUser returns all bookings of a user, newest class first.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]model.ClassBooking, error) {
	return r.list(ctx,
		"SELECT "+bookingColumns+" FROM class_bookings WHERE user_id=? ORDER BY class_date DESC", userID)
}

// ListByClass returns the roster of a class including walk-ins, in
// booking order.
func (r *BookingRepo) ListByClass(ctx context.Context, classID uint64) ([]model.ClassBooking, error) {
	return r.list(ctx,
		"SELECT "+bookingColumns+" FROM class_bookings WHERE class_id=? ORDER BY created_at ASC", classID)
}

func (r *BookingRepo) list(ctx context.Context, query string, args ...interface{}) ([]model.ClassBooking, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	bookings := make([]model.ClassBooking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// CancelTx transitions an active booking to cancelled. Zero rows means
// the booking was already terminal; the caller surfaces that as a
// conflict instead of double-releasing the slot.
func (r *BookingRepo) CancelTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE class_bookings SET status=?, updated_at=NOW() WHERE id=? AND status=?",
		model.BookingCancelled, id, model.BookingActive)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrConflict
	}
	return nil
}

// MarkAttendance transitions an active booking to attended or no_show.
// Cancelled is terminal and not reachable from here; any non-active
// source status yields ErrConflict through the conditional update.
func (r *BookingRepo) MarkAttendance(ctx context.Context, id uint64, status string) error {
	if status != model.BookingAttended && status != model.BookingNoShow {
		return ErrConflict
	}
	res, err := r.db.ExecContext(ctx,
		"UPDATE class_bookings SET status=?, updated_at=NOW() WHERE id=? AND status=?",
		status, id, model.BookingActive)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, gerr := r.GetByID(ctx, id); gerr != nil {
			return gerr
		}
		return ErrConflict
	}
	return nil
}

// ListDueReminders returns active bookings of registered users whose
// class starts within the lookahead window and whose reminder has not
// been sent yet. Walk-ins have no address on file and are skipped.
func (r *BookingRepo) ListDueReminders(ctx context.Context, now time.Time, lookahead time.Duration) ([]model.ClassBooking, error) {
	return r.list(ctx,
		`SELECT `+bookingColumns+` FROM class_bookings
		 WHERE status=? AND reminder_sent=0 AND user_id IS NOT NULL
		   AND class_date BETWEEN ? AND ?
		 ORDER BY class_date ASC`,
		model.BookingActive,
		now.UTC().Format("2006-01-02 15:04:05"),
		now.Add(lookahead).UTC().Format("2006-01-02 15:04:05"))
}

// MarkReminderSent sets the once-per-booking reminder flag.
func (r *BookingRepo) MarkReminderSent(ctx context.Context, id uint64) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE class_bookings SET reminder_sent=1 WHERE id=?", id)
	return err
}
