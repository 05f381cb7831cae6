package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/lunafit/studio-booking/internal/model"
)

// ClassRepo provides persistence for scheduled class instances and owns
// the slot-capacity primitive. The taken_slots counter is only ever
// moved through conditional UPDATEs so the invariant
// 0 <= taken_slots <= available_slots holds under concurrent bookings:
// the database serializes the row update and a zero-row result tells the
// caller the class was full (or already empty on release).
type ClassRepo struct {
	db *sql.DB
}

// NewClassRepo returns a ClassRepo bound to the given database.
func NewClassRepo(db *sql.DB) *ClassRepo { return &ClassRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions
// spanning classes, bookings and credits.
func (r *ClassRepo) DB() *sql.DB { return r.db }

const classColumns = `id, instructor_id, instructor_name, title, starts_at, ends_at,
	available_slots, taken_slots, created_at, updated_at`

func scanClass(row interface{ Scan(...interface{}) error }) (model.Class, error) {
	var (
		cl           model.Class
		instructorID sql.NullInt64
	)
	err := row.Scan(&cl.ID, &instructorID, &cl.InstructorName, &cl.Title,
		&cl.StartsAt, &cl.EndsAt, &cl.AvailableSlots, &cl.TakenSlots,
		&cl.CreatedAt, &cl.UpdatedAt)
	if err != nil {
		return model.Class{}, err
	}
	if instructorID.Valid {
		id := uint64(instructorID.Int64)
		cl.InstructorID = &id
	}
	return cl, nil
}

// Create inserts a class instance and populates its ID. taken_slots
// starts at zero.
func (r *ClassRepo) Create(ctx context.Context, cl *model.Class) error {
	var instructorID interface{}
	if cl.InstructorID != nil {
		instructorID = *cl.InstructorID
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO classes (instructor_id, instructor_name, title, starts_at, ends_at, available_slots, taken_slots)
		 VALUES (?,?,?,?,?,?,0)`,
		instructorID, cl.InstructorName, cl.Title,
		cl.StartsAt.UTC().Format("2006-01-02 15:04:05"),
		cl.EndsAt.UTC().Format("2006-01-02 15:04:05"),
		cl.AvailableSlots)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	cl.ID = uint64(id)
	return nil
}

// GetByID fetches a class by id.
func (r *ClassRepo) GetByID(ctx context.Context, id uint64) (model.Class, error) {
	cl, err := scanClass(r.db.QueryRowContext(ctx,
		"SELECT "+classColumns+" FROM classes WHERE id=? LIMIT 1", id))
	if err == sql.ErrNoRows {
		return model.Class{}, ErrClassNotFound
	}
	return cl, err
}

// GetByIDTx is GetByID inside an existing transaction, used by the
// booking flow to read the class start time before reserving a slot.
func (r *ClassRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Class, error) {
	cl, err := scanClass(tx.QueryRowContext(ctx,
		"SELECT "+classColumns+" FROM classes WHERE id=? LIMIT 1", id))
	if err == sql.ErrNoRows {
		return model.Class{}, ErrClassNotFound
	}
	return cl, err
}

// ListFilter narrows the schedule listing. Zero values mean "no filter".
type ListFilter struct {
	From         time.Time // include classes starting at or after From
	To           time.Time // include classes starting before To
	InstructorID uint64    // restrict to one instructor
}

// List returns classes matching the filter ordered by start time.
func (r *ClassRepo) List(ctx context.Context, f ListFilter) ([]model.Class, error) {
	q := "SELECT " + classColumns + " FROM classes WHERE 1=1"
	args := make([]interface{}, 0, 3)
	if !f.From.IsZero() {
		q += " AND starts_at >= ?"
		args = append(args, f.From.UTC().Format("2006-01-02 15:04:05"))
	}
	if !f.To.IsZero() {
		q += " AND starts_at < ?"
		args = append(args, f.To.UTC().Format("2006-01-02 15:04:05"))
	}
	if f.InstructorID != 0 {
		q += " AND instructor_id = ?"
		args = append(args, f.InstructorID)
	}
	q += " ORDER BY starts_at ASC"
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	classes := make([]model.Class, 0)
	for rows.Next() {
		cl, err := scanClass(rows)
		if err != nil {
			return nil, err
		}
		classes = append(classes, cl)
	}
	return classes, rows.Err()
}

// Update rewrites the editable schedule fields. Shrinking capacity below
// the current taken_slots is rejected with ErrConflict via the
// conditional WHERE clause, so the capacity invariant cannot be broken
// by an admin edit racing a booking.
func (r *ClassRepo) Update(ctx context.Context, cl *model.Class) error {
	var instructorID interface{}
	if cl.InstructorID != nil {
		instructorID = *cl.InstructorID
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE classes SET instructor_id=?, instructor_name=?, title=?, starts_at=?, ends_at=?,
		        available_slots=?, updated_at=NOW()
		 WHERE id=? AND taken_slots <= ?`,
		instructorID, cl.InstructorName, cl.Title,
		cl.StartsAt.UTC().Format("2006-01-02 15:04:05"),
		cl.EndsAt.UTC().Format("2006-01-02 15:04:05"),
		cl.AvailableSlots, cl.ID, cl.AvailableSlots)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Distinguish a missing class from a capacity conflict.
		if _, gerr := r.GetByID(ctx, cl.ID); gerr != nil {
			return gerr
		}
		return ErrConflict
	}
	return nil
}

// Delete removes a class that has no bookings at all. Classes with any
// booking history are retained (ErrConflict) because bookings are never
// physically deleted.
func (r *ClassRepo) Delete(ctx context.Context, id uint64) error {
	var bookings int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM class_bookings WHERE class_id=?", id).Scan(&bookings)
	if err != nil {
		return err
	}
	if bookings > 0 {
		return ErrConflict
	}
	res, err := r.db.ExecContext(ctx, "DELETE FROM classes WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrClassNotFound
	}
	return nil
}

// ReserveSlotTx atomically claims one slot. It returns ErrClassFull when
// the conditional update matches no row, i.e. taken_slots already equals
// available_slots. Exactly one of N concurrent callers wins the last
// slot; the rest observe zero rows affected.
func (r *ClassRepo) ReserveSlotTx(ctx context.Context, tx *sql.Tx, classID uint64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE classes SET taken_slots = taken_slots + 1, updated_at=NOW()
		 WHERE id = ? AND taken_slots < available_slots`, classID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrClassFull
	}
	return nil
}

// ReleaseSlotTx atomically returns one slot on cancellation. The
// taken_slots > 0 guard keeps the counter from going negative if a
// release is ever replayed.
func (r *ClassRepo) ReleaseSlotTx(ctx context.Context, tx *sql.Tx, classID uint64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE classes SET taken_slots = taken_slots - 1, updated_at=NOW()
		 WHERE id = ? AND taken_slots > 0`, classID)
	return err
}
