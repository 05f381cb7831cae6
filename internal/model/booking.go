package model

import "time"

// Booking attendance statuses.  Active bookings may transition to
// attended or no_show (instructor marking) or cancelled (client/admin);
// cancelled is terminal.
const (
	BookingActive    = "active"
	BookingAttended  = "attended"
	BookingNoShow    = "no_show"
	BookingCancelled = "cancelled"
)

// ClassBooking joins a client (or a walk-in) to a class instance.  For
// walk-ins UserID is nil and the person's name/phone are stored inline.
// Rows are never physically deleted; history is retained.
//
// Fields:
//  ID           – primary key identifier.
//  ClassID      – class being booked.
//  UserID       – booking user, nil for walk-ins.
//  WalkInName   – walk-in person's name (empty for registered users).
//  WalkInPhone  – walk-in contact phone (optional).
//  ClassDate    – denormalized class start, used by the reminder sweep.
//  Status       – active, attended, no_show or cancelled.
//  ReminderSent – whether the 24h class reminder was already sent.
//  CreatedAt    – creation timestamp.
//  UpdatedAt    – last update timestamp.
type ClassBooking struct {
	ID           uint64    // class_bookings.id
	ClassID      uint64    // class_bookings.class_id
	UserID       *uint64   // class_bookings.user_id (nullable for walk-ins)
	WalkInName   string    // class_bookings.walk_in_name
	WalkInPhone  string    // class_bookings.walk_in_phone
	ClassDate    time.Time // class_bookings.class_date
	Status       string    // class_bookings.status
	ReminderSent bool      // class_bookings.reminder_sent
	CreatedAt    time.Time // class_bookings.created_at
	UpdatedAt    time.Time // class_bookings.updated_at
}

// WalkIn reports whether the booking was made for a person without a
// registered profile.
func (b *ClassBooking) WalkIn() bool { return b.UserID == nil }
