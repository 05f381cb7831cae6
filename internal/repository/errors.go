// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios and map
// them onto HTTP statuses without string matching.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own, such as cancelling another user's booking.
// Handlers translate this into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a delete or update cannot proceed because
// of dependent state, such as deleting a class that still has active
// bookings or shrinking capacity below the taken-slot count. Handlers
// translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrClassFull is returned when the conditional slot increment matches no
// row, meaning every available slot was taken at write time. This is the
// single concurrency-safe primitive guarding overbooking.
var ErrClassFull = errors.New("class full")

// ErrInsufficientCredits is returned when the caller's credit balance is
// zero and the active package is not unlimited. The surrounding
// transaction rolls back so no slot stays consumed.
var ErrInsufficientCredits = errors.New("insufficient credits")

// ErrClassNotFound is returned when a class lookup matches no row.
var ErrClassNotFound = errors.New("class not found")

// ErrPackageNotFound is returned when a catalog package lookup matches no
// row or the row is soft-deleted.
var ErrPackageNotFound = errors.New("package not found")

// ErrBookingNotFound is returned when a booking lookup matches no row.
var ErrBookingNotFound = errors.New("booking not found")

// ErrOrderNotFound is returned when no order exists for a checkout
// reference delivered by the payment gateway.
var ErrOrderNotFound = errors.New("order not found")

// ErrEmailExists is returned when user creation collides with an
// existing email address.
var ErrEmailExists = errors.New("email already exists")
