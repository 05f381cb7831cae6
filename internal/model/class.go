package model

import "time"

// Class represents a scheduled class instance run by an instructor.  The
// instructor name is denormalized onto the row so the schedule survives
// instructor removal.  Capacity invariant: 0 <= TakenSlots <= AvailableSlots,
// maintained by conditional UPDATEs in the repository layer.
//
// Fields:
//  ID             – primary key identifier.
//  InstructorID   – user running the class (nullable after removal).
//  InstructorName – instructor display name at scheduling time.
//  Title          – class title (e.g. "Reformer Flow").
//  StartsAt       – when the class begins.
//  EndsAt         – when the class ends (must be after StartsAt).
//  AvailableSlots – total bookable spots.
//  TakenSlots     – spots currently booked.
//  CreatedAt      – creation timestamp.
//  UpdatedAt      – last update timestamp.
type Class struct {
	ID             uint64    // classes.id
	InstructorID   *uint64   // classes.instructor_id (nullable)
	InstructorName string    // classes.instructor_name
	Title          string    // classes.title
	StartsAt       time.Time // classes.starts_at
	EndsAt         time.Time // classes.ends_at
	AvailableSlots uint32    // classes.available_slots
	TakenSlots     uint32    // classes.taken_slots
	CreatedAt      time.Time // classes.created_at
	UpdatedAt      time.Time // classes.updated_at
}
