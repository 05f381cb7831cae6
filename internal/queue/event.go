// Package queue defines the notification payloads exchanged over the
// message broker and the consumer that delivers them as email.
package queue

// Notification kinds understood by the consumer. Each kind selects a
// subject/body template when the message is turned into an email.
const (
	KindPurchaseConfirmed = "purchase.confirmed"
	KindPurchasePending   = "purchase.pending"
	KindBookingConfirmed  = "booking.confirmed"
	KindPackageExpiring   = "package.expiring"
	KindClassReminder     = "class.reminder"
)

// NotificationEvent is published whenever a ledger state change should
// trigger a transactional email. It carries enough information for the
// consumer to render and send the message without querying the primary
// database. Fields that do not apply to a kind stay empty.
type NotificationEvent struct {
	Kind           string `json:"kind"`
	UserID         uint64 `json:"user_id"`
	RecipientEmail string `json:"recipient_email"`
	RecipientName  string `json:"recipient_name"`

	// Package / order details.
	PackageTitle string `json:"package_title,omitempty"`
	Credits      uint32 `json:"credits,omitempty"`
	Unlimited    bool   `json:"unlimited,omitempty"`
	ExpiresAt    string `json:"expires_at,omitempty"`
	AmountCents  uint32 `json:"amount_cents,omitempty"`
	CheckoutRef  string `json:"checkout_ref,omitempty"`

	// Class details.
	ClassTitle     string `json:"class_title,omitempty"`
	InstructorName string `json:"instructor_name,omitempty"`
	StartsAt       string `json:"starts_at,omitempty"`

	OccurredAt string `json:"occurred_at"`
}
