package model

import "time"

// Order statuses.  PENDING is the only non-terminal state; webhook
// delivery moves an order to exactly one terminal state, after which the
// row is immutable.
const (
	OrderPending    = "PENDING"
	OrderSuccessful = "SUCCESSFUL"
	OrderFailed     = "FAILED"
	OrderExpired    = "EXPIRED"
	OrderCancelled  = "CANCELLED"
)

// Order records a checkout attempt against the external payment gateway.
// CheckoutRef is the request reference number echoed back by the gateway
// webhook and is unique per order.  Customer fields are snapshotted so
// the order reads the same even after profile edits.
//
// Fields:
//  ID            – primary key identifier.
//  CheckoutRef   – unique reference correlating gateway callbacks.
//  UserID        – purchasing user.
//  PackageID     – package being bought.
//  CustomerName  – customer name at checkout time.
//  CustomerEmail – customer email at checkout time.
//  AmountCents   – charged amount in cents.
//  Status        – one of the Order* constants.
//  ApprovedAt    – set when the gateway confirms payment (nullable).
//  CreatedAt     – creation timestamp.
//  UpdatedAt     – last update timestamp.
type Order struct {
	ID            uint64     // orders.id
	CheckoutRef   string     // orders.checkout_ref
	UserID        uint64     // orders.user_id
	PackageID     uint64     // orders.package_id
	CustomerName  string     // orders.customer_name
	CustomerEmail string     // orders.customer_email
	AmountCents   uint32     // orders.amount_cents
	Status        string     // orders.status
	ApprovedAt    *time.Time // orders.approved_at (nullable)
	CreatedAt     time.Time  // orders.created_at
	UpdatedAt     time.Time  // orders.updated_at
}

// PurchaseHistory is the append-only audit trail of webhook deliveries.
// Every callback inserts a row with the raw vendor status, including
// duplicates, so reconciliation always has the full delivery record.
//
// Fields:
//  ID          – primary key identifier.
//  CheckoutRef – gateway request reference number.
//  CheckoutID  – gateway-side checkout identifier.
//  RawStatus   – vendor status string exactly as delivered.
//  AmountCents – reported amount in cents.
//  ReceivedAt  – when the webhook arrived.
type PurchaseHistory struct {
	ID          uint64    // purchase_history.id
	CheckoutRef string    // purchase_history.checkout_ref
	CheckoutID  string    // purchase_history.checkout_id
	RawStatus   string    // purchase_history.raw_status
	AmountCents uint32    // purchase_history.amount_cents
	ReceivedAt  time.Time // purchase_history.received_at
}
