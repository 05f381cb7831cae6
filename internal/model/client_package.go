package model

import "time"

// ClientPackage statuses.  A user has at most one active row at any time;
// activation of a new purchase expires the previous one.
const (
	ClientPackageActive   = "active"
	ClientPackageExpired  = "expired"
	ClientPackageInactive = "inactive"
)

// Payment methods recorded on a ClientPackage.
const (
	PaymentMethodGateway = "gateway"
	PaymentMethodCash    = "cash"
)

// ClientPackage is one entry in the credit ledger: a purchased package
// instance owned by a user.  Title, credits and validity are snapshotted
// from the source package at purchase time so later catalog edits do not
// rewrite history.  Rows are never deleted.
//
// Fields:
//  ID            – primary key identifier.
//  UserID        – owning user.
//  PackageID     – source catalog package.
//  Title         – package title at purchase time.
//  Credits       – credit count at purchase time, nil = unlimited.
//  ValidityDays  – validity window at purchase time.
//  Status        – active, expired or inactive.
//  PaymentMethod – gateway or cash.
//  PurchasedAt   – when the purchase was confirmed.
//  ExpiresAt     – PurchasedAt plus ValidityDays.
//  ExpiryNotified – whether the expiry-soon reminder was already sent.
type ClientPackage struct {
	ID             uint64    // client_packages.id
	UserID         uint64    // client_packages.user_id
	PackageID      uint64    // client_packages.package_id
	Title          string    // client_packages.title
	Credits        *uint32   // client_packages.credits (nullable, nil = unlimited)
	ValidityDays   uint32    // client_packages.validity_days
	Status         string    // client_packages.status
	PaymentMethod  string    // client_packages.payment_method
	PurchasedAt    time.Time // client_packages.purchased_at
	ExpiresAt      time.Time // client_packages.expires_at
	ExpiryNotified bool      // client_packages.expiry_notified
}

// Unlimited reports whether the ledger entry grants unlimited sessions.
func (cp *ClientPackage) Unlimited() bool { return cp.Credits == nil }

// UserCredits is the single running credit counter per user.  The balance
// is overwritten when a new package activates and decremented per booking,
// independent of which ClientPackage granted the credits.
//
// Fields:
//  ID      – primary key identifier.
//  UserID  – owner (unique).
//  Balance – remaining class credits.
type UserCredits struct {
	ID      uint64 // user_credits.id
	UserID  uint64 // user_credits.user_id
	Balance uint32 // user_credits.balance
}
