package model

import "time"

// Package represents a purchasable credit bundle defined by an admin in
// the `packages` catalog.  A nil Credits value means the package grants
// unlimited sessions for its validity window.
//
// Fields:
//  ID                – primary key identifier.
//  Title             – display name of the bundle.
//  PriceCents        – price in cents.
//  Credits           – number of class credits granted, nil = unlimited.
//  ValidityDays      – days the package stays usable after purchase.
//  OfferedForClients – whether the package appears in the public catalog.
//  Promo             – marks promotional bundles.
//  CreatedAt         – creation timestamp.
//  UpdatedAt         – last update timestamp.
//  DeletedAt         – soft-delete timestamp (null while listed).
type Package struct {
	ID                uint64     // packages.id
	Title             string     // packages.title
	PriceCents        uint32     // packages.price_cents
	Credits           *uint32    // packages.credits (nullable, nil = unlimited)
	ValidityDays      uint32     // packages.validity_days
	OfferedForClients bool       // packages.offered_for_clients
	Promo             bool       // packages.promo
	CreatedAt         time.Time  // packages.created_at
	UpdatedAt         time.Time  // packages.updated_at
	DeletedAt         *time.Time // packages.deleted_at (nullable)
}
