package repository

import (
	"context"
	"database/sql"

	"github.com/lunafit/studio-booking/internal/model"
)

// PackageRepo provides CRUD access to the admin-defined package catalog.
// Rows are soft-deleted so client_packages keep a resolvable source
// reference; all reads filter deleted rows out.
type PackageRepo struct {
	db *sql.DB
}

// NewPackageRepo returns a PackageRepo bound to the given database.
func NewPackageRepo(db *sql.DB) *PackageRepo { return &PackageRepo{db: db} }

const packageColumns = `id, title, price_cents, credits, validity_days,
	offered_for_clients, promo, created_at, updated_at, deleted_at`

func scanPackage(row interface{ Scan(...interface{}) error }) (model.Package, error) {
	var (
		p         model.Package
		credits   sql.NullInt64
		deletedAt sql.NullTime
	)
	err := row.Scan(&p.ID, &p.Title, &p.PriceCents, &credits, &p.ValidityDays,
		&p.OfferedForClients, &p.Promo, &p.CreatedAt, &p.UpdatedAt, &deletedAt)
	if err != nil {
		return model.Package{}, err
	}
	if credits.Valid {
		c := uint32(credits.Int64)
		p.Credits = &c
	}
	if deletedAt.Valid {
		t := deletedAt.Time
		p.DeletedAt = &t
	}
	return p, nil
}

// Create inserts a catalog package and populates its ID.
func (r *PackageRepo) Create(ctx context.Context, p *model.Package) error {
	var credits interface{}
	if p.Credits != nil {
		credits = *p.Credits
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO packages (title, price_cents, credits, validity_days, offered_for_clients, promo)
		 VALUES (?,?,?,?,?,?)`,
		p.Title, p.PriceCents, credits, p.ValidityDays, p.OfferedForClients, p.Promo)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// GetByID fetches a non-deleted package.
func (r *PackageRepo) GetByID(ctx context.Context, id uint64) (model.Package, error) {
	p, err := scanPackage(r.db.QueryRowContext(ctx,
		"SELECT "+packageColumns+" FROM packages WHERE id=? AND deleted_at IS NULL LIMIT 1", id))
	if err == sql.ErrNoRows {
		return model.Package{}, ErrPackageNotFound
	}
	return p, err
}

// List returns catalog packages, newest first. When offeredOnly is true
// only rows visible to clients are returned (the public catalog view).
func (r *PackageRepo) List(ctx context.Context, offeredOnly bool) ([]model.Package, error) {
	q := "SELECT " + packageColumns + " FROM packages WHERE deleted_at IS NULL"
	if offeredOnly {
		q += " AND offered_for_clients=1"
	}
	q += " ORDER BY created_at DESC"
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	packages := make([]model.Package, 0)
	for rows.Next() {
		p, err := scanPackage(rows)
		if err != nil {
			return nil, err
		}
		packages = append(packages, p)
	}
	return packages, rows.Err()
}

// Update rewrites the editable catalog fields of a package. Existing
// client_packages are unaffected because they carry their own snapshot.
func (r *PackageRepo) Update(ctx context.Context, p *model.Package) error {
	var credits interface{}
	if p.Credits != nil {
		credits = *p.Credits
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE packages SET title=?, price_cents=?, credits=?, validity_days=?,
		        offered_for_clients=?, promo=?, updated_at=NOW()
		 WHERE id=? AND deleted_at IS NULL`,
		p.Title, p.PriceCents, credits, p.ValidityDays, p.OfferedForClients, p.Promo, p.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrPackageNotFound
	}
	return nil
}

// Delete soft-deletes a package and hides it from the catalog.
func (r *PackageRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE packages SET deleted_at=NOW(), offered_for_clients=0 WHERE id=? AND deleted_at IS NULL", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrPackageNotFound
	}
	return nil
}
