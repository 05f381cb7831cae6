package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/lunafit/studio-booking/internal/model"
	"github.com/lunafit/studio-booking/internal/utils"
)

// UserRepo provides persistence for user profiles. All read methods
// filter out soft-deleted rows; deletion itself only ever sets
// deleted_at so historical bookings keep a valid reference.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = `id, email, password_hash, role, first_name, last_name,
	phone, avatar_url, deactivated, deleted_at, created_at, updated_at`

func scanUser(row interface{ Scan(...interface{}) error }) (model.User, error) {
	var (
		u         model.User
		phone     sql.NullString
		avatar    sql.NullString
		deletedAt sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.FirstName,
		&u.LastName, &phone, &avatar, &u.Deactivated, &deletedAt,
		&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return model.User{}, err
	}
	u.Phone = phone.String
	u.AvatarURL = avatar.String
	if deletedAt.Valid {
		t := deletedAt.Time
		u.DeletedAt = &t
	}
	return u, nil
}

// Create inserts a user and returns its ID. The password is hashed with
// bcrypt at the given cost before storage.
func (r *UserRepo) Create(ctx context.Context, email, password, role, firstName, lastName string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, role, first_name, last_name) VALUES (?,?,?,?,?)",
		email, hash, role, firstName, lastName)
	if err != nil {
		// MySQL duplicate-key error code.
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a non-deleted user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? AND deleted_at IS NULL LIMIT 1", email))
}

// GetByID fetches a non-deleted user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? AND deleted_at IS NULL LIMIT 1", id))
}

// UpdateProfile writes the self-editable profile fields. Role and email
// stay fixed here; admins use dedicated operations for those.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, firstName, lastName, phone, avatarURL string) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE users SET first_name=?, last_name=?, phone=?, avatar_url=?, updated_at=NOW()
		 WHERE id=? AND deleted_at IS NULL`,
		firstName, lastName, phone, avatarURL, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SearchClients returns client-role users whose name or email contains
// the query string, newest first. Soft-deleted rows are excluded;
// deactivated accounts remain visible so admins can reactivate them.
func (r *UserRepo) SearchClients(ctx context.Context, query string, limit int) ([]model.User, error) {
	if limit <= 0 || limit > 100 {
		limit = 25
	}
	like := "%" + strings.TrimSpace(query) + "%"
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE role=? AND deleted_at IS NULL
		   AND (email LIKE ? OR first_name LIKE ? OR last_name LIKE ?)
		 ORDER BY created_at DESC LIMIT ?`,
		model.RoleClient, like, like, like, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	users := make([]model.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// SetDeactivated flips the deactivated flag on a user.
func (r *UserRepo) SetDeactivated(ctx context.Context, id uint64, deactivated bool) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET deactivated=?, updated_at=NOW() WHERE id=? AND deleted_at IS NULL",
		deactivated, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SoftDelete marks a user deleted unless active bookings still reference
// them, in which case ErrConflict is returned. The row is retained so
// booking history keeps resolving.
func (r *UserRepo) SoftDelete(ctx context.Context, id uint64) error {
	var active int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM class_bookings WHERE user_id=? AND status=?",
		id, model.BookingActive).Scan(&active)
	if err != nil {
		return err
	}
	if active > 0 {
		return ErrConflict
	}
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET deleted_at=NOW(), deactivated=1 WHERE id=? AND deleted_at IS NULL", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
