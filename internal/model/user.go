package model

import "time"

// Role names stored in users.role.  Clients book classes and buy packages,
// instructors run classes and mark attendance, admins manage the catalogs
// and other users.
const (
	RoleClient     = "client"
	RoleInstructor = "instructor"
	RoleAdmin      = "admin"
)

// User represents an application user record as stored in the `users`
// table.  Each field corresponds to a column.  The json tags are omitted
// here because these structs are used internally by the repository layer;
// handlers define separate response types with appropriate JSON tags.
// Users are never hard-deleted while bookings reference them: removal
// sets DeletedAt and the row stays behind the soft-delete filter.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique email address.
//  PasswordHash – bcrypt hashed password.
//  Role         – one of RoleClient, RoleInstructor, RoleAdmin.
//  FirstName    – given name.
//  LastName     – family name.
//  Phone        – contact phone number (optional).
//  AvatarURL    – reference to an externally hosted avatar (optional).
//  Deactivated  – account switched off by an admin but kept visible.
//  DeletedAt    – soft-delete timestamp (null while the account exists).
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64     // users.id
	Email        string     // users.email
	PasswordHash string     // users.password_hash
	Role         string     // users.role
	FirstName    string     // users.first_name
	LastName     string     // users.last_name
	Phone        string     // users.phone
	AvatarURL    string     // users.avatar_url
	Deactivated  bool       // users.deactivated
	DeletedAt    *time.Time // users.deleted_at (nullable)
	CreatedAt    time.Time  // users.created_at
	UpdatedAt    time.Time  // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table.  Each
// refresh token belongs to a user and carries metadata for expiry and
// revocation.  The plain token is never stored; only its SHA-256 hash.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  TokenHash – SHA-256 hex digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  RevokedAt – when the token was revoked (null if still active).
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
