package model

import "time"

const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

// Profile holds the user-editable metadata for an account. A profile row may
// not exist yet for a freshly created user; that absence is an ordinary state
// (the account-setup flow provisions it), not an error.
type Profile struct {
	ID         string    `db:"id" json:"id"`
	UserID     string    `db:"user_id" json:"user_id"`
	FirstName  string    `db:"first_name" json:"first_name"`
	LastName   string    `db:"last_name" json:"last_name"`
	Username   string    `db:"username" json:"username"`
	Phone      string    `db:"phone" json:"phone,omitempty"`
	AvatarPath string    `db:"avatar_path" json:"avatar_path,omitempty"`
	Role       string    `db:"role" json:"role"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// IsComplete reports whether the profile carries enough data to skip the
// account-setup screen: first name, last name and username all set.
func (p *Profile) IsComplete() bool {
	return p.FirstName != "" && p.LastName != "" && p.Username != ""
}

func (p *Profile) IsAdmin() bool {
	return p.Role == RoleAdmin
}
