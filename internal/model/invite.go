package model

import "time"

// Invite is a single-use, expiring token granting enrollment in one course.
// It is immutable once redeemed.
type Invite struct {
	ID         string     `db:"id" json:"id"`
	CourseID   string     `db:"course_id" json:"course_id"`
	Email      string     `db:"email" json:"email"`
	Token      string     `db:"token" json:"token"`
	ExpiresAt  time.Time  `db:"expires_at" json:"expires_at"`
	RedeemedAt *time.Time `db:"redeemed_at" json:"redeemed_at,omitempty"`
	RedeemedBy *string    `db:"redeemed_by" json:"redeemed_by,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}

func (i *Invite) IsExpired() bool {
	return time.Now().After(i.ExpiresAt)
}

func (i *Invite) IsRedeemed() bool {
	return i.RedeemedAt != nil
}

// Status returns a human-readable state for admin listings.
func (i *Invite) Status() string {
	if i.IsRedeemed() {
		return "redeemed"
	}
	if i.IsExpired() {
		return "expired"
	}
	return "pending"
}
