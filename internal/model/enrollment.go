package model

import "time"

// Enrollment is the durable grant of access from a user to a course. Row
// existence is what grants access; at most one row per (user, course) pair.
type Enrollment struct {
	ID         string    `db:"id" json:"id"`
	UserID     string    `db:"user_id" json:"user_id"`
	CourseID   string    `db:"course_id" json:"course_id"`
	EnrolledAt time.Time `db:"enrolled_at" json:"enrolled_at"`
}
