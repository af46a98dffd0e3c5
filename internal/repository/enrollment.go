package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/blomstudio/blom/internal/model"
)

type EnrollmentRepository interface {
	Exists(ctx context.Context, userID, courseID string) (bool, error)
	Create(ctx context.Context, userID, courseID string) error
	CoursesByUser(ctx context.Context, userID string) ([]*model.Course, error)
}

type enrollmentRepository struct {
	db *sqlx.DB
}

func NewEnrollmentRepository(db *sqlx.DB) EnrollmentRepository {
	return &enrollmentRepository{db: db}
}

func (r *enrollmentRepository) Exists(ctx context.Context, userID, courseID string) (bool, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM enrollments WHERE user_id = $1 AND course_id = $2
	`, userID, courseID)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create is idempotent: a second enrollment for the same (user, course) pair
// is silently ignored.
func (r *enrollmentRepository) Create(ctx context.Context, userID, courseID string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO enrollments (id, user_id, course_id, enrolled_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, course_id) DO NOTHING
	`, uuid.New().String(), userID, courseID, time.Now())
	return err
}

func (r *enrollmentRepository) CoursesByUser(ctx context.Context, userID string) ([]*model.Course, error) {
	courses := []*model.Course{}
	err := r.db.SelectContext(ctx, &courses, `
		SELECT c.* FROM courses c
		JOIN enrollments e ON e.course_id = c.id
		WHERE e.user_id = $1
		ORDER BY e.enrolled_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	return courses, nil
}
