package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/blomstudio/blom/internal/model"
)

var ErrCourseNotFound = errors.New("course not found")

type CourseRepository interface {
	ByID(ctx context.Context, id string) (*model.Course, error)
	// ByRef resolves a course by either its durable id or its slug.
	ByRef(ctx context.Context, ref string) (*model.Course, error)
	ListActive(ctx context.Context) ([]*model.Course, error)
	Create(ctx context.Context, course *model.Course) error
	LessonsByCourse(ctx context.Context, courseID string) ([]*model.Lesson, error)
}

type courseRepository struct {
	db *sqlx.DB
}

func NewCourseRepository(db *sqlx.DB) CourseRepository {
	return &courseRepository{db: db}
}

func (r *courseRepository) ByID(ctx context.Context, id string) (*model.Course, error) {
	var course model.Course
	err := r.db.GetContext(ctx, &course, `SELECT * FROM courses WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, ErrCourseNotFound
	}
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *courseRepository) ByRef(ctx context.Context, ref string) (*model.Course, error) {
	var course model.Course
	err := r.db.GetContext(ctx, &course, `SELECT * FROM courses WHERE id = $1 OR slug = $1`, ref)
	if err == sql.ErrNoRows {
		return nil, ErrCourseNotFound
	}
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *courseRepository) ListActive(ctx context.Context) ([]*model.Course, error) {
	courses := []*model.Course{}
	err := r.db.SelectContext(ctx, &courses, `SELECT * FROM courses WHERE active = true ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	return courses, nil
}

func (r *courseRepository) Create(ctx context.Context, course *model.Course) error {
	now := time.Now()
	if course.ID == "" {
		course.ID = uuid.New().String()
	}
	if course.CreatedAt.IsZero() {
		course.CreatedAt = now
	}
	course.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO courses (id, slug, title, cover_path, summary, description, level, tags,
			price_cents, duration_text, materials, open_enrollment, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`, course.ID, course.Slug, course.Title, course.CoverPath, course.Summary, course.Description,
		course.Level, course.Tags, course.PriceCents, course.DurationText, course.Materials,
		course.OpenEnrollment, course.Active, course.CreatedAt, course.UpdatedAt)

	return err
}

func (r *courseRepository) LessonsByCourse(ctx context.Context, courseID string) ([]*model.Lesson, error) {
	lessons := []*model.Lesson{}
	err := r.db.SelectContext(ctx, &lessons, `
		SELECT * FROM lessons WHERE course_id = $1 ORDER BY position
	`, courseID)
	if err != nil {
		return nil, err
	}
	return lessons, nil
}
