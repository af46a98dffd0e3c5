package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/blomstudio/blom/internal/model"
)

type countingCourseRepo struct {
	fakeCourseRepo
	byRefCalls int
}

func (c *countingCourseRepo) ByRef(ctx context.Context, ref string) (*model.Course, error) {
	c.byRefCalls++
	return c.fakeCourseRepo.ByRef(ctx, ref)
}

type fakeEnrollmentRepo struct {
	exists     bool
	err        error
	existCalls int
}

func (f *fakeEnrollmentRepo) Exists(context.Context, string, string) (bool, error) {
	f.existCalls++
	return f.exists, f.err
}

func (f *fakeEnrollmentRepo) Create(context.Context, string, string) error { return nil }

func (f *fakeEnrollmentRepo) CoursesByUser(context.Context, string) ([]*model.Course, error) {
	return nil, nil
}

func TestAccessResolver(t *testing.T) {
	student := &model.User{ID: "user-1", Email: "student@example.com"}

	t.Run("Should deny a nil user without touching the database", func(t *testing.T) {
		courses := &countingCourseRepo{fakeCourseRepo: fakeCourseRepo{course: testCourse()}}
		enrollments := &fakeEnrollmentRepo{exists: true}
		resolver := NewAccessResolver(courses, enrollments, nil)

		decision := resolver.HasAccess(context.Background(), nil, "wreath-making")

		assert.False(t, decision.Granted)
		assert.Equal(t, 0, courses.byRefCalls)
		assert.Equal(t, 0, enrollments.existCalls)
	})

	t.Run("Should grant an enrolled user", func(t *testing.T) {
		resolver := NewAccessResolver(
			&fakeCourseRepo{course: testCourse()},
			&fakeEnrollmentRepo{exists: true},
			nil,
		)

		decision := resolver.HasAccess(context.Background(), student, "wreath-making")

		assert.True(t, decision.Granted)
		assert.Equal(t, "enrollment", decision.Rule)
	})

	t.Run("Should deny a user without enrollment", func(t *testing.T) {
		resolver := NewAccessResolver(
			&fakeCourseRepo{course: testCourse()},
			&fakeEnrollmentRepo{exists: false},
			nil,
		)

		decision := resolver.HasAccess(context.Background(), student, "wreath-making")

		assert.False(t, decision.Granted)
		assert.Equal(t, "not enrolled", decision.Reason)
	})

	t.Run("Should let the admin allowlist bypass the enrollment lookup", func(t *testing.T) {
		enrollments := &fakeEnrollmentRepo{exists: false}
		resolver := NewAccessResolver(
			&fakeCourseRepo{course: testCourse()},
			enrollments,
			[]string{"user-1"},
		)

		decision := resolver.HasAccess(context.Background(), student, "wreath-making")

		assert.True(t, decision.Granted)
		assert.Equal(t, "admin-allowlist", decision.Rule)
		assert.Equal(t, 0, enrollments.existCalls)
	})

	t.Run("Should grant any authenticated user on an open-enrollment course", func(t *testing.T) {
		course := testCourse()
		course.OpenEnrollment = true
		enrollments := &fakeEnrollmentRepo{exists: false}
		resolver := NewAccessResolver(&fakeCourseRepo{course: course}, enrollments, nil)

		decision := resolver.HasAccess(context.Background(), student, "wreath-making")

		assert.True(t, decision.Granted)
		assert.Equal(t, "open-enrollment", decision.Rule)
		assert.Equal(t, 0, enrollments.existCalls)
	})

	t.Run("Should deny with a reason when the enrollment query fails", func(t *testing.T) {
		resolver := NewAccessResolver(
			&fakeCourseRepo{course: testCourse()},
			&fakeEnrollmentRepo{err: errors.New("connection refused")},
			nil,
		)

		decision := resolver.HasAccess(context.Background(), student, "wreath-making")

		assert.False(t, decision.Granted)
		assert.Contains(t, decision.Reason, "access check failed")
	})

	t.Run("Should deny when the course does not exist", func(t *testing.T) {
		resolver := NewAccessResolver(&fakeCourseRepo{}, &fakeEnrollmentRepo{}, nil)

		decision := resolver.HasAccess(context.Background(), student, "missing")

		assert.False(t, decision.Granted)
		assert.Equal(t, "course not found", decision.Reason)
	})
}
