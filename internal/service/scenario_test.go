package service

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blomstudio/blom/internal/db"
	"github.com/blomstudio/blom/internal/model"
	"github.com/blomstudio/blom/internal/repository"
)

// End-to-end claim and access flow against real repositories and an
// in-memory database.

func newScenarioDB(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := sqlx.Connect("sqlite", ":memory:")
	require.NoError(t, err)
	database.SetMaxOpenConns(1)
	t.Cleanup(func() { database.Close() })

	err = db.RunMigrations(database.DB, "sqlite")
	require.NoError(t, err)

	return database
}

func TestClaimAndAccessScenario(t *testing.T) {
	ctx := context.Background()
	database := newScenarioDB(t)

	users := repository.NewUserRepository(database)
	courses := repository.NewCourseRepository(database)
	enrollments := repository.NewEnrollmentRepository(database)
	invites := repository.NewInviteRepository(database)

	course := &model.Course{Slug: "flower-workshop", Title: "Flower Workshop", Active: true}
	require.NoError(t, courses.Create(ctx, course))

	u1 := &model.User{ID: "u1", Email: "u1@example.com"}
	u2 := &model.User{ID: "u2", Email: "u2@example.com"}
	require.NoError(t, users.Create(ctx, u1))
	require.NoError(t, users.Create(ctx, u2))

	require.NoError(t, invites.Create(ctx, &model.Invite{
		CourseID:  course.ID,
		Email:     u1.Email,
		Token:     "abc123",
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}))

	email := NewEmailService("", "noreply@example.com", "http://localhost", "Blom", true)
	inviteService := NewInviteService(invites, courses, email, time.Second, 30)
	resolver := NewAccessResolver(courses, enrollments, nil)

	t.Run("Should enroll the first claimant and grant access by slug", func(t *testing.T) {
		result := inviteService.Claim(ctx, u1.ID, "abc123")
		require.Equal(t, ClaimStatusClaimed, result.Status)
		assert.Equal(t, "flower-workshop", result.CourseSlug)

		decision := resolver.HasAccess(ctx, u1, "flower-workshop")
		assert.True(t, decision.Granted)
	})

	t.Run("Should turn away the second claimant without access", func(t *testing.T) {
		result := inviteService.Claim(ctx, u2.ID, "abc123")
		assert.Equal(t, ClaimStatusUsed, result.Status)

		decision := resolver.HasAccess(ctx, u2, "flower-workshop")
		assert.False(t, decision.Granted)
	})

	t.Run("Should not enroll on an expired invite", func(t *testing.T) {
		require.NoError(t, invites.Create(ctx, &model.Invite{
			CourseID:  course.ID,
			Email:     u2.Email,
			Token:     "stale99",
			ExpiresAt: time.Now().Add(-time.Minute),
		}))

		result := inviteService.Claim(ctx, u2.ID, "stale99")
		assert.Equal(t, ClaimStatusExpired, result.Status)

		enrolled, err := enrollments.Exists(ctx, u2.ID, course.ID)
		require.NoError(t, err)
		assert.False(t, enrolled)
	})
}
