package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blomstudio/blom/internal/model"
	"github.com/blomstudio/blom/internal/repository"
)

type fakeProfileRepo struct {
	byUserID func(ctx context.Context, userID string) (*model.Profile, error)
	upserted *model.Profile
}

func (f *fakeProfileRepo) ByUserID(ctx context.Context, userID string) (*model.Profile, error) {
	if f.byUserID == nil {
		return nil, repository.ErrProfileNotFound
	}
	return f.byUserID(ctx, userID)
}

func (f *fakeProfileRepo) Upsert(_ context.Context, profile *model.Profile) error {
	f.upserted = profile
	return nil
}

func newTestProfileService(repo *fakeProfileRepo, timeout time.Duration) *ProfileService {
	email := NewEmailService("", "noreply@example.com", "http://localhost", "Blom", true)
	return NewProfileService(repo, email, timeout)
}

func TestProfileServiceFetch(t *testing.T) {
	t.Run("Should return the profile when present", func(t *testing.T) {
		repo := &fakeProfileRepo{
			byUserID: func(context.Context, string) (*model.Profile, error) {
				return &model.Profile{UserID: "user-1", FirstName: "Fleur"}, nil
			},
		}
		svc := newTestProfileService(repo, time.Second)

		profile, err := svc.Fetch(context.Background(), "user-1")
		require.NoError(t, err)
		assert.Equal(t, "Fleur", profile.FirstName)
	})

	t.Run("Should return nil nil when no profile row exists", func(t *testing.T) {
		svc := newTestProfileService(&fakeProfileRepo{}, time.Second)

		profile, err := svc.Fetch(context.Background(), "user-1")
		require.NoError(t, err)
		assert.Nil(t, profile)
	})

	t.Run("Should treat a fetch timeout as not provisioned", func(t *testing.T) {
		repo := &fakeProfileRepo{
			byUserID: func(ctx context.Context, _ string) (*model.Profile, error) {
				<-ctx.Done()
				return nil, ctx.Err()
			},
		}
		svc := newTestProfileService(repo, 20*time.Millisecond)

		profile, err := svc.Fetch(context.Background(), "user-1")
		require.NoError(t, err)
		assert.Nil(t, profile)
	})

	t.Run("Should not wait out a repo that ignores cancellation", func(t *testing.T) {
		repo := &fakeProfileRepo{
			byUserID: func(context.Context, string) (*model.Profile, error) {
				time.Sleep(2 * time.Second)
				return &model.Profile{UserID: "user-1"}, nil
			},
		}
		svc := newTestProfileService(repo, 20*time.Millisecond)

		started := time.Now()
		profile, err := svc.Fetch(context.Background(), "user-1")
		require.NoError(t, err)
		assert.Nil(t, profile)
		assert.Less(t, time.Since(started), time.Second)
	})

	t.Run("Should surface transport errors", func(t *testing.T) {
		repo := &fakeProfileRepo{
			byUserID: func(context.Context, string) (*model.Profile, error) {
				return nil, errors.New("connection refused")
			},
		}
		svc := newTestProfileService(repo, time.Second)

		_, err := svc.Fetch(context.Background(), "user-1")
		assert.Error(t, err)
	})
}

func TestProfileServiceSetup(t *testing.T) {
	user := &model.User{ID: "user-1", Email: "student@example.com"}

	t.Run("Should provision a complete profile", func(t *testing.T) {
		repo := &fakeProfileRepo{}
		svc := newTestProfileService(repo, time.Second)

		profile, err := svc.Setup(context.Background(), user, "Fleur", "Jansen", "fleur.j", "")
		require.NoError(t, err)

		assert.True(t, profile.IsComplete())
		assert.Equal(t, repo.upserted, profile)
	})

	t.Run("Should trim whitespace before validating", func(t *testing.T) {
		repo := &fakeProfileRepo{}
		svc := newTestProfileService(repo, time.Second)

		profile, err := svc.Setup(context.Background(), user, "  Fleur ", " Jansen ", " fleur.j ", "")
		require.NoError(t, err)
		assert.Equal(t, "Fleur", profile.FirstName)
		assert.Equal(t, "fleur.j", profile.Username)
	})

	t.Run("Should reject an invalid username", func(t *testing.T) {
		repo := &fakeProfileRepo{}
		svc := newTestProfileService(repo, time.Second)

		_, err := svc.Setup(context.Background(), user, "Fleur", "Jansen", "f!", "")
		assert.Error(t, err)
		assert.Nil(t, repo.upserted)
	})

	t.Run("Should reject empty names", func(t *testing.T) {
		repo := &fakeProfileRepo{}
		svc := newTestProfileService(repo, time.Second)

		_, err := svc.Setup(context.Background(), user, "", "Jansen", "fleur.j", "")
		assert.Error(t, err)
	})
}
