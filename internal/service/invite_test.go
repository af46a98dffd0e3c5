package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blomstudio/blom/internal/model"
	"github.com/blomstudio/blom/internal/repository"
)

type fakeInviteRepo struct {
	mu         sync.Mutex
	claimCalls int32
	claimFn    func(ctx context.Context, token, userID string) (*model.Invite, *model.Course, error)
	created    []*model.Invite
}

func (f *fakeInviteRepo) Create(_ context.Context, invite *model.Invite) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, invite)
	return nil
}

func (f *fakeInviteRepo) ByToken(context.Context, string) (*model.Invite, error) {
	return nil, repository.ErrInviteNotFound
}

func (f *fakeInviteRepo) ListByCourse(context.Context, string) ([]*model.Invite, error) {
	return nil, nil
}

func (f *fakeInviteRepo) Revoke(context.Context, string) error { return nil }

func (f *fakeInviteRepo) Claim(ctx context.Context, token, userID string) (*model.Invite, *model.Course, error) {
	atomic.AddInt32(&f.claimCalls, 1)
	return f.claimFn(ctx, token, userID)
}

type fakeCourseRepo struct {
	course *model.Course
}

func (f *fakeCourseRepo) ByID(context.Context, string) (*model.Course, error) {
	return f.byRef()
}

func (f *fakeCourseRepo) ByRef(context.Context, string) (*model.Course, error) {
	return f.byRef()
}

func (f *fakeCourseRepo) byRef() (*model.Course, error) {
	if f.course == nil {
		return nil, repository.ErrCourseNotFound
	}
	return f.course, nil
}

func (f *fakeCourseRepo) ListActive(context.Context) ([]*model.Course, error) { return nil, nil }

func (f *fakeCourseRepo) Create(context.Context, *model.Course) error { return nil }

func (f *fakeCourseRepo) LessonsByCourse(context.Context, string) ([]*model.Lesson, error) {
	return nil, nil
}

func testCourse() *model.Course {
	return &model.Course{ID: "course-1", Slug: "wreath-making", Title: "Wreath Making"}
}

func successfulClaim(course *model.Course) func(ctx context.Context, token, userID string) (*model.Invite, *model.Course, error) {
	return func(_ context.Context, token, userID string) (*model.Invite, *model.Course, error) {
		return &model.Invite{Token: token, CourseID: course.ID, RedeemedBy: &userID}, course, nil
	}
}

func failingClaim(err error) func(ctx context.Context, token, userID string) (*model.Invite, *model.Course, error) {
	return func(context.Context, string, string) (*model.Invite, *model.Course, error) {
		return nil, nil, err
	}
}

func newTestInviteService(repo *fakeInviteRepo) *InviteService {
	email := NewEmailService("", "noreply@example.com", "http://localhost", "Blom", true)
	return NewInviteService(repo, &fakeCourseRepo{course: testCourse()}, email, time.Second, 30)
}

func TestInviteServiceClaim(t *testing.T) {
	t.Run("Should return claimed with course details on success", func(t *testing.T) {
		repo := &fakeInviteRepo{claimFn: successfulClaim(testCourse())}
		svc := newTestInviteService(repo)

		result := svc.Claim(context.Background(), "user-1", "token-abc")

		assert.Equal(t, ClaimStatusClaimed, result.Status)
		assert.Equal(t, "course-1", result.CourseID)
		assert.Equal(t, "wreath-making", result.CourseSlug)
	})

	t.Run("Should not re-fire the claim once settled", func(t *testing.T) {
		repo := &fakeInviteRepo{claimFn: successfulClaim(testCourse())}
		svc := newTestInviteService(repo)

		first := svc.Claim(context.Background(), "user-1", "token-abc")
		second := svc.Claim(context.Background(), "user-1", "token-abc")

		assert.Equal(t, first, second)
		assert.Equal(t, int32(1), atomic.LoadInt32(&repo.claimCalls))
	})

	t.Run("Should reach the repository for a different user on the same token", func(t *testing.T) {
		repo := &fakeInviteRepo{claimFn: successfulClaim(testCourse())}
		svc := newTestInviteService(repo)

		svc.Claim(context.Background(), "user-1", "token-abc")

		repo.claimFn = failingClaim(repository.ErrInviteRedeemed)
		result := svc.Claim(context.Background(), "user-2", "token-abc")

		assert.Equal(t, ClaimStatusUsed, result.Status)
		assert.Equal(t, int32(2), atomic.LoadInt32(&repo.claimCalls))
	})

	t.Run("Should classify a redeemed invite as used", func(t *testing.T) {
		repo := &fakeInviteRepo{claimFn: failingClaim(repository.ErrInviteRedeemed)}
		svc := newTestInviteService(repo)

		result := svc.Claim(context.Background(), "user-1", "token-abc")
		assert.Equal(t, ClaimStatusUsed, result.Status)
	})

	t.Run("Should classify expired and unknown tokens as expired", func(t *testing.T) {
		for _, repoErr := range []error{repository.ErrInviteExpired, repository.ErrInviteNotFound} {
			repo := &fakeInviteRepo{claimFn: failingClaim(repoErr)}
			svc := newTestInviteService(repo)

			result := svc.Claim(context.Background(), "user-1", "token-abc")
			assert.Equal(t, ClaimStatusExpired, result.Status)
		}
	})

	t.Run("Should reject malformed tokens without a repository call", func(t *testing.T) {
		repo := &fakeInviteRepo{claimFn: successfulClaim(testCourse())}
		svc := newTestInviteService(repo)

		for _, token := range []string{"", "   ", "has space", strings.Repeat("x", 200)} {
			result := svc.Claim(context.Background(), "user-1", token)
			assert.Equal(t, ClaimStatusFailed, result.Status, "token %q", token)
		}
		assert.Equal(t, int32(0), atomic.LoadInt32(&repo.claimCalls))
	})

	t.Run("Should treat a timeout as failed and retryable", func(t *testing.T) {
		repo := &fakeInviteRepo{
			claimFn: func(ctx context.Context, _, _ string) (*model.Invite, *model.Course, error) {
				<-ctx.Done()
				return nil, nil, ctx.Err()
			},
		}
		email := NewEmailService("", "noreply@example.com", "http://localhost", "Blom", true)
		svc := NewInviteService(repo, &fakeCourseRepo{course: testCourse()}, email, 20*time.Millisecond, 30)

		result := svc.Claim(context.Background(), "user-1", "token-abc")
		require.Equal(t, ClaimStatusFailed, result.Status)

		// A later attempt goes back to the repository.
		repo.claimFn = successfulClaim(testCourse())
		retry := svc.Claim(context.Background(), "user-1", "token-abc")
		assert.Equal(t, ClaimStatusClaimed, retry.Status)
	})

	t.Run("Should treat a transport error as failed and retryable", func(t *testing.T) {
		repo := &fakeInviteRepo{claimFn: failingClaim(errors.New("connection reset"))}
		svc := newTestInviteService(repo)

		result := svc.Claim(context.Background(), "user-1", "token-abc")
		require.Equal(t, ClaimStatusFailed, result.Status)

		repo.claimFn = successfulClaim(testCourse())
		retry := svc.Claim(context.Background(), "user-1", "token-abc")
		assert.Equal(t, ClaimStatusClaimed, retry.Status)
		assert.Equal(t, int32(2), atomic.LoadInt32(&repo.claimCalls))
	})

	t.Run("Should share one flight between concurrent claims of the same key", func(t *testing.T) {
		release := make(chan struct{})
		repo := &fakeInviteRepo{
			claimFn: func(_ context.Context, token, userID string) (*model.Invite, *model.Course, error) {
				<-release
				course := testCourse()
				return &model.Invite{Token: token, CourseID: course.ID, RedeemedBy: &userID}, course, nil
			},
		}
		svc := newTestInviteService(repo)

		var wg sync.WaitGroup
		results := make([]ClaimResult, 2)
		for i := range results {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i] = svc.Claim(context.Background(), "user-1", "token-abc")
			}(i)
		}
		time.Sleep(50 * time.Millisecond)
		close(release)
		wg.Wait()

		assert.Equal(t, ClaimStatusClaimed, results[0].Status)
		assert.Equal(t, ClaimStatusClaimed, results[1].Status)
		assert.Equal(t, int32(1), atomic.LoadInt32(&repo.claimCalls))
	})

	t.Run("Should settle a race between two users as one claimed one used", func(t *testing.T) {
		var winner atomic.Bool
		repo := &fakeInviteRepo{
			claimFn: func(_ context.Context, token, userID string) (*model.Invite, *model.Course, error) {
				if winner.CompareAndSwap(false, true) {
					course := testCourse()
					return &model.Invite{Token: token, CourseID: course.ID, RedeemedBy: &userID}, course, nil
				}
				return nil, nil, repository.ErrInviteRedeemed
			},
		}
		svc := newTestInviteService(repo)

		var wg sync.WaitGroup
		results := make([]ClaimResult, 2)
		for i, user := range []string{"user-1", "user-2"} {
			wg.Add(1)
			go func(i int, user string) {
				defer wg.Done()
				results[i] = svc.Claim(context.Background(), user, "token-abc")
			}(i, user)
		}
		wg.Wait()

		statuses := []ClaimStatus{results[0].Status, results[1].Status}
		assert.Contains(t, statuses, ClaimStatusClaimed)
		assert.Contains(t, statuses, ClaimStatusUsed)
	})
}

func TestInviteServiceCreate(t *testing.T) {
	t.Run("Should create an invite with the default expiry", func(t *testing.T) {
		repo := &fakeInviteRepo{}
		svc := newTestInviteService(repo)

		invite, course, err := svc.Create(context.Background(), "wreath-making", "student@example.com", 0)
		require.NoError(t, err)

		assert.Equal(t, "course-1", invite.CourseID)
		assert.Equal(t, "wreath-making", course.Slug)
		assert.Len(t, invite.Token, 64)
		assert.WithinDuration(t, time.Now().AddDate(0, 0, 30), invite.ExpiresAt, time.Minute)
	})

	t.Run("Should reject an invalid email", func(t *testing.T) {
		repo := &fakeInviteRepo{}
		svc := newTestInviteService(repo)

		_, _, err := svc.Create(context.Background(), "wreath-making", "not-an-email", 0)
		assert.ErrorIs(t, err, ErrInvalidEmail)
		assert.Empty(t, repo.created)
	})

	t.Run("Should fail when the course does not exist", func(t *testing.T) {
		email := NewEmailService("", "noreply@example.com", "http://localhost", "Blom", true)
		svc := NewInviteService(&fakeInviteRepo{}, &fakeCourseRepo{}, email, time.Second, 30)

		_, _, err := svc.Create(context.Background(), "missing", "student@example.com", 0)
		assert.ErrorIs(t, err, repository.ErrCourseNotFound)
	})
}
