package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/blomstudio/blom/internal/await"
	"github.com/blomstudio/blom/internal/model"
	"github.com/blomstudio/blom/internal/repository"
	"github.com/blomstudio/blom/internal/validation"
)

type ClaimStatus string

const (
	// ClaimStatusClaimed: the invite was redeemed and the enrollment created.
	ClaimStatusClaimed ClaimStatus = "claimed"
	// ClaimStatusExpired: the invite is past its expiry, or the token is
	// unknown to the server.
	ClaimStatusExpired ClaimStatus = "expired"
	// ClaimStatusUsed: someone (possibly this user, possibly another tab or
	// another account) redeemed the invite first. A normal outcome under
	// racing claims, not a fault.
	ClaimStatusUsed ClaimStatus = "used"
	// ClaimStatusFailed: malformed token, timeout or transport failure.
	// Retryable; the claim may still succeed on a later attempt.
	ClaimStatusFailed ClaimStatus = "failed"
)

// ClaimResult is the single shape every claim attempt resolves to, so the
// caller has one rendering path per state instead of an exception path.
type ClaimResult struct {
	Status     ClaimStatus `json:"status"`
	CourseID   string      `json:"course_id,omitempty"`
	CourseSlug string      `json:"course_slug,omitempty"`
	Message    string      `json:"message,omitempty"`
}

const maxTokenLength = 128

type InviteService struct {
	inviteRepository repository.InviteRepository
	courseRepository repository.CourseRepository
	emailService     *EmailService
	claimTimeout     time.Duration
	defaultExpiry    int // days

	// One-shot latch per (user, token): terminal outcomes are cached so
	// re-render and retry churn never re-fires the remote claim, and
	// concurrent attempts for the same key share one flight. Keyed by token
	// and user, not component lifecycle: a different user claiming the same
	// token must still reach the server to learn it is used.
	flights singleflight.Group
	mu      sync.Mutex
	settled map[string]ClaimResult
}

func NewInviteService(
	inviteRepository repository.InviteRepository,
	courseRepository repository.CourseRepository,
	emailService *EmailService,
	claimTimeout time.Duration,
	defaultExpiryDays int,
) *InviteService {
	return &InviteService{
		inviteRepository: inviteRepository,
		courseRepository: courseRepository,
		emailService:     emailService,
		claimTimeout:     claimTimeout,
		defaultExpiry:    defaultExpiryDays,
		settled:          make(map[string]ClaimResult),
	}
}

// Claim redeems an invite token for the given user. It never returns an
// error: every outcome, including timeouts and malformed input, is a
// classified ClaimResult.
func (s *InviteService) Claim(ctx context.Context, userID, rawToken string) ClaimResult {
	token := strings.TrimSpace(rawToken)
	if !tokenLooksValid(token) {
		// No remote call for garbage input.
		return ClaimResult{Status: ClaimStatusFailed, Message: "missing or malformed invite token"}
	}

	key := userID + "\x00" + token

	s.mu.Lock()
	result, done := s.settled[key]
	s.mu.Unlock()
	if done {
		return result
	}

	v, _, _ := s.flights.Do(key, func() (any, error) {
		return s.claimOnce(ctx, userID, token, key), nil
	})
	return v.(ClaimResult)
}

func (s *InviteService) claimOnce(ctx context.Context, userID, token, key string) ClaimResult {
	type claimed struct {
		invite *model.Invite
		course *model.Course
	}

	c, outcome, err := await.WithTimeout(ctx, s.claimTimeout, func(ctx context.Context) (claimed, error) {
		invite, course, err := s.inviteRepository.Claim(ctx, token, userID)
		return claimed{invite: invite, course: course}, err
	})

	var result ClaimResult
	switch {
	case outcome == await.TimedOut:
		// A timeout is not proof the invite was used; leave it retryable.
		slog.Warn("invite claim timed out", "user_id", userID)
		result = ClaimResult{Status: ClaimStatusFailed, Message: "claim timed out, please try again"}
	case errors.Is(err, repository.ErrInviteRedeemed):
		result = ClaimResult{Status: ClaimStatusUsed, Message: "this invite has already been used"}
	case errors.Is(err, repository.ErrInviteExpired):
		result = ClaimResult{Status: ClaimStatusExpired, Message: "this invite has expired"}
	case errors.Is(err, repository.ErrInviteNotFound):
		result = ClaimResult{Status: ClaimStatusExpired, Message: "this invite is invalid or has expired"}
	case err != nil:
		slog.Error("invite claim failed", "error", err, "user_id", userID)
		result = ClaimResult{Status: ClaimStatusFailed, Message: "could not process the invite, please try again"}
	default:
		slog.Info("invite claimed", "user_id", userID, "course_id", c.course.ID, "course_slug", c.course.Slug)
		result = ClaimResult{Status: ClaimStatusClaimed, CourseID: c.course.ID, CourseSlug: c.course.Slug}
	}

	// Latch terminal outcomes only; failed attempts stay retryable.
	if result.Status != ClaimStatusFailed {
		s.mu.Lock()
		s.settled[key] = result
		s.mu.Unlock()
	}

	return result
}

// tokenLooksValid is a cheap shape check, not authoritative validation. The
// repository remains the single source of truth for token state.
func tokenLooksValid(token string) bool {
	if token == "" || len(token) > maxTokenLength {
		return false
	}
	return !strings.ContainsAny(token, " \t\r\n")
}

// Create issues a new invite for a course and emails the link. courseRef may
// be a slug or an id.
func (s *InviteService) Create(ctx context.Context, courseRef, email string, expiresInDays int) (*model.Invite, *model.Course, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	err := validation.ValidateEmail(email)
	if err != nil {
		return nil, nil, ErrInvalidEmail
	}

	course, err := s.courseRepository.ByRef(ctx, courseRef)
	if err != nil {
		return nil, nil, err
	}

	if expiresInDays <= 0 {
		expiresInDays = s.defaultExpiry
	}

	token, err := newInviteToken()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate invite token: %w", err)
	}

	invite := &model.Invite{
		CourseID:  course.ID,
		Email:     email,
		Token:     token,
		ExpiresAt: time.Now().AddDate(0, 0, expiresInDays),
	}

	err = s.inviteRepository.Create(ctx, invite)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create invite: %w", err)
	}

	err = s.emailService.SendInviteEmail(email, token, course.Title)
	if err != nil {
		// The invite exists; the admin can resend the link manually.
		slog.Warn("failed to send invite email", "error", err, "email", email, "course_id", course.ID)
	}

	slog.Info("invite created", "course_id", course.ID, "email", email, "expires_at", invite.ExpiresAt)
	return invite, course, nil
}

func (s *InviteService) ListByCourse(ctx context.Context, courseRef string) ([]*model.Invite, error) {
	course, err := s.courseRepository.ByRef(ctx, courseRef)
	if err != nil {
		return nil, err
	}
	return s.inviteRepository.ListByCourse(ctx, course.ID)
}

func (s *InviteService) Revoke(ctx context.Context, id string) error {
	return s.inviteRepository.Revoke(ctx, id)
}

func newInviteToken() (string, error) {
	bytes := make([]byte, 32)
	_, err := rand.Read(bytes)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
