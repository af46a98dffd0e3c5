package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/blomstudio/blom/internal/await"
	"github.com/blomstudio/blom/internal/model"
	"github.com/blomstudio/blom/internal/repository"
	"github.com/blomstudio/blom/internal/validation"
)

type ProfileService struct {
	profileRepository repository.ProfileRepository
	emailService      *EmailService
	fetchTimeout      time.Duration
}

func NewProfileService(profileRepository repository.ProfileRepository, emailService *EmailService, fetchTimeout time.Duration) *ProfileService {
	return &ProfileService{
		profileRepository: profileRepository,
		emailService:      emailService,
		fetchTimeout:      fetchTimeout,
	}
}

// Fetch resolves a user's profile. A missing profile ("not yet provisioned")
// and a fetch timeout both return (nil, nil): the caller routes the user to
// account setup instead of an error page. Only transport or permission
// problems surface as errors.
func (s *ProfileService) Fetch(ctx context.Context, userID string) (*model.Profile, error) {
	profile, outcome, err := await.WithTimeout(ctx, s.fetchTimeout, func(ctx context.Context) (*model.Profile, error) {
		return s.profileRepository.ByUserID(ctx, userID)
	})

	switch outcome {
	case await.OK:
		return profile, nil
	case await.TimedOut:
		slog.Warn("profile fetch timed out, treating as not provisioned", "user_id", userID)
		return nil, nil
	default:
		if errors.Is(err, repository.ErrProfileNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}
}

// Setup provisions or updates the profile from the account-setup screen. The
// welcome email goes out once the profile first becomes complete.
func (s *ProfileService) Setup(ctx context.Context, user *model.User, firstName, lastName, username, phone string) (*model.Profile, error) {
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	username = strings.TrimSpace(username)

	err := validation.ValidateName(firstName)
	if err != nil {
		return nil, fmt.Errorf("first name: %w", err)
	}
	err = validation.ValidateName(lastName)
	if err != nil {
		return nil, fmt.Errorf("last name: %w", err)
	}
	err = validation.ValidateUsername(username)
	if err != nil {
		return nil, err
	}

	existing, err := s.Fetch(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	profile := existing
	if profile == nil {
		profile = &model.Profile{UserID: user.ID}
	}
	wasComplete := existing != nil && existing.IsComplete()

	profile.FirstName = firstName
	profile.LastName = lastName
	profile.Username = username
	profile.Phone = strings.TrimSpace(phone)

	err = s.profileRepository.Upsert(ctx, profile)
	if err != nil {
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}

	if !wasComplete && profile.IsComplete() {
		err = s.emailService.SendWelcomeEmail(user.Email, profile.FirstName)
		if err != nil {
			slog.Warn("failed to send welcome email", "error", err, "email", user.Email)
		}
		slog.Info("account setup completed", "user_id", user.ID, "username", profile.Username)
	}

	return profile, nil
}
