package profile

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/mahatati/mahatati/internal/api/models"
)

// Service provides profile operations.
type Service struct {
	repo   Repository
	logger zerolog.Logger
	now    func() time.Time
}

// NewService creates a new profile service.
func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger.With().Str("component", "profile_service").Logger(),
		now:    time.Now,
	}
}

// Get returns the user's profile. A user who never saved one gets an empty
// profile rather than an error.
func (s *Service) Get(ctx context.Context, userID string) (*models.Profile, error) {
	p, err := s.repo.Get(ctx, userID)
	if errors.Is(err, ErrProfileNotFound) {
		return &models.Profile{ID: userID}, nil
	}
	if err != nil {
		return nil, err
	}
	return toAPIProfile(p), nil
}

// Update applies the non-nil input fields. Blank values clear the field.
func (s *Service) Update(ctx context.Context, userID string, input *models.ProfileInput) (*models.Profile, error) {
	if fieldErrors := validateInput(input); len(fieldErrors) > 0 {
		return nil, &ValidationError{Errors: fieldErrors}
	}

	now := s.now()
	p, err := s.repo.Get(ctx, userID)
	switch {
	case errors.Is(err, ErrProfileNotFound):
		p = &Profile{ID: userID, CreatedAt: now}
	case err != nil:
		return nil, err
	}

	if input.FullName != nil {
		p.FullName = blankToNil(*input.FullName)
	}
	if input.Phone != nil {
		p.Phone = blankToNil(*input.Phone)
	}
	p.UpdatedAt = now

	if err := s.repo.Upsert(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Debug().Str("user_id", userID).Msg("profile updated")
	return toAPIProfile(p), nil
}

// Count returns the number of owners with a profile.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

func validateInput(input *models.ProfileInput) []models.FieldError {
	var errs []models.FieldError
	if input.FullName != nil && utf8.RuneCountInString(strings.TrimSpace(*input.FullName)) > MaxFullNameLength {
		errs = append(errs, tooLong("fullName", MaxFullNameLength))
	}
	if input.Phone != nil && utf8.RuneCountInString(strings.TrimSpace(*input.Phone)) > MaxPhoneLength {
		errs = append(errs, tooLong("phone", MaxPhoneLength))
	}
	return errs
}

func tooLong(field string, maxLen int) models.FieldError {
	return models.FieldError{
		Field:   field,
		Message: "must be at most " + strconv.Itoa(maxLen) + " characters",
		Code:    "TOO_LONG",
	}
}

func blankToNil(s string) *string {
	v := strings.TrimSpace(s)
	if v == "" {
		return nil
	}
	return &v
}

func toAPIProfile(p *Profile) *models.Profile {
	created := models.Timestamp(p.CreatedAt)
	updated := models.Timestamp(p.UpdatedAt)
	return &models.Profile{
		ID:        p.ID,
		FullName:  p.FullName,
		Phone:     p.Phone,
		CreatedAt: &created,
		UpdatedAt: &updated,
	}
}

// ValidationError represents validation errors.
type ValidationError struct {
	Errors []models.FieldError
}

func (e *ValidationError) Error() string {
	return "validation failed"
}
