package roster

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/mergington-high/activities-api/internal/domain"
	"github.com/mergington-high/activities-api/internal/ports/out/activityrepo"
	clockport "github.com/mergington-high/activities-api/internal/ports/out/clock"
)

// Service owns the signup and unregister rules for the activity roster.
type Service struct {
	repo activityrepo.Repository
	clk  clockport.Clock
}

func NewService(repo activityrepo.Repository, clk clockport.Clock) *Service {
	return &Service{repo: repo, clk: clk}
}

// SeedDefaults loads the built-in roster. Activities that already exist are kept as-is.
func (s *Service) SeedDefaults(ctx context.Context) error {
	if err := s.repo.Seed(ctx, domain.DefaultActivities()); err != nil {
		return fmt.Errorf("seed roster: %w", err)
	}
	return nil
}

func (s *Service) ListActivities(ctx context.Context) ([]domain.Activity, error) {
	as, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Activity, 0, len(as))
	for _, a := range as {
		out = append(out, a.Clone())
	}
	return out, nil
}

func (s *Service) GetActivity(ctx context.Context, name domain.ActivityName) (domain.Activity, error) {
	a, err := s.repo.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, activityrepo.ErrNotFound) {
			return domain.Activity{}, notFound(string(name))
		}
		return domain.Activity{}, err
	}
	return a.Clone(), nil
}

// Signup adds email to the named activity and returns a confirmation message.
func (s *Service) Signup(ctx context.Context, name domain.ActivityName, rawEmail string) (string, error) {
	email := domain.NormalizeEmail(rawEmail)
	if email == "" {
		return "", emailRequired()
	}

	a, err := s.GetActivity(ctx, name)
	if err != nil {
		return "", err
	}
	if a.HasParticipant(email) {
		return "", alreadySignedUp(name, email)
	}
	if a.IsFull() {
		return "", activityFull(name, a.MaxParticipants)
	}

	if err := s.repo.AddParticipant(ctx, name, email, s.clk.Now()); err != nil {
		switch {
		case errors.Is(err, activityrepo.ErrNotFound):
			return "", notFound(string(name))
		case errors.Is(err, activityrepo.ErrAlreadyParticipant):
			// Lost a race with a concurrent signup for the same email.
			return "", alreadySignedUp(name, email)
		case errors.Is(err, activityrepo.ErrActivityFull):
			// Lost a race for the last spot.
			return "", activityFull(name, a.MaxParticipants)
		default:
			return "", fmt.Errorf("add participant: %w", err)
		}
	}
	return fmt.Sprintf("Signed up %s for %s", email, name), nil
}

// Unregister removes email from the named activity and returns a confirmation message.
func (s *Service) Unregister(ctx context.Context, name domain.ActivityName, rawEmail string) (string, error) {
	email := domain.NormalizeEmail(rawEmail)
	if email == "" {
		return "", emailRequired()
	}

	a, err := s.GetActivity(ctx, name)
	if err != nil {
		return "", err
	}
	if !a.HasParticipant(email) {
		return "", notSignedUp(name, email)
	}

	if err := s.repo.RemoveParticipant(ctx, name, email); err != nil {
		switch {
		case errors.Is(err, activityrepo.ErrNotFound):
			return "", notFound(string(name))
		case errors.Is(err, activityrepo.ErrNotParticipant):
			return "", notSignedUp(name, email)
		default:
			return "", fmt.Errorf("remove participant: %w", err)
		}
	}
	return fmt.Sprintf("Unregistered %s from %s", email, name), nil
}

func alreadySignedUp(name domain.ActivityName, email domain.Email) *Error {
	return &Error{
		Status:  http.StatusBadRequest,
		Code:    CodeAlreadySignedUp,
		Message: "Student is already signed up for this activity",
		Details: map[string]any{"activity": string(name), "email": string(email)},
	}
}

func activityFull(name domain.ActivityName, maxParticipants int) *Error {
	return &Error{
		Status:  http.StatusBadRequest,
		Code:    CodeActivityFull,
		Message: "Activity is full",
		Details: map[string]any{"activity": string(name), "maxParticipants": maxParticipants},
	}
}

func notSignedUp(name domain.ActivityName, email domain.Email) *Error {
	return &Error{
		Status:  http.StatusBadRequest,
		Code:    CodeNotSignedUp,
		Message: "Student is not signed up for this activity",
		Details: map[string]any{"activity": string(name), "email": string(email)},
	}
}
