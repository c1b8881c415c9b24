package activityrepo

import (
	"context"
	"time"

	"github.com/mergington-high/activities-api/internal/domain"
)

// Repository provides access to the activity roster.
//
// Activities are never created or deleted through this interface after seeding;
// only participant membership mutates.
//
// Result ordering expectations:
// - List returns activities ordered by name ascending.
// - Participants are returned in signup order.
type Repository interface {
	List(ctx context.Context) ([]domain.Activity, error)

	// GetByName returns ErrNotFound if no activity has that name.
	GetByName(ctx context.Context, name domain.ActivityName) (domain.Activity, error)

	// AddParticipant appends email to the activity's participants.
	// It returns ErrNotFound, ErrAlreadyParticipant or ErrActivityFull, checked in that
	// order. The capacity check and the append are atomic, so concurrent signups
	// never push an activity past MaxParticipants.
	//
	// at is stored as an audit timestamp only; nothing reads it back and ordering
	// does not depend on it.
	AddParticipant(ctx context.Context, name domain.ActivityName, email domain.Email, at time.Time) error

	// RemoveParticipant returns ErrNotFound or ErrNotParticipant.
	RemoveParticipant(ctx context.Context, name domain.ActivityName, email domain.Email) error

	// Seed inserts activities that do not exist yet, with their initial participants.
	// Existing activities (and their current participants) are left untouched.
	Seed(ctx context.Context, activities []domain.Activity) error
}
