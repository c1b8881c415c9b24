package activityrepo

import "errors"

var (
	// ErrNotFound indicates the requested activity does not exist.
	ErrNotFound = errors.New("activity not found")

	// ErrAlreadyParticipant indicates the email is already signed up for the activity.
	ErrAlreadyParticipant = errors.New("participant already signed up")

	// ErrNotParticipant indicates the email is not signed up for the activity.
	ErrNotParticipant = errors.New("participant not signed up")

	// ErrActivityFull indicates the activity has reached its capacity.
	ErrActivityFull = errors.New("activity is full")
)
