package domain

// Activity is an extracurricular offering and its current participants.
type Activity struct {
	Name            ActivityName
	Description     string
	Schedule        string
	MaxParticipants int

	// Participants are kept in signup order.
	Participants []Email
}

// HasParticipant reports whether email is already signed up.
func (a Activity) HasParticipant(email Email) bool {
	for _, p := range a.Participants {
		if p == email {
			return true
		}
	}
	return false
}

// IsFull reports whether the activity has reached its capacity.
// A non-positive MaxParticipants means unlimited.
func (a Activity) IsFull() bool {
	return a.MaxParticipants > 0 && len(a.Participants) >= a.MaxParticipants
}

// Clone returns a deep copy so callers cannot mutate stored state.
func (a Activity) Clone() Activity {
	out := a
	out.Participants = append([]Email(nil), a.Participants...)
	return out
}
