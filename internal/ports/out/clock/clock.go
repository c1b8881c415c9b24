package clock

import "time"

// Clock stamps participant signups so every backend can return participants in signup order.
type Clock interface {
	Now() time.Time
}
