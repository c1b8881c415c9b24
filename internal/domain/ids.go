package domain

// ActivityName is the unique key of an activity (e.g. "Chess Club").
// Names are matched exactly; no case folding is applied.
type ActivityName string

// Email identifies a participant. It is treated as an opaque string:
// the service only checks that it is present.
type Email string
