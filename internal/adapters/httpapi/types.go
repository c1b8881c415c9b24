package httpapi

import (
	"github.com/oapi-codegen/nullable"

	"github.com/mergington-high/activities-api/internal/domain"
)

// ActivityResponse is the wire shape of one roster entry in GET /activities.
type ActivityResponse struct {
	Description     string   `json:"description"`
	Schedule        string   `json:"schedule"`
	MaxParticipants int      `json:"max_participants"`
	Participants    []string `json:"participants"`
}

// ActivitiesResponse maps activity name to its details.
type ActivitiesResponse map[string]ActivityResponse

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorBody struct {
	Code      string                            `json:"code"`
	Message   string                            `json:"message"`
	Details   nullable.Nullable[map[string]any] `json:"details,omitempty"`
	RequestId nullable.Nullable[string]         `json:"requestId,omitempty"`
}

// ErrorResponse carries the structured error plus a flat "detail" copy of the message,
// which is what the bundled frontend displays.
type ErrorResponse struct {
	Error  ErrorBody `json:"error"`
	Detail string    `json:"detail"`
}

func activitiesFromDomain(as []domain.Activity) ActivitiesResponse {
	out := make(ActivitiesResponse, len(as))
	for _, a := range as {
		ps := make([]string, 0, len(a.Participants))
		for _, p := range a.Participants {
			ps = append(ps, string(p))
		}
		out[string(a.Name)] = ActivityResponse{
			Description:     a.Description,
			Schedule:        a.Schedule,
			MaxParticipants: a.MaxParticipants,
			Participants:    ps,
		}
	}
	return out
}
