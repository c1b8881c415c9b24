package httpapi

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	"github.com/mergington-high/activities-api/internal/app/roster"
	"github.com/mergington-high/activities-api/internal/domain"
	"github.com/mergington-high/activities-api/internal/platform/metrics"
)

const (
	opSignup     = "signup"
	opUnregister = "unregister"
)

// Server adapts the roster service to HTTP.
type Server struct {
	Roster  *roster.Service
	Metrics *metrics.Recorder
}

func NewServer(rosterSvc *roster.Service, rec *metrics.Recorder) *Server {
	return &Server{Roster: rosterSvc, Metrics: rec}
}

// ListActivities handles GET /activities.
func (s *Server) ListActivities(w http.ResponseWriter, r *http.Request) {
	as, err := s.Roster.ListActivities(r.Context())
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, activitiesFromDomain(as))
}

// SignupForActivity handles POST /activities/{activity_name}/signup?email=...
func (s *Server) SignupForActivity(w http.ResponseWriter, r *http.Request) {
	name, email, ok := bindMembershipParams(w, r)
	if !ok {
		s.Metrics.ObserveMutation(opSignup, roster.CodeValidation)
		return
	}
	msg, err := s.Roster.Signup(r.Context(), name, email)
	s.observe(opSignup, err)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: msg})
}

// UnregisterFromActivity handles DELETE /activities/{activity_name}/unregister?email=...
func (s *Server) UnregisterFromActivity(w http.ResponseWriter, r *http.Request) {
	name, email, ok := bindMembershipParams(w, r)
	if !ok {
		s.Metrics.ObserveMutation(opUnregister, roster.CodeValidation)
		return
	}
	msg, err := s.Roster.Unregister(r.Context(), name, email)
	s.observe(opUnregister, err)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: msg})
}

func (s *Server) observe(op string, err error) {
	if err == nil {
		s.Metrics.ObserveMutation(op, "ok")
		return
	}
	outcome := "error"
	if ae := (*roster.Error)(nil); errors.As(err, &ae) {
		outcome = ae.Code
	}
	s.Metrics.ObserveMutation(op, outcome)
}

// bindMembershipParams decodes the activity path parameter and the required email query parameter.
// On failure it writes a 422 and returns ok=false.
func bindMembershipParams(w http.ResponseWriter, r *http.Request) (domain.ActivityName, string, bool) {
	var name string
	if err := runtime.BindStyledParameterWithOptions("simple", "activity_name", chi.URLParam(r, "activity_name"), &name, runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationPath,
		Explode:       false,
		Required:      true,
	}); err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, roster.CodeValidation, "invalid activity_name", map[string]any{"activity_name": err.Error()})
		return "", "", false
	}

	var email string
	if err := runtime.BindQueryParameter("form", true, true, "email", r.URL.Query(), &email); err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, roster.CodeValidation, "email is required", map[string]any{"email": err.Error()})
		return "", "", false
	}
	return domain.ActivityName(name), email, true
}
