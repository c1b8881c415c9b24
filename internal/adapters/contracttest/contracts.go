package contracttest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mergington-high/activities-api/internal/domain"
	activityrepoport "github.com/mergington-high/activities-api/internal/ports/out/activityrepo"
)

type CleanupFunc = func()

type ActivityRepoFactory func(t *testing.T) (activityrepoport.Repository, CleanupFunc)

// RunActivityRepo exercises the behaviour every activityrepo.Repository must share.
// Activity names are suffixed with a random id so durable backends can share a database.
func RunActivityRepo(t *testing.T, newRepo ActivityRepoFactory) {
	t.Helper()
	ctx := context.Background()

	repo, cleanup := newRepo(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	suffix := " " + uuid.NewString()[:8]
	chess := domain.ActivityName("Chess Club" + suffix)
	art := domain.ActivityName("Art Club" + suffix)
	math := domain.ActivityName("Math Club" + suffix)
	missing := domain.ActivityName("Missing" + suffix)

	if err := repo.Seed(ctx, []domain.Activity{
		{
			Name:            chess,
			Description:     "Learn strategies",
			Schedule:        "Fridays",
			MaxParticipants: 12,
			Participants:    []domain.Email{"michael@mergington.edu", "daniel@mergington.edu"},
		},
		{
			Name:            art,
			Description:     "Paint",
			Schedule:        "Thursdays",
			MaxParticipants: 15,
		},
		{
			Name:            math,
			Description:     "Solve problems",
			Schedule:        "Tuesdays",
			MaxParticipants: 2,
			Participants:    []domain.Email{"james@mergington.edu"},
		},
	}); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	// Deterministic list ordering by name.
	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var names []domain.ActivityName
	for _, a := range list {
		if a.Name == chess || a.Name == art {
			names = append(names, a.Name)
		}
	}
	if len(names) != 2 || names[0] != art || names[1] != chess {
		t.Fatalf("List order=%v, want [%s %s]", names, art, chess)
	}

	got, err := repo.GetByName(ctx, chess)
	if err != nil {
		t.Fatalf("GetByName: %v", err)
	}
	if got.Description != "Learn strategies" || got.Schedule != "Fridays" || got.MaxParticipants != 12 {
		t.Fatalf("unexpected activity: %+v", got)
	}
	requireParticipants(t, got, "michael@mergington.edu", "daniel@mergington.edu")

	if _, err := repo.GetByName(ctx, missing); !errors.Is(err, activityrepoport.ErrNotFound) {
		t.Fatalf("GetByName(missing) err=%v, want ErrNotFound", err)
	}
	if got, err := repo.GetByName(ctx, art); err != nil || len(got.Participants) != 0 {
		t.Fatalf("GetByName(empty activity) participants=%v err=%v", got.Participants, err)
	}

	// Signup order is preserved.
	base := time.Date(2024, 9, 1, 15, 30, 0, 0, time.UTC)
	if err := repo.AddParticipant(ctx, chess, "zoe@mergington.edu", base); err != nil {
		t.Fatalf("AddParticipant zoe: %v", err)
	}
	if err := repo.AddParticipant(ctx, chess, "adam@mergington.edu", base.Add(time.Second)); err != nil {
		t.Fatalf("AddParticipant adam: %v", err)
	}
	got, _ = repo.GetByName(ctx, chess)
	requireParticipants(t, got, "michael@mergington.edu", "daniel@mergington.edu", "zoe@mergington.edu", "adam@mergington.edu")

	if err := repo.AddParticipant(ctx, chess, "zoe@mergington.edu", base.Add(2*time.Second)); !errors.Is(err, activityrepoport.ErrAlreadyParticipant) {
		t.Fatalf("AddParticipant duplicate err=%v, want ErrAlreadyParticipant", err)
	}
	if err := repo.AddParticipant(ctx, missing, "zoe@mergington.edu", base); !errors.Is(err, activityrepoport.ErrNotFound) {
		t.Fatalf("AddParticipant missing err=%v, want ErrNotFound", err)
	}

	// Remove keeps the relative order of the rest.
	if err := repo.RemoveParticipant(ctx, chess, "daniel@mergington.edu"); err != nil {
		t.Fatalf("RemoveParticipant: %v", err)
	}
	got, _ = repo.GetByName(ctx, chess)
	requireParticipants(t, got, "michael@mergington.edu", "zoe@mergington.edu", "adam@mergington.edu")

	if err := repo.RemoveParticipant(ctx, chess, "daniel@mergington.edu"); !errors.Is(err, activityrepoport.ErrNotParticipant) {
		t.Fatalf("RemoveParticipant again err=%v, want ErrNotParticipant", err)
	}
	if err := repo.RemoveParticipant(ctx, missing, "daniel@mergington.edu"); !errors.Is(err, activityrepoport.ErrNotFound) {
		t.Fatalf("RemoveParticipant missing err=%v, want ErrNotFound", err)
	}

	// Re-signup after unregister goes to the end.
	if err := repo.AddParticipant(ctx, chess, "daniel@mergington.edu", base.Add(3*time.Second)); err != nil {
		t.Fatalf("AddParticipant re-signup: %v", err)
	}
	got, _ = repo.GetByName(ctx, chess)
	requireParticipants(t, got, "michael@mergington.edu", "zoe@mergington.edu", "adam@mergington.edu", "daniel@mergington.edu")

	// Capacity is enforced by the repository; a duplicate is reported before a full activity.
	if err := repo.AddParticipant(ctx, math, "benjamin@mergington.edu", base); err != nil {
		t.Fatalf("AddParticipant up to capacity: %v", err)
	}
	if err := repo.AddParticipant(ctx, math, "ella@mergington.edu", base); !errors.Is(err, activityrepoport.ErrActivityFull) {
		t.Fatalf("AddParticipant over capacity err=%v, want ErrActivityFull", err)
	}
	if err := repo.AddParticipant(ctx, math, "james@mergington.edu", base); !errors.Is(err, activityrepoport.ErrAlreadyParticipant) {
		t.Fatalf("AddParticipant duplicate on full activity err=%v, want ErrAlreadyParticipant", err)
	}
	if err := repo.RemoveParticipant(ctx, math, "james@mergington.edu"); err != nil {
		t.Fatalf("RemoveParticipant from full activity: %v", err)
	}
	if err := repo.AddParticipant(ctx, math, "ella@mergington.edu", base); err != nil {
		t.Fatalf("AddParticipant after a spot opened: %v", err)
	}
	got, _ = repo.GetByName(ctx, math)
	requireParticipants(t, got, "benjamin@mergington.edu", "ella@mergington.edu")

	// Re-seeding never overwrites existing activities.
	if err := repo.Seed(ctx, []domain.Activity{
		{Name: chess, Description: "changed", Schedule: "never", MaxParticipants: 1},
	}); err != nil {
		t.Fatalf("Seed again: %v", err)
	}
	got, _ = repo.GetByName(ctx, chess)
	if got.Description != "Learn strategies" || got.MaxParticipants != 12 || len(got.Participants) != 4 {
		t.Fatalf("re-seed overwrote activity: %+v", got)
	}
}

func requireParticipants(t *testing.T, a domain.Activity, want ...domain.Email) {
	t.Helper()
	if len(a.Participants) != len(want) {
		t.Fatalf("%s participants=%v, want %v", a.Name, a.Participants, want)
	}
	for i := range want {
		if a.Participants[i] != want[i] {
			t.Fatalf("%s participants=%v, want %v", a.Name, a.Participants, want)
		}
	}
}
