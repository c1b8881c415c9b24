package activityrepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mergington-high/activities-api/internal/domain"
	"github.com/mergington-high/activities-api/internal/ports/out/activityrepo"
)

// Repo is an in-memory implementation of activityrepo.Repository.
// It is safe for concurrent use.
type Repo struct {
	mu     sync.RWMutex
	byName map[domain.ActivityName]domain.Activity
}

func NewRepo() *Repo {
	return &Repo{
		byName: make(map[domain.ActivityName]domain.Activity),
	}
}

func (r *Repo) List(ctx context.Context) ([]domain.Activity, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Activity, 0, len(r.byName))
	for _, a := range r.byName {
		out = append(out, a.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *Repo) GetByName(ctx context.Context, name domain.ActivityName) (domain.Activity, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.byName[name]
	if !ok {
		return domain.Activity{}, activityrepo.ErrNotFound
	}
	return a.Clone(), nil
}

// AddParticipant appends in call order; the audit timestamp is not kept in memory.
func (r *Repo) AddParticipant(ctx context.Context, name domain.ActivityName, email domain.Email, _ time.Time) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byName[name]
	if !ok {
		return activityrepo.ErrNotFound
	}
	if a.HasParticipant(email) {
		return activityrepo.ErrAlreadyParticipant
	}
	if a.IsFull() {
		return activityrepo.ErrActivityFull
	}
	a.Participants = append(a.Participants, email)
	r.byName[name] = a
	return nil
}

func (r *Repo) RemoveParticipant(ctx context.Context, name domain.ActivityName, email domain.Email) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byName[name]
	if !ok {
		return activityrepo.ErrNotFound
	}
	kept := make([]domain.Email, 0, len(a.Participants))
	removed := false
	for _, p := range a.Participants {
		if p == email {
			removed = true
			continue
		}
		kept = append(kept, p)
	}
	if !removed {
		return activityrepo.ErrNotParticipant
	}
	a.Participants = kept
	r.byName[name] = a
	return nil
}

func (r *Repo) Seed(ctx context.Context, activities []domain.Activity) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range activities {
		if _, ok := r.byName[a.Name]; ok {
			continue
		}
		r.byName[a.Name] = dedupe(a.Clone())
	}
	return nil
}

func dedupe(a domain.Activity) domain.Activity {
	seen := make(map[domain.Email]struct{}, len(a.Participants))
	out := a.Participants[:0]
	for _, p := range a.Participants {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	a.Participants = out
	return a
}
