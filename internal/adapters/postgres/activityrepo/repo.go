package activityrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/mergington-high/activities-api/internal/adapters/postgres"
	"github.com/mergington-high/activities-api/internal/domain"
	"github.com/mergington-high/activities-api/internal/ports/out/activityrepo"
)

// Repo is a Postgres implementation of activityrepo.Repository.
type Repo struct {
	pool *pgxpool.Pool

	now func() time.Time
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool, now: func() time.Time { return time.Now().UTC() }}
}

func (r *Repo) List(ctx context.Context) ([]domain.Activity, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	rows, err := r.pool.Query(ctx, `
		SELECT name, description, schedule, max_participants
		FROM activities
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, err
	}
	out, err := pgx.CollectRows(rows, scanActivity)
	if err != nil {
		return nil, err
	}

	prow, err := r.pool.Query(ctx, `
		SELECT a.name, p.email
		FROM activity_participants p
		JOIN activities a ON a.id = p.activity_id
		ORDER BY a.name ASC, p.seq ASC
	`)
	if err != nil {
		return nil, err
	}
	defer prow.Close()

	idx := make(map[domain.ActivityName]int, len(out))
	for i, a := range out {
		idx[a.Name] = i
	}
	for prow.Next() {
		var name, email string
		if err := prow.Scan(&name, &email); err != nil {
			return nil, err
		}
		if i, ok := idx[domain.ActivityName(name)]; ok {
			out[i].Participants = append(out[i].Participants, domain.Email(email))
		}
	}
	if err := prow.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) GetByName(ctx context.Context, name domain.ActivityName) (domain.Activity, error) {
	if r.pool == nil {
		return domain.Activity{}, errors.New("nil postgres pool")
	}
	rows, err := r.pool.Query(ctx, `
		SELECT name, description, schedule, max_participants
		FROM activities
		WHERE name = $1
	`, string(name))
	if err != nil {
		return domain.Activity{}, err
	}
	a, err := pgx.CollectExactlyOneRow(rows, scanActivity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Activity{}, activityrepo.ErrNotFound
		}
		return domain.Activity{}, err
	}

	prow, err := r.pool.Query(ctx, `
		SELECT p.email
		FROM activity_participants p
		JOIN activities a ON a.id = p.activity_id
		WHERE a.name = $1
		ORDER BY p.seq ASC
	`, string(name))
	if err != nil {
		return domain.Activity{}, err
	}
	emails, err := pgx.CollectRows(prow, pgx.RowTo[string])
	if err != nil {
		return domain.Activity{}, err
	}
	for _, e := range emails {
		a.Participants = append(a.Participants, domain.Email(e))
	}
	return a, nil
}

func (r *Repo) AddParticipant(ctx context.Context, name domain.ActivityName, email domain.Email, at time.Time) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var (
			id              uuid.UUID
			maxParticipants int
		)
		// The row lock serializes signups per activity so the capacity check holds.
		err := tx.QueryRow(ctx, `
			SELECT id, max_participants
			FROM activities
			WHERE name = $1
			FOR UPDATE
		`, string(name)).Scan(&id, &maxParticipants)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return activityrepo.ErrNotFound
			}
			return err
		}

		var taken, count int
		if err := tx.QueryRow(ctx, `
			SELECT count(*) FILTER (WHERE email = $2), count(*)
			FROM activity_participants
			WHERE activity_id = $1
		`, id, string(email)).Scan(&taken, &count); err != nil {
			return err
		}
		if taken > 0 {
			return activityrepo.ErrAlreadyParticipant
		}
		if maxParticipants > 0 && count >= maxParticipants {
			return activityrepo.ErrActivityFull
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO activity_participants (activity_id, email, signed_up_at)
			VALUES ($1, $2, $3)
		`, id, string(email), at.UTC()); err != nil {
			if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.UniqueViolationCode {
				return activityrepo.ErrAlreadyParticipant
			}
			return err
		}
		return nil
	})
}

func (r *Repo) RemoveParticipant(ctx context.Context, name domain.ActivityName, email domain.Email) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM activity_participants p
		USING activities a
		WHERE p.activity_id = a.id AND a.name = $1 AND p.email = $2
	`, string(name), string(email))
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	ok, err := r.activityExists(ctx, name)
	if err != nil {
		return err
	}
	if !ok {
		return activityrepo.ErrNotFound
	}
	return activityrepo.ErrNotParticipant
}

func (r *Repo) Seed(ctx context.Context, activities []domain.Activity) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	now := r.now()
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		for _, a := range activities {
			var id uuid.UUID
			err := tx.QueryRow(ctx, `
				INSERT INTO activities (id, name, description, schedule, max_participants)
				VALUES ($1, $2, $3, $4, $5)
				ON CONFLICT ON CONSTRAINT activities_name_unique DO NOTHING
				RETURNING id
			`, uuid.New(), string(a.Name), a.Description, a.Schedule, a.MaxParticipants).Scan(&id)
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					// Already seeded; keep current state.
					continue
				}
				if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.CheckViolationCode {
					return fmt.Errorf("seed activity %q: max_participants must be >= 0: %w", a.Name, err)
				}
				return fmt.Errorf("seed activity %q: %w", a.Name, err)
			}
			for _, p := range a.Participants {
				if _, err := tx.Exec(ctx, `
					INSERT INTO activity_participants (activity_id, email, signed_up_at)
					VALUES ($1, $2, $3)
					ON CONFLICT ON CONSTRAINT activity_participants_unique DO NOTHING
				`, id, string(p), now); err != nil {
					return fmt.Errorf("seed participant %q for %q: %w", p, a.Name, err)
				}
			}
		}
		return nil
	})
}

func (r *Repo) activityExists(ctx context.Context, name domain.ActivityName) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM activities WHERE name = $1)`, string(name)).Scan(&ok)
	return ok, err
}

func scanActivity(row pgx.CollectableRow) (domain.Activity, error) {
	var (
		a    domain.Activity
		name string
	)
	if err := row.Scan(&name, &a.Description, &a.Schedule, &a.MaxParticipants); err != nil {
		return domain.Activity{}, err
	}
	a.Name = domain.ActivityName(name)
	return a, nil
}
