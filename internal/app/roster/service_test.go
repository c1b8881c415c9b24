package roster

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	memactivityrepo "github.com/mergington-high/activities-api/internal/adapters/memory/activityrepo"
	memclock "github.com/mergington-high/activities-api/internal/adapters/memory/clock"
	"github.com/mergington-high/activities-api/internal/domain"
	"github.com/mergington-high/activities-api/internal/ports/out/activityrepo"
)

func newSeededService(t *testing.T) *Service {
	t.Helper()
	svc := NewService(memactivityrepo.NewRepo(), memclock.NewManualClock(time.Unix(100, 0)))
	require.NoError(t, svc.SeedDefaults(context.Background()))
	return svc
}

func TestService_ListActivities_IncludesSeededRoster(t *testing.T) {
	t.Parallel()

	svc := newSeededService(t)
	as, err := svc.ListActivities(context.Background())
	require.NoError(t, err)
	require.Len(t, as, len(domain.DefaultActivities()))

	var chess *domain.Activity
	for i := range as {
		if as[i].Name == "Chess Club" {
			chess = &as[i]
		}
	}
	require.NotNil(t, chess, "Chess Club missing from roster")
	require.Equal(t, []domain.Email{"michael@mergington.edu", "daniel@mergington.edu"}, chess.Participants)
}

func TestService_SignupThenDuplicate(t *testing.T) {
	t.Parallel()

	svc := newSeededService(t)
	ctx := context.Background()

	msg, err := svc.Signup(ctx, "Chess Club", "pytestuser@mergington.edu")
	require.NoError(t, err)
	require.Equal(t, "Signed up pytestuser@mergington.edu for Chess Club", msg)

	_, err = svc.Signup(ctx, "Chess Club", "pytestuser@mergington.edu")
	require.Error(t, err)
	require.True(t, IsConflict(err))
	ae := (*Error)(nil)
	require.True(t, errors.As(err, &ae))
	require.Equal(t, http.StatusBadRequest, ae.Status)
	require.Equal(t, CodeAlreadySignedUp, ae.Code)

	a, err := svc.GetActivity(ctx, "Chess Club")
	require.NoError(t, err)
	require.Equal(t, domain.Email("pytestuser@mergington.edu"), a.Participants[len(a.Participants)-1])
	require.Len(t, a.Participants, 3)
}

func TestService_UnregisterThenAgain(t *testing.T) {
	t.Parallel()

	svc := newSeededService(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, "Chess Club", "pytestuser@mergington.edu")
	require.NoError(t, err)

	msg, err := svc.Unregister(ctx, "Chess Club", "pytestuser@mergington.edu")
	require.NoError(t, err)
	require.Equal(t, "Unregistered pytestuser@mergington.edu from Chess Club", msg)

	_, err = svc.Unregister(ctx, "Chess Club", "pytestuser@mergington.edu")
	require.True(t, IsConflict(err), "err=%v", err)
	require.False(t, IsNotFound(err))
}

func TestService_UnknownActivity(t *testing.T) {
	t.Parallel()

	svc := newSeededService(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, "Underwater Basket Weaving", "a@mergington.edu")
	require.True(t, IsNotFound(err), "signup err=%v", err)

	_, err = svc.Unregister(ctx, "Underwater Basket Weaving", "a@mergington.edu")
	require.True(t, IsNotFound(err), "unregister err=%v", err)

	_, err = svc.GetActivity(ctx, "chess club")
	require.True(t, IsNotFound(err), "names are case-sensitive; err=%v", err)
}

func TestService_SignupRejectsFullActivity(t *testing.T) {
	t.Parallel()

	repo := memactivityrepo.NewRepo()
	svc := NewService(repo, memclock.NewManualClock(time.Unix(100, 0)))
	require.NoError(t, repo.Seed(context.Background(), []domain.Activity{
		{Name: "Tiny Club", MaxParticipants: 1, Participants: []domain.Email{"first@mergington.edu"}},
	}))

	_, err := svc.Signup(context.Background(), "Tiny Club", "second@mergington.edu")
	ae := (*Error)(nil)
	require.True(t, errors.As(err, &ae), "err=%v", err)
	require.Equal(t, CodeActivityFull, ae.Code)
	require.True(t, IsConflict(err))

	// Duplicate takes precedence over capacity.
	_, err = svc.Signup(context.Background(), "Tiny Club", "first@mergington.edu")
	require.True(t, errors.As(err, &ae))
	require.Equal(t, CodeAlreadySignedUp, ae.Code)
}

func TestService_BlankEmailIsValidationError(t *testing.T) {
	t.Parallel()

	svc := newSeededService(t)
	for _, email := range []string{"", "   "} {
		_, err := svc.Signup(context.Background(), "Chess Club", email)
		ae := (*Error)(nil)
		require.True(t, errors.As(err, &ae), "email=%q err=%v", email, err)
		require.Equal(t, http.StatusUnprocessableEntity, ae.Status)
		require.Equal(t, CodeValidation, ae.Code)

		_, err = svc.Unregister(context.Background(), "Chess Club", email)
		require.True(t, errors.As(err, &ae))
		require.Equal(t, CodeValidation, ae.Code)
	}
}

func TestService_TrimsEmail(t *testing.T) {
	t.Parallel()

	svc := newSeededService(t)
	msg, err := svc.Signup(context.Background(), "Math Club", "  ada@mergington.edu ")
	require.NoError(t, err)
	require.Equal(t, "Signed up ada@mergington.edu for Math Club", msg)

	_, err = svc.Unregister(context.Background(), "Math Club", "ada@mergington.edu")
	require.NoError(t, err)
}

func TestService_ListActivitiesReturnsCopies(t *testing.T) {
	t.Parallel()

	svc := newSeededService(t)
	as, err := svc.ListActivities(context.Background())
	require.NoError(t, err)
	as[0].Participants = append(as[0].Participants, "leak@mergington.edu")

	again, err := svc.GetActivity(context.Background(), as[0].Name)
	require.NoError(t, err)
	require.NotContains(t, again.Participants, domain.Email("leak@mergington.edu"))
}

type failingRepo struct {
	activityrepo.Repository
	err error
}

func (f failingRepo) GetByName(context.Context, domain.ActivityName) (domain.Activity, error) {
	return domain.Activity{}, f.err
}

func TestService_StorageErrorsPropagate(t *testing.T) {
	t.Parallel()

	boom := errors.New("connection reset")
	svc := NewService(failingRepo{err: boom}, memclock.NewManualClock(time.Unix(100, 0)))

	_, err := svc.Signup(context.Background(), "Chess Club", "a@mergington.edu")
	require.ErrorIs(t, err, boom)
	require.False(t, IsNotFound(err))
	require.False(t, IsConflict(err))
}

func TestService_ConcurrentSignupsNeverExceedCapacity(t *testing.T) {
	t.Parallel()

	repo := memactivityrepo.NewRepo()
	svc := NewService(repo, memclock.NewManualClock(time.Unix(100, 0)))
	ctx := context.Background()
	require.NoError(t, repo.Seed(ctx, []domain.Activity{{Name: "Math Club", MaxParticipants: 2}}))

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		signed  int
		other   []error
		rejects int
	)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Signup(ctx, "Math Club", fmt.Sprintf("s%d@mergington.edu", i))
			mu.Lock()
			defer mu.Unlock()
			ae := (*Error)(nil)
			switch {
			case err == nil:
				signed++
			case errors.As(err, &ae) && ae.Code == CodeActivityFull:
				rejects++
			default:
				other = append(other, err)
			}
		}(i)
	}
	wg.Wait()

	require.Empty(t, other)
	require.Equal(t, 2, signed)
	require.Equal(t, 30, rejects)

	a, err := svc.GetActivity(ctx, "Math Club")
	require.NoError(t, err)
	require.Len(t, a.Participants, 2)
}

type fullOnWriteRepo struct {
	activityrepo.Repository
}

func (fullOnWriteRepo) AddParticipant(context.Context, domain.ActivityName, domain.Email, time.Time) error {
	return activityrepo.ErrActivityFull
}

func TestService_RepositoryCapacityRejectionIsActivityFull(t *testing.T) {
	t.Parallel()

	repo := memactivityrepo.NewRepo()
	require.NoError(t, repo.Seed(context.Background(), domain.DefaultActivities()))
	svc := NewService(fullOnWriteRepo{Repository: repo}, memclock.NewManualClock(time.Unix(100, 0)))

	_, err := svc.Signup(context.Background(), "Chess Club", "late@mergington.edu")
	require.True(t, IsConflict(err), "err=%v", err)
	ae := (*Error)(nil)
	require.True(t, errors.As(err, &ae))
	require.Equal(t, CodeActivityFull, ae.Code)
	require.Equal(t, http.StatusBadRequest, ae.Status)
}
