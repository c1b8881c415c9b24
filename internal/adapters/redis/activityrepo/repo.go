package activityrepo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mergington-high/activities-api/internal/domain"
	"github.com/mergington-high/activities-api/internal/ports/out/activityrepo"
)

// Key layout, relative to the configured prefix:
//
//	activities                 SET   of activity names
//	activity:{name}            HASH  name, description, schedule, max_participants
//	participants:{name}        ZSET  email scored by a global signup sequence
//	signed_up_at:{name}        HASH  email -> RFC3339 signup time (audit only, never read)
//	seq                        STRING counter backing the ZSET scores
//
// An activity exists once its hash has a max_participants field. Seeding writes
// that field in the same script as the rest of the activity.
const DefaultPrefix = "roster:"

// Script results shared by the Lua scripts.
const (
	resultActivityFull    = -2
	resultMissingActivity = -1
	resultNoChange        = 0
	resultApplied         = 1
)

var addParticipantScript = redis.NewScript(`
if redis.call('HEXISTS', KEYS[1], 'max_participants') == 0 then return -1 end
if redis.call('ZSCORE', KEYS[2], ARGV[1]) then return 0 end
local max = tonumber(redis.call('HGET', KEYS[1], 'max_participants'))
if max > 0 and redis.call('ZCARD', KEYS[2]) >= max then return -2 end
local seq = redis.call('INCR', KEYS[3])
redis.call('ZADD', KEYS[2], seq, ARGV[1])
redis.call('HSET', KEYS[4], ARGV[1], ARGV[2])
return 1
`)

var removeParticipantScript = redis.NewScript(`
if redis.call('HEXISTS', KEYS[1], 'max_participants') == 0 then return -1 end
if redis.call('ZREM', KEYS[2], ARGV[1]) == 0 then return 0 end
redis.call('HDEL', KEYS[3], ARGV[1])
return 1
`)

// seedActivityScript creates one activity with its initial participants and
// indexes it. ARGV: name, description, schedule, max_participants, signed_up_at,
// then participant emails.
var seedActivityScript = redis.NewScript(`
if redis.call('HEXISTS', KEYS[1], 'max_participants') == 1 then return 0 end
redis.call('HSET', KEYS[1], 'name', ARGV[1], 'description', ARGV[2], 'schedule', ARGV[3], 'max_participants', ARGV[4])
for i = 6, #ARGV do
  if not redis.call('ZSCORE', KEYS[2], ARGV[i]) then
    local seq = redis.call('INCR', KEYS[3])
    redis.call('ZADD', KEYS[2], seq, ARGV[i])
    redis.call('HSET', KEYS[4], ARGV[i], ARGV[5])
  end
end
redis.call('SADD', KEYS[5], ARGV[1])
return 1
`)

// Repo is a Redis implementation of activityrepo.Repository.
// Membership mutations run as Lua scripts, so each one is atomic on the server.
type Repo struct {
	rdb    redis.UniversalClient
	prefix string
}

func NewRepo(rdb redis.UniversalClient, prefix string) *Repo {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Repo{rdb: rdb, prefix: prefix}
}

func (r *Repo) indexKey() string { return r.prefix + "activities" }
func (r *Repo) seqKey() string   { return r.prefix + "seq" }

func (r *Repo) activityKey(n domain.ActivityName) string {
	return r.prefix + "activity:" + string(n)
}

func (r *Repo) participantsKey(n domain.ActivityName) string {
	return r.prefix + "participants:" + string(n)
}

func (r *Repo) signedUpAtKey(n domain.ActivityName) string {
	return r.prefix + "signed_up_at:" + string(n)
}

func (r *Repo) List(ctx context.Context) ([]domain.Activity, error) {
	names, err := r.rdb.SMembers(ctx, r.indexKey()).Result()
	if err != nil {
		return nil, err
	}
	sort.Strings(names)

	out := make([]domain.Activity, 0, len(names))
	for _, n := range names {
		a, err := r.GetByName(ctx, domain.ActivityName(n))
		if err != nil {
			if errors.Is(err, activityrepo.ErrNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func (r *Repo) GetByName(ctx context.Context, name domain.ActivityName) (domain.Activity, error) {
	var (
		fields  *redis.MapStringStringCmd
		members *redis.StringSliceCmd
	)
	_, err := r.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
		fields = p.HGetAll(ctx, r.activityKey(name))
		members = p.ZRange(ctx, r.participantsKey(name), 0, -1)
		return nil
	})
	if err != nil {
		return domain.Activity{}, err
	}
	h := fields.Val()
	if _, ok := h["max_participants"]; !ok {
		return domain.Activity{}, activityrepo.ErrNotFound
	}

	maxParticipants, err := strconv.Atoi(h["max_participants"])
	if err != nil {
		return domain.Activity{}, fmt.Errorf("activity %q: bad max_participants: %w", name, err)
	}
	a := domain.Activity{
		Name:            name,
		Description:     h["description"],
		Schedule:        h["schedule"],
		MaxParticipants: maxParticipants,
	}
	for _, e := range members.Val() {
		a.Participants = append(a.Participants, domain.Email(e))
	}
	return a, nil
}

func (r *Repo) AddParticipant(ctx context.Context, name domain.ActivityName, email domain.Email, at time.Time) error {
	res, err := addParticipantScript.Run(ctx, r.rdb,
		[]string{r.activityKey(name), r.participantsKey(name), r.seqKey(), r.signedUpAtKey(name)},
		string(email), at.UTC().Format(time.RFC3339Nano),
	).Int()
	if err != nil {
		return err
	}
	switch res {
	case resultApplied:
		return nil
	case resultNoChange:
		return activityrepo.ErrAlreadyParticipant
	case resultActivityFull:
		return activityrepo.ErrActivityFull
	case resultMissingActivity:
		return activityrepo.ErrNotFound
	default:
		return fmt.Errorf("unexpected script result %d", res)
	}
}

func (r *Repo) RemoveParticipant(ctx context.Context, name domain.ActivityName, email domain.Email) error {
	res, err := removeParticipantScript.Run(ctx, r.rdb,
		[]string{r.activityKey(name), r.participantsKey(name), r.signedUpAtKey(name)},
		string(email),
	).Int()
	if err != nil {
		return err
	}
	switch res {
	case resultApplied:
		return nil
	case resultNoChange:
		return activityrepo.ErrNotParticipant
	case resultMissingActivity:
		return activityrepo.ErrNotFound
	default:
		return fmt.Errorf("unexpected script result %d", res)
	}
}

func (r *Repo) Seed(ctx context.Context, activities []domain.Activity) error {
	at := time.Now().UTC().Format(time.RFC3339Nano)
	for _, a := range activities {
		args := make([]any, 0, 5+len(a.Participants))
		args = append(args, string(a.Name), a.Description, a.Schedule, strconv.Itoa(a.MaxParticipants), at)
		for _, p := range a.Participants {
			args = append(args, string(p))
		}
		keys := []string{
			r.activityKey(a.Name),
			r.participantsKey(a.Name),
			r.seqKey(),
			r.signedUpAtKey(a.Name),
			r.indexKey(),
		}
		if err := seedActivityScript.Run(ctx, r.rdb, keys, args...).Err(); err != nil {
			return fmt.Errorf("seed activity %q: %w", a.Name, err)
		}
	}
	return nil
}
