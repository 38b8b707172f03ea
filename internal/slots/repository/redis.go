package repository

import (
	"context"
	"expertconnect/pkg/model"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// compareAndSet runs server-side so the read and the write cannot interleave
// with another client.
var compareAndSet = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
	redis.call('SET', KEYS[1], ARGV[2])
	return 1
end
return 0
`)

// redisSlotRepository stores one string key per slot holding its state, plus
// one set per expert indexing its date|time members. A reserved slot's value
// is "reserved|<owner>".
type redisSlotRepository struct {
	rdb     *redis.Client
	prefix  string
	timeout time.Duration
}

type RedisSlotOption func(*redisSlotRepository)

func WithRedisPrefix(prefix string) RedisSlotOption {
	return func(r *redisSlotRepository) { r.prefix = strings.Trim(prefix, ":") }
}

func WithRedisTimeout(d time.Duration) RedisSlotOption {
	return func(r *redisSlotRepository) { r.timeout = d }
}

func NewRedisSlotRepository(rdb *redis.Client, opts ...RedisSlotOption) SlotRepository {
	r := &redisSlotRepository{
		rdb:     rdb,
		prefix:  "expertconnect:slots",
		timeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *redisSlotRepository) slotKey(key model.SlotKey) string {
	return r.prefix + ":" + key.String()
}

func (r *redisSlotRepository) indexKey(expertID string) string {
	return r.prefix + ":index:" + expertID
}

func member(date, label string) string {
	return date + "|" + label
}

func slotValue(state model.SlotState, owner string) string {
	if state == model.SlotReserved {
		return string(state) + "|" + owner
	}
	return string(state)
}

func parseSlotValue(v string) (model.SlotState, string) {
	state, owner, _ := strings.Cut(v, "|")
	return model.SlotState(state), owner
}

func (r *redisSlotRepository) swap(ctx context.Context, key model.SlotKey, from, to string) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, err
	}

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	n, err := compareAndSet.Run(ctx, r.rdb, []string{r.slotKey(key)}, from, to).Int()
	if err != nil {
		return false, fmt.Errorf("failed to update slot %s: %w", key, err)
	}
	return n == 1, nil
}

func (r *redisSlotRepository) TryReserve(ctx context.Context, key model.SlotKey, owner string) (bool, error) {
	return r.swap(ctx, key, slotValue(model.SlotFree, ""), slotValue(model.SlotReserved, owner))
}

func (r *redisSlotRepository) Release(ctx context.Context, key model.SlotKey, owner string) (bool, error) {
	return r.swap(ctx, key, slotValue(model.SlotReserved, owner), slotValue(model.SlotFree, ""))
}

func (r *redisSlotRepository) ListByExpert(ctx context.Context, expertID, date string) ([]model.Slot, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	members, err := r.rdb.SMembers(ctx, r.indexKey(expertID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list slot index: %w", err)
	}

	slots := make([]model.Slot, 0, len(members))
	keys := make([]string, 0, len(members))
	for _, m := range members {
		d, label, ok := strings.Cut(m, "|")
		if !ok || (date != "" && d != date) {
			continue
		}
		s := model.Slot{ExpertID: expertID, Date: d, TimeLabel: label}
		slots = append(slots, s)
		keys = append(keys, r.slotKey(s.Key()))
	}
	if len(keys) == 0 {
		return []model.Slot{}, nil
	}

	states, err := r.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read slot states: %w", err)
	}

	out := slots[:0]
	for i, raw := range states {
		value, ok := raw.(string)
		if !ok {
			continue
		}
		slots[i].State, slots[i].Owner = parseSlotValue(value)
		out = append(out, slots[i])
	}
	sortSlots(out)
	return out, nil
}

func (r *redisSlotRepository) Upsert(ctx context.Context, slots []model.Slot) (int, error) {
	if len(slots) == 0 {
		return 0, nil
	}

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	pipe := r.rdb.Pipeline()
	created := make([]*redis.BoolCmd, 0, len(slots))
	for _, s := range slots {
		if err := validateKey(s.Key()); err != nil {
			return 0, err
		}
		state := s.State
		if state == "" {
			state = model.SlotFree
		}
		created = append(created, pipe.SetNX(ctx, r.slotKey(s.Key()), slotValue(state, s.Owner), 0))
		pipe.SAdd(ctx, r.indexKey(s.ExpertID), member(s.Date, s.TimeLabel))
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to insert slots: %w", err)
	}

	n := 0
	for _, cmd := range created {
		if cmd.Val() {
			n++
		}
	}
	return n, nil
}
