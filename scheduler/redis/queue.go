// Package redis implements scheduler.Queue on top of Redis, using sorted
// sets for the waiting/delayed set and a Lua script to atomically claim
// ready jobs — the same approach the reference store uses for its delivery
// pending set, adapted here to stand alone from primary-entity storage.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/hookfreight/hookfreight/id"
	"github.com/hookfreight/hookfreight/scheduler"
)

const (
	keyJobHash    = "hookfreight:sched:job:"   // + job id -> JSON jobModel
	keyReadySet   = "hookfreight:sched:ready"  // zset: member=job id, score=NotBefore unix
	keySeenSet    = "hookfreight:sched:seen"   // set of idempotency keys ever enqueued
	keyActiveSet  = "hookfreight:sched:active" // set of job ids currently dequeued
	keyCompleted  = "hookfreight:sched:stat:completed"
	keyFailed     = "hookfreight:sched:stat:failed"
	completedTTL  = 24 * time.Hour
	failedTTL     = 7 * 24 * time.Hour
)

// claimScript atomically pops up to ARGV[2] ready job ids from the ready
// set whose score (NotBefore) is <= ARGV[1], moving them into the active set.
var claimScript = goredis.NewScript(`
local ids = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1], 'LIMIT', 0, tonumber(ARGV[2]))
if #ids == 0 then return {} end
for i, jid in ipairs(ids) do
    redis.call('ZREM', KEYS[1], jid)
    redis.call('SADD', KEYS[2], jid)
end
return ids
`)

// Queue is a Redis-backed scheduler.Queue.
type Queue struct {
	rdb goredis.UniversalClient
}

// New creates a Queue using an already-connected Redis client.
func New(rdb goredis.UniversalClient) *Queue {
	return &Queue{rdb: rdb}
}

type jobModel struct {
	ID               string    `json:"id"`
	EventID          string    `json:"event_id"`
	EndpointID       string    `json:"endpoint_id"`
	ParentDeliveryID string    `json:"parent_delivery_id,omitempty"`
	Attempt          int       `json:"attempt"`
	NotBefore        time.Time `json:"not_before"`
	EnqueuedAt       time.Time `json:"enqueued_at"`
}

func toJobModel(j *scheduler.Job) *jobModel {
	m := &jobModel{
		ID:         j.ID,
		EventID:    j.EventID.String(),
		EndpointID: j.EndpointID.String(),
		Attempt:    j.Attempt,
		NotBefore:  j.NotBefore,
		EnqueuedAt: j.EnqueuedAt,
	}
	if j.ParentDeliveryID != nil {
		m.ParentDeliveryID = j.ParentDeliveryID.String()
	}
	return m
}

func fromJobModel(m *jobModel) (*scheduler.Job, error) {
	evtID, err := id.ParseEventID(m.EventID)
	if err != nil {
		return nil, fmt.Errorf("hookfreight/scheduler/redis: parse event id %q: %w", m.EventID, err)
	}
	epID, err := id.ParseEndpointID(m.EndpointID)
	if err != nil {
		return nil, fmt.Errorf("hookfreight/scheduler/redis: parse endpoint id %q: %w", m.EndpointID, err)
	}
	job := &scheduler.Job{
		ID:         m.ID,
		EventID:    evtID,
		EndpointID: epID,
		Attempt:    m.Attempt,
		NotBefore:  m.NotBefore,
		EnqueuedAt: m.EnqueuedAt,
	}
	if m.ParentDeliveryID != "" {
		parent, err := id.ParseDeliveryID(m.ParentDeliveryID)
		if err != nil {
			return nil, fmt.Errorf("hookfreight/scheduler/redis: parse parent delivery id %q: %w", m.ParentDeliveryID, err)
		}
		job.ParentDeliveryID = &parent
	}
	return job, nil
}

func scoreFromTime(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

func (q *Queue) putJob(ctx context.Context, job *scheduler.Job) error {
	raw, err := json.Marshal(toJobModel(job))
	if err != nil {
		return fmt.Errorf("hookfreight/scheduler/redis: marshal job: %w", err)
	}
	return q.rdb.Set(ctx, keyJobHash+job.ID, raw, 0).Err()
}

func (q *Queue) Enqueue(ctx context.Context, eventID, endpointID id.ID) error {
	return q.enqueue(ctx, "delivery-"+eventID.String(), eventID, endpointID, nil, time.Now().UTC())
}

func (q *Queue) EnqueueRetry(ctx context.Context, deliveryID, eventID, endpointID id.ID) error {
	key := "retry-" + deliveryID.String() + "-" + strconv.FormatInt(time.Now().UTC().UnixMilli(), 10)
	parent := deliveryID
	return q.enqueue(ctx, key, eventID, endpointID, &parent, time.Now().UTC())
}

func (q *Queue) enqueue(ctx context.Context, key string, eventID, endpointID id.ID, parent *id.ID, notBefore time.Time) error {
	added, err := q.rdb.SAdd(ctx, keySeenSet, key).Result()
	if err != nil {
		return fmt.Errorf("hookfreight/scheduler/redis: enqueue dedup: %w", err)
	}
	if added == 0 {
		return nil // idempotency key already seen; duplicate enqueue is a no-op
	}

	job := &scheduler.Job{
		ID:               key,
		EventID:          eventID,
		EndpointID:       endpointID,
		ParentDeliveryID: parent,
		NotBefore:        notBefore,
		EnqueuedAt:       time.Now().UTC(),
	}
	if err := q.putJob(ctx, job); err != nil {
		return err
	}
	return q.rdb.ZAdd(ctx, keyReadySet, goredis.Z{Score: scoreFromTime(notBefore), Member: key}).Err()
}

func (q *Queue) Dequeue(ctx context.Context) (*scheduler.Job, bool, error) {
	nowScore := strconv.FormatFloat(scoreFromTime(time.Now().UTC()), 'f', -1, 64)
	claimed, err := claimScript.Run(ctx, q.rdb, []string{keyReadySet, keyActiveSet}, nowScore, 1).StringSlice()
	if err != nil && !errors.Is(err, goredis.Nil) {
		return nil, false, fmt.Errorf("hookfreight/scheduler/redis: claim: %w", err)
	}
	if len(claimed) == 0 {
		return nil, false, nil
	}

	raw, err := q.rdb.Get(ctx, keyJobHash+claimed[0]).Bytes()
	if err != nil {
		return nil, false, fmt.Errorf("hookfreight/scheduler/redis: load claimed job: %w", err)
	}
	var m jobModel
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, false, fmt.Errorf("hookfreight/scheduler/redis: decode claimed job: %w", err)
	}
	job, err := fromJobModel(&m)
	if err != nil {
		return nil, false, err
	}
	return job, true, nil
}

func (q *Queue) Complete(ctx context.Context, jobID string, failed bool) error {
	pipe := q.rdb.Pipeline()
	pipe.SRem(ctx, keyActiveSet, jobID)
	pipe.Del(ctx, keyJobHash+jobID)
	if failed {
		pipe.Incr(ctx, keyFailed)
		pipe.Expire(ctx, keyFailed, failedTTL)
	} else {
		pipe.Incr(ctx, keyCompleted)
		pipe.Expire(ctx, keyCompleted, completedTTL)
	}
	_, err := pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("hookfreight/scheduler/redis: complete: %w", err)
	}
	return nil
}

func (q *Queue) Retry(ctx context.Context, job *scheduler.Job, parentDeliveryID id.ID, delay time.Duration) error {
	next := &scheduler.Job{
		ID:               job.ID,
		EventID:          job.EventID,
		EndpointID:       job.EndpointID,
		ParentDeliveryID: &parentDeliveryID,
		Attempt:          job.Attempt + 1,
		NotBefore:        time.Now().UTC().Add(delay),
		EnqueuedAt:       job.EnqueuedAt,
	}

	pipe := q.rdb.Pipeline()
	pipe.SRem(ctx, keyActiveSet, job.ID)
	_, err := pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("hookfreight/scheduler/redis: retry unclaim: %w", err)
	}

	if err := q.putJob(ctx, next); err != nil {
		return err
	}
	return q.rdb.ZAdd(ctx, keyReadySet, goredis.Z{Score: scoreFromTime(next.NotBefore), Member: next.ID}).Err()
}

func (q *Queue) Stats(ctx context.Context) (scheduler.Stats, error) {
	now := strconv.FormatFloat(scoreFromTime(time.Now().UTC()), 'f', -1, 64)

	waiting, err := q.rdb.ZCount(ctx, keyReadySet, "-inf", now).Result()
	if err != nil {
		return scheduler.Stats{}, fmt.Errorf("hookfreight/scheduler/redis: count waiting: %w", err)
	}
	total, err := q.rdb.ZCard(ctx, keyReadySet).Result()
	if err != nil {
		return scheduler.Stats{}, fmt.Errorf("hookfreight/scheduler/redis: count total: %w", err)
	}
	active, err := q.rdb.SCard(ctx, keyActiveSet).Result()
	if err != nil {
		return scheduler.Stats{}, fmt.Errorf("hookfreight/scheduler/redis: count active: %w", err)
	}
	completed, _ := q.rdb.Get(ctx, keyCompleted).Int()
	failedCount, _ := q.rdb.Get(ctx, keyFailed).Int()

	return scheduler.Stats{
		Waiting:   int(waiting),
		Active:    int(active),
		Completed: completed,
		Failed:    failedCount,
		Delayed:   int(total - waiting),
	}, nil
}

func (q *Queue) Close() error {
	return nil
}
