// Package memory provides an in-process scheduler.Queue for tests and the
// single-node quick-start path. It does not survive a process restart.
package memory

import (
	"container/heap"
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/hookfreight/hookfreight/id"
	"github.com/hookfreight/hookfreight/scheduler"
)

// Queue is an in-memory, mutex-guarded implementation of scheduler.Queue,
// backed by a min-heap ordered by NotBefore.
type Queue struct {
	mu sync.Mutex

	pending   *jobHeap
	seen      map[string]bool // idempotency keys ever enqueued
	active    map[string]*scheduler.Job
	completed int
	failed    int

	retentionCap int
}

// New creates an empty in-memory queue.
func New() *Queue {
	return &Queue{
		pending:      &jobHeap{},
		seen:         make(map[string]bool),
		active:       make(map[string]*scheduler.Job),
		retentionCap: 1000,
	}
}

func (q *Queue) Enqueue(_ context.Context, eventID, endpointID id.ID) error {
	key := "delivery-" + eventID.String()
	return q.enqueue(key, eventID, endpointID, nil, time.Now().UTC())
}

func (q *Queue) EnqueueRetry(_ context.Context, deliveryID, eventID, endpointID id.ID) error {
	key := "retry-" + deliveryID.String() + "-" + strconv.FormatInt(time.Now().UTC().UnixMilli(), 10)
	parent := deliveryID
	return q.enqueue(key, eventID, endpointID, &parent, time.Now().UTC())
}

func (q *Queue) enqueue(key string, eventID, endpointID id.ID, parent *id.ID, notBefore time.Time) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.seen[key] {
		return nil
	}
	q.seen[key] = true

	job := &scheduler.Job{
		ID:               key,
		EventID:          eventID,
		EndpointID:       endpointID,
		ParentDeliveryID: parent,
		NotBefore:        notBefore,
		EnqueuedAt:       time.Now().UTC(),
	}
	heap.Push(q.pending, job)
	return nil
}

func (q *Queue) Dequeue(_ context.Context) (*scheduler.Job, bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.pending.Len() == 0 {
		return nil, false, nil
	}
	next := (*q.pending)[0]
	if next.NotBefore.After(time.Now().UTC()) {
		return nil, false, nil
	}
	job := heap.Pop(q.pending).(*scheduler.Job)
	q.active[job.ID] = job
	return job, true, nil
}

func (q *Queue) Complete(_ context.Context, jobID string, failed bool) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	delete(q.active, jobID)
	if failed {
		q.failed++
	} else {
		q.completed++
	}
	return nil
}

func (q *Queue) Retry(_ context.Context, job *scheduler.Job, parentDeliveryID id.ID, delay time.Duration) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	delete(q.active, job.ID)

	next := &scheduler.Job{
		ID:               job.ID,
		EventID:          job.EventID,
		EndpointID:       job.EndpointID,
		ParentDeliveryID: &parentDeliveryID,
		Attempt:          job.Attempt + 1,
		NotBefore:        time.Now().UTC().Add(delay),
		EnqueuedAt:       job.EnqueuedAt,
	}
	heap.Push(q.pending, next)
	return nil
}

func (q *Queue) Stats(_ context.Context) (scheduler.Stats, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	waiting, delayed := 0, 0
	now := time.Now().UTC()
	for _, j := range *q.pending {
		if j.NotBefore.After(now) {
			delayed++
		} else {
			waiting++
		}
	}
	return scheduler.Stats{
		Waiting:   waiting,
		Active:    len(q.active),
		Completed: q.completed,
		Failed:    q.failed,
		Delayed:   delayed,
	}, nil
}

func (q *Queue) Close() error { return nil }

// jobHeap is a container/heap.Interface ordering jobs by NotBefore ascending.
type jobHeap []*scheduler.Job

func (h jobHeap) Len() int            { return len(h) }
func (h jobHeap) Less(i, j int) bool  { return h[i].NotBefore.Before(h[j].NotBefore) }
func (h jobHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *jobHeap) Push(x any)         { *h = append(*h, x.(*scheduler.Job)) }
func (h *jobHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
