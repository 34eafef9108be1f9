package dispatch

import (
	"context"
	"fmt"
	"sync"
)

// Outbox is an ordered, persistent-or-not list of jobs waiting to be sent.
type Outbox interface {
	Push(ctx context.Context, job *Job) error
	// Peek returns the oldest job, or nil when the outbox is empty.
	Peek(ctx context.Context) (*Job, error)
	// Ack removes the oldest job, which must have the given id.
	Ack(ctx context.Context, jobID string) error
	Len(ctx context.Context) (int, error)
	Pending(ctx context.Context) ([]*Job, error)
}

type memoryOutbox struct {
	mu   sync.Mutex
	jobs []*Job
}

func NewMemoryOutbox() Outbox {
	return &memoryOutbox{}
}

func (o *memoryOutbox) Push(ctx context.Context, job *Job) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.jobs = append(o.jobs, job)
	return nil
}

func (o *memoryOutbox) Peek(ctx context.Context) (*Job, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if len(o.jobs) == 0 {
		return nil, nil
	}
	return o.jobs[0], nil
}

func (o *memoryOutbox) Ack(ctx context.Context, jobID string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if len(o.jobs) == 0 || o.jobs[0].ID != jobID {
		return fmt.Errorf("job %s is not at the head of the outbox", jobID)
	}
	o.jobs[0] = nil
	o.jobs = o.jobs[1:]
	return nil
}

func (o *memoryOutbox) Len(ctx context.Context) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	return len(o.jobs), nil
}

func (o *memoryOutbox) Pending(ctx context.Context) ([]*Job, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	return append([]*Job(nil), o.jobs...), nil
}
