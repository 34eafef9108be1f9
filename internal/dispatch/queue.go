package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"highlight-sync/internal/domain"

	"github.com/google/uuid"
)

type QueueConfig struct {
	RetryWaitMin  time.Duration
	RetryWaitMax  time.Duration
	ResultBuffer  int
	SubmitTimeout time.Duration
}

func DefaultQueueConfig() QueueConfig {
	return QueueConfig{
		RetryWaitMin:  time.Second,
		RetryWaitMax:  time.Minute,
		ResultBuffer:  256,
		SubmitTimeout: 5 * time.Second,
	}
}

// Queue is the outbox-backed Dispatcher. Run must be started for jobs to leave the outbox.
type Queue struct {
	outbox    Outbox
	transport Transport
	cfg       QueueConfig
	wake      chan struct{}
	results   chan Result
}

// NewQueue builds a queue over outbox. Results that find the buffer full are
// dropped and logged; a session that misses a delete result drops the
// annotation on its next refresh instead.
func NewQueue(outbox Outbox, transport Transport, cfg QueueConfig) *Queue {
	def := DefaultQueueConfig()
	if cfg.RetryWaitMin <= 0 {
		cfg.RetryWaitMin = def.RetryWaitMin
	}
	if cfg.RetryWaitMax < cfg.RetryWaitMin {
		cfg.RetryWaitMax = cfg.RetryWaitMin
	}
	if cfg.ResultBuffer <= 0 {
		cfg.ResultBuffer = def.ResultBuffer
	}
	if cfg.SubmitTimeout <= 0 {
		cfg.SubmitTimeout = def.SubmitTimeout
	}

	return &Queue{
		outbox:    outbox,
		transport: transport,
		cfg:       cfg,
		wake:      make(chan struct{}, 1),
		results:   make(chan Result, cfg.ResultBuffer),
	}
}

// Results delivers job outcomes. Outcomes are dropped when nobody keeps up with the channel.
func (q *Queue) Results() <-chan Result {
	return q.results
}

func (q *Queue) SubmitCreate(id, shortID, articleID, quote string, patch json.RawMessage) error {
	return q.enqueue(&Job{
		Kind:        domain.RecordCreate,
		ArticleID:   articleID,
		HighlightID: id,
		ShortID:     shortID,
		Quote:       quote,
		Patch:       patch,
	})
}

func (q *Queue) SubmitMerge(id, shortID, articleID, quote string, overlapIDs []string, patch json.RawMessage) error {
	if len(overlapIDs) == 0 {
		return fmt.Errorf("merge %s without overlap ids: %w", id, domain.ErrInvalidInput)
	}
	return q.enqueue(&Job{
		Kind:        domain.RecordMerge,
		ArticleID:   articleID,
		HighlightID: id,
		ShortID:     shortID,
		Quote:       quote,
		Patch:       patch,
		OverlapIDs:  append([]string(nil), overlapIDs...),
	})
}

func (q *Queue) SubmitDelete(ids []string) error {
	if len(ids) == 0 {
		return fmt.Errorf("delete without ids: %w", domain.ErrInvalidInput)
	}
	return q.enqueue(&Job{
		Kind: domain.RecordDelete,
		IDs:  append([]string(nil), ids...),
	})
}

func (q *Queue) SubmitNote(id, articleID, note string) error {
	return q.enqueue(&Job{
		Kind:        domain.RecordNote,
		ArticleID:   articleID,
		HighlightID: id,
		Note:        note,
	})
}

func (q *Queue) SubmitProgress(articleID string, percent float64, anchorIndex int) error {
	return q.enqueue(&Job{
		Kind:        domain.RecordProgress,
		ArticleID:   articleID,
		Percent:     percent,
		AnchorIndex: anchorIndex,
	})
}

// SubmitRecord routes a reconciliation record to the matching Submit call.
func (q *Queue) SubmitRecord(rec domain.Record) error {
	return Submit(q, rec)
}

// Submit routes a reconciliation record to the matching Dispatcher call.
func Submit(d Dispatcher, rec domain.Record) error {
	switch rec.Kind {
	case domain.RecordCreate:
		a := rec.Annotation
		return d.SubmitCreate(a.ID, a.ShortID, rec.ArticleID, rec.Quote, rec.Patch)
	case domain.RecordMerge:
		a := rec.Annotation
		return d.SubmitMerge(a.ID, a.ShortID, rec.ArticleID, rec.Quote, rec.OverlapIDs, rec.Patch)
	case domain.RecordDelete:
		return d.SubmitDelete(rec.IDs)
	default:
		return fmt.Errorf("record kind %q cannot be submitted: %w", rec.Kind, domain.ErrInvalidInput)
	}
}

func (q *Queue) enqueue(job *Job) error {
	job.ID = uuid.New().String()
	job.CreatedAt = time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), q.cfg.SubmitTimeout)
	defer cancel()

	if err := q.outbox.Push(ctx, job); err != nil {
		return fmt.Errorf("failed to queue %s job: %w", job.Kind, err)
	}

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return nil
}

// Run drains the outbox until ctx is done. A job that fails transiently is
// retried with exponential backoff and blocks the jobs behind it.
func (q *Queue) Run(ctx context.Context) error {
	backoff := q.cfg.RetryWaitMin

	for {
		job, err := q.outbox.Peek(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("[Dispatch] failed to read outbox: %v", err)
			if !q.sleep(ctx, backoff) {
				return ctx.Err()
			}
			backoff = q.nextBackoff(backoff)
			continue
		}

		if job == nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-q.wake:
			}
			continue
		}

		if err := q.process(ctx, job); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("[Dispatch] %s job %s failed, retrying in %v: %v", job.Kind, job.ID, backoff, err)
			if !q.sleep(ctx, backoff) {
				return ctx.Err()
			}
			backoff = q.nextBackoff(backoff)
			continue
		}

		backoff = q.cfg.RetryWaitMin
	}
}

// Flush sends every queued job once, in order, and stops at the first
// transient failure. It returns how many jobs left the outbox.
func (q *Queue) Flush(ctx context.Context) (int, error) {
	sent := 0
	for {
		job, err := q.outbox.Peek(ctx)
		if err != nil {
			return sent, err
		}
		if job == nil {
			return sent, nil
		}
		if err := q.process(ctx, job); err != nil {
			return sent, err
		}
		sent++
	}
}

// process sends job and acks it unless the failure is worth retrying.
func (q *Queue) process(ctx context.Context, job *Job) error {
	err := job.send(ctx, q.transport)
	if err != nil && !IsPermanent(err) {
		return err
	}

	if err != nil {
		log.Printf("[Dispatch] dropping %s job %s: %v", job.Kind, job.ID, err)
	}

	if ackErr := q.outbox.Ack(ctx, job.ID); ackErr != nil {
		return fmt.Errorf("failed to ack job %s: %w", job.ID, ackErr)
	}

	q.publish(Result{
		JobID:     job.ID,
		Kind:      job.Kind,
		ArticleID: job.ArticleID,
		IDs:       job.SubjectIDs(),
		Err:       err,
	})
	return nil
}

func (q *Queue) publish(res Result) {
	select {
	case q.results <- res:
	default:
		log.Printf("[Dispatch] result buffer full, dropping result for job %s", res.JobID)
	}
}

func (q *Queue) nextBackoff(current time.Duration) time.Duration {
	next := current * 2
	if next > q.cfg.RetryWaitMax {
		return q.cfg.RetryWaitMax
	}
	return next
}

func (q *Queue) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
