package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueReconcile = "jobs:reconcile"
	QueueAlert     = "jobs:alert"

	JobReconcile = "reconcile"
	JobAlert     = "alert"

	// MaxJobAttempts is how often a job runs before it lands in the DLQ.
	MaxJobAttempts = 3
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	Attempts int             `json:"attempts"`
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EnqueueReconcile pushes a reconcile job to Redis.
func (d *Dispatcher) EnqueueReconcile(ctx context.Context, payload ReconcileJobPayload) error {
	return d.enqueue(ctx, QueueReconcile, JobReconcile, payload)
}

// EnqueueAlert pushes an alert job to Redis.
func (d *Dispatcher) EnqueueAlert(ctx context.Context, payload interface{}) error {
	return d.enqueue(ctx, QueueAlert, JobAlert, payload)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return d.push(ctx, queue, Job{Type: jobType, Payload: data})
}

func (d *Dispatcher) push(ctx context.Context, queue string, job Job) error {
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}

// Handler processes one job payload. A returned error schedules a retry.
type Handler interface {
	Process(ctx context.Context, payload json.RawMessage) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, payload json.RawMessage) error

func (f HandlerFunc) Process(ctx context.Context, payload json.RawMessage) error { return f(ctx, payload) }

var errUnknownJob = errors.New("no handler for job type")

// Pool consumes both queues and routes each job to its handler by type.
type Pool struct {
	rdb        *redis.Client
	dispatcher *Dispatcher
	handlers   map[string]Handler
	backoff    func(attempt int) time.Duration
	pop        func(ctx context.Context) ([]string, error)
	popBackoff time.Duration // wait after a failed dequeue
}

func NewPool(rdb *redis.Client, handlers map[string]Handler) *Pool {
	p := &Pool{
		rdb:        rdb,
		dispatcher: NewDispatcher(rdb),
		handlers:   handlers,
		backoff:    computeRetryBackoff,
		popBackoff: time.Second,
	}
	p.pop = func(ctx context.Context) ([]string, error) {
		// Blocking pop: waits up to 5s then loops to check ctx
		return p.rdb.BRPop(ctx, 5*time.Second, QueueReconcile, QueueAlert).Result()
	}
	return p
}

// Start launches numWorkers goroutines consuming both queues.
// Each goroutine blocks on BRPOP, zero CPU when idle.
func (p *Pool) Start(ctx context.Context, numWorkers int) {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	for i := 0; i < numWorkers; i++ {
		go p.runWorker(ctx, i)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func (p *Pool) runWorker(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			result, err := p.pop(ctx)
			if errors.Is(err, redis.Nil) || ctx.Err() != nil {
				continue // timeout or context cancelled
			}
			if err != nil {
				log.Warn().Err(err).Int("worker", id).Dur("retry_in", p.popBackoff).Msg("dequeue failed")
				select {
				case <-ctx.Done():
				case <-time.After(p.popBackoff):
				}
				continue
			}
			if len(result) < 2 {
				continue
			}
			p.processJob(ctx, result[0], result[1])
		}
	}
}

func (p *Pool) processJob(ctx context.Context, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		quoted, _ := json.Marshal(raw)
		SendToDLQ(ctx, p.rdb, queue, "unknown", quoted, "malformed envelope: "+err.Error(), 0)
		return
	}

	err := p.dispatch(ctx, job)
	if err == nil {
		return
	}
	job.Attempts++
	if errors.Is(err, errUnknownJob) || job.Attempts >= MaxJobAttempts {
		SendToDLQ(ctx, p.rdb, queue, job.Type, job.Payload, err.Error(), job.Attempts)
		return
	}

	wait := p.backoff(job.Attempts)
	log.Warn().Err(err).
		Str("queue", queue).
		Str("type", job.Type).
		Int("attempts", job.Attempts).
		Dur("retry_in", wait).
		Msg("job failed, will retry")

	select {
	case <-ctx.Done():
	case <-time.After(wait):
	}
	// Requeue even during shutdown so the job is not lost.
	if err := p.dispatcher.push(context.WithoutCancel(ctx), queue, job); err != nil {
		log.Error().Err(err).Str("queue", queue).Msg("requeue failed")
	}
}

// dispatch routes job to its handler.
func (p *Pool) dispatch(ctx context.Context, job Job) error {
	h, ok := p.handlers[job.Type]
	if !ok {
		return fmt.Errorf("%w: %q", errUnknownJob, job.Type)
	}
	log.Debug().Str("type", job.Type).Int("attempts", job.Attempts).Msg("processing job")
	return h.Process(ctx, job.Payload)
}

// computeRetryBackoff returns 1s, 2s, 4s... capped at 30s.
func computeRetryBackoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := time.Duration(1<<uint(attempt-1)) * time.Second
	if d > 30*time.Second {
		d = 30 * time.Second
	}
	return d
}
