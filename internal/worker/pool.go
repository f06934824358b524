package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/wmakeouthill/Mercearia-R-V-sub000/internal/infra"
)

const (
	QueueAuditExport  = "jobs:audit_export"
	QueueClosingEmail = "jobs:closing_email"
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	Attempts int             `json:"attempts"`
}

// AuditExportPayload carries one audit record to the external sink.
type AuditExportPayload struct {
	AuditID     uint   `json:"audit_id"`
	ActorID     uint   `json:"actor_id"`
	Action      string `json:"action"`
	Observation string `json:"observation"`
	TargetID    *uint  `json:"target_id,omitempty"`
}

// ClosingSummaryPayload is mailed to the back office after each blind count.
type ClosingSummaryPayload struct {
	ToEmail         string `json:"to_email"`
	SessionID       uint   `json:"session_id"`
	ClosedBy        string `json:"closed_by"`
	ClosedAt        string `json:"closed_at"`
	ExpectedBalance string `json:"expected_balance"`
	CountedBalance  string `json:"counted_balance"`
	Variance        string `json:"variance"`
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb             *redis.Client
	closingReportTo string
}

func NewDispatcher(rdb *redis.Client, closingReportTo string) *Dispatcher {
	return &Dispatcher{rdb: rdb, closingReportTo: closingReportTo}
}

// EnqueueAuditExport pushes an audit-export job to Redis.
func (d *Dispatcher) EnqueueAuditExport(ctx context.Context, payload AuditExportPayload) error {
	return d.enqueue(ctx, QueueAuditExport, "audit_export", payload)
}

// EnqueueClosingSummary pushes an end-of-session summary mail job. A no-op
// when no recipient is configured.
func (d *Dispatcher) EnqueueClosingSummary(ctx context.Context, payload ClosingSummaryPayload) error {
	if d.closingReportTo == "" {
		return nil
	}
	payload.ToEmail = d.closingReportTo
	return d.enqueue(ctx, QueueClosingEmail, "closing_summary", payload)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	job := Job{Type: jobType, Payload: data}
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}

// StartWorkerPool launches numWorkers goroutines consuming the job queues.
// Each goroutine blocks on BRPOP — zero CPU when idle.
func StartWorkerPool(ctx context.Context, rdb *redis.Client, mailer *infra.Mailer, numWorkers int) {
	for i := 0; i < numWorkers; i++ {
		go runWorker(ctx, rdb, mailer, i)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func runWorker(ctx context.Context, rdb *redis.Client, mailer *infra.Mailer, id int) {
	queues := []string{QueueAuditExport, QueueClosingEmail}
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop — waits up to 5s then loops to check ctx
			result, err := rdb.BRPop(ctx, 5*time.Second, queues...).Result()
			if err != nil {
				continue // timeout or context cancelled
			}
			if len(result) < 2 {
				continue
			}
			processJob(ctx, rdb, mailer, result[0], result[1])
		}
	}
}

func processJob(ctx context.Context, rdb *redis.Client, mailer *infra.Mailer, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		return
	}

	var err error
	switch job.Type {
	case "audit_export":
		err = handleAuditExport(ctx, rdb, job.Payload)
	case "closing_summary":
		err = handleClosingEmail(mailer, job.Payload)
	default:
		log.Warn().Str("type", job.Type).Str("queue", queue).Msg("unknown job type dropped")
		return
	}

	if err != nil {
		retryOrDiscard(ctx, rdb, queue, job, err)
	}
}

func retryOrDiscard(ctx context.Context, rdb *redis.Client, queue string, job Job, cause error) {
	job.Attempts++
	if job.Attempts >= maxAttempts {
		SendToDLQ(ctx, rdb, queue, job.Type, job.Payload, cause.Error(), job.Attempts)
		return
	}
	encoded, err := json.Marshal(job)
	if err != nil {
		log.Error().Err(err).Str("queue", queue).Msg("failed to re-enqueue job")
		return
	}
	if err := rdb.LPush(ctx, queue, encoded).Err(); err != nil {
		log.Error().Err(err).Str("queue", queue).Msg("failed to re-enqueue job")
	}
	log.Warn().
		Str("type", job.Type).
		Int("attempts", job.Attempts).
		Err(cause).
		Msg("job failed, re-enqueued")
}

const maxAttempts = 3
