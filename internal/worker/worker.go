// Package worker consumes notification jobs from the Redis queue and
// delivers them through FCM.
package worker

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/Hamayesh-Negar/Back-end/pkg/queue"
)

// Sender delivers one push payload. Implemented by the FCM client.
type Sender interface {
	Send(ctx context.Context, payload queue.PushPayload) error
}

// Processor drains the notification queue. Failed jobs are retried with
// the queue's attempt budget, then moved to the DLQ.
type Processor struct {
	queue  *queue.Queue
	sender Sender
	logger *zap.Logger
}

// NewProcessor creates a notification processor.
func NewProcessor(q *queue.Queue, sender Sender, logger *zap.Logger) *Processor {
	return &Processor{queue: q, sender: sender, logger: logger}
}

// Run blocks consuming jobs until ctx is cancelled.
func (p *Processor) Run(ctx context.Context) {
	p.logger.Info("notification worker started")
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("notification worker stopping")
			return
		default:
		}

		job, _, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logger.Error("dequeue failed", zap.Error(err))
			continue
		}
		if job == nil {
			continue
		}
		p.process(ctx, job)
	}
}

func (p *Processor) process(ctx context.Context, job *queue.Job) {
	switch job.Type {
	case queue.JobTypePushNotification:
		var payload queue.PushPayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			p.logger.Warn("dropping malformed push job",
				zap.String("job_id", job.ID), zap.Error(err))
			return
		}
		if err := p.sender.Send(ctx, payload); err != nil {
			p.logger.Error("push delivery failed",
				zap.String("job_id", job.ID),
				zap.Int("attempt", job.Attempt),
				zap.Error(err))
			if err := p.queue.Retry(ctx, job); err != nil {
				p.logger.Error("retry failed", zap.String("job_id", job.ID), zap.Error(err))
			}
			return
		}
		p.logger.Debug("push delivered", zap.String("job_id", job.ID))
	default:
		p.logger.Warn("unknown job type",
			zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
	}
}
