package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/timuslala/projektowanie-systemow-informatycznych/pkg/queue"
)

// Finalizer persists auto-credit for one student's quiz attempt.
type Finalizer interface {
	FinalizeGrades(ctx context.Context, quizID, userID uuid.UUID) (int, error)
}

// Jobs is the part of the job queue the processor consumes.
type Jobs interface {
	Dequeue(ctx context.Context) (*queue.Job, error)
	Retry(ctx context.Context, job *queue.Job) error
}

// GradeProcessor processes grade finalization jobs.
type GradeProcessor struct {
	grades  Finalizer
	jobs    Jobs
	backoff time.Duration
	logger  *zap.Logger
}

// NewGradeProcessor creates a grade finalization processor.
func NewGradeProcessor(grades Finalizer, jobs Jobs, logger *zap.Logger) *GradeProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeProcessor{grades: grades, jobs: jobs, backoff: queue.RetryBackoff, logger: logger}
}

// Process executes one job.
func (p *GradeProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeGradeFinalize {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.GradeFinalizePayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	credited, err := p.grades.FinalizeGrades(ctx, payload.QuizID, payload.UserID)
	if err != nil {
		return fmt.Errorf("finalize grades: %w", err)
	}
	p.logger.Info("grade finalize completed",
		zap.String("job_id", job.ID),
		zap.String("quiz_id", payload.QuizID.String()),
		zap.String("user_id", payload.UserID.String()),
		zap.String("requested_by", payload.RequestedBy.String()),
		zap.Int("credited", credited))
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *GradeProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("grading worker stopping")
			return
		default:
		}

		job, err := p.jobs.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			p.sleep(ctx)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)), zap.Int("attempt", job.Attempt))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.jobs.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			p.sleep(ctx)
		}
	}
}

func (p *GradeProcessor) sleep(ctx context.Context) {
	t := time.NewTimer(p.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
