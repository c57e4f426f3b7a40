package worker

import (
	"context"

	"github.com/google/uuid"

	"github.com/timuslala/projektowanie-systemow-informatycznych/pkg/queue"
)

// QueueEnqueuer hands finalize requests from the HTTP side to the job queue.
type QueueEnqueuer struct {
	q *queue.Queue
}

// NewQueueEnqueuer wraps q.
func NewQueueEnqueuer(q *queue.Queue) *QueueEnqueuer {
	return &QueueEnqueuer{q: q}
}

// EnqueueFinalize queues a grade finalize job and returns its id.
func (e *QueueEnqueuer) EnqueueFinalize(ctx context.Context, quizID, userID, requestedBy uuid.UUID) (string, error) {
	return e.q.EnqueueGradeFinalize(ctx, queue.GradeFinalizePayload{
		QuizID:      quizID,
		UserID:      userID,
		RequestedBy: requestedBy,
	})
}
