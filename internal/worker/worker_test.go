package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timuslala/projektowanie-systemow-informatycznych/pkg/queue"
)

type fakeFinalizer struct {
	mu    sync.Mutex
	calls [][2]uuid.UUID
	err   error
}

func (f *fakeFinalizer) FinalizeGrades(_ context.Context, quizID, userID uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, [2]uuid.UUID{quizID, userID})
	return 2, f.err
}

func (f *fakeFinalizer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeJobs struct {
	mu      sync.Mutex
	pending []*queue.Job
	retried []*queue.Job
}

func (j *fakeJobs) Dequeue(ctx context.Context) (*queue.Job, error) {
	j.mu.Lock()
	if len(j.pending) > 0 {
		job := j.pending[0]
		j.pending = j.pending[1:]
		j.mu.Unlock()
		return job, nil
	}
	j.mu.Unlock()
	select {
	case <-ctx.Done():
	case <-time.After(time.Millisecond):
	}
	return nil, nil
}

func (j *fakeJobs) Retry(_ context.Context, job *queue.Job) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	job.Attempt++
	j.retried = append(j.retried, job)
	return nil
}

func finalizeJob(t *testing.T) (*queue.Job, queue.GradeFinalizePayload) {
	t.Helper()
	payload := queue.GradeFinalizePayload{QuizID: uuid.New(), UserID: uuid.New(), RequestedBy: uuid.New()}
	job, err := queue.NewJob(queue.JobTypeGradeFinalize, payload)
	require.NoError(t, err)
	return job, payload
}

func TestProcessFinalize(t *testing.T) {
	fin := &fakeFinalizer{}
	p := NewGradeProcessor(fin, &fakeJobs{}, nil)
	job, payload := finalizeJob(t)

	require.NoError(t, p.Process(context.Background(), job))
	assert.Equal(t, [][2]uuid.UUID{{payload.QuizID, payload.UserID}}, fin.calls)
}

func TestProcessRejectsUnknownType(t *testing.T) {
	p := NewGradeProcessor(&fakeFinalizer{}, &fakeJobs{}, nil)
	err := p.Process(context.Background(), &queue.Job{ID: "x", Type: "thumbnail"})
	assert.Error(t, err)
}

func TestRunRetriesFailedJobs(t *testing.T) {
	fin := &fakeFinalizer{err: errors.New("db down")}
	job, _ := finalizeJob(t)
	jobs := &fakeJobs{pending: []*queue.Job{job}}
	p := NewGradeProcessor(fin, jobs, nil)
	p.backoff = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		jobs.mu.Lock()
		defer jobs.mu.Unlock()
		return len(jobs.retried) == 1
	}, time.Second, 5*time.Millisecond)
	cancel()
	<-done

	assert.Equal(t, 1, fin.count())
	assert.Equal(t, 1, jobs.retried[0].Attempt)
}
