package quizzes

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timuslala/projektowanie-systemow-informatycznych/internal/models"
)

type fakeEnqueuer struct {
	calls []uuid.UUID
}

func (e *fakeEnqueuer) EnqueueFinalize(_ context.Context, quizID, userID, _ uuid.UUID) (string, error) {
	e.calls = append(e.calls, quizID, userID)
	return "job-1", nil
}

func TestQuestionsHideAnswersAndShuffle(t *testing.T) {
	a, b := singleChoice("a", 1), openQuestion("b")
	f := newFixture(Options{}, bank(a, b))

	views, err := f.svc.Questions(context.Background(), f.student, f.quiz.ID)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, a.ID, views[0].ID)
	for _, o := range views[0].Options {
		assert.Nil(t, o.IsCorrect)
	}
	assert.True(t, views[1].IsOpenEnded)

	f.quiz.RandomizeQuestionOrder = true
	f.svc.shuffle = func(qs []models.Question) { qs[0], qs[1] = qs[1], qs[0] }
	views, err = f.svc.Questions(context.Background(), f.student, f.quiz.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, views[0].ID)
}

func TestListSubmissions(t *testing.T) {
	ctx := context.Background()
	q := openQuestion("o")
	f := newFixture(Options{}, bank(q))

	_, err := f.svc.ListSubmissions(ctx, f.student, f.quiz.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	list, err := f.svc.ListSubmissions(ctx, f.instructor, f.quiz.ID)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = f.svc.Submit(ctx, f.student, f.quiz.ID, []SubmissionItem{item(q.ID, `"x"`)})
	require.NoError(t, err)
	list, err = f.svc.ListSubmissions(ctx, f.instructor, f.quiz.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, f.student.UserID, list[0].UserID)
	assert.Equal(t, "Sam Student", list[0].Name)
}

func TestGradeResponseValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(Options{}, bank(openQuestion("o")))
	bad := -1.0
	tooMuch := 10000.0

	_, err := f.svc.GradeResponse(ctx, f.student, uuid.New(), nil, nil)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.svc.GradeResponse(ctx, f.instructor, uuid.New(), &bad, nil)
	assert.ErrorIs(t, err, ErrInvalidPoints)
	_, err = f.svc.GradeResponse(ctx, f.instructor, uuid.New(), &tooMuch, nil)
	assert.ErrorIs(t, err, ErrInvalidPoints)
	_, err = f.svc.GradeResponse(ctx, f.instructor, uuid.New(), nil, nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGradeResponseCommentOnly(t *testing.T) {
	ctx := context.Background()
	q := openQuestion("o")
	f := newFixture(Options{}, bank(q))
	_, err := f.svc.Submit(ctx, f.student, f.quiz.ID, []SubmissionItem{item(q.ID, `"x"`)})
	require.NoError(t, err)
	r := f.store.responseFor(q.ID, f.student.UserID)

	points := 4.0
	_, err = f.svc.GradeResponse(ctx, f.instructor, r.ID, &points, nil)
	require.NoError(t, err)
	comment := "see notes"
	got, err := f.svc.GradeResponse(ctx, f.instructor, r.ID, nil, &comment)
	require.NoError(t, err)
	assert.Equal(t, 4.0, got.Points)
	assert.Equal(t, "see notes", *got.InstructorComment)
}

func TestFinalizeInline(t *testing.T) {
	ctx := context.Background()
	right, wrong, graded := singleChoice("r", 1), singleChoice("w", 1), singleChoice("g", 1)
	f := newFixture(Options{}, bank(right, wrong, graded))
	_, err := f.svc.Submit(ctx, f.student, f.quiz.ID, []SubmissionItem{
		item(right.ID, `1`), item(wrong.ID, `2`), item(graded.ID, `1`),
	})
	require.NoError(t, err)
	g := f.store.responseFor(graded.ID, f.student.UserID)
	three := 3.0
	_, err = f.svc.GradeResponse(ctx, f.instructor, g.ID, &three, nil)
	require.NoError(t, err)

	jobID, err := f.svc.Finalize(ctx, f.instructor, f.quiz.ID, f.student.UserID)
	require.NoError(t, err)
	assert.Empty(t, jobID)

	assert.Equal(t, 1.0, f.store.responseFor(right.ID, f.student.UserID).Points)
	assert.Zero(t, f.store.responseFor(wrong.ID, f.student.UserID).Points)
	assert.Equal(t, 3.0, f.store.responseFor(graded.ID, f.student.UserID).Points)
	assert.Contains(t, f.notes.events, published{f.quiz.ID, EventGradesFinalized})

	credited, err := f.svc.FinalizeGrades(ctx, f.quiz.ID, f.student.UserID)
	require.NoError(t, err)
	assert.Zero(t, credited)
}

func TestFinalizeQueued(t *testing.T) {
	ctx := context.Background()
	f := newFixture(Options{}, bank(openQuestion("o")))
	enq := &fakeEnqueuer{}
	f.svc.enqueuer = enq

	_, err := f.svc.Finalize(ctx, f.student, f.quiz.ID, f.student.UserID)
	assert.ErrorIs(t, err, ErrForbidden)

	jobID, err := f.svc.Finalize(ctx, f.instructor, f.quiz.ID, f.student.UserID)
	require.NoError(t, err)
	assert.Equal(t, "job-1", jobID)
	assert.Equal(t, []uuid.UUID{f.quiz.ID, f.student.UserID}, enq.calls)

	_, err = f.svc.Finalize(ctx, f.instructor, f.quiz.ID, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCanMonitor(t *testing.T) {
	ctx := context.Background()
	f := newFixture(Options{}, bank(openQuestion("o")))

	ok, err := f.svc.CanMonitor(ctx, f.instructor, f.quiz.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.svc.CanMonitor(ctx, f.student, f.quiz.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = f.svc.CanMonitor(ctx, f.instructor, uuid.New())
	require.NoError(t, err)
	assert.False(t, ok)
}
