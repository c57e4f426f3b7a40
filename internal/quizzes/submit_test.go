package quizzes

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(questionID uuid.UUID, answer string) SubmissionItem {
	return SubmissionItem{
		QuestionID: json.RawMessage(`"` + questionID.String() + `"`),
		Answer:     json.RawMessage(answer),
	}
}

func TestDecodeAnswer(t *testing.T) {
	open := openQuestion("o")
	single := singleChoice("s", 2)
	multi := multiChoice("m", 1, 2)

	t.Run("open text", func(t *testing.T) {
		a, err := decodeAnswer(&open, json.RawMessage(`"forty two"`))
		require.NoError(t, err)
		require.NotNil(t, a.Text)
		assert.Equal(t, "forty two", *a.Text)
	})
	t.Run("open number keeps literal", func(t *testing.T) {
		a, err := decodeAnswer(&open, json.RawMessage(`42.50`))
		require.NoError(t, err)
		assert.Equal(t, "42.50", *a.Text)
	})
	t.Run("open object rejected", func(t *testing.T) {
		_, err := decodeAnswer(&open, json.RawMessage(`{"x":1}`))
		assert.ErrorIs(t, err, errBadAnswer)
	})
	t.Run("null skipped", func(t *testing.T) {
		_, err := decodeAnswer(&single, json.RawMessage(`null`))
		assert.ErrorIs(t, err, errNoAnswer)
	})
	t.Run("scalar index", func(t *testing.T) {
		a, err := decodeAnswer(&single, json.RawMessage(`3`))
		require.NoError(t, err)
		assert.Equal(t, 3, *a.SelectedOption)
		assert.Empty(t, a.SelectedOptions)
	})
	t.Run("numeric string index", func(t *testing.T) {
		a, err := decodeAnswer(&single, json.RawMessage(`" 4 "`))
		require.NoError(t, err)
		assert.Equal(t, 4, *a.SelectedOption)
	})
	t.Run("list fills options", func(t *testing.T) {
		a, err := decodeAnswer(&multi, json.RawMessage(`[2, "1", 2]`))
		require.NoError(t, err)
		assert.Nil(t, a.SelectedOption)
		assert.Equal(t, []int{2, 1}, a.SelectedOptions)
	})
	t.Run("list on single choice still stored as options", func(t *testing.T) {
		a, err := decodeAnswer(&single, json.RawMessage(`[2]`))
		require.NoError(t, err)
		assert.Nil(t, a.SelectedOption)
		assert.Equal(t, []int{2}, a.SelectedOptions)
	})
	t.Run("out of range", func(t *testing.T) {
		_, err := decodeAnswer(&single, json.RawMessage(`5`))
		assert.ErrorIs(t, err, errBadAnswer)
		_, err = decodeAnswer(&multi, json.RawMessage(`[1, 0]`))
		assert.ErrorIs(t, err, errBadAnswer)
	})
	t.Run("fraction rejected", func(t *testing.T) {
		_, err := decodeAnswer(&single, json.RawMessage(`1.5`))
		assert.ErrorIs(t, err, errBadAnswer)
	})
}

func TestParseQuestionID(t *testing.T) {
	id := uuid.New()
	got, err := parseQuestionID(json.RawMessage(`"` + id.String() + `"`))
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = parseQuestionID(json.RawMessage(`12`))
	assert.ErrorIs(t, err, errBadQuestionID)
	_, err = parseQuestionID(json.RawMessage(`"nope"`))
	assert.ErrorIs(t, err, errBadQuestionID)
}

func TestSubmitIsIdempotentAndKeepsGrades(t *testing.T) {
	ctx := context.Background()
	q := openQuestion("essay")
	f := newFixture(Options{}, bank(q))

	n, err := f.svc.Submit(ctx, f.student, f.quiz.ID, []SubmissionItem{item(q.ID, `"first draft"`)})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	r := f.store.responseFor(q.ID, f.student.UserID)
	require.NotNil(t, r)
	points, comment := 2.5, "good start"
	_, err = f.svc.GradeResponse(ctx, f.instructor, r.ID, &points, &comment)
	require.NoError(t, err)

	_, err = f.svc.Submit(ctx, f.student, f.quiz.ID, []SubmissionItem{item(q.ID, `"final answer"`)})
	require.NoError(t, err)

	after := f.store.responseFor(q.ID, f.student.UserID)
	assert.Equal(t, r.ID, after.ID)
	assert.Equal(t, "final answer", *after.ResponseText)
	assert.Equal(t, 2.5, after.Points)
	assert.Equal(t, "good start", *after.InstructorComment)
	assert.Len(t, f.store.responses, 1)
}

func TestSubmitSkipsBadItems(t *testing.T) {
	ctx := context.Background()
	single := singleChoice("s", 1)
	open := openQuestion("o")
	f := newFixture(Options{}, bank(single, open))

	items := []SubmissionItem{
		item(single.ID, `9`),
		item(uuid.New(), `1`),
		{QuestionID: json.RawMessage(`42`), Answer: json.RawMessage(`1`)},
		item(open.ID, `null`),
		item(single.ID, `1`),
	}
	n, err := f.svc.Submit(ctx, f.student, f.quiz.ID, items)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Len(t, f.store.responses, 1)
	assert.Equal(t, 1, *f.store.responseFor(single.ID, f.student.UserID).SelectedOption)
	assert.Equal(t, []published{{f.quiz.ID, EventQuizSubmitted}}, f.notes.events)
}

func TestSubmitNothingWrittenPublishesNothing(t *testing.T) {
	f := newFixture(Options{}, bank(openQuestion("o")))
	n, err := f.svc.Submit(context.Background(), f.student, f.quiz.ID, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, f.notes.events)
}

func TestSubmitLimits(t *testing.T) {
	q := openQuestion("o")
	f := newFixture(Options{MaxSubmissionItems: 1}, bank(q))

	_, err := f.svc.Submit(context.Background(), f.student, f.quiz.ID, []SubmissionItem{item(q.ID, `"a"`), item(q.ID, `"b"`)})
	assert.ErrorIs(t, err, ErrTooManyItems)
}

func TestSubmitInvisibleQuiz(t *testing.T) {
	f := newFixture(Options{}, bank(openQuestion("o")))
	outsider := f.student
	outsider.UserID = uuid.New()

	_, err := f.svc.Submit(context.Background(), outsider, f.quiz.ID, nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSubmitScalarOnMultiSelectIsGradedWrong(t *testing.T) {
	ctx := context.Background()
	q := multiChoice("pick d", 4)
	f := newFixture(Options{}, bank(q))

	_, err := f.svc.Submit(ctx, f.student, f.quiz.ID, []SubmissionItem{item(q.ID, `4`)})
	require.NoError(t, err)
	r := f.store.responseFor(q.ID, f.student.UserID)
	require.NotNil(t, r.SelectedOption)
	assert.Equal(t, 4, *r.SelectedOption)
	assert.Empty(t, r.SelectedOptions)
	assert.False(t, *IsCorrect(&q, r))

	_, err = f.svc.Submit(ctx, f.student, f.quiz.ID, []SubmissionItem{item(q.ID, `[4]`)})
	require.NoError(t, err)
	r = f.store.responseFor(q.ID, f.student.UserID)
	assert.Equal(t, []int{4}, r.SelectedOptions)
	assert.True(t, *IsCorrect(&q, r))
}
