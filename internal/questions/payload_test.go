package questions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timuslala/projektowanie-systemow-informatycznych/internal/models"
)

func intPtr(i int) *int    { return &i }
func boolPtr(b bool) *bool { return &b }

func TestBuildOpenQuestion(t *testing.T) {
	q, err := QuestionRequest{Text: " Explain ", Tags: []string{"a", " ", "b "}}.Build()
	require.NoError(t, err)
	assert.True(t, q.IsOpenEnded)
	assert.Nil(t, q.Choice)
	assert.Equal(t, "Explain", q.Text)
	assert.Equal(t, []string{"a", "b"}, q.Tags)
	assert.Equal(t, models.KindOpenEnded, q.Kind())
}

func TestBuildConvertsZeroBasedIndices(t *testing.T) {
	q, err := QuestionRequest{
		Text: "2+2", Type: TypeSingleChoice,
		Options: []string{"1", "2", "3", "4"}, CorrectOption: intPtr(3),
	}.Build()
	require.NoError(t, err)
	require.NotNil(t, q.Choice)
	assert.Equal(t, 4, q.Choice.CorrectOption)
	assert.Empty(t, q.Choice.CorrectOptions)

	q, err = QuestionRequest{
		Text: "primes", Type: TypeClosed, IsMultipleChoice: boolPtr(true),
		Options: []string{"2", "3", "4"}, CorrectOptions: []int{0, 1},
	}.Build()
	require.NoError(t, err)
	assert.Equal(t, models.KindMultiChoice, q.Kind())
	assert.Equal(t, []int{1, 2}, q.Choice.CorrectOptions)
	assert.Equal(t, 1, q.Choice.CorrectOption)
	assert.Equal(t, "", q.Choice.Options[3])
}

func TestBuildRejects(t *testing.T) {
	_, err := QuestionRequest{Text: ""}.Build()
	assert.ErrorIs(t, err, ErrEmptyText)

	_, err = QuestionRequest{Text: "x", Type: "essay"}.Build()
	assert.ErrorIs(t, err, ErrUnknownType)

	_, err = QuestionRequest{Text: "x", Type: TypeSingleChoice, CorrectOption: intPtr(4)}.Build()
	assert.ErrorIs(t, err, models.ErrInvalidChoice)

	_, err = QuestionRequest{Text: "x", Type: TypeMultipleChoice, Options: []string{"a", "b", "c", "d"}}.Build()
	assert.ErrorIs(t, err, models.ErrInvalidChoice)
}

func TestApplySwitchesToMultiChoice(t *testing.T) {
	d, err := models.NewChoiceDetail([]string{"a", "b", "c", "d"}, false, 2, nil)
	require.NoError(t, err)
	q := &models.Question{Text: "old", Tags: []string{"t"}, Choice: &d}

	err = QuestionRequest{IsMultipleChoice: boolPtr(true), CorrectOptions: []int{2, 3}}.Apply(q)
	require.NoError(t, err)
	assert.Equal(t, "old", q.Text)
	assert.Equal(t, []string{"t"}, q.Tags)
	assert.True(t, q.Choice.IsMultipleChoice)
	assert.Equal(t, 1, q.Choice.CorrectOption)
	assert.Equal(t, []int{3, 4}, q.Choice.CorrectOptions)

	err = QuestionRequest{IsMultipleChoice: boolPtr(false), CorrectOption: intPtr(0), Options: []string{"w", "x"}}.Apply(q)
	require.NoError(t, err)
	assert.False(t, q.Choice.IsMultipleChoice)
	assert.Equal(t, 1, q.Choice.CorrectOption)
	assert.Empty(t, q.Choice.CorrectOptions)
	assert.Equal(t, [models.OptionCount]string{"w", "x", "", ""}, q.Choice.Options)
}

func TestApplyIgnoresChoiceFieldsOnOpenQuestion(t *testing.T) {
	q := &models.Question{Text: "why", IsOpenEnded: true}
	require.NoError(t, QuestionRequest{Text: "how", CorrectOption: intPtr(1)}.Apply(q))
	assert.Equal(t, "how", q.Text)
	assert.Nil(t, q.Choice)
}

func TestNewView(t *testing.T) {
	d, err := models.NewChoiceDetail([]string{"a", "b", "c", "d"}, false, 3, nil)
	require.NoError(t, err)
	v := NewView(&models.Question{Text: "q", Choice: &d})
	assert.Equal(t, "single_choice", v.Type)
	require.Len(t, v.Options, 4)
	assert.Equal(t, OptionView{ID: 3, Text: "c"}, v.Options[2])
	require.NotNil(t, v.CorrectOption)
	assert.Equal(t, 3, *v.CorrectOption)
}
