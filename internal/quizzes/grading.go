package quizzes

import (
	"github.com/google/uuid"

	"github.com/timuslala/projektowanie-systemow-informatycznych/internal/models"
)

// IsCorrect computes automatic correctness. Open-ended questions have none and return nil.
func IsCorrect(q *models.Question, r *models.Response) *bool {
	if q.Choice == nil {
		return nil
	}
	ok := false
	if r != nil {
		if q.Choice.IsMultipleChoice {
			// An empty selection is unanswered, never a match.
			ok = len(r.SelectedOptions) > 0 && sameSet(r.SelectedOptions, q.Choice.CorrectOptions)
		} else {
			ok = r.SelectedOption != nil && *r.SelectedOption == q.Choice.CorrectOption
		}
	}
	return &ok
}

func sameSet(a, b []int) bool {
	as := make(map[int]struct{}, len(a))
	for _, v := range a {
		as[v] = struct{}{}
	}
	bs := make(map[int]struct{}, len(b))
	for _, v := range b {
		bs[v] = struct{}{}
	}
	if len(as) != len(bs) {
		return false
	}
	for v := range as {
		if _, ok := bs[v]; !ok {
			return false
		}
	}
	return true
}

// GradedItem is one question with the user's response and its computed grade.
type GradedItem struct {
	Question     *models.Question
	Response     *models.Response // nil when unanswered
	Correct      *bool
	Contribution float64
}

// Result is the outcome of grading a user's responses to a question set.
type Result struct {
	Score          float64
	TotalQuestions int
	Items          []GradedItem
}

// Grade scores responses against questions without touching storage. Stored
// points win; a correct answer with zero points counts as one.
func Grade(questions []models.Question, responses []models.Response) Result {
	byQuestion := make(map[uuid.UUID]*models.Response, len(responses))
	for i := range responses {
		byQuestion[responses[i].QuestionID] = &responses[i]
	}
	res := Result{TotalQuestions: len(questions), Items: make([]GradedItem, 0, len(questions))}
	for i := range questions {
		q := &questions[i]
		r := byQuestion[q.ID]
		item := GradedItem{Question: q, Response: r, Correct: IsCorrect(q, r)}
		switch {
		case r != nil && r.Points != 0:
			item.Contribution = r.Points
		case item.Correct != nil && *item.Correct:
			item.Contribution = 1
		}
		res.Score += item.Contribution
		res.Items = append(res.Items, item)
	}
	return res
}
