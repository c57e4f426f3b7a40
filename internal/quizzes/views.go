package quizzes

import (
	"github.com/google/uuid"

	"github.com/timuslala/projektowanie-systemow-informatycznych/internal/models"
)

// OptionView is one answer option. IsCorrect is set only in reviews.
type OptionView struct {
	ID        int    `json:"id"`
	Text      string `json:"text"`
	IsCorrect *bool  `json:"is_correct,omitempty"`
}

// QuestionView is a question as shown while taking or reviewing a quiz.
type QuestionView struct {
	ID               uuid.UUID    `json:"id"`
	Text             string       `json:"text"`
	Type             string       `json:"type"`
	IsOpenEnded      bool         `json:"is_open_ended"`
	IsMultipleChoice bool         `json:"is_multiple_choice"`
	Options          []OptionView `json:"options"`
}

// ResponseView is a user's stored answer with its computed grade.
type ResponseView struct {
	ResponseID        uuid.UUID `json:"response_id"`
	QuestionID        uuid.UUID `json:"question_id"`
	SelectedOptionID  *int      `json:"selected_option_id"`
	SelectedOptionIDs []int     `json:"selected_option_ids"`
	TextResponse      *string   `json:"text_response"`
	IsCorrect         *bool     `json:"is_correct"`
	Points            float64   `json:"points"`
	InstructorComment *string   `json:"instructor_comment"`
}

// Review is the graded view of one user's attempt at a quiz.
type Review struct {
	QuizTitle      string         `json:"quiz_title"`
	SubjectName    string         `json:"subject_name"`
	StudentID      uuid.UUID      `json:"student_id"`
	StudentName    string         `json:"student_name"`
	Score          float64        `json:"score"`
	TotalQuestions int            `json:"total_questions"`
	Questions      []QuestionView `json:"questions"`
	Responses      []ResponseView `json:"responses"`
}

func questionView(q *models.Question, withAnswers bool) QuestionView {
	v := QuestionView{ID: q.ID, Text: q.Text, Type: string(q.Kind()), IsOpenEnded: q.Choice == nil}
	if q.Choice == nil {
		return v
	}
	v.IsMultipleChoice = q.Choice.IsMultipleChoice
	v.Options = make([]OptionView, models.OptionCount)
	for i, text := range q.Choice.Options {
		opt := OptionView{ID: i + 1, Text: text}
		if withAnswers {
			correct := optionIsCorrect(q.Choice, i+1)
			opt.IsCorrect = &correct
		}
		v.Options[i] = opt
	}
	return v
}

func optionIsCorrect(d *models.ChoiceDetail, id int) bool {
	if !d.IsMultipleChoice {
		return d.CorrectOption == id
	}
	for _, c := range d.CorrectOptions {
		if c == id {
			return true
		}
	}
	return false
}

func responseView(item GradedItem) ResponseView {
	r := item.Response
	return ResponseView{
		ResponseID:        r.ID,
		QuestionID:        r.QuestionID,
		SelectedOptionID:  r.SelectedOption,
		SelectedOptionIDs: r.SelectedOptions,
		TextResponse:      r.ResponseText,
		IsCorrect:         item.Correct,
		Points:            r.Points,
		InstructorComment: r.InstructorComment,
	}
}

func buildReview(quiz *models.Quiz, student *models.User, res Result) *Review {
	name := student.FullName()
	if name == "" {
		name = student.Email
	}
	rv := &Review{
		QuizTitle:      quiz.Title,
		SubjectName:    quiz.CourseTitle,
		StudentID:      student.ID,
		StudentName:    name,
		Score:          res.Score,
		TotalQuestions: res.TotalQuestions,
		Questions:      make([]QuestionView, 0, len(res.Items)),
		Responses:      []ResponseView{},
	}
	for _, item := range res.Items {
		rv.Questions = append(rv.Questions, questionView(item.Question, true))
		if item.Response != nil {
			rv.Responses = append(rv.Responses, responseView(item))
		}
	}
	return rv
}
