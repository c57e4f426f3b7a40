package models

import (
	"time"

	"github.com/google/uuid"
)

// Quiz belongs to a course and draws its questions from linked question banks.
type Quiz struct {
	ID                             uuid.UUID   `json:"id"`
	CourseID                       uuid.UUID   `json:"course"`
	Title                          string      `json:"title"`
	Description                    string      `json:"description"`
	TimeLimitInMinutes             int         `json:"time_limit_in_minutes"`
	RandomizeQuestionOrder         bool        `json:"randomize_question_order"`
	ShowCorrectAnswersOnCompletion bool        `json:"show_correct_answers_on_completion"`
	QuestionBankIDs                []uuid.UUID `json:"question_banks"`
	CreatedAt                      time.Time   `json:"created_at"`
	UpdatedAt                      time.Time   `json:"updated_at"`

	// Joined from the owning course.
	CourseTitle  string    `json:"-"`
	InstructorID uuid.UUID `json:"-"`
}

// Response is the single persisted answer of one user to one question.
type Response struct {
	ID                uuid.UUID `json:"id"`
	QuestionID        uuid.UUID `json:"question_id"`
	UserID            uuid.UUID `json:"user_id"`
	ResponseText      *string   `json:"response_text"`
	SelectedOption    *int      `json:"selected_option"`
	SelectedOptions   []int     `json:"selected_options"`
	InstructorComment *string   `json:"instructor_comment"`
	Points            float64   `json:"points"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}
