package quizzes

import (
	"context"

	"github.com/google/uuid"

	"github.com/timuslala/projektowanie-systemow-informatycznych/internal/access"
	"github.com/timuslala/projektowanie-systemow-informatycznych/internal/models"
)

// Answer is the set of answer fields written by a submission. Exactly one
// shape is populated; the others are cleared on upsert.
type Answer struct {
	QuestionID      uuid.UUID
	UserID          uuid.UUID
	Text            *string
	SelectedOption  *int
	SelectedOptions []int
}

// Store is the persistence the quiz engine needs. Implementations must keep at
// most one response per (question, user).
type Store interface {
	GetQuiz(ctx context.Context, id uuid.UUID) (*models.Quiz, error)
	ListQuizzes(ctx context.Context, p access.Principal, courseID *uuid.UUID) ([]models.Quiz, error)
	CreateQuiz(ctx context.Context, q *models.Quiz) error
	UpdateQuiz(ctx context.Context, q *models.Quiz) error
	DeleteQuiz(ctx context.Context, id uuid.UUID) error
	GetCourse(ctx context.Context, id uuid.UUID) (*models.Course, error)
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)

	// QuizBanks returns the quiz's banks in link order, each with its questions in insertion order.
	QuizBanks(ctx context.Context, quizID uuid.UUID) ([]models.QuestionBank, error)

	// UpsertAnswer writes the answer fields only; points and instructor_comment are preserved.
	UpsertAnswer(ctx context.Context, a Answer) error
	// EnsureResponse inserts an empty response if none exists.
	EnsureResponse(ctx context.Context, questionID, userID uuid.UUID) (created bool, err error)
	ListResponses(ctx context.Context, userID uuid.UUID, questionIDs []uuid.UUID) ([]models.Response, error)
	// UpdateGrade changes only the provided fields.
	UpdateGrade(ctx context.Context, responseID uuid.UUID, points *float64, comment *string) (*models.Response, error)
	ListRespondents(ctx context.Context, questionIDs []uuid.UUID) ([]models.UserSummary, error)
}

// Notifier fans quiz activity out to connected instructors.
type Notifier interface {
	Publish(quizID uuid.UUID, event string, payload interface{})
}

// Enqueuer hands grade finalization to the background worker.
type Enqueuer interface {
	EnqueueFinalize(ctx context.Context, quizID, userID, requestedBy uuid.UUID) (jobID string, err error)
}
