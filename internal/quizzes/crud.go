package quizzes

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/timuslala/projektowanie-systemow-informatycznych/internal/access"
	"github.com/timuslala/projektowanie-systemow-informatycznych/internal/models"
)

// QuizInput is the body for creating or replacing a quiz.
type QuizInput struct {
	CourseID                       uuid.UUID   `json:"course" binding:"required"`
	Title                          string      `json:"title" binding:"required,max=255"`
	Description                    string      `json:"description"`
	TimeLimitInMinutes             int         `json:"time_limit_in_minutes"`
	RandomizeQuestionOrder         bool        `json:"randomize_question_order"`
	ShowCorrectAnswersOnCompletion bool        `json:"show_correct_answers_on_completion"`
	QuestionBanks                  []uuid.UUID `json:"question_banks"`
}

func (in QuizInput) apply(q *models.Quiz) error {
	if in.TimeLimitInMinutes < 0 || in.TimeLimitInMinutes > math.MaxInt16 {
		return fmt.Errorf("%w: time_limit_in_minutes out of range", ErrInvalidQuiz)
	}
	q.CourseID = in.CourseID
	q.Title = in.Title
	q.Description = in.Description
	q.TimeLimitInMinutes = in.TimeLimitInMinutes
	q.RandomizeQuestionOrder = in.RandomizeQuestionOrder
	q.ShowCorrectAnswersOnCompletion = in.ShowCorrectAnswersOnCompletion
	q.QuestionBankIDs = dedupeIDs(in.QuestionBanks)
	return nil
}

func dedupeIDs(ids []uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// managedCourse loads a course the caller may author quizzes for.
func (s *Service) managedCourse(ctx context.Context, p access.Principal, courseID uuid.UUID) (*models.Course, error) {
	course, err := s.store.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if !access.CanManageCourse(p, course.InstructorID) {
		return nil, ErrForbidden
	}
	return course, nil
}

// ListQuizzes returns the quizzes of courses visible to the caller.
func (s *Service) ListQuizzes(ctx context.Context, p access.Principal, courseID *uuid.UUID) ([]models.Quiz, error) {
	return s.store.ListQuizzes(ctx, p, courseID)
}

// GetQuiz returns one visible quiz.
func (s *Service) GetQuiz(ctx context.Context, p access.Principal, id uuid.UUID) (*models.Quiz, error) {
	return s.visibleQuiz(ctx, p, id)
}

// CreateQuiz adds a quiz to a course the caller manages.
func (s *Service) CreateQuiz(ctx context.Context, p access.Principal, in QuizInput) (*models.Quiz, error) {
	course, err := s.managedCourse(ctx, p, in.CourseID)
	if err != nil {
		return nil, err
	}
	q := &models.Quiz{}
	if err := in.apply(q); err != nil {
		return nil, err
	}
	if err := s.store.CreateQuiz(ctx, q); err != nil {
		return nil, err
	}
	q.CourseTitle, q.InstructorID = course.Title, course.InstructorID
	s.logger.Info("quiz created", zap.String("quiz_id", q.ID.String()), zap.String("course_id", course.ID.String()))
	return q, nil
}

// UpdateQuiz replaces a quiz's settings and bank links.
func (s *Service) UpdateQuiz(ctx context.Context, p access.Principal, id uuid.UUID, in QuizInput) (*models.Quiz, error) {
	q, err := s.visibleQuiz(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if !access.CanManageCourse(p, q.InstructorID) {
		return nil, ErrForbidden
	}
	if in.CourseID != q.CourseID {
		course, err := s.managedCourse(ctx, p, in.CourseID)
		if err != nil {
			return nil, err
		}
		q.CourseTitle, q.InstructorID = course.Title, course.InstructorID
	}
	if err := in.apply(q); err != nil {
		return nil, err
	}
	if err := s.store.UpdateQuiz(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// DeleteQuiz removes a quiz. Questions and responses are kept.
func (s *Service) DeleteQuiz(ctx context.Context, p access.Principal, id uuid.UUID) error {
	q, err := s.visibleQuiz(ctx, p, id)
	if err != nil {
		return err
	}
	if !access.CanManageCourse(p, q.InstructorID) {
		return ErrForbidden
	}
	return s.store.DeleteQuiz(ctx, q.ID)
}
