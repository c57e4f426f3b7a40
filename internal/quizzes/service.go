package quizzes

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/timuslala/projektowanie-systemow-informatycznych/internal/access"
	"github.com/timuslala/projektowanie-systemow-informatycznych/internal/models"
)

// Event names published to the live feed.
const (
	EventQuizSubmitted   = "quiz_submitted"
	EventGradesFinalized = "grades_finalized"
)

// Options tunes the engine.
type Options struct {
	BackfillOnReview   bool
	MaxSubmissionItems int
}

// Service is the quiz submission, scoring and review engine.
type Service struct {
	store    Store
	policy   *access.Policy
	notifier Notifier
	enqueuer Enqueuer
	shuffle  func([]models.Question)
	opts     Options
	logger   *zap.Logger
}

// NewService creates the engine. notifier and enqueuer may be nil.
func NewService(store Store, policy *access.Policy, notifier Notifier, enqueuer Enqueuer, opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:    store,
		policy:   policy,
		notifier: notifier,
		enqueuer: enqueuer,
		shuffle:  Shuffle,
		opts:     opts,
		logger:   logger,
	}
}

// visibleQuiz loads a quiz the caller may see. Invisible quizzes are not found.
func (s *Service) visibleQuiz(ctx context.Context, p access.Principal, quizID uuid.UUID) (*models.Quiz, error) {
	quiz, err := s.store.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	ok, err := s.policy.CanViewCourse(ctx, p, quiz.CourseID, quiz.InstructorID)
	if err != nil {
		return nil, fmt.Errorf("check course access: %w", err)
	}
	if !ok {
		return nil, ErrNotFound
	}
	return quiz, nil
}

func (s *Service) questions(ctx context.Context, quizID uuid.UUID) ([]models.Question, error) {
	banks, err := s.store.QuizBanks(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("load quiz banks: %w", err)
	}
	return Aggregate(banks), nil
}

// Questions returns the quiz's question list without answers, shuffled per
// call when the quiz asks for it.
func (s *Service) Questions(ctx context.Context, p access.Principal, quizID uuid.UUID) ([]QuestionView, error) {
	quiz, err := s.visibleQuiz(ctx, p, quizID)
	if err != nil {
		return nil, err
	}
	qs, err := s.questions(ctx, quiz.ID)
	if err != nil {
		return nil, err
	}
	if quiz.RandomizeQuestionOrder {
		s.shuffle(qs)
	}
	views := make([]QuestionView, len(qs))
	for i := range qs {
		views[i] = questionView(&qs[i], false)
	}
	return views, nil
}

// Submit records the caller's answers. Items naming questions outside the quiz
// or carrying malformed answers are skipped; the rest are written. There is no
// rollback: answers written before a store failure stay.
func (s *Service) Submit(ctx context.Context, p access.Principal, quizID uuid.UUID, items []SubmissionItem) (int, error) {
	if s.opts.MaxSubmissionItems > 0 && len(items) > s.opts.MaxSubmissionItems {
		return 0, ErrTooManyItems
	}
	quiz, err := s.visibleQuiz(ctx, p, quizID)
	if err != nil {
		return 0, err
	}
	qs, err := s.questions(ctx, quiz.ID)
	if err != nil {
		return 0, err
	}
	byID := indexQuestions(qs)

	written := 0
	for _, item := range items {
		qid, err := parseQuestionID(item.QuestionID)
		if err != nil {
			s.skip(quiz.ID, string(item.QuestionID), err)
			continue
		}
		q, ok := byID[qid]
		if !ok {
			s.skip(quiz.ID, qid.String(), errors.New("question not in quiz"))
			continue
		}
		answer, err := decodeAnswer(q, item.Answer)
		if err != nil {
			s.skip(quiz.ID, qid.String(), err)
			continue
		}
		answer.UserID = p.UserID
		if err := s.store.UpsertAnswer(ctx, answer); err != nil {
			s.logger.Error("store answer",
				zap.Error(err),
				zap.String("quiz_id", quiz.ID.String()),
				zap.String("question_id", qid.String()),
				zap.String("user_id", p.UserID.String()))
			return written, fmt.Errorf("store answer: %w", err)
		}
		written++
	}

	s.logger.Info("quiz submitted",
		zap.String("quiz_id", quiz.ID.String()),
		zap.String("user_id", p.UserID.String()),
		zap.Int("items", len(items)),
		zap.Int("written", written))
	if s.notifier != nil && written > 0 {
		s.notifier.Publish(quiz.ID, EventQuizSubmitted, map[string]interface{}{
			"user_id": p.UserID,
			"items":   written,
		})
	}
	return written, nil
}

func (s *Service) skip(quizID uuid.UUID, questionID string, reason error) {
	s.logger.Debug("submission item skipped",
		zap.String("quiz_id", quizID.String()),
		zap.String("question_id", questionID),
		zap.String("reason", reason.Error()))
}

// ListSubmissions returns the users with at least one response to the quiz's questions.
func (s *Service) ListSubmissions(ctx context.Context, p access.Principal, quizID uuid.UUID) ([]models.UserSummary, error) {
	if !access.IsPrivileged(p) {
		return nil, ErrForbidden
	}
	quiz, err := s.visibleQuiz(ctx, p, quizID)
	if err != nil {
		return nil, err
	}
	qs, err := s.questions(ctx, quiz.ID)
	if err != nil {
		return nil, err
	}
	if len(qs) == 0 {
		return []models.UserSummary{}, nil
	}
	list, err := s.store.ListRespondents(ctx, questionIDs(qs))
	if err != nil {
		return nil, fmt.Errorf("list respondents: %w", err)
	}
	return list, nil
}

// GradeResponse sets points and/or the instructor comment on a response.
// Any instructor or admin may grade any response.
func (s *Service) GradeResponse(ctx context.Context, p access.Principal, responseID uuid.UUID, points *float64, comment *string) (*models.Response, error) {
	if !access.IsPrivileged(p) {
		return nil, ErrForbidden
	}
	if points != nil && (*points < 0 || *points > MaxPoints) {
		return nil, ErrInvalidPoints
	}
	r, err := s.store.UpdateGrade(ctx, responseID, points, comment)
	if err != nil {
		return nil, err
	}
	s.logger.Info("response graded",
		zap.String("response_id", r.ID.String()),
		zap.String("graded_by", p.UserID.String()),
		zap.Float64("points", r.Points))
	return r, nil
}

// Finalize queues persisting auto-credit for a student's correct answers.
// Without a queue the work runs inline and the job id is empty.
func (s *Service) Finalize(ctx context.Context, p access.Principal, quizID, userID uuid.UUID) (string, error) {
	if !access.IsPrivileged(p) {
		return "", ErrForbidden
	}
	quiz, err := s.visibleQuiz(ctx, p, quizID)
	if err != nil {
		return "", err
	}
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return "", err
	}
	if s.enqueuer == nil {
		_, err := s.FinalizeGrades(ctx, quiz.ID, userID)
		return "", err
	}
	jobID, err := s.enqueuer.EnqueueFinalize(ctx, quiz.ID, userID, p.UserID)
	if err != nil {
		return "", fmt.Errorf("enqueue finalize: %w", err)
	}
	return jobID, nil
}

// FinalizeGrades persists one point on every correct response that still has
// zero points and returns how many were credited.
func (s *Service) FinalizeGrades(ctx context.Context, quizID, userID uuid.UUID) (int, error) {
	qs, err := s.questions(ctx, quizID)
	if err != nil {
		return 0, err
	}
	if len(qs) == 0 {
		return 0, nil
	}
	responses, err := s.store.ListResponses(ctx, userID, questionIDs(qs))
	if err != nil {
		return 0, fmt.Errorf("list responses: %w", err)
	}
	one := 1.0
	credited := 0
	for _, item := range Grade(qs, responses).Items {
		if item.Response == nil || item.Response.Points != 0 || item.Correct == nil || !*item.Correct {
			continue
		}
		if _, err := s.store.UpdateGrade(ctx, item.Response.ID, &one, nil); err != nil {
			return credited, fmt.Errorf("credit response %s: %w", item.Response.ID, err)
		}
		credited++
	}
	s.logger.Info("grades finalized",
		zap.String("quiz_id", quizID.String()),
		zap.String("user_id", userID.String()),
		zap.Int("credited", credited))
	if s.notifier != nil {
		s.notifier.Publish(quizID, EventGradesFinalized, map[string]interface{}{
			"user_id":  userID,
			"credited": credited,
		})
	}
	return credited, nil
}

// CanMonitor reports whether p may watch the quiz's live feed: instructors
// and admins who manage its course.
func (s *Service) CanMonitor(ctx context.Context, p access.Principal, quizID uuid.UUID) (bool, error) {
	if !access.IsPrivileged(p) {
		return false, nil
	}
	quiz, err := s.visibleQuiz(ctx, p, quizID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return access.CanManageCourse(p, quiz.InstructorID), nil
}
