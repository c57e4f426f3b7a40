package quizzes

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/timuslala/projektowanie-systemow-informatycznych/internal/access"
	"github.com/timuslala/projektowanie-systemow-informatycznych/internal/models"
)

// Review grades targetID's attempt at the quiz for the caller.
//
// Students may only review themselves, and only once they have answered at
// least one question of a quiz that shows answers on completion. Instructors
// and admins skip both gates. When they review another user and backfill is
// enabled, every unanswered question first gets an empty response so it can
// be graded; this is the only write a review performs.
func (s *Service) Review(ctx context.Context, p access.Principal, quizID, targetID uuid.UUID) (*Review, error) {
	privileged := access.IsPrivileged(p)
	if !privileged && p.UserID != targetID {
		return nil, ErrForbidden
	}
	quiz, err := s.visibleQuiz(ctx, p, quizID)
	if err != nil {
		return nil, err
	}
	student, err := s.store.GetUser(ctx, targetID)
	if err != nil {
		return nil, err
	}
	qs, err := s.questions(ctx, quiz.ID)
	if err != nil {
		return nil, err
	}
	ids := questionIDs(qs)

	var responses []models.Response
	if len(ids) > 0 {
		responses, err = s.store.ListResponses(ctx, targetID, ids)
		if err != nil {
			return nil, fmt.Errorf("list responses: %w", err)
		}
	}

	if !privileged {
		if len(responses) == 0 {
			return nil, ErrNotAttempted
		}
		if !quiz.ShowCorrectAnswersOnCompletion {
			return nil, ErrReviewDisabled
		}
	}

	if privileged && targetID != p.UserID && s.opts.BackfillOnReview && len(responses) < len(qs) {
		created, err := s.backfill(ctx, quiz.ID, targetID, qs, responses)
		if err != nil {
			return nil, err
		}
		if created > 0 {
			responses, err = s.store.ListResponses(ctx, targetID, ids)
			if err != nil {
				return nil, fmt.Errorf("list responses: %w", err)
			}
		}
	}

	return buildReview(quiz, student, Grade(qs, responses)), nil
}

// backfill creates empty responses for unanswered questions.
func (s *Service) backfill(ctx context.Context, quizID, userID uuid.UUID, qs []models.Question, have []models.Response) (int, error) {
	answered := make(map[uuid.UUID]struct{}, len(have))
	for _, r := range have {
		answered[r.QuestionID] = struct{}{}
	}
	created := 0
	for _, q := range qs {
		if _, ok := answered[q.ID]; ok {
			continue
		}
		ok, err := s.store.EnsureResponse(ctx, q.ID, userID)
		if err != nil {
			return created, fmt.Errorf("backfill response: %w", err)
		}
		if ok {
			created++
		}
	}
	if created > 0 {
		s.logger.Info("backfilled empty responses",
			zap.String("quiz_id", quizID.String()),
			zap.String("user_id", userID.String()),
			zap.Int("created", created))
	}
	return created, nil
}
