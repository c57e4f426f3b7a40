package quizzes

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")

	// Self-review gates. Both are forbidden errors.
	ErrNotAttempted   = fmt.Errorf("%w: quiz not yet attempted", ErrForbidden)
	ErrReviewDisabled = fmt.Errorf("%w: review not allowed by quiz settings", ErrForbidden)

	ErrInvalidPoints = errors.New("points must be between 0 and 9999.99")
	ErrTooManyItems  = errors.New("too many responses in one submission")
	ErrInvalidBanks  = errors.New("unknown question bank")
	ErrInvalidQuiz   = errors.New("invalid quiz")
)

// MaxPoints is the largest value the points column holds.
const MaxPoints = 9999.99
