package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// OptionCount is the fixed number of option slots on a choice question.
const OptionCount = 4

// QuestionKind discriminates the question variants.
type QuestionKind string

const (
	KindOpenEnded    QuestionKind = "open"
	KindSingleChoice QuestionKind = "single_choice"
	KindMultiChoice  QuestionKind = "multiple_choice"
)

// ErrInvalidChoice is returned when a choice detail violates its invariants.
var ErrInvalidChoice = errors.New("invalid choice detail")

// ChoiceDetail is the extension carried by choice-based questions.
// When IsMultipleChoice is false, CorrectOption (1..4) is authoritative and
// CorrectOptions is empty. When true, CorrectOptions is authoritative and
// CorrectOption is a placeholder fixed at 1.
type ChoiceDetail struct {
	Options          [OptionCount]string `json:"options"`
	IsMultipleChoice bool                `json:"is_multiple_choice"`
	CorrectOption    int                 `json:"correct_option"`
	CorrectOptions   []int               `json:"correct_options"`
}

// NewChoiceDetail builds a ChoiceDetail that satisfies the single/multi invariant.
// Options beyond the fourth are dropped and missing ones are blank. Indices are 1-based.
func NewChoiceDetail(options []string, multi bool, correct int, corrects []int) (ChoiceDetail, error) {
	var d ChoiceDetail
	copy(d.Options[:], options)
	d.IsMultipleChoice = multi
	if !multi {
		if !ValidOptionIndex(correct) {
			return ChoiceDetail{}, fmt.Errorf("%w: correct option %d out of range", ErrInvalidChoice, correct)
		}
		d.CorrectOption = correct
		d.CorrectOptions = []int{}
		return d, nil
	}
	d.CorrectOption = 1
	set, err := NormalizeOptionSet(corrects)
	if err != nil {
		return ChoiceDetail{}, err
	}
	if len(set) == 0 {
		return ChoiceDetail{}, fmt.Errorf("%w: multiple choice needs at least one correct option", ErrInvalidChoice)
	}
	d.CorrectOptions = set
	return d, nil
}

// ValidOptionIndex reports whether i addresses one of the option slots.
func ValidOptionIndex(i int) bool {
	return i >= 1 && i <= OptionCount
}

// NormalizeOptionSet drops duplicate indices while keeping first-seen order.
func NormalizeOptionSet(indices []int) ([]int, error) {
	out := make([]int, 0, len(indices))
	seen := make(map[int]struct{}, len(indices))
	for _, i := range indices {
		if !ValidOptionIndex(i) {
			return nil, fmt.Errorf("%w: option %d out of range", ErrInvalidChoice, i)
		}
		if _, dup := seen[i]; dup {
			continue
		}
		seen[i] = struct{}{}
		out = append(out, i)
	}
	return out, nil
}

// Question is the unit the quiz engine operates on: open-ended when Choice is nil.
type Question struct {
	ID          uuid.UUID     `json:"id"`
	Text        string        `json:"text"`
	Tags        []string      `json:"tags"`
	IsOpenEnded bool          `json:"is_open_ended"`
	Choice      *ChoiceDetail `json:"choice,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}

// Kind returns the variant that drives submission and grading.
func (q *Question) Kind() QuestionKind {
	switch {
	case q.Choice == nil:
		return KindOpenEnded
	case q.Choice.IsMultipleChoice:
		return KindMultiChoice
	default:
		return KindSingleChoice
	}
}

// QuestionBank is an instructor-owned collection of reusable questions.
type QuestionBank struct {
	ID                uuid.UUID  `json:"id"`
	Title             string     `json:"title"`
	OwnerID           uuid.UUID  `json:"owner_id"`
	NumberOfQuestions int        `json:"number_of_questions"`
	Questions         []Question `json:"-"`
	CreatedAt         time.Time  `json:"created_at"`
}
